package crawler

import (
	"context"
	"fmt"

	"github.com/pevans/riuff/item"
)

// Walk crawls every collection in order, one after the other, starting from
// its recent submissions page. It returns a copy of collections with Items
// populated; the input is not modified.
func (c *Crawler) Walk(ctx context.Context, collections []item.Collection, yearLimit int) ([]item.Collection, error) {
	walked := make([]item.Collection, len(collections))
	copy(walked, collections)

	for i := range walked {
		collection := &walked[i]
		c.logger.Printf("INFO: fetching collection %s - %s", collection.Name, collection.URL)

		items, err := c.FetchPages(ctx, *collection, collection.RecentSubmissionsURL(), yearLimit)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", collection.Name, err)
		}
		collection.Items = items
	}

	return walked, nil
}
