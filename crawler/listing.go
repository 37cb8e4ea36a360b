package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/riuff/item"
	"github.com/pevans/riuff/scraper"
)

// Listing is the parsed content of one listing page.
type Listing struct {
	Stubs []item.Stub
	// NextURL is the absolute URL of the following page, or empty on the
	// last page.
	NextURL string
}

// ParseListing extracts one stub per item row of a listing page and the link
// to the next page. A row whose link carries no handle id is a ParseError.
func ParseListing(
	doc *goquery.Document,
	sel scraper.ListSelectors,
	resolve func(href string) (string, error),
	collection item.Collection,
	pageURL string,
) (*Listing, error) {
	collectionID, err := collection.ID()
	if err != nil {
		return nil, err
	}

	listing := &Listing{Stubs: []item.Stub{}}

	var rowErr error
	doc.Find(sel.ItemSelector).EachWithBreak(func(i int, row *goquery.Selection) bool {
		link := row.Find(sel.LinkSelector).First()
		href, _ := link.Attr("href")

		id, ok := item.HandleID(href)
		if !ok {
			rowErr = &ParseError{URL: pageURL, Reason: fmt.Sprintf("row %d: link %q has no handle id", i+1, href)}
			return false
		}

		detailURL, err := resolve(href)
		if err != nil {
			rowErr = &ParseError{URL: pageURL, Reason: fmt.Sprintf("row %d: invalid link %q", i+1, href), Err: err}
			return false
		}

		listing.Stubs = append(listing.Stubs, item.Stub{
			ID:                    id,
			Title:                 strings.TrimSpace(link.Text()),
			Author:                strings.TrimSpace(row.Find(sel.AuthorSelector).Text()),
			URL:                   detailURL + sel.DetailQuery,
			CollectionID:          collectionID,
			CollectionName:        collection.Name,
			CollectionDescription: collection.Description,
			CollectionURL:         collection.URL,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	if href, ok := doc.Find(sel.NextSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		next, err := resolve(href)
		if err != nil {
			return nil, &ParseError{URL: pageURL, Reason: fmt.Sprintf("invalid next page link %q", href), Err: err}
		}
		listing.NextURL = next
	}

	return listing, nil
}

// FetchPages follows the pagination chain of collection from startURL and
// returns the enriched records of every page in order.
//
// yearLimit of zero disables the temporal boundary. Otherwise an item is kept
// only if its degree year is at least yearLimit, and pagination stops after a
// page whose last item has a degree year below yearLimit. The stop decision
// looks only at the last item of a page while the filter looks at every item.
func (c *Crawler) FetchPages(ctx context.Context, collection item.Collection, startURL string, yearLimit int) ([]item.Record, error) {
	results := []item.Record{}
	visited := make(map[string]bool)

	pageURL := startURL
	for page := 1; pageURL != ""; page++ {
		if c.maxPages > 0 && page > c.maxPages {
			c.logger.Printf("WARN: stopping %q after %d pages", collection.Name, c.maxPages)
			break
		}
		if visited[pageURL] {
			c.logger.Printf("WARN: pagination of %q loops back to %s, stopping", collection.Name, pageURL)
			break
		}
		visited[pageURL] = true

		records, next, stubs, err := c.fetchPage(ctx, collection, pageURL)
		if err != nil {
			return nil, err
		}
		c.logger.Printf("INFO: %d items on page %d of %q", len(records), page, collection.Name)

		if stubs == 0 {
			break
		}

		// A page whose items were all skipped has no last year, which never
		// stops pagination.
		var lastYear int
		var lastOK bool
		if len(records) > 0 {
			lastYear, lastOK = records[len(records)-1].DegreeYear()
		}
		results = append(results, filterByYear(records, yearLimit)...)

		if next == "" {
			break
		}
		if yearLimitReached(lastYear, lastOK, yearLimit) {
			c.logger.Printf("INFO: year limit %d reached (last item from %d), not fetching next page", yearLimit, lastYear)
			break
		}
		c.logger.Printf("INFO: next page detected: %s", next)
		pageURL = next
	}

	return results, nil
}

// fetchPage fetches one listing page and resolves its stubs, in listing order.
// It also returns the number of stubs on the page, which is zero only once the
// listing is exhausted.
func (c *Crawler) fetchPage(ctx context.Context, collection item.Collection, pageURL string) ([]item.Record, string, int, error) {
	doc, err := c.fetchHTML(ctx, "fetchPage", pageURL)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to fetch listing page: %w", err)
	}

	listing, err := ParseListing(doc, c.selectors.Listing, c.resolve, collection, pageURL)
	if err != nil {
		return nil, "", 0, err
	}
	if len(listing.Stubs) == 0 {
		return nil, "", 0, nil
	}

	records := make([]item.Record, 0, len(listing.Stubs))
	for _, stub := range listing.Stubs {
		record, err := c.FetchDetails(ctx, stub)
		if err != nil {
			if c.onError == PolicySkip && ctx.Err() == nil {
				c.logger.Printf("ERROR: skipping item %s: %v", stub.ID, err)
				continue
			}
			return nil, "", 0, err
		}
		records = append(records, *record)
	}

	return records, listing.NextURL, len(listing.Stubs), nil
}

// yearLimitReached reports whether the last item of a page ends pagination.
// A year that is not a number never satisfies the check.
func yearLimitReached(lastYear int, ok bool, yearLimit int) bool {
	return yearLimit != 0 && ok && lastYear < yearLimit
}

// filterByYear keeps the records whose degree year is at least yearLimit.
func filterByYear(records []item.Record, yearLimit int) []item.Record {
	if yearLimit == 0 {
		return records
	}

	kept := make([]item.Record, 0, len(records))
	for _, r := range records {
		if year, ok := r.DegreeYear(); ok && year >= yearLimit {
			kept = append(kept, r)
		}
	}
	return kept
}
