package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/riuff/item"
	"github.com/pevans/riuff/scraper"
)

// FetchDetails returns the enriched record for stub. A cached record is
// returned without any request or delay. Otherwise the full metadata page is
// fetched, parsed and written to the cache before it is returned.
//
// Concurrent calls for the same id share one fetch and receive the same
// record.
func (c *Crawler) FetchDetails(ctx context.Context, stub item.Stub) (*item.Record, error) {
	v, err, _ := c.inflight.Do(stub.ID, func() (any, error) {
		return c.fetchDetails(ctx, stub)
	})
	if err != nil {
		return nil, err
	}
	return v.(*item.Record), nil
}

func (c *Crawler) fetchDetails(ctx context.Context, stub item.Stub) (*item.Record, error) {
	cached, err := c.store.Exists(stub.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check cache for item %s: %w", stub.ID, err)
	}
	if cached {
		c.logger.Printf("INFO: item %s found in cache", stub.ID)
		record, err := c.store.Read(stub.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load cached item %s: %w", stub.ID, err)
		}
		return record, nil
	}

	doc, err := c.fetchHTML(ctx, "fetchItemDetails", stub.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", stub.ID, err)
	}

	record := item.NewRecord(stub)
	if err := ExtractDetails(doc, c.selectors.Detail, c.resolve, record); err != nil {
		return nil, fmt.Errorf("failed to extract item %s: %w", stub.ID, err)
	}

	if err := c.store.Write(stub.ID, record); err != nil {
		return nil, fmt.Errorf("failed to cache item %s: %w", stub.ID, err)
	}
	c.logger.Printf("INFO: item %s saved to cache", stub.ID)

	return record, nil
}

// ExtractDetails overlays the metadata table and the document link of a
// detail page onto record. resolve turns the document href into an absolute
// URL.
func ExtractDetails(
	doc *goquery.Document,
	sel scraper.DetailSelectors,
	resolve func(href string) (string, error),
	record *item.Record,
) error {
	record.Normalize()

	doc.Find(sel.RowSelector).Each(func(i int, row *goquery.Selection) {
		keyCell := row.Find(sel.KeySelector).First()
		key, ok := keyCell.Attr("title")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			key = strings.TrimSpace(keyCell.Text())
		}

		set, known := fieldSetters[key]
		if !known {
			return
		}
		set(record, strings.TrimSpace(row.Find(sel.ValueSelector).First().Text()))
	})

	files := doc.Find(sel.FileSelector).First()
	if href, ok := files.Find("a").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		documentURL, err := resolve(href)
		if err != nil {
			return fmt.Errorf("invalid document link %q: %w", href, err)
		}
		record.DocumentURL = documentURL
	}

	meta := files.Find(sel.FileMetaSelector)
	record.DocumentFileName = strings.TrimSpace(meta.Eq(0).Text())
	record.DocumentFileSize = strings.TrimSpace(meta.Eq(1).Text())

	return nil
}
