package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// fetchHTML waits for the limiter, fetches url and parses the body. label
// tags the limiter's progress log.
func (c *Crawler) fetchHTML(ctx context.Context, label, url string) (*goquery.Document, error) {
	if err := c.checkRobots(ctx, url); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx, label); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	// Convert the body to UTF-8 based on the declared or sniffed charset
	body, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode body: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &ParseError{URL: url, Reason: "failed to parse HTML", Err: err}
	}

	return doc, nil
}
