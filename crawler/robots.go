package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// checkRobots returns a TransportError wrapping ErrDisallowed when robots.txt
// forbids rawURL. robots.txt is loaded on the first request. A load cut short
// by a cancelled context is retried on the next request.
func (c *Crawler) checkRobots(ctx context.Context, rawURL string) error {
	if !c.respectRobots {
		return nil
	}

	group, err := c.robotsGroup(ctx)
	if err != nil {
		return err
	}
	if group == nil {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &TransportError{URL: rawURL, Err: err}
	}
	if u.Host != c.base.Host {
		return nil
	}
	if !group.Test(u.RequestURI()) {
		return &TransportError{URL: rawURL, Err: ErrDisallowed}
	}
	return nil
}

// robotsGroup returns the loaded robots.txt group, loading it if needed.
func (c *Crawler) robotsGroup(ctx context.Context) (*robotstxt.Group, error) {
	c.robotsMu.Lock()
	defer c.robotsMu.Unlock()

	if c.robotsLoaded {
		return c.robots, nil
	}

	group := c.loadRobots(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.robots = group
	c.robotsLoaded = true
	return group, nil
}

// loadRobots fetches and parses robots.txt of the base origin. It returns nil,
// which allows everything, when the file is missing or unusable.
func (c *Crawler) loadRobots(ctx context.Context) *robotstxt.Group {
	robotsURL := c.base.ResolveReference(&url.URL{Path: "/robots.txt"}).String()

	if err := c.limiter.Wait(ctx, "fetchRobots"); err != nil {
		c.logger.Printf("WARN: skipping robots.txt: %v", err)
		return nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.logger.Printf("WARN: skipping robots.txt: %v", err)
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("WARN: failed to fetch robots.txt (ignored): %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.logger.Printf("WARN: robots.txt returned HTTP %d (ignored)", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Printf("WARN: failed to read robots.txt (ignored): %v", err)
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		c.logger.Printf("WARN: failed to parse robots.txt (ignored): %v", err)
		return nil
	}

	c.logger.Printf("INFO: robots.txt loaded from %s", robotsURL)
	return data.FindGroup(c.userAgent)
}
