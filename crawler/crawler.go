// Package crawler walks a DSpace repository: it pages through the recent
// submissions of each collection, enriches every listed item from its full
// metadata page and caches the result.
//
// The crawl is strictly sequential. Every request goes through one shared
// Limiter, and items are resolved in listing order.
package crawler

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pevans/riuff/cache"
	"github.com/pevans/riuff/scraper"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the origin of the RIUFF repository.
const DefaultBaseURL = "https://app.uff.br"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the crawler in requests.
const DefaultUserAgent = "riuff/1.0 (repository metadata crawler)"

// ErrorPolicy decides what happens when a single item cannot be enriched.
type ErrorPolicy string

const (
	// PolicyAbort stops the run on the first item failure.
	PolicyAbort ErrorPolicy = "abort"
	// PolicySkip logs the failure and leaves the item out of the results.
	PolicySkip ErrorPolicy = "skip"
)

// ParseErrorPolicy validates a policy name. An empty name selects
// PolicyAbort.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown error policy %q (want %q or %q)", s, PolicyAbort, PolicySkip)
}

// Config holds crawler settings.
type Config struct {
	// Origin that relative links are resolved against
	BaseURL   string
	Selectors scraper.Selectors
	// Timeout per request; zero disables it
	Timeout   time.Duration
	UserAgent string
	OnError   ErrorPolicy
	// Upper bound on listing pages per collection; zero means unbounded
	MaxPages      int
	RespectRobots bool
	// HTTPClient overrides the default client. Its own timeout, if any,
	// still applies.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// DefaultConfig returns the configuration for crawling RIUFF.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		Selectors: scraper.DefaultSelectors(),
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		OnError:   PolicyAbort,
	}
}

// Crawler fetches listing and detail pages and writes enriched records
// through a cache.Store.
type Crawler struct {
	base      *url.URL
	selectors scraper.Selectors
	timeout   time.Duration
	userAgent string
	onError   ErrorPolicy
	maxPages  int

	client  *http.Client
	store   cache.Store
	limiter Limiter
	logger  *log.Logger

	// inflight collapses concurrent detail fetches of the same id
	inflight singleflight.Group

	respectRobots bool
	// robotsMu guards robots and robotsLoaded
	robotsMu      sync.Mutex
	robotsLoaded  bool
	robots        *robotstxt.Group
}

// New creates a crawler. A nil config uses DefaultConfig and a nil limiter
// uses a Throttle with DefaultDelay.
func New(store cache.Store, limiter Limiter, cfg *Config) (*Crawler, error) {
	if store == nil {
		return nil, fmt.Errorf("crawler requires a cache store")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https scheme")
	}

	policy, err := ParseErrorPolicy(string(cfg.OnError))
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if limiter == nil {
		limiter = NewThrottle(DefaultDelay, logger)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Crawler{
		base:          base,
		selectors:     cfg.Selectors.WithDefaults(),
		timeout:       cfg.Timeout,
		userAgent:     userAgent,
		onError:       policy,
		maxPages:      cfg.MaxPages,
		client:        client,
		store:         store,
		limiter:       limiter,
		logger:        logger,
		respectRobots: cfg.RespectRobots,
	}, nil
}

// resolve turns a link found on a page into an absolute URL on the base
// origin.
func (c *Crawler) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return c.base.ResolveReference(ref).String(), nil
}
