// Package config loads the crawler configuration: where the repository
// lives, which collections to walk, how fast to go and where to keep the
// cache and the dataset.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/pevans/riuff/crawler"
	"github.com/pevans/riuff/item"
	"github.com/pevans/riuff/scraper"
)

// Config is the complete crawler configuration.
type Config struct {
	BaseURL       string            `yaml:"base_url"`
	CacheDir      string            `yaml:"cache_dir"`
	OutputDir     string            `yaml:"output_dir"`
	Delay         time.Duration     `yaml:"delay"`
	Timeout       time.Duration     `yaml:"timeout"`
	UserAgent     string            `yaml:"user_agent"`
	OnError       string            `yaml:"on_error"`
	MaxPages      int               `yaml:"max_pages"`
	RespectRobots bool              `yaml:"respect_robots_txt"`
	Collections   []item.Collection `yaml:"collections"`
	Selectors     scraper.Selectors `yaml:"selectors"`
}

// DefaultCollections are the RIUFF collections of the information science
// department.
func DefaultCollections() []item.Collection {
	return []item.Collection{
		{
			Name:        "TCCs (Graduação)",
			Description: "GGB - Trabalhos de Conclusão de Curso - Niterói",
			URL:         "https://app.uff.br/riuff/handle/1/13580",
		},
		{
			Name:        "Dissertações (Mestrado)",
			Description: "PPGCI - Mestrado - Niterói",
			URL:         "https://app.uff.br/riuff/handle/1/14110",
		},
		{
			Name:        "Teses (Doutorado)",
			Description: "PPGCI - Doutorado - Niterói",
			URL:         "https://app.uff.br/riuff/handle/1/14108",
		},
	}
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		BaseURL:     crawler.DefaultBaseURL,
		CacheDir:    "dataset/cache",
		OutputDir:   "dataset",
		Delay:       crawler.DefaultDelay,
		Timeout:     crawler.DefaultTimeout,
		UserAgent:   crawler.DefaultUserAgent,
		OnError:     string(crawler.PolicyAbort),
		Collections: DefaultCollections(),
		Selectors:   scraper.DefaultSelectors(),
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("base_url: must use http or https scheme"))
	}

	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache_dir: must not be empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir: must not be empty"))
	}
	if c.Delay < 0 {
		errs = append(errs, errors.New("delay: must not be negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout: must not be negative"))
	}
	if c.MaxPages < 0 {
		errs = append(errs, errors.New("max_pages: must not be negative"))
	}
	if _, err := crawler.ParseErrorPolicy(c.OnError); err != nil {
		errs = append(errs, fmt.Errorf("on_error: %w", err))
	}

	if len(c.Collections) == 0 {
		errs = append(errs, errors.New("collections: at least one collection is required"))
	}
	for i, collection := range c.Collections {
		if collection.Name == "" {
			errs = append(errs, fmt.Errorf("collections[%d]: name must not be empty", i))
		}
		if _, err := collection.ID(); err != nil {
			errs = append(errs, fmt.Errorf("collections[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// CrawlerConfig converts the configuration into crawler settings.
func (c *Config) CrawlerConfig(logger *log.Logger) *crawler.Config {
	// Validate has already checked the policy
	policy, _ := crawler.ParseErrorPolicy(c.OnError)

	return &crawler.Config{
		BaseURL:       c.BaseURL,
		Selectors:     c.Selectors.WithDefaults(),
		Timeout:       c.Timeout,
		UserAgent:     c.UserAgent,
		OnError:       policy,
		MaxPages:      c.MaxPages,
		RespectRobots: c.RespectRobots,
		Logger:        logger,
	}
}
