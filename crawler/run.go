package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/riuff/dataset"
	"github.com/pevans/riuff/item"
)

// RunOptions configures a complete crawl.
type RunOptions struct {
	// Minimum degree year; zero crawls to exhaustion
	YearLimit int
	// Directory that receives the dataset file
	OutputDir string
	// Now returns the current time; nil uses time.Now
	Now func() time.Time
}

// CollectionSummary counts the items collected for one collection.
type CollectionSummary struct {
	Name  string
	Items int
}

// Summary describes a finished run.
type Summary struct {
	RunID         uuid.UUID
	StartedAt     time.Time
	FinishedAt    time.Time
	Items         int
	PerCollection []CollectionSummary
	DatasetPath   string
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Run walks collections and writes the dataset. No dataset is written if the
// walk fails; records cached so far stay in the cache for the next run.
func (c *Crawler) Run(ctx context.Context, collections []item.Collection, opts RunOptions) (*Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	summary := &Summary{
		RunID:     uuid.New(),
		StartedAt: now(),
	}

	if opts.YearLimit != 0 {
		c.logger.Printf("INFO: run %s starting with year limit %d", summary.RunID, opts.YearLimit)
	} else {
		c.logger.Printf("INFO: run %s starting without year limit", summary.RunID)
	}

	walked, err := c.Walk(ctx, collections, opts.YearLimit)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", summary.RunID, err)
	}

	for _, collection := range walked {
		summary.PerCollection = append(summary.PerCollection, CollectionSummary{
			Name:  collection.Name,
			Items: len(collection.Items),
		})
		summary.Items += len(collection.Items)
	}

	summary.FinishedAt = now()

	path, err := dataset.Write(opts.OutputDir, walked, summary.FinishedAt)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", summary.RunID, err)
	}
	summary.DatasetPath = path

	c.logger.Printf("INFO: run %s finished, %d items saved to %s", summary.RunID, summary.Items, path)

	return summary, nil
}
