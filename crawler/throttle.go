package crawler

import (
	"context"
	"log"
	"time"
)

// DefaultDelay is the pause before every request.
const DefaultDelay = 1 * time.Second

// Limiter paces network requests. Wait blocks until the next request may be
// issued; label names the operation for the progress log.
type Limiter interface {
	Wait(ctx context.Context, label string) error
}

// Throttle is a Limiter that sleeps a fixed delay before every request. The
// crawl is sequential, so a single Throttle shared by all fetches paces the
// whole run.
type Throttle struct {
	delay  time.Duration
	logger *log.Logger
}

// NewThrottle creates a throttle with the given delay. A nil logger uses the
// standard logger.
func NewThrottle(delay time.Duration, logger *log.Logger) *Throttle {
	if logger == nil {
		logger = log.Default()
	}
	return &Throttle{delay: delay, logger: logger}
}

// Delay returns the configured pause.
func (t *Throttle) Delay() time.Duration {
	return t.delay
}

// Wait sleeps for the configured delay or until ctx is done.
func (t *Throttle) Wait(ctx context.Context, label string) error {
	if label == "" {
		label = "unknown"
	}
	t.logger.Printf("INFO: sleeping %s [%s]", t.delay, label)

	if t.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(t.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
