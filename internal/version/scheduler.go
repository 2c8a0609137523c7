package version

import (
	"context"
	"time"
)

// DefaultInterval between checks.
const DefaultInterval = 60 * time.Second

type checker interface {
	Check(ctx context.Context) Result
}

// Scheduler runs checks sequentially: once at start, then every Interval.
type Scheduler struct {
	Checker  checker
	Interval time.Duration
}

// Run blocks until ctx is done. Each result is passed to onResult before the
// next check starts. Cancellation is the normal way to stop and returns nil.
func (s *Scheduler) Run(ctx context.Context, onResult func(Result)) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	onResult(s.Checker.Check(ctx))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			onResult(s.Checker.Check(ctx))
		}
	}
}
