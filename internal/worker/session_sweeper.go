package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper evicts idle client sessions.
type Sweeper interface {
	Sweep() int
}

// StartSessionSweeper runs sweeper every interval until ctx is done.
// The returned channel is closed once the goroutine has exited.
func StartSessionSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sweeper == nil || interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sweeper.Sweep(); n > 0 {
					logger.Debug("evicted idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
	return done
}
