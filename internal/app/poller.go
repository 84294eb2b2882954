package app

import (
	"context"
	"time"

	"github.com/five82/reviewdeck/internal/logger"
)

const maxBackoff = 30 * time.Second

// StartPoller resyncs the selected wiki every interval until ctx is
// canceled. Consecutive failures stretch the wait exponentially up to
// maxBackoff. A non-positive interval disables polling. It returns
// immediately.
func StartPoller(ctx context.Context, engine *Engine, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		return
	}
	if log == nil {
		log = logger.Nop()
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			snap := engine.Store().Snapshot()
			if !snap.Loading {
				if err := engine.Sync(ctx, snap.SelectedWikiID); err != nil {
					log.Debug("poll sync failed: " + err.Error())
				}
			}

			failures := engine.Store().Snapshot().ConsecutiveFailures
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff (or base itself when base is already longer).
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	wait := base
	for range failures {
		wait *= 2
		if wait >= limit {
			return limit
		}
	}
	return wait
}
