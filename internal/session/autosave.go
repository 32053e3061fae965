package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one autosave or sweep run.
const jobTimeout = 30 * time.Second

// Schedule registers the autosave and idle sweep jobs on a new cron
// scheduler. The caller starts and stops it. An empty schedule skips that job.
func (m *Manager) Schedule(ctx context.Context, autosaveSpec, sweepSpec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if autosaveSpec != "" {
		_, err := c.AddFunc(autosaveSpec, func() {
			runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if _, err := m.SaveDirty(runCtx); err != nil {
				slog.Error("autosave failed", "error", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("autosave schedule %q: %w", autosaveSpec, err)
		}
	}

	if sweepSpec != "" {
		_, err := c.AddFunc(sweepSpec, func() {
			runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if n := m.EvictIdle(runCtx); n > 0 {
				slog.Info("idle sweep", "evicted", n, "live", m.Len())
			}
		})
		if err != nil {
			return nil, fmt.Errorf("sweep schedule %q: %w", sweepSpec, err)
		}
	}
	return c, nil
}
