package agent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthLogInterval = time.Minute

func (a *Agent) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	g.Go(func() error {
		return a.runAPIServer(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(healthLogInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if a.health.Stale(now, a.staleAfter()) {
				a.logger.Warn("no recent sample", "last_sample_at", a.health.LastSample())
				continue
			}
			a.logger.Debug("agent health", "snapshot", a.health.Snapshot())
		}
	}
}

// staleAfter is three missed polls plus the error backoff.
func (a *Agent) staleAfter() time.Duration {
	return 3*a.cfg.PollInterval + a.cfg.CollectorErrorBackoff
}

func (a *Agent) shutdown(ctx context.Context) {
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warn("stream sink close failed", "error", err)
	}
	a.health.SetStreamConnected(false)
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("history close failed", "error", err)
		}
	}
}
