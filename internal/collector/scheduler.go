package collector

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"hostpulse/internal/model"
	"hostpulse/internal/stream"
)

// History persists snapshots. A nil History disables persistence.
type History interface {
	Append(ctx context.Context, s model.Snapshot) error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Intervals struct {
	Poll         time.Duration
	HostInfo     time.Duration
	Prune        time.Duration
	Retention    time.Duration
	ErrorBackoff time.Duration
}

type Scheduler struct {
	logger    *slog.Logger
	sampler   *Sampler
	host      *HostCollector
	sink      stream.Sink
	history   History
	intervals Intervals
}

func NewScheduler(
	logger *slog.Logger,
	sampler *Sampler,
	host *HostCollector,
	sink stream.Sink,
	history History,
	intervals Intervals,
) *Scheduler {
	if intervals.ErrorBackoff <= 0 {
		intervals.ErrorBackoff = time.Second
	}
	if intervals.Poll <= 0 {
		intervals.Poll = time.Second
	}
	return &Scheduler{
		logger:    logger,
		sampler:   sampler,
		host:      host,
		sink:      sink,
		history:   history,
		intervals: intervals,
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.runSnapshotLoop(gctx)
	})
	if s.host != nil && s.intervals.HostInfo > 0 {
		g.Go(func() error {
			return s.runHostLoop(gctx)
		})
	}
	if s.history != nil && s.intervals.Prune > 0 && s.intervals.Retention > 0 {
		g.Go(func() error {
			return s.runPruneLoop(gctx)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runSnapshotLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.intervals.Poll)
	defer ticker.Stop()

	if err := s.collectAndSendSnapshot(ctx); err != nil {
		s.logger.Warn("initial snapshot send failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.collectAndSendSnapshot(ctx); err != nil {
				s.logger.Error("snapshot send failed", "error", err)
				s.sleepWithContext(ctx, s.intervals.ErrorBackoff)
			}
		}
	}
}

func (s *Scheduler) runHostLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.intervals.HostInfo)
	defer ticker.Stop()

	if err := s.collectAndSendHost(ctx); err != nil {
		s.logger.Warn("initial host info send failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.collectAndSendHost(ctx); err != nil {
				s.logger.Error("host info send failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) runPruneLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.intervals.Prune)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.history.Prune(ctx, time.Now().Add(-s.intervals.Retention))
			if err != nil {
				s.logger.Warn("history prune failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("history pruned", "rows", n)
			}
		}
	}
}

// collectAndSendSnapshot never fails on collection: a partially failed sample
// is still stored and sent with the last good values.
func (s *Scheduler) collectAndSendSnapshot(ctx context.Context) error {
	snap, err := s.sampler.Collect(ctx)
	if err != nil {
		s.logger.Warn("partial snapshot", "error", err)
	}
	if s.history != nil {
		if err := s.history.Append(ctx, snap); err != nil {
			s.logger.Warn("history append failed", "error", err)
		}
	}
	return s.sink.SendSnapshot(ctx, snap)
}

func (s *Scheduler) collectAndSendHost(ctx context.Context) error {
	info, err := s.host.Collect(ctx)
	if err != nil {
		s.logger.Warn("partial host info", "error", err)
	}
	return s.sink.SendHostInfo(ctx, info)
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
