package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostpulse/internal/collector"
	"hostpulse/internal/config"
	"hostpulse/internal/history"
	"hostpulse/internal/model"
	"hostpulse/internal/stream"
	"hostpulse/internal/system"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	sampler   *collector.Sampler
	host      *collector.HostCollector
	scheduler *collector.Scheduler
	sink      stream.Sink
	history   *history.Store
	health    *HealthStatus
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	ApplySystemSettings(cfg)

	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	sink, err := stream.NewSinkFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("stream sink: %w", err)
	}

	var store *history.Store
	// the scheduler must see a nil interface, not a typed nil
	var hist collector.History
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath, logger)
		if err != nil {
			_ = sink.Close(context.Background())
			return nil, fmt.Errorf("history store: %w", err)
		}
		hist = store
	}

	health := NewHealthStatus()
	health.SetHistoryEnabled(store != nil)
	wrappedSink := &healthSink{sink: sink, health: health}

	sampler := collector.NewSampler(collector.DefaultSources(), cfg.AgentID, cfg.Hostname, logger)
	host := collector.NewHostCollector(nil, cfg.AgentID, cfg.AgentVersion)
	scheduler := collector.NewScheduler(logger, sampler, host, wrappedSink, hist, collector.Intervals{
		Poll:         cfg.PollInterval,
		HostInfo:     cfg.HostInfoInterval,
		Prune:        cfg.HistoryPruneInterval,
		Retention:    cfg.HistoryRetention,
		ErrorBackoff: cfg.CollectorErrorBackoff,
	})

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		sampler:   sampler,
		host:      host,
		scheduler: scheduler,
		sink:      wrappedSink,
		history:   store,
		health:    health,
	}, nil
}

// ApplySystemSettings pushes subprocess limits from the config into the
// system package. Commands that never build an Agent call it directly.
func ApplySystemSettings(cfg config.Config) {
	if cfg.PrivilegeBroker != "" {
		system.PrivilegeBroker = cfg.PrivilegeBroker
	}
	if cfg.CommandTimeout > 0 {
		system.CommandTimeout = cfg.CommandTimeout
	}
	if cfg.MaxSubprocesses > 0 {
		system.SetMaxSubprocesses(cfg.MaxSubprocesses)
	}
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting hostpulse", "agent_id", a.cfg.AgentID, "version", a.cfg.AgentVersion, "stream_mode", a.cfg.StreamMode)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
		// stopped on its own: startup error, runtime error or parent ctx
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("hostpulse stopped")
	return nil
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}

type healthSink struct {
	sink   stream.Sink
	health *HealthStatus
}

func (s *healthSink) SendSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.TimestampUnix > 0 {
		s.health.MarkSample(time.Unix(snap.TimestampUnix, 0).UTC())
	}
	err := s.sink.SendSnapshot(ctx, snap)
	s.health.SetStreamConnected(err == nil)
	return err
}

func (s *healthSink) SendHostInfo(ctx context.Context, info model.HostInfo) error {
	err := s.sink.SendHostInfo(ctx, info)
	s.health.SetStreamConnected(err == nil)
	if err == nil {
		s.health.MarkHostInfo(time.Now().UTC())
	}
	return err
}

func (s *healthSink) Close(ctx context.Context) error {
	return s.sink.Close(ctx)
}
