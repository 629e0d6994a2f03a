package stream

import (
	"context"
	"log/slog"

	"hostpulse/internal/model"
)

// LogSink is used when no backend is configured; samples only reach the
// local API and history.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) SendSnapshot(_ context.Context, snap model.Snapshot) error {
	s.logger.Debug("snapshot",
		"cpu_percent", snap.CPUPercent,
		"memory", snap.MemorySummary,
		"disk", snap.DiskSummary,
		"rx", snap.NetRxRate,
		"tx", snap.NetTxRate,
	)
	return nil
}

func (s *LogSink) SendHostInfo(_ context.Context, info model.HostInfo) error {
	s.logger.Debug("host info", "hostname", info.Hostname, "distribution", info.Distribution, "kernel", info.Kernel)
	return nil
}

func (s *LogSink) Close(context.Context) error {
	return nil
}
