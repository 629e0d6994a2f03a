package stream

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"hostpulse/internal/config"
)

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Sink, error) {
	tokens := tokenSourceFromConfig(cfg)
	switch cfg.StreamMode {
	case config.StreamModeNone:
		return NewLogSink(logger), nil
	case config.StreamModeGRPC:
		return NewGRPCClient(
			cfg.BackendGRPCAddr,
			tlsCfg,
			tokens,
			cfg.GRPCSnapshotMethod,
			cfg.GRPCHostInfoMethod,
			logger,
		), nil
	case config.StreamModeWebSocket:
		return NewWebSocketClient(
			cfg.BackendWSURL,
			tokens,
			tlsCfg,
			cfg.WebSocketWriteTimeout,
			cfg.WebSocketPingInterval,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported stream mode %q", cfg.StreamMode)
	}
}

func tokenSourceFromConfig(cfg config.Config) TokenSource {
	if cfg.BackendJWTSecret != "" {
		return NewJWTSource(cfg.BackendJWTSecret, cfg.AgentID, cfg.BackendJWTTTL)
	}
	if cfg.BackendToken != "" {
		return StaticToken(cfg.BackendToken)
	}
	return nil
}
