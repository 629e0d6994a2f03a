package version

import (
	"time"

	"hostpulse/internal/config"
)

func Get(cfg config.Config) *GetVersionResponse {
	return &GetVersionResponse{
		AgentID:       cfg.AgentID,
		AgentVersion:  cfg.AgentVersion,
		StreamMode:    string(cfg.StreamMode),
		ListenAddr:    cfg.ListenAddr,
		ConfigFile:    cfg.ConfigFile,
		HistoryPath:   cfg.HistoryPath,
		CheckedAtUnix: time.Now().UTC().Unix(),
	}
}
