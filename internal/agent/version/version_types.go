package version

type GetVersionResponse struct {
	AgentID       string `json:"agent_id"`
	AgentVersion  string `json:"agent_version"`
	StreamMode    string `json:"stream_mode"`
	ListenAddr    string `json:"listen_addr"`
	ConfigFile    string `json:"config_file,omitempty"`
	HistoryPath   string `json:"history_path,omitempty"`
	CheckedAtUnix int64  `json:"checked_at_unix"`
}
