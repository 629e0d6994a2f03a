package model

type HostInfo struct {
	AgentID         string `json:"agent_id"`
	AgentVersion    string `json:"agent_version"`
	Hostname        string `json:"hostname"`
	Username        string `json:"username"`
	Platform        string `json:"platform"`
	Distribution    string `json:"distribution"`
	Kernel          string `json:"kernel"`
	CPUModel        string `json:"cpu_model"`
	CPUCores        int    `json:"cpu_cores"`
	CollectedAtUnix int64  `json:"collected_at_unix"`
}
