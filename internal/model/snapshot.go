package model

// Snapshot is one poll of the host. Rates are derived from the previous poll,
// so the first snapshot of a process has CPUValid=false and zero rates.
type Snapshot struct {
	AgentID       string `json:"agent_id"`
	Hostname      string `json:"hostname"`
	TimestampUnix int64  `json:"timestamp_unix"`

	CPUValid   bool    `json:"cpu_valid"`
	CPUPercent float64 `json:"cpu_percent"`

	MemoryPercent    int    `json:"memory_percent"`
	MemorySummary    string `json:"memory_summary"`
	MemoryUsedBytes  uint64 `json:"memory_used_bytes"`
	MemoryTotalBytes uint64 `json:"memory_total_bytes"`
	SwapUsedBytes    uint64 `json:"swap_used_bytes"`
	SwapTotalBytes   uint64 `json:"swap_total_bytes"`

	DiskPercent    int         `json:"disk_percent"`
	DiskSummary    string      `json:"disk_summary"`
	DiskUsedBytes  uint64      `json:"disk_used_bytes"`
	DiskTotalBytes uint64      `json:"disk_total_bytes"`
	DiskMounts     []DiskMount `json:"disk_mounts,omitempty"`

	NetRxBytesPerSec float64 `json:"net_rx_bytes_per_sec"`
	NetTxBytesPerSec float64 `json:"net_tx_bytes_per_sec"`
	NetRxRate        string  `json:"net_rx_rate"`
	NetTxRate        string  `json:"net_tx_rate"`
	NetRxTotalBytes  uint64  `json:"net_rx_total_bytes"`
	NetTxTotalBytes  uint64  `json:"net_tx_total_bytes"`

	UptimeSeconds uint64 `json:"uptime_seconds"`
}

type DiskMount struct {
	Device     string `json:"device"`
	MountPoint string `json:"mount_point"`
	SizeBytes  uint64 `json:"size_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}
