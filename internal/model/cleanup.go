package model

type CleanupEntry struct {
	Path      string `json:"path"`
	SizeBytes uint64 `json:"size_bytes"`
	Dir       bool   `json:"dir"`
}

// CleanupCategory groups reclaimable entries of one directory. Privileged
// categories live outside the user's home and need the broker to remove.
type CleanupCategory struct {
	Name       string         `json:"name"`
	Dir        string         `json:"dir"`
	Privileged bool           `json:"privileged"`
	Entries    []CleanupEntry `json:"entries"`
	TotalBytes uint64         `json:"total_bytes"`
}

type CleanupReport struct {
	ScannedAtUnix int64             `json:"scanned_at_unix"`
	Categories    []CleanupCategory `json:"categories"`
	TotalBytes    uint64            `json:"total_bytes"`
	Total         string            `json:"total"`
}
