package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	streamConnected atomic.Bool
	historyEnabled  atomic.Bool
	lastSampleAt    atomic.Int64
	lastHostInfoAt  atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.streamConnected.Store(ok)
}

func (h *HealthStatus) SetHistoryEnabled(ok bool) {
	h.historyEnabled.Store(ok)
}

func (h *HealthStatus) MarkSample(ts time.Time) {
	h.lastSampleAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkHostInfo(ts time.Time) {
	h.lastHostInfoAt.Store(ts.UnixNano())
}

// LastSample returns the zero time before the first sample.
func (h *HealthStatus) LastSample() time.Time {
	v := h.lastSampleAt.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v).UTC()
}

// Stale reports whether no sample arrived within maxAge of now.
func (h *HealthStatus) Stale(now time.Time, maxAge time.Duration) bool {
	last := h.LastSample()
	return last.IsZero() || now.Sub(last) > maxAge
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"stream_connected": h.streamConnected.Load(),
		"history_enabled":  h.historyEnabled.Load(),
	}
	if v := h.lastSampleAt.Load(); v > 0 {
		out["last_sample_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastHostInfoAt.Load(); v > 0 {
		out["last_host_info_at"] = time.Unix(0, v).UTC()
	}
	return out
}
