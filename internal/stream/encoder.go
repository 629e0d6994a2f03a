package stream

import (
	"context"
	"encoding/json"

	"hostpulse/internal/model"
)

type Sink interface {
	SendSnapshot(ctx context.Context, s model.Snapshot) error
	SendHostInfo(ctx context.Context, info model.HostInfo) error
	Close(ctx context.Context) error
}

type SnapshotFrame struct {
	AgentID       string         `json:"agent_id"`
	TimestampUnix int64          `json:"timestamp_unix"`
	Snapshot      model.Snapshot `json:"snapshot"`
}

type HostInfoFrame struct {
	AgentID       string         `json:"agent_id"`
	TimestampUnix int64          `json:"timestamp_unix"`
	Host          model.HostInfo `json:"host"`
}

func EncodeEnvelope(e model.Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func NewSnapshotFrame(s model.Snapshot) SnapshotFrame {
	return SnapshotFrame{AgentID: s.AgentID, TimestampUnix: s.TimestampUnix, Snapshot: s}
}

func NewHostInfoFrame(info model.HostInfo) HostInfoFrame {
	return HostInfoFrame{AgentID: info.AgentID, TimestampUnix: info.CollectedAtUnix, Host: info}
}

func SnapshotEnvelope(s model.Snapshot) model.Envelope {
	return model.Envelope{Type: model.MetricTypeSnapshot, AgentID: s.AgentID, TimestampUnix: s.TimestampUnix, Payload: NewSnapshotFrame(s)}
}

func HostInfoEnvelope(info model.HostInfo) model.Envelope {
	return model.Envelope{Type: model.MetricTypeHostInfo, AgentID: info.AgentID, TimestampUnix: info.CollectedAtUnix, Payload: NewHostInfoFrame(info)}
}
