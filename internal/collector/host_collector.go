package collector

import (
	"context"
	"time"

	"hostpulse/internal/model"
	"hostpulse/internal/system"
)

// HostCollector reports the static identity of the machine.
type HostCollector struct {
	identity func() (system.HostIdentity, error)
	agentID  string
	version  string
}

// NewHostCollector creates a host collector bound to one agent identity.
func NewHostCollector(identity func() (system.HostIdentity, error), agentID, version string) *HostCollector {
	if identity == nil {
		identity = system.Host
	}
	return &HostCollector{identity: identity, agentID: agentID, version: version}
}

// Collect returns whatever identity fields could be read. A partial identity
// (e.g. no "model name" on some ARM kernels) comes back with its error.
func (c *HostCollector) Collect(_ context.Context) (model.HostInfo, error) {
	id, err := c.identity()
	return model.HostInfo{
		AgentID:         c.agentID,
		AgentVersion:    c.version,
		Hostname:        id.Hostname,
		Username:        id.Username,
		Platform:        id.Platform,
		Distribution:    id.Distribution,
		Kernel:          id.Kernel,
		CPUModel:        id.CPUModel,
		CPUCores:        id.CPUCores,
		CollectedAtUnix: time.Now().UTC().Unix(),
	}, err
}
