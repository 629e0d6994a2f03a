package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hostpulse/internal/model"
	"hostpulse/internal/system"
)

// Sources are the point-sample reads a Sampler combines.
type Sources struct {
	CPUTimes func() (system.CPUTimes, error)
	Memory   func() (system.MemoryInfo, error)
	Disk     func(ctx context.Context) (system.DiskUsage, error)
	Net      func() system.NetCounters
	Uptime   func(ctx context.Context) (uint64, error)
	Now      func() time.Time
}

func DefaultSources() Sources {
	return Sources{
		CPUTimes: system.ReadCPUTimes,
		Memory:   system.ReadMemory,
		Disk:     system.ReadDiskUsage,
		Net:      system.ReadNetCounters,
		Uptime:   system.Uptime,
		Now:      time.Now,
	}
}

// Sampler turns cumulative counters into snapshots. It keeps the previous CPU
// and network sample; a failed read leaves the last good value in place.
//
// collectMu serializes Collect and guards the previous-sample state; lastMu
// only guards the published snapshot so Latest never waits on a slow read.
type Sampler struct {
	collectMu sync.Mutex
	lastMu    sync.RWMutex

	src      Sources
	logger   *slog.Logger
	agentID  string
	hostname string

	last     model.Snapshot
	haveLast bool

	prevCPU  system.CPUTimes
	haveCPU  bool
	prevNet  system.NetCounters
	prevNetT time.Time
	haveNet  bool
}

func NewSampler(src Sources, agentID, hostname string, logger *slog.Logger) *Sampler {
	if src.Now == nil {
		src.Now = time.Now
	}
	return &Sampler{src: src, logger: logger, agentID: agentID, hostname: hostname}
}

// Collect takes one sample. The snapshot is always usable; the error joins
// the reads that failed this tick.
func (s *Sampler) Collect(ctx context.Context) (model.Snapshot, error) {
	s.collectMu.Lock()
	defer s.collectMu.Unlock()

	now := s.src.Now()
	snap, _ := s.Latest()
	snap.AgentID = s.agentID
	snap.Hostname = s.hostname
	snap.TimestampUnix = now.Unix()

	var errs []error
	if err := s.sampleCPU(&snap); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	}
	if err := s.sampleMemory(&snap); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	}
	if err := s.sampleDisk(ctx, &snap); err != nil {
		errs = append(errs, fmt.Errorf("disk: %w", err))
	}
	s.sampleNet(&snap, now)
	if s.src.Uptime != nil {
		if up, err := s.src.Uptime(ctx); err == nil {
			snap.UptimeSeconds = up
		} else {
			s.logger.Debug("uptime read failed", "error", err)
		}
	}

	s.lastMu.Lock()
	s.last = snap
	s.haveLast = true
	s.lastMu.Unlock()
	return snap, errors.Join(errs...)
}

// Latest returns the most recent snapshot, if any.
func (s *Sampler) Latest() (model.Snapshot, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last, s.haveLast
}

func (s *Sampler) sampleCPU(snap *model.Snapshot) error {
	if s.src.CPUTimes == nil {
		return nil
	}
	cur, err := s.src.CPUTimes()
	if err != nil {
		return err
	}
	if s.haveCPU {
		pct, err := system.CPUBusyPercent(s.prevCPU, cur)
		switch {
		case err == nil:
			snap.CPUPercent = pct
			snap.CPUValid = true
		case errors.Is(err, system.ErrDivideByZero):
			// polled within one jiffy, keep the previous value
		default:
			return err
		}
	}
	s.prevCPU = cur
	s.haveCPU = true
	return nil
}

func (s *Sampler) sampleMemory(snap *model.Snapshot) error {
	if s.src.Memory == nil {
		return nil
	}
	info, err := s.src.Memory()
	if err != nil {
		return err
	}
	pct, err := info.Percent()
	if err != nil {
		return err
	}
	snap.MemoryPercent = pct
	snap.MemorySummary = info.Summary()
	snap.MemoryUsedBytes = info.UsedBytes()
	snap.MemoryTotalBytes = info.TotalBytes()
	snap.SwapUsedBytes = info.SwapUsedBytes()
	snap.SwapTotalBytes = info.SwapTotalBytes()
	return nil
}

func (s *Sampler) sampleDisk(ctx context.Context, snap *model.Snapshot) error {
	if s.src.Disk == nil {
		return nil
	}
	usage, err := s.src.Disk(ctx)
	if err != nil {
		return err
	}
	pct, err := usage.Percent()
	if err != nil {
		return err
	}
	snap.DiskPercent = pct
	snap.DiskSummary = usage.Summary()
	snap.DiskUsedBytes = usage.UsedBytes
	snap.DiskTotalBytes = usage.SizeBytes
	snap.DiskMounts = make([]model.DiskMount, 0, len(usage.Mounts))
	for _, m := range usage.Mounts {
		snap.DiskMounts = append(snap.DiskMounts, model.DiskMount{
			Device:     m.Device,
			MountPoint: m.MountPoint,
			SizeBytes:  m.SizeBytes,
			UsedBytes:  m.UsedBytes,
			FreeBytes:  m.FreeBytes,
		})
	}
	return nil
}

func (s *Sampler) sampleNet(snap *model.Snapshot, now time.Time) {
	if s.src.Net == nil {
		return
	}
	defer func() {
		snap.NetRxRate = system.FormatRate(uint64(snap.NetRxBytesPerSec))
		snap.NetTxRate = system.FormatRate(uint64(snap.NetTxBytesPerSec))
	}()
	cur := s.src.Net()
	if cur == (system.NetCounters{}) {
		// source unavailable this tick; a zero baseline would spike the next rate
		return
	}
	if s.haveNet {
		rx, tx := system.NetRate(s.prevNet, cur, now.Sub(s.prevNetT))
		snap.NetRxBytesPerSec = rx
		snap.NetTxBytesPerSec = tx
	}
	snap.NetRxTotalBytes = cur.RxBytes
	snap.NetTxTotalBytes = cur.TxBytes
	s.prevNet = cur
	s.prevNetT = now
	s.haveNet = true
}
