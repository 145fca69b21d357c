// Package monitor samples system memory utilization and exposes the
// backoff signal the batch scheduler polls between page windows.
package monitor

import (
	"log/slog"

	"github.com/shirou/gopsutil/v4/mem"
)

// DefaultBackoffThreshold is the memory utilization percentage above
// which the scheduler should reduce its batch size.
const DefaultBackoffThreshold = 80.0

// AcceleratorCache releases cached accelerator (GPU) memory and reports
// allocation stats for diagnostics. Implementations are best-effort.
type AcceleratorCache interface {
	// Clear releases cached accelerator memory.
	Clear()

	// Stats returns allocated and reserved bytes, or ok=false when the
	// backend cannot report them.
	Stats() (allocated, reserved uint64, ok bool)
}

// Monitor observes process and system resource usage. It never mutates
// scheduler state - callers poll it and act on the answers.
type Monitor struct {
	threshold float64
	cache     AcceleratorCache
	logger    *slog.Logger

	// sample is swapped out in tests.
	sample func() (float64, error)
}

// Config configures a Monitor.
type Config struct {
	// BackoffThreshold is the utilization percentage that triggers
	// backoff. Default 80.
	BackoffThreshold float64

	// Cache is the accelerator cache hook. Nil means CPU-only.
	Cache AcceleratorCache

	Logger *slog.Logger
}

// New creates a Monitor sampling system virtual memory.
func New(cfg Config) *Monitor {
	threshold := cfg.BackoffThreshold
	if threshold <= 0 {
		threshold = DefaultBackoffThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		threshold: threshold,
		cache:     cfg.Cache,
		logger:    logger,
		sample:    sampleUsedPercent,
	}
}

func sampleUsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// UsedPercent returns current system memory utilization. A sampling
// failure reads as zero so it never triggers backoff on its own.
func (m *Monitor) UsedPercent() float64 {
	pct, err := m.sample()
	if err != nil {
		m.logger.Warn("memory sample failed", "error", err)
		return 0
	}
	return pct
}

// ShouldBackOff reports whether memory utilization exceeds the
// configured threshold.
func (m *Monitor) ShouldBackOff() bool {
	pct := m.UsedPercent()
	if pct > m.threshold {
		m.logger.Warn("high memory usage", "used_percent", pct, "threshold", m.threshold)
		return true
	}
	return false
}

// ClearAcceleratorCache releases cached accelerator memory. A no-op on
// CPU-only configurations.
func (m *Monitor) ClearAcceleratorCache() {
	if m.cache == nil {
		return
	}
	m.cache.Clear()
	if allocated, reserved, ok := m.cache.Stats(); ok {
		m.logger.Info("accelerator memory",
			"allocated_mb", float64(allocated)/1e6,
			"reserved_mb", float64(reserved)/1e6)
	}
}
