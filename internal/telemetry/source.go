package telemetry

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Source reads raw host figures.
type Source interface {
	// CPUPercent returns the average load across all cores since the previous call.
	CPUPercent(ctx context.Context) (float64, error)

	// CPUFrequencyMHz returns the current frequency of the first core.
	CPUFrequencyMHz(ctx context.Context) (float64, error)

	// Memory returns total and available bytes.
	Memory(ctx context.Context) (total, available uint64, err error)

	// Disk returns total and free bytes of the filesystem holding path.
	Disk(ctx context.Context, path string) (total, free uint64, err error)
}

// HostSource reads figures from the local machine through gopsutil.
type HostSource struct{}

// CPUPercent implements Source.
//
// A zero interval compares against the previous call instead of sleeping.
func (HostSource) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("reading cpu load: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("reading cpu load: no data")
	}
	return pct[0], nil
}

// CPUFrequencyMHz implements Source.
func (HostSource) CPUFrequencyMHz(ctx context.Context) (float64, error) {
	info, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading cpu info: %w", err)
	}
	if len(info) == 0 || info[0].Mhz <= 0 {
		return 0, fmt.Errorf("reading cpu info: frequency unavailable")
	}
	return info[0].Mhz, nil
}

// Memory implements Source.
func (HostSource) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading memory: %w", err)
	}
	return vm.Total, vm.Available, nil
}

// Disk implements Source.
func (HostSource) Disk(ctx context.Context, path string) (uint64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading disk usage of %s: %w", path, err)
	}
	return usage.Total, usage.Free, nil
}
