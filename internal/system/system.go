package system

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time view of host load.
type Snapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	Uptime        string  `json:"uptime"`
}

var startedAt = time.Now()

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage(ctx context.Context) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("could not get CPU usage")
	}
	return percentages[0], nil
}

// GetMemoryUsage returns the current memory usage as a percentage
func GetMemoryUsage(ctx context.Context) (float64, error) {
	virtualMem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return virtualMem.UsedPercent, nil
}

// Collect gathers a Snapshot. Host metrics that cannot be read are left at
// zero and reported through the returned error.
func Collect(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(startedAt).Truncate(time.Second).String(),
	}

	cpuPct, cpuErr := GetCPUUsage(ctx)
	snap.CPUPercent = cpuPct
	memPct, memErr := GetMemoryUsage(ctx)
	snap.MemoryPercent = memPct

	switch {
	case cpuErr != nil:
		return snap, fmt.Errorf("cpu usage: %w", cpuErr)
	case memErr != nil:
		return snap, fmt.Errorf("memory usage: %w", memErr)
	}
	return snap, nil
}
