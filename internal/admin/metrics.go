// Package admin implements the admin service: system monitoring, platform
// analytics, user administration, audit/security log access and backups.
package admin

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// Status thresholds shared by every resource gauge.
const (
	StatusNormal   = "normal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// statusFor grades a usage percentage: normal below 80, warning below 90,
// critical at 90 and above.
func statusFor(percent float64) string {
	switch {
	case percent < 80:
		return StatusNormal
	case percent < 90:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Alert is a threshold breach surfaced alongside the metrics snapshot.
type Alert struct {
	Level     string  `json:"level"`
	Message   string  `json:"message"`
	Threshold float64 `json:"threshold"`
}

type LoadAverage struct {
	Load1  float64 `json:"1min"`
	Load5  float64 `json:"5min"`
	Load15 float64 `json:"15min"`
}

type CPUMetrics struct {
	Percent     float64     `json:"cpu_percent"`
	Count       int         `json:"cpu_count"`
	PerCore     []float64   `json:"per_core_usage"`
	LoadAverage LoadAverage `json:"load_average"`
	Status      string      `json:"status"`
}

type MemoryMetrics struct {
	TotalGB     float64 `json:"total_gb"`
	UsedGB      float64 `json:"used_gb"`
	AvailableGB float64 `json:"available_gb"`
	PercentUsed float64 `json:"percent_used"`
	Status      string  `json:"status"`
}

type SwapMetrics struct {
	TotalGB     float64 `json:"total_gb"`
	UsedGB      float64 `json:"used_gb"`
	FreeGB      float64 `json:"free_gb"`
	PercentUsed float64 `json:"percent_used"`
}

type DiskMount struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Filesystem  string  `json:"filesystem"`
	TotalGB     float64 `json:"total_gb"`
	UsedGB      float64 `json:"used_gb"`
	FreeGB      float64 `json:"free_gb"`
	PercentUsed float64 `json:"percent_used"`
	Status      string  `json:"status"`
}

type DiskTotals struct {
	TotalGB     float64 `json:"total_gb"`
	UsedGB      float64 `json:"used_gb"`
	FreeGB      float64 `json:"free_gb"`
	PercentUsed float64 `json:"percent_used"`
}

type DiskMetrics struct {
	Filesystems []DiskMount `json:"filesystems"`
	Total       DiskTotals  `json:"total"`
	Status      string      `json:"status"`
}

type NetworkMetrics struct {
	BytesSentMB float64 `json:"bytes_sent_mb"`
	BytesRecvMB float64 `json:"bytes_recv_mb"`
	PacketsSent uint64  `json:"packets_sent"`
	PacketsRecv uint64  `json:"packets_recv"`
}

// SystemSnapshot is a point-in-time view of the host, with any threshold
// alerts attached.
type SystemSnapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	CPU       CPUMetrics     `json:"cpu"`
	Memory    MemoryMetrics  `json:"memory"`
	Swap      SwapMetrics    `json:"swap"`
	Disk      DiskMetrics    `json:"disk"`
	Network   NetworkMetrics `json:"network"`
	Alerts    []Alert        `json:"alerts"`
}

// CollectSystemMetrics samples the host via gopsutil. Individual probe
// failures zero out the affected block rather than failing the snapshot.
func CollectSystemMetrics(ctx context.Context) SystemSnapshot {
	snap := SystemSnapshot{Timestamp: time.Now().UTC(), Alerts: []Alert{}}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err == nil {
		var sum float64
		for _, p := range perCore {
			sum += p
		}
		snap.CPU.PerCore = roundSlice(perCore)
		if len(perCore) > 0 {
			snap.CPU.Percent = round1(sum / float64(len(perCore)))
		}
	}
	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		snap.CPU.Count = count
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		snap.CPU.LoadAverage = LoadAverage{
			Load1:  round2(avg.Load1),
			Load5:  round2(avg.Load5),
			Load15: round2(avg.Load15),
		}
	}
	snap.CPU.Status = statusFor(snap.CPU.Percent)
	snap.Alerts = append(snap.Alerts, cpuAlerts(snap.CPU.Percent, snap.CPU.LoadAverage.Load1, snap.CPU.Count)...)

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.Memory = MemoryMetrics{
			TotalGB:     bytesToGB(vm.Total),
			UsedGB:      bytesToGB(vm.Used),
			AvailableGB: bytesToGB(vm.Available),
			PercentUsed: round1(vm.UsedPercent),
			Status:      statusFor(vm.UsedPercent),
		}
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		snap.Swap = SwapMetrics{
			TotalGB:     bytesToGB(sw.Total),
			UsedGB:      bytesToGB(sw.Used),
			FreeGB:      bytesToGB(sw.Free),
			PercentUsed: round1(sw.UsedPercent),
		}
	}
	snap.Alerts = append(snap.Alerts, memoryAlerts(snap.Memory.PercentUsed, snap.Swap.PercentUsed)...)

	snap.Disk = collectDiskMetrics(ctx)
	for _, fs := range snap.Disk.Filesystems {
		snap.Alerts = append(snap.Alerts, diskAlerts(fs.Mountpoint, fs.PercentUsed)...)
	}

	if counters, err := gopsnet.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		snap.Network = NetworkMetrics{
			BytesSentMB: bytesToMB(counters[0].BytesSent),
			BytesRecvMB: bytesToMB(counters[0].BytesRecv),
			PacketsSent: counters[0].PacketsSent,
			PacketsRecv: counters[0].PacketsRecv,
		}
	}

	return snap
}

func collectDiskMetrics(ctx context.Context) DiskMetrics {
	metrics := DiskMetrics{Status: StatusNormal}

	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return metrics
	}

	var totalSpace, totalUsed, totalFree uint64
	for _, part := range partitions {
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		mount := DiskMount{
			Device:      part.Device,
			Mountpoint:  part.Mountpoint,
			Filesystem:  part.Fstype,
			TotalGB:     bytesToGB(usage.Total),
			UsedGB:      bytesToGB(usage.Used),
			FreeGB:      bytesToGB(usage.Free),
			PercentUsed: round1(usage.UsedPercent),
			Status:      statusFor(usage.UsedPercent),
		}
		metrics.Filesystems = append(metrics.Filesystems, mount)

		totalSpace += usage.Total
		totalUsed += usage.Used
		totalFree += usage.Free

		if mount.Status == StatusCritical {
			metrics.Status = StatusCritical
		} else if mount.Status == StatusWarning && metrics.Status == StatusNormal {
			metrics.Status = StatusWarning
		}
	}

	metrics.Total = DiskTotals{
		TotalGB: bytesToGB(totalSpace),
		UsedGB:  bytesToGB(totalUsed),
		FreeGB:  bytesToGB(totalFree),
	}
	if totalSpace > 0 {
		metrics.Total.PercentUsed = round1(float64(totalUsed) / float64(totalSpace) * 100)
	}
	return metrics
}

func cpuAlerts(percent, load1 float64, cores int) []Alert {
	var alerts []Alert
	if percent > 90 {
		alerts = append(alerts, Alert{
			Level:     StatusCritical,
			Message:   fmt.Sprintf("CPU usage is critically high: %.1f%%", percent),
			Threshold: 90,
		})
	} else if percent > 80 {
		alerts = append(alerts, Alert{
			Level:     StatusWarning,
			Message:   fmt.Sprintf("CPU usage is high: %.1f%%", percent),
			Threshold: 80,
		})
	}
	if cores > 0 && load1 > float64(cores) {
		alerts = append(alerts, Alert{
			Level:     StatusWarning,
			Message:   fmt.Sprintf("Load average is high: %.1f (cores: %d)", load1, cores),
			Threshold: float64(cores),
		})
	}
	return alerts
}

func memoryAlerts(percent, swapPercent float64) []Alert {
	var alerts []Alert
	if percent > 90 {
		alerts = append(alerts, Alert{
			Level:     StatusCritical,
			Message:   fmt.Sprintf("Memory usage is critically high: %.1f%%", percent),
			Threshold: 90,
		})
	} else if percent > 80 {
		alerts = append(alerts, Alert{
			Level:     StatusWarning,
			Message:   fmt.Sprintf("Memory usage is high: %.1f%%", percent),
			Threshold: 80,
		})
	}
	if swapPercent > 50 {
		alerts = append(alerts, Alert{
			Level:     StatusWarning,
			Message:   fmt.Sprintf("Swap usage is high: %.1f%%", swapPercent),
			Threshold: 50,
		})
	}
	return alerts
}

func diskAlerts(mountpoint string, percent float64) []Alert {
	switch {
	case percent > 90:
		return []Alert{{
			Level:     StatusCritical,
			Message:   fmt.Sprintf("Disk %s is critically full: %.1f%%", mountpoint, percent),
			Threshold: 90,
		}}
	case percent > 80:
		return []Alert{{
			Level:     StatusWarning,
			Message:   fmt.Sprintf("Disk %s is getting full: %.1f%%", mountpoint, percent),
			Threshold: 80,
		}}
	default:
		return nil
	}
}

func bytesToGB(b uint64) float64 {
	return round2(float64(b) / (1 << 30))
}

func bytesToMB(b uint64) float64 {
	return round2(float64(b) / (1 << 20))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundSlice(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = round1(v)
	}
	return out
}
