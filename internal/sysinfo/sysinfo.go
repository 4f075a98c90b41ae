// Package sysinfo gathers a host diagnostics snapshot for support requests.
package sysinfo

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is the diagnostics payload served to clients. Fields that could
// not be gathered are zero rather than failing the whole snapshot.
type Snapshot struct {
	OS            string  `json:"os"`
	Kernel        string  `json:"kernel"`
	Distro        string  `json:"distro"`
	Desktop       string  `json:"desktop,omitempty"`
	DisplayServer string  `json:"display_server,omitempty"`
	CPUModel      string  `json:"cpu_model"`
	CPUCores      int     `json:"cpu_cores"`
	MemTotalMB    uint64  `json:"mem_total_mb"`
	MemUsedMB     uint64  `json:"mem_used_mb"`
	DiskTotalGB   float64 `json:"disk_total_gb"`
	DiskFreeGB    float64 `json:"disk_free_gb"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// Collect builds a snapshot of the current host.
func Collect() Snapshot {
	var s Snapshot

	if info, err := host.Info(); err == nil {
		s.OS = info.OS
		s.Kernel = info.KernelVersion
		s.Distro = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		s.UptimeSeconds = info.Uptime
	}

	s.Desktop = os.Getenv("XDG_CURRENT_DESKTOP")
	s.DisplayServer = os.Getenv("XDG_SESSION_TYPE")

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		s.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil {
		s.CPUCores = n
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotalMB = vm.Total / 1024 / 1024
		s.MemUsedMB = vm.Used / 1024 / 1024
	}

	if du, err := disk.Usage("/"); err == nil {
		s.DiskTotalGB = float64(du.Total) / 1024 / 1024 / 1024
		s.DiskFreeGB = float64(du.Free) / 1024 / 1024 / 1024
	}

	return s
}
