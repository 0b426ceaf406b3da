package viewmodel

import (
	"github.com/rileyhilliard/homestats/internal/source/proxmox"
)

// Percent is used/max*100, or 0 when max is not positive.
func Percent(used, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return used / max * 100
}

// CPUPercent converts a 0..1 fraction to a percentage.
func CPUPercent(fraction float64) float64 {
	return fraction * 100
}

// Mbps converts bytes per second to megabits per second.
func Mbps(bytesPerSecond float64) float64 {
	return bytesPerSecond * 8 / 1_000_000
}

// ResourceView is a guest row ready for display.
type ResourceView struct {
	proxmox.ResourceSnapshot
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// Resources partitions guests into running and stopped VMs and containers.
type Resources struct {
	RunningVMs        []ResourceView `json:"running_vms"`
	StoppedVMs        []ResourceView `json:"stopped_vms"`
	RunningContainers []ResourceView `json:"running_containers"`
	StoppedContainers []ResourceView `json:"stopped_containers"`
}

// Total is the number of partitioned guests.
func (r Resources) Total() int {
	return len(r.RunningVMs) + len(r.StoppedVMs) + len(r.RunningContainers) + len(r.StoppedContainers)
}

// PartitionResources classifies guests, keeping input order within each
// bucket. Nodes and other resource types are ignored.
func PartitionResources(resources []proxmox.Resource) Resources {
	out := Resources{
		RunningVMs:        []ResourceView{},
		StoppedVMs:        []ResourceView{},
		RunningContainers: []ResourceView{},
		StoppedContainers: []ResourceView{},
	}
	for _, r := range resources {
		s := r.Snapshot()
		v := ResourceView{
			ResourceSnapshot: s,
			CPUPercent:       CPUPercent(s.CPUFraction),
			MemoryPercent:    Percent(float64(s.MemUsed), float64(s.MemMax)),
		}
		switch {
		case s.Kind == proxmox.KindVM && s.Running:
			out.RunningVMs = append(out.RunningVMs, v)
		case s.Kind == proxmox.KindVM:
			out.StoppedVMs = append(out.StoppedVMs, v)
		case s.Kind == proxmox.KindContainer && s.Running:
			out.RunningContainers = append(out.RunningContainers, v)
		case s.Kind == proxmox.KindContainer:
			out.StoppedContainers = append(out.StoppedContainers, v)
		}
	}
	return out
}

// NodeView summarizes the node status and its latest RRD sample.
type NodeView struct {
	Name          string    `json:"name"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CPUModel      string    `json:"cpu_model"`
	CPUs          int       `json:"cpus"`
	LoadAvg       []string  `json:"load_avg"`
	PVEVersion    string    `json:"pve_version"`
	NetInMbps     float64   `json:"net_in_mbps"`
	NetOutMbps    float64   `json:"net_out_mbps"`
	CPUHistory    []float64 `json:"cpu_history"`
	MemoryHistory []float64 `json:"memory_history"`
}

// BuildNode derives the node card from a Proxmox snapshot.
func BuildNode(snap proxmox.Snapshot) NodeView {
	st := snap.Status
	v := NodeView{
		Name:          snap.Node,
		CPUPercent:    CPUPercent(st.CPU),
		MemoryPercent: Percent(float64(st.Memory.Used), float64(st.Memory.Total)),
		UptimeSeconds: st.Uptime,
		CPUModel:      st.CPUInfo.Model,
		CPUs:          st.CPUInfo.CPUs,
		LoadAvg:       st.LoadAvg,
		PVEVersion:    st.PVEVersion,
		CPUHistory:    make([]float64, 0, len(snap.RRD)),
		MemoryHistory: make([]float64, 0, len(snap.RRD)),
	}
	for _, p := range snap.RRD {
		v.CPUHistory = append(v.CPUHistory, CPUPercent(p.CPU))
		v.MemoryHistory = append(v.MemoryHistory, Percent(p.MemUsed, p.MemTotal))
	}
	if n := len(snap.RRD); n > 0 {
		last := snap.RRD[n-1]
		v.NetInMbps = Mbps(last.NetIn)
		v.NetOutMbps = Mbps(last.NetOut)
	}
	return v
}
