package proxmox

import "time"

// Kind classifies a cluster resource.
type Kind string

const (
	KindVM        Kind = "vm"
	KindContainer Kind = "container"
	KindNode      Kind = "node"
	KindOther     Kind = "other"
)

// Resource is one entry of /cluster/resources.
type Resource struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Node     string  `json:"node"`
	Status   string  `json:"status"`
	Name     string  `json:"name,omitempty"`
	VMID     int     `json:"vmid,omitempty"`
	CPU      float64 `json:"cpu,omitempty"`
	Mem      int64   `json:"mem,omitempty"`
	MaxMem   int64   `json:"maxmem,omitempty"`
	MaxCPU   int     `json:"maxcpu,omitempty"`
	Uptime   int64   `json:"uptime,omitempty"`
	Template int     `json:"template,omitempty"`
}

// Classify maps a resource type to its Kind.
func Classify(resourceType string) Kind {
	switch resourceType {
	case "qemu":
		return KindVM
	case "lxc":
		return KindContainer
	case "node":
		return KindNode
	default:
		return KindOther
	}
}

// IsRunning reports whether a status string counts as up.
func IsRunning(status string) bool {
	return status == "running" || status == "online"
}

// Kind returns the resource classification.
func (r Resource) Kind() Kind { return Classify(r.Type) }

// Running reports whether the resource is up.
func (r Resource) Running() bool { return IsRunning(r.Status) }

// IsTemplate reports whether the resource is a VM/CT template.
func (r Resource) IsTemplate() bool { return r.Template == 1 }

// DisplayName is the resource name or "Unknown".
func (r Resource) DisplayName() string {
	if r.Name == "" {
		return "Unknown"
	}
	return r.Name
}

// ResourceSnapshot is the normalized view of a VM, container or node.
type ResourceSnapshot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	VMID        int     `json:"vmid"`
	Kind        Kind    `json:"kind"`
	Running     bool    `json:"running"`
	CPUFraction float64 `json:"cpu_fraction"`
	MemUsed     int64   `json:"mem_used"`
	MemMax      int64   `json:"mem_max"`
	Uptime      int64   `json:"uptime"`
}

// Snapshot normalizes r.
func (r Resource) Snapshot() ResourceSnapshot {
	return ResourceSnapshot{
		ID:          r.ID,
		Name:        r.DisplayName(),
		VMID:        r.VMID,
		Kind:        r.Kind(),
		Running:     r.Running(),
		CPUFraction: r.CPU,
		MemUsed:     r.Mem,
		MemMax:      r.MaxMem,
		Uptime:      r.Uptime,
	}
}

// NodeStatus is /nodes/{node}/status.
type NodeStatus struct {
	CPU    float64 `json:"cpu"`
	Memory struct {
		Used  int64 `json:"used"`
		Total int64 `json:"total"`
		Free  int64 `json:"free"`
	} `json:"memory"`
	Uptime  int64 `json:"uptime"`
	CPUInfo struct {
		Model   string `json:"model"`
		CPUs    int    `json:"cpus"`
		Cores   int    `json:"cores"`
		Sockets int    `json:"sockets"`
	} `json:"cpuinfo"`
	LoadAvg    []string `json:"loadavg"`
	KVersion   string   `json:"kversion"`
	PVEVersion string   `json:"pveversion"`
}

// RRDPoint is one sample of /nodes/{node}/rrddata. Absent fields decode
// as zero.
type RRDPoint struct {
	Time      float64 `json:"time"`
	CPU       float64 `json:"cpu,omitempty"`
	MemUsed   float64 `json:"memused,omitempty"`
	MemTotal  float64 `json:"memtotal,omitempty"`
	NetIn     float64 `json:"netin,omitempty"`
	NetOut    float64 `json:"netout,omitempty"`
	LoadAvg   float64 `json:"loadavg,omitempty"`
	RootUsed  float64 `json:"rootused,omitempty"`
	RootTotal float64 `json:"roottotal,omitempty"`
	IOWait    float64 `json:"iowait,omitempty"`
}

// At returns the sample time.
func (p RRDPoint) At() time.Time {
	return time.Unix(int64(p.Time), 0)
}

// Snapshot is everything one Proxmox cycle publishes.
type Snapshot struct {
	Node      string     `json:"node"`
	Resources []Resource `json:"resources"`
	Status    NodeStatus `json:"status"`
	RRD       []RRDPoint `json:"rrd"`
}
