package model

// InstanceState mirrors the state string reported by the owning node.
// Beyond the well-known values the daemon may report arbitrary states;
// the control plane stores whatever the node said.
type InstanceState string

const (
	StateInstalling InstanceState = "INSTALLING"
	StateRunning    InstanceState = "RUNNING"
	StateStopped    InstanceState = "STOPPED"
)

// Instance is one managed containerized workload. Node is a snapshot
// taken at creation time; daemon calls resolve the canonical node
// record by its id and fall back to the snapshot only when that
// record is gone.
type Instance struct {
	Name        string            `json:"Name"`
	ID          string            `json:"Id"`
	Node        Node              `json:"Node"`
	User        string            `json:"User"`
	ContainerID string            `json:"ContainerId"`
	VolumeID    string            `json:"VolumeId"`
	Memory      int               `json:"Memory"`
	Disk        string            `json:"Disk"`
	CPU         int               `json:"Cpu"`
	Ports       string            `json:"Ports"`
	Primary     bool              `json:"Primary"`
	Image       string            `json:"Image"`
	AltImages   []string          `json:"AltImages,omitempty"`
	StopCommand string            `json:"StopCommand,omitempty"`
	ImageData   *Image            `json:"imageData,omitempty"`
	Env         map[string]string `json:"Env,omitempty"`
	State       InstanceState     `json:"State"`

	// Suspended is a pointer so records written before the field
	// existed read back as nil; the suspension gate lazily migrates
	// them to an explicit false.
	Suspended *bool `json:"suspended"`
}

// IsSuspended treats an unmigrated nil as not suspended.
func (i *Instance) IsSuspended() bool {
	return i.Suspended != nil && *i.Suspended
}

// PowerAction is a node-directed power operation.
type PowerAction string

const (
	PowerStart   PowerAction = "start"
	PowerStop    PowerAction = "stop"
	PowerRestart PowerAction = "restart"
)

// Valid reports whether a is one of the three supported actions.
func (a PowerAction) Valid() bool {
	return a == PowerStart || a == PowerStop || a == PowerRestart
}
