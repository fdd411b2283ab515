package model

// NodeStatus is the last observed reachability of a node daemon.
type NodeStatus string

const (
	NodeOnline       NodeStatus = "Online"
	NodeOffline      NodeStatus = "Offline"
	NodeUnconfigured NodeStatus = "Unconfigured"
)

// Node is a remote execution daemon host. ApiKey stays empty until the
// daemon completes out-of-band configuration with its ConfigureKey.
type Node struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Tags         string     `json:"tags"`
	RAM          string     `json:"ram"`
	Disk         string     `json:"disk"`
	Processor    string     `json:"processor"`
	Address      string     `json:"address"`
	Port         string     `json:"port"`
	APIKey       string     `json:"apiKey"`
	ConfigureKey string     `json:"configureKey"`
	Status       NodeStatus `json:"status"`

	// Reported by the daemon's root endpoint on a successful probe.
	VersionFamily  string `json:"versionFamily,omitempty"`
	VersionRelease string `json:"versionRelease,omitempty"`
	Remote         string `json:"remote,omitempty"`
	Docker         bool   `json:"docker,omitempty"`
}

// Addr returns the daemon's host:port dial target.
func (n *Node) Addr() string {
	return n.Address + ":" + n.Port
}
