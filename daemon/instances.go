package daemon

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"skypanel/model"
)

// CreateRequest is the daemon's instance creation body. Field names
// are the daemon's wire contract. Memory and Cpu are pointers so an
// absent input omits the field instead of sending a zero.
type CreateRequest struct {
	Name         string                   `json:"Name"`
	ID           string                   `json:"Id"`
	Image        string                   `json:"Image"`
	Env          map[string]string        `json:"Env,omitempty"`
	Scripts      *model.ImageScripts      `json:"Scripts,omitempty"`
	Memory       *int                     `json:"Memory,omitempty"`
	CPU          *int                     `json:"Cpu,omitempty"`
	ExposedPorts map[string]struct{}      `json:"ExposedPorts"`
	PortBindings map[string][]PortBinding `json:"PortBindings"`
	Variables    map[string]string        `json:"variables,omitempty"`
	AltImages    []string                 `json:"AltImages"`
	StopCommand  string                   `json:"StopCommand,omitempty"`
	ImageData    *model.Image             `json:"imageData,omitempty"`
}

type PortBinding struct {
	HostPort string `json:"HostPort"`
}

// CreateResponse is what the daemon reports back after provisioning.
type CreateResponse struct {
	ContainerID string            `json:"containerId"`
	VolumeID    string            `json:"volumeId"`
	State       string            `json:"state"`
	Env         map[string]string `json:"Env"`
}

// BuildCreateRequest assembles the creation body from user input and
// image catalog metadata. A nil imageData leaves the optional fields
// unset rather than failing.
func BuildCreateRequest(name, id, image, memory, cpu, ports string, variables map[string]string, imageData *model.Image) CreateRequest {
	req := CreateRequest{
		Name:         name,
		ID:           id,
		Image:        image,
		Memory:       parseSize(memory),
		CPU:          parseSize(cpu),
		ExposedPorts: map[string]struct{}{},
		PortBindings: map[string][]PortBinding{},
		Variables:    variables,
		AltImages:    []string{},
		ImageData:    imageData,
	}
	if imageData != nil {
		req.Env = imageData.Env
		req.Scripts = imageData.Scripts
		req.AltImages = imageData.AltImages
		req.StopCommand = imageData.StopCommand
	}
	expandPorts(ports, req.ExposedPorts, req.PortBindings)
	return req
}

// expandPorts turns a comma-separated "containerPort:hostPort" list
// into exposure and binding entries for both TCP and UDP per pair.
// The duplicate protocol exposure is intentional.
func expandPorts(ports string, exposed map[string]struct{}, bindings map[string][]PortBinding) {
	if ports == "" {
		return
	}
	for _, mapping := range strings.Split(ports, ",") {
		containerPort, hostPort, ok := strings.Cut(strings.TrimSpace(mapping), ":")
		if !ok {
			continue
		}
		for _, proto := range []string{"tcp", "udp"} {
			key := containerPort + "/" + proto
			if _, ok := exposed[key]; !ok {
				exposed[key] = struct{}{}
			}
			if _, ok := bindings[key]; !ok {
				bindings[key] = []PortBinding{{HostPort: hostPort}}
			}
		}
	}
}

// parseSize coerces a raw numeric input; garbage or absence omits the
// field.
func parseSize(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// CreateInstance dispatches a creation request to the node.
func (c *Client) CreateInstance(ctx context.Context, node *model.Node, req CreateRequest) (*CreateResponse, error) {
	var resp CreateResponse
	if err := c.do(ctx, node, "create", http.MethodPost, "/instances/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetState queries the node for an instance's live state.
func (c *Client) GetState(ctx context.Context, node *model.Node, instanceID string) (model.InstanceState, error) {
	var resp struct {
		State string `json:"state"`
	}
	if err := c.do(ctx, node, "state.get", http.MethodGet, "/instances/"+instanceID+"/states/get", nil, &resp); err != nil {
		return "", err
	}
	return model.InstanceState(resp.State), nil
}

// SetState echoes a state back to the node. The reconciler issues
// this after every GetState as a round-trip acknowledgment.
func (c *Client) SetState(ctx context.Context, node *model.Node, instanceID string, state model.InstanceState) error {
	return c.do(ctx, node, "state.set", http.MethodGet, "/instances/"+instanceID+"/states/set/"+string(state), nil, nil)
}

// Power runs a start/stop/restart action on the node.
func (c *Client) Power(ctx context.Context, node *model.Node, instanceID string, action model.PowerAction) error {
	return c.do(ctx, node, "power."+string(action), http.MethodPost, "/instances/"+instanceID+"/"+string(action), nil, nil)
}

// DeleteInstance removes the container from the node.
func (c *Client) DeleteInstance(ctx context.Context, node *model.Node, containerID string) error {
	return c.do(ctx, node, "delete", http.MethodGet, "/instances/"+containerID+"/delete", nil, nil)
}
