// Package deploy orchestrates instance creation and deletion against
// the owning node, keeping the three storage locations (global list,
// per-user list, keyed record) in step.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"skypanel/daemon"
	"skypanel/metrics"
	"skypanel/model"
	"skypanel/store"
)

var (
	ErrNodeNotFound     = errors.New("invalid node")
	ErrInstanceNotFound = errors.New("instance not found")
)

// ValidationError reports missing deployment parameters. It carries
// no side effects: nothing was dispatched or written.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing parameters: " + strings.Join(e.Missing, ", ")
}

// Request carries the raw deployment input. Numeric fields arrive as
// strings and are coerced during request construction.
type Request struct {
	Image     string            `json:"image"`
	ImageName string            `json:"imagename"`
	Memory    string            `json:"memory"`
	CPU       string            `json:"cpu"`
	Disk      string            `json:"disk"`
	Ports     string            `json:"ports"`
	NodeID    string            `json:"nodeId"`
	Name      string            `json:"name"`
	UserID    string            `json:"user"`
	Primary   bool              `json:"primary"`
	Variables map[string]string `json:"variables,omitempty"`
}

func (r *Request) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"image", r.Image},
		{"memory", r.Memory},
		{"cpu", r.CPU},
		{"disk", r.Disk},
		{"ports", r.Ports},
		{"nodeId", r.NodeID},
		{"name", r.Name},
		{"user", r.UserID},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if !r.Primary {
		missing = append(missing, "primary")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

type Orchestrator struct {
	Store  *store.Store
	Daemon *daemon.Client
}

func New(s *store.Store, d *daemon.Client) *Orchestrator {
	return &Orchestrator{Store: s, Daemon: d}
}

// Deploy validates the request, dispatches creation to the owning
// node, and persists the resulting record in all three locations. A
// node failure aborts before anything is written.
func (o *Orchestrator) Deploy(ctx context.Context, req Request) (*model.Instance, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	id, err := o.newInstanceID(ctx)
	if err != nil {
		return nil, err
	}

	node, err := o.Store.Node(ctx, req.NodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNodeNotFound
	}

	imageData, err := o.Store.ImageByName(ctx, req.ImageName)
	if err != nil {
		return nil, err
	}

	createReq := daemon.BuildCreateRequest(req.Name, id, req.Image, req.Memory, req.CPU, req.Ports, req.Variables, imageData)
	resp, err := o.Daemon.CreateInstance(ctx, node, createReq)
	if err != nil {
		metrics.Deployments.WithLabelValues("failed").Inc()
		return nil, err
	}

	inst := buildInstance(req, id, node, imageData, resp)
	if err := o.persist(ctx, inst); err != nil {
		metrics.Deployments.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.Deployments.WithLabelValues("created").Inc()
	return inst, nil
}

// newInstanceID generates a short human-friendly id: the first
// segment of a UUID, retried against the global list so the low
// entropy cannot silently collide.
func (o *Orchestrator) newInstanceID(ctx context.Context) (string, error) {
	instances, err := o.Store.Instances(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(instances))
	for _, inst := range instances {
		taken[inst.ID] = true
	}

	for i := 0; i < 8; i++ {
		id, _, _ := strings.Cut(uuid.New().String(), "-")
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique instance id")
}

func buildInstance(req Request, id string, node *model.Node, imageData *model.Image, resp *daemon.CreateResponse) *model.Instance {
	memory, _ := strconv.Atoi(req.Memory)
	cpu, _ := strconv.Atoi(req.CPU)

	volumeID := resp.VolumeID
	if volumeID == "" {
		volumeID = id
	}

	inst := &model.Instance{
		Name:        req.Name,
		ID:          id,
		Node:        *node,
		User:        req.UserID,
		ContainerID: resp.ContainerID,
		VolumeID:    volumeID,
		Memory:      memory,
		Disk:        req.Disk,
		CPU:         cpu,
		Ports:       req.Ports,
		Primary:     req.Primary,
		Image:       req.Image,
		ImageData:   imageData,
		Env:         resp.Env,
		State:       model.InstanceState(resp.State),
	}
	if imageData != nil {
		inst.AltImages = imageData.AltImages
		inst.StopCommand = imageData.StopCommand
	}
	return inst
}

// persist appends the record to the owner's list and the global list
// and writes the keyed copy, committing all three in one batch so no
// query path ever sees a half-deployed instance.
func (o *Orchestrator) persist(ctx context.Context, inst *model.Instance) error {
	owned, err := o.Store.UserInstances(ctx, inst.User)
	if err != nil {
		return err
	}
	instances, err := o.Store.Instances(ctx)
	if err != nil {
		return err
	}
	return o.Store.PersistDeployment(ctx, inst, append(owned, *inst), append(instances, *inst))
}

// Delete removes the container from its node, then prunes the three
// storage locations. A node failure aborts the whole deletion so a
// live container never loses its control-plane record.
func (o *Orchestrator) Delete(ctx context.Context, instanceID string) error {
	inst, err := o.Store.Instance(ctx, instanceID)
	if err != nil {
		return err
	}
	if inst == nil {
		return ErrInstanceNotFound
	}

	if err := o.Daemon.DeleteInstance(ctx, o.Store.OwnerNode(ctx, inst), inst.ContainerID); err != nil {
		return err
	}

	owned, err := o.Store.UserInstances(ctx, inst.User)
	if err != nil {
		return err
	}
	kept := owned[:0]
	for _, i := range owned {
		if i.ContainerID != inst.ContainerID {
			kept = append(kept, i)
		}
	}

	instances, err := o.Store.Instances(ctx)
	if err != nil {
		return err
	}
	keptGlobal := instances[:0]
	for _, i := range instances {
		if i.ContainerID != inst.ContainerID {
			keptGlobal = append(keptGlobal, i)
		}
	}

	return o.Store.PruneInstance(ctx, inst, kept, keptGlobal)
}
