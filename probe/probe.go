// Package probe verifies node daemon reachability and records the
// outcome.
package probe

import (
	"context"
	"log"
	"time"

	"skypanel/daemon"
	"skypanel/model"
	"skypanel/store"
)

type Probe struct {
	Store  *store.Store
	Daemon *daemon.Client
}

func New(s *store.Store, d *daemon.Client) *Probe {
	return &Probe{Store: s, Daemon: d}
}

// Check hits the node's root endpoint and persists the updated record
// regardless of outcome: this is a side-effecting health check, not a
// pure query. Any failure, auth included, marks the node Offline.
func (p *Probe) Check(ctx context.Context, node *model.Node) *model.Node {
	status, err := p.Daemon.Status(ctx, node)
	if err != nil {
		node.Status = model.NodeOffline
	} else {
		node.Status = model.NodeOnline
		node.VersionFamily = status.VersionFamily
		node.VersionRelease = status.VersionRelease
		node.Remote = status.Remote
		node.Docker = status.Docker
	}

	if err := p.Store.SaveNode(ctx, node); err != nil {
		log.Printf("persist node %s after probe: %v", node.ID, err)
	}
	return node
}

// CheckAll probes every registered node.
func (p *Probe) CheckAll(ctx context.Context) {
	ids, err := p.Store.NodeIDs(ctx)
	if err != nil {
		log.Printf("probe: list nodes: %v", err)
		return
	}
	for _, id := range ids {
		node, err := p.Store.Node(ctx, id)
		if err != nil || node == nil {
			continue
		}
		p.Check(ctx, node)
	}
}

// Run probes all nodes on a fixed interval until ctx is cancelled.
func (p *Probe) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CheckAll(ctx)
		}
	}
}
