// Package reconcile mirrors node-reported instance state into the
// local records.
package reconcile

import (
	"context"
	"fmt"

	"skypanel/daemon"
	"skypanel/model"
	"skypanel/store"
)

type Reconciler struct {
	Store  *store.Store
	Daemon *daemon.Client
}

func New(s *store.Store, d *daemon.Client) *Reconciler {
	return &Reconciler{Store: s, Daemon: d}
}

// Reconcile fetches the node's authoritative state for one instance,
// echoes it back to the node as an acknowledgment, and overwrites the
// local mirror. A missing instance is a no-op and returns nil.
func (r *Reconciler) Reconcile(ctx context.Context, instanceID string) (*model.Instance, error) {
	inst, err := r.Store.Instance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, nil
	}

	node := r.Store.OwnerNode(ctx, inst)
	state, err := r.Daemon.GetState(ctx, node, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("get state for %s: %w", inst.ID, err)
	}

	// The set-state round trip is the daemon's acknowledgment
	// handshake, not a transition: the same value goes straight back.
	if err := r.Daemon.SetState(ctx, node, inst.ID, state); err != nil {
		return nil, fmt.Errorf("ack state for %s: %w", inst.ID, err)
	}

	inst.State = state
	if err := r.Store.SaveInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}
