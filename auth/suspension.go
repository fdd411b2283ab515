package auth

import (
	"context"
	"fmt"

	"skypanel/model"
)

// EnsureActive runs the suspension gate on an instance before any
// node-directed operation. Records written before the suspended field
// existed are migrated to an explicit false and persisted; a
// suspended instance returns ErrSuspended and no node call happens.
func (g *Guard) EnsureActive(ctx context.Context, inst *model.Instance) error {
	if inst.Suspended == nil {
		f := false
		inst.Suspended = &f
		if err := g.store.SaveInstance(ctx, inst); err != nil {
			return fmt.Errorf("migrate suspended flag for %s: %w", inst.ID, err)
		}
	}
	if *inst.Suspended {
		return ErrSuspended
	}
	return nil
}

// SetSuspended flips the administrative hold on an instance. Both the
// keyed record and the matching global-list entry are updated, since
// different call paths read each.
func (g *Guard) SetSuspended(ctx context.Context, instanceID string, suspended bool) error {
	inst, err := g.store.Instance(ctx, instanceID)
	if err != nil {
		return err
	}
	if inst == nil {
		return fmt.Errorf("instance %s not found", instanceID)
	}

	inst.Suspended = &suspended
	if err := g.store.SaveInstance(ctx, inst); err != nil {
		return err
	}

	instances, err := g.store.Instances(ctx)
	if err != nil {
		return err
	}
	for i := range instances {
		if instances[i].ContainerID == inst.ContainerID {
			s := suspended
			instances[i].Suspended = &s
		}
	}
	return g.store.SaveInstances(ctx, instances)
}
