package reconcile

import (
	"context"
	"log"
	"time"
)

// Poller sweeps every known instance on a fixed interval. Correctness
// does not depend on it (reconciliation also runs on demand when
// callers poll); it only improves liveness of the mirrored state.
type Poller struct {
	Reconciler *Reconciler
	Interval   time.Duration
}

// Run blocks until ctx is cancelled. Per-instance failures are logged
// and do not stop the sweep.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	instances, err := p.Reconciler.Store.Instances(ctx)
	if err != nil {
		log.Printf("reconcile sweep: list instances: %v", err)
		return
	}
	for _, inst := range instances {
		if _, err := p.Reconciler.Reconcile(ctx, inst.ID); err != nil {
			log.Printf("reconcile %s: %v", inst.ID, err)
		}
	}
}
