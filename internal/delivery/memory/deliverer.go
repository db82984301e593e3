// Package memory contains an in-memory deliverer for tests and for running
// without a configured transport.
package memory

import (
	"context"
	"sync"

	"github.com/printforge/bindery/internal/order"
)

// Deliverer stores delivered notices for inspection.
type Deliverer struct {
	mu      sync.RWMutex
	notices []order.Notice
	err     error
}

// New returns a memory Deliverer.
func New() *Deliverer {
	return &Deliverer{}
}

// Fail makes every subsequent Deliver call return err.
func (d *Deliverer) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Deliver records the notice.
func (d *Deliverer) Deliver(_ context.Context, notice order.Notice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.notices = append(d.notices, notice)
	return nil
}

// Notices returns the recorded deliveries.
func (d *Deliverer) Notices() []order.Notice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]order.Notice, len(d.notices))
	copy(out, d.notices)
	return out
}
