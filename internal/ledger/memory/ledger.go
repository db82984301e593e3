// Package memory contains an in-memory ledger for tests and for running
// without a configured database.
package memory

import (
	"context"
	"sync"

	"github.com/printforge/bindery/internal/order"
)

// Ledger records appended entries, ignoring duplicate order refs like the
// real ledger does.
type Ledger struct {
	mu      sync.RWMutex
	entries []order.Entry
	seen    map[string]struct{}
}

// New returns a memory Ledger.
func New() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Append records the entry unless its order ref was already appended.
func (l *Ledger) Append(_ context.Context, entry order.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[entry.OrderRef]; dup {
		return nil
	}
	l.seen[entry.OrderRef] = struct{}{}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns the recorded entries.
func (l *Ledger) Entries() []order.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]order.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
