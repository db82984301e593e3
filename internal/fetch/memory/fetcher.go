// Package memory contains an in-memory archive fetcher for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/printforge/bindery/internal/order"
)

// Fetcher serves archives from a map and records the URLs it was asked for.
type Fetcher struct {
	mu       sync.Mutex
	archives map[string][]byte
	fetched  []string
}

// New returns a memory Fetcher serving the given archives by URL.
func New(archives map[string][]byte) *Fetcher {
	return &Fetcher{archives: archives}
}

// Fetch returns the archive registered for url, or a download failure.
func (f *Fetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	data, ok := f.archives[url]
	if !ok {
		return nil, order.E(order.KindDownload, "fetch archive", fmt.Errorf("no archive registered for %s", url))
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Fetched returns the URLs requested so far.
func (f *Fetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetched))
	copy(out, f.fetched)
	return out
}
