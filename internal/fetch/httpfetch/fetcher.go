// Package httpfetch downloads render archives over HTTP.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/printforge/bindery/internal/order"
)

// DefaultTimeout bounds a single archive download. Render archives can run
// to hundreds of megabytes, hence the generous ceiling.
const DefaultTimeout = 120 * time.Second

// Config controls Fetcher behavior.
type Config struct {
	Timeout time.Duration
}

// Fetcher retrieves archive bytes with a bounded, single-attempt GET.
type Fetcher struct {
	client *http.Client
}

// New constructs a Fetcher. A zero timeout falls back to DefaultTimeout.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the full archive body at url. One attempt, no retries and
// no partial results; redelivery of the triggering webhook is the upstream
// recovery path.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, order.E(order.KindDownload, "build archive request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, order.E(order.KindDownload, "fetch archive", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, order.E(order.KindDownload, "fetch archive",
			fmt.Errorf("HTTP %d from %s", resp.StatusCode, url))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, order.E(order.KindDownload, "read archive body", err)
	}
	return data, nil
}
