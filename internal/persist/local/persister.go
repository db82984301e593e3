// Package local persists deliverable PDFs on the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/printforge/bindery/internal/order"
)

// Config captures the parameters for the local persister.
type Config struct {
	// BaseDir is the root directory where deliverables are written.
	BaseDir string `mapstructure:"base_dir"`
}

// Persister writes merged PDFs under deterministic per-order filenames.
type Persister struct {
	baseDir string
}

// New creates a local Persister, creating the base directory if needed.
func New(cfg Config) (*Persister, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &Persister{baseDir: cfg.BaseDir}, nil
}

// Filename returns the deterministic deliverable name for an order and
// 1-based project index: "{orderID}.pdf" for the first (or only) project,
// "{orderID}-{index}.pdf" otherwise.
func Filename(orderID string, index int) string {
	if index <= 1 {
		return orderID + ".pdf"
	}
	return fmt.Sprintf("%s-%d.pdf", orderID, index)
}

// Persist writes data under the deterministic filename and returns the full
// path. Write failures (permissions, disk space) are persist failures.
func (p *Persister) Persist(_ context.Context, data []byte, orderID string, index int) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", order.E(order.KindPersist, "persist deliverable", fmt.Errorf("order id is required"))
	}
	if err := os.MkdirAll(p.baseDir, 0o750); err != nil {
		return "", order.E(order.KindPersist, "create output directory", err)
	}
	path := filepath.Join(p.baseDir, Filename(orderID, index))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", order.E(order.KindPersist, "write deliverable", err)
	}
	return path, nil
}
