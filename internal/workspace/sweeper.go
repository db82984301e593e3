package workspace

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/printforge/bindery/internal/order"
)

// Sweeper removes workspaces that outlived the retention window. It guards
// against orphans left by crashed processes; live pipelines remove their own
// workspace well inside any sane retention.
type Sweeper struct {
	root      string
	retention time.Duration
	clock     order.Clock
	logger    *zap.Logger
}

// NewSweeper constructs a Sweeper over the given workspace root.
func NewSweeper(root string, retention time.Duration, clock order.Clock, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{root: root, retention: retention, clock: clock, logger: logger}
}

// Sweep removes expired workspace entries and returns how many were removed.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn("workspace sweep failed", zap.String("root", s.root), zap.Error(err))
		return 0
	}

	cutoff := s.clock.Now().Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("expired workspace removal failed", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("removed expired workspaces", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps on the given interval until the context finishes.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
