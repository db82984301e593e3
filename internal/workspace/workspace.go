// Package workspace manages the ephemeral extraction directories scoped to
// one project-processing invocation.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Manager creates uniquely named workspaces under a root and removes them.
type Manager struct {
	root   string
	logger *zap.Logger
}

// NewManager creates the workspace root if absent and returns a Manager.
func NewManager(root string, logger *zap.Logger) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{root: root, logger: logger}, nil
}

// Root returns the directory workspaces are created under.
func (m *Manager) Root() string {
	return m.root
}

// Create makes a fresh workspace directory named after ref plus a unique
// token. Creation is atomic, so concurrent invocations for different
// projects can never collide.
func (m *Manager) Create(ref string) (string, error) {
	dir, err := os.MkdirTemp(m.root, sanitize(ref)+"-")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

// Remove deletes the workspace recursively. Best-effort: failures are logged
// as warnings and never propagated, so cleanup can never mask the pipeline's
// primary result. Paths outside the root are refused.
func (m *Manager) Remove(path string) {
	if path == "" {
		return
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		m.logger.Warn("refusing to remove path outside workspace root", zap.String("path", path))
		return
	}
	if err := os.RemoveAll(path); err != nil {
		m.logger.Warn("workspace cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

// sanitize keeps workspace prefixes filesystem-safe.
func sanitize(ref string) string {
	if ref == "" {
		return "project"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, ref)
}
