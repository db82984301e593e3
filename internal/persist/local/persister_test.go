package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/bindery/internal/order"
)

func TestFilename(t *testing.T) {
	t.Parallel()

	cases := []struct {
		orderID string
		index   int
		want    string
	}{
		{"A1", 1, "A1.pdf"},
		{"A1", 2, "A1-2.pdf"},
		{"A1", 0, "A1.pdf"},
		{"ORD1", 1, "ORD1.pdf"},
		{"ORD1", 3, "ORD1-3.pdf"},
	}
	for _, tc := range cases {
		if got := Filename(tc.orderID, tc.index); got != tc.want {
			t.Fatalf("Filename(%q, %d) = %q, want %q", tc.orderID, tc.index, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates base directory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out", "deliverables")
		_, err := New(Config{BaseDir: base})
		require.NoError(t, err)
		assert.DirExists(t, base)
	})

	t.Run("missing base dir", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})
}

func TestPersist(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	p, err := New(Config{BaseDir: base})
	require.NoError(t, err)

	data := []byte("%PDF-1.4 merged")
	path, err := p.Persist(context.Background(), data, "ORD1", 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "ORD1.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	path2, err := p.Persist(context.Background(), data, "ORD1", 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "ORD1-2.pdf"), path2)
}

func TestPersistEmptyOrderID(t *testing.T) {
	t.Parallel()

	p, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = p.Persist(context.Background(), []byte("x"), "  ", 1)
	require.Error(t, err)
	assert.True(t, order.IsKind(err, order.KindPersist))
}

func TestPersistWriteFailure(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	p, err := New(Config{BaseDir: base})
	require.NoError(t, err)

	// A directory squatting on the target filename forces a write error.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "ORD1.pdf"), 0o750))

	_, err = p.Persist(context.Background(), []byte("x"), "ORD1", 1)
	require.Error(t, err)
	assert.True(t, order.IsKind(err, order.KindPersist))
}
