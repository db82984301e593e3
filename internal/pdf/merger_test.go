package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/bindery/internal/order"
	"github.com/printforge/bindery/internal/testsupport"
)

func TestMergePassThrough(t *testing.T) {
	t.Parallel()

	m := New()

	t.Run("pages only", func(t *testing.T) {
		pages := testsupport.MinimalPDF(24)
		out, err := m.Merge(nil, pages)
		require.NoError(t, err)
		// Byte-identical: no parse, no re-encode.
		assert.Equal(t, pages, out)
	})

	t.Run("cover only", func(t *testing.T) {
		cover := testsupport.MinimalPDF(2)
		out, err := m.Merge(cover, nil)
		require.NoError(t, err)
		assert.Equal(t, cover, out)
	})

	t.Run("pass-through skips parsing", func(t *testing.T) {
		garbage := []byte("not a pdf at all")
		out, err := m.Merge(nil, garbage)
		require.NoError(t, err)
		assert.Equal(t, garbage, out)
	})
}

func TestMergeBothPresent(t *testing.T) {
	t.Parallel()

	m := New()
	cover := testsupport.MinimalPDF(2)
	pages := testsupport.MinimalPDF(24)

	merged, err := m.Merge(cover, pages)
	require.NoError(t, err)
	require.NotEmpty(t, merged)

	// Cover pages precede pages-document pages; total is the sum.
	total, err := m.PageCount(merged)
	require.NoError(t, err)
	assert.Equal(t, 26, total)
}

func TestMergeDeterministic(t *testing.T) {
	t.Parallel()

	m := New()
	cover := testsupport.MinimalPDF(1)
	pages := testsupport.MinimalPDF(3)

	first, err := m.Merge(cover, pages)
	require.NoError(t, err)
	second, err := m.Merge(cover, pages)
	require.NoError(t, err)

	firstCount, err := m.PageCount(first)
	require.NoError(t, err)
	secondCount, err := m.PageCount(second)
	require.NoError(t, err)
	assert.Equal(t, firstCount, secondCount)
	assert.Equal(t, 4, firstCount)
}

func TestMergeCorruptInput(t *testing.T) {
	t.Parallel()

	m := New()
	_, err := m.Merge([]byte("garbage"), testsupport.MinimalPDF(2))
	require.Error(t, err)
	assert.True(t, order.IsKind(err, order.KindMerge))
}

func TestMergeNoInputs(t *testing.T) {
	t.Parallel()

	_, err := New().Merge(nil, nil)
	require.Error(t, err)
	assert.True(t, order.IsKind(err, order.KindMerge))
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	m := New()
	n, err := m.PageCount(testsupport.MinimalPDF(24))
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	_, err = m.PageCount([]byte("garbage"))
	require.Error(t, err)
	assert.True(t, order.IsKind(err, order.KindMerge))
}
