package qrcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New("  ")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	g, err := New("https://shop.example.com/")
	require.NoError(t, err)

	png, err := g.Generate("ORD1")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
