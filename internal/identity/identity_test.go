package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenUnique(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestLoadOrCreatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "identity")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
