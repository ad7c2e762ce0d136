package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "node.key")

	id, err := Generate()
	require.NoError(t, err)
	require.NoError(t, id.SavePEM(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadPEM(path)
	require.NoError(t, err)
	assert.Equal(t, id.PeerID(), loaded.PeerID())

	// 临时文件不应残留
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadPEM_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPEM(filepath.Join(dir, "missing.key"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	bad := filepath.Join(dir, "bad.key")
	require.NoError(t, os.WriteFile(bad, []byte("not pem"), 0o600))
	_, err = LoadPEM(bad)
	assert.ErrorIs(t, err, ErrInvalidPEM)
}

func TestLoadOrGenerate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.key")

	t.Run("ephemeral", func(t *testing.T) {
		id, err := LoadOrGenerate("", false)
		require.NoError(t, err)
		assert.False(t, id.PeerID().IsEmpty())
	})

	t.Run("missing without auto generate", func(t *testing.T) {
		_, err := LoadOrGenerate(path, false)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("generate then reload", func(t *testing.T) {
		first, err := LoadOrGenerate(path, true)
		require.NoError(t, err)
		second, err := LoadOrGenerate(path, true)
		require.NoError(t, err)
		assert.Equal(t, first.PeerID(), second.PeerID())
	})
}
