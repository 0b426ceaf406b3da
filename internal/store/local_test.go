package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "state"))

	data, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Save([]byte(`{"appMode":"Advanced"}`)))
	data, err = s.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"appMode":"Advanced"}`, string(data))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_Sealed(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key")
	require.NoError(t, GenerateKeyFile(keyPath))
	key, err := ReadKeyFile(keyPath)
	require.NoError(t, err)

	s, err := NewLocalStore(dir).WithKey(key)
	require.NoError(t, err)
	require.NoError(t, s.Save([]byte(`{"plex":{"token":"secret"}}`)))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	data, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, string(data), "secret")

	_, err = NewLocalStore(dir).Load()
	assert.ErrorIs(t, err, ErrSealedNoKey)

	other := make([]byte, keyLength)
	wrong, err := NewLocalStore(dir).WithKey(other)
	require.NoError(t, err)
	_, err = wrong.Load()
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestLocalStore_UnsealedReadableWithKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewLocalStore(dir).Save([]byte(`{}`)))

	s, err := NewLocalStore(dir).WithKey(make([]byte, keyLength))
	require.NoError(t, err)
	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestLocalStore_BadKey(t *testing.T) {
	_, err := NewLocalStore(t.TempDir()).WithKey([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("abcd\n"), 0o600))
	_, err = ReadKeyFile(path)
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}
