package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abcfe/abcfe-wallet/config"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ldb, err := OpenLevelDB(t.TempDir())
	require.NoError(t, err)
	fs, err := OpenFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return map[string]Store{
		"leveldb": ldb,
		"file":    fs,
		"memory":  NewMemoryStore(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("currentIndex")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put("currentIndex", []byte(`{"currentIndex":1}`)))
			got, err := s.Get("currentIndex")
			require.NoError(t, err)
			require.Equal(t, `{"currentIndex":1}`, string(got))

			// last write wins
			require.NoError(t, s.Put("currentIndex", []byte(`{"currentIndex":2}`)))
			got, err = s.Get("currentIndex")
			require.NoError(t, err)
			require.Equal(t, `{"currentIndex":2}`, string(got))

			// empty content is stored, not absent
			require.NoError(t, s.Put("wallet-data", []byte{}))
			got, err = s.Get("wallet-data")
			require.NoError(t, err)
			require.Empty(t, got)

			require.NoError(t, s.Close())
			_, err = s.Get("currentIndex")
			require.Error(t, err)
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put("k", buf))
	buf[0] = 'x'

	got, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestFileStoreEmptyFile(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wallet-data.json"), nil, 0o600))

	got, err := s.Get("wallet-data")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	_, err = s.Get("currentIndex")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)
	require.Error(t, s.Put("../escape", []byte("x")))
	_, err = s.Get("a/b")
	require.Error(t, err)
}

func TestInitDB(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DB.Backend = "file"
	cfg.DB.Path = t.TempDir()
	s, err := InitDB(cfg)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	require.NoError(t, s.Close())

	cfg.DB.Backend = "bogus"
	_, err = InitDB(cfg)
	require.Error(t, err)
}
