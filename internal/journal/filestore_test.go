package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldforge/yieldforge/internal/config"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Connect())
	defer store.Close()

	_, ok, err := store.Get("activity_logs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("activity_logs", `[{"id":"a"}]`))

	value, ok, err := store.Get("activity_logs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, value)

	// Overwrites replace the previous value.
	require.NoError(t, store.Set("activity_logs", `[]`))
	value, _, err = store.Get("activity_logs")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Remove("activity_logs"))
	_, ok, err = store.Get("activity_logs")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove("activity_logs"))
}

func TestFileStoreConnectCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store := NewFileStore(dir)
	require.NoError(t, store.Connect())
	require.NoError(t, store.Set("k", "v"))
}

func TestNewStoreFactory(t *testing.T) {
	store, err := NewStore(&config.JournalConfig{StoreType: "file", ConnectionString: t.TempDir()})
	require.NoError(t, err)
	_, ok := store.(*FileStore)
	assert.True(t, ok)

	store, err = NewStore(&config.JournalConfig{StoreType: "sqlite", ConnectionString: "x.db"})
	require.NoError(t, err)
	_, ok = store.(*SQLiteStore)
	assert.True(t, ok)

	store, err = NewStore(&config.JournalConfig{StoreType: "postgres", ConnectionString: "postgres://localhost/x"})
	require.NoError(t, err)
	_, ok = store.(*PostgresStore)
	assert.True(t, ok)

	_, err = NewStore(&config.JournalConfig{StoreType: "redis"})
	require.Error(t, err)
}

func TestValidateStoreConfig(t *testing.T) {
	assert.Error(t, ValidateStoreConfig(&config.JournalConfig{}))
	assert.Error(t, ValidateStoreConfig(&config.JournalConfig{StoreType: "file"}))
	assert.Error(t, ValidateStoreConfig(&config.JournalConfig{StoreType: "redis", ConnectionString: "x"}))
	assert.NoError(t, ValidateStoreConfig(&config.JournalConfig{StoreType: "file", ConnectionString: "./data"}))
}
