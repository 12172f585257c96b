package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldforge/yieldforge/internal/config"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(&config.JournalConfig{
		StoreType:        "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "journal.db"),
		MaxConnections:   2,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, store.Connect())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, ok, err := store.Get("activity_logs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("activity_logs", `[{"id":"a"}]`))

	value, ok, err := store.Get("activity_logs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, value)

	// Upsert replaces the previous value.
	require.NoError(t, store.Set("activity_logs", `[]`))
	value, _, err = store.Get("activity_logs")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Remove("activity_logs"))
	_, ok, err = store.Get("activity_logs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreBacksJournal(t *testing.T) {
	store := newTestSQLiteStore(t)

	j, err := NewJournal(store, testConfig())
	require.NoError(t, err)

	id, err := j.Track("wrap", "Wrap tokens", "", nil)
	require.NoError(t, err)
	j.RecordSuccess(id, "0xabc", 9, nil)

	reloaded, err := NewJournal(store, testConfig())
	require.NoError(t, err)
	entries := reloaded.List()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
}
