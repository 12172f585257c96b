package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/models"
)

// memoryStore is an in-memory Store for tests.
type memoryStore struct {
	data    map[string]string
	failSet bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Connect() error { return nil }
func (m *memoryStore) Close() error   { return nil }

func (m *memoryStore) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(key, value string) error {
	if m.failSet {
		return errors.New("store unavailable")
	}
	m.data[key] = value
	return nil
}

func (m *memoryStore) Remove(key string) error {
	delete(m.data, key)
	return nil
}

func testConfig() *config.JournalConfig {
	return &config.JournalConfig{MaxEntries: 100}
}

func newTestJournal(t *testing.T, store Store) *Journal {
	t.Helper()
	j, err := NewJournal(store, testConfig())
	require.NoError(t, err)
	return j
}

func TestTrackCreatesPendingEntry(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	id, err := j.Track(models.ActivityKindWrap, "Wrap tokens", "Wrap 100 stAVAX", map[string]interface{}{"amount": "100"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entries := j.List()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, models.ActivityStatusPending, entries[0].Status)
	assert.Equal(t, models.ActivityKindWrap, entries[0].Kind)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestEntriesAreNewestFirst(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	first, err := j.Track(models.ActivityKindWrap, "first", "", nil)
	require.NoError(t, err)
	second, err := j.Track(models.ActivityKindSplit, "second", "", nil)
	require.NoError(t, err)

	entries := j.List()
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0].ID)
	assert.Equal(t, first, entries[1].ID)
}

func TestRecordSuccessAttachesReceiptFields(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	id, err := j.Track(models.ActivityKindStake, "Stake tokens", "", nil)
	require.NoError(t, err)

	j.RecordSuccess(id, "0xabc", 42, big.NewInt(151234))

	entries := j.List()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityStatusSuccess, entries[0].Status)
	assert.Equal(t, "0xabc", entries[0].TxHash)
	assert.Equal(t, uint64(42), entries[0].BlockNumber)
	assert.Equal(t, "151234", entries[0].GasUsed.String())
}

func TestRecordFailureAttachesMessage(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	id, err := j.Track(models.ActivityKindSplit, "Split tokens", "", nil)
	require.NoError(t, err)

	j.RecordFailure(id, "Token approval required. Please approve the contract to spend your tokens.")

	entries := j.List()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityStatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Error, "approval required")
}

func TestTerminalEntriesAreImmutable(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	id, err := j.Track(models.ActivityKindWrap, "Wrap tokens", "", nil)
	require.NoError(t, err)

	j.RecordSuccess(id, "0xabc", 42, nil)
	j.RecordFailure(id, "should be ignored")
	j.RecordSuccess(id, "0xdef", 43, nil)

	entries := j.List()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityStatusSuccess, entries[0].Status)
	assert.Equal(t, "0xabc", entries[0].TxHash)
	assert.Empty(t, entries[0].Error)
}

func TestUnknownEntryIDIsNoOp(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	j.RecordSuccess("no-such-id", "0xabc", 1, nil)
	j.RecordFailure("no-such-id", "boom")

	assert.Zero(t, j.Count())
}

func TestPersistedMirrorTruncatesToMaxEntries(t *testing.T) {
	store := newMemoryStore()
	j := newTestJournal(t, store)

	for i := 0; i < 105; i++ {
		_, err := j.Track(models.ActivityKindWrap, fmt.Sprintf("op %d", i), "", nil)
		require.NoError(t, err)
	}

	raw, ok, err := store.Get(storageKey)
	require.NoError(t, err)
	require.True(t, ok)

	var records []entryRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	assert.Len(t, records, 100)

	// The mirror keeps the newest entries.
	assert.Equal(t, "op 104", records[0].Title)
	assert.Equal(t, "op 5", records[99].Title)
}

func TestReloadRestoresPersistedEntries(t *testing.T) {
	store := newMemoryStore()
	j := newTestJournal(t, store)

	id, err := j.Track(models.ActivityKindStake, "Stake tokens", "desc", map[string]interface{}{"amount": "5"})
	require.NoError(t, err)
	j.RecordSuccess(id, "0xfeed", 7, big.NewInt(21000))

	reloaded := newTestJournal(t, store)
	entries := reloaded.List()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, models.ActivityStatusSuccess, entries[0].Status)
	assert.Equal(t, "21000", entries[0].GasUsed.String())
	assert.Equal(t, "5", entries[0].Metadata["amount"])
}

func TestCorruptMirrorIsDiscardedAndCleared(t *testing.T) {
	store := newMemoryStore()
	store.data[storageKey] = "{not valid json"

	j := newTestJournal(t, store)
	assert.Zero(t, j.Count())

	// The corrupt payload was removed so the next load starts clean.
	_, ok, err := store.Get(storageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreFailureDoesNotLoseInMemoryEntries(t *testing.T) {
	store := newMemoryStore()
	j := newTestJournal(t, store)

	store.failSet = true
	id, err := j.Track(models.ActivityKindWrap, "Wrap tokens", "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, 1, j.Count())
}

func TestClearRemovesEverything(t *testing.T) {
	store := newMemoryStore()
	j := newTestJournal(t, store)

	_, err := j.Track(models.ActivityKindWrap, "Wrap tokens", "", nil)
	require.NoError(t, err)

	require.NoError(t, j.Clear())
	assert.Zero(t, j.Count())

	_, ok, err := store.Get(storageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListFilters(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	wrapID, err := j.Track(models.ActivityKindWrap, "Wrap tokens", "", nil)
	require.NoError(t, err)
	splitID, err := j.Track(models.ActivityKindSplit, "Split tokens", "", nil)
	require.NoError(t, err)
	j.RecordSuccess(splitID, "0xabc", 1, nil)

	wraps := j.ListByKind(models.ActivityKindWrap)
	require.Len(t, wraps, 1)
	assert.Equal(t, wrapID, wraps[0].ID)

	pending := j.ListByStatus(models.ActivityStatusPending)
	require.Len(t, pending, 1)
	assert.Equal(t, wrapID, pending[0].ID)

	succeeded := j.ListByStatus(models.ActivityStatusSuccess)
	require.Len(t, succeeded, 1)
	assert.Equal(t, splitID, succeeded[0].ID)

	assert.Len(t, j.ListRecent(), 2)
}

func TestSeedSamplesOnlyWhenEmpty(t *testing.T) {
	store := newMemoryStore()
	cfg := testConfig()
	cfg.SeedSamples = true

	j, err := NewJournal(store, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, j.Count())

	// Real entries survive a reload with seeding still enabled.
	id, err := j.Track(models.ActivityKindStake, "Stake tokens", "", nil)
	require.NoError(t, err)

	reloaded, err := NewJournal(store, cfg)
	require.NoError(t, err)
	entries := reloaded.List()
	require.Equal(t, 3, len(entries))
	assert.Equal(t, id, entries[0].ID)
}

func TestListReturnsClones(t *testing.T) {
	j := newTestJournal(t, newMemoryStore())

	id, err := j.Track(models.ActivityKindWrap, "Wrap tokens", "", nil)
	require.NoError(t, err)

	entries := j.List()
	entries[0].Title = "mutated"
	entries[0].Status = models.ActivityStatusFailed

	fresh := j.List()
	assert.Equal(t, "Wrap tokens", fresh[0].Title)
	assert.Equal(t, models.ActivityStatusPending, fresh[0].Status)
	assert.Equal(t, id, fresh[0].ID)
}
