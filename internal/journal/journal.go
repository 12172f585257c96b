// File: internal/journal/journal.go
package journal

import (
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/internal/models"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// storageKey is the single key the journal mirror lives under in the store.
const storageKey = "activity_logs"

// Journal owns the append-only activity history: an in-memory list, newest
// first, mirrored into the injected store after every mutation. Entries move
// pending -> success/failed exactly once and are never individually deleted.
type Journal struct {
	mu         sync.Mutex
	entries    []*models.ActivityEntry
	store      Store
	maxEntries int
	logger     *logrus.Logger
	metrics    *metrics.PrometheusMetrics
}

// entryRecord is the persisted form of an entry. The store only holds text,
// so gas used travels as a base-10 string.
type entryRecord struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Kind        models.ActivityKind    `json:"kind"`
	Status      models.ActivityStatus  `json:"status"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	TxHash      string                 `json:"tx_hash,omitempty"`
	BlockNumber uint64                 `json:"block_number,omitempty"`
	GasUsed     string                 `json:"gas_used,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewJournal creates a journal backed by store and loads the persisted
// mirror. A corrupt mirror is discarded and cleared rather than failing
// initialization.
func NewJournal(store Store, cfg *config.JournalConfig) (*Journal, error) {
	j := &Journal{
		store:      store,
		maxEntries: cfg.MaxEntries,
		logger:     utils.GetLogger(),
	}
	if j.maxEntries <= 0 {
		j.maxEntries = 100
	}

	if err := j.load(); err != nil {
		return nil, err
	}

	if cfg.SeedSamples && len(j.entries) == 0 {
		j.seedSamples()
	}

	return j, nil
}

// SetMetrics attaches Prometheus recorders to the journal.
func (j *Journal) SetMetrics(pm *metrics.PrometheusMetrics) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.metrics = pm
	if pm != nil {
		pm.UpdateJournalSize(len(j.entries))
	}
}

// load reads the persisted mirror into memory
func (j *Journal) load() error {
	raw, ok, err := j.store.Get(storageKey)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}

	var records []entryRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		j.logger.Warn("Discarding corrupt journal mirror", "error", err)
		if err := j.store.Remove(storageKey); err != nil {
			j.logger.Warn("Failed to clear corrupt journal mirror", "error", err)
		}
		return nil
	}

	j.entries = make([]*models.ActivityEntry, 0, len(records))
	for _, rec := range records {
		entry, err := recordToEntry(rec)
		if err != nil {
			j.logger.Warn("Skipping unreadable journal record", "id", rec.ID, "error", err)
			continue
		}
		j.entries = append(j.entries, entry)
	}

	j.logger.Info("Activity journal loaded", "entries", len(j.entries))
	return nil
}

func recordToEntry(rec entryRecord) (*models.ActivityEntry, error) {
	entry := &models.ActivityEntry{
		ID:          rec.ID,
		Timestamp:   rec.Timestamp,
		Kind:        rec.Kind,
		Status:      rec.Status,
		Title:       rec.Title,
		Description: rec.Description,
		TxHash:      rec.TxHash,
		BlockNumber: rec.BlockNumber,
		Error:       rec.Error,
		Metadata:    rec.Metadata,
	}
	if rec.GasUsed != "" {
		gas, ok := new(big.Int).SetString(rec.GasUsed, 10)
		if !ok {
			return nil, utils.NewAppError(utils.ErrCodeValidation, "Malformed gas value", rec.GasUsed)
		}
		entry.GasUsed = gas
	}
	return entry, nil
}

func entryToRecord(entry *models.ActivityEntry) entryRecord {
	rec := entryRecord{
		ID:          entry.ID,
		Timestamp:   entry.Timestamp,
		Kind:        entry.Kind,
		Status:      entry.Status,
		Title:       entry.Title,
		Description: entry.Description,
		TxHash:      entry.TxHash,
		BlockNumber: entry.BlockNumber,
		Error:       entry.Error,
		Metadata:    entry.Metadata,
	}
	if entry.GasUsed != nil {
		rec.GasUsed = entry.GasUsed.String()
	}
	return rec
}

// persist mirrors the newest maxEntries entries into the store. The mirror
// is best-effort: a store failure is logged, the in-memory list stays
// authoritative.
func (j *Journal) persist() {
	limit := len(j.entries)
	if limit > j.maxEntries {
		limit = j.maxEntries
		if j.metrics != nil {
			j.metrics.RecordJournalTruncation()
		}
	}
	if j.metrics != nil {
		j.metrics.UpdateJournalSize(len(j.entries))
	}

	records := make([]entryRecord, 0, limit)
	for _, entry := range j.entries[:limit] {
		records = append(records, entryToRecord(entry))
	}

	raw, err := json.Marshal(records)
	if err != nil {
		j.logger.Error("Failed to serialize journal mirror", "error", err)
		return
	}

	err = j.store.Set(storageKey, string(raw))
	if j.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		j.metrics.RecordStoreOperation("set", status)
	}
	if err != nil {
		j.logger.Warn("Failed to persist journal mirror", "error", err)
	}
}

// Track creates a pending entry and returns its id immediately.
func (j *Journal) Track(kind models.ActivityKind, title, description string, metadata map[string]interface{}) (string, error) {
	id, err := utils.GenerateEntryID()
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeInternal, "Failed to generate entry id", err.Error())
	}

	entry := &models.ActivityEntry{
		ID:          id,
		Timestamp:   time.Now(),
		Kind:        kind,
		Status:      models.ActivityStatusPending,
		Title:       title,
		Description: description,
		Metadata:    metadata,
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append([]*models.ActivityEntry{entry}, j.entries...)
	if j.metrics != nil {
		j.metrics.RecordJournalEntry(string(kind), string(models.ActivityStatusPending))
	}
	j.persist()

	return id, nil
}

// RecordSuccess transitions a pending entry to success, attaching the
// transaction hash and, when known, block number and gas used. Terminal
// entries and unknown ids are left untouched.
func (j *Journal) RecordSuccess(entryID, txHash string, blockNumber uint64, gasUsed *big.Int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := j.find(entryID)
	if entry == nil {
		j.logger.Warn("RecordSuccess for unknown journal entry", "id", entryID)
		return
	}
	if entry.Status.Terminal() {
		j.logger.Warn("RecordSuccess for terminal journal entry ignored", "id", entryID, "status", entry.Status)
		return
	}

	entry.Status = models.ActivityStatusSuccess
	entry.TxHash = txHash
	entry.BlockNumber = blockNumber
	if gasUsed != nil {
		entry.GasUsed = new(big.Int).Set(gasUsed)
	}
	if j.metrics != nil {
		j.metrics.RecordJournalEntry(string(entry.Kind), string(models.ActivityStatusSuccess))
	}
	j.persist()
}

// RecordFailure transitions a pending entry to failed with the classified
// error message.
func (j *Journal) RecordFailure(entryID, errorMessage string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := j.find(entryID)
	if entry == nil {
		j.logger.Warn("RecordFailure for unknown journal entry", "id", entryID)
		return
	}
	if entry.Status.Terminal() {
		j.logger.Warn("RecordFailure for terminal journal entry ignored", "id", entryID, "status", entry.Status)
		return
	}

	entry.Status = models.ActivityStatusFailed
	entry.Error = errorMessage
	if j.metrics != nil {
		j.metrics.RecordJournalEntry(string(entry.Kind), string(models.ActivityStatusFailed))
	}
	j.persist()
}

// find locates an entry by id. Caller holds the lock.
func (j *Journal) find(id string) *models.ActivityEntry {
	for _, entry := range j.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns all entries, newest first.
func (j *Journal) List() []*models.ActivityEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*models.ActivityEntry, 0, len(j.entries))
	for _, entry := range j.entries {
		out = append(out, entry.Clone())
	}
	return out
}

// ListByKind returns entries of the given kind, newest first.
func (j *Journal) ListByKind(kind models.ActivityKind) []*models.ActivityEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*models.ActivityEntry
	for _, entry := range j.entries {
		if entry.Kind == kind {
			out = append(out, entry.Clone())
		}
	}
	return out
}

// ListByStatus returns entries with the given status, newest first.
func (j *Journal) ListByStatus(status models.ActivityStatus) []*models.ActivityEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*models.ActivityEntry
	for _, entry := range j.entries {
		if entry.Status == status {
			out = append(out, entry.Clone())
		}
	}
	return out
}

// ListRecent returns entries created within the last 24 hours, newest first.
func (j *Journal) ListRecent() []*models.ActivityEntry {
	cutoff := time.Now().Add(-24 * time.Hour)

	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*models.ActivityEntry
	for _, entry := range j.entries {
		if entry.Timestamp.After(cutoff) {
			out = append(out, entry.Clone())
		}
	}
	return out
}

// Count returns the number of in-memory entries.
func (j *Journal) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Clear empties the journal and its persisted mirror. The only supported
// deletion: individual entries are never removed.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = nil
	err := j.store.Remove(storageKey)
	if j.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		j.metrics.RecordStoreOperation("remove", status)
		j.metrics.UpdateJournalSize(0)
	}
	if err != nil {
		return err
	}
	j.logger.Info("Activity journal cleared")
	return nil
}

// seedSamples populates illustrative entries for first-run UX. Only called
// when the loaded journal is empty, so genuine data is never overwritten.
func (j *Journal) seedSamples() {
	now := time.Now()
	j.entries = []*models.ActivityEntry{
		{
			ID:          "sample-1",
			Timestamp:   now.Add(-30 * time.Minute),
			Kind:        models.ActivityKindWrap,
			Status:      models.ActivityStatusSuccess,
			Title:       "Wrap 100.0000 stAVAX",
			Description: "Successfully wrapped 100 stAVAX to SY tokens",
			TxHash:      "0x1234000000000000000000000000000000000000000000000000000000005678",
			BlockNumber: 12345678,
			GasUsed:     big.NewInt(150000),
			Metadata:    map[string]interface{}{"token": "stAVAX", "amount": "100.0000"},
		},
		{
			ID:          "sample-2",
			Timestamp:   now.Add(-2 * time.Hour),
			Kind:        models.ActivityKindSplit,
			Status:      models.ActivityStatusSuccess,
			Title:       "Split 50.0000 SY",
			Description: "Successfully split 50 SY into PT and YT tokens",
			TxHash:      "0x8765000000000000000000000000000000000000000000000000000000004321",
			BlockNumber: 12345677,
			GasUsed:     big.NewInt(200000),
			Metadata:    map[string]interface{}{"amount": "50.0000", "ptAmount": "50.0000", "ytAmount": "50.0000"},
		},
	}
	j.persist()
	j.logger.Info("Seeded sample journal entries", "count", len(j.entries))
}
