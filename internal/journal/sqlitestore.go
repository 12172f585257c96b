// File: internal/journal/sqlitestore.go
package journal

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// SQLiteStore implements Store using a single key-value table in SQLite
type SQLiteStore struct {
	db     *sql.DB
	config *config.JournalConfig
	logger *logrus.Logger
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg *config.JournalConfig) *SQLiteStore {
	return &SQLiteStore{
		config: cfg,
		logger: utils.GetLogger(),
	}
}

// Connect establishes the database connection and creates the kv table
func (s *SQLiteStore) Connect() error {
	// Ensure directory exists
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	schema := `
		CREATE TABLE IF NOT EXISTS journal_kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create journal table", err.Error())
	}

	s.db = db
	s.logger.Info("SQLite journal store connected", "path", s.config.ConnectionString)

	return nil
}

// Get reads the value for key
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM journal_kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read journal value", err.Error())
	}
	return value, true, nil
}

// Set writes the value for key
func (s *SQLiteStore) Set(key, value string) error {
	query := `
		INSERT INTO journal_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to write journal value", err.Error())
	}
	return nil
}

// Remove deletes the value for key
func (s *SQLiteStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM journal_kv WHERE key = ?", key); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to remove journal value", err.Error())
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("SQLite journal store closed")
		return err
	}
	return nil
}
