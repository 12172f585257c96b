// File: internal/journal/postgresstore.go
package journal

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// PostgresStore implements Store using a key-value table in PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	config *config.JournalConfig
	logger *logrus.Logger
}

// NewPostgresStore creates a new PostgreSQL store instance
func NewPostgresStore(cfg *config.JournalConfig) *PostgresStore {
	return &PostgresStore{
		config: cfg,
		logger: utils.GetLogger(),
	}
}

// Connect establishes the database connection and creates the kv table
func (s *PostgresStore) Connect() error {
	db, err := sql.Open("postgres", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to ping PostgreSQL database", err.Error())
	}

	schema := `
		CREATE TABLE IF NOT EXISTS journal_kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create journal table", err.Error())
	}

	s.db = db
	s.logger.Info("PostgreSQL journal store connected")

	return nil
}

// Get reads the value for key
func (s *PostgresStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM journal_kv WHERE key = $1", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read journal value", err.Error())
	}
	return value, true, nil
}

// Set writes the value for key
func (s *PostgresStore) Set(key, value string) error {
	query := `
		INSERT INTO journal_kv (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to write journal value", err.Error())
	}
	return nil
}

// Remove deletes the value for key
func (s *PostgresStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM journal_kv WHERE key = $1", key); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to remove journal value", err.Error())
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("PostgreSQL journal store closed")
		return err
	}
	return nil
}
