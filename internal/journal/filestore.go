// File: internal/journal/filestore.go
package journal

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/pkg/utils"
)

// FileStore persists each key as a JSON text file under a base directory.
type FileStore struct {
	dir    string
	logger *logrus.Logger
}

// NewFileStore creates a new file-backed store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: utils.GetLogger(),
	}
}

// Connect ensures the base directory exists
func (fs *FileStore) Connect() error {
	if err := os.MkdirAll(fs.dir, 0755); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create store directory", err.Error())
	}
	fs.logger.Info("File store connected", "dir", fs.dir)
	return nil
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, key+".json")
}

// Get reads the value for key; the second return is false when absent
func (fs *FileStore) Get(key string) (string, bool, error) {
	raw, err := os.ReadFile(fs.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read store file", err.Error())
	}
	return string(raw), true, nil
}

// Set writes the value for key atomically via a temp file rename
func (fs *FileStore) Set(key, value string) error {
	target := fs.path(key)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to write store file", err.Error())
	}
	if err := os.Rename(tmp, target); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to replace store file", err.Error())
	}
	return nil
}

// Remove deletes the value for key; missing keys are not an error
func (fs *FileStore) Remove(key string) error {
	if err := os.Remove(fs.path(key)); err != nil && !os.IsNotExist(err) {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to remove store file", err.Error())
	}
	return nil
}

// Close is a no-op for the file store
func (fs *FileStore) Close() error {
	return nil
}
