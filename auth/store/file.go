package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore persists the credential to a JSON file so a terminal session
// survives process restarts. Generation stays process-local.
type FileStore struct {
	*memoryStore
	path   string
	logger *slog.Logger
}

type fileSnapshot struct {
	Credential *Credential `json:"credential,omitempty"`
}

// NewFileStore creates a Store that persists the credential at path.
// An unreadable or missing file starts the store empty.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	ret := &FileStore{memoryStore: &memoryStore{}, path: path, logger: logger}
	if credential, err := ret.load(); err != nil {
		logger.Warn("ignoring unreadable credential file", "path", path, "error", err)
	} else if credential != nil {
		ret.credential = *credential
	}
	ret.onChange = func(credential Credential) {
		if err := ret.save(credential); err != nil {
			logger.Warn("failed to persist credential", "path", path, "error", err)
		}
	}
	return ret
}

// Path returns the backing file path
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) save(credential Credential) error {
	if credential.Token == nil {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileSnapshot{Credential: &credential}, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) load() (*Credential, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap.Credential, nil
}

var _ Store = (*FileStore)(nil)
