package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/tigrisdata/cli/internal/constants"
)

// Store reads and writes the whole state.
type Store interface {
	Read() (*Config, error)
	Write(cfg *Config) error
}

// DefaultPath returns ~/.tigris/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.StateDirName, constants.StateFileName), nil
}

// FileStore keeps the state in a JSON file readable only by its owner.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for path, or for DefaultPath when path is
// empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileStore{Path: path}, nil
}

// Read returns an empty Config when the file does not exist. Comments and
// trailing commas left by hand edits are tolerated.
func (s *FileStore) Read() (*Config, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return &Config{}, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return &Config{}, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}
	return &cfg, nil
}

// Write replaces the file through a temporary sibling and a rename.
func (s *FileStore) Write(cfg *Config) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	// CreateTemp already uses 0600; keep it explicit for the renamed file.
	_ = os.Chmod(tmp.Name(), 0600)

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests and one-off sessions.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *MemoryStore) Read() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg Config
	if len(s.data) == 0 {
		return &cfg, nil
	}
	if err := json.Unmarshal(s.data, &cfg); err != nil {
		return &Config{}, err
	}
	return &cfg, nil
}

func (s *MemoryStore) Write(cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}
