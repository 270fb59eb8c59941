// Package settings persists the device settings.
//
// The settings are a single flag today: whether blind signing of raw hashes
// is allowed. FileStore keeps them Borsh encoded in a small file so that they
// survive restarts, the way the device keeps them in flash.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/near/borsh-go"
)

// Settings is the persisted device configuration.
type Settings struct {
	BlindSigning bool
}

// Store loads and saves settings.
type Store interface {
	Load() (Settings, error)
	Save(s Settings) error
}

// DefaultPath returns ~/.config/visualsign-kadena/settings.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "visualsign-kadena", "settings"), nil
}

// FileStore keeps settings in a Borsh encoded file. A missing file reads as
// the zero Settings.
type FileStore struct {
	Path string
}

// Load reads the settings file.
func (f *FileStore) Load() (Settings, error) {
	var s Settings
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}
	if len(data) == 0 {
		return s, errors.New("empty settings file")
	}
	if err := borsh.Deserialize(&s, data); err != nil {
		return s, fmt.Errorf("failed to deserialize settings: %w", err)
	}
	return s, nil
}

// Save replaces the settings file.
func (f *FileStore) Save(s Settings) error {
	data, err := borsh.Serialize(s)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in memory.
type MemoryStore struct {
	mu sync.Mutex
	s  Settings
}

// NewMemoryStore returns a store holding s.
func NewMemoryStore(s Settings) *MemoryStore {
	return &MemoryStore{s: s}
}

// Load implements Store.
func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

// Save implements Store.
func (m *MemoryStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}
