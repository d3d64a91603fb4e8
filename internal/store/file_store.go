package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

const storageFilename = "storage.enc"

// FileStore is a device-encrypted SecureStorage: one passphrase-sealed
// file holding a string-to-string map. It is the fallback for hosts
// without an OS keychain.
type FileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir, passphrase string) *FileStore {
	return &FileStore{dir: dir, passphrase: passphrase}
}

// Get reads a value. A missing file behaves as an empty store.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set writes a value through a temp file then rename.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	m[key] = value
	return s.write(m)
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.write(m)
}

func (s *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, storageFilename))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	pt, err := openBlob(s.passphrase, raw)
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(pt, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *FileStore) write(m map[string]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	sealed, err := sealBlob(s.passphrase, raw)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, storageFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Compile-time assertion that FileStore implements domain.SecureStorage.
var _ domain.SecureStorage = (*FileStore)(nil)
