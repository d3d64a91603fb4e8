package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

const identityFilename = "identity.enc"

// IdentityStore holds the account's Ed25519 seed encrypted at rest.
// It belongs to the host, not the core: the core receives the seed by
// value on each call and never reads this store itself.
type IdentityStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityStore returns an IdentityStore rooted at dir.
func NewIdentityStore(dir string) *IdentityStore {
	return &IdentityStore{dir: dir}
}

// Save seals the seed with the passphrase.
func (s *IdentityStore) Save(passphrase string, seed domain.Ed25519Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := sealBlob(passphrase, seed.Slice())
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, identityFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load opens the seed. A missing file reports ok=false.
func (s *IdentityStore) Load(passphrase string) (domain.Ed25519Seed, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, identityFilename))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Ed25519Seed{}, false, nil
	}
	if err != nil {
		return domain.Ed25519Seed{}, false, err
	}
	pt, err := openBlob(passphrase, raw)
	if err != nil {
		return domain.Ed25519Seed{}, false, err
	}
	if len(pt) != 32 {
		return domain.Ed25519Seed{}, false, errWrongPassphrase
	}
	var seed domain.Ed25519Seed
	copy(seed[:], pt)
	return seed, true, nil
}
