package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/protocol/ratchet"
)

const sessionKeyPrefix = "signal:session:"

// SessionStore persists per-peer ratchet sessions through a
// SecureStorage. Both peers derive the same record key independently,
// so the key is built from the sorted pair of identity keys.
type SessionStore struct {
	storage domain.SecureStorage
}

// NewSessionStore returns a SessionStore backed by storage.
func NewSessionStore(storage domain.SecureStorage) *SessionStore {
	return &SessionStore{storage: storage}
}

// SessionKey returns "signal:session:<minHex>:<maxHex>" for the pair.
func SessionKey(a, b domain.Ed25519Public) string {
	hexes := []string{a.Hex(), b.Hex()}
	sort.Strings(hexes)
	return sessionKeyPrefix + hexes[0] + ":" + hexes[1]
}

// Load reads the session for the pair, reporting whether one exists.
func (s *SessionStore) Load(ctx context.Context, me, peer domain.Ed25519Public) (ratchet.State, bool, error) {
	raw, ok, err := s.storage.Get(ctx, SessionKey(me, peer))
	if err != nil || !ok {
		return ratchet.State{}, false, err
	}
	var st ratchet.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return ratchet.State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return st, true, nil
}

// Save writes the session for the pair.
func (s *SessionStore) Save(ctx context.Context, me, peer domain.Ed25519Public, st ratchet.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.storage.Set(ctx, SessionKey(me, peer), string(raw))
}

// Delete removes the session for the pair.
func (s *SessionStore) Delete(ctx context.Context, me, peer domain.Ed25519Public) error {
	return s.storage.Delete(ctx, SessionKey(me, peer))
}
