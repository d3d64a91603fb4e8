package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
)

const prekeysKey = "signal:prekeys"

const (
	// InitialOPKCount is the size of the first one-time prekey batch.
	InitialOPKCount = 50
	// SignedPrekeyMaxAge is the rotation deadline for the signed prekey.
	SignedPrekeyMaxAge = 7 * 24 * time.Hour
)

// SignedPrekeyRecord is the locally held signed prekey pair.
type SignedPrekeyRecord struct {
	ID         uint64 `json:"id"`
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
	CreatedAt  int64  `json:"created_at"` // unix milliseconds
}

// OneTimePrekeyRecord is a locally held one-time prekey pair.
type OneTimePrekeyRecord struct {
	ID         uint64 `json:"id"`
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

// PrekeyRecord is the whole local prekey store. Operations on it are
// value-semantics: they return an updated record which the caller
// persists, so a failed persist leaves the stored record untouched.
// The id allocator is shared between the signed prekey and the OPKs and
// only ever moves forward, so no id is issued twice in the record's
// lifetime.
type PrekeyRecord struct {
	SignedPrekey   SignedPrekeyRecord    `json:"signed_prekey"`
	OneTimePrekeys []OneTimePrekeyRecord `json:"one_time_prekeys"`
	NextID         uint64                `json:"next_opk_id"`
}

// GeneratePrekeys builds a fresh store: one signed prekey and the
// initial one-time batch. The allocator is seeded from the wall clock
// in milliseconds so ids also differ across account resets.
func GeneratePrekeys() (PrekeyRecord, error) {
	rec := PrekeyRecord{NextID: uint64(time.Now().UnixMilli())}

	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		return PrekeyRecord{}, err
	}
	rec.SignedPrekey = SignedPrekeyRecord{
		ID:         rec.allocateID(),
		PublicKey:  spkPub.Slice(),
		PrivateKey: spkPriv.Slice(),
		CreatedAt:  time.Now().UnixMilli(),
	}

	rec, _, err = GenerateAdditionalOPKs(rec, InitialOPKCount)
	if err != nil {
		return PrekeyRecord{}, err
	}
	return rec, nil
}

// GenerateAdditionalOPKs appends count one-time prekeys and returns the
// public halves for upload.
func GenerateAdditionalOPKs(rec PrekeyRecord, count int) (PrekeyRecord, []domain.OneTimePrekeyPublic, error) {
	rec = rec.clone()
	publics := make([]domain.OneTimePrekeyPublic, 0, count)
	for i := 0; i < count; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return PrekeyRecord{}, nil, err
		}
		id := rec.allocateID()
		rec.OneTimePrekeys = append(rec.OneTimePrekeys, OneTimePrekeyRecord{
			ID:         id,
			PublicKey:  pub.Slice(),
			PrivateKey: priv.Slice(),
		})
		publics = append(publics, domain.OneTimePrekeyPublic{ID: id, PublicKey: pub})
	}
	return rec, publics, nil
}

// ConsumeOPK removes the one-time prekey with the given id and returns
// its private key. Consumption is destructive: a second call with the
// same id reports no key.
func ConsumeOPK(rec PrekeyRecord, id uint64) (domain.X25519Private, PrekeyRecord, bool) {
	for i, opk := range rec.OneTimePrekeys {
		if opk.ID != id {
			continue
		}
		var priv domain.X25519Private
		copy(priv[:], opk.PrivateKey)
		rec = rec.clone()
		rec.OneTimePrekeys = append(rec.OneTimePrekeys[:i:i], rec.OneTimePrekeys[i+1:]...)
		return priv, rec, true
	}
	return domain.X25519Private{}, rec, false
}

// RotateSignedPrekey replaces the signed prekey with a fresh pair under
// a new id from the shared allocator.
func RotateSignedPrekey(rec PrekeyRecord) (PrekeyRecord, error) {
	rec = rec.clone()
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return PrekeyRecord{}, err
	}
	rec.SignedPrekey = SignedPrekeyRecord{
		ID:         rec.allocateID(),
		PublicKey:  pub.Slice(),
		PrivateKey: priv.Slice(),
		CreatedAt:  time.Now().UnixMilli(),
	}
	return rec, nil
}

// SignedPrekeyPair returns the X25519 view of the signed prekey.
func (r PrekeyRecord) SignedPrekeyPair() (priv domain.X25519Private, pub domain.X25519Public) {
	copy(priv[:], r.SignedPrekey.PrivateKey)
	copy(pub[:], r.SignedPrekey.PublicKey)
	return
}

// SignedPrekeyAge reports how old the current signed prekey is.
func (r PrekeyRecord) SignedPrekeyAge(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.SignedPrekey.CreatedAt))
}

// SignSignedPrekey signs the signed prekey's public bytes with the
// identity key, producing the signature peers verify in the bundle.
func (r PrekeyRecord) SignSignedPrekey(seed domain.Ed25519Seed) domain.SignedPrekeyPublic {
	var pub domain.X25519Public
	copy(pub[:], r.SignedPrekey.PublicKey)
	return domain.SignedPrekeyPublic{
		ID:        r.SignedPrekey.ID,
		PublicKey: pub,
		Signature: crypto.SignWithSeed(seed, r.SignedPrekey.PublicKey),
	}
}

func (r *PrekeyRecord) allocateID() uint64 {
	id := r.NextID
	r.NextID++
	return id
}

func (r PrekeyRecord) clone() PrekeyRecord {
	out := r
	out.OneTimePrekeys = append([]OneTimePrekeyRecord(nil), r.OneTimePrekeys...)
	return out
}

// PrekeyStore persists the PrekeyRecord through a SecureStorage.
type PrekeyStore struct {
	storage domain.SecureStorage
}

// NewPrekeyStore returns a PrekeyStore backed by storage.
func NewPrekeyStore(storage domain.SecureStorage) *PrekeyStore {
	return &PrekeyStore{storage: storage}
}

// Load reads the record, reporting whether one exists.
func (s *PrekeyStore) Load(ctx context.Context) (PrekeyRecord, bool, error) {
	raw, ok, err := s.storage.Get(ctx, prekeysKey)
	if err != nil || !ok {
		return PrekeyRecord{}, false, err
	}
	var rec PrekeyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return PrekeyRecord{}, false, fmt.Errorf("decode prekey store: %w", err)
	}
	return rec, true, nil
}

// Save writes the record.
func (s *PrekeyStore) Save(ctx context.Context, rec PrekeyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode prekey store: %w", err)
	}
	return s.storage.Set(ctx, prekeysKey, string(raw))
}

// Delete removes the record (account deletion).
func (s *PrekeyStore) Delete(ctx context.Context) error {
	return s.storage.Delete(ctx, prekeysKey)
}
