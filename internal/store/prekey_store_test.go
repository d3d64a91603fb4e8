package store_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/store"
)

func makeSeed(t *testing.T) domain.Ed25519Seed {
	t.Helper()
	var seed domain.Ed25519Seed
	_, err := rand.Read(seed[:])
	require.NoError(t, err)
	return seed
}

func TestGeneratePrekeys(t *testing.T) {
	rec, err := store.GeneratePrekeys()
	require.NoError(t, err)

	require.Len(t, rec.OneTimePrekeys, store.InitialOPKCount)
	require.NotZero(t, rec.SignedPrekey.ID)
	require.Len(t, rec.SignedPrekey.PublicKey, 32)
	require.Len(t, rec.SignedPrekey.PrivateKey, 32)

	seen := map[uint64]bool{rec.SignedPrekey.ID: true}
	last := rec.SignedPrekey.ID
	for _, opk := range rec.OneTimePrekeys {
		require.False(t, seen[opk.ID], "id %d issued twice", opk.ID)
		require.Greater(t, opk.ID, last, "ids must be monotone")
		seen[opk.ID] = true
		last = opk.ID
	}
	require.Equal(t, last+1, rec.NextID)
}

func TestGenerateAdditionalOPKs(t *testing.T) {
	rec, err := store.GeneratePrekeys()
	require.NoError(t, err)
	before := rec.NextID

	updated, publics, err := store.GenerateAdditionalOPKs(rec, 5)
	require.NoError(t, err)
	require.Len(t, publics, 5)
	require.Len(t, updated.OneTimePrekeys, store.InitialOPKCount+5)
	// Fresh ids continue where the allocator left off.
	require.Equal(t, before, publics[0].ID)
	// The input record is untouched.
	require.Len(t, rec.OneTimePrekeys, store.InitialOPKCount)
}

func TestConsumeOPKIsOneShot(t *testing.T) {
	rec, err := store.GeneratePrekeys()
	require.NoError(t, err)
	target := rec.OneTimePrekeys[3].ID

	priv, updated, ok := store.ConsumeOPK(rec, target)
	require.True(t, ok)
	require.NotEqual(t, domain.X25519Private{}, priv)
	require.Len(t, updated.OneTimePrekeys, store.InitialOPKCount-1)

	_, _, ok = store.ConsumeOPK(updated, target)
	require.False(t, ok, "consumed OPK must never be returned twice")

	// Consumption on the original value does not affect the input copy.
	require.Len(t, rec.OneTimePrekeys, store.InitialOPKCount)
}

func TestRotateSignedPrekey(t *testing.T) {
	rec, err := store.GeneratePrekeys()
	require.NoError(t, err)

	rotated, err := store.RotateSignedPrekey(rec)
	require.NoError(t, err)
	require.NotEqual(t, rec.SignedPrekey.ID, rotated.SignedPrekey.ID)
	require.Greater(t, rotated.SignedPrekey.ID, rec.SignedPrekey.ID)
	require.NotEqual(t, rec.SignedPrekey.PublicKey, rotated.SignedPrekey.PublicKey)
	require.LessOrEqual(t, rotated.SignedPrekeyAge(time.Now()), time.Minute)
}

func TestSignSignedPrekey(t *testing.T) {
	seed := makeSeed(t)
	rec, err := store.GeneratePrekeys()
	require.NoError(t, err)

	spk := rec.SignSignedPrekey(seed)
	require.Equal(t, rec.SignedPrekey.ID, spk.ID)
	require.True(t, crypto.Verify(crypto.PublicFromSeed(seed), spk.PublicKey.Slice(), spk.Signature))
}

func TestPrekeyStorePersistence(t *testing.T) {
	ctx := context.Background()
	ps := store.NewPrekeyStore(store.NewMemoryStore())

	_, ok, err := ps.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	rec, err := store.GeneratePrekeys()
	require.NoError(t, err)
	require.NoError(t, ps.Save(ctx, rec))

	got, ok, err := ps.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, got)

	require.NoError(t, ps.Delete(ctx))
	_, ok, err = ps.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
