package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

// GenerateSeed returns a fresh Ed25519 seed and its public key.
func GenerateSeed() (seed domain.Ed25519Seed, pub domain.Ed25519Public, err error) {
	if _, err = rand.Read(seed[:]); err != nil {
		return
	}
	return seed, PublicFromSeed(seed), nil
}

// PublicFromSeed derives the Ed25519 public key for a seed.
func PublicFromSeed(seed domain.Ed25519Seed) (pub domain.Ed25519Public) {
	sk := ed25519.NewKeyFromSeed(seed.Slice())
	copy(pub[:], sk.Public().(ed25519.PublicKey))
	return
}

// SignWithSeed signs msg with the private key expanded from seed.
func SignWithSeed(seed domain.Ed25519Seed, msg []byte) []byte {
	return ed25519.Sign(ed25519.NewKeyFromSeed(seed.Slice()), msg)
}

// Verify verifies sig over msg with pub.
func Verify(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub.Slice()), msg, sig)
}
