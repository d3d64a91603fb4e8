package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"errors"
	"math/big"

	"golang.org/x/crypto/curve25519"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

// Edwards-to-Montgomery conversion so the long-term Ed25519 identity
// keys can take part in X25519 agreements. A DH computed between two
// converted key pairs agrees regardless of which side converted which
// half. See https://blog.filippo.io/using-ed25519-keys-for-encryption/.

var curve25519P, _ = new(big.Int).SetString(
	"57896044618658097711785492504343953926634992332820282019728792003956564819949", 10)

// SeedToX25519 converts an Ed25519 seed to the matching X25519 private
// key: the first 32 bytes of SHA-512(seed). curve25519.X25519 clamps
// the scalar, so no explicit clamping is needed here.
func SeedToX25519(seed domain.Ed25519Seed) (priv domain.X25519Private) {
	h := sha512.Sum512(seed.Slice())
	copy(priv[:], h[:curve25519.ScalarSize])
	return
}

// Ed25519PublicToX25519 converts an Ed25519 public key to the matching
// X25519 public key through the bilinear map u = (1 + y) / (1 - y).
func Ed25519PublicToX25519(pk domain.Ed25519Public) (domain.X25519Public, error) {
	// The Ed25519 public key is a little endian y-coordinate with the
	// most significant bit carrying the sign of x.
	bigEndianY := make([]byte, ed25519.PublicKeySize)
	for i, b := range pk.Slice() {
		bigEndianY[ed25519.PublicKeySize-i-1] = b
	}
	bigEndianY[0] &= 0b0111_1111

	y := new(big.Int).SetBytes(bigEndianY)
	denom := big.NewInt(1)
	denom.Sub(denom, y)
	denom.Mod(denom, curve25519P)
	if denom.ModInverse(denom, curve25519P) == nil {
		return domain.X25519Public{}, errors.New("ed25519 public key maps to no Montgomery point")
	}
	u := y.Mul(y.Add(y, big.NewInt(1)), denom)
	u.Mod(u, curve25519P)

	var out domain.X25519Public
	uBytes := u.Bytes()
	for i, b := range uBytes {
		out[len(uBytes)-i-1] = b
	}
	return out, nil
}
