// Package crypto exposes the curve primitives used by the encryption
// core.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519,
//     DH)
//   - Ed25519 signing and verification over 32-byte seeds (SignWithSeed,
//     Verify, PublicFromSeed)
//   - Edwards-to-Montgomery conversion of Ed25519 keys so identity keys
//     can participate in X25519 agreements (SeedToX25519,
//     Ed25519PublicToX25519)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display (Fingerprint)
//
// Keys are passed as the fixed-size array types from internal/domain;
// Fingerprint and Wipe take plain byte slices.
// Callers should treat returned secrets as sensitive and rely on Wipe
// when practical to reduce their lifetime in memory.
package crypto
