// Package domain defines the types, wire formats, error kinds and
// collaborator interfaces shared by the Paracord end-to-end encryption
// core.
//
// Contents
//
//   - Fixed-size key types (X25519Public, X25519Private, Ed25519Public,
//     Ed25519Seed)
//   - The versioned message payload and the ratchet header with its
//     canonical JSON form
//   - Prekey bundle types exchanged through the keys API
//   - The closed set of protocol errors
//   - Interfaces for the secure storage and keys API collaborators
//
// All functions that accept an Ed25519Seed receive it by value for the
// duration of one call; the core never persists or caches the identity
// secret.
package domain
