// Package ratchet implements the Double Ratchet message layer on top
// of an X3DH-derived shared secret.
//
// State is a value: Encrypt and Decrypt return a new State and never
// mutate their input, so a failed operation leaves the caller holding
// the last good state and a partially-advanced state never escapes.
// Callers persist the returned state; crash recovery re-derives from
// the last persisted one.
//
// Message keys are AES-256-GCM keys. The associated data for every seal
// and open is the canonical JSON serialization of the message header,
// which binds the ratchet position (and, on the first message, the X3DH
// bootstrap material) to the ciphertext.
package ratchet
