// Package x3dh implements the Extended Triple Diffie–Hellman key
// agreement between an initiator and a responder.
//
// Identity keys are Ed25519 and are mapped to their X25519 equivalents
// for the DH computations, so the same long-term key both signs prekeys
// and takes part in the agreement. The three DH outputs (four when a
// one-time prekey is used) are concatenated in a fixed order and run through a single HKDF expansion; both sides
// derive the identical 32-byte shared secret.
package x3dh
