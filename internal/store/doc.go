// Package store persists the encryption core's state.
//
// The session store and prekey store write JSON records through the
// domain.SecureStorage interface and never touch the filesystem
// themselves. Two SecureStorage implementations live here as well: an
// encrypted file store for real use and an in-memory store for tests.
package store
