// Package kdf implements the key derivation primitives shared by the
// X3DH and Double Ratchet engines. The info strings and the shape of
// every derivation are part of the wire contract: peers must agree, and
// any output change is a protocol break.
package kdf

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// X3DHInfo labels the X3DH shared-secret derivation.
	X3DHInfo = "paracord:signal:x3dh"
	// RatchetInfo labels the root-key ratchet step.
	RatchetInfo = "paracord:signal:ratchet"
)

// X3DH derives the 32-byte shared secret from the concatenated DH
// outputs: HKDF-SHA256 with a 32-zero-byte salt.
func X3DH(dhConcat []byte) (secret [32]byte) {
	salt := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, dhConcat, salt, []byte(X3DHInfo))
	if _, err := io.ReadFull(r, secret[:]); err != nil {
		// Reading 32 bytes from HKDF-SHA256 cannot fail.
		panic(err)
	}
	return
}

// RootStep advances the root key with a DH output: HKDF-SHA256 keyed
// with salt = rk, IKM = dhOut, 64 bytes split into the new root key and
// a chain key.
func RootStep(rk [32]byte, dhOut [32]byte) (newRK, ck [32]byte) {
	r := hkdf.New(sha256.New, dhOut[:], rk[:], []byte(RatchetInfo))
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		panic(err)
	}
	copy(newRK[:], buf[:32])
	copy(ck[:], buf[32:])
	return
}

// ChainStep derives the message key and the next chain key from a chain
// key via HMAC-SHA256 with the tagged single-byte inputs 0x01 and 0x02.
func ChainStep(ck [32]byte) (nextCK, mk [32]byte) {
	copy(mk[:], hmacSum(ck[:], []byte{0x01}))
	copy(nextCK[:], hmacSum(ck[:], []byte{0x02}))
	return
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
