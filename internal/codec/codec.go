// Package codec provides the byte conversions used across the
// encryption core: standard base64 with padding, lowercase hex, and a
// contiguous-buffer concatenation helper. Round-trip exactness is a
// contract; every encoded key and ciphertext on the wire passes through
// these functions.
package codec

import (
	"encoding/base64"
	"encoding/hex"
)

// ToBase64 encodes b with the standard alphabet and '=' padding.
func ToBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// FromBase64 decodes a standard base64 string.
func FromBase64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// ToHex encodes b as lowercase hex without separators.
func ToHex(b []byte) string { return hex.EncodeToString(b) }

// FromHex decodes a hex string.
func FromHex(s string) ([]byte, error) { return hex.DecodeString(s) }

// Concat copies the given slices into one contiguous buffer.
func Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
