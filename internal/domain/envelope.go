package domain

import (
	"encoding/json"
	"fmt"
)

// Header is the per-message ratchet header. Its canonical JSON form is
// the AEAD associated data, so field order and omission rules are part
// of the wire contract: keys appear in the order dh, pn, n, ik, ek,
// opk_id, absent optional fields are omitted, and there is no
// insignificant whitespace. encoding/json emits struct fields in
// declaration order, which yields exactly that form.
type Header struct {
	// DH is the sender's current ratchet public key, base64.
	DH string `json:"dh"`
	// PN is the length of the sender's previous sending chain.
	PN uint64 `json:"pn"`
	// N is the message counter within the current chain.
	N uint64 `json:"n"`

	// IK, EK and OPKID carry X3DH bootstrap material and appear only on
	// the first ciphertext of a conversation: the initiator's Ed25519
	// identity key and X25519 ephemeral key in base64, and the id of the
	// consumed one-time prekey.
	IK    string  `json:"ik,omitempty"`
	EK    string  `json:"ek,omitempty"`
	OPKID *uint64 `json:"opk_id,omitempty"`
}

// Encode returns the canonical JSON bytes of the header.
func (h Header) Encode() ([]byte, error) {
	return json.Marshal(h)
}

// ParseHeader decodes a received header string. The raw bytes, not the
// re-encoded struct, must be used as associated data when decrypting.
func ParseHeader(raw []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return Header{}, fmt.Errorf("parse header: %w", err)
	}
	return h, nil
}

// Payload is the versioned envelope handed to the message layer.
// Version 1 is the legacy static-ECDH path and carries no header;
// version 2 is the Signal path and always carries one.
type Payload struct {
	Version    int    `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Header     string `json:"header,omitempty"`
}
