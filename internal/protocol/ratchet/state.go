package ratchet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/domain"
)

// SkippedKey addresses a cached message key: the hex form of the remote
// ratchet public key the chain belonged to, and the message counter.
type SkippedKey struct {
	DH string
	N  uint64
}

// State is the full Double Ratchet session state for one peer pair.
type State struct {
	// DHPriv/DHPub form our current sending ratchet key pair.
	DHPriv domain.X25519Private
	DHPub  domain.X25519Public
	// PeerDH is the remote party's current ratchet public key; nil on
	// the responder side until the first message arrives.
	PeerDH *domain.X25519Public

	Root   [32]byte
	SendCK *[32]byte
	RecvCK *[32]byte

	Ns uint64
	Nr uint64
	PN uint64

	Skipped map[SkippedKey][32]byte
}

// clone returns a deep copy so Encrypt/Decrypt can work on a scratch
// state and leave the caller's value untouched.
func (s State) clone() State {
	out := s
	if s.PeerDH != nil {
		peer := *s.PeerDH
		out.PeerDH = &peer
	}
	if s.SendCK != nil {
		ck := *s.SendCK
		out.SendCK = &ck
	}
	if s.RecvCK != nil {
		ck := *s.RecvCK
		out.RecvCK = &ck
	}
	out.Skipped = make(map[SkippedKey][32]byte, len(s.Skipped))
	for k, v := range s.Skipped {
		out.Skipped[k] = v
	}
	return out
}

// snapshot is the persisted JSON form: binary fields in base64, the
// skipped map keyed by "<dh hex>:<counter>".
type snapshot struct {
	DHPriv  string            `json:"dhs_priv"`
	DHPub   string            `json:"dhs_pub"`
	PeerDH  string            `json:"dhr,omitempty"`
	Root    string            `json:"rk"`
	SendCK  string            `json:"cks,omitempty"`
	RecvCK  string            `json:"ckr,omitempty"`
	Ns      uint64            `json:"ns"`
	Nr      uint64            `json:"nr"`
	PN      uint64            `json:"pn"`
	Skipped map[string]string `json:"mkskipped"`
}

// MarshalJSON encodes the state in its persisted form.
func (s State) MarshalJSON() ([]byte, error) {
	snap := snapshot{
		DHPriv:  codec.ToBase64(s.DHPriv.Slice()),
		DHPub:   codec.ToBase64(s.DHPub.Slice()),
		Root:    codec.ToBase64(s.Root[:]),
		Ns:      s.Ns,
		Nr:      s.Nr,
		PN:      s.PN,
		Skipped: make(map[string]string, len(s.Skipped)),
	}
	if s.PeerDH != nil {
		snap.PeerDH = codec.ToBase64(s.PeerDH.Slice())
	}
	if s.SendCK != nil {
		snap.SendCK = codec.ToBase64(s.SendCK[:])
	}
	if s.RecvCK != nil {
		snap.RecvCK = codec.ToBase64(s.RecvCK[:])
	}
	for k, mk := range s.Skipped {
		snap.Skipped[k.DH+":"+strconv.FormatUint(k.N, 10)] = codec.ToBase64(mk[:])
	}
	return json.Marshal(snap)
}

// UnmarshalJSON decodes the persisted form.
func (s *State) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	out := State{
		Ns:      snap.Ns,
		Nr:      snap.Nr,
		PN:      snap.PN,
		Skipped: make(map[SkippedKey][32]byte, len(snap.Skipped)),
	}
	if err := decode32(snap.DHPriv, out.DHPriv[:]); err != nil {
		return fmt.Errorf("dhs_priv: %w", err)
	}
	if err := decode32(snap.DHPub, out.DHPub[:]); err != nil {
		return fmt.Errorf("dhs_pub: %w", err)
	}
	if err := decode32(snap.Root, out.Root[:]); err != nil {
		return fmt.Errorf("rk: %w", err)
	}
	if snap.PeerDH != "" {
		var peer domain.X25519Public
		if err := decode32(snap.PeerDH, peer[:]); err != nil {
			return fmt.Errorf("dhr: %w", err)
		}
		out.PeerDH = &peer
	}
	if snap.SendCK != "" {
		var ck [32]byte
		if err := decode32(snap.SendCK, ck[:]); err != nil {
			return fmt.Errorf("cks: %w", err)
		}
		out.SendCK = &ck
	}
	if snap.RecvCK != "" {
		var ck [32]byte
		if err := decode32(snap.RecvCK, ck[:]); err != nil {
			return fmt.Errorf("ckr: %w", err)
		}
		out.RecvCK = &ck
	}
	for composite, b64 := range snap.Skipped {
		i := strings.LastIndex(composite, ":")
		if i < 0 {
			return fmt.Errorf("mkskipped: malformed key %q", composite)
		}
		n, err := strconv.ParseUint(composite[i+1:], 10, 64)
		if err != nil {
			return fmt.Errorf("mkskipped: malformed counter in %q", composite)
		}
		var mk [32]byte
		if err := decode32(b64, mk[:]); err != nil {
			return fmt.Errorf("mkskipped[%s]: %w", composite, err)
		}
		out.Skipped[SkippedKey{DH: composite[:i], N: n}] = mk
	}
	*s = out
	return nil
}

func decode32(b64 string, dst []byte) error {
	raw, err := codec.FromBase64(b64)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("want %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
