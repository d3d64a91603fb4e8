package ratchet

import (
	"fmt"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/protocol/kdf"
)

// MaxSkip bounds how many message keys a single Decrypt call may derive
// and cache across the previous and current receiving chains.
const MaxSkip = 256

// Bootstrap is the X3DH material attached to the header of the first
// ciphertext of a conversation.
type Bootstrap struct {
	IK    string
	EK    string
	OPKID *uint64
}

// Message is the output of Encrypt. HeaderRaw is the canonical JSON
// used as associated data; it travels verbatim in the payload.
type Message struct {
	Header     domain.Header
	HeaderRaw  []byte
	Nonce      []byte
	Ciphertext []byte
}

// InitInitiator builds the initiator's state from the X3DH shared
// secret and the peer's signed prekey: a fresh sending key pair and an
// immediate root step seed the sending chain.
func InitInitiator(shared [32]byte, peerSPK domain.X25519Public) (State, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return State{}, err
	}
	dh, err := crypto.DH(priv, peerSPK)
	if err != nil {
		return State{}, err
	}
	root, sendCK := kdf.RootStep(shared, dh)
	crypto.Wipe(dh[:])

	peer := peerSPK
	return State{
		DHPriv:  priv,
		DHPub:   pub,
		PeerDH:  &peer,
		Root:    root,
		SendCK:  &sendCK,
		Skipped: make(map[SkippedKey][32]byte),
	}, nil
}

// InitResponder builds the responder's state: the signed prekey pair
// becomes the first ratchet key pair and the shared secret becomes the
// root key. The sending chain stays uninitialized until the first
// received message drives a DH ratchet step.
func InitResponder(shared [32]byte, spkPriv domain.X25519Private, spkPub domain.X25519Public) State {
	return State{
		DHPriv:  spkPriv,
		DHPub:   spkPub,
		Root:    shared,
		Skipped: make(map[SkippedKey][32]byte),
	}
}

// Encrypt advances the sending chain one step and seals plaintext with
// the derived message key. The returned state replaces the input; the
// input is not mutated.
func Encrypt(st State, plaintext []byte, boot *Bootstrap) (State, Message, error) {
	if st.SendCK == nil {
		return State{}, Message{}, domain.ErrSendingChainNotInitialized
	}
	st = st.clone()

	nextCK, mk := kdf.ChainStep(*st.SendCK)

	header := domain.Header{
		DH: codec.ToBase64(st.DHPub.Slice()),
		PN: st.PN,
		N:  st.Ns,
	}
	if boot != nil {
		header.IK = boot.IK
		header.EK = boot.EK
		header.OPKID = boot.OPKID
	}
	raw, err := header.Encode()
	if err != nil {
		return State{}, Message{}, err
	}

	nonce, ct, err := seal(mk, plaintext, raw)
	crypto.Wipe(mk[:])
	if err != nil {
		return State{}, Message{}, err
	}

	st.SendCK = &nextCK
	st.Ns++
	return st, Message{Header: header, HeaderRaw: raw, Nonce: nonce, Ciphertext: ct}, nil
}

// Decrypt opens a message, handling skipped keys and DH ratchet steps.
// headerRaw must be the received header bytes verbatim; re-encoding the
// parsed header would break the AAD binding for any peer whose encoder
// disagrees byte-for-byte.
func Decrypt(st State, header domain.Header, headerRaw, nonce, ciphertext []byte) (State, []byte, error) {
	headerDH, err := decodeRatchetPub(header.DH)
	if err != nil {
		return State{}, nil, fmt.Errorf("header dh: %w", err)
	}
	st = st.clone()

	// A message whose key was cached when it was skipped (on an older
	// chain or earlier in the current one) decrypts with that key.
	skipID := SkippedKey{DH: codec.ToHex(headerDH.Slice()), N: header.N}
	if mk, ok := st.Skipped[skipID]; ok {
		delete(st.Skipped, skipID)
		pt, err := open(mk, nonce, ciphertext, headerRaw)
		crypto.Wipe(mk[:])
		if err != nil {
			return State{}, nil, err
		}
		return st, pt, nil
	}

	budget := 0
	if st.PeerDH == nil || *st.PeerDH != headerDH {
		// New remote ratchet key: drain the old receiving chain into the
		// skipped cache, then step both chains.
		if st.RecvCK != nil {
			if err := skipUntil(&st, header.PN, &budget); err != nil {
				return State{}, nil, err
			}
		}

		st.PN = st.Ns
		st.Ns = 0
		st.Nr = 0
		peer := headerDH
		st.PeerDH = &peer

		dh, err := crypto.DH(st.DHPriv, headerDH)
		if err != nil {
			return State{}, nil, err
		}
		root, recvCK := kdf.RootStep(st.Root, dh)
		crypto.Wipe(dh[:])
		st.RecvCK = &recvCK

		newPriv, newPub, err := crypto.GenerateX25519()
		if err != nil {
			return State{}, nil, err
		}
		st.DHPriv, st.DHPub = newPriv, newPub

		dh2, err := crypto.DH(st.DHPriv, headerDH)
		if err != nil {
			return State{}, nil, err
		}
		root2, sendCK := kdf.RootStep(root, dh2)
		crypto.Wipe(dh2[:])
		st.Root = root2
		st.SendCK = &sendCK
	}

	if st.RecvCK == nil {
		return State{}, nil, fmt.Errorf("receiving chain not initialized: %w", domain.ErrDecryptFailed)
	}
	if err := skipUntil(&st, header.N, &budget); err != nil {
		return State{}, nil, err
	}

	nextCK, mk := kdf.ChainStep(*st.RecvCK)
	pt, err := open(mk, nonce, ciphertext, headerRaw)
	crypto.Wipe(mk[:])
	if err != nil {
		return State{}, nil, err
	}
	st.RecvCK = &nextCK
	st.Nr++
	return st, pt, nil
}

// skipUntil advances the receiving chain to counter until, caching each
// derived message key. budget counts derivations across the whole
// Decrypt call.
func skipUntil(st *State, until uint64, budget *int) error {
	if st.Nr >= until {
		return nil
	}
	if uint64(MaxSkip-*budget) < until-st.Nr {
		return domain.ErrTooManySkipped
	}
	dhHex := codec.ToHex(st.PeerDH.Slice())
	for st.Nr < until {
		nextCK, mk := kdf.ChainStep(*st.RecvCK)
		st.Skipped[SkippedKey{DH: dhHex, N: st.Nr}] = mk
		st.RecvCK = &nextCK
		st.Nr++
		*budget++
	}
	return nil
}

func decodeRatchetPub(b64 string) (domain.X25519Public, error) {
	raw, err := codec.FromBase64(b64)
	if err != nil {
		return domain.X25519Public{}, err
	}
	if len(raw) != 32 {
		return domain.X25519Public{}, fmt.Errorf("want 32 bytes, got %d", len(raw))
	}
	var pub domain.X25519Public
	copy(pub[:], raw)
	return pub, nil
}
