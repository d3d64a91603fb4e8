package domain

import "errors"

// The closed set of protocol errors. Callers match with errors.Is; the
// router never swallows any of them.
var (
	// ErrBadPrekeyBundle means the signature on a peer's signed prekey
	// failed verification against their identity key.
	ErrBadPrekeyBundle = errors.New("prekey bundle signature verification failed")

	// ErrSendingChainNotInitialized means the responder side of a session
	// tried to send before receiving the first message.
	ErrSendingChainNotInitialized = errors.New("sending chain not initialized")

	// ErrTooManySkipped means a header counter jumped further than the
	// skipped-key cache allows.
	ErrTooManySkipped = errors.New("too many skipped message keys")

	// ErrNoSession means a v2 payload arrived without bootstrap material
	// and no session exists for the pair.
	ErrNoSession = errors.New("no session with peer")

	// ErrDecryptFailed means the ciphertext or header was tampered with,
	// or the wrong key was used.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrNoPrekeyStore means an initial X3DH message arrived before the
	// local prekey store was generated.
	ErrNoPrekeyStore = errors.New("local prekey store not initialized")

	// ErrUnsupportedVersion means the payload version is not 1 or 2.
	ErrUnsupportedVersion = errors.New("unsupported payload version")

	// ErrNoBundle is reported by the keys API when a peer has no prekey
	// bundle. It is a routing signal, not a protocol failure: the
	// envelope router falls back to v1 when it observes it.
	ErrNoBundle = errors.New("no prekey bundle available")
)
