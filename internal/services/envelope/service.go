// Package envelope routes direct-message encryption between the legacy
// static-ECDH path (version 1) and the Signal path (version 2).
//
// High-level flow:
//   - Encrypt: reuse an existing session; otherwise initiate X3DH when
//     the peer's bundle is fetchable and attach the bootstrap material
//     to the first header; otherwise fall back to version 1.
//   - Decrypt: route on version, bootstrap a responder session from the
//     header's X3DH material when needed, and retry the bootstrap once
//     if an initial message fails authenticated decryption against a
//     stale session.
//
// Operations on one peer pair are serialized behind a per-pair mutex;
// pairs proceed concurrently.
package envelope

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/protocol/ratchet"
	"github.com/Scdouglas1999/Paracord/internal/protocol/x3dh"
	"github.com/Scdouglas1999/Paracord/internal/store"
)

// v1KeyPrefix scopes the legacy deterministic key to a channel. The
// constant is part of the wire contract with existing messages.
const v1KeyPrefix = "paracord:dm-e2ee:v1:"

// Service is the envelope router.
type Service struct {
	sessions *store.SessionStore
	prekeys  *store.PrekeyStore
	keys     domain.KeysClient
	log      *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Service. keys may be nil on hosts without network
// access; encryption then reuses existing sessions or falls back to v1.
func New(sessions *store.SessionStore, prekeys *store.PrekeyStore, keys domain.KeysClient, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		sessions: sessions,
		prekeys:  prekeys,
		keys:     keys,
		log:      log,
		locks:    map[string]*sync.Mutex{},
	}
}

// pairLock returns the mutex serializing one peer pair.
func (s *Service) pairLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// EncryptDM encrypts plaintext for the peer. peerUserID enables the
// bundle fetch that upgrades a first message to the Signal path; leave
// it empty to allow only existing sessions and the v1 fallback.
func (s *Service) EncryptDM(
	ctx context.Context,
	channelID string,
	plaintext []byte,
	seed domain.Ed25519Seed,
	peerEd domain.Ed25519Public,
	peerUserID string,
) (domain.Payload, error) {
	me := crypto.PublicFromSeed(seed)
	lock := s.pairLock(store.SessionKey(me, peerEd))
	lock.Lock()
	defer lock.Unlock()

	st, ok, err := s.sessions.Load(ctx, me, peerEd)
	if err != nil {
		return domain.Payload{}, err
	}
	if ok {
		return s.encryptWithSession(ctx, me, peerEd, st, plaintext, nil)
	}

	if peerUserID != "" && s.keys != nil {
		bundle, err := s.keys.FetchBundle(ctx, peerUserID)
		switch {
		case err == nil:
			return s.initiateAndEncrypt(ctx, seed, me, peerEd, bundle, plaintext)
		case errors.Is(err, domain.ErrNoBundle):
			s.log.WithField("peer", peerUserID).Debug("no prekey bundle, falling back to v1")
		default:
			return domain.Payload{}, err
		}
	}

	return s.encryptV1(channelID, plaintext, seed, peerEd)
}

func (s *Service) initiateAndEncrypt(
	ctx context.Context,
	seed domain.Ed25519Seed,
	me, peerEd domain.Ed25519Public,
	bundle domain.PrekeyBundle,
	plaintext []byte,
) (domain.Payload, error) {
	agreement, err := x3dh.Initiate(seed, bundle)
	if err != nil {
		return domain.Payload{}, err
	}
	st, err := ratchet.InitInitiator(agreement.SharedSecret, bundle.SignedPrekey.PublicKey)
	if err != nil {
		return domain.Payload{}, err
	}
	boot := &ratchet.Bootstrap{
		IK:    codec.ToBase64(me.Slice()),
		EK:    codec.ToBase64(agreement.EphemeralPub.Slice()),
		OPKID: agreement.UsedOPKID,
	}
	s.log.WithField("opk_used", agreement.UsedOPKID != nil).Debug("initiated x3dh session")
	return s.encryptWithSession(ctx, me, peerEd, st, plaintext, boot)
}

func (s *Service) encryptWithSession(
	ctx context.Context,
	me, peerEd domain.Ed25519Public,
	st ratchet.State,
	plaintext []byte,
	boot *ratchet.Bootstrap,
) (domain.Payload, error) {
	st, msg, err := ratchet.Encrypt(st, plaintext, boot)
	if err != nil {
		return domain.Payload{}, err
	}
	if err := s.sessions.Save(ctx, me, peerEd, st); err != nil {
		return domain.Payload{}, err
	}
	return domain.Payload{
		Version:    2,
		Nonce:      codec.ToBase64(msg.Nonce),
		Ciphertext: codec.ToBase64(msg.Ciphertext),
		Header:     string(msg.HeaderRaw),
	}, nil
}

// DecryptDM decrypts a payload from the peer.
func (s *Service) DecryptDM(
	ctx context.Context,
	channelID string,
	payload domain.Payload,
	seed domain.Ed25519Seed,
	peerEd domain.Ed25519Public,
) ([]byte, error) {
	switch payload.Version {
	case 1, 2:
	default:
		return nil, domain.ErrUnsupportedVersion
	}
	if payload.Version == 1 || payload.Header == "" {
		return s.decryptV1(channelID, payload, seed, peerEd)
	}

	header, err := domain.ParseHeader([]byte(payload.Header))
	if err != nil {
		return nil, err
	}
	nonce, err := codec.FromBase64(payload.Nonce)
	if err != nil {
		return nil, fmt.Errorf("payload nonce: %w", err)
	}
	ct, err := codec.FromBase64(payload.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("payload ciphertext: %w", err)
	}

	me := crypto.PublicFromSeed(seed)
	lock := s.pairLock(store.SessionKey(me, peerEd))
	lock.Lock()
	defer lock.Unlock()

	st, ok, err := s.sessions.Load(ctx, me, peerEd)
	if err != nil {
		return nil, err
	}

	bootstrapped := false
	if !ok {
		if header.IK == "" || header.EK == "" {
			return nil, domain.ErrNoSession
		}
		st, err = s.bootstrapResponder(ctx, seed, header)
		if err != nil {
			return nil, err
		}
		bootstrapped = true
	}

	st2, pt, err := ratchet.Decrypt(st, header, []byte(payload.Header), nonce, ct)
	if errors.Is(err, domain.ErrDecryptFailed) && !bootstrapped && header.IK != "" && header.EK != "" {
		// The initial message of a rebooted conversation does not fit the
		// stale session. Drop the session and bootstrap once from the
		// header's X3DH material.
		s.log.Debug("initial message failed against existing session, retrying bootstrap")
		if derr := s.sessions.Delete(ctx, me, peerEd); derr != nil {
			return nil, derr
		}
		fresh, berr := s.bootstrapResponder(ctx, seed, header)
		if berr != nil {
			return nil, berr
		}
		st2, pt, err = ratchet.Decrypt(fresh, header, []byte(payload.Header), nonce, ct)
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, me, peerEd, st2); err != nil {
		return nil, err
	}
	return pt, nil
}

// bootstrapResponder runs the responder side of X3DH from the header's
// bootstrap material. The consumed one-time prekey is persisted before
// any decryption so a later cancellation can never resurrect it.
func (s *Service) bootstrapResponder(
	ctx context.Context,
	seed domain.Ed25519Seed,
	header domain.Header,
) (ratchet.State, error) {
	rec, ok, err := s.prekeys.Load(ctx)
	if err != nil {
		return ratchet.State{}, err
	}
	if !ok {
		return ratchet.State{}, domain.ErrNoPrekeyStore
	}

	ikRaw, err := codec.FromBase64(header.IK)
	if err != nil || len(ikRaw) != 32 {
		return ratchet.State{}, fmt.Errorf("header ik: %w", errors.Join(err, domain.ErrNoSession))
	}
	ekRaw, err := codec.FromBase64(header.EK)
	if err != nil || len(ekRaw) != 32 {
		return ratchet.State{}, fmt.Errorf("header ek: %w", errors.Join(err, domain.ErrNoSession))
	}
	var peerIK domain.Ed25519Public
	copy(peerIK[:], ikRaw)
	var peerEK domain.X25519Public
	copy(peerEK[:], ekRaw)

	var opkPriv *domain.X25519Private
	if header.OPKID != nil {
		priv, updated, found := store.ConsumeOPK(rec, *header.OPKID)
		if found {
			if err := s.prekeys.Save(ctx, updated); err != nil {
				return ratchet.State{}, err
			}
			opkPriv = &priv
		} else {
			s.log.WithField("opk_id", *header.OPKID).Warn("one-time prekey already consumed or unknown")
		}
	}

	spkPriv, spkPub := rec.SignedPrekeyPair()
	shared, err := x3dh.Respond(seed, spkPriv, opkPriv, peerIK, peerEK)
	if err != nil {
		return ratchet.State{}, err
	}
	return ratchet.InitResponder(shared, spkPriv, spkPub), nil
}

// encryptV1 is the legacy path for peers without key material: a
// deterministic channel-scoped AES-GCM key from the static identity DH.
// No forward secrecy; kept only for compatibility.
func (s *Service) encryptV1(
	channelID string,
	plaintext []byte,
	seed domain.Ed25519Seed,
	peerEd domain.Ed25519Public,
) (domain.Payload, error) {
	key, err := v1Key(channelID, seed, peerEd)
	if err != nil {
		return domain.Payload{}, err
	}
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return domain.Payload{}, err
	}
	ct, err := sealV1(key, nonce, plaintext)
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.Payload{
		Version:    1,
		Nonce:      codec.ToBase64(nonce),
		Ciphertext: codec.ToBase64(ct),
	}, nil
}

func (s *Service) decryptV1(
	channelID string,
	payload domain.Payload,
	seed domain.Ed25519Seed,
	peerEd domain.Ed25519Public,
) ([]byte, error) {
	key, err := v1Key(channelID, seed, peerEd)
	if err != nil {
		return nil, err
	}
	nonce, err := codec.FromBase64(payload.Nonce)
	if err != nil {
		return nil, fmt.Errorf("payload nonce: %w", err)
	}
	ct, err := codec.FromBase64(payload.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("payload ciphertext: %w", err)
	}
	return openV1(key, nonce, ct)
}

// v1Key derives SHA-256(prefix || channelID || DH(IKa_x, IKb_x)).
func v1Key(channelID string, seed domain.Ed25519Seed, peerEd domain.Ed25519Public) ([32]byte, error) {
	myIK := crypto.SeedToX25519(seed)
	peerIK, err := crypto.Ed25519PublicToX25519(peerEd)
	if err != nil {
		return [32]byte{}, err
	}
	dh, err := crypto.DH(myIK, peerIK)
	if err != nil {
		return [32]byte{}, err
	}
	h := sha256.New()
	h.Write([]byte(v1KeyPrefix))
	h.Write([]byte(channelID))
	h.Write(dh[:])
	crypto.Wipe(dh[:])
	crypto.Wipe(myIK[:])

	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key, nil
}
