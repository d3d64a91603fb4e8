package x3dh

import (
	"fmt"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/protocol/kdf"
)

// Agreement is the initiator's result: the shared secret, the ephemeral
// public key the responder needs to mirror the computation, and the id
// of the one-time prekey consumed from the bundle, if any.
type Agreement struct {
	SharedSecret [32]byte
	EphemeralPub domain.X25519Public
	UsedOPKID    *uint64
}

// Initiate runs X3DH against a peer's prekey bundle.
//
// The DH order DH1..DH4 is contract:
//
//	DH1 = X25519(IKa_x, SPKb)
//	DH2 = X25519(EKa,   IKb_x)
//	DH3 = X25519(EKa,   SPKb)
//	DH4 = X25519(EKa,   OPKb)   (only when the bundle carries an OPK)
func Initiate(seed domain.Ed25519Seed, bundle domain.PrekeyBundle) (Agreement, error) {
	if !crypto.Verify(bundle.IdentityKey, bundle.SignedPrekey.PublicKey.Slice(), bundle.SignedPrekey.Signature) {
		return Agreement{}, domain.ErrBadPrekeyBundle
	}

	ourIK := crypto.SeedToX25519(seed)
	peerIK, err := crypto.Ed25519PublicToX25519(bundle.IdentityKey)
	if err != nil {
		return Agreement{}, fmt.Errorf("convert peer identity key: %w", err)
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return Agreement{}, err
	}

	dh1, err := crypto.DH(ourIK, bundle.SignedPrekey.PublicKey)
	if err != nil {
		return Agreement{}, err
	}
	dh2, err := crypto.DH(ephPriv, peerIK)
	if err != nil {
		return Agreement{}, err
	}
	dh3, err := crypto.DH(ephPriv, bundle.SignedPrekey.PublicKey)
	if err != nil {
		return Agreement{}, err
	}

	parts := [][]byte{dh1[:], dh2[:], dh3[:]}
	var usedOPK *uint64
	if opk := bundle.OneTimePrekey; opk != nil {
		dh4, err := crypto.DH(ephPriv, opk.PublicKey)
		if err != nil {
			return Agreement{}, err
		}
		parts = append(parts, dh4[:])
		id := opk.ID
		usedOPK = &id
	}

	concat := codec.Concat(parts...)
	secret := kdf.X3DH(concat)
	crypto.Wipe(concat)
	crypto.Wipe(ourIK[:])

	return Agreement{SharedSecret: secret, EphemeralPub: ephPub, UsedOPKID: usedOPK}, nil
}

// Respond mirrors Initiate on the responder side, computing the same
// DH values from the other direction and concatenating them in the
// identical order before the KDF.
func Respond(
	seed domain.Ed25519Seed,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	peerIdentity domain.Ed25519Public,
	peerEphemeral domain.X25519Public,
) ([32]byte, error) {
	ourIK := crypto.SeedToX25519(seed)
	peerIK, err := crypto.Ed25519PublicToX25519(peerIdentity)
	if err != nil {
		return [32]byte{}, fmt.Errorf("convert peer identity key: %w", err)
	}

	dh1, err := crypto.DH(spkPriv, peerIK)
	if err != nil {
		return [32]byte{}, err
	}
	dh2, err := crypto.DH(ourIK, peerEphemeral)
	if err != nil {
		return [32]byte{}, err
	}
	dh3, err := crypto.DH(spkPriv, peerEphemeral)
	if err != nil {
		return [32]byte{}, err
	}

	parts := [][]byte{dh1[:], dh2[:], dh3[:]}
	if opkPriv != nil {
		dh4, err := crypto.DH(*opkPriv, peerEphemeral)
		if err != nil {
			return [32]byte{}, err
		}
		parts = append(parts, dh4[:])
	}

	concat := codec.Concat(parts...)
	secret := kdf.X3DH(concat)
	crypto.Wipe(concat)
	crypto.Wipe(ourIK[:])
	return secret, nil
}
