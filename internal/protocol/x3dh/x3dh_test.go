package x3dh_test

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/protocol/x3dh"
)

func makeSeed(t *testing.T) domain.Ed25519Seed {
	t.Helper()
	var seed domain.Ed25519Seed
	if _, err := rand.Read(seed[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return seed
}

type responder struct {
	seed    domain.Ed25519Seed
	spkPriv domain.X25519Private
	opkPriv domain.X25519Private
	bundle  domain.PrekeyBundle
}

// makeResponder publishes a bundle for Bob, optionally with an OPK.
func makeResponder(t *testing.T, withOPK bool) responder {
	t.Helper()
	seed := makeSeed(t)

	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	r := responder{
		seed:    seed,
		spkPriv: spkPriv,
		bundle: domain.PrekeyBundle{
			IdentityKey: crypto.PublicFromSeed(seed),
			SignedPrekey: domain.SignedPrekeyPublic{
				ID:        7,
				PublicKey: spkPub,
				Signature: crypto.SignWithSeed(seed, spkPub.Slice()),
			},
		},
	}
	if withOPK {
		opkPriv, opkPub, err := crypto.GenerateX25519()
		if err != nil {
			t.Fatalf("GenerateX25519 (opk): %v", err)
		}
		r.opkPriv = opkPriv
		r.bundle.OneTimePrekey = &domain.OneTimePrekeyPublic{ID: 100, PublicKey: opkPub}
	}
	return r
}

func TestInitiateAndRespond_WithOPK(t *testing.T) {
	alice := makeSeed(t)
	bob := makeResponder(t, true)

	agreement, err := x3dh.Initiate(alice, bob.bundle)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if agreement.UsedOPKID == nil || *agreement.UsedOPKID != 100 {
		t.Fatalf("want used OPK id 100, got %v", agreement.UsedOPKID)
	}

	secret, err := x3dh.Respond(
		bob.seed, bob.spkPriv, &bob.opkPriv,
		crypto.PublicFromSeed(alice), agreement.EphemeralPub)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if secret != agreement.SharedSecret {
		t.Fatal("initiator and responder derived different secrets (with OPK)")
	}
}

func TestInitiateAndRespond_NoOPK(t *testing.T) {
	alice := makeSeed(t)
	bob := makeResponder(t, false)

	agreement, err := x3dh.Initiate(alice, bob.bundle)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if agreement.UsedOPKID != nil {
		t.Fatalf("no OPK in bundle but one reported used: %v", *agreement.UsedOPKID)
	}

	secret, err := x3dh.Respond(
		bob.seed, bob.spkPriv, nil,
		crypto.PublicFromSeed(alice), agreement.EphemeralPub)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if secret != agreement.SharedSecret {
		t.Fatal("initiator and responder derived different secrets (no OPK)")
	}
}

func TestInitiate_BadSignature(t *testing.T) {
	alice := makeSeed(t)
	bob := makeResponder(t, true)
	bob.bundle.SignedPrekey.Signature[3] ^= 0x80

	_, err := x3dh.Initiate(alice, bob.bundle)
	if !errors.Is(err, domain.ErrBadPrekeyBundle) {
		t.Fatalf("want ErrBadPrekeyBundle, got %v", err)
	}
}

func TestInitiate_FreshEphemeralPerRun(t *testing.T) {
	alice := makeSeed(t)
	bob := makeResponder(t, false)

	a1, err := x3dh.Initiate(alice, bob.bundle)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	a2, err := x3dh.Initiate(alice, bob.bundle)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if a1.EphemeralPub == a2.EphemeralPub {
		t.Fatal("ephemeral key reused across runs")
	}
	if a1.SharedSecret == a2.SharedSecret {
		t.Fatal("shared secret identical across independent runs")
	}
}
