package ratchet_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/protocol/ratchet"
)

// makePair builds an established initiator/responder pair over a fixed
// shared secret, the way the envelope router would after X3DH.
func makePair(t *testing.T) (alice, bob ratchet.State) {
	t.Helper()
	var shared [32]byte
	copy(shared[:], bytes.Repeat([]byte{0x42}, 32))

	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	alice, err = ratchet.InitInitiator(shared, spkPub)
	if err != nil {
		t.Fatalf("InitInitiator: %v", err)
	}
	bob = ratchet.InitResponder(shared, spkPriv, spkPub)
	return alice, bob
}

func mustEncrypt(t *testing.T, st ratchet.State, plaintext string) (ratchet.State, ratchet.Message) {
	t.Helper()
	st2, msg, err := ratchet.Encrypt(st, []byte(plaintext), nil)
	if err != nil {
		t.Fatalf("Encrypt(%q): %v", plaintext, err)
	}
	return st2, msg
}

func mustDecrypt(t *testing.T, st ratchet.State, msg ratchet.Message) (ratchet.State, string) {
	t.Helper()
	st2, pt, err := ratchet.Decrypt(st, msg.Header, msg.HeaderRaw, msg.Nonce, msg.Ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	return st2, string(pt)
}

func TestSingleMessage(t *testing.T) {
	alice, bob := makePair(t)

	_, msg := mustEncrypt(t, alice, "Hello Bob, this is Alice!")
	_, got := mustDecrypt(t, bob, msg)
	if got != "Hello Bob, this is Alice!" {
		t.Fatalf("got %q", got)
	}
}

func TestResponderCannotSendFirst(t *testing.T) {
	_, bob := makePair(t)

	_, _, err := ratchet.Encrypt(bob, []byte("too early"), nil)
	if !errors.Is(err, domain.ErrSendingChainNotInitialized) {
		t.Fatalf("want ErrSendingChainNotInitialized, got %v", err)
	}
}

func TestRoundTripWithReversal(t *testing.T) {
	alice, bob := makePair(t)
	aliceDH0 := alice.DHPub
	bobDH0 := bob.DHPub

	alice, m1 := mustEncrypt(t, alice, "msg1")
	bob, got1 := mustDecrypt(t, bob, m1)
	if got1 != "msg1" {
		t.Fatalf("got %q", got1)
	}
	// Bob ratcheted on first receive.
	if bob.DHPub == bobDH0 {
		t.Fatal("responder kept its initial ratchet key after first receive")
	}
	if bob.PeerDH == nil {
		t.Fatal("responder did not record the sender ratchet key")
	}

	bob, m2 := mustEncrypt(t, bob, "reply")
	alice, got2 := mustDecrypt(t, alice, m2)
	if got2 != "reply" {
		t.Fatalf("got %q", got2)
	}
	// Direction reversal forces a fresh sending pair on Alice's side.
	if alice.DHPub == aliceDH0 {
		t.Fatal("initiator kept its sending key across a direction reversal")
	}

	alice, m3 := mustEncrypt(t, alice, "msg2")
	_, got3 := mustDecrypt(t, bob, m3)
	if got3 != "msg2" {
		t.Fatalf("got %q", got3)
	}
}

func TestOutOfOrderDelivery(t *testing.T) {
	alice, bob := makePair(t)

	alice, m1 := mustEncrypt(t, alice, "first")
	alice, m2 := mustEncrypt(t, alice, "second")
	_, m3 := mustEncrypt(t, alice, "third")

	bob, got3 := mustDecrypt(t, bob, m3)
	if got3 != "third" {
		t.Fatalf("got %q", got3)
	}
	if len(bob.Skipped) != 2 {
		t.Fatalf("want 2 cached keys, got %d", len(bob.Skipped))
	}

	bob, got1 := mustDecrypt(t, bob, m1)
	bob, got2 := mustDecrypt(t, bob, m2)
	if got1 != "first" || got2 != "second" {
		t.Fatalf("got %q, %q", got1, got2)
	}
	if len(bob.Skipped) != 0 {
		t.Fatalf("skipped cache not drained: %d keys left", len(bob.Skipped))
	}
}

func TestSkippedKeyIsOneShot(t *testing.T) {
	alice, bob := makePair(t)

	alice, m1 := mustEncrypt(t, alice, "first")
	_, m2 := mustEncrypt(t, alice, "second")

	bob, _ = mustDecrypt(t, bob, m2)
	bob, _ = mustDecrypt(t, bob, m1)

	// Replay of the skipped message must fail now that its key is gone.
	if _, _, err := ratchet.Decrypt(bob, m1.Header, m1.HeaderRaw, m1.Nonce, m1.Ciphertext); err == nil {
		t.Fatal("replayed skipped message decrypted twice")
	}
}

func TestTooManySkipped(t *testing.T) {
	alice, bob := makePair(t)

	var last ratchet.Message
	for i := 0; i <= ratchet.MaxSkip+1; i++ {
		alice, last = mustEncrypt(t, alice, "flood")
	}
	_, _, err := ratchet.Decrypt(bob, last.Header, last.HeaderRaw, last.Nonce, last.Ciphertext)
	if !errors.Is(err, domain.ErrTooManySkipped) {
		t.Fatalf("want ErrTooManySkipped, got %v", err)
	}
}

func TestTamperDetection(t *testing.T) {
	alice, bob := makePair(t)
	_, msg := mustEncrypt(t, alice, "Hello Bob, this is Alice!")

	t.Run("ciphertext byte flip", func(t *testing.T) {
		ct := append([]byte(nil), msg.Ciphertext...)
		ct[0] ^= 0x01
		_, _, err := ratchet.Decrypt(bob, msg.Header, msg.HeaderRaw, msg.Nonce, ct)
		if !errors.Is(err, domain.ErrDecryptFailed) {
			t.Fatalf("want ErrDecryptFailed, got %v", err)
		}
	})

	t.Run("header counter flip", func(t *testing.T) {
		tampered := msg.Header
		tampered.N = 1
		raw, err := tampered.Encode()
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		_, _, err = ratchet.Decrypt(bob, tampered, raw, msg.Nonce, msg.Ciphertext)
		if !errors.Is(err, domain.ErrDecryptFailed) {
			t.Fatalf("want ErrDecryptFailed, got %v", err)
		}
	})

	t.Run("nonce flip", func(t *testing.T) {
		nonce := append([]byte(nil), msg.Nonce...)
		nonce[11] ^= 0xff
		_, _, err := ratchet.Decrypt(bob, msg.Header, msg.HeaderRaw, nonce, msg.Ciphertext)
		if !errors.Is(err, domain.ErrDecryptFailed) {
			t.Fatalf("want ErrDecryptFailed, got %v", err)
		}
	})
}

func TestFailedDecryptLeavesStateUsable(t *testing.T) {
	alice, bob := makePair(t)
	_, msg := mustEncrypt(t, alice, "intact")

	ct := append([]byte(nil), msg.Ciphertext...)
	ct[0] ^= 0x01
	if _, _, err := ratchet.Decrypt(bob, msg.Header, msg.HeaderRaw, msg.Nonce, ct); err == nil {
		t.Fatal("tampered message decrypted")
	}

	// The original state still decrypts the untampered message.
	_, got := mustDecrypt(t, bob, msg)
	if got != "intact" {
		t.Fatalf("got %q", got)
	}
}

func TestEncryptDistinctness(t *testing.T) {
	alice, _ := makePair(t)

	alice, m1 := mustEncrypt(t, alice, "same chain")
	_, m2 := mustEncrypt(t, alice, "same chain")

	if bytes.Equal(m1.Nonce, m2.Nonce) {
		t.Fatal("nonces repeated")
	}
	if bytes.Equal(m1.Ciphertext, m2.Ciphertext) {
		t.Fatal("ciphertexts repeated")
	}
	if m1.Header.N == m2.Header.N {
		t.Fatal("message counter did not advance")
	}
}

func TestEncryptDoesNotMutateInput(t *testing.T) {
	alice, _ := makePair(t)
	before, err := json.Marshal(alice)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, _, err := ratchet.Encrypt(alice, []byte("x"), nil); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	after, err := json.Marshal(alice)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("Encrypt mutated its input state")
	}
}

func TestSerializeRoundTripMidConversation(t *testing.T) {
	alice, bob := makePair(t)

	alice, m1 := mustEncrypt(t, alice, "one")
	bob, _ = mustDecrypt(t, bob, m1)
	bob, m2 := mustEncrypt(t, bob, "two")
	alice, _ = mustDecrypt(t, alice, m2)

	for name, st := range map[string]*ratchet.State{"alice": &alice, "bob": &bob} {
		raw, err := json.Marshal(*st)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		var revived ratchet.State
		if err := json.Unmarshal(raw, &revived); err != nil {
			t.Fatalf("unmarshal %s: %v", name, err)
		}
		if !reflect.DeepEqual(*st, revived) {
			t.Fatalf("%s state did not round-trip", name)
		}
		*st = revived
	}

	// The revived sessions keep working in both directions.
	alice, m3 := mustEncrypt(t, alice, "three")
	bob, got3 := mustDecrypt(t, bob, m3)
	bob, m4 := mustEncrypt(t, bob, "four")
	_, got4 := mustDecrypt(t, alice, m4)
	if got3 != "three" || got4 != "four" {
		t.Fatalf("got %q, %q", got3, got4)
	}
}

func TestBootstrapHeaderFields(t *testing.T) {
	alice, bob := makePair(t)

	opkID := uint64(100)
	boot := &ratchet.Bootstrap{IK: "aWs=", EK: "ZWs=", OPKID: &opkID}
	_, msg, err := ratchet.Encrypt(alice, []byte("hi"), boot)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if msg.Header.IK != "aWs=" || msg.Header.EK != "ZWs=" || msg.Header.OPKID == nil || *msg.Header.OPKID != 100 {
		t.Fatalf("bootstrap fields lost: %+v", msg.Header)
	}

	// The header with bootstrap material is bound by the AEAD.
	_, got := mustDecrypt(t, bob, msg)
	if got != "hi" {
		t.Fatalf("got %q", got)
	}
	stripped := msg.Header
	stripped.IK, stripped.EK, stripped.OPKID = "", "", nil
	raw, _ := stripped.Encode()
	if _, _, err := ratchet.Decrypt(bob, stripped, raw, msg.Nonce, msg.Ciphertext); !errors.Is(err, domain.ErrDecryptFailed) {
		t.Fatalf("stripping bootstrap fields must break the AAD, got %v", err)
	}
}
