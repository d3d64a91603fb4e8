package ratchet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

const nonceSize = 12

func newGCM(mk [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(mk[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(mk [32]byte, plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := newGCM(mk)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return nonce, aead.Seal(nil, nonce, plaintext, aad), nil
}

func open(mk [32]byte, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newGCM(mk)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, domain.ErrDecryptFailed
	}
	return pt, nil
}
