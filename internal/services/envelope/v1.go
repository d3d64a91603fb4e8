package envelope

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

func v1GCM(key [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func sealV1(key [32]byte, nonce, plaintext []byte) ([]byte, error) {
	aead, err := v1GCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

func openV1(key [32]byte, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := v1GCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrDecryptFailed
	}
	return pt, nil
}
