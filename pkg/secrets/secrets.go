// Package secrets handles decryption of provider credentials. API keys
// are stored and transmitted AES-256-GCM encrypted and only opened
// immediately before the provider client is configured.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Decryptor opens credentials sealed with the shared encryption key.
type Decryptor struct {
	key [32]byte
}

// NewDecryptor derives a 256-bit key from the configured passphrase.
func NewDecryptor(passphrase string) (*Decryptor, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("encryption passphrase cannot be empty")
	}
	return &Decryptor{key: sha256.Sum256([]byte(passphrase))}, nil
}

// Decrypt opens a base64-encoded nonce||ciphertext payload.
func (d *Decryptor) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("credential is not valid base64: %w", err)
	}

	gcm, err := d.aead()
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("credential payload too short")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plaintext), nil
}

// Encrypt seals a credential for storage. Used by tooling and tests;
// the integration path only decrypts.
func (d *Decryptor) Encrypt(plaintext string) (string, error) {
	gcm, err := d.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (d *Decryptor) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(d.key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return gcm, nil
}
