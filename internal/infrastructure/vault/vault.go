// Package vault provides authenticated symmetric encryption for stored
// tenant credentials. The engine only ever sees decrypted credentials at
// call time; everything at rest is ciphertext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength  = 32 // AES-256
	nonceSize  = 12
	tagSize    = 16
	kdfRounds  = 210_000
)

var (
	ErrInvalidCiphertext = errors.New("vault: invalid ciphertext")
	ErrDecryptionFailed  = errors.New("vault: decryption failed")
	ErrMissingPassphrase = errors.New("vault: passphrase must not be empty")
	ErrMissingSalt       = errors.New("vault: salt must not be empty")
)

// Vault encrypts and decrypts credential blobs with AES-256-GCM. The key is
// derived once from a passphrase and salt via PBKDF2-SHA256.
//
// Wire format: base64( nonce ∥ authTag ∥ ciphertext ).
type Vault struct {
	aead cipher.AEAD
}

// New derives the encryption key and prepares the AEAD cipher.
func New(passphrase, salt string) (*Vault, error) {
	if passphrase == "" {
		return nil, ErrMissingPassphrase
	}
	if salt == "" {
		return nil, ErrMissingSalt
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(salt), kdfRounds, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to init cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to init GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext and returns the base64 wire format.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: failed to generate nonce: %w", err)
	}

	// Seal appends the auth tag after the ciphertext; the wire format wants
	// nonce, tag, ciphertext in that order.
	sealed := v.aead.Seal(nil, nonce, plaintext, nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+tagSize+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a base64 wire-format blob.
func (v *Vault) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	if len(raw) < nonceSize+tagSize {
		return nil, ErrInvalidCiphertext
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// EncryptJSON marshals a structured credential value and encrypts it.
func (v *Vault) EncryptJSON(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("vault: failed to marshal credentials: %w", err)
	}
	return v.Encrypt(raw)
}

// DecryptJSON decrypts a blob and unmarshals it into out.
func (v *Vault) DecryptJSON(encoded string, out any) error {
	raw, err := v.Decrypt(encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("vault: failed to unmarshal credentials: %w", err)
	}
	return nil
}
