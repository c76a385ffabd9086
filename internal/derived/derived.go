// Package derived implements the password-derived symmetric key that
// protects a user's identity private key at rest: PBKDF2-HMAC-SHA256
// (100000 iterations) producing a 256-bit AES-GCM key.
//
// The key is deterministic given (password, salt) and is never persisted;
// it is recomputed at login and then travels with the session as a bearer
// credential so later requests can unlock the identity key without the
// password.
package derived

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"giftnest/internal/keycrypt"
)

const (
	iterations = 100000
	keySize    = 32 // AES-256
	saltSize   = 16 // 128-bit salt, generated once per user
	ivSize     = 12 // 96-bit GCM nonce
)

// Key is a password-derived AES-256-GCM key.
type Key struct {
	raw []byte
}

// GenerateSalt returns a fresh random base64 salt for a new user.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// Derive computes the key for (password, salt). Deterministic: the same
// inputs always produce the same key material.
func Derive(password string, saltBase64 string) (*Key, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, &keycrypt.KeyFormatError{Reason: "salt is not valid base64", Err: err}
	}

	return &Key{raw: pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)}, nil
}

// Import reconstructs a key from its base64 transport form.
func Import(encoded string) (*Key, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &keycrypt.KeyFormatError{Reason: "derived key is not valid base64", Err: err}
	}
	if len(raw) != keySize {
		return nil, &keycrypt.KeyFormatError{Reason: fmt.Sprintf("derived key must be %d bytes, got %d", keySize, len(raw))}
	}
	return &Key{raw: raw}, nil
}

// Export returns the base64 transport form of the raw key.
func (k *Key) Export() string {
	return base64.StdEncoding.EncodeToString(k.raw)
}

// Encrypt seals plaintext with a random 96-bit IV. The wire format is
// base64(iv):base64(ciphertext+tag).
func (k *Key) Encrypt(plaintext []byte) (string, error) {
	gcm, err := k.aead()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating IV: %w", err)
	}

	ct := gcm.Seal(nil, iv, plaintext, nil)
	return base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt. GCM authenticates the
// ciphertext, so tampering or a wrong key surfaces as a DecryptError; it
// fails closed, never returning partial plaintext.
func (k *Key) Decrypt(sealed string) ([]byte, error) {
	parts := strings.SplitN(sealed, ":", 2)
	if len(parts) != 2 {
		return nil, &keycrypt.DecryptError{Reason: "sealed value must be iv:ciphertext"}
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, &keycrypt.DecryptError{Reason: "IV is not valid base64", Err: err}
	}
	if len(iv) != ivSize {
		return nil, &keycrypt.DecryptError{Reason: fmt.Sprintf("IV must be %d bytes, got %d", ivSize, len(iv))}
	}

	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, &keycrypt.DecryptError{Reason: "ciphertext is not valid base64", Err: err}
	}

	gcm, err := k.aead()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, &keycrypt.DecryptError{Reason: "authentication failed", Err: err}
	}
	return plaintext, nil
}

func (k *Key) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.raw)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
