// Package keycrypt implements the asymmetric key codec shared by user
// identity keys and group keys: RSA-OAEP with a 2048-bit modulus and
// SHA-256, base64 SPKI/PKCS8 import/export, and chunked encryption of
// arbitrary-length strings.
//
// RSA-OAEP is not a bulk cipher, so plaintext is split into chunks of at
// most 190 bytes (2048/8 − 2·32 − 2), each chunk encrypted independently,
// base64-encoded, and joined with ":". OAEP padding is randomized, so
// ciphertext is not deterministic and must never be used as a lookup key.
package keycrypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// modulusBits is fixed by the wire format: the chunk arithmetic below
	// and every stored envelope assume a 2048-bit key.
	modulusBits = 2048

	// maxChunkSize is the largest OAEP payload for a 2048-bit key with
	// SHA-256: 2048/8 − 2·32 − 2.
	maxChunkSize = modulusBits/8 - 2*sha256.Size - 2
)

// generateKey creates a fresh RSA key pair. Failure means the entropy
// source or the library is broken; callers treat it as fatal.
func generateKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, modulusBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key pair: %w", err)
	}
	return key, nil
}

// encryptChunked splits plaintext into chunks of at most maxChunkSize
// bytes (UTF-8 byte boundaries, not code points), encrypts each under pub,
// and joins the base64 ciphertexts with ":". The empty string encrypts to
// the empty string.
func encryptChunked(plaintext string, pub *rsa.PublicKey) (string, error) {
	data := []byte(plaintext)

	chunks := make([]string, 0, (len(data)+maxChunkSize-1)/maxChunkSize)
	for off := 0; off < len(data); off += maxChunkSize {
		end := off + maxChunkSize
		if end > len(data) {
			end = len(data)
		}

		ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, data[off:end], nil)
		if err != nil {
			return "", fmt.Errorf("encrypting chunk at offset %d: %w", off, err)
		}
		chunks = append(chunks, base64.StdEncoding.EncodeToString(ct))
	}

	return strings.Join(chunks, ":"), nil
}

// decryptChunked reverses encryptChunked. Any failing segment aborts the
// whole decryption with a DecryptError; a partial result is never returned.
func decryptChunked(ciphertext string, priv *rsa.PrivateKey) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	var out strings.Builder
	for i, chunk := range strings.Split(ciphertext, ":") {
		raw, err := base64.StdEncoding.DecodeString(chunk)
		if err != nil {
			return "", &DecryptError{Reason: fmt.Sprintf("segment %d is not valid base64", i), Err: err}
		}

		pt, err := rsa.DecryptOAEP(sha256.New(), nil, priv, raw, nil)
		if err != nil {
			return "", &DecryptError{Reason: fmt.Sprintf("segment %d", i), Err: err}
		}
		out.Write(pt)
	}

	return out.String(), nil
}

// exportPublic encodes a public key as base64 SPKI.
func exportPublic(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// exportPrivate encodes a private key as base64 PKCS8.
func exportPrivate(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("marshaling private key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

func importPublic(encoded string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &KeyFormatError{Reason: "public key is not valid base64", Err: err}
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, &KeyFormatError{Reason: "public key is not valid SPKI", Err: err}
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, &KeyFormatError{Reason: "public key is not RSA"}
	}
	return pub, nil
}

func importPrivate(encoded string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &KeyFormatError{Reason: "private key is not valid base64", Err: err}
	}
	return importPrivateDER(der)
}

func importPrivateDER(der []byte) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, &KeyFormatError{Reason: "private key is not valid PKCS8", Err: err}
	}

	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, &KeyFormatError{Reason: "private key is not RSA"}
	}
	return priv, nil
}
