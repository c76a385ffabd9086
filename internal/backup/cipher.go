package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// SnapshotCipher encrypts database snapshots with an X25519 age key pair.
// The public key sits in plaintext next to the config; the private key is
// itself encrypted with a passphrase.
type SnapshotCipher struct {
	publicKeyPath  string
	privateKeyPath string
}

func NewSnapshotCipher(publicKeyPath, privateKeyPath string) *SnapshotCipher {
	return &SnapshotCipher{
		publicKeyPath:  publicKeyPath,
		privateKeyPath: privateKeyPath,
	}
}

// Setup generates a fresh key pair: the public key in plaintext, the
// private key passphrase-encrypted with age scrypt.
func (c *SnapshotCipher) Setup(passphrase string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.publicKeyPath), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.privateKeyPath), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	if err := os.WriteFile(c.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	privFile, err := os.OpenFile(c.privateKeyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating private key file: %w", err)
	}
	defer privFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	w, err := age.Encrypt(privFile, recipient)
	if err != nil {
		return fmt.Errorf("encrypting private key: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing private key: %w", err)
	}
	return nil
}

// Encrypt reads a plaintext snapshot from r and writes age ciphertext to w
// using the stored public key. Encryption needs no passphrase.
func (c *SnapshotCipher) Encrypt(r io.Reader, w io.Writer) error {
	raw, err := os.ReadFile(c.publicKeyPath)
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}
	recipient, err := age.ParseX25519Recipient(strings.TrimSpace(string(raw)))
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Decrypt unlocks the private key with the passphrase and decrypts a
// snapshot from r into w.
func (c *SnapshotCipher) Decrypt(passphrase string, r io.Reader, w io.Writer) error {
	privData, err := os.Open(c.privateKeyPath)
	if err != nil {
		return fmt.Errorf("opening private key file: %w", err)
	}
	defer privData.Close()

	scryptIdentity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}
	keyReader, err := age.Decrypt(privData, scryptIdentity)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}
	keyText, err := io.ReadAll(keyReader)
	if err != nil {
		return fmt.Errorf("reading private key: %w", err)
	}
	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(keyText)))
	if err != nil {
		return fmt.Errorf("parsing private key: %w", err)
	}

	plainReader, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if _, err := io.Copy(w, plainReader); err != nil {
		return fmt.Errorf("reading decrypted snapshot: %w", err)
	}
	return nil
}
