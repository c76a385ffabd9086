package keycrypt

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// The key types below tag the same RSA primitives with their role so a
// group key can never be passed where a user identity key is expected (and
// vice versa). User keys wrap and unwrap envelopes; group keys seal and
// open the private-data document.

// UserPublicKey is the public half of a member's long-lived identity key.
type UserPublicKey struct {
	key *rsa.PublicKey
}

// UserPrivateKey is the private half of a member's identity key. It is
// persisted only in encrypted form (see the derived package) and exists in
// plaintext solely in process memory while serving one request.
type UserPrivateKey struct {
	key *rsa.PrivateKey
}

// GroupPublicKey seals a group's private-data document.
type GroupPublicKey struct {
	key *rsa.PublicKey
}

// GroupPrivateKey opens a group's private-data document. Possession of an
// envelope containing it is what grants a member access to the group.
type GroupPrivateKey struct {
	key *rsa.PrivateKey
}

// GenerateUserKeyPair creates a fresh identity key pair for a new user.
func GenerateUserKeyPair() (*UserPublicKey, *UserPrivateKey, error) {
	key, err := generateKey()
	if err != nil {
		return nil, nil, err
	}
	return &UserPublicKey{key: &key.PublicKey}, &UserPrivateKey{key: key}, nil
}

// GenerateGroupKeyPair creates a fresh key pair for a new group.
func GenerateGroupKeyPair() (*GroupPublicKey, *GroupPrivateKey, error) {
	key, err := generateKey()
	if err != nil {
		return nil, nil, err
	}
	return &GroupPublicKey{key: &key.PublicKey}, &GroupPrivateKey{key: key}, nil
}

func ImportUserPublicKey(encoded string) (*UserPublicKey, error) {
	pub, err := importPublic(encoded)
	if err != nil {
		return nil, err
	}
	return &UserPublicKey{key: pub}, nil
}

func ImportUserPrivateKey(encoded string) (*UserPrivateKey, error) {
	priv, err := importPrivate(encoded)
	if err != nil {
		return nil, err
	}
	return &UserPrivateKey{key: priv}, nil
}

// ImportUserPrivateKeyDER parses raw PKCS8 bytes, the form the identity
// key takes inside its derived-key envelope.
func ImportUserPrivateKeyDER(der []byte) (*UserPrivateKey, error) {
	priv, err := importPrivateDER(der)
	if err != nil {
		return nil, err
	}
	return &UserPrivateKey{key: priv}, nil
}

func ImportGroupPublicKey(encoded string) (*GroupPublicKey, error) {
	pub, err := importPublic(encoded)
	if err != nil {
		return nil, err
	}
	return &GroupPublicKey{key: pub}, nil
}

func ImportGroupPrivateKey(encoded string) (*GroupPrivateKey, error) {
	priv, err := importPrivate(encoded)
	if err != nil {
		return nil, err
	}
	return &GroupPrivateKey{key: priv}, nil
}

// Export returns the key as base64 SPKI, the form stored in the users table.
func (k *UserPublicKey) Export() (string, error) {
	return exportPublic(k.key)
}

// MarshalDER returns the raw PKCS8 encoding, the plaintext that gets
// sealed under the owner's derived key at rest.
func (k *UserPrivateKey) MarshalDER() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("marshaling identity private key: %w", err)
	}
	return der, nil
}

// Public derives the public half from the private key.
func (k *UserPrivateKey) Public() *UserPublicKey {
	return &UserPublicKey{key: &k.key.PublicKey}
}

// WrapFor encrypts the group public key under a member's identity public
// key, producing one half of a GroupUser envelope.
func (k *GroupPublicKey) WrapFor(member *UserPublicKey) (string, error) {
	exported, err := exportPublic(k.key)
	if err != nil {
		return "", err
	}
	return encryptChunked(exported, member.key)
}

// WrapFor encrypts the group private key under a member's identity public
// key, producing the other half of a GroupUser envelope.
func (k *GroupPrivateKey) WrapFor(member *UserPublicKey) (string, error) {
	exported, err := exportPrivate(k.key)
	if err != nil {
		return "", err
	}
	return encryptChunked(exported, member.key)
}

// UnwrapGroupPublicKey opens the public half of an envelope addressed to
// this identity key.
func (k *UserPrivateKey) UnwrapGroupPublicKey(wrapped string) (*GroupPublicKey, error) {
	exported, err := decryptChunked(wrapped, k.key)
	if err != nil {
		return nil, err
	}
	return ImportGroupPublicKey(exported)
}

// UnwrapGroupPrivateKey opens the private half of an envelope addressed to
// this identity key.
func (k *UserPrivateKey) UnwrapGroupPrivateKey(wrapped string) (*GroupPrivateKey, error) {
	exported, err := decryptChunked(wrapped, k.key)
	if err != nil {
		return nil, err
	}
	return ImportGroupPrivateKey(exported)
}

// SealDocument encrypts a group's private-data document (JSON text).
func (k *GroupPublicKey) SealDocument(plaintext string) (string, error) {
	return encryptChunked(plaintext, k.key)
}

// OpenDocument decrypts a group's private-data document.
func (k *GroupPrivateKey) OpenDocument(ciphertext string) (string, error) {
	return decryptChunked(ciphertext, k.key)
}
