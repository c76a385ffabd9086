package keycrypt

import "fmt"

// KeyFormatError indicates malformed key material on import (bad base64 or
// bad DER). Non-retryable; surfaced to callers as a client error.
type KeyFormatError struct {
	Reason string
	Err    error
}

func (e *KeyFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("key format: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("key format: %s", e.Reason)
}

func (e *KeyFormatError) Unwrap() error { return e.Err }

// DecryptError indicates a failed decryption (wrong key material, truncated
// ciphertext, or tampering). Non-retryable.
type DecryptError struct {
	Reason string
	Err    error
}

func (e *DecryptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decrypt: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decrypt: %s", e.Reason)
}

func (e *DecryptError) Unwrap() error { return e.Err }
