package domain

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKey identifies a caller: the base58 encoding of an ed25519 public key.
// The ledger treats it as an opaque comparable value; only the auth layer ever
// verifies signatures against it.
type PublicKey string

// ParsePublicKey validates that s is a well-formed base58 ed25519 public key.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: malformed public key", ErrInvalidInput)
	}
	if len(raw) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key must be %d bytes", ErrInvalidInput, ed25519.PublicKeySize)
	}
	return PublicKey(s), nil
}

// Bytes returns the decoded 32-byte key. The receiver must have come from
// ParsePublicKey.
func (k PublicKey) Bytes() []byte {
	raw, err := base58.Decode(string(k))
	if err != nil {
		return nil
	}
	return raw
}

func (k PublicKey) String() string { return string(k) }
