// Package ledger implements the job ledger core: deterministic address
// derivation and the four state transitions. Every function here is pure;
// persistence and ordering are the caller's concern.
package ledger

import (
	"crypto/sha256"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"github.com/cloudmesh/ledger/internal/domain"
)

// addressSeed prefixes every job address derivation.
const addressSeed = "job"

// derivationMarker terminates the hash input, separating derived addresses
// from anything a keypair could produce.
const derivationMarker = "ProgramDerivedAddress"

// domainTag separates this ledger's address space from other deployments
// hashing the same seeds.
var domainTag = sha256.Sum256([]byte("cloudmesh.ledger.v1"))

// DeriveJobAddress computes the deterministic address for the job identified
// by (owner, title), searching bump values from 255 downward for the first
// candidate that is not a valid ed25519 curve point. Identical inputs always
// yield the identical (address, bump) pair. Returns ErrAddressSpaceExhausted
// if no bump yields a valid address.
func DeriveJobAddress(owner domain.PublicKey, title string) (domain.Address, uint8, error) {
	ownerRaw := owner.Bytes()
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		h.Write([]byte(addressSeed))
		h.Write(ownerRaw)
		h.Write([]byte(title))
		h.Write([]byte{byte(bump)})
		h.Write(domainTag[:])
		h.Write([]byte(derivationMarker))
		candidate := h.Sum(nil)

		if offCurve(candidate) {
			return domain.Address(base58.Encode(candidate)), uint8(bump), nil
		}
	}
	return "", 0, domain.ErrAddressSpaceExhausted
}

// offCurve reports whether b does not decode to an ed25519 curve point. Job
// addresses must be off-curve so that no keypair can ever sign for them.
func offCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err != nil
}
