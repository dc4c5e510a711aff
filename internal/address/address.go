// Package address implements the sequencer's 20-byte account identity,
// derived from a secp256k1 public key the same way an Ethereum address is.
package address

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Length is the size of an Address in bytes.
const Length = 20

// Address is a 20-byte account identity.
type Address [Length]byte

// ErrMalformedAddress is returned when a hex string cannot be parsed as an
// Address.
var ErrMalformedAddress = errors.New("address: malformed hex string")

// FromPublicKey derives an Address from a secp256k1 public key: keccak256 of
// the 64-byte uncompressed public key (the leading 0x04 tag byte dropped),
// last 20 bytes.
func FromPublicKey(pub *ecdsa.PublicKey) Address {
	uncompressed := crypto.FromECDSAPub(pub) // 65 bytes: 0x04 || X || Y
	digest := crypto.Keccak256(uncompressed[1:])
	var a Address
	copy(a[:], digest[len(digest)-Length:])
	return a
}

// Random generates a random Address. Used for the demo dynamic-transaction
// recipient (spec's random-recipient affordance).
func Random() Address {
	var a Address
	if _, err := rand.Read(a[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is broken,
		// which is unrecoverable for a process that signs transactions.
		panic(fmt.Sprintf("address: random: %v", err))
	}
	return a
}

// Bytes returns the address's raw bytes.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the "0x"-prefixed lowercase hex encoding.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// FromHex parses a "0x"-prefixed or bare hex string into an Address.
func FromHex(s string) (Address, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrMalformedAddress, err)
	}
	if len(b) != Length {
		return Address{}, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedAddress, Length, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// MarshalText implements encoding.TextMarshaler so Address round-trips
// through JSON as a hex string.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
