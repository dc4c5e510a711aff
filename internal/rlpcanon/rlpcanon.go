// Package rlpcanon is the sequencer's canonical, deterministic encoding
// used everywhere a digest must be stable across peers: header hashing,
// transaction hashing, and gossip wire payloads.
//
// It is a thin wrapper over go-ethereum's rlp package. RLP's field-order
// based encoding is deterministic and round-trippable, which is all spec
// requires of a "canonical byte encoding" (there is no dependency on map
// ordering, allocation addresses, or float semantics).
package rlpcanon

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Encode returns the canonical RLP encoding of v.
func Encode(v any) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// Decode parses the canonical RLP encoding of b into v.
func Decode(b []byte, v any) error {
	return rlp.DecodeBytes(b, v)
}

// HashStruct returns keccak256(rlp(v)), the digest used for signing and
// content-addressing.
func HashStruct(v any) ([32]byte, error) {
	b, err := Encode(v)
	if err != nil {
		return [32]byte{}, err
	}
	return [32]byte(crypto.Keccak256Hash(b)), nil
}
