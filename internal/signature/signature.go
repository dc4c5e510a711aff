// Package signature implements the sequencer's recoverable ECDSA signature
// envelope: a serializable {r, s, recovery_id} triple with conversions to
// the compact recoverable (65-byte) and non-recoverable (64-byte) wire
// forms used by secp256k1 recovery and verification.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// ErrMalformedSignature is returned when a compact byte form cannot be
// parsed into a Signature, or when a Signature's components are out of
// range.
var ErrMalformedSignature = errors.New("signature: malformed")

// Signature is a recoverable secp256k1 signature: {r, s, recovery_id}.
type Signature struct {
	R          *big.Int
	S          *big.Int
	RecoveryID uint8
}

// CompactRecoverable returns the 65-byte r||s||v wire form used for
// signature recovery.
func (s Signature) CompactRecoverable() ([65]byte, error) {
	var out [65]byte
	if err := s.fillRS(out[:64]); err != nil {
		return out, err
	}
	if s.RecoveryID > 3 {
		return out, fmt.Errorf("%w: recovery id %d out of range", ErrMalformedSignature, s.RecoveryID)
	}
	out[64] = byte(s.RecoveryID)
	return out, nil
}

// CompactNonRecoverable returns the 64-byte r||s wire form used for plain
// signature verification against a known public key.
func (s Signature) CompactNonRecoverable() ([64]byte, error) {
	var out [64]byte
	if err := s.fillRS(out[:]); err != nil {
		return out, err
	}
	return out, nil
}

func (s Signature) fillRS(dst []byte) error {
	if s.R == nil || s.S == nil {
		return fmt.Errorf("%w: nil r or s", ErrMalformedSignature)
	}
	rBytes := s.R.Bytes()
	sBytes := s.S.Bytes()
	if len(rBytes) > 32 || len(sBytes) > 32 {
		return fmt.Errorf("%w: r or s overflow 32 bytes", ErrMalformedSignature)
	}
	copy(dst[32-len(rBytes):32], rBytes)
	copy(dst[64-len(sBytes):64], sBytes)
	return nil
}

// FromCompactRecoverable parses a 65-byte r||s||v form into a Signature.
func FromCompactRecoverable(b []byte) (Signature, error) {
	if len(b) != 65 {
		return Signature{}, fmt.Errorf("%w: want 65 bytes, got %d", ErrMalformedSignature, len(b))
	}
	return Signature{
		R:          new(big.Int).SetBytes(b[:32]),
		S:          new(big.Int).SetBytes(b[32:64]),
		RecoveryID: b[64],
	}, nil
}

// Recover recovers the public key that produced sig over digest.
func Recover(sig Signature, digest [32]byte) (*ecdsa.PublicKey, error) {
	compact, err := sig.CompactRecoverable()
	if err != nil {
		return nil, err
	}
	pub, err := crypto.SigToPub(digest[:], compact[:])
	if err != nil {
		return nil, fmt.Errorf("signature: recover: %w", err)
	}
	return pub, nil
}

// Verify checks that sig is a valid non-recoverable ECDSA signature over
// digest for the given public key.
func Verify(pub *ecdsa.PublicKey, digest [32]byte, sig Signature) bool {
	compact, err := sig.CompactNonRecoverable()
	if err != nil {
		return false
	}
	pubBytes := crypto.FromECDSAPub(pub)
	return crypto.VerifySignature(pubBytes, digest[:], compact[:])
}
