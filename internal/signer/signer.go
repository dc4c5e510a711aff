// Package signer holds a sequencer identity's secp256k1 keypair and signs
// 32-byte digests with recoverable ECDSA signatures.
package signer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/sergerad/nolemma/internal/address"
	"github.com/sergerad/nolemma/internal/signature"
)

// Signer holds a secp256k1 secret key, its derived public key, and the
// derived Address.
type Signer struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
	Address    address.Address
}

// NewRandom generates a keypair from the OS's cryptographically strong RNG.
func NewRandom() (*Signer, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("signer: generate key: %w", err)
	}
	return fromPrivateKey(priv), nil
}

// NewFromHex parses a 32-byte secp256k1 secret key from hex text.
func NewFromHex(hexKey string) (*Signer, error) {
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("signer: parse secret key: %w", err)
	}
	return fromPrivateKey(priv), nil
}

func fromPrivateKey(priv *ecdsa.PrivateKey) *Signer {
	return &Signer{
		PrivateKey: priv,
		PublicKey:  &priv.PublicKey,
		Address:    address.FromPublicKey(&priv.PublicKey),
	}
}

// Sign produces a recoverable ECDSA signature over a 32-byte digest.
//
// No nonce-reuse protection is added beyond what go-ethereum's crypto.Sign
// provides (RFC-6979 deterministic k).
func (s *Signer) Sign(digest [32]byte) (signature.Signature, error) {
	compact, err := crypto.Sign(digest[:], s.PrivateKey)
	if err != nil {
		return signature.Signature{}, fmt.Errorf("signer: sign: %w", err)
	}
	return signature.FromCompactRecoverable(compact)
}
