// Package block implements sealed sequencer blocks: a signed header
// committing to the chain's transaction and withdrawal Merkle roots, plus
// the list of transactions it carries.
package block

import (
	"errors"
	"fmt"

	"github.com/sergerad/nolemma/internal/address"
	"github.com/sergerad/nolemma/internal/rlpcanon"
	"github.com/sergerad/nolemma/internal/rollup/txn"
	"github.com/sergerad/nolemma/internal/signature"
	"github.com/sergerad/nolemma/internal/signer"
)

// ErrMalformed is returned when a block's signature does not match its
// declared sequencer.
var ErrMalformed = errors.New("block: malformed")

// Header carries the metadata a sequencer commits to when sealing a block.
// ParentDigest is the zero digest for the genesis block.
type Header struct {
	Sequencer        address.Address
	Number           uint64
	Timestamp        uint64
	ParentDigest     [32]byte
	HasParent        bool
	WithdrawalsRoot  [32]byte
	TransactionsRoot [32]byte
}

// Hash returns the canonical digest of the header. Block identity and the
// header signature both derive from this value; the transaction list is
// not part of the signed commitment.
func (h Header) Hash() ([32]byte, error) {
	return rlpcanon.HashStruct(h)
}

// SignedHeader pairs a Header with the sequencer's recoverable signature
// over its hash.
type SignedHeader struct {
	Header    Header
	Signature signature.Signature
}

// NewSignedHeader signs header's hash with s.
func NewSignedHeader(header Header, s *signer.Signer) (SignedHeader, error) {
	digest, err := header.Hash()
	if err != nil {
		return SignedHeader{}, err
	}
	sig, err := s.Sign(digest)
	if err != nil {
		return SignedHeader{}, err
	}
	return SignedHeader{Header: header, Signature: sig}, nil
}

// Block is a sealed header plus the transactions it commits to via the
// chain's Merkle roots.
type Block struct {
	Signed       SignedHeader
	Transactions []txn.SignedTransaction
}

// New constructs a Block from a signed header and its transaction list.
func New(signed SignedHeader, transactions []txn.SignedTransaction) Block {
	return Block{Signed: signed, Transactions: transactions}
}

// Hash returns the block's identity digest: its header's hash.
func (b Block) Hash() ([32]byte, error) {
	return b.Signed.Header.Hash()
}

// Number returns the block's height.
func (b Block) Number() uint64 {
	return b.Signed.Header.Number
}

// Verify checks that the header's signature recovers to the address the
// header names as sequencer.
func (b Block) Verify() error {
	digest, err := b.Signed.Header.Hash()
	if err != nil {
		return err
	}
	pub, err := signature.Recover(b.Signed.Signature, digest)
	if err != nil {
		return fmt.Errorf("block: recover sequencer: %w", err)
	}
	if !signature.Verify(pub, digest, b.Signed.Signature) {
		return fmt.Errorf("%w: signature does not verify", ErrMalformed)
	}
	recovered := address.FromPublicKey(pub)
	if recovered != b.Signed.Header.Sequencer {
		return fmt.Errorf("%w: signer %s does not match declared sequencer %s", ErrMalformed, recovered, b.Signed.Header.Sequencer)
	}
	return nil
}
