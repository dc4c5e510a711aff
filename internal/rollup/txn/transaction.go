// Package txn implements the sequencer's transaction types: dynamic-fee
// transfers and cross-chain withdrawals, each wrapped in a recoverable
// signature envelope.
package txn

import (
	"errors"
	"fmt"

	"github.com/sergerad/nolemma/internal/address"
	"github.com/sergerad/nolemma/internal/rlpcanon"
	"github.com/sergerad/nolemma/internal/signature"
	"github.com/sergerad/nolemma/internal/signer"
)

// ChainID is the identifier every transaction and block in this network
// must carry.
const ChainID uint64 = 83479

// ErrWrongChain is returned when a header's ChainID does not match ChainID.
var ErrWrongChain = errors.New("txn: wrong chain id")

// ErrMalformed is returned for a transaction whose Kind does not match its
// populated payload.
var ErrMalformed = errors.New("txn: malformed transaction")

// TransactionHeader carries the fields common to every transaction kind.
type TransactionHeader struct {
	ChainID   uint64
	Sender    address.Address
	Recipient address.Address
	Amount    uint64
}

func (h TransactionHeader) validate() error {
	if h.ChainID != ChainID {
		return fmt.Errorf("%w: got %d want %d", ErrWrongChain, h.ChainID, ChainID)
	}
	return nil
}

// DynamicTxData is a dynamic-fee value transfer, modeled after EIP-1559
// fee fields without any execution semantics attached to them.
type DynamicTxData struct {
	Header               TransactionHeader
	MaxFeePerGas         uint64
	MaxPriorityFeePerGas uint64
}

// Hash returns the canonical digest of the dynamic transaction.
func (d DynamicTxData) Hash() ([32]byte, error) {
	return rlpcanon.HashStruct(d)
}

// WithdrawalTxData moves value to dest_chain. Withdrawals recipient is
// always the sender; there is no separate counterparty on this chain.
type WithdrawalTxData struct {
	Header    TransactionHeader
	DestChain uint64
}

// Hash returns the canonical digest of the withdrawal transaction.
func (w WithdrawalTxData) Hash() ([32]byte, error) {
	return rlpcanon.HashStruct(w)
}

// Kind discriminates the payload carried by a Transaction.
type Kind uint8

const (
	// KindDynamic marks a Transaction carrying DynamicTxData.
	KindDynamic Kind = iota
	// KindWithdrawal marks a Transaction carrying WithdrawalTxData.
	KindWithdrawal
)

// Transaction is a tagged union over the transaction kinds the sequencer
// accepts. Exactly one of Dynamic/Withdrawal is set, matching Kind.
type Transaction struct {
	Kind       Kind
	Dynamic    *DynamicTxData
	Withdrawal *WithdrawalTxData
}

// NewDynamic builds a dynamic transfer transaction from sender to a fresh
// random recipient address, with zeroed fee fields.
func NewDynamic(sender address.Address, amount uint64) Transaction {
	recipient := address.Random()
	return Transaction{
		Kind: KindDynamic,
		Dynamic: &DynamicTxData{
			Header: TransactionHeader{
				ChainID:   ChainID,
				Sender:    sender,
				Recipient: recipient,
				Amount:    amount,
			},
		},
	}
}

// NewWithdrawal builds a withdrawal of amount from sender to destChain. The
// recipient is the sender themselves: withdrawals exit to the sender's
// identity on the destination chain.
func NewWithdrawal(sender address.Address, amount uint64, destChain uint64) Transaction {
	return Transaction{
		Kind: KindWithdrawal,
		Withdrawal: &WithdrawalTxData{
			Header: TransactionHeader{
				ChainID:   ChainID,
				Sender:    sender,
				Recipient: sender,
				Amount:    amount,
			},
			DestChain: destChain,
		},
	}
}

// Hash dispatches to the payload's canonical digest.
func (t Transaction) Hash() ([32]byte, error) {
	switch t.Kind {
	case KindDynamic:
		if t.Dynamic == nil {
			return [32]byte{}, ErrMalformed
		}
		return t.Dynamic.Hash()
	case KindWithdrawal:
		if t.Withdrawal == nil {
			return [32]byte{}, ErrMalformed
		}
		return t.Withdrawal.Hash()
	default:
		return [32]byte{}, fmt.Errorf("%w: unknown kind %d", ErrMalformed, t.Kind)
	}
}

// Sender returns the sender address carried in the transaction's header.
func (t Transaction) Sender() (address.Address, error) {
	switch t.Kind {
	case KindDynamic:
		if t.Dynamic == nil {
			return address.Address{}, ErrMalformed
		}
		return t.Dynamic.Header.Sender, nil
	case KindWithdrawal:
		if t.Withdrawal == nil {
			return address.Address{}, ErrMalformed
		}
		return t.Withdrawal.Header.Sender, nil
	default:
		return address.Address{}, fmt.Errorf("%w: unknown kind %d", ErrMalformed, t.Kind)
	}
}

func (t Transaction) header() (TransactionHeader, error) {
	switch t.Kind {
	case KindDynamic:
		if t.Dynamic == nil {
			return TransactionHeader{}, ErrMalformed
		}
		return t.Dynamic.Header, nil
	case KindWithdrawal:
		if t.Withdrawal == nil {
			return TransactionHeader{}, ErrMalformed
		}
		return t.Withdrawal.Header, nil
	default:
		return TransactionHeader{}, fmt.Errorf("%w: unknown kind %d", ErrMalformed, t.Kind)
	}
}

// SignedTransaction pairs a Transaction with a recoverable signature over
// its canonical hash.
type SignedTransaction struct {
	Transaction Transaction
	Signature   signature.Signature
}

// NewSigned signs tx's canonical hash with s and returns the envelope.
func NewSigned(tx Transaction, s *signer.Signer) (SignedTransaction, error) {
	digest, err := tx.Hash()
	if err != nil {
		return SignedTransaction{}, err
	}
	sig, err := s.Sign(digest)
	if err != nil {
		return SignedTransaction{}, err
	}
	return SignedTransaction{Transaction: tx, Signature: sig}, nil
}

// Verify checks that the signature recovers to the address the
// transaction's header names as sender, that the header's chain ID is
// correct, that a dynamic transaction's MaxPriorityFeePerGas does not
// exceed its MaxFeePerGas, and that the signature verifies under that
// recovered key.
func (st SignedTransaction) Verify() error {
	header, err := st.header()
	if err != nil {
		return err
	}
	if err := header.validate(); err != nil {
		return err
	}
	if d := st.Transaction.Dynamic; st.Transaction.Kind == KindDynamic && d.MaxPriorityFeePerGas > d.MaxFeePerGas {
		return fmt.Errorf("txn: max priority fee %d exceeds max fee %d", d.MaxPriorityFeePerGas, d.MaxFeePerGas)
	}

	digest, err := st.Transaction.Hash()
	if err != nil {
		return err
	}
	pub, err := signature.Recover(st.Signature, digest)
	if err != nil {
		return fmt.Errorf("txn: recover signer: %w", err)
	}
	if !signature.Verify(pub, digest, st.Signature) {
		return fmt.Errorf("txn: signature does not verify")
	}

	recovered := address.FromPublicKey(pub)
	sender, err := st.Transaction.Sender()
	if err != nil {
		return err
	}
	if recovered != sender {
		return fmt.Errorf("txn: signature signer %s does not match declared sender %s", recovered, sender)
	}
	return nil
}

func (st SignedTransaction) header() (TransactionHeader, error) {
	return st.Transaction.header()
}
