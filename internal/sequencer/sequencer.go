// Package sequencer implements the permissioned single-writer actor that
// pools transactions and seals them into signed blocks at a fixed cadence.
package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sergerad/nolemma/internal/address"
	"github.com/sergerad/nolemma/internal/rollup/block"
	"github.com/sergerad/nolemma/internal/rollup/chain"
	"github.com/sergerad/nolemma/internal/rollup/txn"
	"github.com/sergerad/nolemma/internal/signer"
)

// BlockPeriod is the fixed interval between sealed blocks.
const BlockPeriod = 2 * time.Second

// Sequencer is the single-writer authority over the chain: one mutex
// guards pooling and sealing so that neither can observe the other
// mid-update.
type Sequencer struct {
	mu sync.Mutex

	signer *signer.Signer
	chain  *chain.Chain

	transactionsPool []txn.SignedTransaction
	withdrawalsPool  []txn.SignedTransaction
}

// New constructs a Sequencer identified by s, with an empty chain.
func New(s *signer.Signer) *Sequencer {
	return &Sequencer{
		signer: s,
		chain:  chain.New(),
	}
}

// Address returns the sequencer's signing identity.
func (sq *Sequencer) Address() address.Address {
	return sq.signer.Address
}

// AddTransaction pools a signed transaction, folding its hash into the
// chain's running Merkle tree immediately: the tree commits to every
// admitted transaction, not only the ones that end up sealed in the next
// block. AddTransaction does not itself verify st's signature — admission
// trust is established at the caller's boundary (see SignedTransaction.Verify).
func (sq *Sequencer) AddTransaction(st txn.SignedTransaction) error {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	switch st.Transaction.Kind {
	case txn.KindWithdrawal:
		if err := sq.chain.Withdraw(*st.Transaction.Withdrawal); err != nil {
			return fmt.Errorf("sequencer: withdraw: %w", err)
		}
		sq.withdrawalsPool = append(sq.withdrawalsPool, st)
	case txn.KindDynamic:
		if err := sq.chain.Transact(*st.Transaction.Dynamic); err != nil {
			return fmt.Errorf("sequencer: transact: %w", err)
		}
		sq.transactionsPool = append(sq.transactionsPool, st)
	default:
		return fmt.Errorf("sequencer: unknown transaction kind %d", st.Transaction.Kind)
	}
	return nil
}

// Seal builds, signs, and appends the next block from the currently
// pooled transactions, then clears the pools. It never suspends: all of
// its work runs under the sequencer's single lock with no blocking calls.
func (sq *Sequencer) Seal() (block.Block, error) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.sealLocked()
}

func (sq *Sequencer) sealLocked() (block.Block, error) {
	var parentDigest [32]byte
	var hasParent bool
	if head, ok := sq.chain.Head(); ok {
		digest, err := head.Hash()
		if err != nil {
			return block.Block{}, fmt.Errorf("sequencer: hash parent: %w", err)
		}
		parentDigest = digest
		hasParent = true
	}

	header := block.Header{
		Sequencer:        sq.signer.Address,
		Number:           sq.chain.Height(),
		Timestamp:        uint64(time.Now().Unix()),
		ParentDigest:     parentDigest,
		HasParent:        hasParent,
		WithdrawalsRoot:  sq.chain.WithdrawalsRoot(),
		TransactionsRoot: sq.chain.TransactionsRoot(),
	}
	signedHeader, err := block.NewSignedHeader(header, sq.signer)
	if err != nil {
		return block.Block{}, fmt.Errorf("sequencer: sign header: %w", err)
	}

	transactions := make([]txn.SignedTransaction, 0, len(sq.transactionsPool)+len(sq.withdrawalsPool))
	transactions = append(transactions, sq.transactionsPool...)
	transactions = append(transactions, sq.withdrawalsPool...)
	sq.transactionsPool = nil
	sq.withdrawalsPool = nil

	b := block.New(signedHeader, transactions)
	sq.chain.Push(b)
	return b, nil
}

// Head returns the most recently sealed block, and false if no block has
// been sealed yet.
func (sq *Sequencer) Head() (block.Block, bool) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.chain.Head()
}

// Height returns the number of sealed blocks.
func (sq *Sequencer) Height() uint64 {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.chain.Height()
}

// Run seals a block every period until ctx is canceled, sending each
// sealed block on outbound. outbound is expected to be a buffered or
// actively-drained channel (typically read by a goroutine that publishes
// blocks to the gossip network); a nil outbound skips the send. Run does
// not retry a blocked send past ctx cancellation.
func (sq *Sequencer) Run(ctx context.Context, period time.Duration, outbound chan<- block.Block, log *zap.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log.Info("sequencer started", zap.Duration("block_period", period), zap.String("sequencer", sq.signer.Address.Hex()))

	for {
		select {
		case <-ctx.Done():
			log.Info("sequencer stopped")
			return
		case <-ticker.C:
			b, err := sq.Seal()
			if err != nil {
				log.Error("sequencer: seal", zap.Error(err))
				continue
			}
			log.Info("sealed block", zap.Uint64("number", b.Number()), zap.Int("transactions", len(b.Transactions)))
			if outbound == nil {
				continue
			}
			select {
			case outbound <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}
