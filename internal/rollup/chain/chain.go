// Package chain implements the sequencer's in-memory canonical chain: an
// ordered list of sealed blocks plus the two incremental Merkle trees that
// accumulate commitments to every transaction and withdrawal ever pooled.
package chain

import (
	"github.com/sergerad/nolemma/internal/merkle"
	"github.com/sergerad/nolemma/internal/rollup/block"
	"github.com/sergerad/nolemma/internal/rollup/txn"
)

// Chain holds the sealed block history and the running Merkle trees over
// pooled transactions and withdrawals. The zero value is not usable;
// construct with New. Not safe for concurrent use on its own — callers
// (the sequencer) are expected to serialize access.
type Chain struct {
	blocks           []block.Block
	withdrawalsTree  *merkle.Tree
	transactionsTree *merkle.Tree
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{
		withdrawalsTree:  merkle.New(),
		transactionsTree: merkle.New(),
	}
}

// Head returns the most recently sealed block, and false if the chain is
// empty.
func (c *Chain) Head() (block.Block, bool) {
	if len(c.blocks) == 0 {
		return block.Block{}, false
	}
	return c.blocks[len(c.blocks)-1], true
}

// Height returns the number of sealed blocks.
func (c *Chain) Height() uint64 {
	return uint64(len(c.blocks))
}

// Push appends a sealed block to the chain.
func (c *Chain) Push(b block.Block) {
	c.blocks = append(c.blocks, b)
}

// WithdrawalsRoot returns the current root of the withdrawals tree.
func (c *Chain) WithdrawalsRoot() [32]byte {
	return c.withdrawalsTree.Root()
}

// TransactionsRoot returns the current root of the transactions tree.
func (c *Chain) TransactionsRoot() [32]byte {
	return c.transactionsTree.Root()
}

// Withdraw appends a withdrawal's hash to the withdrawals tree.
func (c *Chain) Withdraw(tx txn.WithdrawalTxData) error {
	digest, err := tx.Hash()
	if err != nil {
		return err
	}
	_, _, err = c.withdrawalsTree.Append(digest[:])
	return err
}

// Transact appends a dynamic transaction's hash to the transactions tree.
func (c *Chain) Transact(tx txn.DynamicTxData) error {
	digest, err := tx.Hash()
	if err != nil {
		return err
	}
	_, _, err = c.transactionsTree.Append(digest[:])
	return err
}
