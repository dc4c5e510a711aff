// Package merkle implements an append-only incremental Merkle tree over
// sha256, used by the chain to accumulate commitments to every sealed
// transaction and withdrawal without re-hashing the full leaf set on every
// append.
package merkle

import (
	"crypto/sha256"
	"errors"
	"sync"
)

// Depth is the fixed depth of the tree, bounding it to 2^Depth leaves.
const Depth = 32

const maxLeaves = 1 << Depth

// ErrFull is returned by Append once the tree has reached its maximum
// capacity of 2^Depth leaves.
var ErrFull = errors.New("merkle: tree is full")

// ErrBadIndex is returned by Proof for an index that has not been appended.
var ErrBadIndex = errors.New("merkle: index out of range")

var (
	domainLeaf = []byte{0x00}
	domainNode = []byte{0x01}
)

// emptyHashes[i] is the root of an empty subtree of depth i (0 = leaf level).
var emptyHashes [Depth + 1][32]byte

func init() {
	h := sha256.New()
	h.Write(domainLeaf)
	copy(emptyHashes[0][:], h.Sum(nil))

	for i := 1; i <= Depth; i++ {
		h.Reset()
		h.Write(domainNode)
		h.Write(emptyHashes[i-1][:])
		h.Write(emptyHashes[i-1][:])
		copy(emptyHashes[i][:], h.Sum(nil))
	}
}

func hashLeaf(data []byte) [32]byte {
	h := sha256.New()
	h.Write(domainLeaf)
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashNode(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write(domainNode)
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Tree is an append-only incremental Merkle tree. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Tree struct {
	mu       sync.RWMutex
	hashes   [][32]byte
	filledAt [Depth][32]byte
	nextIdx  uint64
	root     [32]byte
}

// New returns an empty tree, rooted at the well-known empty-subtree hash.
func New() *Tree {
	return &Tree{root: emptyHashes[Depth]}
}

// Root returns the current root.
func (t *Tree) Root() [32]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Len returns the number of leaves appended so far.
func (t *Tree) Len() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIdx
}

// Append hashes data as the next leaf and folds it into the root in
// O(Depth) time using the filled-subtree cache. It returns the leaf's index
// and the tree's new root.
func (t *Tree) Append(data []byte) (uint64, [32]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextIdx >= maxLeaves {
		return 0, [32]byte{}, ErrFull
	}

	idx := t.nextIdx
	leaf := hashLeaf(data)
	t.hashes = append(t.hashes, leaf)
	t.nextIdx++
	t.root = t.incrementalRoot(idx, leaf)
	return idx, t.root, nil
}

func (t *Tree) incrementalRoot(index uint64, leaf [32]byte) [32]byte {
	current := leaf
	for level := 0; level < Depth; level++ {
		if index%2 == 0 {
			t.filledAt[level] = current
			current = hashNode(current, emptyHashes[level])
		} else {
			current = hashNode(t.filledAt[level], current)
		}
		index /= 2
	}
	return current
}

// Proof is an inclusion proof for the leaf at Index against some root.
type Proof struct {
	Index    uint64
	Siblings [Depth][32]byte
}

// Proof rebuilds the full leaf layer to produce an inclusion proof for the
// leaf at index. It is O(n) and intended for diagnostics and tests, not the
// sealing hot path.
func (t *Tree) Proof(index uint64) (*Proof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index >= t.nextIdx {
		return nil, ErrBadIndex
	}

	proof := &Proof{Index: index}
	layer := make([][32]byte, t.nextIdx)
	copy(layer, t.hashes)

	idx := index
	for level := 0; level < Depth; level++ {
		if len(layer)%2 != 0 {
			layer = append(layer, emptyHashes[level])
		}
		sibIdx := idx ^ 1
		if sibIdx < uint64(len(layer)) {
			proof.Siblings[level] = layer[sibIdx]
		} else {
			proof.Siblings[level] = emptyHashes[level]
		}

		next := make([][32]byte, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next[i/2] = hashNode(layer[i], layer[i+1])
		}
		layer = next
		idx /= 2
	}
	return proof, nil
}

// VerifyProof checks a Proof for leafData against root.
func VerifyProof(leafData []byte, proof *Proof, root [32]byte) bool {
	if proof == nil {
		return false
	}
	current := hashLeaf(leafData)
	idx := proof.Index
	for level := 0; level < Depth; level++ {
		sibling := proof.Siblings[level]
		if idx%2 == 0 {
			current = hashNode(current, sibling)
		} else {
			current = hashNode(sibling, current)
		}
		idx /= 2
	}
	return current == root
}
