package block

import (
	"testing"

	"github.com/sergerad/nolemma/internal/rollup/txn"
	"github.com/sergerad/nolemma/internal/signer"
)

func mustSigner(t *testing.T) *signer.Signer {
	t.Helper()
	s, err := signer.NewRandom()
	if err != nil {
		t.Fatalf("signer.NewRandom: %v", err)
	}
	return s
}

func mustSignedTx(t *testing.T, s *signer.Signer) txn.SignedTransaction {
	t.Helper()
	tx := txn.NewDynamic(s.Address, 1)
	st, err := txn.NewSigned(tx, s)
	if err != nil {
		t.Fatalf("txn.NewSigned: %v", err)
	}
	return st
}

func TestNewSignedHeader_VerifiesAsSequencer(t *testing.T) {
	s := mustSigner(t)
	header := Header{
		Sequencer: s.Address,
		Number:    0,
		Timestamp: 1,
	}
	signed, err := NewSignedHeader(header, s)
	if err != nil {
		t.Fatalf("NewSignedHeader: %v", err)
	}
	blk := New(signed, nil)
	if err := blk.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestBlock_RejectsWrongSequencer(t *testing.T) {
	sequencer := mustSigner(t)
	impostor := mustSigner(t)

	header := Header{Sequencer: sequencer.Address, Number: 0}
	signed, err := NewSignedHeader(header, impostor)
	if err != nil {
		t.Fatalf("NewSignedHeader: %v", err)
	}
	blk := New(signed, nil)
	if err := blk.Verify(); err == nil {
		t.Fatal("expected verification failure for mismatched sequencer/signer")
	}
}

func TestBlock_RejectsTamperedNumber(t *testing.T) {
	s := mustSigner(t)
	header := Header{Sequencer: s.Address, Number: 5}
	signed, err := NewSignedHeader(header, s)
	if err != nil {
		t.Fatalf("NewSignedHeader: %v", err)
	}
	blk := New(signed, nil)
	blk.Signed.Header.Number = 6
	if err := blk.Verify(); err == nil {
		t.Fatal("expected verification failure for tampered block number")
	}
}

func TestBlock_NumberAndHash(t *testing.T) {
	s := mustSigner(t)
	header := Header{Sequencer: s.Address, Number: 3}
	signed, err := NewSignedHeader(header, s)
	if err != nil {
		t.Fatalf("NewSignedHeader: %v", err)
	}
	tx := mustSignedTx(t, s)
	blk := New(signed, []txn.SignedTransaction{tx})

	if blk.Number() != 3 {
		t.Fatalf("expected number 3, got %d", blk.Number())
	}
	h1, err := blk.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := header.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Fatal("block hash should equal its header's hash")
	}
}

func TestHeader_ParentDigestAffectsHash(t *testing.T) {
	base := Header{Sequencer: [20]byte{1}, Number: 1}
	withParent := base
	withParent.HasParent = true
	withParent.ParentDigest = [32]byte{9, 9, 9}

	h1, err := base.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := withParent.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("adding a parent digest should change the header hash")
	}
}
