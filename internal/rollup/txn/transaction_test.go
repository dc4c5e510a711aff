package txn

import (
	"testing"

	"github.com/sergerad/nolemma/internal/address"
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

func TestNewDynamic_SetsChainIDAndSender(t *testing.T) {
	s := mustSigner(t)
	tx := NewDynamic(s.Address, 100)
	if tx.Kind != KindDynamic {
		t.Fatalf("expected KindDynamic, got %v", tx.Kind)
	}
	if tx.Dynamic.Header.ChainID != ChainID {
		t.Fatalf("chain id mismatch: got %d want %d", tx.Dynamic.Header.ChainID, ChainID)
	}
	sender, err := tx.Sender()
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if sender != s.Address {
		t.Fatal("sender does not match signer address")
	}
}

func TestNewWithdrawal_RecipientIsSender(t *testing.T) {
	s := mustSigner(t)
	tx := NewWithdrawal(s.Address, 50, 7)
	if tx.Withdrawal.Header.Recipient != s.Address {
		t.Fatal("withdrawal recipient should equal sender")
	}
	if tx.Withdrawal.DestChain != 7 {
		t.Fatalf("expected dest chain 7, got %d", tx.Withdrawal.DestChain)
	}
}

func TestHash_DynamicAndWithdrawalDiffer(t *testing.T) {
	s := mustSigner(t)
	dyn := NewDynamic(s.Address, 10)
	wd := NewWithdrawal(s.Address, 10, 1)

	h1, err := dyn.Hash()
	if err != nil {
		t.Fatalf("dyn.Hash: %v", err)
	}
	h2, err := wd.Hash()
	if err != nil {
		t.Fatalf("wd.Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("dynamic and withdrawal transactions hashed to the same digest")
	}
}

func TestSignedTransaction_RoundTrip(t *testing.T) {
	s := mustSigner(t)
	tx := NewDynamic(s.Address, 25)

	signed, err := NewSigned(tx, s)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	if err := signed.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSignedTransaction_RejectsWrongSigner(t *testing.T) {
	sender := mustSigner(t)
	impostor := mustSigner(t)

	tx := NewDynamic(sender.Address, 25)
	signed, err := NewSigned(tx, impostor)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	if err := signed.Verify(); err == nil {
		t.Fatal("expected verification failure for mismatched sender/signer")
	}
}

func TestSignedTransaction_RejectsTamperedAmount(t *testing.T) {
	s := mustSigner(t)
	tx := NewDynamic(s.Address, 25)
	signed, err := NewSigned(tx, s)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}

	signed.Transaction.Dynamic.Header.Amount = 999999
	if err := signed.Verify(); err == nil {
		t.Fatal("expected verification failure for tampered amount")
	}
}

func TestSignedTransaction_RejectsWrongChainID(t *testing.T) {
	s := mustSigner(t)
	tx := NewDynamic(s.Address, 25)
	tx.Dynamic.Header.ChainID = ChainID + 1

	signed, err := NewSigned(tx, s)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	if err := signed.Verify(); err == nil {
		t.Fatal("expected verification failure for wrong chain id")
	}
}

func TestAddress_NotZero(t *testing.T) {
	s := mustSigner(t)
	var zero address.Address
	if s.Address == zero {
		t.Fatal("generated signer address should not be zero")
	}
}
