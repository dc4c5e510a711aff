package merkle

import "testing"

func TestNew_EmptyRootIsWellKnown(t *testing.T) {
	tr := New()
	if tr.Root() != emptyHashes[Depth] {
		t.Fatal("empty tree root does not match well-known empty-subtree hash")
	}
	if tr.Len() != 0 {
		t.Fatalf("expected length 0, got %d", tr.Len())
	}
}

func TestAppend_ChangesRootAndLength(t *testing.T) {
	tr := New()
	root0 := tr.Root()

	idx, root1, err := tr.Append([]byte("leaf-0"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected index 0, got %d", idx)
	}
	if root1 == root0 {
		t.Fatal("root did not change after append")
	}
	if tr.Len() != 1 {
		t.Fatalf("expected length 1, got %d", tr.Len())
	}

	idx2, root2, err := tr.Append([]byte("leaf-1"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx2 != 1 {
		t.Fatalf("expected index 1, got %d", idx2)
	}
	if root2 == root1 {
		t.Fatal("root did not change after second append")
	}
}

func TestAppend_Deterministic(t *testing.T) {
	a := New()
	b := New()
	for _, leaf := range [][]byte{[]byte("x"), []byte("y"), []byte("z")} {
		if _, _, err := a.Append(leaf); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if _, _, err := b.Append(leaf); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if a.Root() != b.Root() {
		t.Fatal("two trees fed identical leaves in order produced different roots")
	}
}

func TestAppend_OrderSensitive(t *testing.T) {
	a := New()
	b := New()
	a.Append([]byte("first"))
	a.Append([]byte("second"))
	b.Append([]byte("second"))
	b.Append([]byte("first"))
	if a.Root() == b.Root() {
		t.Fatal("swapping leaf order should change the root")
	}
}

func TestProof_VerifiesAgainstRoot(t *testing.T) {
	tr := New()
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	for _, leaf := range leaves {
		if _, _, err := tr.Append(leaf); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	root := tr.Root()

	for i, leaf := range leaves {
		proof, err := tr.Proof(uint64(i))
		if err != nil {
			t.Fatalf("Proof(%d): %v", i, err)
		}
		if !VerifyProof(leaf, proof, root) {
			t.Fatalf("proof for leaf %d did not verify", i)
		}
	}
}

func TestProof_RejectsWrongLeaf(t *testing.T) {
	tr := New()
	tr.Append([]byte("a"))
	tr.Append([]byte("b"))
	root := tr.Root()

	proof, err := tr.Proof(0)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	if VerifyProof([]byte("not-a"), proof, root) {
		t.Fatal("proof should not verify against the wrong leaf")
	}
}

func TestProof_RejectsOutOfRangeIndex(t *testing.T) {
	tr := New()
	tr.Append([]byte("only"))
	if _, err := tr.Proof(5); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}
