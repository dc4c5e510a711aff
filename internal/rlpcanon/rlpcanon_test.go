package rlpcanon

import "testing"

type sample struct {
	A uint64
	B []byte
}

func TestHashStruct_Deterministic(t *testing.T) {
	s := sample{A: 7, B: []byte("payload")}
	h1, err := HashStruct(s)
	if err != nil {
		t.Fatalf("HashStruct: %v", err)
	}
	h2, err := HashStruct(s)
	if err != nil {
		t.Fatalf("HashStruct: %v", err)
	}
	if h1 != h2 {
		t.Fatal("HashStruct is not deterministic")
	}
}

func TestHashStruct_SensitiveToFields(t *testing.T) {
	h1, _ := HashStruct(sample{A: 7, B: []byte("payload")})
	h2, _ := HashStruct(sample{A: 8, B: []byte("payload")})
	if h1 == h2 {
		t.Fatal("different field values should produce different hashes")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := sample{A: 42, B: []byte("round-trip")}
	b, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out sample
	if err := Decode(b, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.A != s.A || string(out.B) != string(s.B) {
		t.Fatalf("round trip mismatch: %+v != %+v", out, s)
	}
}
