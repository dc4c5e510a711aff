package address

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestFromPublicKey_MatchesKeccakOfUncompressedKey(t *testing.T) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	got := FromPublicKey(&priv.PublicKey)

	uncompressed := crypto.FromECDSAPub(&priv.PublicKey)
	want := crypto.Keccak256(uncompressed[1:])[12:]
	if got.Hex() != ("0x" + hexEncode(want)) {
		t.Fatalf("address mismatch: got %s", got.Hex())
	}
}

func TestRandom_Unique(t *testing.T) {
	a := Random()
	b := Random()
	if a == b {
		t.Fatal("two random addresses collided")
	}
}

func TestHexRoundTrip(t *testing.T) {
	a := Random()
	parsed, err := FromHex(a.Hex())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if parsed != a {
		t.Fatalf("round trip mismatch: %s != %s", parsed.Hex(), a.Hex())
	}
}

func TestFromHex_RejectsMalformed(t *testing.T) {
	cases := []string{"0xnothex", "0x1234", ""}
	for _, c := range cases {
		if _, err := FromHex(c); err == nil {
			t.Errorf("FromHex(%q) should have failed", c)
		}
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	a := Random()
	b, err := a.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var out Address
	if err := out.UnmarshalText(b); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if out != a {
		t.Fatalf("mismatch after marshal round trip")
	}
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0xf]
	}
	return string(out)
}
