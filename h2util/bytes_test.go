package h2util

import (
	"bytes"
	"testing"
)

func TestUint24RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 255, 256, 1 << 14, 1<<24 - 1}
	for _, n := range cases {
		b := make([]byte, 3)
		Uint24ToBytes(b, n)
		if got := BytesToUint24(b); got != n {
			t.Fatalf("n=%d: got %d", n, got)
		}
	}
}

func TestUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 1 << 31, 1<<32 - 1}
	for _, n := range cases {
		b := make([]byte, 4)
		Uint32ToBytes(b, n)
		if got := BytesToUint32(b); got != n {
			t.Fatalf("n=%d: got %d", n, got)
		}
	}
}

func TestCutPadding(t *testing.T) {
	str := append([]byte{13}, "8971293nfasv7asnrnqw9bma 237urkf8KifgiMKFG98UIM8fgnb kifgnrA7JKLK"...)
	nlen := len(str) - 13

	p, err := CutPadding(str)
	if err != nil {
		t.Fatalf("CutPadding: %v", err)
	}
	if len(p) != nlen-1 {
		t.Fatalf("unexpected len: %d <> %d", len(p), nlen-1)
	}
}

func TestCutPaddingOutOfRange(t *testing.T) {
	_, err := CutPadding([]byte{200, 'a', 'b'})
	if err != ErrPaddingOutOfRange {
		t.Fatalf("expected ErrPaddingOutOfRange, got %v", err)
	}
}

func TestAddPaddingStripsBack(t *testing.T) {
	orig := []byte("hello, http/2")
	padded := AddPadding(append([]byte(nil), orig...))

	stripped, err := CutPadding(padded)
	if err != nil {
		t.Fatalf("CutPadding: %v", err)
	}
	if !bytes.Equal(stripped, orig) {
		t.Fatalf("round trip mismatch: got %q want %q", stripped, orig)
	}
}

func TestB2SAndS2B(t *testing.T) {
	s := "www.example.com"
	b := S2B(s)
	if string(b) != s {
		t.Fatalf("S2B mismatch: %q", b)
	}
	if B2S(b) != s {
		t.Fatalf("B2S mismatch: %q", B2S(b))
	}
}

func TestToLower(t *testing.T) {
	b := []byte("Content-Type")
	ToLower(b)
	if string(b) != "content-type" {
		t.Fatalf("got %q", b)
	}
}
