package h2

import (
	"bytes"
	"testing"
)

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"The quick brown fox jumps over the lazy dog 1234567890",
	}

	for _, c := range cases {
		enc := huffmanEncode(nil, []byte(c))
		dec, err := huffmanDecode(nil, enc)
		if err != nil {
			t.Fatalf("%q: %v", c, err)
		}
		if !bytes.Equal(dec, []byte(c)) {
			t.Fatalf("%q: round trip mismatch, got %q", c, dec)
		}
	}
}

// TestHuffmanRFCExample is the RFC 7541 Appendix C.4.1 "www.example.com"
// worked example.
func TestHuffmanRFCExample(t *testing.T) {
	want := []byte{
		0xf1, 0xe3, 0xc2, 0xe5, 0xf2, 0x3a, 0x6b, 0xa0,
		0xab, 0x90, 0xf4, 0xff,
	}

	got := huffmanEncode(nil, []byte("www.example.com"))
	if !bytes.Equal(got, want) {
		t.Fatalf("encode mismatch:\n got  % x\n want % x", got, want)
	}

	dec, err := huffmanDecode(nil, want)
	if err != nil {
		t.Fatal(err)
	}
	if string(dec) != "www.example.com" {
		t.Fatalf("decode mismatch: got %q", dec)
	}
}

func TestHuffmanRejectsBadPadding(t *testing.T) {
	// A single 0x00 byte decodes its high five bits as '0'; the three
	// trailing 0 bits are then padding that isn't a prefix of the all-1s
	// EOS code.
	if _, err := huffmanDecode(nil, []byte{0x00}); err == nil {
		t.Fatal("expected error decoding non-EOS padding")
	}
}
