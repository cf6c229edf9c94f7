package h2

import "testing"

func TestHpackIntRoundTrip(t *testing.T) {
	cases := []struct {
		n uint
		i uint64
	}{
		{7, 0}, {7, 10}, {7, 126}, {7, 127}, {7, 128}, {7, 1337}, {7, 1 << 20},
		{6, 0}, {6, 62}, {6, 63}, {6, 1000000},
		{5, 0}, {5, 30}, {5, 31}, {5, 4096},
		{4, 0}, {4, 14}, {4, 15}, {4, 16},
	}

	for _, c := range cases {
		dst := writeHpackInt(nil, c.n, 0, c.i)
		got, val, err := readHpackInt(c.n, dst)
		if err != nil {
			t.Fatalf("n=%d i=%d: %v", c.n, c.i, err)
		}
		if val != c.i {
			t.Fatalf("n=%d i=%d: got %d", c.n, c.i, val)
		}
		if len(got) != 0 {
			t.Fatalf("n=%d i=%d: leftover bytes %d", c.n, c.i, len(got))
		}
	}
}

func TestHpackIntTag(t *testing.T) {
	dst := writeHpackInt(nil, 7, 0x80, 62)
	if dst[0]&0x80 == 0 {
		t.Fatalf("tag bit lost: %08b", dst[0])
	}
}

func TestReadHpackIntOverflow(t *testing.T) {
	// An endless continuation sequence must fail, not hang or wrap.
	b := make([]byte, 16)
	for i := range b {
		b[i] = 0xff
	}
	b[0] = 0x7f
	if _, _, err := readHpackInt(7, b); err != errBitOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}
