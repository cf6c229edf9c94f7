package h2

import "testing"

type decodedField struct {
	name, value string
	sensitive   bool
}

func decodeAll(t *testing.T, d *Decoder, block []byte) []decodedField {
	t.Helper()
	var got []decodedField
	err := d.Decode(block, func(name, value []byte, sensitive bool) {
		got = append(got, decodedField{string(name), string(value), sensitive})
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

// TestHpackIndexedStatic is RFC 7541 §C.2.4: a single indexed reference
// to the static table.
func TestHpackIndexedStatic(t *testing.T) {
	d := NewDecoder()
	got := decodeAll(t, d, []byte{0x82})

	if len(got) != 1 || got[0].name != ":method" || got[0].value != "GET" {
		t.Fatalf("unexpected decode: %+v", got)
	}
	if d.table.len() != 0 {
		t.Fatalf("indexed representation must not touch the dynamic table")
	}
}

// TestHpackLiteralIncrementalIndexing is RFC 7541 §C.2.1: a literal
// header field with incremental indexing, new name.
func TestHpackLiteralIncrementalIndexing(t *testing.T) {
	d := NewDecoder()
	block := []byte{
		0x40,
		0x0a, 'c', 'u', 's', 't', 'o', 'm', '-', 'k', 'e', 'y',
		0x0d, 'c', 'u', 's', 't', 'o', 'm', '-', 'h', 'e', 'a', 'd', 'e', 'r',
	}

	got := decodeAll(t, d, block)
	if len(got) != 1 || got[0].name != "custom-key" || got[0].value != "custom-header" {
		t.Fatalf("unexpected decode: %+v", got)
	}
	if d.table.len() != 1 {
		t.Fatalf("expected one dynamic table entry, got %d", d.table.len())
	}
}

// TestHpackEncodeDecodeRoundTrip exercises the encoder against its own
// decoder across a representative header set, including a repeat that
// should resolve to a dynamic-table hit.
func TestHpackEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	fields := [][2]string{
		{":method", "GET"},
		{":scheme", "https"},
		{":path", "/"},
		{"custom-key", "custom-value"},
		{"custom-key", "custom-value"}, // repeat: should hit the dynamic table
	}

	var block []byte
	hf := &HeaderField{}
	for _, f := range fields {
		hf.Reset()
		hf.SetBytes([]byte(f[0]), []byte(f[1]))
		block = enc.Encode(block, hf)
	}

	var got [][2]string
	err := dec.Decode(block, func(name, value []byte, sensitive bool) {
		got = append(got, [2]string{string(name), string(value)})
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(got), len(fields))
	}
	for i, f := range fields {
		if got[i][0] != f[0] || got[i][1] != f[1] {
			t.Fatalf("field %d: got %v, want %v", i, got[i], f)
		}
	}
}

func TestDynamicTableEviction(t *testing.T) {
	dt := &dynamicTable{}
	dt.reset(64)

	dt.add([]byte("a"), []byte("1")) // size 1+1+32 = 34
	dt.add([]byte("b"), []byte("2")) // size 34, total 68 > 64, evicts "a"

	if dt.len() != 1 {
		t.Fatalf("expected 1 entry after eviction, got %d", dt.len())
	}
	e, ok := dt.at(1)
	if !ok || string(e.name) != "b" {
		t.Fatalf("expected surviving entry 'b', got %+v ok=%v", e, ok)
	}
}

func TestDynamicTableOversizeEntryEmptiesTable(t *testing.T) {
	dt := &dynamicTable{}
	dt.reset(64)
	dt.add([]byte("a"), []byte("1"))
	dt.add([]byte("too"), []byte(make([]byte, 100)))

	if dt.len() != 0 {
		t.Fatalf("oversize entry must empty the table, got %d entries", dt.len())
	}
}
