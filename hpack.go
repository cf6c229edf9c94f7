package h2

import "github.com/framewire/h2/h2util"

// HPACK representation type tags, RFC 7541 §6.
const (
	hpackIndexed             = 0x80 // 1xxxxxxx
	hpackLiteralIncremental  = 0x40 // 01xxxxxx
	hpackDynamicTableResize  = 0x20 // 001xxxxx
	hpackLiteralNeverIndexed = 0x10 // 0001xxxx
	hpackLiteralNoIndex      = 0x00 // 0000xxxx
)

// huffmanWorthwhile reports whether the Huffman-coded form (huff bytes)
// is shorter than the raw form; appendString measures the Huffman length
// first, so encode never has to buffer a throwaway Huffman attempt.
func huffmanWorthwhile(raw, huff int) bool { return huff < raw }

// Encoder is an RFC 7541 header compressor. It is not safe for
// concurrent use; each connection (spec.md §4.6/§5) owns exactly one,
// used only from the dispatch goroutine that also owns the stream
// table.
type Encoder struct {
	table          dynamicTable
	pendingResize  bool
	pendingMaxSize uint32
}

// NewEncoder returns an Encoder with the RFC 7540 default dynamic table
// capacity (SETTINGS_HEADER_TABLE_SIZE's default, 4096 bytes).
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.table.reset(defaultHeaderTableSize)
	return e
}

// SetMaxTableSize applies the peer's advertised SETTINGS_HEADER_TABLE_SIZE.
// The table isn't resized here: RFC 7541 §6.3 requires the shrink be
// signaled on the wire as a dynamic table size update before the next
// header block, so the peer's decoder stays in sync; Encode emits that
// update and applies the resize together on its next call.
func (e *Encoder) SetMaxTableSize(n uint32) {
	e.pendingResize = true
	e.pendingMaxSize = n
}

// Encode appends the HPACK representation of hf to dst.
func (e *Encoder) Encode(dst []byte, hf *HeaderField) []byte {
	if e.pendingResize {
		dst = writeHpackInt(dst, 5, hpackDynamicTableResize, uint64(e.pendingMaxSize))
		e.table.setMaxSize(e.pendingMaxSize)
		e.pendingResize = false
	}
	if idx, full := e.find(hf.name, hf.value); idx > 0 {
		if full && !hf.sensitive {
			return writeHpackInt(dst, 7, hpackIndexed, idx)
		}
		return e.encodeLiteral(dst, idx, hf, hpackLiteralIncrementalTag(hf))
	}
	return e.encodeLiteral(dst, 0, hf, hpackLiteralIncrementalTag(hf))
}

func hpackLiteralIncrementalTag(hf *HeaderField) byte {
	if hf.sensitive {
		return hpackLiteralNeverIndexed
	}
	return hpackLiteralIncremental
}

func (e *Encoder) encodeLiteral(dst []byte, nameIdx uint64, hf *HeaderField, tag byte) []byte {
	var n uint
	switch tag {
	case hpackLiteralIncremental:
		n = 6
	default:
		n = 4
	}

	dst = writeHpackInt(dst, n, tag, nameIdx)
	if nameIdx == 0 {
		dst = e.appendString(dst, hf.name)
	}
	dst = e.appendString(dst, hf.value)

	if tag == hpackLiteralIncremental {
		e.table.add(hf.name, hf.value)
	}

	return dst
}

func (e *Encoder) appendString(dst []byte, s []byte) []byte {
	huffLen := huffmanEncodedLen(s)
	if huffmanWorthwhile(len(s), huffLen) {
		dst = writeHpackInt(dst, 7, 0x80, uint64(huffLen))
		return huffmanEncode(dst, s)
	}
	dst = writeHpackInt(dst, 7, 0x00, uint64(len(s)))
	return append(dst, s...)
}

// find reports a matching table index (static entries come first, then
// dynamic, per RFC 7541 §2.3.3) and whether the value also matched. A
// zero index means no match.
func (e *Encoder) find(name, value []byte) (idx uint64, full bool) {
	var nameOnly uint64

	for i, s := range staticTable {
		if s.name != string(name) {
			continue
		}
		if nameOnly == 0 {
			nameOnly = uint64(i + 1)
		}
		if s.value == string(value) {
			return uint64(i + 1), true
		}
	}

	for i, d := range e.table.entries {
		if string(d.name) != string(name) {
			continue
		}
		wireIdx := uint64(staticTableLen + i + 1)
		if nameOnly == 0 {
			nameOnly = wireIdx
		}
		if string(d.value) == string(value) {
			return wireIdx, true
		}
	}

	return nameOnly, false
}

// Decoder is an RFC 7541 header decompressor, owned by one connection's
// dispatch goroutine the same way Encoder is.
type Decoder struct {
	table dynamicTable
	// advertised is the SETTINGS_HEADER_TABLE_SIZE this side has told the
	// peer; a dynamic table size update above it is a peer protocol
	// violation (RFC 7541 §4.2), not just a no-op shrink.
	advertised uint32
}

// NewDecoder returns a Decoder with the RFC 7540 default dynamic table
// capacity.
func NewDecoder() *Decoder {
	d := &Decoder{advertised: defaultHeaderTableSize}
	d.table.reset(defaultHeaderTableSize)
	return d
}

// SetMaxTableSize applies a locally-chosen SETTINGS_HEADER_TABLE_SIZE
// ceiling, shrinking the live table immediately; the peer may still grow
// its size-update requests up to the new ceiling (RFC 7541 §4.2).
func (d *Decoder) SetMaxTableSize(n uint32) {
	d.advertised = n
	if n < d.table.maxSize {
		d.table.setMaxSize(n)
	}
}

// Decode parses block, calling emit for every header field in the order
// they appear on the wire.
func (d *Decoder) Decode(block []byte, emit func(name, value []byte, sensitive bool)) error {
	b := block
	var err error
	sawField := false

	for len(b) > 0 {
		c := b[0]
		switch {
		case c&hpackIndexed == hpackIndexed:
			sawField = true
			b, err = d.decodeIndexed(b, emit)
		case c&0xc0 == hpackLiteralIncremental:
			sawField = true
			b, err = d.decodeLiteral(b, 6, true, false, emit)
		case c&0xe0 == hpackDynamicTableResize:
			if sawField {
				return NewConnectionError(CompressionError, "dynamic table size update after a header field")
			}
			b, err = d.decodeResize(b)
		case c&0xf0 == hpackLiteralNeverIndexed:
			sawField = true
			b, err = d.decodeLiteral(b, 4, false, true, emit)
		default: // 0000xxxx
			sawField = true
			b, err = d.decodeLiteral(b, 4, false, false, emit)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) decodeIndexed(b []byte, emit func(name, value []byte, sensitive bool)) ([]byte, error) {
	b, idx, err := readHpackInt(7, b)
	if err != nil {
		return b, NewConnectionError(CompressionError, "bad indexed representation")
	}
	name, value, ok := d.lookup(idx)
	if !ok {
		return b, NewConnectionError(CompressionError, "header index out of range")
	}
	emit(name, value, false)
	return b, nil
}

func (d *Decoder) decodeLiteral(b []byte, n uint, index, neverIndex bool, emit func(name, value []byte, sensitive bool)) ([]byte, error) {
	b, idx, err := readHpackInt(n, b)
	if err != nil {
		return b, NewConnectionError(CompressionError, "bad literal index prefix")
	}

	var name []byte
	if idx == 0 {
		b, name, err = d.readString(b)
		if err != nil {
			return b, err
		}
	} else {
		staticName, _, ok := d.lookup(idx)
		if !ok {
			return b, NewConnectionError(CompressionError, "literal name index out of range")
		}
		name = staticName
	}

	var value []byte
	b, value, err = d.readString(b)
	if err != nil {
		return b, err
	}

	if index {
		d.table.add(name, value)
	}

	emit(name, value, neverIndex)
	return b, nil
}

func (d *Decoder) decodeResize(b []byte) ([]byte, error) {
	b, n, err := readHpackInt(5, b)
	if err != nil {
		return b, NewConnectionError(CompressionError, "bad dynamic table size update")
	}
	if uint32(n) > d.advertised {
		return b, NewConnectionError(CompressionError, "dynamic table size update exceeds advertised limit")
	}
	d.table.setMaxSize(uint32(n))
	return b, nil
}

func (d *Decoder) readString(b []byte) ([]byte, []byte, error) {
	if len(b) == 0 {
		return b, nil, NewConnectionError(CompressionError, "truncated header string")
	}

	huff := b[0]&0x80 != 0
	b, length, err := readHpackInt(7, b)
	if err != nil {
		return b, nil, NewConnectionError(CompressionError, "bad string length")
	}
	if uint64(len(b)) < length {
		return b, nil, NewConnectionError(CompressionError, "truncated header string")
	}

	raw := b[:length]
	b = b[length:]

	if !huff {
		return b, append([]byte(nil), raw...), nil
	}

	out, err := huffmanDecode(nil, raw)
	if err != nil {
		return b, nil, NewConnectionError(CompressionError, err.Error())
	}
	return b, out, nil
}

func (d *Decoder) lookup(idx uint64) (name, value []byte, ok bool) {
	if idx >= 1 && idx <= staticTableLen {
		s := staticTable[idx-1]
		return h2util.S2B(s.name), h2util.S2B(s.value), true
	}
	entry, found := d.table.at(idx - staticTableLen)
	if !found {
		return nil, nil, false
	}
	return entry.name, entry.value, true
}
