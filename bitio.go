package h2

import "errors"

// errBitOverflow is returned by readHpackInt when a continued integer
// would overflow 64 bits worth of shifting, a sign an encoder has gone
// wrong or a decoder is being fed adversarial input.
var errBitOverflow = errors.New("hpack: integer representation overflow")

// readHpackInt decodes an RFC 7541 §5.1 variable-length integer whose
// prefix occupies the low n bits of b[0] (the high 8-n bits of b[0] are
// the representation's type tag and must already have been consumed by
// the caller). It returns the remaining bytes after the integer.
func readHpackInt(n uint, b []byte) ([]byte, uint64, error) {
	if len(b) == 0 {
		return b, 0, errBitOverflow
	}

	prefixMax := uint64(1<<n) - 1
	val := uint64(b[0]) & prefixMax
	b = b[1:]

	if val < prefixMax {
		return b, val, nil
	}

	var m uint
	for {
		if len(b) == 0 {
			return b, 0, errBitOverflow
		}
		c := b[0]
		b = b[1:]
		val += uint64(c&0x7f) << m
		if c&0x80 == 0 {
			break
		}
		m += 7
		if m >= 63 {
			return b, 0, errBitOverflow
		}
	}

	return b, val, nil
}

// writeHpackInt appends i as an RFC 7541 §5.1 integer with an n-bit
// prefix, OR-ing tag into the high bits of the prefix byte (every
// representation in RFC 7541 §6 puts its type tag there).
func writeHpackInt(dst []byte, n uint, tag byte, i uint64) []byte {
	prefixMax := uint64(1<<n) - 1

	if i < prefixMax {
		return append(dst, tag|byte(i))
	}

	dst = append(dst, tag|byte(prefixMax))
	i -= prefixMax
	for i >= 0x80 {
		dst = append(dst, byte(i&0x7f)|0x80)
		i >>= 7
	}
	return append(dst, byte(i))
}
