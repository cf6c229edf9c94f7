// Package h2util holds small byte-level helpers shared by the frame and
// HPACK codecs: big-endian integer packing, padding generation, and the
// zero-copy string/byte conversions fasthttp-adjacent code relies on.
package h2util

import (
	"crypto/rand"
	"reflect"
	"unsafe"

	"github.com/valyala/fastrand"
)

// Uint24ToBytes packs the low 24 bits of n into b, big-endian.
func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2]
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a 24-bit big-endian integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes packs n into b, big-endian.
func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a 32-bit big-endian integer from b. The reserved
// high bit is NOT masked off here; callers that need the 31-bit stream id
// or window increment must mask it themselves.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// AppendUint32 appends the big-endian encoding of n to dst.
func AppendUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// Resize grows b (reusing its backing array when possible) so that
// len(b) == neededLen.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// CutPadding strips PADDED framing from payload: the first byte is the
// pad length, and that many trailing bytes are padding. It returns an
// error instead of panicking when the declared pad length doesn't fit.
func CutPadding(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPaddingOutOfRange
	}
	pad := int(payload[0])
	if pad > len(payload)-1 {
		return nil, ErrPaddingOutOfRange
	}
	return payload[1 : len(payload)-pad], nil
}

// ErrPaddingOutOfRange is returned by CutPadding when the pad length
// byte claims more padding than the payload actually carries.
var ErrPaddingOutOfRange = errPaddingOutOfRange{}

type errPaddingOutOfRange struct{}

func (errPaddingOutOfRange) Error() string { return "padding length exceeds frame payload" }

// AddPadding prepends a random pad length byte (9..255, RFC 7540 imposes
// no minimum but a handful of bytes defeats compression-oracle timing
// attacks cheaply) and appends that many random bytes.
func AddPadding(b []byte) []byte {
	n := int(fastrand.Uint32n(256-9)) + 9
	nn := len(b)

	b = Resize(b, nn+n+1)
	copy(b[1:], b[:nn])

	b[0] = uint8(n)

	rand.Read(b[nn+1 : nn+n+1])

	return b
}

// B2S converts a byte slice to a string without allocating. The caller
// must not mutate b afterwards.
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2B converts a string to a byte slice without allocating. The caller
// must not mutate the returned slice.
func S2B(s string) []byte {
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{Data: sh.Data, Len: sh.Len, Cap: sh.Len}
	return *(*[]byte)(unsafe.Pointer(&bh))
}

// ToLower lower-cases b in place and returns it.
func ToLower(b []byte) []byte {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return b
}
