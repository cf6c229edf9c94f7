package h2

import "sync"

// HeaderField is a single name/value pair as it travels through HPACK,
// before or after translation to/from fasthttp's header representation.
//
// https://tools.ietf.org/html/rfc7541#section-1.3
type HeaderField struct {
	name      []byte
	value     []byte
	sensitive bool
}

var headerFieldPool = sync.Pool{New: func() interface{} { return &HeaderField{} }}

// AcquireHeaderField returns a HeaderField from the pool, reset and ready
// to use.
func AcquireHeaderField() *HeaderField {
	hf := headerFieldPool.Get().(*HeaderField)
	hf.Reset()
	return hf
}

// ReleaseHeaderField returns hf to the pool.
func ReleaseHeaderField(hf *HeaderField) { headerFieldPool.Put(hf) }

func (hf *HeaderField) Reset() {
	hf.name = hf.name[:0]
	hf.value = hf.value[:0]
	hf.sensitive = false
}

func (hf *HeaderField) Name() []byte  { return hf.name }
func (hf *HeaderField) Value() []byte { return hf.value }

func (hf *HeaderField) SetName(b []byte) {
	hf.name = append(hf.name[:0], b...)
}

func (hf *HeaderField) SetValue(b []byte) {
	hf.value = append(hf.value[:0], b...)
}

func (hf *HeaderField) SetBytes(name, value []byte) {
	hf.SetName(name)
	hf.SetValue(value)
}

// Sensitive marks the field as "never indexed" (RFC 7541 §7.1): the HPACK
// encoder will always emit it as a literal without touching the dynamic
// table, and intermediaries must do the same.
func (hf *HeaderField) Sensitive() bool     { return hf.sensitive }
func (hf *HeaderField) SetSensitive(v bool) { hf.sensitive = v }

// Size is the RFC 7541 §4.1 accounting size of the field: name length
// plus value length plus a fixed 32-byte overhead.
func (hf *HeaderField) Size() uint32 {
	return uint32(len(hf.name)+len(hf.value)) + 32
}

func headerFieldSize(name, value []byte) uint32 {
	return uint32(len(name)+len(value)) + 32
}

func (hf *HeaderField) CopyTo(dst *HeaderField) {
	dst.SetBytes(hf.name, hf.value)
	dst.sensitive = hf.sensitive
}
