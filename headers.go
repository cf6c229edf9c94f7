package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var (
	_ Frame            = (*Headers)(nil)
	_ FrameWithHeaders = (*Headers)(nil)
)

// Headers is the FrameHeaders body: the start of (or, with no body, the
// whole of) a request or response's header block.
//
// Flags: END_STREAM, END_HEADERS, PADDED, PRIORITY.
//
// https://tools.ietf.org/html/rfc7540#section-6.2
type Headers struct {
	padded         bool
	endStream      bool
	endHeaders     bool
	hasPriority    bool
	streamDep      uint32
	exclusive      bool
	weight         uint8
	headerBlock    []byte
}

var headersPool = sync.Pool{New: func() interface{} { return &Headers{} }}

func AcquireHeaders() *Headers {
	h := headersPool.Get().(*Headers)
	h.Reset()
	return h
}

func ReleaseHeaders(h *Headers) { headersPool.Put(h) }

func (h *Headers) Type() FrameType { return FrameHeaders }

func (h *Headers) Reset() {
	h.padded = false
	h.endStream = false
	h.endHeaders = false
	h.hasPriority = false
	h.streamDep = 0
	h.exclusive = false
	h.weight = 0
	h.headerBlock = h.headerBlock[:0]
}

func (h *Headers) HeaderBlockFragment() []byte { return h.headerBlock }
func (h *Headers) SetHeaderBlockFragment(b []byte) {
	h.headerBlock = append(h.headerBlock[:0], b...)
}
func (h *Headers) AppendHeaderBlockFragment(b []byte) {
	h.headerBlock = append(h.headerBlock, b...)
}

func (h *Headers) EndStream() bool     { return h.endStream }
func (h *Headers) SetEndStream(v bool) { h.endStream = v }
func (h *Headers) EndHeaders() bool    { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool) { h.endHeaders = v }
func (h *Headers) Padded() bool        { return h.padded }
func (h *Headers) SetPadded(v bool)    { h.padded = v }

// HasPriority reports whether a PRIORITY dependency prefix is present.
func (h *Headers) HasPriority() bool        { return h.hasPriority }
func (h *Headers) StreamDependency() uint32 { return h.streamDep }
func (h *Headers) Exclusive() bool          { return h.exclusive }
func (h *Headers) Weight() uint8            { return h.weight }

func (h *Headers) Deserialize(frh *FrameHeader) error {
	payload := frh.payload

	if frh.Flags().Has(FlagPadded) {
		var err error
		payload, err = h2util.CutPadding(payload)
		if err != nil {
			return NewConnectionError(ProtocolError, err.Error())
		}
	}

	if frh.Flags().Has(FlagPriority) {
		if len(payload) < 5 {
			return NewConnectionError(FrameSizeError, "HEADERS priority prefix truncated")
		}
		raw := h2util.BytesToUint32(payload)
		h.exclusive = raw&0x80000000 != 0
		h.streamDep = raw & (1<<31 - 1)
		h.weight = payload[4]
		h.hasPriority = true
		if h.streamDep == frh.Stream() {
			return NewConnectionError(ProtocolError, "stream cannot depend on itself")
		}
		payload = payload[5:]
	}

	h.padded = frh.Flags().Has(FlagPadded)
	h.endStream = frh.Flags().Has(FlagEndStream)
	h.endHeaders = frh.Flags().Has(FlagEndHeaders)
	h.headerBlock = append(h.headerBlock[:0], payload...)

	return nil
}

func (h *Headers) Serialize(frh *FrameHeader) {
	if h.endStream {
		frh.SetFlags(frh.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}

	payload := make([]byte, 0, len(h.headerBlock)+5)

	if h.hasPriority {
		frh.SetFlags(frh.Flags().Add(FlagPriority))
		dep := h.streamDep
		if h.exclusive {
			dep |= 0x80000000
		}
		payload = h2util.AppendUint32(payload, dep)
		payload = append(payload, h.weight)
	}

	payload = append(payload, h.headerBlock...)

	if h.padded {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		payload = h2util.AddPadding(payload)
	}

	frh.setPayload(payload)
}
