package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var (
	_ Frame            = (*PushPromise)(nil)
	_ FrameWithHeaders = (*PushPromise)(nil)
)

// PushPromise is the FramePushPromise body: a server-initiated promise of
// a response the client didn't ask for yet, carrying the header block of
// the synthesized request.
//
// https://tools.ietf.org/html/rfc7540#section-6.6
type PushPromise struct {
	padded      bool
	endHeaders  bool
	promisedID  uint32
	headerBlock []byte
}

var pushPromisePool = sync.Pool{New: func() interface{} { return &PushPromise{} }}

func AcquirePushPromise() *PushPromise {
	p := pushPromisePool.Get().(*PushPromise)
	p.Reset()
	return p
}

func ReleasePushPromise(p *PushPromise) { pushPromisePool.Put(p) }

func (p *PushPromise) Type() FrameType { return FramePushPromise }

func (p *PushPromise) Reset() {
	p.padded = false
	p.endHeaders = false
	p.promisedID = 0
	p.headerBlock = p.headerBlock[:0]
}

func (p *PushPromise) HeaderBlockFragment() []byte { return p.headerBlock }
func (p *PushPromise) SetHeaderBlockFragment(b []byte) {
	p.headerBlock = append(p.headerBlock[:0], b...)
}
func (p *PushPromise) AppendHeaderBlockFragment(b []byte) {
	p.headerBlock = append(p.headerBlock, b...)
}

func (p *PushPromise) Padded() bool             { return p.padded }
func (p *PushPromise) SetPadded(v bool)         { p.padded = v }
func (p *PushPromise) EndHeaders() bool         { return p.endHeaders }
func (p *PushPromise) SetEndHeaders(v bool)     { p.endHeaders = v }
func (p *PushPromise) PromisedStreamID() uint32 { return p.promisedID }
func (p *PushPromise) SetPromisedStreamID(id uint32) {
	p.promisedID = id & (1<<31 - 1)
}

func (p *PushPromise) Deserialize(frh *FrameHeader) error {
	payload := frh.payload

	if frh.Flags().Has(FlagPadded) {
		var err error
		payload, err = h2util.CutPadding(payload)
		if err != nil {
			return NewConnectionError(ProtocolError, err.Error())
		}
	}

	if len(payload) < 4 {
		return NewConnectionError(FrameSizeError, "PUSH_PROMISE promised-id prefix truncated")
	}

	p.padded = frh.Flags().Has(FlagPadded)
	p.endHeaders = frh.Flags().Has(FlagEndHeaders)
	p.promisedID = h2util.BytesToUint32(payload) & (1<<31 - 1)
	p.headerBlock = append(p.headerBlock[:0], payload[4:]...)

	return nil
}

func (p *PushPromise) Serialize(frh *FrameHeader) {
	if p.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}

	payload := h2util.AppendUint32(make([]byte, 0, 4+len(p.headerBlock)), p.promisedID)
	payload = append(payload, p.headerBlock...)

	if p.padded {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		payload = h2util.AddPadding(payload)
	}

	frh.setPayload(payload)
}
