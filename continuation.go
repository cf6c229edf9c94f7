package h2

import "sync"

var (
	_ Frame            = (*Continuation)(nil)
	_ FrameWithHeaders = (*Continuation)(nil)
)

// Continuation is the FrameContinuation body: the overflow of a header
// block that didn't fit in a single HEADERS or PUSH_PROMISE frame. A
// sequence of CONTINUATION frames must follow immediately, with no other
// frame interleaved, until one carries END_HEADERS (spec.md §4.6.1).
//
// https://tools.ietf.org/html/rfc7540#section-6.10
type Continuation struct {
	endHeaders  bool
	headerBlock []byte
}

var continuationPool = sync.Pool{New: func() interface{} { return &Continuation{} }}

func AcquireContinuation() *Continuation {
	c := continuationPool.Get().(*Continuation)
	c.Reset()
	return c
}

func ReleaseContinuation(c *Continuation) { continuationPool.Put(c) }

func (c *Continuation) Type() FrameType { return FrameContinuation }

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.headerBlock = c.headerBlock[:0]
}

func (c *Continuation) HeaderBlockFragment() []byte { return c.headerBlock }
func (c *Continuation) SetHeaderBlockFragment(b []byte) {
	c.headerBlock = append(c.headerBlock[:0], b...)
}
func (c *Continuation) AppendHeaderBlockFragment(b []byte) {
	c.headerBlock = append(c.headerBlock, b...)
}

func (c *Continuation) EndHeaders() bool     { return c.endHeaders }
func (c *Continuation) SetEndHeaders(v bool) { c.endHeaders = v }

func (c *Continuation) Deserialize(frh *FrameHeader) error {
	if frh.Stream() == 0 {
		return NewConnectionError(ProtocolError, "CONTINUATION on stream 0")
	}
	c.endHeaders = frh.Flags().Has(FlagEndHeaders)
	c.headerBlock = append(c.headerBlock[:0], frh.payload...)
	return nil
}

func (c *Continuation) Serialize(frh *FrameHeader) {
	if c.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}
	frh.setPayload(c.headerBlock)
}
