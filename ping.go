package h2

import "sync"

var _ Frame = (*Ping)(nil)

// pingDataSize is the fixed opaque payload size of a PING frame.
const pingDataSize = 8

// Ping is the FramePing body: an 8-byte opaque payload the receiver must
// echo back verbatim with FlagAck set.
//
// https://tools.ietf.org/html/rfc7540#section-6.7
type Ping struct {
	ack  bool
	data [pingDataSize]byte
}

var pingPool = sync.Pool{New: func() interface{} { return &Ping{} }}

func AcquirePing() *Ping {
	p := pingPool.Get().(*Ping)
	p.Reset()
	return p
}

func ReleasePing(p *Ping) { pingPool.Put(p) }

func (p *Ping) Type() FrameType { return FramePing }

func (p *Ping) Reset() {
	p.ack = false
	p.data = [pingDataSize]byte{}
}

func (p *Ping) Ack() bool       { return p.ack }
func (p *Ping) SetAck(v bool)   { p.ack = v }
func (p *Ping) Data() []byte    { return p.data[:] }
func (p *Ping) SetData(b []byte) {
	copy(p.data[:], b)
}

func (p *Ping) Deserialize(frh *FrameHeader) error {
	if frh.Stream() != 0 {
		return NewConnectionError(ProtocolError, "PING on non-zero stream")
	}
	if len(frh.payload) != pingDataSize {
		return NewConnectionError(FrameSizeError, "PING payload must be 8 bytes")
	}
	p.ack = frh.Flags().Has(FlagAck)
	copy(p.data[:], frh.payload)
	return nil
}

func (p *Ping) Serialize(frh *FrameHeader) {
	if p.ack {
		frh.SetFlags(frh.Flags().Add(FlagAck))
	}
	frh.setPayload(p.data[:])
}
