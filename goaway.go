package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var _ Frame = (*GoAway)(nil)

// GoAway is the FrameGoAway body: a connection shutdown notice naming the
// highest stream id the sender will process and why it is closing.
//
// https://tools.ietf.org/html/rfc7540#section-6.8
type GoAway struct {
	lastStreamID uint32
	code         ErrorCode
	debug        []byte
}

var goAwayPool = sync.Pool{New: func() interface{} { return &GoAway{} }}

func AcquireGoAway() *GoAway {
	g := goAwayPool.Get().(*GoAway)
	g.Reset()
	return g
}

func ReleaseGoAway(g *GoAway) { goAwayPool.Put(g) }

func (g *GoAway) Type() FrameType { return FrameGoAway }

func (g *GoAway) Reset() {
	g.lastStreamID = 0
	g.code = NoError
	g.debug = g.debug[:0]
}

func (g *GoAway) LastStreamID() uint32 { return g.lastStreamID }
func (g *GoAway) SetLastStreamID(id uint32) {
	g.lastStreamID = id & (1<<31 - 1)
}
func (g *GoAway) Code() ErrorCode     { return g.code }
func (g *GoAway) SetCode(c ErrorCode) { g.code = c }
func (g *GoAway) Debug() []byte       { return g.debug }
func (g *GoAway) SetDebug(b []byte)   { g.debug = append(g.debug[:0], b...) }

func (g *GoAway) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 8 {
		return NewConnectionError(FrameSizeError, "GOAWAY payload shorter than 8 bytes")
	}
	g.lastStreamID = h2util.BytesToUint32(frh.payload[:4]) & (1<<31 - 1)
	g.code = ErrorCode(h2util.BytesToUint32(frh.payload[4:8]))
	g.debug = append(g.debug[:0], frh.payload[8:]...)
	return nil
}

func (g *GoAway) Serialize(frh *FrameHeader) {
	payload := make([]byte, 0, 8+len(g.debug))
	payload = h2util.AppendUint32(payload, g.lastStreamID)
	payload = h2util.AppendUint32(payload, uint32(g.code))
	payload = append(payload, g.debug...)
	frh.setPayload(payload)
}
