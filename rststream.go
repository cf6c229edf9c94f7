package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var _ Frame = (*RstStream)(nil)

// RstStream is the FrameRstStream body: an immediate termination of a
// single stream, carrying the ErrorCode that caused it.
//
// https://tools.ietf.org/html/rfc7540#section-6.4
type RstStream struct {
	code ErrorCode
}

var rstStreamPool = sync.Pool{New: func() interface{} { return &RstStream{} }}

func AcquireRstStream() *RstStream {
	r := rstStreamPool.Get().(*RstStream)
	r.Reset()
	return r
}

func ReleaseRstStream(r *RstStream) { rstStreamPool.Put(r) }

func (r *RstStream) Type() FrameType { return FrameResetStream }

func (r *RstStream) Reset() { r.code = NoError }

func (r *RstStream) Code() ErrorCode     { return r.code }
func (r *RstStream) SetCode(c ErrorCode) { r.code = c }

func (r *RstStream) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) != 4 {
		return NewConnectionError(FrameSizeError, "RST_STREAM payload must be 4 bytes")
	}
	if frh.Stream() == 0 {
		return NewConnectionError(ProtocolError, "RST_STREAM on stream 0")
	}
	r.code = ErrorCode(h2util.BytesToUint32(frh.payload))
	return nil
}

func (r *RstStream) Serialize(frh *FrameHeader) {
	frh.setPayload(h2util.AppendUint32(make([]byte, 0, 4), uint32(r.code)))
}
