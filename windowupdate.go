package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var _ Frame = (*WindowUpdate)(nil)

// WindowUpdate is the FrameWindowUpdate body: an additive increment to a
// flow-control window, either the connection window (stream id 0) or a
// single stream's window.
//
// https://tools.ietf.org/html/rfc7540#section-6.9
type WindowUpdate struct {
	increment uint32
}

var windowUpdatePool = sync.Pool{New: func() interface{} { return &WindowUpdate{} }}

func AcquireWindowUpdate() *WindowUpdate {
	w := windowUpdatePool.Get().(*WindowUpdate)
	w.Reset()
	return w
}

func ReleaseWindowUpdate(w *WindowUpdate) { windowUpdatePool.Put(w) }

func (w *WindowUpdate) Type() FrameType { return FrameWindowUpdate }

func (w *WindowUpdate) Reset() { w.increment = 0 }

func (w *WindowUpdate) Increment() uint32     { return w.increment }
func (w *WindowUpdate) SetIncrement(n uint32) { w.increment = n & (1<<31 - 1) }

func (w *WindowUpdate) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) != 4 {
		return NewConnectionError(FrameSizeError, "WINDOW_UPDATE payload must be 4 bytes")
	}

	raw := h2util.BytesToUint32(frh.payload) & (1<<31 - 1)
	if raw == 0 {
		if frh.Stream() == 0 {
			return NewConnectionError(ProtocolError, "WINDOW_UPDATE increment of 0 on connection")
		}
		return NewStreamError(frh.Stream(), ProtocolError)
	}

	w.increment = raw
	return nil
}

func (w *WindowUpdate) Serialize(frh *FrameHeader) {
	frh.setPayload(h2util.AppendUint32(make([]byte, 0, 4), w.increment))
}
