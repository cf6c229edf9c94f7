package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var _ Frame = (*Priority)(nil)

// Priority carries a stream's dependency weighting. The engine parses it
// for correctness (self-dependency is a connection error) but does not
// act on it when scheduling writes — priority-driven scheduling is a
// spec.md Non-goal.
//
// https://tools.ietf.org/html/rfc7540#section-6.3
type Priority struct {
	streamDep uint32
	exclusive bool
	weight    uint8
}

var priorityPool = sync.Pool{New: func() interface{} { return &Priority{} }}

func AcquirePriority() *Priority {
	p := priorityPool.Get().(*Priority)
	p.Reset()
	return p
}

func ReleasePriority(p *Priority) { priorityPool.Put(p) }

func (p *Priority) Type() FrameType { return FramePriority }

func (p *Priority) Reset() {
	p.streamDep = 0
	p.exclusive = false
	p.weight = 0
}

func (p *Priority) StreamDependency() uint32 { return p.streamDep }
func (p *Priority) Exclusive() bool          { return p.exclusive }
func (p *Priority) Weight() uint8            { return p.weight }

func (p *Priority) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) != 5 {
		return NewStreamError(frh.Stream(), FrameSizeError)
	}

	raw := h2util.BytesToUint32(frh.payload)
	p.exclusive = raw&0x80000000 != 0
	p.streamDep = raw & (1<<31 - 1)
	p.weight = frh.payload[4]

	if p.streamDep == frh.Stream() {
		return NewConnectionError(ProtocolError, "stream cannot depend on itself")
	}

	return nil
}

func (p *Priority) Serialize(frh *FrameHeader) {
	dep := p.streamDep
	if p.exclusive {
		dep |= 0x80000000
	}
	payload := h2util.AppendUint32(make([]byte, 0, 5), dep)
	payload = append(payload, p.weight)
	frh.setPayload(payload)
}
