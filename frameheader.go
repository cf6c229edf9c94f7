package h2

import (
	"bufio"
	"io"
	"sync"

	"github.com/framewire/h2/h2util"
)

// DefaultFrameSize is the fixed length of the frame header in bytes.
//
// https://httpwg.org/specs/rfc7540.html#FrameHeader
const DefaultFrameSize = 9

var frameHeaderPool = sync.Pool{
	New: func() interface{} { return &FrameHeader{} },
}

// FrameHeader is the 9-byte frame header plus the decoded Frame body.
//
// Use AcquireFrameHeader/ReleaseFrameHeader instead of allocating one
// directly; a FrameHeader (and the payload buffer it reuses across
// Reset calls) must not be used from more than one goroutine at a time.
//
// https://tools.ietf.org/html/rfc7540#section-4.1
type FrameHeader struct {
	length int
	kind   FrameType
	flags  FrameFlags
	stream uint32

	maxLen uint32

	raw     [DefaultFrameSize]byte
	payload []byte

	body Frame
}

// AcquireFrameHeader returns a FrameHeader from the pool, reset and ready
// to use.
func AcquireFrameHeader() *FrameHeader {
	frh := frameHeaderPool.Get().(*FrameHeader)
	frh.Reset()
	return frh
}

// ReleaseFrameHeader releases frh's body to its pool and returns frh to
// the FrameHeader pool.
func ReleaseFrameHeader(frh *FrameHeader) {
	releaseFrame(frh.body)
	frh.body = nil
	frameHeaderPool.Put(frh)
}

// Reset clears frh back to its zero wire state; maxLen defaults to the
// RFC 7540 default SETTINGS_MAX_FRAME_SIZE (16384).
func (frh *FrameHeader) Reset() {
	frh.length = 0
	frh.kind = 0
	frh.flags = 0
	frh.stream = 0
	frh.maxLen = defaultMaxFrameSize
	frh.body = nil
	frh.payload = frh.payload[:0]
}

func (frh *FrameHeader) Type() FrameType     { return frh.kind }
func (frh *FrameHeader) Flags() FrameFlags   { return frh.flags }
func (frh *FrameHeader) SetFlags(f FrameFlags) { frh.flags = f }
func (frh *FrameHeader) Stream() uint32      { return frh.stream }
func (frh *FrameHeader) SetStream(id uint32) { frh.stream = id & (1<<31 - 1) }
func (frh *FrameHeader) Len() int            { return frh.length }

// SetMaxLen bounds both the size this FrameHeader will accept while
// reading and the size it will refuse to write (FRAME_SIZE_ERROR).
func (frh *FrameHeader) SetMaxLen(max uint32) { frh.maxLen = max }
func (frh *FrameHeader) MaxLen() uint32       { return frh.maxLen }

// Body returns the decoded frame payload, or nil for an unknown frame
// type that was parsed and discarded.
func (frh *FrameHeader) Body() Frame { return frh.body }

// SetBody assigns fr as the payload and adopts its frame type.
func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("http2: FrameHeader.SetBody: nil body")
	}
	frh.kind = fr.Type()
	frh.body = fr
}

func (frh *FrameHeader) setPayload(b []byte) {
	frh.payload = append(frh.payload[:0], b...)
}

func (frh *FrameHeader) appendPayload(b []byte) {
	frh.payload = append(frh.payload, b...)
}

func (frh *FrameHeader) parseRawHeader() {
	frh.length = int(h2util.BytesToUint24(frh.raw[:3]))
	frh.kind = FrameType(frh.raw[3])
	frh.flags = FrameFlags(frh.raw[4])
	frh.stream = h2util.BytesToUint32(frh.raw[5:]) & (1<<31 - 1)
}

func (frh *FrameHeader) buildRawHeader() {
	h2util.Uint24ToBytes(frh.raw[:3], uint32(frh.length))
	frh.raw[3] = byte(frh.kind)
	frh.raw[4] = byte(frh.flags)
	h2util.Uint32ToBytes(frh.raw[5:], frh.stream)
}

// ReadFrameFrom reads one frame (header + payload) from br using the
// default max payload size.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, defaultMaxFrameSize)
}

// ReadFrameFromWithSize reads one frame, rejecting a declared payload
// length greater than max with FrameSizeError (spec.md §4.4, §4.7).
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	frh := AcquireFrameHeader()
	frh.maxLen = max

	if _, err := frh.readFrom(br); err != nil {
		ReleaseFrameHeader(frh)
		return nil, err
	}

	return frh, nil
}

func (frh *FrameHeader) readFrom(br *bufio.Reader) (int64, error) {
	if _, err := io.ReadFull(br, frh.raw[:]); err != nil {
		return 0, err
	}

	frh.parseRawHeader()

	if frh.maxLen != 0 && frh.length > int(frh.maxLen) {
		// Still must consume the payload so the stream stays in sync.
		io.CopyN(io.Discard, br, int64(frh.length))
		return DefaultFrameSize, NewConnectionError(FrameSizeError, "frame length exceeds negotiated maximum")
	}

	n := int64(DefaultFrameSize)

	if frh.length > 0 {
		frh.payload = h2util.Resize(frh.payload, frh.length)
		if _, err := io.ReadFull(br, frh.payload); err != nil {
			return n, err
		}
		n += int64(frh.length)
	} else {
		frh.payload = frh.payload[:0]
	}

	if frh.kind > maxKnownFrameType {
		// Unknown frame types are parsed and silently discarded.
		frh.body = nil
		return n, nil
	}

	frh.body = newFrame(frh.kind)
	return n, frh.body.Deserialize(frh)
}

// WriteTo serializes frh's body and writes the 9-byte header followed by
// the payload to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (int64, error) {
	frh.body.Serialize(frh)

	frh.length = len(frh.payload)
	if frh.length > int(maxFrameSize) || (frh.maxLen != 0 && frh.length > int(frh.maxLen)) {
		return 0, NewConnectionError(FrameSizeError, "frame payload too large to send")
	}
	frh.buildRawHeader()

	n, err := w.Write(frh.raw[:])
	if err != nil {
		return int64(n), err
	}

	m, err := w.Write(frh.payload)
	return int64(n + m), err
}
