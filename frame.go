package h2

// FrameType is the 8-bit frame type field of the frame header.
//
// https://httpwg.org/specs/rfc7540.html#FrameTypes
type FrameType uint8

const (
	FrameData         FrameType = 0x0
	FrameHeaders      FrameType = 0x1
	FramePriority     FrameType = 0x2
	FrameResetStream  FrameType = 0x3
	FrameSettings     FrameType = 0x4
	FramePushPromise  FrameType = 0x5
	FramePing         FrameType = 0x6
	FrameGoAway       FrameType = 0x7
	FrameWindowUpdate FrameType = 0x8
	FrameContinuation FrameType = 0x9

	maxKnownFrameType = FrameContinuation
)

func (t FrameType) String() string {
	switch t {
	case FrameData:
		return "DATA"
	case FrameHeaders:
		return "HEADERS"
	case FramePriority:
		return "PRIORITY"
	case FrameResetStream:
		return "RST_STREAM"
	case FrameSettings:
		return "SETTINGS"
	case FramePushPromise:
		return "PUSH_PROMISE"
	case FramePing:
		return "PING"
	case FrameGoAway:
		return "GOAWAY"
	case FrameWindowUpdate:
		return "WINDOW_UPDATE"
	case FrameContinuation:
		return "CONTINUATION"
	}
	return "UNKNOWN"
}

// FrameFlags is the 8-bit flags field of the frame header. The same bit
// means different things for different frame types; see each frame's
// comment.
type FrameFlags uint8

const (
	FlagAck        FrameFlags = 0x1 // SETTINGS, PING
	FlagEndStream  FrameFlags = 0x1 // DATA, HEADERS
	FlagEndHeaders FrameFlags = 0x4 // HEADERS, PUSH_PROMISE, CONTINUATION
	FlagPadded     FrameFlags = 0x8 // DATA, HEADERS, PUSH_PROMISE
	FlagPriority   FrameFlags = 0x20
)

// Has reports whether flags contains every bit in f.
func (flags FrameFlags) Has(f FrameFlags) bool {
	return flags&f == f
}

// Add returns flags with f set.
func (flags FrameFlags) Add(f FrameFlags) FrameFlags {
	return flags | f
}

// Frame is the per-type payload of a frame. Each RFC 7540 frame type
// implements it as a concrete, poolable struct (Data, Headers, Settings,
// ...). Deserialize/Serialize translate between the struct's fields and
// FrameHeader's raw payload buffer.
type Frame interface {
	// Type returns the wire frame type this value encodes.
	Type() FrameType
	// Reset clears the value so it can be reused from a pool.
	Reset()
	// Deserialize populates the receiver from frh's already-read payload
	// and flags.
	Deserialize(frh *FrameHeader) error
	// Serialize writes the receiver's fields into frh's payload buffer
	// and flags, ready for FrameHeader.WriteTo.
	Serialize(frh *FrameHeader)
}

// newFrame allocates (from the matching pool) an empty Frame body for
// kind. Used by FrameHeader when reading an incoming frame from the wire.
func newFrame(kind FrameType) Frame {
	switch kind {
	case FrameData:
		return AcquireData()
	case FrameHeaders:
		return AcquireHeaders()
	case FramePriority:
		return AcquirePriority()
	case FrameResetStream:
		return AcquireRstStream()
	case FrameSettings:
		return AcquireSettings()
	case FramePushPromise:
		return AcquirePushPromise()
	case FramePing:
		return AcquirePing()
	case FrameGoAway:
		return AcquireGoAway()
	case FrameWindowUpdate:
		return AcquireWindowUpdate()
	case FrameContinuation:
		return AcquireContinuation()
	}
	return nil
}

// releaseFrame returns fr to its pool. Unknown/nil frames are ignored,
// since an unknown frame type is parsed into a nil body and discarded
// per spec.md §4.4.
func releaseFrame(fr Frame) {
	if fr == nil {
		return
	}
	switch f := fr.(type) {
	case *Data:
		ReleaseData(f)
	case *Headers:
		ReleaseHeaders(f)
	case *Priority:
		ReleasePriority(f)
	case *RstStream:
		ReleaseRstStream(f)
	case *Settings:
		ReleaseSettings(f)
	case *PushPromise:
		ReleasePushPromise(f)
	case *Ping:
		ReleasePing(f)
	case *GoAway:
		ReleaseGoAway(f)
	case *WindowUpdate:
		ReleaseWindowUpdate(f)
	case *Continuation:
		ReleaseContinuation(f)
	}
}

// FrameWithHeaders is implemented by the frame types that carry an HPACK
// header-block fragment: HEADERS, PUSH_PROMISE, CONTINUATION.
type FrameWithHeaders interface {
	Frame
	HeaderBlockFragment() []byte
}
