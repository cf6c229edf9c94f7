package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var _ Frame = (*Settings)(nil)

// settingsRecordSize is the wire size of a single SETTINGS parameter: a
// 2-byte identifier followed by a 4-byte value.
const settingsRecordSize = 6

// Settings is the FrameSettings body: either a batch of parameter updates
// (ack == false) or the empty acknowledgement of a peer's batch
// (ack == true, FlagAck set, empty payload).
//
// https://tools.ietf.org/html/rfc7540#section-6.5
type Settings struct {
	ack bool

	headerTableSize      uint32
	hasHeaderTableSize   bool
	enablePush           uint32
	hasEnablePush        bool
	maxConcurrentStreams uint32
	hasMaxConcurrent     bool
	initialWindowSize    uint32
	hasInitialWindow     bool
	maxFrameSize         uint32
	hasMaxFrameSize      bool
	maxHeaderListSize    uint32
	hasMaxHeaderList     bool
}

var settingsPool = sync.Pool{New: func() interface{} { return &Settings{} }}

func AcquireSettings() *Settings {
	s := settingsPool.Get().(*Settings)
	s.Reset()
	return s
}

func ReleaseSettings(s *Settings) { settingsPool.Put(s) }

func (s *Settings) Type() FrameType { return FrameSettings }

func (s *Settings) Reset() {
	s.ack = false
	s.headerTableSize = 0
	s.hasHeaderTableSize = false
	s.enablePush = 0
	s.hasEnablePush = false
	s.maxConcurrentStreams = 0
	s.hasMaxConcurrent = false
	s.initialWindowSize = 0
	s.hasInitialWindow = false
	s.maxFrameSize = 0
	s.hasMaxFrameSize = false
	s.maxHeaderListSize = 0
	s.hasMaxHeaderList = false
}

// CopyTo copies every parameter present in s into dst, leaving dst's
// existing values alone where s has none set.
func (s *Settings) CopyTo(dst *Settings) {
	dst.ack = s.ack
	if s.hasHeaderTableSize {
		dst.SetHeaderTableSize(s.headerTableSize)
	}
	if s.hasEnablePush {
		dst.SetEnablePush(s.enablePush)
	}
	if s.hasMaxConcurrent {
		dst.SetMaxConcurrentStreams(s.maxConcurrentStreams)
	}
	if s.hasInitialWindow {
		dst.SetInitialWindowSize(s.initialWindowSize)
	}
	if s.hasMaxFrameSize {
		dst.SetMaxFrameSize(s.maxFrameSize)
	}
	if s.hasMaxHeaderList {
		dst.SetMaxHeaderListSize(s.maxHeaderListSize)
	}
}

func (s *Settings) IsAck() bool     { return s.ack }
func (s *Settings) SetAck(v bool)   { s.ack = v }

func (s *Settings) HeaderTableSize() uint32 {
	if s.hasHeaderTableSize {
		return s.headerTableSize
	}
	return defaultHeaderTableSize
}
func (s *Settings) HasHeaderTableSize() bool { return s.hasHeaderTableSize }
func (s *Settings) SetHeaderTableSize(n uint32) {
	s.headerTableSize = n
	s.hasHeaderTableSize = true
}

func (s *Settings) Push() bool { return !s.hasEnablePush || s.enablePush == 1 }
func (s *Settings) SetEnablePush(n uint32) {
	s.enablePush = n
	s.hasEnablePush = true
}

func (s *Settings) MaxConcurrentStreams() uint32 {
	if s.hasMaxConcurrent {
		return s.maxConcurrentStreams
	}
	return defaultConcurrentStreams
}
func (s *Settings) HasMaxConcurrentStreams() bool { return s.hasMaxConcurrent }
func (s *Settings) SetMaxConcurrentStreams(n uint32) {
	s.maxConcurrentStreams = n
	s.hasMaxConcurrent = true
}

func (s *Settings) InitialWindowSize() uint32 {
	if s.hasInitialWindow {
		return s.initialWindowSize
	}
	return defaultWindowSize
}
func (s *Settings) HasInitialWindowSize() bool { return s.hasInitialWindow }
func (s *Settings) SetInitialWindowSize(n uint32) {
	s.initialWindowSize = n
	s.hasInitialWindow = true
}

func (s *Settings) MaxFrameSize() uint32 {
	if s.hasMaxFrameSize {
		return s.maxFrameSize
	}
	return defaultMaxFrameSize
}
func (s *Settings) SetMaxFrameSize(n uint32) {
	s.maxFrameSize = n
	s.hasMaxFrameSize = true
}

func (s *Settings) MaxHeaderListSize() uint32 {
	if s.hasMaxHeaderList {
		return s.maxHeaderListSize
	}
	return 0 // 0 means unlimited, RFC 7540 §6.5.2
}
func (s *Settings) HasMaxHeaderListSize() bool { return s.hasMaxHeaderList }
func (s *Settings) SetMaxHeaderListSize(n uint32) {
	s.maxHeaderListSize = n
	s.hasMaxHeaderList = true
}

func (s *Settings) Deserialize(frh *FrameHeader) error {
	if frh.Stream() != 0 {
		return NewConnectionError(ProtocolError, "SETTINGS on non-zero stream")
	}

	if frh.Flags().Has(FlagAck) {
		if len(frh.payload) != 0 {
			return NewConnectionError(FrameSizeError, "SETTINGS ack must be empty")
		}
		s.ack = true
		return nil
	}

	if len(frh.payload)%settingsRecordSize != 0 {
		return NewConnectionError(FrameSizeError, "SETTINGS payload not a multiple of 6")
	}

	for i := 0; i+settingsRecordSize <= len(frh.payload); i += settingsRecordSize {
		id := uint16(frh.payload[i])<<8 | uint16(frh.payload[i+1])
		val := h2util.BytesToUint32(frh.payload[i+2 : i+6])

		switch id {
		case settingHeaderTableSize:
			s.SetHeaderTableSize(val)
		case settingEnablePush:
			if val != 0 && val != 1 {
				return NewConnectionError(ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
			}
			s.SetEnablePush(val)
		case settingMaxConcurrentStreams:
			s.SetMaxConcurrentStreams(val)
		case settingInitialWindowSize:
			if val > uint32(maxWindowSize) {
				return NewConnectionError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE exceeds 2^31-1")
			}
			s.SetInitialWindowSize(val)
		case settingMaxFrameSize:
			if val < minMaxFrameSize || val > maxFrameSize {
				return NewConnectionError(ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of range")
			}
			s.SetMaxFrameSize(val)
		case settingMaxHeaderListSize:
			s.SetMaxHeaderListSize(val)
		default:
			// Unknown parameters must be ignored, RFC 7540 §6.5.2.
		}
	}

	return nil
}

func (s *Settings) Serialize(frh *FrameHeader) {
	if s.ack {
		frh.SetFlags(frh.Flags().Add(FlagAck))
		frh.setPayload(nil)
		return
	}

	payload := make([]byte, 0, 6*settingsRecordSize)
	payload = s.appendRecord(payload, settingHeaderTableSize, s.hasHeaderTableSize, s.headerTableSize)
	payload = s.appendRecord(payload, settingEnablePush, s.hasEnablePush, s.enablePush)
	payload = s.appendRecord(payload, settingMaxConcurrentStreams, s.hasMaxConcurrent, s.maxConcurrentStreams)
	payload = s.appendRecord(payload, settingInitialWindowSize, s.hasInitialWindow, s.initialWindowSize)
	payload = s.appendRecord(payload, settingMaxFrameSize, s.hasMaxFrameSize, s.maxFrameSize)
	payload = s.appendRecord(payload, settingMaxHeaderListSize, s.hasMaxHeaderList, s.maxHeaderListSize)

	frh.setPayload(payload)
}

func (s *Settings) appendRecord(dst []byte, id uint16, has bool, val uint32) []byte {
	if !has {
		return dst
	}
	dst = append(dst, byte(id>>8), byte(id))
	return h2util.AppendUint32(dst, val)
}
