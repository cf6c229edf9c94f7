package h2

import (
	"errors"
	"fmt"
)

// ErrorCode is an RFC 7540 §11.4 error code, carried on RST_STREAM and
// GOAWAY frames.
type ErrorCode uint32

// Error codes, http://httpwg.org/specs/rfc7540.html#ErrorCodes
const (
	NoError              ErrorCode = 0x0
	ProtocolError        ErrorCode = 0x1
	InternalError        ErrorCode = 0x2
	FlowControlError     ErrorCode = 0x3
	SettingsTimeoutError ErrorCode = 0x4
	StreamClosedError    ErrorCode = 0x5
	FrameSizeError       ErrorCode = 0x6
	RefusedStreamError   ErrorCode = 0x7
	CancelError          ErrorCode = 0x8
	CompressionError     ErrorCode = 0x9
	ConnectError         ErrorCode = 0xa
	EnhanceYourCalmError ErrorCode = 0xb
	InadequateSecurity   ErrorCode = 0xc
	HTTP11Required       ErrorCode = 0xd
)

var errCodeStrings = [...]string{
	NoError:              "NO_ERROR",
	ProtocolError:        "PROTOCOL_ERROR",
	InternalError:        "INTERNAL_ERROR",
	FlowControlError:     "FLOW_CONTROL_ERROR",
	SettingsTimeoutError: "SETTINGS_TIMEOUT",
	StreamClosedError:    "STREAM_CLOSED",
	FrameSizeError:       "FRAME_SIZE_ERROR",
	RefusedStreamError:   "REFUSED_STREAM",
	CancelError:          "CANCEL",
	CompressionError:     "COMPRESSION_ERROR",
	ConnectError:         "CONNECT_ERROR",
	EnhanceYourCalmError: "ENHANCE_YOUR_CALM",
	InadequateSecurity:   "INADEQUATE_SECURITY",
	HTTP11Required:       "HTTP_1_1_REQUIRED",
}

func (c ErrorCode) String() string {
	if int(c) < len(errCodeStrings) && errCodeStrings[c] != "" {
		return errCodeStrings[c]
	}
	return fmt.Sprintf("UNKNOWN_ERROR(0x%x)", uint32(c))
}

// ConnectionError is a connection-fatal error (spec.md §7): the dispatch
// loop answers it by writing GOAWAY with Code and Debug, then closing the
// transport.
type ConnectionError struct {
	Code  ErrorCode
	Debug string
}

func NewConnectionError(code ErrorCode, debug string) *ConnectionError {
	return &ConnectionError{Code: code, Debug: debug}
}

func (e *ConnectionError) Error() string {
	if e.Debug == "" {
		return fmt.Sprintf("http2: connection error: %s", e.Code)
	}
	return fmt.Sprintf("http2: connection error: %s: %s", e.Code, e.Debug)
}

// StreamError is a stream-local error (spec.md §7): the dispatch loop
// answers it by writing RST_STREAM on StreamID with Code and continuing.
type StreamError struct {
	StreamID uint32
	Code     ErrorCode
}

func NewStreamError(streamID uint32, code ErrorCode) *StreamError {
	return &StreamError{StreamID: streamID, Code: code}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("http2: stream error: stream=%d code=%s", e.StreamID, e.Code)
}

// OutputError marks a local application mistake writing a response body
// that disagrees with the advertised Content-Length; it always triggers
// a stream reset (spec.md §4.6.2/§7).
type OutputError struct {
	StreamID uint32
	Reason   string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("http2: output error: stream=%d: %s", e.StreamID, e.Reason)
}

// ErrStreamClosed is returned by flow-control consumers and stream writers
// once the owning stream has finished or been reset.
var ErrStreamClosed = errors.New("http2: stream closed")

// ErrBadPreface is returned by a server when the client's first 24 bytes
// don't match the HTTP/2 connection preface.
var ErrBadPreface = errors.New("http2: bad connection preface")
