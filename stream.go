package h2

import (
	"fmt"
	"strconv"
	"sync"
)

// streamPhase is a stream's position in its header/body/trailer
// lifecycle (spec.md §4.6).
type streamPhase uint8

const (
	phaseHeaders streamPhase = iota
	phaseBody
	phaseTrailers
	phaseDone
)

// HeaderField pairs as delivered to a StreamDelegate; order preserved.
type HeaderList struct {
	fields []headerPair
}

type headerPair struct {
	name  string
	value string
}

func (hl *HeaderList) add(name, value string) {
	hl.fields = append(hl.fields, headerPair{name, value})
}

// Len returns the number of ordinary header fields.
func (hl *HeaderList) Len() int { return len(hl.fields) }

// At returns the name/value pair at index i.
func (hl *HeaderList) At(i int) (name, value string) {
	p := hl.fields[i]
	return p.name, p.value
}

// Get returns the first value for name (case-sensitive; names are
// already lowercased by HPACK decoding), or "" if absent.
func (hl *HeaderList) Get(name string) string {
	for _, p := range hl.fields {
		if p.name == name {
			return p.value
		}
	}
	return ""
}

// Stream is one HTTP/2 stream of a Conn: a request/response exchange
// (server side) or a request/response round trip (client side).
//
// https://tools.ietf.org/html/rfc7540#section-5
type Stream struct {
	id   uint32
	conn *Conn

	phase streamPhase

	headerBlock    []byte
	headerEndStrm  bool
	pendingTrailer bool

	isHeadReq bool

	start StartLine

	inResidual  int64
	hasInRes    bool
	outResidual int64
	hasOutRes   bool

	window *window

	delegate StreamDelegate

	writeMu sync.Mutex

	mu        sync.Mutex
	inClosed  bool
	outClosed bool
	done      bool
}

func newStream(id uint32, conn *Conn) *Stream {
	strm := &Stream{
		id:     id,
		conn:   conn,
		window: newWindow(conn.peerSettings.InitialWindowSize(), conn.sendWindow),
	}
	return strm
}

// ID returns the stream's identifier.
func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// markDone finalizes the stream exactly once, for an abnormal end (a
// received RST_STREAM or the owning connection closing): both
// directions end together regardless of whether either had reached its
// own END_STREAM.
func (s *Stream) markDone(notifyFinish bool) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	s.window.Close()
	s.conn.streamsMu.Lock()
	delete(s.conn.streams, s.id)
	s.conn.streamsMu.Unlock()

	if s.delegate == nil {
		return
	}
	if notifyFinish {
		s.delegate.Finish()
	} else {
		s.delegate.OnConnectionClose()
	}
}

// maybeCloseFully tears the stream down once both directions have
// reached their own END_STREAM (RFC 7540 §5.1's "closed" state):
// incoming and outgoing half-closes are independent, so the send
// window must stay open for a response written after the request body
// finished, and vice versa on the client side.
func (s *Stream) maybeCloseFully() {
	s.mu.Lock()
	if s.done || !s.inClosed || !s.outClosed {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	s.window.Close()
	s.conn.streamsMu.Lock()
	delete(s.conn.streams, s.id)
	s.conn.streamsMu.Unlock()
}

// onHeaders processes a HEADERS frame already stripped of padding by its
// own Deserialize; frh carries the original flags.
func (s *Stream) onHeaders(frh *FrameHeader, h *Headers) error {
	if s.isDone() {
		return NewStreamError(s.id, StreamClosedError)
	}

	switch s.phase {
	case phaseBody:
		s.phase = phaseTrailers
		s.pendingTrailer = true
	case phaseTrailers, phaseDone:
		return NewStreamError(s.id, ProtocolError)
	}

	s.headerBlock = append(s.headerBlock, h.HeaderBlockFragment()...)
	s.headerEndStrm = s.headerEndStrm || h.EndStream()

	if s.conn.isServer && uint32(len(s.headerBlock)) > s.conn.params.maxHeaderListSize() {
		s.conn.needsContinuation = nil
		return s.rejectTooLarge()
	}

	if !h.EndHeaders() {
		s.conn.needsContinuation = s
		return nil
	}

	s.conn.needsContinuation = nil
	return s.completeHeaderBlock()
}

func (s *Stream) onContinuation(c *Continuation) error {
	if s.conn.needsContinuation != s {
		return NewConnectionError(ProtocolError, "CONTINUATION without preceding HEADERS")
	}

	s.headerBlock = append(s.headerBlock, c.HeaderBlockFragment()...)

	if s.conn.isServer && uint32(len(s.headerBlock)) > s.conn.params.maxHeaderListSize() {
		s.conn.needsContinuation = nil
		return s.rejectTooLarge()
	}

	if !c.EndHeaders() {
		return nil
	}

	s.conn.needsContinuation = nil
	return s.completeHeaderBlock()
}

// rejectTooLarge synthesizes an empty 431 response when a server-side
// header block exceeds the configured limit (spec.md §4.6), bypassing
// HPACK decode of the oversized block entirely.
func (s *Stream) rejectTooLarge() error {
	s.headerBlock = nil
	s.phase = phaseDone
	start := StartLine{Status: 431}
	if err := s.WriteHeaders(&start, nil, true); err != nil {
		return err
	}
	s.markDone(true)
	return nil
}

func (s *Stream) completeHeaderBlock() error {
	block := s.headerBlock
	s.headerBlock = nil

	if s.pendingTrailer {
		if !s.headerEndStrm {
			return NewStreamError(s.id, ProtocolError)
		}
	}

	start := StartLine{}
	list := &HeaderList{}
	seenPseudo := map[string]bool{}
	pseudoPhaseOver := false
	var decodeErr error

	err := s.conn.hdec.Decode(block, func(name, value []byte, sensitive bool) {
		if decodeErr != nil {
			return
		}
		n := string(name)

		for i := 0; i < len(n); i++ {
			if n[i] >= 'A' && n[i] <= 'Z' {
				decodeErr = NewStreamError(s.id, ProtocolError)
				return
			}
		}

		if len(n) > 0 && n[0] == ':' {
			if pseudoPhaseOver {
				decodeErr = NewStreamError(s.id, ProtocolError)
				return
			}
			if seenPseudo[n] {
				decodeErr = NewStreamError(s.id, ProtocolError)
				return
			}
			seenPseudo[n] = true

			// Servers accept only request pseudo-headers, clients only
			// :status.
			if (n == string(strStatus)) == s.conn.isServer {
				decodeErr = NewStreamError(s.id, ProtocolError)
				return
			}

			switch n {
			case string(strMethod):
				start.Method = string(value)
			case string(strScheme):
				start.Scheme = string(value)
			case string(strAuthority):
				start.Authority = string(value)
				list.add(string(strHost), string(value))
			case string(strPath):
				start.Path = string(value)
			case string(strStatus):
				code, convErr := strconv.Atoi(string(value))
				if convErr != nil {
					decodeErr = NewStreamError(s.id, ProtocolError)
					return
				}
				start.Status = code
			default:
				decodeErr = NewStreamError(s.id, ProtocolError)
			}
			return
		}

		pseudoPhaseOver = true

		if n == string(strConnection) {
			decodeErr = NewConnectionError(ProtocolError, "forbidden connection header")
			return
		}
		if n == string(strTE) && string(value) != string(strTrailers) {
			decodeErr = NewStreamError(s.id, ProtocolError)
			return
		}
		if n == string(strContentLength) {
			if cl, convErr := strconv.ParseInt(string(value), 10, 64); convErr == nil {
				s.inResidual = cl
				s.hasInRes = true
			}
		}

		list.add(n, string(value))
	})
	if err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}

	if s.pendingTrailer {
		return s.finishIncoming()
	}

	if s.conn.isServer {
		if start.Method == "" || start.Scheme == "" || start.Path == "" {
			return NewStreamError(s.id, ProtocolError)
		}
		s.isHeadReq = start.Method == string(strHead)
		if s.isHeadReq {
			s.inResidual, s.hasInRes = 0, true
		}
	} else {
		if start.Status/100 == 1 {
			// Informational responses carry no body and don't end the
			// header phase in the application's eyes; RFC 7540 allows
			// more than one HEADERS frame before the final response.
			s.start = start
			return nil
		}
		if start.Status == 304 {
			s.inResidual, s.hasInRes = 0, true
		}
	}

	s.start = start
	s.phase = phaseBody

	if s.delegate == nil && s.conn.delegate != nil && s.conn.isServer {
		s.delegate = s.conn.delegate.StartRequest(s.conn, s)
	}
	if s.delegate != nil {
		s.delegate.HeadersReceived(&s.start, list)
	}

	if s.headerEndStrm {
		return s.finishIncoming()
	}

	return nil
}

func (s *Stream) onData(frh *FrameHeader, d *Data) error {
	if s.isDone() {
		return NewStreamError(s.id, StreamClosedError)
	}
	if s.conn.needsContinuation != nil {
		return NewConnectionError(ProtocolError, "DATA while CONTINUATION expected")
	}
	if s.phase == phaseTrailers || s.phase == phaseDone {
		return NewStreamError(s.id, ProtocolError)
	}

	n := uint32(d.Len())

	if s.hasInRes {
		s.inResidual -= int64(n)
		if s.inResidual < 0 {
			return NewStreamError(s.id, ProtocolError)
		}
	}

	var wait <-chan struct{}
	if s.delegate != nil {
		wait = s.delegate.DataReceived(d.Bytes())
	}

	if wait != nil {
		go s.deferredWindowUpdate(wait, n)
	} else if n > 0 {
		s.conn.sendWindowUpdate(s, n)
	}

	if d.EndStream() {
		if s.hasInRes && s.inResidual != 0 {
			return NewStreamError(s.id, ProtocolError)
		}
		return s.finishIncoming()
	}

	return nil
}

func (s *Stream) deferredWindowUpdate(ready <-chan struct{}, n uint32) {
	<-ready
	if n > 0 {
		s.conn.sendWindowUpdate(s, n)
	}
}

func (s *Stream) finishIncoming() error {
	s.phase = phaseDone

	s.mu.Lock()
	s.inClosed = true
	s.mu.Unlock()

	if s.delegate != nil {
		// Finish typically writes the response body, which blocks in
		// Write/window.Consume until the peer sends WINDOW_UPDATE. The
		// connection has only one dispatch goroutine, and it's the same
		// goroutine that reads those WINDOW_UPDATE frames off the wire —
		// calling Finish synchronously here would have it block on a
		// window it can never see replenished. Run it on its own
		// goroutine so the read loop stays free.
		go s.delegate.Finish()
	}

	s.maybeCloseFully()
	return nil
}

func (s *Stream) onPriority(frh *FrameHeader, p *Priority) error {
	return nil
}

func (s *Stream) onRstStream(r *RstStream) error {
	s.markDone(false)
	return nil
}

func (s *Stream) onWindowUpdate(w *WindowUpdate) error {
	if overflow := s.window.IncreaseBy(w.Increment()); overflow {
		return NewStreamError(s.id, FlowControlError)
	}
	return nil
}

// WriteHeaders emits start/headers as a single HEADERS frame
// (spec.md §4.6.2). For a server stream start.Status must be set; for a
// client stream start.Method and start.Path must be set, :authority is
// sent when start.Authority is non-empty, and :scheme is always sent as
// "https" (start.Scheme is not used).
func (s *Stream) WriteHeaders(start *StartLine, headers *HeaderList, endStream bool) error {
	h := AcquireHeaders()

	var block []byte
	hf := AcquireHeaderField()
	defer ReleaseHeaderField(hf)

	if s.conn.isServer {
		hf.SetBytes(strStatus, []byte(strconv.Itoa(start.Status)))
		block = s.conn.henc.Encode(block, hf)
	} else {
		hf.SetBytes(strMethod, []byte(start.Method))
		block = s.conn.henc.Encode(block, hf)
		hf.SetBytes(strScheme, []byte("https"))
		block = s.conn.henc.Encode(block, hf)
		if start.Authority != "" {
			hf.SetBytes(strAuthority, []byte(start.Authority))
			block = s.conn.henc.Encode(block, hf)
		}
		hf.SetBytes(strPath, []byte(start.Path))
		block = s.conn.henc.Encode(block, hf)
	}

	if headers != nil {
		for i := 0; i < headers.Len(); i++ {
			name, value := headers.At(i)
			if name == string(strConnection) {
				continue
			}
			hf.SetBytes([]byte(name), []byte(value))
			block = s.conn.henc.Encode(block, hf)
			if name == string(strContentLength) {
				if cl, err := strconv.ParseInt(value, 10, 64); err == nil {
					s.outResidual, s.hasOutRes = cl, true
				}
			}
		}
	}

	if !s.hasOutRes {
		if s.conn.isServer && s.isHeadReq {
			s.outResidual, s.hasOutRes = 0, true
		}
	}

	h.SetHeaderBlockFragment(block)
	h.SetEndHeaders(true)
	h.SetEndStream(endStream)

	frh := AcquireFrameHeader()
	frh.SetStream(s.id)
	frh.SetBody(h)
	_, err := s.conn.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)
	if err != nil {
		return err
	}

	if endStream {
		s.mu.Lock()
		s.outClosed = true
		s.mu.Unlock()
		s.maybeCloseFully()
	}

	return nil
}

// Write splits chunk into MAX_FRAME_SIZE slices and emits them as DATA
// frames, each gated on the stream (and transitively connection) flow
// control window (spec.md §4.6.2).
func (s *Stream) Write(chunk []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for len(chunk) > 0 {
		n := len(chunk)
		if n > int(defaultMaxFrameSize) {
			n = int(defaultMaxFrameSize)
		}
		// Send no more than the windows currently allow, so a peer with a
		// small window still receives data; with no quota at all, wait
		// for a single byte of it.
		if avail := s.window.AvailableMax(); uint32(n) > avail {
			n = int(avail)
			if n == 0 {
				n = 1
			}
		}

		if err := s.window.Consume(uint32(n)); err != nil {
			return err
		}

		if s.hasOutRes {
			s.outResidual -= int64(n)
			if s.outResidual < 0 {
				s.reset(InternalError)
				return &OutputError{StreamID: s.id, Reason: "wrote more than Content-Length"}
			}
		}

		d := AcquireData()
		d.SetBytes(chunk[:n])

		frh := AcquireFrameHeader()
		frh.SetStream(s.id)
		frh.SetBody(d)
		_, err := s.conn.writeFrameHeader(frh)
		ReleaseFrameHeader(frh)
		if err != nil {
			return err
		}

		chunk = chunk[n:]
	}

	return nil
}

// Finish verifies the outgoing content-length residual is exactly zero,
// then emits an empty END_STREAM DATA frame (spec.md §4.6.2).
func (s *Stream) Finish() error {
	if s.hasOutRes && s.outResidual != 0 {
		s.reset(InternalError)
		return &OutputError{StreamID: s.id, Reason: fmt.Sprintf("finish with %d bytes unwritten", s.outResidual)}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	d := AcquireData()
	d.SetEndStream(true)

	frh := AcquireFrameHeader()
	frh.SetStream(s.id)
	frh.SetBody(d)
	_, err := s.conn.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.outClosed = true
	s.mu.Unlock()
	s.maybeCloseFully()

	return nil
}

// Reset aborts the stream, emitting RST_STREAM with code.
func (s *Stream) Reset(code ErrorCode) { s.reset(code) }

func (s *Stream) reset(code ErrorCode) {
	r := AcquireRstStream()
	r.SetCode(code)

	frh := AcquireFrameHeader()
	frh.SetStream(s.id)
	frh.SetBody(r)
	s.conn.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)

	s.markDone(false)
}
