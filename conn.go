package h2

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"net"
	"os"
	"sync"
)

// Conn is one HTTP/2 connection: the dispatch loop, the shared HPACK
// state, the stream table, and the connection-level flow-control
// window. Create one with NewServerConn or NewClientConn and call Serve.
//
// https://tools.ietf.org/html/rfc7540#section-5
type Conn struct {
	nc net.Conn
	br *bufio.Reader
	bw *bufio.Writer

	isServer bool

	localSettings *Settings
	peerSettings  *Settings

	hdec *Decoder
	henc *Encoder

	streamsMu sync.Mutex
	streams   map[uint32]*Stream

	nextStreamID      uint32
	maxRemoteStreamID uint32

	sendWindow *window

	needsContinuation *Stream

	params   *Params
	delegate ConnDelegate

	writeMu sync.Mutex

	logger *log.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Params bounds resource use of a Conn: an embedding application tunes
// these instead of touching protocol internals directly.
type Params struct {
	// MaxHeaderListSize caps the encoded size (the HPACK bytes carried
	// by its HEADERS and CONTINUATION frames) of a single header block;
	// exceeding it on the server side yields a 431 response.
	MaxHeaderListSize uint32
	// Logger receives diagnostic lines; defaults to a stderr logger.
	Logger *log.Logger
}

func (p *Params) logger() *log.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return log.New(os.Stderr, "h2: ", log.LstdFlags)
}

func (p *Params) maxHeaderListSize() uint32 {
	if p != nil && p.MaxHeaderListSize != 0 {
		return p.MaxHeaderListSize
	}
	return 1 << 20
}

func newConn(nc net.Conn, isServer bool, delegate ConnDelegate, params *Params) *Conn {
	c := &Conn{
		nc:            nc,
		br:            bufio.NewReaderSize(nc, 32*1024),
		bw:            bufio.NewWriterSize(nc, 32*1024),
		isServer:      isServer,
		localSettings: AcquireSettings(),
		peerSettings:  AcquireSettings(),
		hdec:          NewDecoder(),
		henc:          NewEncoder(),
		streams:       make(map[uint32]*Stream),
		delegate:      delegate,
		params:        params,
		logger:        params.logger(),
		closed:        make(chan struct{}),
	}
	c.sendWindow = newWindow(defaultWindowSize, nil)

	if isServer {
		c.nextStreamID = 2
		c.localSettings.SetEnablePush(0)
	} else {
		c.nextStreamID = 1
		c.localSettings.SetEnablePush(0)
	}

	return c
}

// Serve runs the connection preface handshake and then the dispatch
// loop until the transport closes or a connection-fatal error occurs
// (spec.md §4.7). It always returns with the transport closed.
func (c *Conn) Serve() error {
	defer c.Close()

	if err := c.handshake(); err != nil {
		return err
	}

	for {
		if err := c.serveOnce(); err != nil {
			if err == io.EOF {
				return nil
			}
			if cerr, ok := err.(*ConnectionError); ok {
				c.writeGoAway(cerr)
				return cerr
			}
			return err
		}
	}
}

func (c *Conn) handshake() error {
	if c.isServer {
		buf := make([]byte, len(ClientPreface))
		if _, err := io.ReadFull(c.br, buf); err != nil {
			return err
		}
		if !bytes.Equal(buf, ClientPreface) {
			return ErrBadPreface
		}
	} else {
		if _, err := c.nc.Write(ClientPreface); err != nil {
			return err
		}
	}

	return c.writeSettings(c.localSettings)
}

func (c *Conn) writeSettings(s *Settings) error {
	frh := AcquireFrameHeader()
	frh.SetBody(s)
	_, err := c.writeFrameHeader(frh)
	frh.body = nil // Settings is owned by the caller, not the pool
	ReleaseFrameHeader(frh)
	return err
}

func (c *Conn) ackSettings() error {
	s := AcquireSettings()
	s.SetAck(true)
	frh := AcquireFrameHeader()
	frh.SetBody(s)
	_, err := c.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)
	return err
}

// writeFrameHeader serializes and writes a single frame under the
// connection write lock, flushing immediately; used both by the
// dispatch loop (SETTINGS ack, PING ack, GOAWAY, WINDOW_UPDATE) and by
// Stream's send-path methods from other goroutines.
func (c *Conn) writeFrameHeader(frh *FrameHeader) (int64, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	n, err := frh.WriteTo(c.bw)
	if err != nil {
		return n, err
	}
	return n, c.bw.Flush()
}

func (c *Conn) sendWindowUpdate(s *Stream, n uint32) {
	if n == 0 {
		return
	}

	wu := AcquireWindowUpdate()
	wu.SetIncrement(n)
	frh := AcquireFrameHeader()
	frh.SetStream(s.ID())
	frh.SetBody(wu)
	c.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)

	wu2 := AcquireWindowUpdate()
	wu2.SetIncrement(n)
	frh2 := AcquireFrameHeader()
	frh2.SetBody(wu2)
	c.writeFrameHeader(frh2)
	ReleaseFrameHeader(frh2)
}

func (c *Conn) writeGoAway(cerr *ConnectionError) {
	g := AcquireGoAway()
	g.SetLastStreamID(c.maxRemoteStreamID)
	g.SetCode(cerr.Code)
	g.SetDebug([]byte(cerr.Debug))

	frh := AcquireFrameHeader()
	frh.SetBody(g)
	c.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)
}

// Close tears down the transport and notifies every open stream and the
// connection delegate exactly once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.nc.Close()

		c.streamsMu.Lock()
		streams := make([]*Stream, 0, len(c.streams))
		for _, s := range c.streams {
			streams = append(streams, s)
		}
		c.streamsMu.Unlock()

		for _, s := range streams {
			s.markDone(false)
		}

		if c.delegate != nil {
			c.delegate.OnClose(c)
		}
	})
	return err
}

func (c *Conn) serveOnce() error {
	frh, err := ReadFrameFromWithSize(c.br, c.localSettings.MaxFrameSize())
	if err != nil {
		// A bad frame can fail to deserialize with a stream-local error
		// (e.g. a malformed PRIORITY or a zero-increment stream
		// WINDOW_UPDATE) — that's RST_STREAM + continue, not GOAWAY.
		return c.dispatchStreamErr(err)
	}
	defer ReleaseFrameHeader(frh)

	if c.needsContinuation != nil {
		strm := c.needsContinuation
		if frh.Type() != FrameContinuation || frh.Stream() != strm.ID() {
			return NewConnectionError(ProtocolError, "expected CONTINUATION")
		}
	}

	if frh.Stream() == 0 {
		return c.handleConnFrame(frh)
	}

	return c.handleStreamFrame(frh)
}

func (c *Conn) handleConnFrame(frh *FrameHeader) error {
	switch frh.Type() {
	case FrameSettings:
		return c.handleSettings(frh.Body().(*Settings))
	case FramePing:
		return c.handlePing(frh.Body().(*Ping))
	case FrameGoAway:
		return c.handleGoAway(frh.Body().(*GoAway))
	case FrameWindowUpdate:
		return c.handleConnWindowUpdate(frh.Body().(*WindowUpdate))
	default:
		if frh.Body() == nil {
			// Unknown frame type, already discarded.
			return nil
		}
		return NewConnectionError(ProtocolError, "unexpected frame on stream 0")
	}
}

func (c *Conn) handleSettings(s *Settings) error {
	if s.IsAck() {
		return nil
	}

	oldInitial := c.peerSettings.InitialWindowSize()
	s.CopyTo(c.peerSettings)
	newInitial := c.peerSettings.InitialWindowSize()

	if newInitial != oldInitial {
		c.streamsMu.Lock()
		for _, strm := range c.streams {
			strm.window.SetInitialSize(oldInitial, newInitial)
		}
		c.streamsMu.Unlock()
	}

	if s.HasHeaderTableSize() {
		c.henc.SetMaxTableSize(s.HeaderTableSize())
	}

	return c.ackSettings()
}

func (c *Conn) handlePing(p *Ping) error {
	if p.Ack() {
		return nil
	}
	reply := AcquirePing()
	reply.SetAck(true)
	reply.SetData(p.Data())

	frh := AcquireFrameHeader()
	frh.SetBody(reply)
	_, err := c.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)
	return err
}

func (c *Conn) handleGoAway(g *GoAway) error {
	c.Close()
	return io.EOF
}

func (c *Conn) handleConnWindowUpdate(w *WindowUpdate) error {
	if overflow := c.sendWindow.IncreaseBy(w.Increment()); overflow {
		return NewConnectionError(FlowControlError, "connection window overflow")
	}
	return nil
}

func (c *Conn) handleStreamFrame(frh *FrameHeader) error {
	id := frh.Stream()

	c.streamsMu.Lock()
	strm, ok := c.streams[id]
	c.streamsMu.Unlock()

	if !ok {
		var err error
		strm, err = c.admitStream(frh)
		if err != nil {
			return c.dispatchStreamErr(err)
		}
		if strm == nil {
			return nil
		}
	}

	err := c.dispatchToStream(strm, frh)
	return c.dispatchStreamErr(err)
}

// dispatchStreamErr turns a StreamError into an RST_STREAM write and
// absorbs it, per spec.md §7; any other error (including
// *ConnectionError) propagates to Serve.
func (c *Conn) dispatchStreamErr(err error) error {
	if err == nil {
		return nil
	}
	if serr, ok := err.(*StreamError); ok {
		c.resetStream(serr.StreamID, serr.Code)
		return nil
	}
	return err
}

func (c *Conn) resetStream(id uint32, code ErrorCode) {
	r := AcquireRstStream()
	r.SetCode(code)
	frh := AcquireFrameHeader()
	frh.SetStream(id)
	frh.SetBody(r)
	c.writeFrameHeader(frh)
	ReleaseFrameHeader(frh)

	c.streamsMu.Lock()
	strm := c.streams[id]
	delete(c.streams, id)
	c.streamsMu.Unlock()
	if strm != nil {
		strm.markDone(false)
	}
}

// admitStream opens a new server-side stream for a first HEADERS frame,
// or classifies an unknown id as already-closed or out-of-sequence
// (spec.md §4.7).
func (c *Conn) admitStream(frh *FrameHeader) (*Stream, error) {
	id := frh.Stream()

	if !c.isServer || frh.Type() != FrameHeaders {
		if id <= c.maxRemoteStreamID {
			return nil, NewStreamError(id, StreamClosedError)
		}
		return nil, NewConnectionError(ProtocolError, "frame for unopened future stream")
	}

	// Remote (client) stream ids are odd; ours (server) are even.
	if id%2 == 0 {
		return nil, NewConnectionError(ProtocolError, "even stream id from client")
	}
	if id <= c.maxRemoteStreamID {
		return nil, NewStreamError(id, StreamClosedError)
	}

	c.maxRemoteStreamID = id

	strm := newStream(id, c)
	c.streamsMu.Lock()
	c.streams[id] = strm
	c.streamsMu.Unlock()

	return strm, nil
}

func (c *Conn) dispatchToStream(strm *Stream, frh *FrameHeader) error {
	switch frh.Type() {
	case FrameHeaders:
		return strm.onHeaders(frh, frh.Body().(*Headers))
	case FrameContinuation:
		return strm.onContinuation(frh.Body().(*Continuation))
	case FrameData:
		return strm.onData(frh, frh.Body().(*Data))
	case FramePriority:
		return strm.onPriority(frh, frh.Body().(*Priority))
	case FrameResetStream:
		return strm.onRstStream(frh.Body().(*RstStream))
	case FrameWindowUpdate:
		return strm.onWindowUpdate(frh.Body().(*WindowUpdate))
	case FrameSettings, FrameGoAway, FramePushPromise:
		return NewConnectionError(ProtocolError, "connection-only frame type on a stream")
	default:
		return nil // unknown type, already discarded
	}
}

// NewStream allocates the next client-initiated stream id and registers
// it in the stream table; used by client.go before the first
// WriteHeaders on that stream.
func (c *Conn) NewStream(delegate StreamDelegate) *Stream {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	id := c.nextStreamID
	c.nextStreamID += 2

	strm := newStream(id, c)
	strm.delegate = delegate
	c.streams[id] = strm
	return strm
}
