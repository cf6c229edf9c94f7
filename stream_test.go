package h2

import (
	"net"
	"testing"
	"time"
)

type fakeStreamDelegate struct {
	start    *StartLine
	headers  *HeaderList
	chunks   [][]byte
	finishd  bool
	closed   bool
	finishCh chan struct{}
}

func (d *fakeStreamDelegate) HeadersReceived(start *StartLine, headers *HeaderList) {
	d.start, d.headers = start, headers
}
func (d *fakeStreamDelegate) DataReceived(chunk []byte) (ready <-chan struct{}) {
	cp := append([]byte(nil), chunk...)
	d.chunks = append(d.chunks, cp)
	return nil
}

// Finish runs on its own goroutine (finishIncoming dispatches it that way
// so the read loop never blocks behind a handler), so tests must wait on
// finishCh rather than reading finishd right after the call that triggers it.
func (d *fakeStreamDelegate) Finish() {
	d.finishd = true
	if d.finishCh != nil {
		close(d.finishCh)
	}
}
func (d *fakeStreamDelegate) OnConnectionClose() { d.closed = true }

type fakeConnDelegate struct {
	delegate *fakeStreamDelegate
}

func (d *fakeConnDelegate) StartRequest(conn *Conn, strm *Stream) StreamDelegate {
	return d.delegate
}
func (d *fakeConnDelegate) OnClose(conn *Conn) {}

func newTestServerConn(t *testing.T) *Conn {
	t.Helper()
	nc, _ := net.Pipe()
	t.Cleanup(func() { nc.Close() })
	return newConn(nc, true, nil, nil)
}

func encodeBlock(c *Conn, fields [][2]string) []byte {
	var block []byte
	hf := AcquireHeaderField()
	defer ReleaseHeaderField(hf)
	for _, f := range fields {
		hf.Reset()
		hf.SetBytes([]byte(f[0]), []byte(f[1]))
		block = c.henc.Encode(block, hf)
	}
	return block
}

func headersFrame(c *Conn, id uint32, block []byte, endHeaders, endStream bool) (*FrameHeader, *Headers) {
	h := AcquireHeaders()
	h.SetHeaderBlockFragment(block)
	h.SetEndHeaders(endHeaders)
	h.SetEndStream(endStream)

	frh := AcquireFrameHeader()
	frh.SetStream(id)
	return frh, h
}

func TestStreamHeadersToBodyPhase(t *testing.T) {
	c := newTestServerConn(t)
	fd := &fakeStreamDelegate{finishCh: make(chan struct{})}
	c.delegate = &fakeConnDelegate{delegate: fd}

	s := newStream(1, c)
	c.streams[1] = s

	block := encodeBlock(c, [][2]string{
		{":method", "GET"},
		{":scheme", "https"},
		{":authority", "example.com"},
		{":path", "/"},
		{"accept", "*/*"},
	})
	frh, h := headersFrame(c, 1, block, true, true)
	defer ReleaseFrameHeader(frh)

	if err := s.onHeaders(frh, h); err != nil {
		t.Fatalf("onHeaders: %v", err)
	}

	if fd.start == nil || fd.start.Method != "GET" || fd.start.Path != "/" {
		t.Fatalf("unexpected start line: %+v", fd.start)
	}
	if fd.headers.Get("host") != "example.com" {
		t.Fatalf(":authority should synthesize a host header, got %q", fd.headers.Get("host"))
	}
	select {
	case <-fd.finishCh:
	case <-time.After(time.Second):
		t.Fatalf("END_STREAM headers should finish the stream")
	}
	if !fd.finishd {
		t.Fatalf("END_STREAM headers should finish the stream")
	}
	if s.phase != phaseDone {
		t.Fatalf("expected phaseDone, got %v", s.phase)
	}
}

func TestStreamRejectsUppercaseHeaderName(t *testing.T) {
	c := newTestServerConn(t)
	fd := &fakeStreamDelegate{}
	c.delegate = &fakeConnDelegate{delegate: fd}

	s := newStream(1, c)
	c.streams[1] = s

	block := encodeBlock(c, [][2]string{
		{":method", "GET"},
		{":scheme", "https"},
		{":path", "/"},
		{"Accept", "*/*"},
	})
	frh, h := headersFrame(c, 1, block, true, true)
	defer ReleaseFrameHeader(frh)

	err := s.onHeaders(frh, h)
	serr, ok := err.(*StreamError)
	if !ok || serr.Code != ProtocolError {
		t.Fatalf("expected ProtocolError StreamError, got %v", err)
	}
}

func TestStreamForbidsConnectionHeader(t *testing.T) {
	c := newTestServerConn(t)
	fd := &fakeStreamDelegate{}
	c.delegate = &fakeConnDelegate{delegate: fd}

	s := newStream(1, c)
	c.streams[1] = s

	block := encodeBlock(c, [][2]string{
		{":method", "GET"},
		{":scheme", "https"},
		{":path", "/"},
		{"connection", "keep-alive"},
	})
	frh, h := headersFrame(c, 1, block, true, true)
	defer ReleaseFrameHeader(frh)

	err := s.onHeaders(frh, h)
	if _, ok := err.(*ConnectionError); !ok {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestStreamContentLengthOverrunIsRejected(t *testing.T) {
	c := newTestServerConn(t)
	fd := &fakeStreamDelegate{}
	c.delegate = &fakeConnDelegate{delegate: fd}

	s := newStream(1, c)
	c.streams[1] = s

	block := encodeBlock(c, [][2]string{
		{":method", "POST"},
		{":scheme", "https"},
		{":path", "/"},
		{"content-length", "2"},
	})
	frh, h := headersFrame(c, 1, block, true, false)
	if err := s.onHeaders(frh, h); err != nil {
		t.Fatalf("onHeaders: %v", err)
	}
	ReleaseFrameHeader(frh)

	d := AcquireData()
	d.SetBytes([]byte("abc")) // declared 2, sent 3
	dfrh := AcquireFrameHeader()
	dfrh.SetStream(1)
	defer ReleaseFrameHeader(dfrh)

	err := s.onData(dfrh, d)
	serr, ok := err.(*StreamError)
	if !ok || serr.Code != ProtocolError {
		t.Fatalf("expected ProtocolError StreamError for content-length overrun, got %v", err)
	}
}

func TestStreamHeadRequestForcesZeroResidual(t *testing.T) {
	c := newTestServerConn(t)
	fd := &fakeStreamDelegate{}
	c.delegate = &fakeConnDelegate{delegate: fd}

	s := newStream(1, c)
	c.streams[1] = s

	block := encodeBlock(c, [][2]string{
		{":method", "HEAD"},
		{":scheme", "https"},
		{":path", "/"},
	})
	frh, h := headersFrame(c, 1, block, true, true)
	defer ReleaseFrameHeader(frh)

	if err := s.onHeaders(frh, h); err != nil {
		t.Fatalf("onHeaders: %v", err)
	}
	if !s.isHeadReq || !s.hasInRes || s.inResidual != 0 {
		t.Fatalf("HEAD request should force a zero incoming residual, got hasInRes=%v inResidual=%d", s.hasInRes, s.inResidual)
	}
}
