package h2

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type echoStreamDelegate struct {
	strm *Stream
}

func (d *echoStreamDelegate) HeadersReceived(start *StartLine, headers *HeaderList) {
	resp := &StartLine{Status: 200}
	hl := &HeaderList{}
	hl.add("content-length", "5")
	d.strm.WriteHeaders(resp, hl, false)
}
func (d *echoStreamDelegate) DataReceived(chunk []byte) (ready <-chan struct{}) { return nil }
func (d *echoStreamDelegate) Finish() {
	d.strm.Write([]byte("hello"))
	d.strm.Finish()
}
func (d *echoStreamDelegate) OnConnectionClose() {}

type echoConnDelegate struct{}

func (echoConnDelegate) StartRequest(conn *Conn, strm *Stream) StreamDelegate {
	return &echoStreamDelegate{strm: strm}
}
func (echoConnDelegate) OnClose(conn *Conn) {}

type clientRecorder struct {
	mu     sync.Mutex
	status int
	body   []byte
	doneCh chan struct{}
}

func newClientRecorder() *clientRecorder {
	return &clientRecorder{doneCh: make(chan struct{})}
}

func (r *clientRecorder) HeadersReceived(start *StartLine, headers *HeaderList) {
	r.mu.Lock()
	r.status = start.Status
	r.mu.Unlock()
}
func (r *clientRecorder) DataReceived(chunk []byte) (ready <-chan struct{}) {
	r.mu.Lock()
	r.body = append(r.body, chunk...)
	r.mu.Unlock()
	return nil
}
func (r *clientRecorder) Finish()           { close(r.doneCh) }
func (r *clientRecorder) OnConnectionClose() {}

// TestConnRequestResponseRoundTrip runs a full client/server exchange
// over an in-memory pipe: preface, SETTINGS exchange, one request, one
// response body, both dispatch loops torn down cleanly.
func TestConnRequestResponseRoundTrip(t *testing.T) {
	clientNC, serverNC := net.Pipe()

	server := NewServerConn(serverNC, echoConnDelegate{}, nil)
	client := NewClientConn(clientNC, nil, nil)

	go server.Serve()
	go client.Serve()
	defer client.Close()
	defer server.Close()

	rec := newClientRecorder()
	start := &StartLine{Method: "GET", Scheme: "https", Authority: "example.com", Path: "/"}
	_, err := client.Do(start, nil, rec, true)
	require.NoError(t, err)

	select {
	case <-rec.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, 200, rec.status)
	require.Equal(t, "hello", string(rec.body))
}
