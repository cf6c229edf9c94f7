package h2

// ConnDelegate is the per-connection collaborator supplied by the
// embedding application (spec.md §6). Conn calls it from its single
// dispatch goroutine, so implementations need no internal locking
// against concurrent calls from the same Conn.
type ConnDelegate interface {
	// StartRequest is called once a server-side stream's header block has
	// been fully decoded and validated; it returns the delegate that will
	// receive that stream's body/trailer callbacks.
	StartRequest(conn *Conn, strm *Stream) StreamDelegate

	// OnClose is called once when the connection's dispatch loop exits,
	// for any reason.
	OnClose(conn *Conn)
}

// StreamDelegate is the per-stream collaborator; spec.md §6.
type StreamDelegate interface {
	// HeadersReceived delivers a fully decoded, validated header block:
	// the pseudo-headers captured in startLine and the ordinary headers.
	HeadersReceived(startLine *StartLine, headers *HeaderList)

	// DataReceived delivers one DATA frame's payload. A non-nil returned
	// channel, when present, defers the corresponding WINDOW_UPDATE until
	// it is closed — the delegate's way of applying backpressure.
	DataReceived(chunk []byte) (ready <-chan struct{})

	// Finish is called once, when the stream's incoming side reaches
	// END_STREAM with no error.
	Finish()

	// OnConnectionClose is called when the stream ends abnormally: an
	// RST_STREAM received for it, a local reset, or the owning connection
	// closing (GOAWAY, transport error) while the stream is still open. A
	// stream whose outgoing side is still open can get it after Finish.
	OnConnectionClose()
}

// StartLine carries a request or response's pseudo-headers, the part of
// an HTTP/2 header block that isn't an ordinary header field.
type StartLine struct {
	// Request side.
	Method    string
	Scheme    string
	Authority string
	Path      string

	// Response side.
	Status int
}
