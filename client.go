package h2

import "net"

// NewClientConn wraps an already-negotiated net.Conn as the client side
// of an HTTP/2 connection. Call Serve on a separate goroutine to run its
// dispatch loop; use NewStream plus Stream.WriteHeaders/Write/Finish to
// issue requests concurrently with Serve running.
func NewClientConn(nc net.Conn, delegate ConnDelegate, params *Params) *Conn {
	return newConn(nc, false, delegate, params)
}

// Do opens a new stream, writes start/headers (optionally with
// endStream if the request carries no body), and returns the Stream so
// the caller can stream a request body via Write/Finish and receive the
// response through delegate.
func (c *Conn) Do(start *StartLine, headers *HeaderList, delegate StreamDelegate, endStream bool) (*Stream, error) {
	strm := c.NewStream(delegate)
	if err := strm.WriteHeaders(start, headers, endStream); err != nil {
		return nil, err
	}
	return strm, nil
}
