package h2

import "net"

// NewServerConn wraps an already-negotiated net.Conn (post-TLS/ALPN, or
// handed over after an h2c Upgrade) as the server side of an HTTP/2
// connection. Call Serve to run it; Serve blocks until the connection
// ends.
func NewServerConn(nc net.Conn, delegate ConnDelegate, params *Params) *Conn {
	return newConn(nc, true, delegate, params)
}

// Server accepts connections on a net.Listener and serves each as
// HTTP/2, handing every one to a fresh ConnDelegate produced by
// NewDelegate.
type Server struct {
	// NewDelegate is called once per accepted connection.
	NewDelegate func() ConnDelegate
	// Params configures every served connection; nil uses defaults.
	Params *Params
}

// Serve accepts connections from ln until it returns an error (typically
// because ln was closed), running each on its own goroutine.
func (srv *Server) Serve(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		go srv.serveConn(nc)
	}
}

func (srv *Server) serveConn(nc net.Conn) {
	var delegate ConnDelegate
	if srv.NewDelegate != nil {
		delegate = srv.NewDelegate()
	}
	conn := NewServerConn(nc, delegate, srv.Params)
	conn.Serve()
}
