package h2

import (
	"crypto/tls"
	"net"

	"github.com/valyala/fasthttp"
)

// ConfigureServer hooks HTTP/2 support into a fasthttp.Server via ALPN
// (RFC 7540 §3.3): after a TLS handshake negotiates "h2", fs hands the
// connection to an h2 Conn running fs.Handler on every stream.
func ConfigureServer(fs *fasthttp.Server, params *Params) {
	fs.NextProto(H2TLSProto, func(nc net.Conn) error {
		return ServeFasthttpConn(nc, fs.Handler, params)
	})
}

// ServeFasthttpConn runs the server side of one already-negotiated
// HTTP/2 connection, dispatching every stream's request through
// handler exactly as fasthttp.Server would for HTTP/1.1.
func ServeFasthttpConn(nc net.Conn, handler fasthttp.RequestHandler, params *Params) error {
	conn := NewServerConn(nc, &fasthttpDelegate{handler: handler}, params)
	return conn.Serve()
}

// ListenAndServeTLS starts fs as an HTTP/2 (and, via fasthttp's own
// fallback, HTTP/1.1) TLS server on addr.
func ListenAndServeTLS(fs *fasthttp.Server, addr, certFile, keyFile string, params *Params) error {
	ConfigureServer(fs, params)

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{H2TLSProto, "http/1.1"},
	}

	ln, err := tls.Listen("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	return fs.Serve(ln)
}
