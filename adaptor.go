package h2

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

// fasthttpHandler is the StreamDelegate that bridges a server stream's
// decoded headers and body onto a fasthttp.RequestCtx, runs the
// application's fasthttp.RequestHandler, and serializes the
// fasthttp.Response back out as HEADERS/DATA frames. The wire-level
// state machine in stream.go knows nothing about fasthttp; only this file
// and the server_fasthttp.go entry points do.
type fasthttpHandler struct {
	strm    *Stream
	handler fasthttp.RequestHandler

	req  fasthttp.Request
	body bytebufferpool.ByteBuffer
}

func newFasthttpHandler(strm *Stream, handler fasthttp.RequestHandler) *fasthttpHandler {
	return &fasthttpHandler{strm: strm, handler: handler}
}

func (h *fasthttpHandler) HeadersReceived(start *StartLine, headers *HeaderList) {
	h.req.Header.SetMethod(start.Method)
	h.req.URI().SetScheme(start.Scheme)
	h.req.URI().SetHost(start.Authority)
	h.req.URI().SetPath(start.Path)
	if start.Authority != "" {
		h.req.Header.SetHost(start.Authority)
	}

	for i := 0; i < headers.Len(); i++ {
		name, value := headers.At(i)
		switch name {
		case "content-length":
			// fasthttp recomputes this from the body it actually reads.
		default:
			h.req.Header.Add(name, value)
		}
	}
}

func (h *fasthttpHandler) DataReceived(chunk []byte) (ready <-chan struct{}) {
	h.body.Write(chunk)
	return nil
}

func (h *fasthttpHandler) Finish() {
	h.req.SetBody(h.body.B)

	var ctx fasthttp.RequestCtx
	ctx.Init2(h.strm.conn.nc, h.strm.conn.params.logger(), true)
	h.req.CopyTo(&ctx.Request)

	h.handler(&ctx)

	status := ctx.Response.StatusCode()
	headers := &HeaderList{}
	ctx.Response.Header.VisitAll(func(k, v []byte) {
		headers.add(lowerHeaderName(k), string(v))
	})
	body := ctx.Response.Body()
	headers.add("content-length", strconv.Itoa(len(body)))

	start := &StartLine{Status: status}
	endStream := len(body) == 0
	if err := h.strm.WriteHeaders(start, headers, endStream); err != nil {
		return
	}
	if !endStream {
		h.strm.Write(body)
		h.strm.Finish()
	}
}

func (h *fasthttpHandler) OnConnectionClose() {}

func lowerHeaderName(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// fasthttpDelegate is the ConnDelegate that serves every stream on a
// connection through a single fasthttp.RequestHandler, the shape a
// fasthttp.Server.NextProto hook expects.
type fasthttpDelegate struct {
	handler fasthttp.RequestHandler
}

func (d *fasthttpDelegate) StartRequest(conn *Conn, strm *Stream) StreamDelegate {
	return newFasthttpHandler(strm, d.handler)
}

func (d *fasthttpDelegate) OnClose(conn *Conn) {}
