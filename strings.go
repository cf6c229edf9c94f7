package h2

// Well-known header names the engine inspects directly instead of doing
// a byte comparison inline every time.
var (
	strPath          = []byte(":path")
	strStatus        = []byte(":status")
	strAuthority     = []byte(":authority")
	strScheme        = []byte(":scheme")
	strMethod        = []byte(":method")
	strConnection    = []byte("connection")
	strContentLength = []byte("content-length")
	strTE            = []byte("te")
	strTrailers      = []byte("trailers")
	strHost          = []byte("host")
	strHead          = []byte("HEAD")
)
