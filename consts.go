package h2

// Wire-level and negotiation defaults, http://httpwg.org/specs/rfc7540.html#SettingValues
const (
	defaultHeaderTableSize   uint32 = 4096
	defaultConcurrentStreams uint32 = 100
	defaultWindowSize        uint32 = 1<<16 - 1
	defaultMaxFrameSize      uint32 = 1 << 14
	minMaxFrameSize          uint32 = 1 << 14
	maxFrameSize             uint32 = 1<<24 - 1
	maxWindowSize            int32  = 1<<31 - 1

	// FrameSettings parameter identifiers, https://httpwg.org/specs/rfc7540.html#SettingValues
	settingHeaderTableSize      uint16 = 0x1
	settingEnablePush           uint16 = 0x2
	settingMaxConcurrentStreams uint16 = 0x3
	settingInitialWindowSize    uint16 = 0x4
	settingMaxFrameSize         uint16 = 0x5
	settingMaxHeaderListSize    uint16 = 0x6
)

// ClientPreface is the 24-byte magic string every client must send before
// its first SETTINGS frame.
//
// https://httpwg.org/specs/rfc7540.html#ConnectionHeader
var ClientPreface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

const (
	// H2TLSProto is the ALPN protocol id for HTTP/2 over TLS.
	H2TLSProto = "h2"
	// H2CProto is the Upgrade token for HTTP/2 over cleartext.
	H2CProto = "h2c"
)
