package h2

// staticTableLen is the number of entries in the RFC 7541 Appendix A
// static table; indices 1..staticTableLen refer to it, indices beyond
// that refer to the dynamic table.
const staticTableLen = 61

type staticEntry struct {
	name  string
	value string
}

// staticTable is the RFC 7541 Appendix A static table, grounded on the
// teacher's fasthttp2.staticTable field list but carrying both name and
// value so indexed-representation lookups need no special-casing.
var staticTable = [staticTableLen]staticEntry{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// dynamicEntry is one row of a dynamicTable.
type dynamicEntry struct {
	name  []byte
	value []byte
	size  uint32
}

// dynamicTable is the HPACK dynamic table (RFC 7541 §2.3.2): a FIFO of
// header fields, newest first, evicted from the tail once size exceeds
// maxSize. entries[0] is always the most recently inserted row, so
// wire index i (1-based, counting from the table's most-recent end)
// maps directly to entries[i-1].
type dynamicTable struct {
	entries []dynamicEntry
	size    uint32
	maxSize uint32
}

func (dt *dynamicTable) reset(maxSize uint32) {
	dt.entries = dt.entries[:0]
	dt.size = 0
	dt.maxSize = maxSize
}

// setMaxSize applies a new SETTINGS_HEADER_TABLE_SIZE or a dynamic
// table size update, evicting entries until the table fits.
func (dt *dynamicTable) setMaxSize(n uint32) {
	dt.maxSize = n
	dt.evictTo(n)
}

func (dt *dynamicTable) evictTo(limit uint32) {
	for dt.size > limit && len(dt.entries) > 0 {
		last := dt.entries[len(dt.entries)-1]
		dt.entries = dt.entries[:len(dt.entries)-1]
		dt.size -= last.size
	}
}

// add inserts a new entry at the front of the table, evicting from the
// back as needed. A field whose own size exceeds maxSize empties the
// table entirely without being inserted (RFC 7541 §4.4).
func (dt *dynamicTable) add(name, value []byte) {
	size := headerFieldSize(name, value)

	if size > dt.maxSize {
		dt.entries = dt.entries[:0]
		dt.size = 0
		return
	}

	dt.evictTo(dt.maxSize - size)

	entry := dynamicEntry{
		name:  append([]byte(nil), name...),
		value: append([]byte(nil), value...),
		size:  size,
	}
	dt.entries = append([]dynamicEntry{entry}, dt.entries...)
	dt.size += size
}

// at returns the i-th (1-based) dynamic-table entry as addressed by the
// wire's combined index space, i.e. i = wireIndex - staticTableLen.
func (dt *dynamicTable) at(i uint64) (dynamicEntry, bool) {
	if i == 0 || i > uint64(len(dt.entries)) {
		return dynamicEntry{}, false
	}
	return dt.entries[i-1], true
}

func (dt *dynamicTable) len() int { return len(dt.entries) }
