package h2

import (
	"sync"

	"github.com/framewire/h2/h2util"
)

var _ Frame = (*Data)(nil)

// Data is the FrameData body: a raw chunk of a request or response body.
//
// Flags: END_STREAM, PADDED.
//
// https://tools.ietf.org/html/rfc7540#section-6.1
type Data struct {
	endStream bool
	padded    bool
	b         []byte
}

var dataPool = sync.Pool{New: func() interface{} { return &Data{} }}

// AcquireData returns a Data from the pool, reset and ready to use.
func AcquireData() *Data {
	d := dataPool.Get().(*Data)
	d.Reset()
	return d
}

// ReleaseData returns d to the pool.
func ReleaseData(d *Data) { dataPool.Put(d) }

func (d *Data) Type() FrameType { return FrameData }

func (d *Data) Reset() {
	d.endStream = false
	d.padded = false
	d.b = d.b[:0]
}

func (d *Data) EndStream() bool        { return d.endStream }
func (d *Data) SetEndStream(v bool)    { d.endStream = v }
func (d *Data) Padded() bool           { return d.padded }
func (d *Data) SetPadded(v bool)       { d.padded = v }
func (d *Data) Bytes() []byte          { return d.b }
func (d *Data) SetBytes(b []byte)      { d.b = append(d.b[:0], b...) }
func (d *Data) Len() int               { return len(d.b) }

func (d *Data) Deserialize(frh *FrameHeader) error {
	payload := frh.payload

	if frh.Flags().Has(FlagPadded) {
		var err error
		payload, err = h2util.CutPadding(payload)
		if err != nil {
			return NewConnectionError(ProtocolError, err.Error())
		}
	}

	d.padded = frh.Flags().Has(FlagPadded)
	d.endStream = frh.Flags().Has(FlagEndStream)
	d.b = append(d.b[:0], payload...)

	return nil
}

func (d *Data) Serialize(frh *FrameHeader) {
	if d.endStream {
		frh.SetFlags(frh.Flags().Add(FlagEndStream))
	}

	payload := d.b
	if d.padded {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		payload = h2util.AddPadding(append([]byte(nil), d.b...))
	}

	frh.setPayload(payload)
}
