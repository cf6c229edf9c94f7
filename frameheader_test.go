package h2

import (
	"bufio"
	"bytes"
	"testing"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	p := AcquirePing()
	p.SetAck(true)
	p.SetData([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	frh := AcquireFrameHeader()
	frh.SetBody(p)
	frh.SetStream(0)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if _, err := frh.WriteTo(bw); err != nil {
		t.Fatalf("write: %v", err)
	}
	bw.Flush()
	ReleaseFrameHeader(frh)

	if buf.Len() != DefaultFrameSize+8 {
		t.Fatalf("unexpected wire size %d", buf.Len())
	}

	got, err := ReadFrameFrom(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	defer ReleaseFrameHeader(got)

	if got.Type() != FramePing || got.Stream() != 0 {
		t.Fatalf("unexpected header: type=%v stream=%d", got.Type(), got.Stream())
	}
	gp, ok := got.Body().(*Ping)
	if !ok || !gp.Ack() || !bytes.Equal(gp.Data(), p.Data()) {
		t.Fatalf("unexpected body: %+v ok=%v", gp, ok)
	}
}

func TestFrameHeaderRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	// A bogus 9-byte header claiming a payload far larger than the
	// negotiated max, with no payload actually following it.
	buf.Write([]byte{0x01, 0x00, 0x00, byte(FrameData), 0, 0, 0, 0, 1})

	_, err := ReadFrameFromWithSize(bufio.NewReader(&buf), 16384)
	cerr, ok := err.(*ConnectionError)
	if !ok || cerr.Code != FrameSizeError {
		t.Fatalf("expected FrameSizeError ConnectionError, got %v", err)
	}
}
