package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

func TestRequestRoundTrip(t *testing.T) {
	b := NewBuilder(MaxReqPayload)
	if err := b.AddTLV(uint8(ArgStr), []byte("banana")); err != nil {
		t.Fatalf("AddTLV: %v", err)
	}
	var num [4]byte
	binary.LittleEndian.PutUint32(num[:], 42)
	if err := b.AddTLV(uint8(ArgU32), num[:]); err != nil {
		t.Fatalf("AddTLV: %v", err)
	}
	req := b.BuildRequest(4, 1234)

	frame, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(frame) != ReqHeaderSize+3+6+3+4 {
		t.Fatalf("frame length = %d, want %d", len(frame), ReqHeaderSize+3+6+3+4)
	}
	if got := binary.LittleEndian.Uint16(frame[0:2]); int(got) != len(frame) {
		t.Errorf("declared length = %d, want %d", got, len(frame))
	}

	parsed, err := ReadRequest(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if parsed.Opcode != 4 || parsed.PID != 1234 {
		t.Errorf("header = (%d, %d), want (4, 1234)", parsed.Opcode, parsed.PID)
	}

	cur := NewCursor(parsed.Payload)
	tlv, ok, err := cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if tlv.Type != uint8(ArgStr) || !bytes.Equal(tlv.Value, []byte("banana")) {
		t.Errorf("first TLV = (%d, %q)", tlv.Type, tlv.Value)
	}
	tlv, ok, err = cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if tlv.Type != uint8(ArgU32) || binary.LittleEndian.Uint32(tlv.Value) != 42 {
		t.Errorf("second TLV = (%d, %v)", tlv.Type, tlv.Value)
	}
	if _, ok, err := cur.Next(); ok || err != nil {
		t.Errorf("cursor not exhausted: ok=%v err=%v", ok, err)
	}
}

func TestFrameLengthSelfConsistency(t *testing.T) {
	b := NewBuilder(MaxRspPayload)
	payloads := [][]byte{[]byte("x"), []byte("yy"), []byte("")}
	want := RspHeaderSize
	for _, p := range payloads {
		if err := b.AddTLV(uint8(ArgStr), p); err != nil {
			t.Fatalf("AddTLV: %v", err)
		}
		want += TLVHeaderSize + len(p)
	}
	rsp := b.BuildResponse(1, 0)
	frame, err := rsp.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if got := binary.LittleEndian.Uint16(frame[0:2]); int(got) != want {
		t.Errorf("declared length = %d, want %d", got, want)
	}
}

func TestBuilderOverflowLeavesPayloadUntouched(t *testing.T) {
	b := NewBuilder(16)
	if err := b.AddTLV(uint8(ArgStr), []byte("12345")); err != nil {
		t.Fatalf("AddTLV: %v", err)
	}
	before := b.Len()
	err := b.AddTLV(uint8(ArgStr), bytes.Repeat([]byte("a"), 32))
	if !pkgerrors.Is(err, pkgerrors.ErrFrameTooLarge) {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
	if b.Len() != before {
		t.Errorf("payload mutated on failed append: %d != %d", b.Len(), before)
	}
}

func TestCursorCorruptTLV(t *testing.T) {
	// Declared value length overshoots the payload.
	payload := []byte{uint8(ArgStr), 0xff, 0x00, 'a', 'b'}
	cur := NewCursor(payload)
	_, _, err := cur.Next()
	if !pkgerrors.Is(err, pkgerrors.ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}
}

func TestReadRequestRejectsBadLength(t *testing.T) {
	for _, declared := range []uint16{0, ReqHeaderSize - 1} {
		frame := make([]byte, ReqHeaderSize)
		binary.LittleEndian.PutUint16(frame[0:2], declared)
		_, err := ReadRequest(bytes.NewReader(frame))
		if !pkgerrors.Is(err, pkgerrors.ErrCorruptFrame) {
			t.Errorf("declared=%d: err = %v, want ErrCorruptFrame", declared, err)
		}
	}
}

func TestSimpleResponse(t *testing.T) {
	rsp := SimpleResponse(5, "Server is shutting down")
	if rsp.Opcode != 5 || rsp.Status != 0 {
		t.Fatalf("header = (%d, %d)", rsp.Opcode, rsp.Status)
	}
	cur := NewCursor(rsp.Payload)
	tlv, ok, err := cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if string(tlv.Value) != "Server is shutting down" {
		t.Errorf("message = %q", tlv.Value)
	}
}

func TestFirstString(t *testing.T) {
	build := func(typ ArgType, val []byte) *Request {
		b := NewBuilder(MaxReqPayload)
		if err := b.AddTLV(uint8(typ), val); err != nil {
			t.Fatalf("AddTLV: %v", err)
		}
		return b.BuildRequest(4, 1)
	}

	if got, err := FirstString(build(ArgStr, []byte("kw")), 256); err != nil || string(got) != "kw" {
		t.Errorf("FirstString = (%q, %v)", got, err)
	}
	if _, err := FirstString(build(ArgU32, []byte{1, 0, 0, 0}), 256); err == nil {
		t.Error("accepted non-string first TLV")
	}
	if _, err := FirstString(build(ArgStr, nil), 256); err == nil {
		t.Error("accepted empty keyword")
	}
	if _, err := FirstString(build(ArgStr, []byte("toolong")), 4); err == nil {
		t.Error("accepted keyword past caller capacity")
	}
	if _, err := FirstString(&Request{Opcode: 4}, 256); err == nil {
		t.Error("accepted empty payload")
	}
}

func TestResponseRoundTripViaWire(t *testing.T) {
	rsp := SimpleResponse(2, "Index entry 7 deleted")
	var buf bytes.Buffer
	if err := WriteResponse(&buf, rsp); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	got, err := ReadResponse(&buf)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.Opcode != rsp.Opcode || got.Status != rsp.Status || !bytes.Equal(got.Payload, rsp.Payload) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, rsp)
	}
}
