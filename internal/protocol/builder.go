package protocol

import (
	"encoding/binary"
	"fmt"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// Builder accumulates TLVs into a payload of bounded capacity. A failed
// append leaves the payload untouched, so callers always observe either a
// fully built frame or a clean error.
type Builder struct {
	buf []byte
	cap int
}

// NewBuilder returns a Builder with the given payload capacity. Capacities
// above MaxRspPayload are clamped.
func NewBuilder(capacity int) *Builder {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > MaxRspPayload {
		capacity = MaxRspPayload
	}
	return &Builder{cap: capacity}
}

// AddTLV appends one {type, len, value} triple.
func (b *Builder) AddTLV(typ uint8, val []byte) error {
	if len(val) > MaxFrame {
		return fmt.Errorf("tlv value %d bytes: %w", len(val), pkgerrors.ErrFrameTooLarge)
	}
	need := TLVHeaderSize + len(val)
	if len(b.buf)+need > b.cap {
		return fmt.Errorf("tlv of %d bytes exceeds payload capacity %d: %w",
			need, b.cap, pkgerrors.ErrFrameTooLarge)
	}
	var hdr [TLVHeaderSize]byte
	hdr[0] = typ
	binary.LittleEndian.PutUint16(hdr[1:3], uint16(len(val)))
	b.buf = append(b.buf, hdr[:]...)
	b.buf = append(b.buf, val...)
	return nil
}

// Len returns the number of payload bytes accumulated so far.
func (b *Builder) Len() int { return len(b.buf) }

// Bytes returns the accumulated payload.
func (b *Builder) Bytes() []byte { return b.buf }

// BuildRequest finalises the payload into a request frame struct.
func (b *Builder) BuildRequest(opcode uint8, pid int32) *Request {
	return &Request{Opcode: opcode, PID: pid, Payload: b.buf}
}

// BuildResponse finalises the payload into a response frame struct.
func (b *Builder) BuildResponse(opcode uint8, status uint8) *Response {
	return &Response{Opcode: opcode, Status: status, Payload: b.buf}
}

// SimpleResponse builds a response carrying a single Str TLV with msg.
func SimpleResponse(opcode uint8, msg string) *Response {
	b := NewBuilder(MaxRspPayload)
	if msg != "" {
		// Capacity cannot overflow for a single bounded message.
		_ = b.AddTLV(uint8(ArgStr), []byte(msg))
	}
	return b.BuildResponse(opcode, 0)
}
