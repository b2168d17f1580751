// Package protocol implements the binary TLV request/response codec.
//
// Format: little-endian, packed. A request frame is a 7-byte header
// {len:u16, opcode:u8, pid:i32} followed by back-to-back TLVs; a response
// frame is a 4-byte header {len:u16, opcode:u8, status:u8} followed by TLVs.
// Each TLV is {type:u8, len:u16, value[len]}. The header len field covers
// the header itself plus all TLVs, and a whole frame never exceeds 65535
// bytes.
package protocol

import (
	"encoding/binary"
	"fmt"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

const (
	// ReqHeaderSize is the wire size of a request header.
	ReqHeaderSize = 7
	// RspHeaderSize is the wire size of a response header.
	RspHeaderSize = 4
	// TLVHeaderSize is the wire size of a TLV header (type + len).
	TLVHeaderSize = 3

	// MaxFrame is the hard upper bound on a whole frame.
	MaxFrame = 65535

	// MaxReqPayload and MaxRspPayload bound the TLV region of a frame.
	MaxReqPayload = MaxFrame - ReqHeaderSize
	MaxRspPayload = MaxFrame - RspHeaderSize
)

// Request is a decoded request frame. Payload holds the raw TLV region.
type Request struct {
	Opcode  uint8
	PID     int32
	Payload []byte
}

// FrameLen returns the total wire length of the request frame.
func (r *Request) FrameLen() int {
	return ReqHeaderSize + len(r.Payload)
}

// MarshalBinary encodes the request into a single wire frame.
func (r *Request) MarshalBinary() ([]byte, error) {
	total := r.FrameLen()
	if total > MaxFrame {
		return nil, fmt.Errorf("request frame %d bytes: %w", total, pkgerrors.ErrFrameTooLarge)
	}
	frame := make([]byte, total)
	binary.LittleEndian.PutUint16(frame[0:2], uint16(total))
	frame[2] = r.Opcode
	binary.LittleEndian.PutUint32(frame[3:7], uint32(r.PID))
	copy(frame[ReqHeaderSize:], r.Payload)
	return frame, nil
}

// Response is a decoded response frame. Status is 0 for success; handlers
// report domain outcomes ("not found" and the like) inside Str TLVs, never
// through the status byte.
type Response struct {
	Opcode  uint8
	Status  uint8
	Payload []byte
}

// FrameLen returns the total wire length of the response frame.
func (r *Response) FrameLen() int {
	return RspHeaderSize + len(r.Payload)
}

// MarshalBinary encodes the response into a single wire frame.
func (r *Response) MarshalBinary() ([]byte, error) {
	total := r.FrameLen()
	if total > MaxFrame {
		return nil, fmt.Errorf("response frame %d bytes: %w", total, pkgerrors.ErrFrameTooLarge)
	}
	frame := make([]byte, total)
	binary.LittleEndian.PutUint16(frame[0:2], uint16(total))
	frame[2] = r.Opcode
	frame[3] = r.Status
	copy(frame[RspHeaderSize:], r.Payload)
	return frame, nil
}

// ParseResponse decodes a whole response frame. The returned Response
// borrows its payload from frame.
func ParseResponse(frame []byte) (*Response, error) {
	if len(frame) < RspHeaderSize {
		return nil, fmt.Errorf("response frame %d bytes: %w", len(frame), pkgerrors.ErrCorruptFrame)
	}
	declared := int(binary.LittleEndian.Uint16(frame[0:2]))
	if declared < RspHeaderSize || declared > len(frame) {
		return nil, fmt.Errorf("declared response length %d: %w", declared, pkgerrors.ErrCorruptFrame)
	}
	return &Response{
		Opcode:  frame[2],
		Status:  frame[3],
		Payload: frame[RspHeaderSize:declared],
	}, nil
}
