package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// ReadRequest reads one request frame: the fixed-size header first, then the
// remaining payload. Frames whose declared length is below the header size
// or above the hard maximum are rejected before any payload read.
func ReadRequest(r io.Reader) (*Request, error) {
	var hdr [ReqHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading request header: %w", err)
	}
	declared := int(binary.LittleEndian.Uint16(hdr[0:2]))
	if declared < ReqHeaderSize || declared > MaxFrame {
		return nil, fmt.Errorf("declared request length %d: %w", declared, pkgerrors.ErrCorruptFrame)
	}
	payload := make([]byte, declared-ReqHeaderSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading request payload: %w", err)
	}
	return &Request{
		Opcode:  hdr[2],
		PID:     int32(binary.LittleEndian.Uint32(hdr[3:7])),
		Payload: payload,
	}, nil
}

// WriteRequest writes a request as one wire frame.
func WriteRequest(w io.Writer, req *Request) error {
	frame, err := req.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing request frame: %w", err)
	}
	return nil
}

// ReadResponse reads one response frame, header first.
func ReadResponse(r io.Reader) (*Response, error) {
	var hdr [RspHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading response header: %w", err)
	}
	declared := int(binary.LittleEndian.Uint16(hdr[0:2]))
	if declared < RspHeaderSize || declared > MaxFrame {
		return nil, fmt.Errorf("declared response length %d: %w", declared, pkgerrors.ErrCorruptFrame)
	}
	payload := make([]byte, declared-RspHeaderSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading response payload: %w", err)
	}
	return &Response{
		Opcode:  hdr[2],
		Status:  hdr[3],
		Payload: payload,
	}, nil
}

// WriteResponse writes a response as one wire frame.
func WriteResponse(w io.Writer, rsp *Response) error {
	frame, err := rsp.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing response frame: %w", err)
	}
	return nil
}
