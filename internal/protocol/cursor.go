package protocol

import (
	"encoding/binary"
	"fmt"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// TLV is one decoded type-length-value triple. Value borrows from the
// payload the cursor was initialised with.
type TLV struct {
	Type  uint8
	Value []byte
}

// Cursor walks the TLV region of a frame payload.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor over a borrowed payload slice.
func NewCursor(payload []byte) *Cursor {
	return &Cursor{buf: payload}
}

// Next delivers the next TLV. It returns ok=false with a nil error when the
// payload is exhausted cleanly, and ErrCorruptFrame when a declared TLV
// length overshoots the payload.
func (c *Cursor) Next() (TLV, bool, error) {
	if c.off+TLVHeaderSize > len(c.buf) {
		return TLV{}, false, nil
	}
	typ := c.buf[c.off]
	vlen := int(binary.LittleEndian.Uint16(c.buf[c.off+1 : c.off+3]))
	end := c.off + TLVHeaderSize + vlen
	if end > len(c.buf) {
		return TLV{}, false, fmt.Errorf("tlv length %d past end of payload: %w",
			vlen, pkgerrors.ErrCorruptFrame)
	}
	tlv := TLV{Type: typ, Value: c.buf[c.off+TLVHeaderSize : end]}
	c.off = end
	return tlv, true, nil
}

// FirstString extracts the first TLV of a request as a string argument. It
// requires a non-empty Str TLV shorter than maxLen bytes.
func FirstString(req *Request, maxLen int) ([]byte, error) {
	cur := NewCursor(req.Payload)
	tlv, ok, err := cur.Next()
	if err != nil {
		return nil, err
	}
	if !ok || tlv.Type != uint8(ArgStr) || len(tlv.Value) == 0 || len(tlv.Value) >= maxLen {
		return nil, fmt.Errorf("first argument is not a usable string: %w", pkgerrors.ErrInvalidInput)
	}
	return tlv.Value, nil
}
