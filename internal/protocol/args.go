package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// ArgType identifies the wire encoding of an argument TLV.
type ArgType uint8

const (
	// ArgU32 is a 32-bit unsigned integer, little-endian, exactly 4 bytes.
	ArgU32 ArgType = 0
	// ArgStr is a raw byte string without a terminator.
	ArgStr ArgType = 1

	argTypeCount = 2
)

// Valid reports whether t has a codec.
func (t ArgType) Valid() bool { return t < argTypeCount }

// Value is the decoded form of an argument TLV: a tagged union over
// {U32, Str}. Str borrows from the frame it was decoded from.
type Value struct {
	Type ArgType
	U32  uint32
	Str  []byte
}

// EncodeArg parses a textual token according to typ and appends it to the
// builder as one TLV.
func EncodeArg(b *Builder, typ ArgType, raw string) error {
	switch typ {
	case ArgU32:
		if raw == "" {
			return fmt.Errorf("empty number: %w", pkgerrors.ErrInvalidInput)
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", raw, pkgerrors.ErrInvalidInput)
		}
		var wire [4]byte
		binary.LittleEndian.PutUint32(wire[:], uint32(v))
		return b.AddTLV(uint8(ArgU32), wire[:])
	case ArgStr:
		if len(raw) > MaxFrame {
			return fmt.Errorf("string of %d bytes: %w", len(raw), pkgerrors.ErrFrameTooLarge)
		}
		return b.AddTLV(uint8(ArgStr), []byte(raw))
	default:
		return fmt.Errorf("type %d: %w", typ, pkgerrors.ErrUnknownArgType)
	}
}

// DecodeArg converts one wire TLV value into its typed form.
func DecodeArg(typ ArgType, wire []byte) (Value, error) {
	switch typ {
	case ArgU32:
		if len(wire) != 4 {
			return Value{}, fmt.Errorf("u32 of %d bytes: %w", len(wire), pkgerrors.ErrInvalidInput)
		}
		return Value{Type: ArgU32, U32: binary.LittleEndian.Uint32(wire)}, nil
	case ArgStr:
		return Value{Type: ArgStr, Str: wire}, nil
	default:
		return Value{}, fmt.Errorf("type %d: %w", typ, pkgerrors.ErrUnknownArgType)
	}
}
