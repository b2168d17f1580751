package protocol

import (
	"bytes"
	"testing"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

func TestEncodeArgU32(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    uint32
	}{
		{name: "zero", raw: "0", want: 0},
		{name: "typical", raw: "2020", want: 2020},
		{name: "max", raw: "4294967295", want: 4294967295},
		{name: "empty", raw: "", wantErr: true},
		{name: "non numeric", raw: "abc", wantErr: true},
		{name: "trailing junk", raw: "12x", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "overflow", raw: "4294967296", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(64)
			err := EncodeArg(b, ArgU32, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("EncodeArg(%q) succeeded", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeArg(%q): %v", tt.raw, err)
			}
			cur := NewCursor(b.Bytes())
			tlv, ok, err := cur.Next()
			if err != nil || !ok {
				t.Fatalf("Next: ok=%v err=%v", ok, err)
			}
			v, err := DecodeArg(ArgU32, tlv.Value)
			if err != nil {
				t.Fatalf("DecodeArg: %v", err)
			}
			if v.U32 != tt.want {
				t.Errorf("round trip = %d, want %d", v.U32, tt.want)
			}
		})
	}
}

func TestEncodeArgStrRoundTrip(t *testing.T) {
	b := NewBuilder(1024)
	if err := EncodeArg(b, ArgStr, "foo bar"); err != nil {
		t.Fatalf("EncodeArg: %v", err)
	}
	cur := NewCursor(b.Bytes())
	tlv, ok, err := cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	v, err := DecodeArg(ArgStr, tlv.Value)
	if err != nil {
		t.Fatalf("DecodeArg: %v", err)
	}
	if !bytes.Equal(v.Str, []byte("foo bar")) {
		t.Errorf("round trip = %q", v.Str)
	}
}

func TestDecodeArgU32RequiresFourBytes(t *testing.T) {
	for _, n := range []int{0, 3, 5} {
		if _, err := DecodeArg(ArgU32, make([]byte, n)); !pkgerrors.Is(err, pkgerrors.ErrInvalidInput) {
			t.Errorf("len %d: err = %v, want ErrInvalidInput", n, err)
		}
	}
}

func TestUnknownArgType(t *testing.T) {
	if _, err := DecodeArg(ArgType(7), []byte{1}); !pkgerrors.Is(err, pkgerrors.ErrUnknownArgType) {
		t.Errorf("decode: err = %v, want ErrUnknownArgType", err)
	}
	b := NewBuilder(16)
	if err := EncodeArg(b, ArgType(7), "x"); !pkgerrors.Is(err, pkgerrors.ErrUnknownArgType) {
		t.Errorf("encode: err = %v, want ErrUnknownArgType", err)
	}
}
