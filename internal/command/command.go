// Package command holds the static description of every protocol opcode:
// its command-line flag, argument arity and types, and whether its handler
// blocks the server loop.
package command

import (
	"fmt"

	"github.com/jcampos-dev/docindex/internal/protocol"
	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// Opcode identifies a protocol operation. Values are wire-visible and
// fixed.
type Opcode uint8

const (
	OpAdd     Opcode = 0
	OpConsult Opcode = 1
	OpDelete  Opcode = 2
	OpList    Opcode = 3
	OpSearch  Opcode = 4
	OpFlush   Opcode = 5

	opCount = 6
)

// Row describes one opcode. Blocking commands run in the server loop and
// serialise with other requests; non-blocking commands run in a worker.
type Row struct {
	Flag     string
	Types    []protocol.ArgType
	ArgcMin  int
	ArgcMax  int
	Opcode   Opcode
	Blocking bool
}

// table is indexed by opcode.
var table = [opCount]Row{
	{Flag: "-a", Types: []protocol.ArgType{protocol.ArgStr, protocol.ArgStr, protocol.ArgU32, protocol.ArgStr},
		ArgcMin: 4, ArgcMax: 4, Opcode: OpAdd, Blocking: true},
	{Flag: "-c", Types: []protocol.ArgType{protocol.ArgU32},
		ArgcMin: 1, ArgcMax: 1, Opcode: OpConsult, Blocking: false},
	{Flag: "-d", Types: []protocol.ArgType{protocol.ArgU32},
		ArgcMin: 1, ArgcMax: 1, Opcode: OpDelete, Blocking: true},
	{Flag: "-l", Types: []protocol.ArgType{protocol.ArgU32, protocol.ArgStr},
		ArgcMin: 2, ArgcMax: 2, Opcode: OpList, Blocking: false},
	{Flag: "-s", Types: []protocol.ArgType{protocol.ArgStr, protocol.ArgU32},
		ArgcMin: 1, ArgcMax: 2, Opcode: OpSearch, Blocking: false},
	{Flag: "-f", Types: nil,
		ArgcMin: 0, ArgcMax: 0, Opcode: OpFlush, Blocking: true},
}

// ByOpcode returns the command row for op.
func ByOpcode(op Opcode) (*Row, bool) {
	if op >= opCount {
		return nil, false
	}
	return &table[op], true
}

// ByFlag returns the command row matching a command-line flag.
func ByFlag(flag string) (*Row, bool) {
	for i := range table {
		if table[i].Flag == flag {
			return &table[i], true
		}
	}
	return nil, false
}

// Parse validates command-line tokens of the form "<flag> [args…]" against
// the table and returns the matching row plus the raw argument tokens.
func Parse(argv []string) (*Row, []string, error) {
	if len(argv) < 1 {
		return nil, nil, fmt.Errorf("missing command flag: %w", pkgerrors.ErrInvalidInput)
	}
	row, ok := ByFlag(argv[0])
	if !ok {
		return nil, nil, fmt.Errorf("unknown flag %q: %w", argv[0], pkgerrors.ErrInvalidInput)
	}
	args := argv[1:]
	if len(args) < row.ArgcMin || len(args) > row.ArgcMax {
		return nil, nil, fmt.Errorf("%s takes %d to %d arguments, got %d: %w",
			row.Flag, row.ArgcMin, row.ArgcMax, len(args), pkgerrors.ErrInvalidInput)
	}
	return row, args, nil
}

// EncodeRequest builds a request frame from raw argument tokens using the
// per-type encoders from the table row.
func EncodeRequest(row *Row, args []string, pid int32) (*protocol.Request, error) {
	b := protocol.NewBuilder(protocol.MaxReqPayload)
	for i, raw := range args {
		if err := protocol.EncodeArg(b, row.Types[i], raw); err != nil {
			return nil, fmt.Errorf("encoding argument %d for %s: %w", i+1, row.Flag, err)
		}
	}
	return b.BuildRequest(uint8(row.Opcode), pid), nil
}
