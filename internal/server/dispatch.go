package server

import (
	"fmt"

	"github.com/jcampos-dev/docindex/internal/command"
	"github.com/jcampos-dev/docindex/internal/protocol"
	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// dispatch decodes the request arguments against the command row and
// invokes the matching handler.
func (s *Server) dispatch(req *protocol.Request, row *command.Row) (*protocol.Response, error) {
	args, err := decodeArgs(req, row)
	if err != nil {
		return nil, err
	}
	switch row.Opcode {
	case command.OpAdd:
		return s.handleAdd(args)
	case command.OpConsult:
		return s.handleConsult(args)
	case command.OpDelete:
		return s.handleDelete(args)
	case command.OpList:
		return s.handleList(args)
	case command.OpSearch:
		return s.handleSearch(args)
	case command.OpFlush:
		return s.handleFlush(args)
	default:
		return nil, fmt.Errorf("opcode %d: %w", row.Opcode, pkgerrors.ErrUnknownOpcode)
	}
}

// decodeArgs walks the TLV cursor for up to ArgcMax arguments. Absent
// optional arguments leave their slot as the zero Value; a missing
// mandatory argument, a type mismatch, or a corrupt TLV fails the request.
func decodeArgs(req *protocol.Request, row *command.Row) ([]protocol.Value, error) {
	args := make([]protocol.Value, row.ArgcMax)
	cur := protocol.NewCursor(req.Payload)
	for i := 0; i < row.ArgcMax; i++ {
		tlv, ok, err := cur.Next()
		if err != nil {
			return nil, fmt.Errorf("argument %d for %s: %w", i+1, row.Flag, err)
		}
		if !ok {
			if i < row.ArgcMin {
				return nil, fmt.Errorf("missing required argument %d for %s: %w",
					i+1, row.Flag, pkgerrors.ErrInvalidInput)
			}
			break
		}
		if protocol.ArgType(tlv.Type) != row.Types[i] {
			return nil, fmt.Errorf("argument %d for %s has type %d, want %d: %w",
				i+1, row.Flag, tlv.Type, row.Types[i], pkgerrors.ErrInvalidInput)
		}
		v, err := protocol.DecodeArg(row.Types[i], tlv.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding argument %d for %s: %w", i+1, row.Flag, err)
		}
		args[i] = v
	}
	return args, nil
}
