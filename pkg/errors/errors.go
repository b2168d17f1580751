// Package errors defines the sentinel errors shared across the document
// index server. Callers classify failures with errors.Is; wrapping with %w
// preserves the sentinel through call chains.
package errors

import "errors"

var (
	// ErrNotFound is returned when a record is absent, tombstoned, or its
	// key falls outside the store file.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput covers bad CLI arguments, arity mismatches, and
	// malformed argument values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptFrame is returned when a TLV's declared length overshoots
	// its payload or a frame header is inconsistent.
	ErrCorruptFrame = errors.New("corrupt frame")

	// ErrFrameTooLarge is returned when a build would exceed the payload
	// capacity or a frame exceeds the hard wire maximum.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrUnknownOpcode is returned for opcodes outside the command table.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrUnknownArgType is returned for wire types without a codec.
	ErrUnknownArgType = errors.New("unknown argument type")

	// ErrStoreOpen is returned when the record store is initialised twice
	// without an intervening close.
	ErrStoreOpen = errors.New("store already open")

	// ErrStoreClosed is returned for operations on a closed record store.
	ErrStoreClosed = errors.New("store closed")

	// ErrPathTooLong is returned when a document path does not fit the
	// path buffer limit.
	ErrPathTooLong = errors.New("path too long")

	// ErrShutdown propagates from the flush handler through the dispatcher
	// to tell the server loop to stop. It is a control signal, not a
	// failure: the reply is still delivered before the loop exits.
	ErrShutdown = errors.New("server shutting down")

	// ErrInternal is the catch-all for failures the client only ever sees
	// as an "ERR" reply.
	ErrInternal = errors.New("internal error")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }
