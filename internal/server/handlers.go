package server

import (
	"encoding/binary"
	"fmt"

	"github.com/jcampos-dev/docindex/internal/analytics"
	"github.com/jcampos-dev/docindex/internal/cache"
	"github.com/jcampos-dev/docindex/internal/command"
	"github.com/jcampos-dev/docindex/internal/docs"
	"github.com/jcampos-dev/docindex/internal/protocol"
	"github.com/jcampos-dev/docindex/internal/store"
	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// handleAdd appends a new record and replies with the assigned key.
// Oversized fields are truncated to their record limits.
func (s *Server) handleAdd(args []protocol.Value) (*protocol.Response, error) {
	doc := store.Document{
		Title:   string(args[0].Str),
		Authors: string(args[1].Str),
		Year:    args[2].U32,
		Path:    string(args[3].Str),
	}
	doc.Truncate()
	key, err := s.store.Append(&doc)
	if err != nil {
		return nil, err
	}
	s.metrics.DocsIndexedTotal.Inc()
	if s.collector != nil {
		s.collector.Track(analytics.CommandEvent{
			Type:   analytics.EventDocumentIndexed,
			Opcode: "-a",
			Key:    key,
		})
	}
	return protocol.SimpleResponse(uint8(command.OpAdd), fmt.Sprintf("Document %d indexed", key)), nil
}

// handleConsult replies with the record's fields as four Str TLVs, or a
// simple "Document not found" message. Not-found is a reply, not an error,
// so the client always receives a frame.
func (s *Server) handleConsult(args []protocol.Value) (*protocol.Response, error) {
	doc, err := s.store.Get(int32(args[0].U32))
	if err != nil {
		return protocol.SimpleResponse(uint8(command.OpConsult), "Document not found"), nil
	}
	b := protocol.NewBuilder(protocol.MaxRspPayload)
	for _, line := range []string{
		fmt.Sprintf("Title: %s", doc.Title),
		fmt.Sprintf("Authors: %s", doc.Authors),
		fmt.Sprintf("Year: %d", doc.Year),
		fmt.Sprintf("Path: %s", doc.Path),
	} {
		if err := b.AddTLV(uint8(protocol.ArgStr), []byte(line)); err != nil {
			return nil, err
		}
	}
	return b.BuildResponse(uint8(command.OpConsult), 0), nil
}

// handleDelete tombstones a record, replying with a descriptive message
// whatever the outcome.
func (s *Server) handleDelete(args []protocol.Value) (*protocol.Response, error) {
	key := int32(args[0].U32)
	// The reply is descriptive whatever the outcome; the client always
	// gets a frame.
	msg := fmt.Sprintf("Index entry %d not found", key)
	if err := s.store.Delete(key); err == nil {
		msg = fmt.Sprintf("Index entry %d deleted", key)
		s.metrics.DocsDeletedTotal.Inc()
		if s.collector != nil {
			s.collector.Track(analytics.CommandEvent{
				Type:   analytics.EventDocumentDeleted,
				Opcode: "-d",
				Key:    key,
			})
		}
	} else if !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		s.logger.Warn("delete failed", "key", key, "error", err)
	}
	return protocol.SimpleResponse(uint8(command.OpDelete), msg), nil
}

// handleList counts the lines of a document body containing the keyword and
// replies with a single U32 TLV.
func (s *Server) handleList(args []protocol.Value) (*protocol.Response, error) {
	key := int32(args[0].U32)
	kw := clampKeyword(args[1].Str)

	doc, err := s.store.Get(key)
	if err != nil {
		return protocol.SimpleResponse(uint8(command.OpList), "Document not found"), nil
	}
	path, err := s.root.BuildPath(doc)
	if err != nil {
		return protocol.SimpleResponse(uint8(command.OpList), "Path not found"), nil
	}
	count, err := docs.CountKeyword(path, kw, false)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.Track(analytics.CommandEvent{
			Type:    analytics.EventKeywordCounted,
			Opcode:  "-l",
			Key:     key,
			Keyword: string(kw),
			Hits:    count,
		})
	}

	var wire [4]byte
	binary.LittleEndian.PutUint32(wire[:], uint32(count))
	b := protocol.NewBuilder(protocol.MaxRspPayload)
	if err := b.AddTLV(uint8(protocol.ArgU32), wire[:]); err != nil {
		return nil, err
	}
	return b.BuildResponse(uint8(command.OpList), 0), nil
}

// handleFlush replies, then signals the loop to stop via ErrShutdown.
func (s *Server) handleFlush(_ []protocol.Value) (*protocol.Response, error) {
	rsp := protocol.SimpleResponse(uint8(command.OpFlush), "Server is shutting down")
	return rsp, pkgerrors.ErrShutdown
}

// clampKeyword bounds a keyword to the cache key limit, as every consumer
// of keywords does.
func clampKeyword(kw []byte) []byte {
	if len(kw) > cache.MaxKeyLen {
		return kw[:cache.MaxKeyLen]
	}
	return kw
}
