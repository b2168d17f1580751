// Package store implements the fixed-record persistent document store: an
// append-only file of packed records with random-access reads and tombstone
// deletes. Live records are never relocated, so a key is stable for the
// lifetime of the file.
//
// The store has a single writer (the server loop); concurrent readers are
// safe because every record is read and written as one positional full-record
// operation and the key field is validated on read.
package store

import (
	"fmt"
	"log/slog"
	"os"

	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// Store is a handle on the record file. The zero value is closed; call Open
// before use.
type Store struct {
	path   string
	f      *os.File
	logger *slog.Logger
}

// New returns a closed store bound to path.
func New(path string) *Store {
	return &Store{
		path:   path,
		logger: slog.Default().With("component", "record-store"),
	}
}

// Open opens the record file read/write, creating it with 0600 permissions
// if absent. Opening an already-open store is an error.
func (s *Store) Open() error {
	if s.f != nil {
		return fmt.Errorf("opening %s: %w", s.path, pkgerrors.ErrStoreOpen)
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("opening record file %s: %w", s.path, err)
	}
	s.f = f
	return nil
}

// Close closes the record file. Closing a closed store is a no-op.
func (s *Store) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return fmt.Errorf("closing record file %s: %w", s.path, err)
	}
	return nil
}

// Append writes doc as a new record at the end of the file and returns its
// key, derived from the file length. The caller's Key field is ignored.
func (s *Store) Append(doc *Document) (int32, error) {
	if s.f == nil {
		return 0, pkgerrors.ErrStoreClosed
	}
	size, err := s.size()
	if err != nil {
		return 0, err
	}
	key := int32(size / RecordSize)
	rec := *doc
	rec.Key = key
	if _, err := s.f.WriteAt(encodeRecord(&rec), size); err != nil {
		return 0, fmt.Errorf("writing record %d: %w", key, err)
	}
	return key, nil
}

// Get reads the record at key. A negative key, a key past the end of the
// file, or a tombstoned slot all report ErrNotFound.
func (s *Store) Get(key int32) (*Document, error) {
	if s.f == nil {
		return nil, pkgerrors.ErrStoreClosed
	}
	if key < 0 {
		return nil, fmt.Errorf("key %d: %w", key, pkgerrors.ErrNotFound)
	}
	size, err := s.size()
	if err != nil {
		return nil, err
	}
	off := int64(key) * RecordSize
	if off+RecordSize > size {
		return nil, fmt.Errorf("key %d out of range: %w", key, pkgerrors.ErrNotFound)
	}
	buf := make([]byte, RecordSize)
	if _, err := s.f.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("reading record %d: %w", key, err)
	}
	doc := decodeRecord(buf)
	if doc.Key != key {
		return nil, fmt.Errorf("record %d deleted or corrupt: %w", key, pkgerrors.ErrNotFound)
	}
	return &doc, nil
}

// Delete overwrites the record at key with an all-zero tombstone. The
// record must still be live; deleting a tombstoned or out-of-range key
// reports ErrNotFound without modifying the file.
func (s *Store) Delete(key int32) error {
	if s.f == nil {
		return pkgerrors.ErrStoreClosed
	}
	if _, err := s.Get(key); err != nil {
		return err
	}
	tomb := Document{Key: Tombstone}
	if _, err := s.f.WriteAt(encodeRecord(&tomb), int64(key)*RecordSize); err != nil {
		return fmt.Errorf("writing tombstone %d: %w", key, err)
	}
	return nil
}

// Total returns the number of record slots, live and tombstoned.
func (s *Store) Total() (int64, error) {
	if s.f == nil {
		return 0, pkgerrors.ErrStoreClosed
	}
	size, err := s.size()
	if err != nil {
		return 0, err
	}
	return size / RecordSize, nil
}

func (s *Store) size() (int64, error) {
	st, err := s.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if st.Size()%RecordSize != 0 {
		s.logger.Warn("record file length not a record multiple",
			"path", s.path, "size", st.Size())
	}
	return st.Size(), nil
}
