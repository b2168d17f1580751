package store

import "encoding/binary"

// Field limits of the fixed on-disk record. The limits include the NUL
// terminator, so the longest stored title is MaxTitleLen-1 bytes.
const (
	MaxTitleLen   = 200
	MaxAuthorsLen = 200
	MaxPathLen    = 64

	// RecordSize is the packed wire size of one record:
	// key:i32, title[200], authors[200], path[64], year:u32.
	RecordSize = 4 + MaxTitleLen + MaxAuthorsLen + MaxPathLen + 4

	// Tombstone marks a deleted slot. The rest of a tombstoned record is
	// zeroed.
	Tombstone int32 = -1
)

// Document is the in-memory form of one record.
type Document struct {
	Key     int32
	Title   string
	Authors string
	Path    string
	Year    uint32
}

// Truncate clips the variable-length fields to their on-disk limits, the
// way an add request does before the record is written.
func (d *Document) Truncate() {
	d.Title = clip(d.Title, MaxTitleLen-1)
	d.Authors = clip(d.Authors, MaxAuthorsLen-1)
	d.Path = clip(d.Path, MaxPathLen-1)
}

func clip(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// encodeRecord serialises a document into its fixed little-endian layout.
// Oversized fields are clipped; the NUL terminator is implied by the
// zeroed tail of each field.
func encodeRecord(d *Document) []byte {
	rec := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(d.Key))
	copy(rec[4:4+MaxTitleLen-1], d.Title)
	copy(rec[4+MaxTitleLen:4+MaxTitleLen+MaxAuthorsLen-1], d.Authors)
	copy(rec[4+MaxTitleLen+MaxAuthorsLen:4+MaxTitleLen+MaxAuthorsLen+MaxPathLen-1], d.Path)
	binary.LittleEndian.PutUint32(rec[RecordSize-4:], d.Year)
	return rec
}

// decodeRecord deserialises one fixed-size record. String fields stop at
// the first NUL.
func decodeRecord(rec []byte) Document {
	return Document{
		Key:     int32(binary.LittleEndian.Uint32(rec[0:4])),
		Title:   cString(rec[4 : 4+MaxTitleLen]),
		Authors: cString(rec[4+MaxTitleLen : 4+MaxTitleLen+MaxAuthorsLen]),
		Path:    cString(rec[4+MaxTitleLen+MaxAuthorsLen : 4+MaxTitleLen+MaxAuthorsLen+MaxPathLen]),
		Year:    binary.LittleEndian.Uint32(rec[RecordSize-4:]),
	}
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
