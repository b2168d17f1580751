package cache

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Persistence image: entryCount:u32 followed by entryCount records of
// {keyLen:u16, key[keyLen], rspLen:u16, rsp[rspLen]}, MRU → LRU, all
// little-endian. Exactly rspLen bytes of the response frame are written.

// Persist writes all live entries front-to-back to path, replacing any
// previous image.
func (c *Cache) Persist(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o660)
	if err != nil {
		return fmt.Errorf("creating cache file %s: %w", path, err)
	}
	defer f.Close()

	entries := c.Entries()
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(entries)))
	if _, err := f.Write(hdr[:]); err != nil {
		return fmt.Errorf("writing cache entry count: %w", err)
	}
	var l [2]byte
	for _, e := range entries {
		key, rsp := e[0], e[1]
		binary.LittleEndian.PutUint16(l[:], uint16(len(key)))
		if _, err := f.Write(l[:]); err != nil {
			return fmt.Errorf("writing cache key length: %w", err)
		}
		if _, err := f.Write(key); err != nil {
			return fmt.Errorf("writing cache key: %w", err)
		}
		binary.LittleEndian.PutUint16(l[:], uint16(len(rsp)))
		if _, err := f.Write(l[:]); err != nil {
			return fmt.Errorf("writing cache response length: %w", err)
		}
		if _, err := f.Write(rsp); err != nil {
			return fmt.Errorf("writing cache response: %w", err)
		}
	}
	return nil
}

// Load restores entries from a persistence image at path. Loading is
// tolerant: a missing file is fine, and reading stops at the first
// truncated or invalid record without failing. Entries beyond the cache
// capacity are discarded. Records are inserted back-to-front so the
// on-disk MRU entry ends up at the recency front again.
func (c *Cache) Load(path string) {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Error("opening cache file", "path", path, "error", err)
		}
		return
	}
	defer f.Close()

	var hdr [4]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		c.logger.Warn("cache file truncated", "path", path)
		return
	}
	n := binary.LittleEndian.Uint32(hdr[:])

	type pair struct {
		key []byte
		rsp []byte
	}
	loaded := make([]pair, 0, n)
	var l [2]byte
	for i := uint32(0); i < n && len(loaded) < c.cap; i++ {
		if _, err := io.ReadFull(f, l[:]); err != nil {
			break
		}
		klen := binary.LittleEndian.Uint16(l[:])
		if klen == 0 || klen > MaxKeyLen {
			c.logger.Warn("invalid cache key length", "len", klen)
			break
		}
		key := make([]byte, klen)
		if _, err := io.ReadFull(f, key); err != nil {
			break
		}
		if _, err := io.ReadFull(f, l[:]); err != nil {
			break
		}
		rlen := binary.LittleEndian.Uint16(l[:])
		rsp := make([]byte, rlen)
		if _, err := io.ReadFull(f, rsp); err != nil {
			break
		}
		loaded = append(loaded, pair{key: key, rsp: rsp})
	}

	for i := len(loaded) - 1; i >= 0; i-- {
		c.Put(loaded[i].key, loaded[i].rsp)
	}
	if len(loaded) > 0 {
		c.logger.Info("cache image loaded", "path", path, "entries", len(loaded))
	}
}
