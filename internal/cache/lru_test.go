package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestGetReturnsVerbatimCopy(t *testing.T) {
	c := New(4)
	rsp := []byte{0x0a, 0x00, 4, 0, 1, 2, 3, 4, 5, 6}
	c.Put([]byte("kw"), rsp)

	got, ok := c.Get([]byte("kw"))
	if !ok {
		t.Fatal("miss after put")
	}
	if !bytes.Equal(got, rsp) {
		t.Fatalf("got %v, want %v", got, rsp)
	}

	// Mutating the returned copy must not touch the cached value.
	got[0] = 0xff
	again, _ := c.Get([]byte("kw"))
	if !bytes.Equal(again, rsp) {
		t.Fatal("cached value aliased by Get result")
	}
}

func TestMissReturnsFalse(t *testing.T) {
	c := New(4)
	if _, ok := c.Get([]byte("absent")); ok {
		t.Fatal("hit on empty cache")
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	const n = 3
	c := New(n)
	for i := 0; i < 10; i++ {
		c.Put([]byte(fmt.Sprintf("k%d", i)), []byte{byte(i)})
		if c.Len() > n {
			t.Fatalf("size %d exceeds capacity %d after put %d", c.Len(), n, i)
		}
	}
}

func TestLRUEvictionOrder(t *testing.T) {
	c := New(2)
	c.Put([]byte("a"), []byte{1})
	c.Put([]byte("b"), []byte{2})

	// Touch a so b becomes the eviction candidate.
	if _, ok := c.Get([]byte("a")); !ok {
		t.Fatal("miss on a")
	}
	c.Put([]byte("c"), []byte{3})

	if _, ok := c.Get([]byte("b")); ok {
		t.Error("b survived eviction")
	}
	if _, ok := c.Get([]byte("a")); !ok {
		t.Error("a was evicted")
	}
	if _, ok := c.Get([]byte("c")); !ok {
		t.Error("c was evicted")
	}
}

func TestPutOverwritePromotes(t *testing.T) {
	c := New(2)
	c.Put([]byte("a"), []byte{1})
	c.Put([]byte("b"), []byte{2})
	c.Put([]byte("a"), []byte{9})
	c.Put([]byte("c"), []byte{3})

	if _, ok := c.Get([]byte("b")); ok {
		t.Error("b survived eviction after a was re-put")
	}
	got, ok := c.Get([]byte("a"))
	if !ok || !bytes.Equal(got, []byte{9}) {
		t.Errorf("a = (%v, %v), want overwritten value", got, ok)
	}
}

func TestZeroCapacityPutIsNoop(t *testing.T) {
	c := New(0)
	c.Put([]byte("a"), []byte{1})
	if c.Len() != 0 {
		t.Fatalf("size = %d, want 0", c.Len())
	}
	if _, ok := c.Get([]byte("a")); ok {
		t.Fatal("hit on zero-capacity cache")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache_lru.bin")
	c := New(4)
	c.Put([]byte("old"), []byte{1, 1})
	c.Put([]byte("mid"), []byte{2, 2, 2})
	c.Put([]byte("new"), []byte{3})

	if err := c.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded := New(4)
	loaded.Load(path)
	if loaded.Len() != 3 {
		t.Fatalf("loaded %d entries, want 3", loaded.Len())
	}
	for key, want := range map[string][]byte{
		"old": {1, 1}, "mid": {2, 2, 2}, "new": {3},
	} {
		got, ok := loaded.Get([]byte(key))
		if !ok || !bytes.Equal(got, want) {
			t.Errorf("%s = (%v, %v), want %v", key, got, ok, want)
		}
	}
}

func TestPersistWritesMRUOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache_lru.bin")
	c := New(4)
	c.Put([]byte("a"), []byte{1})
	c.Put([]byte("b"), []byte{2})

	if err := c.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading image: %v", err)
	}
	if n := binary.LittleEndian.Uint32(raw[0:4]); n != 2 {
		t.Fatalf("entry count = %d, want 2", n)
	}
	// First record is the MRU entry "b".
	klen := binary.LittleEndian.Uint16(raw[4:6])
	if string(raw[6:6+klen]) != "b" {
		t.Errorf("first persisted key = %q, want b", raw[6:6+klen])
	}
}

func TestLoadKeepsRecencyOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache_lru.bin")
	c := New(2)
	c.Put([]byte("lru"), []byte{1})
	c.Put([]byte("mru"), []byte{2})
	if err := c.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded := New(2)
	loaded.Load(path)
	// One more insert must evict the on-disk LRU entry, not the MRU one.
	loaded.Put([]byte("x"), []byte{3})
	if _, ok := loaded.Get([]byte("lru")); ok {
		t.Error("lru entry survived eviction")
	}
	if _, ok := loaded.Get([]byte("mru")); !ok {
		t.Error("mru entry was evicted")
	}
}

func TestLoadDiscardsBeyondCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache_lru.bin")
	big := New(8)
	for i := 0; i < 5; i++ {
		big.Put([]byte(fmt.Sprintf("k%d", i)), []byte{byte(i)})
	}
	if err := big.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	small := New(2)
	small.Load(path)
	if small.Len() != 2 {
		t.Fatalf("loaded %d entries, want 2", small.Len())
	}
}

func TestLoadToleratesTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache_lru.bin")
	c := New(4)
	c.Put([]byte("a"), []byte{1})
	c.Put([]byte("b"), []byte{2})
	if err := c.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading image: %v", err)
	}
	// Cut into the middle of the second record.
	if err := os.WriteFile(path, raw[:len(raw)-2], 0o644); err != nil {
		t.Fatalf("truncating image: %v", err)
	}

	loaded := New(4)
	loaded.Load(path)
	if loaded.Len() != 1 {
		t.Fatalf("loaded %d entries, want 1", loaded.Len())
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	c := New(4)
	c.Load(filepath.Join(t.TempDir(), "absent.bin"))
	if c.Len() != 0 {
		t.Fatalf("size = %d, want 0", c.Len())
	}
}
