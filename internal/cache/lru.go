// Package cache implements the bounded keyword → response LRU cache with a
// disk persistence image.
//
// The recency list is kept as an arena of nodes linked by prev/next indices
// rather than pointers; the index map stores arena slots. The cache owns its
// key bytes and stores response frames by value, so callers can never alias
// cached memory.
//
// Single-writer: the cache is only ever touched from the server loop.
package cache

import (
	"log/slog"
)

const (
	// MaxKeyLen bounds a cached keyword.
	MaxKeyLen = 255

	none = -1
)

type node struct {
	key  string
	rsp  []byte
	prev int
	next int
}

// Cache is a bounded LRU mapping keywords to response frames. A capacity of
// zero disables insertion entirely.
type Cache struct {
	cap    int
	index  map[string]int
	nodes  []node
	free   []int
	head   int
	tail   int
	logger *slog.Logger
}

// New returns an empty cache with the given entry capacity.
func New(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		cap:    capacity,
		index:  make(map[string]int, capacity),
		head:   none,
		tail:   none,
		logger: slog.Default().With("component", "lru-cache"),
	}
}

// Len returns the current number of entries.
func (c *Cache) Len() int { return len(c.index) }

// Cap returns the configured capacity.
func (c *Cache) Cap() int { return c.cap }

// Get returns a copy of the response cached under key and promotes the
// entry to the recency front.
func (c *Cache) Get(key []byte) ([]byte, bool) {
	i, ok := c.index[string(key)]
	if !ok {
		return nil, false
	}
	c.moveFront(i)
	out := make([]byte, len(c.nodes[i].rsp))
	copy(out, c.nodes[i].rsp)
	return out, true
}

// Put inserts a copy of rsp under key at the recency front. An existing
// entry is overwritten and promoted. Tail entries are evicted while the
// cache exceeds its capacity. With capacity zero, Put is a no-op.
func (c *Cache) Put(key []byte, rsp []byte) {
	if c.cap == 0 || len(key) == 0 || len(key) > MaxKeyLen {
		return
	}
	stored := make([]byte, len(rsp))
	copy(stored, rsp)

	if i, ok := c.index[string(key)]; ok {
		c.nodes[i].rsp = stored
		c.moveFront(i)
		return
	}

	i := c.alloc()
	c.nodes[i] = node{key: string(key), rsp: stored, prev: none, next: c.head}
	if c.head != none {
		c.nodes[c.head].prev = i
	}
	c.head = i
	if c.tail == none {
		c.tail = i
	}
	c.index[c.nodes[i].key] = i

	for len(c.index) > c.cap && c.tail != none {
		c.evictTail()
	}
}

// Entries returns the cached (key, response) pairs in MRU → LRU order.
// Response slices borrow from the cache; Persist is the only caller.
func (c *Cache) Entries() [][2][]byte {
	out := make([][2][]byte, 0, len(c.index))
	for i := c.head; i != none; i = c.nodes[i].next {
		out = append(out, [2][]byte{[]byte(c.nodes[i].key), c.nodes[i].rsp})
	}
	return out
}

func (c *Cache) alloc() int {
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		return i
	}
	c.nodes = append(c.nodes, node{})
	return len(c.nodes) - 1
}

func (c *Cache) evictTail() {
	old := c.tail
	c.tail = c.nodes[old].prev
	if c.tail != none {
		c.nodes[c.tail].next = none
	} else {
		c.head = none
	}
	delete(c.index, c.nodes[old].key)
	c.nodes[old] = node{}
	c.free = append(c.free, old)
}

func (c *Cache) moveFront(i int) {
	if i == c.head {
		return
	}
	n := &c.nodes[i]
	if n.prev != none {
		c.nodes[n.prev].next = n.next
	}
	if n.next != none {
		c.nodes[n.next].prev = n.prev
	}
	if i == c.tail {
		c.tail = n.prev
	}
	n.prev = none
	n.next = c.head
	if c.head != none {
		c.nodes[c.head].prev = i
	}
	c.head = i
	if c.tail == none {
		c.tail = i
	}
}
