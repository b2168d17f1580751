package server

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jcampos-dev/docindex/internal/command"
	"github.com/jcampos-dev/docindex/internal/docs"
	"github.com/jcampos-dev/docindex/internal/protocol"
	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// handleSearch scans every live document body for the keyword with a
// fan-out of scan workers. Workers claim keys from a shared atomic counter
// and record hits in a shared bitmap of atomic words; the bitmap is only
// read after all workers have joined.
func (s *Server) handleSearch(args []protocol.Value) (*protocol.Response, error) {
	kw := clampKeyword(args[0].Str)

	workers := 1
	if args[1].Type == protocol.ArgU32 && args[1].U32 != 0 {
		workers = int(args[1].U32)
	}

	total, err := s.store.Total()
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, fmt.Errorf("search over empty store: %w", pkgerrors.ErrInternal)
	}

	if max := s.maxWorkersPerCPU * runtime.NumCPU(); workers > max {
		workers = max
	}
	if int64(workers) > total {
		workers = int(total)
	}
	s.metrics.SearchWorkers.Observe(float64(workers))

	bitmap := make([]atomic.Uint64, (total+63)/64)
	var next atomic.Int64

	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				k := next.Add(1) - 1
				if k >= total {
					return nil
				}
				if s.keyContains(int32(k), kw) {
					bitmap[k>>6].Or(1 << uint(k&63))
				}
			}
		})
	}
	// Workers never return an error; tombstoned or unreadable documents
	// simply do not set their bit.
	_ = g.Wait()

	var list strings.Builder
	list.WriteByte('[')
	first := true
	for k := int64(0); k < total; k++ {
		if bitmap[k>>6].Load()&(1<<uint(k&63)) == 0 {
			continue
		}
		if !first {
			list.WriteString(", ")
		}
		list.WriteString(strconv.FormatInt(k, 10))
		first = false
	}
	list.WriteByte(']')

	return protocol.SimpleResponse(uint8(command.OpSearch), list.String()), nil
}

// keyContains reports whether the live document at key contains kw.
// Store reads are positional, so concurrent workers share no seek state.
func (s *Server) keyContains(key int32, kw []byte) bool {
	doc, err := s.store.Get(key)
	if err != nil {
		return false
	}
	path, err := s.root.BuildPath(doc)
	if err != nil {
		return false
	}
	hit, err := docs.Contains(path, kw)
	if err != nil {
		return false
	}
	return hit
}
