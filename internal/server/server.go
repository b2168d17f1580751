// Package server contains the request-serving loop, the dispatcher, and the
// six command handlers.
//
// The loop goroutine is the single owner of all shared state: it is the only
// writer of the record store (blocking commands run inline) and the only
// goroutine that touches the response cache. Non-blocking commands run in a
// spawned worker goroutine holding nothing but its own request; the loop
// synchronously receives the worker's response frame before accepting the
// next request, so cache inserts and store mutations stay totally ordered.
package server

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcampos-dev/docindex/internal/analytics"
	"github.com/jcampos-dev/docindex/internal/cache"
	"github.com/jcampos-dev/docindex/internal/command"
	"github.com/jcampos-dev/docindex/internal/docs"
	"github.com/jcampos-dev/docindex/internal/protocol"
	"github.com/jcampos-dev/docindex/internal/store"
	"github.com/jcampos-dev/docindex/internal/transport"
	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
	"github.com/jcampos-dev/docindex/pkg/metrics"
	"github.com/jcampos-dev/docindex/pkg/tracing"
)

// Options wires a Server. Store, Root, Cache, and Transport are required;
// Collector is optional and Metrics falls back to an unexported registry.
type Options struct {
	Store            *store.Store
	Root             *docs.Root
	Cache            *cache.Cache
	Transport        *transport.Server
	Metrics          *metrics.Metrics
	Collector        *analytics.Collector
	MaxWorkersPerCPU int
}

// Server owns the request loop.
type Server struct {
	store            *store.Store
	root             *docs.Root
	cache            *cache.Cache
	xp               *transport.Server
	metrics          *metrics.Metrics
	collector        *analytics.Collector
	maxWorkersPerCPU int
	logger           *slog.Logger

	workerSpawns atomic.Int64
}

// New assembles a Server from its parts.
func New(opts Options) *Server {
	m := opts.Metrics
	if m == nil {
		m = metrics.NewWith(prometheus.NewRegistry())
	}
	perCPU := opts.MaxWorkersPerCPU
	if perCPU <= 0 {
		perCPU = 10
	}
	return &Server{
		store:            opts.Store,
		root:             opts.Root,
		cache:            opts.Cache,
		xp:               opts.Transport,
		metrics:          m,
		collector:        opts.Collector,
		maxWorkersPerCPU: perCPU,
		logger:           slog.Default().With("component", "server"),
	}
}

// WorkerSpawns returns the number of request workers spawned so far.
func (s *Server) WorkerSpawns() int64 {
	return s.workerSpawns.Load()
}

// Run serves requests until a handler signals shutdown. The shutdown reply
// is delivered before Run returns; the caller persists the cache and closes
// the store and transport afterwards.
func (s *Server) Run() error {
	for {
		req, err := s.xp.ReadRequest()
		if err != nil {
			// Malformed frame: drop, no reply, keep serving.
			s.logger.Warn("dropping malformed request", "error", err)
			continue
		}
		row, ok := command.ByOpcode(command.Opcode(req.Opcode))
		if !ok {
			s.logger.Warn("dropping unknown opcode", "opcode", req.Opcode)
			s.metrics.RequestsTotal.WithLabelValues("unknown", "dropped").Inc()
			continue
		}
		if s.serveOne(req, row) {
			s.logger.Info("server loop stopping")
			return nil
		}
	}
}

// serveOne handles a single request and reports whether the loop should
// stop.
func (s *Server) serveOne(req *protocol.Request, row *command.Row) (stop bool) {
	span := tracing.Start("request", "flag", row.Flag, "pid", req.PID)
	defer func() {
		s.metrics.RequestDuration.WithLabelValues(row.Flag).Observe(span.Elapsed().Seconds())
		span.Finish(s.logger)
	}()

	// Cache hit check before spawning anything.
	if row.Opcode == command.OpSearch {
		if kw, err := protocol.FirstString(req, cache.MaxKeyLen+1); err == nil {
			if frame, ok := s.cache.Get(kw); ok {
				s.metrics.CacheHitsTotal.Inc()
				s.trackSearch(kw, true, span)
				s.replyFrame(req.PID, frame, row)
				return false
			}
		}
	}

	if !row.Blocking {
		rsp := s.runWorker(req, row)
		if rsp == nil {
			s.metrics.RequestsTotal.WithLabelValues(row.Flag, "error").Inc()
			return false
		}
		if row.Opcode == command.OpSearch {
			s.insertCache(req, rsp, span)
		}
		s.reply(req.PID, rsp, row)
		return false
	}

	rsp, err := s.dispatch(req, row)
	shutdown := errors.Is(err, pkgerrors.ErrShutdown)
	if err != nil && !shutdown {
		s.logger.Error("blocking command failed", "flag", row.Flag, "error", err)
		s.metrics.RequestsTotal.WithLabelValues(row.Flag, "error").Inc()
		return false
	}
	s.reply(req.PID, rsp, row)
	return shutdown
}

// runWorker spawns a worker goroutine for one non-blocking request and
// waits for its response frame. A handler error is synthesised into an
// "ERR" reply so a frame always comes back; a panicking worker yields nil
// and the client gets no reply.
func (s *Server) runWorker(req *protocol.Request, row *command.Row) *protocol.Response {
	s.workerSpawns.Add(1)
	s.metrics.WorkerSpawns.Inc()
	ch := make(chan *protocol.Response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("worker panic", "flag", row.Flag, "panic", r)
				ch <- nil
			}
		}()
		rsp, err := s.dispatch(req, row)
		if err != nil {
			rsp = protocol.SimpleResponse(uint8(row.Opcode), "ERR")
		}
		ch <- rsp
	}()
	return <-ch
}

// insertCache stores a search response frame under its keyword. Single
// writer: only the loop goroutine calls this.
func (s *Server) insertCache(req *protocol.Request, rsp *protocol.Response, span *tracing.Span) {
	kw, err := protocol.FirstString(req, cache.MaxKeyLen+1)
	if err != nil {
		return
	}
	frame, err := rsp.MarshalBinary()
	if err != nil {
		s.logger.Error("marshaling response for cache", "error", err)
		return
	}
	s.cache.Put(kw, frame)
	s.metrics.CacheMissesTotal.Inc()
	s.metrics.CacheEntries.Set(float64(s.cache.Len()))
	s.trackSearch(kw, false, span)
}

func (s *Server) trackSearch(kw []byte, hit bool, span *tracing.Span) {
	if s.collector == nil {
		return
	}
	s.collector.Track(analytics.CommandEvent{
		Type:      analytics.EventSearchExecuted,
		Opcode:    "-s",
		Keyword:   string(kw),
		CacheHit:  hit,
		LatencyMs: span.Elapsed().Milliseconds(),
	})
}

func (s *Server) reply(pid int32, rsp *protocol.Response, row *command.Row) {
	if err := s.xp.Reply(pid, rsp); err != nil {
		// The client is assumed gone; no retry.
		s.logger.Error("reply failed", "pid", pid, "error", err)
		s.metrics.RequestsTotal.WithLabelValues(row.Flag, "error").Inc()
		return
	}
	s.metrics.RequestsTotal.WithLabelValues(row.Flag, "ok").Inc()
}

func (s *Server) replyFrame(pid int32, frame []byte, row *command.Row) {
	rsp, err := protocol.ParseResponse(frame)
	if err != nil {
		s.logger.Error("corrupt cached response", "error", err)
		s.metrics.RequestsTotal.WithLabelValues(row.Flag, "error").Inc()
		return
	}
	s.reply(pid, rsp, row)
}
