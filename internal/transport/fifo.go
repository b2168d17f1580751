// Package transport carries request and response frames over local named
// pipes. A well-known FIFO receives all requests; every client owns a
// private reply FIFO derived from its process id, which the server opens
// write-only for the single reply and closes again.
package transport

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/jcampos-dev/docindex/internal/protocol"
)

const (
	// DefaultRequestPath is the well-known server endpoint.
	DefaultRequestPath = "/tmp/server.fifo"
	// DefaultReplyPattern locates a client's private reply endpoint.
	DefaultReplyPattern = "/tmp/client_%d.fifo"

	fifoPerm = 0o600
)

// Config selects the endpoint locations. Zero values fall back to the
// defaults.
type Config struct {
	RequestPath  string
	ReplyPattern string
}

func (c Config) withDefaults() Config {
	if c.RequestPath == "" {
		c.RequestPath = DefaultRequestPath
	}
	if c.ReplyPattern == "" {
		c.ReplyPattern = DefaultReplyPattern
	}
	return c
}

func (c Config) replyPath(pid int32) string {
	return fmt.Sprintf(c.ReplyPattern, pid)
}

func mkfifo(path string) error {
	if err := unix.Mkfifo(path, fifoPerm); err != nil && err != unix.EEXIST {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}

// Server is the receiving end of the request FIFO.
type Server struct {
	cfg    Config
	f      *os.File
	logger *slog.Logger
}

// Listen creates the request FIFO and opens it. The FIFO is opened
// read-write so the read end never sees EOF between client connections.
func Listen(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()
	_ = os.Remove(cfg.RequestPath)
	if err := mkfifo(cfg.RequestPath); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.RequestPath, os.O_RDWR, 0)
	if err != nil {
		_ = os.Remove(cfg.RequestPath)
		return nil, fmt.Errorf("opening request fifo %s: %w", cfg.RequestPath, err)
	}
	return &Server{
		cfg:    cfg,
		f:      f,
		logger: slog.Default().With("component", "fifo-transport"),
	}, nil
}

// ReadRequest blocks until the next request frame arrives.
func (s *Server) ReadRequest() (*protocol.Request, error) {
	return protocol.ReadRequest(s.f)
}

// Reply opens the client's private FIFO, writes the response frame, and
// closes it. The client must already be blocked reading its FIFO, so the
// open does not stall.
func (s *Server) Reply(pid int32, rsp *protocol.Response) error {
	if pid <= 0 {
		return fmt.Errorf("reply to pid %d: invalid pid", pid)
	}
	path := s.cfg.replyPath(pid)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("opening reply fifo %s: %w", path, err)
	}
	defer f.Close()
	return protocol.WriteResponse(f, rsp)
}

// Close closes and removes the request FIFO.
func (s *Server) Close() error {
	var err error
	if s.f != nil {
		err = s.f.Close()
		s.f = nil
	}
	_ = os.Remove(s.cfg.RequestPath)
	return err
}

// Client is one request/reply exchange endpoint.
type Client struct {
	cfg       Config
	replyPath string
	reply     *os.File
	request   *os.File
}

// Dial creates the client's private reply FIFO, verifies the server is
// listening with a non-blocking probe of the request endpoint, and opens
// both ends.
func Dial(cfg Config, pid int32) (*Client, error) {
	cfg = cfg.withDefaults()
	replyPath := cfg.replyPath(pid)
	_ = os.Remove(replyPath)
	if err := mkfifo(replyPath); err != nil {
		return nil, err
	}

	// A writable non-blocking open only succeeds while a reader holds the
	// request FIFO open, i.e. the server is up.
	probe, err := unix.Open(cfg.RequestPath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		_ = os.Remove(replyPath)
		return nil, fmt.Errorf("server not available at %s: %w", cfg.RequestPath, err)
	}
	_ = unix.Close(probe)

	reply, err := os.OpenFile(replyPath, os.O_RDWR, 0)
	if err != nil {
		_ = os.Remove(replyPath)
		return nil, fmt.Errorf("opening reply fifo %s: %w", replyPath, err)
	}
	request, err := os.OpenFile(cfg.RequestPath, os.O_WRONLY, 0)
	if err != nil {
		reply.Close()
		_ = os.Remove(replyPath)
		return nil, fmt.Errorf("opening request fifo %s: %w", cfg.RequestPath, err)
	}
	return &Client{
		cfg:       cfg,
		replyPath: replyPath,
		reply:     reply,
		request:   request,
	}, nil
}

// Send writes one request frame to the server.
func (c *Client) Send(req *protocol.Request) error {
	return protocol.WriteRequest(c.request, req)
}

// Recv blocks until the single reply frame arrives on the private FIFO.
func (c *Client) Recv() (*protocol.Response, error) {
	return protocol.ReadResponse(c.reply)
}

// Close closes both ends and removes the private reply FIFO.
func (c *Client) Close() error {
	if c.request != nil {
		c.request.Close()
		c.request = nil
	}
	if c.reply != nil {
		c.reply.Close()
		c.reply = nil
	}
	if c.replyPath != "" {
		_ = os.Remove(c.replyPath)
		c.replyPath = ""
	}
	return nil
}
