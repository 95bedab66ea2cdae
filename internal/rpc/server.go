// SPDX-License-Identifier: MPL-2.0

package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/siliconalloy/alloy/internal/core/serverbase"

	"github.com/charmbracelet/log"
)

// MaxMessageSize bounds one request line.
const MaxMessageSize = 4 << 20

type (
	// Server accepts unix socket connections and serves each on its own
	// goroutine. Requests are dispatched with the server's lifecycle
	// context, not the connection's: a client hanging up does not cancel
	// work already started on its behalf.
	Server struct {
		*serverbase.Base

		path    string
		handler Handler
		logger  *log.Logger

		mu       sync.Mutex
		listener net.Listener
		conns    map[net.Conn]struct{}
	}

	// ServerOption configures a Server.
	ServerOption func(*serverOptions)

	serverOptions struct {
		logger   *log.Logger
		maxConns int
	}
)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = l }
}

// WithMaxConns caps concurrently served connections; see serverbase.WithMaxConns.
func WithMaxConns(n int) ServerOption {
	return func(o *serverOptions) { o.maxConns = n }
}

// NewServer returns a server that will listen on the socket at path.
func NewServer(path string, handler Handler, opts ...ServerOption) *Server {
	o := serverOptions{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		Base:    serverbase.New(serverbase.WithMaxConns(o.maxConns)),
		path:    path,
		handler: handler,
		logger:  o.logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Path is the socket path.
func (s *Server) Path() string { return s.path }

// Start binds the socket and begins accepting. A stale socket file left by
// a previous daemon is removed first and the parent directory is created.
// It returns once the server is Running.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Begin(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.Fail(fmt.Errorf("create socket directory: %w", err))
		return s.LastError()
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.Fail(fmt.Errorf("remove stale socket: %w", err))
		return s.LastError()
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", s.path)
	if err != nil {
		s.Fail(fmt.Errorf("failed to listen on %s: %w", s.path, err))
		return s.LastError()
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.MarkRunning()
	s.Go(s.accept)
	s.logger.Info("daemon listening", "path", s.path)
	return nil
}

// Stop closes the listener and open connections, waits for in-flight
// requests to finish and removes the socket file. Safe to call repeatedly.
func (s *Server) Stop() error {
	if !s.BeginStop() {
		s.Wait()
		return nil
	}

	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close() // accept loop exits on net.ErrClosed
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.Finish()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove socket: %w", err)
	}
	s.logger.Info("daemon stopped", "served", s.Served())
	return nil
}

func (s *Server) accept(ctx context.Context) {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.Report(fmt.Errorf("accept: %w", err))
			return
		}
		if !s.Acquire() {
			_ = conn.Close()
			return
		}
		if !s.track(conn) {
			s.Release()
			_ = conn.Close()
			return
		}
		s.Go(func(ctx context.Context) {
			defer s.Release()
			defer s.untrack(conn)
			s.serveConn(ctx, conn)
		})
	}
}

// track registers conn for Stop; it refuses once stopping began.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.IsRunning() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	w := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		resp := s.handle(ctx, line)
		if err := writeMessage(w, resp); err != nil {
			s.logger.Debug("connection write failed", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("connection failed", "error", err)
	}
}

func (s *Server) handle(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return NewError(nil, &Error{Code: CodeParseError, Message: "invalid json: " + err.Error(), Data: &ErrorData{Kind: "invalid_input"}})
	}

	result, err := s.handler.Dispatch(ctx, req.Method, req.Params)
	if err != nil {
		s.logger.Debug("request failed", "method", req.Method, "error", err)
		return NewError(req.ID, ErrorFor(err))
	}
	resp, err := NewResult(req.ID, result)
	if err != nil {
		return NewError(req.ID, &Error{Code: CodeInternalError, Message: "serialization failed: " + err.Error(), Data: &ErrorData{Kind: "internal"}})
	}
	return resp
}

func writeMessage(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return w.Flush()
}
