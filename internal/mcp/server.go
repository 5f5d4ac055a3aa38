package mcp

import (
	"context"
	"log/slog"
	"net"
	"sync"
)

// Server serves the line-delimited protocol over TCP, one stream per
// connection. Connections are independent and handled concurrently.
type Server struct {
	dispatcher *Dispatcher
	addr       string
	logger     *slog.Logger

	ln     net.Listener
	mu     sync.Mutex
	closed bool
	conns  sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(addr string, dispatcher *Dispatcher, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		dispatcher: dispatcher,
		addr:       addr,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("mcp tcp server starting", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.logger.Error("mcp accept error", "err", err)
			continue
		}
		s.conns.Add(1)
		go s.handleConn(conn)
	}
}

// Shutdown stops accepting, drops open connections and waits for their
// handlers to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	s.logger.Debug("mcp connection opened", "remote", remote)
	if err := s.dispatcher.ServeStream(s.ctx, conn, conn); err != nil && s.ctx.Err() == nil {
		s.logger.Warn("mcp connection error", "remote", remote, "err", err)
	}
	s.logger.Debug("mcp connection closed", "remote", remote)
}
