// Package server runs the HTTP listener in one of three modes: blocking in
// the foreground, on a background goroutine, or in a forked child process.
// The mode is picked once at startup; handlers behave the same in all of
// them.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	addr         string
	handler      http.Handler
	logger       *zerolog.Logger
	readyTimeout time.Duration
}

func New(addr string, handler http.Handler, logger *zerolog.Logger, readyTimeout time.Duration) *Server {
	return &Server{addr: addr, handler: handler, logger: logger, readyTimeout: readyTimeout}
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves in the foreground until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := s.newHTTPServer()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown error")
			return err
		}
		return nil
	})
	return group.Wait()
}

// Handle controls a server started with Start.
type Handle struct {
	// Addr is a dialable address of the listener.
	Addr   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// URL returns the base URL of the server.
func (h *Handle) URL() string { return "http://" + h.Addr }

// Done is closed once the server has stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Close stops the server and returns the error it stopped with, if any.
func (h *Handle) Close() error {
	h.cancel()
	<-h.done
	return h.err
}

// Start serves on a background goroutine and returns once the listener
// accepts connections. A failure to listen is returned to the caller.
func (s *Server) Start(ctx context.Context) (*Handle, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{Addr: dialAddr(ln.Addr().String()), cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = s.serve(ctx, ln)
	}()

	readyCtx, readyCancel := context.WithTimeout(ctx, s.readyTimeout)
	defer readyCancel()
	if err := WaitReady(readyCtx, h.Addr, h.done); err != nil {
		if closeErr := h.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, err
	}
	s.logger.Info().Str("addr", h.Addr).Msg("server started in background")
	return h, nil
}
