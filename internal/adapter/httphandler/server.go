package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	HandlerTimeout = 5 * time.Second
	timeoutBody    = `{"error":"Request timed out"}`
)

// An HTTPServer serves the storefront API. Every handler is bounded by
// HandlerTimeout.
type HTTPServer struct {
	srv *http.Server
}

func NewHTTPServer(addr string, handler http.Handler) HTTPServer {
	return HTTPServer{&http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(handler, HandlerTimeout, timeoutBody),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      HandlerTimeout + time.Second,
		IdleTimeout:       2 * time.Second,
	}}
}

// Handler returns the timeout-bounded root handler.
func (s HTTPServer) Handler() http.Handler {
	return s.srv.Handler
}

// Run listens on the configured address and serves until Close.
// Any other end of serving calls stopFn.
func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		slog.Error("failed to listen", "op", op, "addr", s.srv.Addr, "err", err)
		stopFn()
		return
	}
	s.Serve(ln, stopFn)
}

func (s HTTPServer) Serve(ln net.Listener, stopFn context.CancelFunc) {
	const op = "HTTPServer.Serve"
	log := slog.With("op", op, "addr", ln.Addr().String())

	log.Info("http server is listening")
	err := s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return
	}
	log.Error("unexpected server shutdown", "err", err)
	stopFn()
}

// Close waits for active requests until ctx is done.
func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
		return
	}
	log.Info("http server is closed")
}
