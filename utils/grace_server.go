package utils

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = defaultReadTimeout
	shutdownGrace       = 30 * time.Second
)

// Server wraps http.Server with signal driven graceful shutdown. Registered
// shutdown hooks run after in-flight requests drain, which is how background
// tasks such as the attachment cleaner get stopped with the process.
type Server struct {
	*http.Server

	hooks      []func()
	signalChan chan os.Signal
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		signalChan: make(chan os.Signal, 1),
	}
}

// OnShutdown registers a hook invoked once after the HTTP listener drains.
func (srv *Server) OnShutdown(hook func()) {
	srv.hooks = append(srv.hooks, hook)
}

// ListenAndServe serves until SIGTERM/SIGINT, then shuts down gracefully.
func (srv *Server) ListenAndServe() error {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-srv.signalChan
		Sugar.Infof("received %s, graceful shutting down HTTP server", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			Sugar.Errorf("HTTP server shutdown error: %v", err)
		}
		for _, hook := range srv.hooks {
			hook()
		}
	}()

	err := srv.Server.ListenAndServe()
	if err == http.ErrServerClosed {
		<-done
		return nil
	}
	return err
}
