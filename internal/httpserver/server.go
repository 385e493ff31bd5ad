package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/log"
)

type Server struct {
	server          *http.Server
	shutDownTimeout time.Duration
}

func New(conf config.HTTPServer, handler http.Handler) *Server {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
		Addr:         fmt.Sprintf("%v:%v", conf.BindAddress, conf.BindPort),
	}

	s := &Server{
		server:          srv,
		shutDownTimeout: conf.ShutdownTimeout,
	}
	return s
}

// Run serves until ctx is done or the process gets SIGINT/SIGTERM, then
// shuts down gracefully. A listener failure is returned as is.
func (s *Server) Run(ctx context.Context) error {
	log.Info.Println("[HTTPSERVER] listening on:", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		log.Error.Println("[HTTPSERVER] http server error:", err)
		return err
	case <-sigCtx.Done():
	}

	log.Info.Println("[SHUTDOWN] http server shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutDownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
