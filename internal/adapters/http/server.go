package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Server runs the HTTP listener as a suture.Service.
type Server struct {
	Addr    string
	Handler nethttp.Handler
}

func (s *Server) Serve(ctx context.Context) error {
	srv := &nethttp.Server{
		Addr:              s.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("module", "adapters.http").Str("addr", s.Addr).Msg("callrelay server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Str("module", "adapters.http").Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("server forced to shutdown")
	}
	return ctx.Err()
}

func (s *Server) String() string { return "http-server" }
