package web

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"cluster-monitor/internal/metrics"
	"cluster-monitor/internal/monitor"

	"github.com/rs/zerolog"
)

type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

func NewServer(port int, cache *monitor.Cache, hub *Hub, m *metrics.Metrics, trackedCoins []string, refreshSec int, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()

	h := NewHandlers(cache, hub, trackedCoins, refreshSec, logger)
	h.Register(mux)
	mux.Handle("/metrics", m.Handler())

	return &Server{
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info().Str("addr", s.srv.Addr).Msg("dashboard listening")

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("serve error")
		}
	}()

	<-ctx.Done()
	// fresh ctx for shutdown, the parent one is already cancelled
	return s.srv.Shutdown(context.Background())
}
