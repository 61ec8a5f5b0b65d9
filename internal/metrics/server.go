// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server serves the metrics of a registry over HTTP.
type Server struct {
	addr string
	mux  *http.ServeMux
	log  logr.Logger
}

// NewServer initializes a Server exposing gatherer on /metrics.
func NewServer(log logr.Logger, addr string, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		addr: addr,
		mux:  http.NewServeMux(),
		log:  log.WithName("metrics-server"),
	}
	s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting metrics server", "address", s.addr)
	server := &http.Server{Addr: s.addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server ListenAndServe: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server Shutdown: %w", err)
		}
		s.log.Info("Metrics server stopped")
		return nil
	case err := <-errChan:
		return err
	}
}
