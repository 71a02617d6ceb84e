// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the listing operations over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/aftermarket/config/market"
	"github.com/blinklabs-io/aftermarket/database"
	"github.com/blinklabs-io/aftermarket/database/models"
	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultListenAddress = ":8080"

// ListingService runs listing attempts
type ListingService interface {
	ListForSale(ctx context.Context, req listing.Request) (*listing.Result, error)
}

// History returns recorded listing attempts
type History interface {
	ListAttempts(
		ctx context.Context,
		opts database.ListOptions,
	) ([]models.ListingAttempt, int64, error)
}

// Config holds the server listen address and the services it exposes.
// History and Gatherer are optional.
type Config struct {
	ListenAddress string
	Deployment    *market.Deployment
	Listings      ListingService
	History       History
	Gatherer      prometheus.Gatherer
}

// Server is the listing REST API server
type Server struct {
	config     Config
	logger     *slog.Logger
	httpServer *http.Server
	done       chan struct{}
	addr       string
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg Config,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Server{
		config: cfg,
		logger: logger,
	}
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.config.Gatherer != nil {
		mux.Handle(
			"GET /metrics",
			promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}),
		)
	}
	if s.config.Listings != nil {
		mux.HandleFunc("POST /api/v0/listings", s.handleCreateListing)
	}
	if s.config.History != nil {
		mux.HandleFunc("GET /api/v0/listings", s.handleListingHistory)
	}
	mux.HandleFunc(
		"GET /api/v0/fingerprint/{policy}",
		s.handleFingerprint,
	)
	mux.HandleFunc(
		"GET /api/v0/fingerprint/{policy}/{name}",
		s.handleFingerprint,
	)
	if s.config.Deployment != nil {
		mux.HandleFunc("GET /api/v0/beacons/{policy}", s.handleBeacons)
	}
	return mux
}

// Start starts the HTTP server in a background goroutine
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	// Bind first so port conflicts are reported to the caller
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.done = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()

	s.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
	)

	// Monitor context for cancellation until the server is stopped
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		//nolint:contextcheck
		if err := s.Stop(context.Background()); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Addr returns the bound listen address of a started server
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
