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

// Package utxorpc is a UTxO RPC client. It resolves outputs, lists address
// UTxOs and submits transactions against any UTxO RPC provider, such as a
// dingo node or a hosted endpoint.
package utxorpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/utxorpc/go-codegen/utxorpc/v1alpha/query/queryconnect"
	"github.com/utxorpc/go-codegen/utxorpc/v1alpha/submit/submitconnect"
)

const (
	// DefaultPageSize is the page size used for address UTxO searches
	DefaultPageSize = 100

	// ApiKeyHeader carries the API key for hosted UTxO RPC endpoints
	ApiKeyHeader = "dmtr-api-key"
)

var (
	ErrRejected = errors.New("transaction rejected")
	ErrRequest  = errors.New("utxorpc request failed")
)

// RejectedError is returned by Submit when the provider refuses a
// transaction
type RejectedError struct {
	Code   connect.Code
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transaction rejected: %s", e.Reason)
}

// RejectionReason returns the reason supplied by the provider
func (e *RejectedError) RejectionReason() string {
	return e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Config holds the UTxO RPC endpoint and client tuning
type Config struct {
	URL     string
	ApiKey  string
	Timeout time.Duration
}

// Client talks to the UTxO RPC query and submit services
type Client struct {
	config Config
	logger *slog.Logger
	query  queryconnect.QueryServiceClient
	submit submitconnect.SubmitServiceClient
}

// New creates a new UTxO RPC client
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "utxorpc")
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	var opts []connect.ClientOption
	if cfg.ApiKey != "" {
		opts = append(
			opts,
			connect.WithInterceptors(apiKeyInterceptor(cfg.ApiKey)),
		)
	}
	return &Client{
		config: cfg,
		logger: logger,
		query: queryconnect.NewQueryServiceClient(
			httpClient,
			cfg.URL,
			opts...,
		),
		submit: submitconnect.NewSubmitServiceClient(
			httpClient,
			cfg.URL,
			opts...,
		),
	}
}

func apiKeyInterceptor(apiKey string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			req.Header().Set(ApiKeyHeader, apiKey)
			return next(ctx, req)
		}
	}
}

func requestError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRequest, op, err)
}
