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

// Package blockfrost is a client for the Blockfrost REST API. It resolves
// outputs, lists address UTxOs and submits transactions.
package blockfrost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/aftermarket/listing"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultPageSize is the largest page Blockfrost returns
	DefaultPageSize = 100

	projectIdHeader = "project_id"
	maxErrorBody    = 64 * 1024
)

var (
	ErrNotFound = errors.New("not found")
	ErrRejected = errors.New("transaction rejected")
	ErrRequest  = errors.New("blockfrost request failed")
)

// RejectedError is returned by Submit when Blockfrost refuses a transaction
type RejectedError struct {
	StatusCode int
	Reason     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transaction rejected: %s", e.Reason)
}

// RejectionReason returns the reason supplied by the network
func (e *RejectedError) RejectionReason() string {
	return e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Config holds the Blockfrost endpoint and client tuning
type Config struct {
	BaseURL   string
	ProjectId string
	RetryMax  int
	Timeout   time.Duration
}

// Client talks to a Blockfrost-compatible API
type Client struct {
	config     Config
	logger     *slog.Logger
	httpClient *retryablehttp.Client
}

// New creates a new Blockfrost client
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "blockfrost")
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.HTTPClient.Timeout = cfg.Timeout
	httpClient.Logger = logger
	// Hand non-2xx responses back so Blockfrost error bodies can be decoded
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{
		config:     cfg,
		logger:     logger,
		httpClient: httpClient,
	}
}

// BaseURLForNetwork returns the hosted Blockfrost endpoint for a network
func BaseURLForNetwork(network string) string {
	return fmt.Sprintf("https://cardano-%s.blockfrost.io/api/v0", network)
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body []byte,
) (*retryablehttp.Request, error) {
	reqURL := c.config.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	var rawBody any
	if body != nil {
		rawBody = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, reqURL, rawBody)
	if err != nil {
		return nil, err
	}
	if c.config.ProjectId != "" {
		req.Header.Set(projectIdHeader, c.config.ProjectId)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do performs a request and decodes a JSON response into v. Non-2xx
// responses are returned as errors wrapping ErrNotFound or ErrRequest.
func (c *Client) do(req *retryablehttp.Request, v any) error {
	c.logger.Debug(
		"blockfrost request",
		"method", req.Method,
		"url", req.URL.String(),
	)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
		return fmt.Errorf(
			"%w: %s %s: %d %s: %s",
			ErrRequest,
			req.Method,
			req.URL.Path,
			resp.StatusCode,
			apiErr.Error,
			apiErr.Message,
		)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrRequest, err)
	}
	return nil
}

func decodeError(resp *http.Response) ErrorResponse {
	var ret ErrorResponse
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		err = json.Unmarshal(body, &ret)
	}
	if err != nil || ret.Message == "" {
		ret.StatusCode = resp.StatusCode
		ret.Error = http.StatusText(resp.StatusCode)
		ret.Message = strings.TrimSpace(string(body))
	}
	return ret
}

// Health reports whether the API is healthy
func (c *Client) Health(ctx context.Context) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return false, err
	}
	var ret HealthResponse
	if err := c.do(req, &ret); err != nil {
		return false, err
	}
	return ret.IsHealthy, nil
}

// TxUtxos returns the inputs and outputs of a transaction
func (c *Client) TxUtxos(
	ctx context.Context,
	txHash string,
) (*TxUtxosResponse, error) {
	req, err := c.newRequest(
		ctx,
		http.MethodGet,
		"/txs/"+url.PathEscape(txHash)+"/utxos",
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}
	var ret TxUtxosResponse
	if err := c.do(req, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// ResolveOutputsByReference returns the unspent output at txId#outputIndex.
// The result is empty when the transaction is unknown, the output does not
// exist or it has been spent.
func (c *Client) ResolveOutputsByReference(
	ctx context.Context,
	txId string,
	outputIndex uint32,
) ([]listing.ResolvedOutput, error) {
	utxos, err := c.TxUtxos(ctx, txId)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ret []listing.ResolvedOutput
	for _, output := range utxos.Outputs {
		if output.OutputIndex != outputIndex || output.ConsumedByTx != nil {
			continue
		}
		resolved := listing.ResolvedOutput{
			TxId:        txId,
			OutputIndex: output.OutputIndex,
			Address:     output.Address,
		}
		if output.ReferenceScriptHash != nil {
			hash, err := parseScriptHash(*output.ReferenceScriptHash)
			if err != nil {
				return nil, err
			}
			resolved.ReferenceScriptHash = &hash
		}
		ret = append(ret, resolved)
	}
	return ret, nil
}

// AddressUtxos returns every unspent output at an address, following pages
// until a short page is returned
func (c *Client) AddressUtxos(
	ctx context.Context,
	address string,
) ([]AddressUtxo, error) {
	var ret []AddressUtxo
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("count", strconv.Itoa(DefaultPageSize))
		req, err := c.newRequest(
			ctx,
			http.MethodGet,
			"/addresses/"+url.PathEscape(address)+"/utxos",
			query,
			nil,
		)
		if err != nil {
			return nil, err
		}
		var pageUtxos []AddressUtxo
		if err := c.do(req, &pageUtxos); err != nil {
			// Blockfrost returns 404 for addresses never seen on chain
			if errors.Is(err, ErrNotFound) {
				return ret, nil
			}
			return nil, err
		}
		ret = append(ret, pageUtxos...)
		if len(pageUtxos) < DefaultPageSize {
			return ret, nil
		}
	}
}

// Submit submits a signed transaction and returns its ID
func (c *Client) Submit(ctx context.Context, txCbor []byte) (string, error) {
	req, err := c.newRequest(
		ctx,
		http.MethodPost,
		"/tx/submit",
		nil,
		txCbor,
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/cbor")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest {
		apiErr := decodeError(resp)
		c.logger.Warn(
			"transaction rejected",
			"reason", apiErr.Message,
		)
		return "", &RejectedError{
			StatusCode: resp.StatusCode,
			Reason:     apiErr.Message,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		return "", fmt.Errorf(
			"%w: submit: %d %s: %s",
			ErrRequest,
			resp.StatusCode,
			apiErr.Error,
			apiErr.Message,
		)
	}
	var txId string
	if err := json.NewDecoder(resp.Body).Decode(&txId); err != nil {
		return "", fmt.Errorf("%w: decode submit response: %w", ErrRequest, err)
	}
	c.logger.Info("transaction submitted", "tx_id", txId)
	return txId, nil
}

func parseScriptHash(hashHex string) (lcommon.Blake2b224, error) {
	raw, err := hex.DecodeString(hashHex)
	if err != nil || len(raw) != lcommon.Blake2b224Size {
		return lcommon.Blake2b224{}, fmt.Errorf(
			"%w: invalid reference script hash %q",
			ErrRequest,
			hashHex,
		)
	}
	return lcommon.NewBlake2b224(raw), nil
}

// ParseQuantity converts a Blockfrost quantity string
func ParseQuantity(quantity string) (uint64, error) {
	ret, err := strconv.ParseUint(quantity, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	return ret, nil
}
