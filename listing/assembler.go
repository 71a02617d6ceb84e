// Copyright 2026 Blink Labs Software
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

// Package listing assembles the transaction that places NFTs for sale on the
// marketplace: it verifies ownership, builds the sale datum and beacon mint,
// and hands the result to the wallet for signing and to the ledger for
// submission.
package listing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/aftermarket/config/market"
	"github.com/blinklabs-io/aftermarket/datum"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/aftermarket/listing"

// Request describes NFTs to list and the sale terms
type Request struct {
	// Fingerprints of the NFTs to list. All must share one policy.
	Fingerprints []string
	// SellerPaymentAddress receives the sale proceeds. The wallet payment
	// address is used when empty.
	SellerPaymentAddress string
	// DepositLovelace defaults to the deployment deposit when zero
	DepositLovelace uint64
	Price           []datum.PriceTerm
}

// Result is the outcome of a listing attempt
type Result struct {
	State           State
	Condition       Condition
	Assets          []string
	ContractAddress string
	DepositLovelace uint64
	PriceLovelace   uint64
	TxId            string
	UnsignedTx      *UnsignedTx
	SignedTx        []byte
	Err             error
}

// Message returns a confirmation message for a submitted or dry-run listing
func (r *Result) Message() string {
	switch r.State {
	case StateSubmitted:
		return fmt.Sprintf(
			"listed %d asset(s) for %s ADA in transaction %s",
			len(r.Assets),
			FormatAda(r.PriceLovelace),
			r.TxId,
		)
	case StateTxBuilt:
		return fmt.Sprintf(
			"built listing transaction %s for %d asset(s) (not submitted)",
			r.TxId,
			len(r.Assets),
		)
	case StateFailed:
		return fmt.Sprintf("listing failed: %s", r.Err)
	default:
		return "listing in state " + r.State.String()
	}
}

type Assembler struct {
	logger      *slog.Logger
	deployment  *market.Deployment
	wallet      Wallet
	ledger      LedgerQuerier
	submitter   Submitter
	journal     Journal
	metrics     *listingMetrics
	tracer      trace.Tracer
	strictMatch bool
	dryRun      bool
}

type AssemblerOptionFunc func(*Assembler)

// NewAssembler returns an assembler for one marketplace deployment
func NewAssembler(opts ...AssemblerOptionFunc) (*Assembler, error) {
	a := &Assembler{
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	a.logger = a.logger.With("component", "listing")
	if a.deployment == nil {
		return nil, errors.New("a marketplace deployment is required")
	}
	if a.wallet == nil {
		return nil, errors.New("a wallet is required")
	}
	if a.ledger == nil {
		return nil, errors.New("a ledger querier is required")
	}
	if a.submitter == nil && !a.dryRun {
		return nil, errors.New("a submitter is required unless dry run is enabled")
	}
	return a, nil
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithPromRegistry specifies a prometheus.Registerer to add metrics to
func WithPromRegistry(registry prometheus.Registerer) AssemblerOptionFunc {
	return func(a *Assembler) {
		if registry != nil {
			a.metrics = initListingMetrics(registry)
		}
	}
}

// WithDeployment specifies the marketplace scripts and reference outputs
func WithDeployment(deployment *market.Deployment) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.deployment = deployment
	}
}

func WithWallet(wallet Wallet) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.wallet = wallet
	}
}

func WithLedger(ledger LedgerQuerier) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.ledger = ledger
	}
}

func WithSubmitter(submitter Submitter) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.submitter = submitter
	}
}

// WithJournal records every attempt's outcome
func WithJournal(journal Journal) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.journal = journal
	}
}

// WithStrictAssetMatch fails a fingerprint that matches more than one unit
// in the wallet instead of using the first match
func WithStrictAssetMatch(strict bool) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.strictMatch = strict
	}
}

// WithDryRun stops attempts once the transaction is built
func WithDryRun(dryRun bool) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.dryRun = dryRun
	}
}

// Deployment returns the deployment the assembler builds for
func (a *Assembler) Deployment() *market.Deployment {
	return a.deployment
}

// ListForSale runs one listing attempt to completion. The returned result is
// never nil. On failure the error is an *Error and the result is in
// StateFailed.
func (a *Assembler) ListForSale(
	ctx context.Context,
	req Request,
) (*Result, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(
		ctx,
		"listing.ListForSale",
		trace.WithAttributes(
			attribute.StringSlice("fingerprints", req.Fingerprints),
			attribute.String("network", a.deployment.Network()),
		),
	)
	defer span.End()
	att := &attempt{
		assembler: a,
		req:       req,
		logger:    a.logger,
		res:       &Result{State: StateIdle},
	}
	lErr := att.run(ctx)
	res := att.res
	outcome := outcomeSubmitted
	if lErr != nil {
		outcome = lErr.Condition.String()
		span.RecordError(lErr)
		span.SetStatus(codes.Error, lErr.Condition.String())
		a.logger.Error(
			"listing failed",
			"state", lErr.State.String(),
			"condition", lErr.Condition.String(),
			"error", lErr.Err,
		)
	} else {
		if res.State == StateTxBuilt {
			outcome = outcomeDryRun
		}
		span.SetAttributes(attribute.String("tx_id", res.TxId))
		a.logger.Info(
			"listing finished",
			"state", res.State.String(),
			"tx_id", res.TxId,
			"contract_address", res.ContractAddress,
		)
	}
	a.metrics.finished(outcome, time.Since(start).Seconds())
	if a.journal != nil {
		// Cancelled attempts are still recorded
		jErr := a.journal.RecordAttempt(context.WithoutCancel(ctx), req, res)
		if jErr != nil {
			a.logger.Warn(
				"failed to record listing attempt",
				"error", jErr,
			)
		}
	}
	if lErr != nil {
		return res, lErr
	}
	return res, nil
}

// stage runs fn in its own span and advances to next on success
func (a *Assembler) stage(
	ctx context.Context,
	att *attempt,
	next State,
	fn func(context.Context) *Error,
) *Error {
	ctx, span := a.tracer.Start(ctx, "listing."+next.String())
	defer span.End()
	if lErr := fn(ctx); lErr != nil {
		span.RecordError(lErr)
		span.SetStatus(codes.Error, lErr.Condition.String())
		return lErr
	}
	att.advance(next)
	return nil
}

// outputRefFromHex parses a wallet-supplied output reference
func outputRefFromHex(txId string, index uint32) (market.OutputRef, error) {
	raw, err := hex.DecodeString(txId)
	if err != nil || len(raw) != lcommon.Blake2b256Size {
		return market.OutputRef{}, fmt.Errorf("invalid transaction ID %q", txId)
	}
	return market.OutputRef{
		TxId:  lcommon.NewBlake2b256(raw),
		Index: index,
	}, nil
}
