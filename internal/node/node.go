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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/aftermarket/api"
	"github.com/blinklabs-io/aftermarket/blockfrost"
	"github.com/blinklabs-io/aftermarket/config/market"
	"github.com/blinklabs-io/aftermarket/database"
	"github.com/blinklabs-io/aftermarket/internal/config"
	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/blinklabs-io/aftermarket/utxorpc"
	"github.com/blinklabs-io/aftermarket/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ChainClient is the ledger backend. It resolves outputs, lists wallet
// UTxOs and submits transactions.
type ChainClient interface {
	listing.LedgerQuerier
	listing.Submitter
	wallet.UtxoSource
	Health(ctx context.Context) (bool, error)
}

// Services is the listing stack wired from a config
type Services struct {
	Config     *config.Config
	Deployment *market.Deployment
	Chain      ChainClient
	Wallet     *wallet.Wallet
	Database   *database.Database
	Assembler  *listing.Assembler
	Registry   *prometheus.Registry

	logger        *slog.Logger
	shutdownFuncs []func(context.Context) error
}

// NewServices builds the deployment, chain client, wallet, journal and
// listing assembler described by cfg
func NewServices(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*Services, error) {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	s := &Services{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// Configure tracing
	if cfg.Tracing {
		shutdownTracing, err := setupTracing(ctx, cfg.TracingStdout)
		if err != nil {
			return nil, err
		}
		s.shutdownFuncs = append(s.shutdownFuncs, shutdownTracing)
	}
	deployment, err := cfg.Deployment()
	if err != nil {
		s.cleanup()
		return nil, err
	}
	s.Deployment = deployment
	chain, err := newChainClient(cfg, logger)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	s.Chain = chain
	w, err := wallet.New(
		wallet.WithLogger(logger),
		wallet.WithSigningKeyFile(cfg.SigningKeyFile),
		wallet.WithNetworkId(deployment.NetworkId()),
		wallet.WithRewardAddress(cfg.RewardAddress),
		wallet.WithUtxoSource(chain),
	)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	s.Wallet = w
	db, err := database.New(cfg.DatabasePath, logger)
	if db != nil {
		s.Database = db
		s.shutdownFuncs = append(
			s.shutdownFuncs,
			func(context.Context) error { return db.Close() },
		)
	}
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	assembler, err := listing.NewAssembler(
		listing.WithLogger(logger),
		listing.WithPromRegistry(s.Registry),
		listing.WithDeployment(deployment),
		listing.WithWallet(w),
		listing.WithLedger(chain),
		listing.WithSubmitter(chain),
		listing.WithJournal(db),
		listing.WithStrictAssetMatch(cfg.StrictAssetMatch),
		listing.WithDryRun(cfg.DryRun),
	)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	s.Assembler = assembler
	return s, nil
}

func newChainClient(
	cfg *config.Config,
	logger *slog.Logger,
) (ChainClient, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendUtxorpc:
		rpcCfg, err := cfg.UtxorpcConfig()
		if err != nil {
			return nil, err
		}
		return utxorpc.New(rpcCfg, logger), nil
	case "", config.LedgerBackendBlockfrost:
		bfCfg, err := cfg.BlockfrostConfig()
		if err != nil {
			return nil, err
		}
		return blockfrost.New(bfCfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func (s *Services) cleanup() {
	//nolint:contextcheck
	if err := s.Close(context.Background()); err != nil {
		s.logger.Error("cleanup failed", "error", err, "component", "node")
	}
}

// Close releases the journal and flushes tracing. It is safe to call more
// than once.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.shutdownFuncs) - 1; i >= 0; i-- {
		if err := s.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.shutdownFuncs = nil
	return errors.Join(errs...)
}

// Run serves the listing API until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	return run(signalCtx, cfg, logger)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	services, err := NewServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	shutdownTimeout := cfg.ShutdownTimeoutDuration()
	defer func() {
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := services.Close(shutdownCtx); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	healthy, err := services.Chain.Health(ctx)
	if err != nil || !healthy {
		logger.Warn(
			"ledger backend is not healthy, listings will fail until it recovers",
			"backend", cfg.LedgerBackend,
			"error", err,
			"component", "node",
		)
	}
	server := api.New(
		api.Config{
			ListenAddress: cfg.ApiListenAddress,
			Deployment:    services.Deployment,
			Listings:      services.Assembler,
			History:       services.Database,
			Gatherer:      services.Registry,
		},
		logger,
	)
	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info(
		"serving listing API on "+server.Addr(),
		"component", "node",
		"network", services.Deployment.Network(),
		"dry_run", cfg.DryRun,
	)
	<-ctx.Done()
	logger.Info("signal received, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	//nolint:contextcheck
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
