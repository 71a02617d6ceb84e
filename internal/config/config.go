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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/aftermarket/blockfrost"
	"github.com/blinklabs-io/aftermarket/config/market"
	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/blinklabs-io/aftermarket/utxorpc"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "aftermarket.config"

const (
	DefaultNetwork          = "preprod"
	DefaultDatabasePath     = ".aftermarket"
	DefaultApiListenAddress = ":8080"
	DefaultBlockfrostRetry  = 3
	DefaultShutdownTimeout  = "30s"
)

// Ledger backends answer output lookups, wallet UTxO listing and
// submission
const (
	LedgerBackendBlockfrost = "blockfrost"
	LedgerBackendUtxorpc    = "utxorpc"
)

var (
	ErrMissingProjectId = errors.New(
		"a Blockfrost project ID is required unless a custom Blockfrost URL is set",
	)
	ErrMissingUtxorpcUrl = errors.New(
		"a UTxO RPC URL is required for the utxorpc ledger backend",
	)
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	Network             string `yaml:"network"`
	DeploymentFile      string `yaml:"deploymentFile"      split_words:"true"`
	LedgerBackend       string `yaml:"ledgerBackend"       split_words:"true"`
	BlockfrostUrl       string `yaml:"blockfrostUrl"       split_words:"true"`
	BlockfrostProjectId string `yaml:"blockfrostProjectId" split_words:"true"`
	BlockfrostRetries   int    `yaml:"blockfrostRetries"   split_words:"true"`
	UtxorpcUrl          string `yaml:"utxorpcUrl"          split_words:"true"`
	UtxorpcApiKey       string `yaml:"utxorpcApiKey"       split_words:"true"`
	SigningKeyFile      string `yaml:"signingKeyFile"      split_words:"true"`
	RewardAddress       string `yaml:"rewardAddress"       split_words:"true"`
	DatabasePath        string `yaml:"databasePath"        split_words:"true"`
	ApiListenAddress    string `yaml:"apiListenAddress"    split_words:"true"`
	// DepositAda overrides the deployment deposit when set
	DepositAda       string `yaml:"depositAda"       split_words:"true"`
	StrictAssetMatch bool   `yaml:"strictAssetMatch" split_words:"true"`
	DryRun           bool   `yaml:"dryRun"           split_words:"true"`
	Tracing          bool   `yaml:"tracing"`
	TracingStdout    bool   `yaml:"tracingStdout"    split_words:"true"`
	ShutdownTimeout  string `yaml:"shutdownTimeout"  split_words:"true"`
}

// defaultConfig returns a fresh copy of the built-in defaults
func defaultConfig() *Config {
	return &Config{
		Network:           DefaultNetwork,
		LedgerBackend:     LedgerBackendBlockfrost,
		BlockfrostRetries: DefaultBlockfrostRetry,
		DatabasePath:      DefaultDatabasePath,
		ApiListenAddress:  DefaultApiListenAddress,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.aftermarket/aftermarket.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".aftermarket",
				"aftermarket.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/aftermarket/aftermarket.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/aftermarket/aftermarket.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	err := envconfig.Process("aftermarket", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks values that cannot be caught when parsing
func (c *Config) Validate() error {
	if c.DeploymentFile == "" {
		if _, err := market.ForNetwork(c.Network); err != nil {
			return fmt.Errorf("invalid network: %w", err)
		}
	}
	switch c.LedgerBackend {
	case "", LedgerBackendBlockfrost:
	case LedgerBackendUtxorpc:
		if c.UtxorpcUrl == "" {
			return ErrMissingUtxorpcUrl
		}
	default:
		return fmt.Errorf(
			"unknown ledger backend %q, expected %q or %q",
			c.LedgerBackend,
			LedgerBackendBlockfrost,
			LedgerBackendUtxorpc,
		)
	}
	if c.BlockfrostRetries < 0 {
		return fmt.Errorf(
			"blockfrost retries must not be negative: %d",
			c.BlockfrostRetries,
		)
	}
	if c.DepositAda != "" {
		if _, err := c.DepositLovelace(); err != nil {
			return err
		}
	}
	if c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
			return fmt.Errorf(
				"invalid shutdown timeout %q: %w",
				c.ShutdownTimeout,
				err,
			)
		}
	}
	return nil
}

// Deployment loads the deployment file when one is configured, and
// otherwise the built-in deployment for the network
func (c *Config) Deployment() (*market.Deployment, error) {
	if c.DeploymentFile == "" {
		return market.ForNetwork(c.Network)
	}
	deployment, err := market.NewDeploymentFromFile(c.DeploymentFile)
	if err != nil {
		return nil, fmt.Errorf("load deployment file: %w", err)
	}
	if deployment.Network() != c.Network {
		return nil, fmt.Errorf(
			"deployment file is for network %q, configured network is %q",
			deployment.Network(),
			c.Network,
		)
	}
	return deployment, nil
}

// BlockfrostConfig returns the Blockfrost client configuration
func (c *Config) BlockfrostConfig() (blockfrost.Config, error) {
	ret := blockfrost.Config{
		BaseURL:   c.BlockfrostUrl,
		ProjectId: c.BlockfrostProjectId,
		RetryMax:  c.BlockfrostRetries,
	}
	if ret.BaseURL == "" {
		if ret.ProjectId == "" {
			return blockfrost.Config{}, ErrMissingProjectId
		}
		ret.BaseURL = blockfrost.BaseURLForNetwork(c.Network)
	}
	return ret, nil
}

// UtxorpcConfig returns the UTxO RPC client configuration
func (c *Config) UtxorpcConfig() (utxorpc.Config, error) {
	if c.UtxorpcUrl == "" {
		return utxorpc.Config{}, ErrMissingUtxorpcUrl
	}
	return utxorpc.Config{
		URL:    c.UtxorpcUrl,
		ApiKey: c.UtxorpcApiKey,
	}, nil
}

// DepositLovelace returns the configured deposit override, or zero
func (c *Config) DepositLovelace() (uint64, error) {
	if c.DepositAda == "" {
		return 0, nil
	}
	ret, err := listing.ParseAda(c.DepositAda)
	if err != nil {
		return 0, fmt.Errorf("invalid deposit %q: %w", c.DepositAda, err)
	}
	return ret, nil
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || ret <= 0 {
		ret, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return ret
}
