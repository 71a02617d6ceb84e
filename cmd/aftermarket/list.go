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

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/aftermarket/datum"
	"github.com/blinklabs-io/aftermarket/internal/config"
	"github.com/blinklabs-io/aftermarket/internal/node"
	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/spf13/cobra"
)

type listFlags struct {
	fingerprints []string
	price        string
	deposit      string
	seller       string
}

func listCommand() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List NFTs from the wallet for sale",
		Long: `List NFTs from the wallet for sale.

NFTs are selected by marketplace fingerprint, as printed on the first line of
"aftermarket fingerprint <policy> <name>". CIP-14 fingerprints do not match.

The listing transaction is built with a zero fee, zero script ex-units and no
collateral or script data hash. It must be balanced by an external balancer
before the network will accept it. Use --dry-run to print the unsigned
transaction for balancing instead of signing and submitting it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			return listRun(
				cmd.Context(),
				cmd.OutOrStdout(),
				cfg,
				commonRun(),
				flags,
			)
		},
	}
	cmd.Flags().
		StringSliceVarP(&flags.fingerprints, "fingerprint", "f", nil, "marketplace fingerprint of an NFT to list, see 'aftermarket fingerprint' (repeatable, one policy per listing)")
	cmd.Flags().
		StringVarP(&flags.price, "price", "p", "", "sale price in ADA")
	cmd.Flags().
		StringVar(&flags.deposit, "deposit", "", "deposit in ADA (defaults to the deployment deposit)")
	cmd.Flags().
		StringVar(&flags.seller, "seller", "", "address to receive the sale proceeds (defaults to the wallet address)")
	_ = cmd.MarkFlagRequired("fingerprint")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func listRequest(cfg *config.Config, flags listFlags) (listing.Request, error) {
	price, err := listing.ParseAda(flags.price)
	if err != nil {
		return listing.Request{}, fmt.Errorf("invalid price: %w", err)
	}
	deposit, err := cfg.DepositLovelace()
	if err != nil {
		return listing.Request{}, err
	}
	if flags.deposit != "" {
		deposit, err = listing.ParseAda(flags.deposit)
		if err != nil {
			return listing.Request{}, fmt.Errorf("invalid deposit: %w", err)
		}
	}
	return listing.Request{
		Fingerprints:         flags.fingerprints,
		SellerPaymentAddress: flags.seller,
		DepositLovelace:      deposit,
		Price:                []datum.PriceTerm{{AmountLovelace: price}},
	}, nil
}

func listRun(
	ctx context.Context,
	out io.Writer,
	cfg *config.Config,
	logger *slog.Logger,
	flags listFlags,
) error {
	req, err := listRequest(cfg, flags)
	if err != nil {
		return err
	}
	services, err := node.NewServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(ctx); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	res, err := services.Assembler.ListForSale(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Message())
	fmt.Fprintf(out, "contract address: %s\n", res.ContractAddress)
	if res.State == listing.StateTxBuilt && res.UnsignedTx != nil {
		fmt.Fprintf(
			out,
			"unsigned transaction: %s\n",
			hex.EncodeToString(res.UnsignedTx.Cbor()),
		)
	}
	return nil
}
