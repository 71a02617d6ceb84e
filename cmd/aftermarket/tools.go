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
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/aftermarket/address"
	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/beacon"
	"github.com/spf13/cobra"
)

func fingerprintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint <policy-id> [asset-name-hex]",
		Short: "Compute the marketplace fingerprint of an asset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nameHex := ""
			if len(args) > 1 {
				nameHex = args[1]
			}
			fp := asset.Compute(args[0], nameHex)
			if !fp.Ok() {
				return fp.Reason()
			}
			policy, err := hex.DecodeString(args[0])
			if err != nil {
				return err
			}
			name, err := hex.DecodeString(nameHex)
			if err != nil {
				return err
			}
			id, err := asset.New(policy, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fingerprint: %s\n", fp.String())
			fmt.Fprintf(out, "cip14: %s\n", id.CIP14())
			return nil
		},
	}
	return cmd
}

func beaconCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beacon <policy-id>",
		Short: "Show the beacons minted when listing NFTs of a policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			deployment, err := cfg.Deployment()
			if err != nil {
				return err
			}
			policy, err := asset.ParsePolicyId(args[0])
			if err != nil {
				return err
			}
			pair := beacon.ForListing(deployment.BeaconPolicyId(), policy)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "beacon policy: %s\n", deployment.BeaconPolicyId().String())
			fmt.Fprintf(
				out,
				"policy beacon: %s (name %s)\n",
				pair.PolicyBeacon.String(),
				hex.EncodeToString(pair.PolicyBeacon.Name),
			)
			fmt.Fprintf(
				out,
				"spot beacon: %s (name %s)\n",
				pair.SpotBeacon.String(),
				hex.EncodeToString(pair.SpotBeacon.Name),
			)
			return nil
		},
	}
	return cmd
}

func addressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address <bech32-address>",
		Short: "Decode an address and show the listing contract address for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			deployment, err := cfg.Deployment()
			if err != nil {
				return err
			}
			addr, err := address.Decode(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "network id: %d\n", addr.NetworkId)
			fmt.Fprintf(out, "payment credential: %s\n", addr.Payment.String())
			stake, ok := addr.Stake.Credential()
			if !ok {
				fmt.Fprintln(out, "stake credential: none")
				fmt.Fprintln(
					out,
					"contract address: unavailable without a stake credential",
				)
				return nil
			}
			fmt.Fprintf(out, "stake credential: %s\n", stake.String())
			contract, _, err := address.DeriveContractAddress(
				deployment.AftermarketScriptHash(),
				deployment.NetworkId(),
				args[0],
			)
			if err != nil {
				return err
			}
			contractAddr, err := contract.Bech32()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "contract address: %s\n", contractAddr)
			return nil
		},
	}
	return cmd
}
