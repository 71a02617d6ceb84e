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

package utxorpc

import (
	"bytes"
	"cmp"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"connectrpc.com/connect"
	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/blockfrost"
	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/blinklabs-io/gouroboros/ledger"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	cardano "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
	query "github.com/utxorpc/go-codegen/utxorpc/v1alpha/query"
)

// Health reports whether the query service answers
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.query.ReadParams(
		ctx,
		connect.NewRequest(&query.ReadParamsRequest{}),
	)
	if err != nil {
		return false, requestError("read params", err)
	}
	return true, nil
}

// ResolveOutputsByReference returns the unspent output at txId#outputIndex.
// The result is empty when the provider reports the output as not found.
func (c *Client) ResolveOutputsByReference(
	ctx context.Context,
	txId string,
	outputIndex uint32,
) ([]listing.ResolvedOutput, error) {
	txHash, err := hex.DecodeString(txId)
	if err != nil || len(txHash) != lcommon.Blake2b256Size {
		return nil, fmt.Errorf("invalid transaction ID %q", txId)
	}
	resp, err := c.query.ReadUtxos(
		ctx,
		connect.NewRequest(&query.ReadUtxosRequest{
			Keys: []*query.TxoRef{
				{Hash: txHash, Index: outputIndex},
			},
		}),
	)
	if err != nil {
		if connect.CodeOf(err) == connect.CodeNotFound {
			return nil, nil
		}
		return nil, requestError("read utxos", err)
	}
	var ret []listing.ResolvedOutput
	for _, item := range resp.Msg.GetItems() {
		// Providers may leave the reference unset for a single key lookup
		if ref := item.GetTxoRef(); ref != nil {
			if !bytes.Equal(ref.GetHash(), txHash) ||
				ref.GetIndex() != outputIndex {
				continue
			}
		}
		output, err := decodeOutput(item)
		if err != nil {
			return nil, fmt.Errorf("%s#%d: %w", txId, outputIndex, err)
		}
		resolved := listing.ResolvedOutput{
			TxId:        txId,
			OutputIndex: outputIndex,
			Address:     output.Address().String(),
		}
		if script := output.ScriptRef(); script != nil {
			scriptHash := script.Hash()
			resolved.ReferenceScriptHash = &scriptHash
		}
		ret = append(ret, resolved)
	}
	return ret, nil
}

// AddressUtxos returns every unspent output at an address, following
// pages until the provider returns no next token
func (c *Client) AddressUtxos(
	ctx context.Context,
	address string,
) ([]blockfrost.AddressUtxo, error) {
	addr, err := lcommon.NewAddress(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	addrBytes, err := addr.Bytes()
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	predicate := &query.UtxoPredicate{
		Match: &query.AnyUtxoPattern{
			UtxoPattern: &query.AnyUtxoPattern_Cardano{
				Cardano: &cardano.TxOutputPattern{
					Address: &cardano.AddressPattern{
						ExactAddress: addrBytes,
					},
				},
			},
		},
	}
	var ret []blockfrost.AddressUtxo
	startToken := ""
	for {
		resp, err := c.query.SearchUtxos(
			ctx,
			connect.NewRequest(&query.SearchUtxosRequest{
				Predicate:  predicate,
				MaxItems:   DefaultPageSize,
				StartToken: startToken,
			}),
		)
		if err != nil {
			if connect.CodeOf(err) == connect.CodeNotFound {
				return ret, nil
			}
			return nil, requestError("search utxos", err)
		}
		for _, item := range resp.Msg.GetItems() {
			utxo, err := addressUtxo(address, item)
			if err != nil {
				return nil, err
			}
			ret = append(ret, utxo)
		}
		next := resp.Msg.GetNextToken()
		if next == "" || next == startToken {
			return ret, nil
		}
		startToken = next
	}
}

func decodeOutput(item *query.AnyUtxoData) (lcommon.TransactionOutput, error) {
	nativeBytes := item.GetNativeBytes()
	if len(nativeBytes) == 0 {
		return nil, errors.New("provider returned no native output bytes")
	}
	output, err := ledger.NewTransactionOutputFromCbor(nativeBytes)
	if err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return output, nil
}

// addressUtxo converts a search result into the Blockfrost shape the
// wallet consumes
func addressUtxo(
	address string,
	item *query.AnyUtxoData,
) (blockfrost.AddressUtxo, error) {
	ref := item.GetTxoRef()
	if ref == nil {
		return blockfrost.AddressUtxo{}, errors.New(
			"provider returned a UTxO without a reference",
		)
	}
	txHash := hex.EncodeToString(ref.GetHash())
	output, err := decodeOutput(item)
	if err != nil {
		return blockfrost.AddressUtxo{}, fmt.Errorf(
			"%s#%d: %w",
			txHash,
			ref.GetIndex(),
			err,
		)
	}
	ret := blockfrost.AddressUtxo{
		Address:     address,
		TxHash:      txHash,
		OutputIndex: ref.GetIndex(),
		Amount: []blockfrost.Amount{
			{
				Unit:     asset.LovelaceUnit,
				Quantity: strconv.FormatUint(output.Amount(), 10),
			},
		},
	}
	if output.ScriptRef() != nil {
		scriptHash := output.ScriptRef().Hash().String()
		ret.ReferenceScriptHash = &scriptHash
	}
	assets := output.Assets()
	if assets == nil {
		return ret, nil
	}
	var tokens []blockfrost.Amount
	for _, policy := range assets.Policies() {
		for _, name := range assets.Assets(policy) {
			tokens = append(tokens, blockfrost.Amount{
				Unit: policy.String() + hex.EncodeToString(name),
				Quantity: strconv.FormatUint(
					assets.Asset(policy, name),
					10,
				),
			})
		}
	}
	// Map order is random
	slices.SortFunc(tokens, func(a, b blockfrost.Amount) int {
		return cmp.Compare(a.Unit, b.Unit)
	})
	ret.Amount = append(ret.Amount, tokens...)
	return ret, nil
}
