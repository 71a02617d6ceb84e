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

package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/aftermarket/address"
	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/beacon"
	"github.com/blinklabs-io/aftermarket/config/market"
	"github.com/blinklabs-io/aftermarket/datum"
)

// attempt holds the state of a single listing attempt. It is owned by one
// goroutine and discarded once terminal.
type attempt struct {
	assembler *Assembler
	req       Request
	logger    *slog.Logger
	res       *Result

	assets          []asset.AssetId
	inputs          []market.OutputRef
	deposit         uint64
	contractAddress address.ChainAddress
	datumCbor       []byte
	redeemerCbor    []byte
	referenceScript market.OutputRef
	unsignedTx      *UnsignedTx
}

func (t *attempt) advance(next State) {
	if !CanTransition(t.res.State, next) {
		// Stages are run in order, so this is unreachable
		panic(
			fmt.Sprintf(
				"invalid listing transition %s -> %s",
				t.res.State,
				next,
			),
		)
	}
	t.logger.Debug(
		"listing state transition",
		"from", t.res.State.String(),
		"to", next.String(),
	)
	t.res.State = next
	t.assembler.metrics.stageReached(next)
}

func (t *attempt) fail(condition Condition, err error) *Error {
	lErr := newError(condition, t.res.State, err)
	t.res.Condition = condition
	t.res.Err = lErr
	t.advance(StateFailed)
	return lErr
}

type step struct {
	next State
	fn   func(context.Context) *Error
}

func (t *attempt) run(ctx context.Context) *Error {
	a := t.assembler
	if lErr := t.validateRequest(); lErr != nil {
		return lErr
	}
	steps := []step{
		{StateOwnershipVerified, t.verifyOwnership},
		{StateDatumBuilt, t.buildDatum},
		{StateReferenceResolved, t.resolveReference},
		{StateTxBuilt, t.buildTx},
	}
	if !a.dryRun {
		steps = append(
			steps,
			step{StateSigned, t.sign},
			step{StateSubmitted, t.submit},
		)
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return t.fail(ConditionCollaborator, err)
		}
		if lErr := a.stage(ctx, t, s.next, s.fn); lErr != nil {
			return lErr
		}
	}
	return nil
}

// validateRequest rejects malformed requests before any collaborator call
func (t *attempt) validateRequest() *Error {
	if len(t.req.Fingerprints) == 0 {
		return t.fail(
			ConditionInvalidInput,
			errors.New("at least one asset fingerprint is required"),
		)
	}
	seen := make(map[string]struct{}, len(t.req.Fingerprints))
	for _, fp := range t.req.Fingerprints {
		if fp == "" {
			return t.fail(
				ConditionInvalidInput,
				errors.New("empty asset fingerprint"),
			)
		}
		if _, ok := seen[fp]; ok {
			return t.fail(
				ConditionInvalidInput,
				fmt.Errorf("duplicate asset fingerprint %s", fp),
			)
		}
		seen[fp] = struct{}{}
	}
	if len(t.req.Price) == 0 {
		return t.fail(
			ConditionInvalidInput,
			errors.New("a price is required"),
		)
	}
	for idx, p := range t.req.Price {
		if p.AmountLovelace == 0 {
			return t.fail(
				ConditionInvalidInput,
				fmt.Errorf("price term %d must be positive", idx),
			)
		}
	}
	t.deposit = t.req.DepositLovelace
	if t.deposit == 0 {
		t.deposit = t.assembler.deployment.DepositLovelace()
	}
	t.res.DepositLovelace = t.deposit
	t.res.PriceLovelace = t.req.Price[0].AmountLovelace
	return nil
}

type assetMatch struct {
	id      asset.AssetId
	balance AssetBalance
}

func (m assetMatch) describe() string {
	if !m.balance.HasOutputRef() {
		return m.id.Unit()
	}
	return fmt.Sprintf(
		"%s@%s#%d",
		m.id.Unit(),
		m.balance.TxId,
		m.balance.OutputIndex,
	)
}

func (t *attempt) verifyOwnership(ctx context.Context) *Error {
	balances, err := t.assembler.wallet.UnspentOutputs(ctx)
	if err != nil {
		return t.fail(
			ConditionCollaborator,
			fmt.Errorf("get unspent outputs: %w", err),
		)
	}
	// The same unit may be held in more than one output; every holding is
	// a candidate match
	byFingerprint := make(map[string][]assetMatch)
	fingerprints := make(map[string]asset.Fingerprint)
	for _, b := range balances {
		if b.Unit == asset.LovelaceUnit || !asset.IsNFTQuantity(b.Quantity) {
			continue
		}
		id, err := asset.ParseUnit(b.Unit)
		if err != nil {
			t.logger.Debug(
				"skipping unparseable unit",
				"unit", b.Unit,
				"error", err,
			)
			continue
		}
		fp, ok := fingerprints[b.Unit]
		if !ok {
			fp = id.Fingerprint()
			fingerprints[b.Unit] = fp
		}
		if !fp.Ok() {
			t.logger.Warn(
				"fingerprint degraded",
				"unit", b.Unit,
				"reason", fp.Reason(),
			)
			continue
		}
		byFingerprint[fp.String()] = append(
			byFingerprint[fp.String()],
			assetMatch{id: id, balance: b},
		)
	}
	for _, fp := range t.req.Fingerprints {
		matches := byFingerprint[fp]
		if len(matches) == 0 {
			return t.fail(
				ConditionAssetNotFound,
				fmt.Errorf("no NFT with fingerprint %s", fp),
			)
		}
		if len(matches) > 1 {
			holdings := make([]string, 0, len(matches))
			for _, m := range matches {
				holdings = append(holdings, m.describe())
			}
			if t.assembler.strictMatch {
				return t.fail(
					ConditionAmbiguousAsset,
					fmt.Errorf("fingerprint %s matches %v", fp, holdings),
				)
			}
			t.logger.Warn(
				"fingerprint matches more than one holding, using the first",
				"fingerprint", fp,
				"holdings", holdings,
			)
		}
		match := matches[0]
		if len(t.assets) > 0 && t.assets[0].Policy != match.id.Policy {
			return t.fail(
				ConditionInvalidInput,
				fmt.Errorf(
					"all listed NFTs must share a policy: %s differs from %s",
					match.id.PolicyHex(),
					t.assets[0].PolicyHex(),
				),
			)
		}
		t.assets = append(t.assets, match.id)
		t.res.Assets = append(t.res.Assets, match.id.Unit())
		if match.balance.HasOutputRef() {
			ref, err := outputRefFromHex(
				match.balance.TxId,
				match.balance.OutputIndex,
			)
			if err != nil {
				return t.fail(ConditionCollaborator, err)
			}
			t.inputs = append(t.inputs, ref)
		}
	}
	return nil
}

func (t *attempt) buildDatum(ctx context.Context) *Error {
	a := t.assembler
	dep := a.deployment
	sellerAddr := t.req.SellerPaymentAddress
	if sellerAddr == "" {
		var err error
		sellerAddr, err = a.wallet.PaymentAddress(ctx)
		if err != nil {
			return t.fail(
				ConditionCollaborator,
				fmt.Errorf("get payment address: %w", err),
			)
		}
	}
	seller, err := address.Decode(sellerAddr)
	if err != nil {
		if errors.Is(err, address.ErrMissingPaymentCredential) {
			return t.fail(ConditionMissingPaymentCredential, err)
		}
		return t.fail(ConditionInvalidInput, err)
	}
	if seller.NetworkId != dep.NetworkId() {
		return t.fail(
			ConditionInvalidInput,
			fmt.Errorf(
				"%w: seller address is on network %d, deployment is on %d",
				address.ErrNetworkMismatch,
				seller.NetworkId,
				dep.NetworkId(),
			),
		)
	}
	rewardAddr, err := a.wallet.RewardAddress(ctx)
	if err != nil {
		return t.fail(
			ConditionCollaborator,
			fmt.Errorf("get reward address: %w", err),
		)
	}
	if rewardAddr == "" {
		return t.fail(
			ConditionMissingStakeCredential,
			errors.New("wallet has no reward address"),
		)
	}
	contract, ok, err := address.DeriveContractAddress(
		dep.AftermarketScriptHash(),
		dep.NetworkId(),
		rewardAddr,
	)
	if err != nil {
		return t.fail(ConditionInvalidInput, err)
	}
	if !ok {
		return t.fail(
			ConditionMissingStakeCredential,
			fmt.Errorf("reward address %s has no stake credential", rewardAddr),
		)
	}
	t.contractAddress = contract
	t.res.ContractAddress, err = contract.Bech32()
	if err != nil {
		return t.fail(ConditionEncoding, err)
	}
	names := make([][]byte, 0, len(t.assets))
	for _, id := range t.assets {
		names = append(names, id.Name)
	}
	record, err := datum.NewSaleRecord(
		dep.BeaconPolicyId(),
		dep.ObserverScriptHash(),
		t.assets[0].Policy,
		names,
		seller,
		t.deposit,
		t.req.Price,
	)
	if err != nil {
		return t.fail(ConditionInvalidInput, err)
	}
	if t.datumCbor, err = record.Cbor(); err != nil {
		return t.fail(ConditionEncoding, err)
	}
	if t.redeemerCbor, err = datum.NewBeaconRedeemer().Cbor(); err != nil {
		return t.fail(ConditionEncoding, err)
	}
	return nil
}

func (t *attempt) resolveReference(ctx context.Context) *Error {
	dep := t.assembler.deployment
	ref := dep.BeaconReferenceScript()
	outputs, err := t.assembler.ledger.ResolveOutputsByReference(
		ctx,
		ref.TxId.String(),
		ref.Index,
	)
	if err != nil {
		return t.fail(
			ConditionCollaborator,
			fmt.Errorf("resolve beacon reference script %s: %w", ref, err),
		)
	}
	if len(outputs) == 0 {
		return t.fail(
			ConditionReferenceScriptMissing,
			fmt.Errorf("no output at %s", ref),
		)
	}
	scriptHash := outputs[0].ReferenceScriptHash
	if scriptHash != nil && *scriptHash != dep.BeaconPolicyId() {
		return t.fail(
			ConditionReferenceScriptMissing,
			fmt.Errorf(
				"output %s holds script %s, expected %s",
				ref,
				scriptHash.String(),
				dep.BeaconPolicyId().String(),
			),
		)
	}
	t.referenceScript = ref
	return nil
}

func (t *attempt) buildTx(_ context.Context) *Error {
	dep := t.assembler.deployment
	beacons := beacon.ForListing(dep.BeaconPolicyId(), t.assets[0].Policy)
	tx, err := buildUnsignedTx(&txParams{
		inputs:          t.inputs,
		referenceScript: t.referenceScript,
		contractAddress: t.contractAddress,
		depositLovelace: t.deposit,
		beacons:         &beacons,
		nfts:            t.assets,
		datumCbor:       t.datumCbor,
		redeemerCbor:    t.redeemerCbor,
	})
	if err != nil {
		return t.fail(ConditionEncoding, err)
	}
	t.unsignedTx = tx
	t.res.UnsignedTx = tx
	t.res.TxId = tx.Hash().String()
	return nil
}

func (t *attempt) sign(ctx context.Context) *Error {
	signed, err := t.assembler.wallet.SignTransaction(ctx, t.unsignedTx)
	if err != nil {
		return t.fail(ConditionSigning, err)
	}
	if len(signed) == 0 {
		return t.fail(
			ConditionSigning,
			errors.New("wallet returned an empty transaction"),
		)
	}
	t.res.SignedTx = signed
	return nil
}

func (t *attempt) submit(ctx context.Context) *Error {
	txId, err := t.assembler.submitter.Submit(ctx, t.res.SignedTx)
	if err != nil {
		var rejection Rejection
		if errors.As(err, &rejection) {
			return t.fail(ConditionRejected, err)
		}
		return t.fail(
			ConditionCollaborator,
			fmt.Errorf("submit transaction: %w", err),
		)
	}
	t.res.TxId = txId
	return nil
}
