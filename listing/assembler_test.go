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
	"encoding/hex"
	"errors"
	"testing"

	"github.com/blinklabs-io/aftermarket/address"
	"github.com/blinklabs-io/aftermarket/beacon"
	"github.com/blinklabs-io/aftermarket/datum"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(
	t *testing.T,
	wallet Wallet,
	ledger LedgerQuerier,
	submitter Submitter,
	opts ...AssemblerOptionFunc,
) *Assembler {
	t.Helper()
	allOpts := []AssemblerOptionFunc{
		WithDeployment(testDeployment(t)),
		WithWallet(wallet),
		WithLedger(ledger),
		WithSubmitter(submitter),
	}
	allOpts = append(allOpts, opts...)
	a, err := NewAssembler(allOpts...)
	require.NoError(t, err)
	return a
}

func testRequest(fingerprints ...string) Request {
	return Request{
		Fingerprints:    fingerprints,
		DepositLovelace: 5_000_000,
		Price:           []datum.PriceTerm{{AmountLovelace: 10_000_000}},
	}
}

func TestNewAssemblerRequiresCollaborators(t *testing.T) {
	_, err := NewAssembler(WithWallet(&mockWallet{}), WithLedger(&mockLedger{}))
	require.Error(t, err)
	_, err = NewAssembler(
		WithDeployment(testDeployment(t)),
		WithWallet(&mockWallet{}),
		WithLedger(&mockLedger{}),
	)
	require.Error(t, err, "submitter is required without dry run")
	_, err = NewAssembler(
		WithDeployment(testDeployment(t)),
		WithWallet(&mockWallet{}),
		WithLedger(&mockLedger{}),
		WithDryRun(true),
	)
	require.NoError(t, err)
}

func TestListForSaleSubmitted(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	wallet := newTestWallet(t, nft)
	ledger := newTestLedger(t)
	submitter := &mockSubmitter{txId: "deadbeef"}
	journal := &mockJournal{}
	registry := prometheus.NewRegistry()
	a := newTestAssembler(
		t,
		wallet,
		ledger,
		submitter,
		WithJournal(journal),
		WithPromRegistry(registry),
	)

	res, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, nft)),
	)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StateSubmitted, res.State)
	assert.Equal(t, ConditionNone, res.Condition)
	assert.Equal(t, "deadbeef", res.TxId)
	assert.Equal(t, []string{nft.Unit()}, res.Assets)
	assert.Contains(t, res.Message(), "deadbeef")
	assert.Contains(t, res.Message(), "10 ADA")

	require.Len(t, wallet.signed, 1)
	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, wallet.signed[0].Cbor(), submitter.submitted[0])
	assert.Equal(t, 1, ledger.calls)
	require.Len(t, journal.results, 1)
	assert.Same(t, res, journal.results[0])

	contract, err := address.Decode(res.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, address.CredentialTypeScript, contract.Payment.Type)
	assert.Equal(
		t,
		testDeployment(t).AftermarketScriptHash(),
		contract.Payment.Hash,
	)
	stake, ok := contract.Stake.Credential()
	require.True(t, ok)
	assert.Equal(t, address.KeyCredential(testStakeKey), stake)

	assert.Equal(
		t,
		1.0,
		testutil.ToFloat64(a.metrics.attempts.WithLabelValues(outcomeSubmitted)),
	)
	assert.Equal(
		t,
		1.0,
		testutil.ToFloat64(
			a.metrics.stagesReached.WithLabelValues(StateTxBuilt.String()),
		),
	)
}

func TestListForSaleOutputAssets(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	a := newTestAssembler(
		t,
		newTestWallet(t, nft),
		newTestLedger(t),
		&mockSubmitter{txId: "00"},
	)
	res, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, nft)),
	)
	require.NoError(t, err)
	require.NotNil(t, res.UnsignedTx)

	out := decodeListingOutput(t, res.UnsignedTx.Cbor())
	assert.Equal(t, uint64(5_000_000), out.deposit)
	beaconPolicy := testDeployment(t).BeaconPolicyId()
	policyBeaconUnit := beaconPolicy.String() +
		beacon.PolicyBeaconNameHex(testNftPolicy)
	spotBeaconUnit := beaconPolicy.String() +
		hex.EncodeToString([]byte(beacon.SpotBeaconName))
	expected := map[string]uint64{
		policyBeaconUnit: 1,
		spotBeaconUnit:   1,
		nft.Unit():       1,
	}
	assert.Equal(t, expected, out.assets)
	assert.Equal(t, res.UnsignedTx.DatumCbor(), out.datum)

	// The minted units are exactly the two beacons
	assert.Equal(
		t,
		map[string]int64{
			policyBeaconUnit: 1,
			spotBeaconUnit:   1,
		},
		out.mint,
	)
	assert.Equal(t, beaconPolicy.String()+"53706f74", spotBeaconUnit)
}

func TestListForSaleDefaults(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	wallet := newTestWallet(t, nft)
	a := newTestAssembler(t, wallet, newTestLedger(t), nil, WithDryRun(true))
	req := testRequest(testFingerprint(t, nft))
	req.DepositLovelace = 0
	res, err := a.ListForSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, testDeployment(t).DepositLovelace(), res.DepositLovelace)
	out := decodeListingOutput(t, res.UnsignedTx.Cbor())
	assert.Equal(t, testDeployment(t).DepositLovelace(), out.deposit)
	// Seller defaults to the wallet payment address
	fields := decodeDatumFields(t, out.datum)
	seller, err := address.Decode(wallet.paymentAddress)
	require.NoError(t, err)
	sellerCbor, err := encodePlutus(seller.ToPlutusData())
	require.NoError(t, err)
	assert.Equal(t, decodeAny(t, sellerCbor), fields[4])
}

func TestListForSaleDryRun(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	wallet := newTestWallet(t, nft)
	a := newTestAssembler(t, wallet, newTestLedger(t), nil, WithDryRun(true))
	res, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, nft)),
	)
	require.NoError(t, err)
	assert.Equal(t, StateTxBuilt, res.State)
	assert.Empty(t, wallet.signed)
	assert.Nil(t, res.SignedTx)
	assert.Equal(t, res.UnsignedTx.Hash().String(), res.TxId)
	assert.Contains(t, res.Message(), "not submitted")
}

func TestListForSaleMultipleNfts(t *testing.T) {
	first := testAsset(t, testNftPolicy, "First")
	second := testAsset(t, testNftPolicy, "Second")
	a := newTestAssembler(
		t,
		newTestWallet(t, first, second),
		newTestLedger(t),
		nil,
		WithDryRun(true),
	)
	res, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, second), testFingerprint(t, first)),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{second.Unit(), first.Unit()}, res.Assets)
	out := decodeListingOutput(t, res.UnsignedTx.Cbor())
	assert.Len(t, out.assets, 4)
	assert.Equal(t, uint64(1), out.assets[first.Unit()])
	assert.Equal(t, uint64(1), out.assets[second.Unit()])
	fields := decodeDatumFields(t, out.datum)
	assert.Equal(
		t,
		[]any{[]byte("Second"), []byte("First")},
		fields[3],
	)
	// Both NFT holdings are spent
	assert.Equal(t, 2, out.inputCount)
}

func TestListForSaleFailures(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	other := testAsset(t, testOtherPolicy, "Other")
	fp := testFingerprint(t, nft)

	testDefs := []struct {
		name      string
		wallet    func(*mockWallet)
		ledger    func(*mockLedger)
		submitter *mockSubmitter
		req       func(*Request)
		opts      []AssemblerOptionFunc
		condition Condition
		sentinel  error
		state     State
	}{
		{
			name:      "no fingerprints",
			req:       func(r *Request) { r.Fingerprints = nil },
			condition: ConditionInvalidInput,
			sentinel:  ErrInvalidInput,
			state:     StateIdle,
		},
		{
			name:      "duplicate fingerprints",
			req:       func(r *Request) { r.Fingerprints = []string{fp, fp} },
			condition: ConditionInvalidInput,
			sentinel:  ErrInvalidInput,
			state:     StateIdle,
		},
		{
			name:      "no price",
			req:       func(r *Request) { r.Price = nil },
			condition: ConditionInvalidInput,
			sentinel:  ErrInvalidInput,
			state:     StateIdle,
		},
		{
			name: "zero price",
			req: func(r *Request) {
				r.Price = []datum.PriceTerm{{AmountLovelace: 0}}
			},
			condition: ConditionInvalidInput,
			sentinel:  ErrInvalidInput,
			state:     StateIdle,
		},
		{
			name: "asset not held",
			wallet: func(w *mockWallet) {
				w.balances = w.balances[:1]
			},
			condition: ConditionAssetNotFound,
			sentinel:  ErrAssetNotFound,
			state:     StateIdle,
		},
		{
			name: "asset quantity is not one",
			wallet: func(w *mockWallet) {
				w.balances[1].Quantity = 2
			},
			condition: ConditionAssetNotFound,
			sentinel:  ErrAssetNotFound,
			state:     StateIdle,
		},
		{
			name: "ambiguous holding in strict mode",
			wallet: func(w *mockWallet) {
				dup := w.balances[1]
				dup.OutputIndex = 7
				w.balances = append(w.balances, dup)
			},
			opts:      []AssemblerOptionFunc{WithStrictAssetMatch(true)},
			condition: ConditionAmbiguousAsset,
			sentinel:  ErrAmbiguousAsset,
			state:     StateIdle,
		},
		{
			name: "mixed policies",
			wallet: func(w *mockWallet) {
				w.balances = append(
					w.balances,
					AssetBalance{Unit: other.Unit(), Quantity: 1},
				)
			},
			req: func(r *Request) {
				r.Fingerprints = append(
					r.Fingerprints,
					testFingerprint(t, other),
				)
			},
			condition: ConditionInvalidInput,
			sentinel:  ErrInvalidInput,
			state:     StateIdle,
		},
		{
			name: "wallet unavailable",
			wallet: func(w *mockWallet) {
				w.balancesErr = errors.New("wallet disconnected")
			},
			condition: ConditionCollaborator,
			sentinel:  ErrCollaborator,
			state:     StateIdle,
		},
		{
			name: "no reward address",
			wallet: func(w *mockWallet) {
				w.rewardAddress = ""
			},
			condition: ConditionMissingStakeCredential,
			sentinel:  ErrMissingStakeCredential,
			state:     StateOwnershipVerified,
		},
		{
			name: "reward address without stake credential",
			wallet: func(w *mockWallet) {
				w.rewardAddress = testEnterpriseAddress(
					t,
					lcommon.AddressNetworkTestnet,
				)
			},
			condition: ConditionMissingStakeCredential,
			sentinel:  ErrMissingStakeCredential,
			state:     StateOwnershipVerified,
		},
		{
			name: "seller address without payment credential",
			req: func(r *Request) {
				r.SellerPaymentAddress = testRewardAddress(t)
			},
			condition: ConditionMissingPaymentCredential,
			sentinel:  ErrMissingPaymentCredential,
			state:     StateOwnershipVerified,
		},
		{
			name: "seller address on another network",
			req: func(r *Request) {
				r.SellerPaymentAddress = testEnterpriseAddress(
					t,
					lcommon.AddressNetworkMainnet,
				)
			},
			condition: ConditionInvalidInput,
			sentinel:  address.ErrNetworkMismatch,
			state:     StateOwnershipVerified,
		},
		{
			name: "reference script missing",
			ledger: func(l *mockLedger) {
				l.outputs = nil
			},
			condition: ConditionReferenceScriptMissing,
			sentinel:  ErrReferenceScriptMissing,
			state:     StateDatumBuilt,
		},
		{
			name: "reference output holds another script",
			ledger: func(l *mockLedger) {
				wrong := testOtherPolicy
				l.outputs[0].ReferenceScriptHash = &wrong
			},
			condition: ConditionReferenceScriptMissing,
			sentinel:  ErrReferenceScriptMissing,
			state:     StateDatumBuilt,
		},
		{
			name: "ledger unavailable",
			ledger: func(l *mockLedger) {
				l.err = errors.New("timeout")
			},
			condition: ConditionCollaborator,
			sentinel:  ErrCollaborator,
			state:     StateDatumBuilt,
		},
		{
			name: "signing declined",
			wallet: func(w *mockWallet) {
				w.signErr = errors.New("user declined")
			},
			condition: ConditionSigning,
			sentinel:  ErrSigning,
			state:     StateTxBuilt,
		},
		{
			name: "submission rejected",
			submitter: &mockSubmitter{
				err: &testRejection{reason: "BadInputsUTxO"},
			},
			condition: ConditionRejected,
			sentinel:  ErrRejected,
			state:     StateSigned,
		},
		{
			name: "submission failed",
			submitter: &mockSubmitter{
				err: errors.New("connection reset"),
			},
			condition: ConditionCollaborator,
			sentinel:  ErrCollaborator,
			state:     StateSigned,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			wallet := newTestWallet(t, nft)
			if testDef.wallet != nil {
				testDef.wallet(wallet)
			}
			ledger := newTestLedger(t)
			if testDef.ledger != nil {
				testDef.ledger(ledger)
			}
			submitter := testDef.submitter
			if submitter == nil {
				submitter = &mockSubmitter{txId: "00"}
			}
			req := testRequest(fp)
			if testDef.req != nil {
				testDef.req(&req)
			}
			journal := &mockJournal{}
			opts := append(
				[]AssemblerOptionFunc{WithJournal(journal)},
				testDef.opts...,
			)
			a := newTestAssembler(t, wallet, ledger, submitter, opts...)
			res, err := a.ListForSale(context.Background(), req)
			require.Error(t, err)
			require.NotNil(t, res)
			assert.Equal(t, StateFailed, res.State)
			assert.Equal(t, testDef.condition, res.Condition)
			assert.Equal(t, testDef.condition, ConditionOf(err))
			assert.ErrorIs(t, err, testDef.sentinel)
			var lErr *Error
			require.ErrorAs(t, err, &lErr)
			assert.Equal(t, testDef.state, lErr.State)
			require.Len(t, journal.results, 1)
			assert.Equal(t, StateFailed, journal.results[0].State)
			if testDef.state < StateTxBuilt {
				assert.Nil(t, res.UnsignedTx)
			}
			if testDef.state < StateSigned {
				assert.Empty(t, submitter.submitted)
			}
		})
	}
}

func TestListForSaleRejectionReason(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	a := newTestAssembler(
		t,
		newTestWallet(t, nft),
		newTestLedger(t),
		&mockSubmitter{err: &testRejection{reason: "ValueNotConserved"}},
	)
	_, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, nft)),
	)
	var rejection Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "ValueNotConserved", rejection.RejectionReason())
}

func TestListForSaleFirstMatchWins(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	wallet := newTestWallet(t, nft)
	dup := wallet.balances[1]
	dup.TxId = hex.EncodeToString(make([]byte, 32))
	wallet.balances = append(wallet.balances, dup)
	a := newTestAssembler(t, wallet, newTestLedger(t), nil, WithDryRun(true))
	res, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, nft)),
	)
	require.NoError(t, err)
	out := decodeListingOutput(t, res.UnsignedTx.Cbor())
	require.Equal(t, 1, out.inputCount)
	assert.Equal(t, testNftTxId, hex.EncodeToString(out.firstInputTxId))
}

func TestListForSaleNoStakeNeverBuildsTx(t *testing.T) {
	// A wallet holding only the NFT and no stake credential
	nft := testAsset(t, testNftPolicy, "MyNFT")
	wallet := newTestWallet(t, nft)
	wallet.balances = wallet.balances[1:]
	wallet.paymentAddress = testEnterpriseAddress(
		t,
		lcommon.AddressNetworkTestnet,
	)
	wallet.rewardAddress = testEnterpriseAddress(
		t,
		lcommon.AddressNetworkTestnet,
	)
	ledger := newTestLedger(t)
	a := newTestAssembler(t, wallet, ledger, &mockSubmitter{txId: "00"})
	res, err := a.ListForSale(
		context.Background(),
		testRequest(testFingerprint(t, nft)),
	)
	require.ErrorIs(t, err, ErrMissingStakeCredential)
	assert.Equal(t, StateFailed, res.State)
	assert.Nil(t, res.UnsignedTx)
	assert.Empty(t, wallet.signed)
	assert.Equal(t, 0, ledger.calls)
}

func TestListForSaleCanceled(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	a := newTestAssembler(
		t,
		newTestWallet(t, nft),
		newTestLedger(t),
		&mockSubmitter{txId: "00"},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := a.ListForSale(ctx, testRequest(testFingerprint(t, nft)))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.State)
}

func TestListForSaleCanceledIsJournaled(t *testing.T) {
	nft := testAsset(t, testNftPolicy, "MyNFT")
	journal := &mockJournal{}
	a := newTestAssembler(
		t,
		newTestWallet(t, nft),
		newTestLedger(t),
		&mockSubmitter{txId: "00"},
		WithJournal(journal),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := a.ListForSale(ctx, testRequest(testFingerprint(t, nft)))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, journal.results, 1)
	assert.Same(t, res, journal.results[0])
	assert.Equal(t, StateFailed, journal.results[0].State)
	// The journal must be handed a live context to write the row
	require.Len(t, journal.ctxErrs, 1)
	assert.NoError(t, journal.ctxErrs[0])
}
