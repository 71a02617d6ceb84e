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
	"bytes"
	"context"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/config/market"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/require"
)

var (
	testNftPolicy   = lcommon.NewBlake2b224(bytes.Repeat([]byte{0xc0}, 28))
	testOtherPolicy = lcommon.NewBlake2b224(bytes.Repeat([]byte{0xd1}, 28))
	testPaymentKey  = lcommon.NewBlake2b224(bytes.Repeat([]byte{0x11}, 28))
	testStakeKey    = lcommon.NewBlake2b224(bytes.Repeat([]byte{0x22}, 28))
	testNftTxId     = hex.EncodeToString(bytes.Repeat([]byte{0xaa}, 32))
)

type mockWallet struct {
	balances       []AssetBalance
	balancesErr    error
	paymentAddress string
	rewardAddress  string
	signErr        error
	signed         []*UnsignedTx
}

func (w *mockWallet) UnspentOutputs(context.Context) ([]AssetBalance, error) {
	return w.balances, w.balancesErr
}

func (w *mockWallet) PaymentAddress(context.Context) (string, error) {
	return w.paymentAddress, nil
}

func (w *mockWallet) RewardAddress(context.Context) (string, error) {
	return w.rewardAddress, nil
}

func (w *mockWallet) SignTransaction(
	_ context.Context,
	tx *UnsignedTx,
) ([]byte, error) {
	if w.signErr != nil {
		return nil, w.signErr
	}
	w.signed = append(w.signed, tx)
	return tx.Cbor(), nil
}

type mockLedger struct {
	outputs []ResolvedOutput
	err     error
	calls   int
}

func (l *mockLedger) ResolveOutputsByReference(
	context.Context,
	string,
	uint32,
) ([]ResolvedOutput, error) {
	l.calls++
	return l.outputs, l.err
}

type mockSubmitter struct {
	txId      string
	err       error
	submitted [][]byte
}

func (s *mockSubmitter) Submit(_ context.Context, txCbor []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.submitted = append(s.submitted, txCbor)
	return s.txId, nil
}

type mockJournal struct {
	mu      sync.Mutex
	results []*Result
	ctxErrs []error
}

func (j *mockJournal) RecordAttempt(
	ctx context.Context,
	_ Request,
	res *Result,
) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, res)
	j.ctxErrs = append(j.ctxErrs, ctx.Err())
	return nil
}

type testRejection struct {
	reason string
}

func (e *testRejection) Error() string {
	return "transaction rejected: " + e.reason
}

func (e *testRejection) RejectionReason() string {
	return e.reason
}

func testDeployment(t *testing.T) *market.Deployment {
	t.Helper()
	d, err := market.ForNetwork("preprod")
	require.NoError(t, err)
	return d
}

func testPaymentAddress(t *testing.T) string {
	t.Helper()
	addr, err := lcommon.NewAddressFromParts(
		lcommon.AddressTypeKeyKey,
		lcommon.AddressNetworkTestnet,
		testPaymentKey.Bytes(),
		testStakeKey.Bytes(),
	)
	require.NoError(t, err)
	return addr.String()
}

func testEnterpriseAddress(t *testing.T, networkId uint8) string {
	t.Helper()
	addr, err := lcommon.NewAddressFromParts(
		lcommon.AddressTypeKeyNone,
		networkId,
		testPaymentKey.Bytes(),
		nil,
	)
	require.NoError(t, err)
	return addr.String()
}

func testRewardAddress(t *testing.T) string {
	t.Helper()
	raw := append(
		[]byte{0xe0 | lcommon.AddressNetworkTestnet},
		testStakeKey.Bytes()...,
	)
	convData, err := bech32.ConvertBits(raw, 8, 5, true)
	require.NoError(t, err)
	encoded, err := bech32.Encode("stake_test", convData)
	require.NoError(t, err)
	return encoded
}

func testAsset(t *testing.T, policy lcommon.Blake2b224, name string) asset.AssetId {
	t.Helper()
	id, err := asset.New(policy.Bytes(), []byte(name))
	require.NoError(t, err)
	return id
}

func testFingerprint(t *testing.T, id asset.AssetId) string {
	t.Helper()
	fp := id.Fingerprint()
	require.True(t, fp.Ok())
	return fp.String()
}

// newTestWallet holds one NFT and some lovelace
func newTestWallet(t *testing.T, nfts ...asset.AssetId) *mockWallet {
	t.Helper()
	w := &mockWallet{
		paymentAddress: testPaymentAddress(t),
		rewardAddress:  testRewardAddress(t),
		balances: []AssetBalance{
			{Unit: asset.LovelaceUnit, Quantity: 20_000_000},
		},
	}
	for idx, nft := range nfts {
		w.balances = append(w.balances, AssetBalance{
			Unit:        nft.Unit(),
			Quantity:    1,
			TxId:        testNftTxId,
			OutputIndex: uint32(idx),
		})
	}
	return w
}

func newTestLedger(t *testing.T) *mockLedger {
	t.Helper()
	ref := testDeployment(t).BeaconReferenceScript()
	scriptHash := testDeployment(t).BeaconPolicyId()
	return &mockLedger{
		outputs: []ResolvedOutput{
			{
				TxId:                ref.TxId.String(),
				OutputIndex:         ref.Index,
				ReferenceScriptHash: &scriptHash,
			},
		},
	}
}
