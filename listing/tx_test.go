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
	"encoding/hex"
	"testing"

	"github.com/blinklabs-io/aftermarket/address"
	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/beacon"
	"github.com/blinklabs-io/aftermarket/config/market"
	"github.com/blinklabs-io/aftermarket/datum"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/conway"
	"github.com/blinklabs-io/plutigo/data"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingOutput struct {
	deposit        uint64
	assets         map[string]uint64
	mint           map[string]int64
	datum          []byte
	inputCount     int
	firstInputTxId []byte
}

func decodeListingOutput(t *testing.T, txCbor []byte) listingOutput {
	t.Helper()
	var ret listingOutput
	var txParts []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(txCbor, &txParts))
	require.Len(t, txParts, 4)
	var body map[uint]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(txParts[0], &body))

	var inputs cbor.Tag
	require.NoError(t, cbor.Unmarshal(body[txBodyKeyInputs], &inputs))
	require.Equal(t, cborTagSet, inputs.Number)
	inputList, ok := inputs.Content.([]any)
	require.True(t, ok)
	ret.inputCount = len(inputList)
	if len(inputList) > 0 {
		first, ok := inputList[0].([]any)
		require.True(t, ok)
		ret.firstInputTxId, ok = first[0].([]byte)
		require.True(t, ok)
	}

	var outputs []map[uint]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(body[txBodyKeyOutputs], &outputs))
	require.Len(t, outputs, 1, "listing builds exactly one output")
	var amount []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(outputs[0][txOutputKeyAmount], &amount))
	require.Len(t, amount, 2)
	require.NoError(t, cbor.Unmarshal(amount[0], &ret.deposit))
	var multi map[cbor.ByteString]map[cbor.ByteString]uint64
	require.NoError(t, cbor.Unmarshal(amount[1], &multi))
	ret.assets = make(map[string]uint64)
	for policy, names := range multi {
		for name, qty := range names {
			unit := hex.EncodeToString([]byte(policy)) +
				hex.EncodeToString([]byte(name))
			ret.assets[unit] = qty
		}
	}

	var datumOption []cbor.RawMessage
	require.NoError(
		t,
		cbor.Unmarshal(outputs[0][txOutputKeyDatum], &datumOption),
	)
	require.Len(t, datumOption, 2)
	var optionType uint64
	require.NoError(t, cbor.Unmarshal(datumOption[0], &optionType))
	require.Equal(t, datumOptionInline, optionType)
	var datumTag cbor.Tag
	require.NoError(t, cbor.Unmarshal(datumOption[1], &datumTag))
	require.Equal(t, cborTagEncodedCbor, datumTag.Number)
	ret.datum, ok = datumTag.Content.([]byte)
	require.True(t, ok)

	var mint map[cbor.ByteString]map[cbor.ByteString]int64
	require.NoError(t, cbor.Unmarshal(body[txBodyKeyMint], &mint))
	ret.mint = make(map[string]int64)
	for policy, names := range mint {
		for name, qty := range names {
			unit := hex.EncodeToString([]byte(policy)) +
				hex.EncodeToString([]byte(name))
			ret.mint[unit] = qty
		}
	}
	return ret
}

func decodeAny(t *testing.T, cborData []byte) any {
	t.Helper()
	var ret any
	require.NoError(t, cbor.Unmarshal(cborData, &ret))
	return ret
}

func decodeDatumFields(t *testing.T, datumCbor []byte) []any {
	t.Helper()
	var tag cbor.Tag
	require.NoError(t, cbor.Unmarshal(datumCbor, &tag))
	fields, ok := tag.Content.([]any)
	require.True(t, ok)
	require.Len(t, fields, 7)
	return fields
}

func encodePlutus(pd data.PlutusData) ([]byte, error) {
	return data.Encode(pd)
}

func testTxParams(t *testing.T) *txParams {
	t.Helper()
	dep := testDeployment(t)
	nft := testAsset(t, testNftPolicy, "MyNFT")
	seller, err := address.Decode(testPaymentAddress(t))
	require.NoError(t, err)
	contract, ok, err := address.DeriveContractAddress(
		dep.AftermarketScriptHash(),
		dep.NetworkId(),
		testRewardAddress(t),
	)
	require.NoError(t, err)
	require.True(t, ok)
	record, err := datum.NewSaleRecord(
		dep.BeaconPolicyId(),
		dep.ObserverScriptHash(),
		testNftPolicy,
		[][]byte{nft.Name},
		seller,
		5_000_000,
		[]datum.PriceTerm{{AmountLovelace: 10_000_000}},
	)
	require.NoError(t, err)
	datumCbor, err := record.Cbor()
	require.NoError(t, err)
	redeemerCbor, err := datum.NewBeaconRedeemer().Cbor()
	require.NoError(t, err)
	beacons := beacon.ForListing(dep.BeaconPolicyId(), testNftPolicy)
	return &txParams{
		inputs: []market.OutputRef{
			{
				TxId:  lcommon.NewBlake2b256(bytes.Repeat([]byte{0xaa}, 32)),
				Index: 1,
			},
		},
		referenceScript: dep.BeaconReferenceScript(),
		contractAddress: contract,
		depositLovelace: 5_000_000,
		beacons:         &beacons,
		nfts:            []asset.AssetId{nft},
		datumCbor:       datumCbor,
		redeemerCbor:    redeemerCbor,
	}
}

func TestBuildUnsignedTxDecodesAsConway(t *testing.T) {
	utx, err := buildUnsignedTx(testTxParams(t))
	require.NoError(t, err)
	tx, err := conway.NewConwayTransactionFromCbor(utx.Cbor())
	require.NoError(t, err, "listing tx must decode as a Conway transaction")
	assert.Len(t, tx.Inputs(), 1)
	assert.Len(t, tx.Outputs(), 1)
	assert.Len(t, tx.ReferenceInputs(), 1)
	assert.Equal(t, utx.Hash().String(), tx.Hash().String())
	assert.Equal(t, lcommon.Blake2b256Hash(utx.BodyCbor()), utx.Hash())
}

func TestBuildUnsignedTxDeterministic(t *testing.T) {
	first, err := buildUnsignedTx(testTxParams(t))
	require.NoError(t, err)
	second, err := buildUnsignedTx(testTxParams(t))
	require.NoError(t, err)
	assert.Equal(t, first.Cbor(), second.Cbor())
	assert.Equal(t, first.Hash(), second.Hash())
}

func TestBuildUnsignedTxInputsSortedAndUnique(t *testing.T) {
	params := testTxParams(t)
	low := market.OutputRef{TxId: lcommon.NewBlake2b256(make([]byte, 32))}
	params.inputs = append(params.inputs, low, params.inputs[0], low)
	utx, err := buildUnsignedTx(params)
	require.NoError(t, err)
	out := decodeListingOutput(t, utx.Cbor())
	assert.Equal(t, 2, out.inputCount)
	assert.Equal(t, make([]byte, 32), out.firstInputTxId)
}

func TestBuildUnsignedTxRedeemer(t *testing.T) {
	params := testTxParams(t)
	utx, err := buildUnsignedTx(params)
	require.NoError(t, err)
	var txParts []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(utx.Cbor(), &txParts))
	var witnesses map[uint]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(txParts[1], &witnesses))
	var redeemers map[[2]uint64][]cbor.RawMessage
	require.NoError(
		t,
		cbor.Unmarshal(witnesses[witnessKeyRedeemers], &redeemers),
	)
	require.Len(t, redeemers, 1)
	entry, ok := redeemers[[2]uint64{redeemerTagMint, 0}]
	require.True(t, ok)
	require.Len(t, entry, 2)
	assert.Equal(t, []byte(params.redeemerCbor), []byte(entry[0]))
}

func TestBuildUnsignedTxCoOccurrence(t *testing.T) {
	testDefs := []struct {
		name   string
		modify func(*txParams)
	}{
		{
			name:   "mint without output",
			modify: func(p *txParams) { p.datumCbor = nil },
		},
		{
			name:   "output without mint",
			modify: func(p *txParams) { p.beacons = nil },
		},
		{
			name:   "output without redeemer",
			modify: func(p *txParams) { p.redeemerCbor = nil },
		},
		{
			name:   "output without NFTs",
			modify: func(p *txParams) { p.nfts = nil },
		},
		{
			name: "neither",
			modify: func(p *txParams) {
				p.beacons = nil
				p.redeemerCbor = nil
				p.datumCbor = nil
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			params := testTxParams(t)
			testDef.modify(params)
			utx, err := buildUnsignedTx(params)
			assert.ErrorIs(t, err, errCoOccurrence)
			assert.Nil(t, utx)
		})
	}
}

func TestBuildUnsignedTxRequiresScriptContract(t *testing.T) {
	params := testTxParams(t)
	params.contractAddress.Payment = address.KeyCredential(testPaymentKey)
	_, err := buildUnsignedTx(params)
	require.Error(t, err)

	params = testTxParams(t)
	params.contractAddress.Stake = address.NoStake()
	_, err = buildUnsignedTx(params)
	require.Error(t, err)
}
