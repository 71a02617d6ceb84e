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
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/aftermarket/address"
	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/beacon"
	"github.com/blinklabs-io/aftermarket/config/market"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/fxamacker/cbor/v2"
)

// CBOR map keys and tags of a Conway transaction
const (
	txBodyKeyInputs          uint = 0
	txBodyKeyOutputs         uint = 1
	txBodyKeyFee             uint = 2
	txBodyKeyMint            uint = 9
	txBodyKeyReferenceInputs uint = 18

	txOutputKeyAddress uint = 0
	txOutputKeyAmount  uint = 1
	txOutputKeyDatum   uint = 2

	witnessKeyRedeemers uint = 5

	datumOptionInline uint64 = 1
	redeemerTagMint   uint64 = 1

	cborTagSet         uint64 = 258
	cborTagEncodedCbor uint64 = 24
	nftQuantity        uint64 = 1
	beaconMintQuantity int64  = 1
)

var errCoOccurrence = errors.New(
	"beacon mint and listing output must appear together",
)

var txEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Sort: cbor.SortCoreDeterministic}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("tx encoder options: %s", err))
	}
	return em
}()

// UnsignedTx is an assembled listing transaction awaiting balancing and
// signatures. Inputs beyond those holding the listed NFTs, the fee and
// change are left to the wallet.
type UnsignedTx struct {
	cbor            []byte
	body            []byte
	hash            lcommon.Blake2b256
	contractAddress address.ChainAddress
	datumCbor       []byte
	beacons         beacon.Pair
	nfts            []asset.AssetId
}

// Cbor returns the full transaction
func (t *UnsignedTx) Cbor() []byte {
	return t.cbor
}

// BodyCbor returns the serialized transaction body
func (t *UnsignedTx) BodyCbor() []byte {
	return t.body
}

// Hash returns the transaction body hash, which is also the transaction ID
func (t *UnsignedTx) Hash() lcommon.Blake2b256 {
	return t.hash
}

func (t *UnsignedTx) ContractAddress() address.ChainAddress {
	return t.contractAddress
}

func (t *UnsignedTx) DatumCbor() []byte {
	return t.datumCbor
}

func (t *UnsignedTx) Beacons() beacon.Pair {
	return t.beacons
}

func (t *UnsignedTx) Assets() []asset.AssetId {
	return t.nfts
}

type txParams struct {
	inputs          []market.OutputRef
	referenceScript market.OutputRef
	contractAddress address.ChainAddress
	depositLovelace uint64
	beacons         *beacon.Pair
	nfts            []asset.AssetId
	datumCbor       []byte
	redeemerCbor    []byte
}

// validate enforces that the beacon mint and the output carrying the
// beacons, NFTs and datum are either both present or both absent. Only the
// both-present shape is buildable.
func (p *txParams) validate() error {
	hasMint := p.beacons != nil && len(p.redeemerCbor) > 0
	hasOutput := len(p.datumCbor) > 0 &&
		p.depositLovelace > 0 &&
		len(p.nfts) > 0
	if hasMint != hasOutput {
		return errCoOccurrence
	}
	if !hasMint {
		return fmt.Errorf("%w: neither is present", errCoOccurrence)
	}
	if p.contractAddress.Payment.Type != address.CredentialTypeScript {
		return errors.New("listing output must be locked by a script")
	}
	if p.contractAddress.Stake.IsNone() {
		return errors.New("listing output must carry a stake credential")
	}
	return nil
}

func buildUnsignedTx(p *txParams) (*UnsignedTx, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	addrBytes, err := p.contractAddress.Bytes()
	if err != nil {
		return nil, err
	}
	output := map[uint]any{
		txOutputKeyAddress: addrBytes,
		txOutputKeyAmount: []any{
			p.depositLovelace,
			outputAssets(p.beacons, p.nfts),
		},
		txOutputKeyDatum: []any{
			datumOptionInline,
			cbor.Tag{Number: cborTagEncodedCbor, Content: p.datumCbor},
		},
	}
	body := map[uint]any{
		txBodyKeyInputs: cbor.Tag{
			Number:  cborTagSet,
			Content: encodeInputs(p.inputs),
		},
		txBodyKeyOutputs: []any{output},
		txBodyKeyFee:     uint64(0),
		txBodyKeyMint:    mintAssets(p.beacons),
		txBodyKeyReferenceInputs: cbor.Tag{
			Number:  cborTagSet,
			Content: encodeInputs([]market.OutputRef{p.referenceScript}),
		},
	}
	bodyCbor, err := txEncMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode transaction body: %w", err)
	}
	// Ex-units are placeholders until the wallet evaluates the scripts
	witnessSet := map[uint]any{
		witnessKeyRedeemers: map[[2]uint64][]any{
			{redeemerTagMint, 0}: {
				cbor.RawMessage(p.redeemerCbor),
				[]any{uint64(0), uint64(0)},
			},
		},
	}
	txCbor, err := txEncMode.Marshal(
		[]any{cbor.RawMessage(bodyCbor), witnessSet, true, nil},
	)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return &UnsignedTx{
		cbor:            txCbor,
		body:            bodyCbor,
		hash:            lcommon.Blake2b256Hash(bodyCbor),
		contractAddress: p.contractAddress,
		datumCbor:       p.datumCbor,
		beacons:         *p.beacons,
		nfts:            slices.Clone(p.nfts),
	}, nil
}

func outputAssets(
	beacons *beacon.Pair,
	nfts []asset.AssetId,
) map[cbor.ByteString]map[cbor.ByteString]uint64 {
	ret := make(map[cbor.ByteString]map[cbor.ByteString]uint64)
	add := func(policy lcommon.Blake2b224, name []byte) {
		key := cbor.ByteString(policy.Bytes())
		if ret[key] == nil {
			ret[key] = make(map[cbor.ByteString]uint64)
		}
		ret[key][cbor.ByteString(name)] = nftQuantity
	}
	for _, unit := range beacons.Units() {
		add(unit.Policy, unit.Name)
	}
	for _, nft := range nfts {
		add(nft.Policy, nft.Name)
	}
	return ret
}

func mintAssets(
	beacons *beacon.Pair,
) map[cbor.ByteString]map[cbor.ByteString]int64 {
	ret := make(map[cbor.ByteString]map[cbor.ByteString]int64)
	for _, unit := range beacons.Units() {
		key := cbor.ByteString(unit.Policy.Bytes())
		if ret[key] == nil {
			ret[key] = make(map[cbor.ByteString]int64)
		}
		ret[key][cbor.ByteString(unit.Name)] = beaconMintQuantity
	}
	return ret
}

// encodeInputs returns a sorted, de-duplicated input set
func encodeInputs(refs []market.OutputRef) []any {
	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, func(a, b market.OutputRef) int {
		if c := bytes.Compare(a.TxId.Bytes(), b.TxId.Bytes()); c != 0 {
			return c
		}
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})
	sorted = slices.Compact(sorted)
	ret := make([]any, 0, len(sorted))
	for _, ref := range sorted {
		ret = append(ret, []any{ref.TxId.Bytes(), uint64(ref.Index)})
	}
	return ret
}
