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

// Package datum builds the Plutus data attached to marketplace outputs and
// the redeemers supplied to the marketplace scripts.
package datum

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/aftermarket/address"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/plutigo/data"
)

const maxNftNameLen = 32

var ErrInvalidSaleRecord = errors.New("invalid sale record")

// PriceTerm is a single lovelace amount in a sale price
type PriceTerm struct {
	AmountLovelace uint64
}

func (p PriceTerm) ToPlutusData() data.PlutusData {
	return data.NewConstr(0, bigUint(p.AmountLovelace))
}

// SaleRecord is the datum locked with a spot listing. Field order matches
// the validator's SpotDatum and must not change.
type SaleRecord struct {
	BeaconPolicyId     lcommon.Blake2b224
	ObserverScriptHash lcommon.Blake2b224
	NftPolicyId        lcommon.Blake2b224
	NftNames           [][]byte
	SellerAddress      address.ChainAddress
	DepositLovelace    uint64
	Price              []PriceTerm
}

// NewSaleRecord validates its inputs and returns an immutable sale record
func NewSaleRecord(
	beaconPolicyId lcommon.Blake2b224,
	observerScriptHash lcommon.Blake2b224,
	nftPolicyId lcommon.Blake2b224,
	nftNames [][]byte,
	sellerAddress address.ChainAddress,
	depositLovelace uint64,
	price []PriceTerm,
) (*SaleRecord, error) {
	seen := make(map[string]struct{}, len(nftNames))
	names := make([][]byte, 0, len(nftNames))
	for idx, name := range nftNames {
		if len(name) > maxNftNameLen {
			return nil, fmt.Errorf(
				"%w: NFT name %d is %d bytes, maximum is %d",
				ErrInvalidSaleRecord,
				idx,
				len(name),
				maxNftNameLen,
			)
		}
		if _, dup := seen[string(name)]; dup {
			return nil, fmt.Errorf(
				"%w: duplicate NFT name %x",
				ErrInvalidSaleRecord,
				name,
			)
		}
		seen[string(name)] = struct{}{}
		names = append(names, append([]byte{}, name...))
	}
	if depositLovelace == 0 {
		return nil, fmt.Errorf(
			"%w: deposit must be positive",
			ErrInvalidSaleRecord,
		)
	}
	if len(price) == 0 {
		return nil, fmt.Errorf(
			"%w: at least one price term is required",
			ErrInvalidSaleRecord,
		)
	}
	for idx, p := range price {
		if p.AmountLovelace == 0 {
			return nil, fmt.Errorf(
				"%w: price term %d must be positive",
				ErrInvalidSaleRecord,
				idx,
			)
		}
	}
	return &SaleRecord{
		BeaconPolicyId:     beaconPolicyId,
		ObserverScriptHash: observerScriptHash,
		NftPolicyId:        nftPolicyId,
		NftNames:           names,
		SellerAddress:      sellerAddress,
		DepositLovelace:    depositLovelace,
		Price:              append([]PriceTerm{}, price...),
	}, nil
}

// ToPlutusData builds the datum value tree. An empty name list is encoded as
// an empty list, never omitted.
func (s *SaleRecord) ToPlutusData() data.PlutusData {
	names := make([]data.PlutusData, 0, len(s.NftNames))
	for _, name := range s.NftNames {
		names = append(names, data.NewByteString(name))
	}
	prices := make([]data.PlutusData, 0, len(s.Price))
	for _, p := range s.Price {
		prices = append(prices, p.ToPlutusData())
	}
	return data.NewConstr(
		0,
		data.NewByteString(s.BeaconPolicyId.Bytes()),
		data.NewByteString(s.ObserverScriptHash.Bytes()),
		data.NewByteString(s.NftPolicyId.Bytes()),
		data.NewList(names...),
		s.SellerAddress.ToPlutusData(),
		bigUint(s.DepositLovelace),
		data.NewList(prices...),
	)
}

// Cbor returns the serialized datum
func (s *SaleRecord) Cbor() ([]byte, error) {
	ret, err := data.Encode(s.ToPlutusData())
	if err != nil {
		return nil, fmt.Errorf("encode sale record: %w", err)
	}
	return ret, nil
}

// Hash returns the datum hash of the serialized record
func (s *SaleRecord) Hash() (lcommon.Blake2b256, error) {
	cborData, err := s.Cbor()
	if err != nil {
		return lcommon.Blake2b256{}, err
	}
	return lcommon.Blake2b256Hash(cborData), nil
}

func bigUint(v uint64) data.PlutusData {
	return data.NewInteger(new(big.Int).SetUint64(v))
}
