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

// Package asset identifies native tokens by issuing policy and asset name
// and derives the display fingerprints used to look them up.
package asset

import (
	"encoding/hex"
	"errors"
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

const (
	// PolicyIdLen is the size in bytes of an issuing policy identifier
	PolicyIdLen = 28
	// MaxNameLen is the largest asset name the ledger accepts
	MaxNameLen = 32
	// LovelaceUnit is the unit string wallets use for the native currency
	LovelaceUnit = "lovelace"
)

var (
	ErrInvalidUnit     = errors.New("invalid asset unit")
	ErrInvalidPolicyId = errors.New("invalid policy ID")
	ErrNameTooLong     = errors.New("asset name too long")
)

// AssetId is an (issuing policy, asset name) pair
type AssetId struct {
	Policy lcommon.Blake2b224
	Name   []byte
}

// New builds an AssetId from raw policy and name bytes
func New(policy []byte, name []byte) (AssetId, error) {
	if len(policy) != PolicyIdLen {
		return AssetId{}, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidPolicyId,
			PolicyIdLen,
			len(policy),
		)
	}
	if len(name) > MaxNameLen {
		return AssetId{}, fmt.Errorf(
			"%w: %d bytes exceeds %d",
			ErrNameTooLong,
			len(name),
			MaxNameLen,
		)
	}
	return AssetId{
		Policy: lcommon.NewBlake2b224(policy),
		Name:   append([]byte{}, name...),
	}, nil
}

// ParsePolicyId decodes a hex policy ID
func ParsePolicyId(policyHex string) (lcommon.Blake2b224, error) {
	raw, err := hex.DecodeString(policyHex)
	if err != nil {
		return lcommon.Blake2b224{}, fmt.Errorf(
			"%w: %w",
			ErrInvalidPolicyId,
			err,
		)
	}
	if len(raw) != PolicyIdLen {
		return lcommon.Blake2b224{}, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidPolicyId,
			PolicyIdLen,
			len(raw),
		)
	}
	return lcommon.NewBlake2b224(raw), nil
}

// ParseUnit splits an on-chain unit string (hex policy ID followed by hex
// asset name) into its parts
func ParseUnit(unit string) (AssetId, error) {
	if unit == LovelaceUnit {
		return AssetId{}, fmt.Errorf(
			"%w: %s is not a native asset",
			ErrInvalidUnit,
			unit,
		)
	}
	if len(unit) < PolicyIdLen*2 || len(unit)%2 != 0 {
		return AssetId{}, fmt.Errorf(
			"%w: %q has invalid length %d",
			ErrInvalidUnit,
			unit,
			len(unit),
		)
	}
	raw, err := hex.DecodeString(unit)
	if err != nil {
		return AssetId{}, fmt.Errorf("%w: %w", ErrInvalidUnit, err)
	}
	return New(raw[:PolicyIdLen], raw[PolicyIdLen:])
}

// Unit returns the on-chain unit string
func (a AssetId) Unit() string {
	return a.PolicyHex() + a.NameHex()
}

func (a AssetId) PolicyHex() string {
	return a.Policy.String()
}

func (a AssetId) NameHex() string {
	return hex.EncodeToString(a.Name)
}

// Fingerprint returns the marketplace display fingerprint for the asset
func (a AssetId) Fingerprint() Fingerprint {
	return Compute(a.PolicyHex(), a.NameHex())
}

// CIP14 returns the standard bech32 asset fingerprint used by explorers
func (a AssetId) CIP14() string {
	return lcommon.NewAssetFingerprint(a.Policy.Bytes(), a.Name).String()
}

func (a AssetId) String() string {
	return a.Unit()
}

// IsNFTQuantity reports whether an observed quantity qualifies a unit as an
// NFT holding
func IsNFTQuantity(quantity uint64) bool {
	return quantity == 1
}
