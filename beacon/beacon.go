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

// Package beacon derives the marker token names minted alongside every
// marketplace listing so they can be found by content.
package beacon

import (
	"crypto/sha256"
	"encoding/hex"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

const (
	// PolicyBeaconPrefix is prepended to the policy ID before hashing
	PolicyBeaconPrefix byte = 0x00
	// SpotBeaconName identifies spot listings regardless of policy
	SpotBeaconName = "Spot"
)

// PolicyBeaconName returns the policy beacon asset name for an NFT policy:
// sha256(0x00 ++ policyId)
func PolicyBeaconName(policy lcommon.Blake2b224) []byte {
	buf := make([]byte, 0, 1+len(policy))
	buf = append(buf, PolicyBeaconPrefix)
	buf = append(buf, policy.Bytes()...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

// PolicyBeaconNameHex is PolicyBeaconName as hex
func PolicyBeaconNameHex(policy lcommon.Blake2b224) string {
	return hex.EncodeToString(PolicyBeaconName(policy))
}

// SpotBeaconNameBytes returns the spot beacon asset name
func SpotBeaconNameBytes() []byte {
	return []byte(SpotBeaconName)
}

// Unit is a beacon token: the beacon minting policy and an asset name
type Unit struct {
	Policy lcommon.Blake2b224
	Name   []byte
}

func (u Unit) String() string {
	return u.Policy.String() + hex.EncodeToString(u.Name)
}

// Pair holds the two beacons minted for a spot listing
type Pair struct {
	PolicyBeacon Unit
	SpotBeacon   Unit
}

// ForListing returns the beacons for a spot listing of NFTs under nftPolicy
func ForListing(beaconPolicy lcommon.Blake2b224, nftPolicy lcommon.Blake2b224) Pair {
	return Pair{
		PolicyBeacon: Unit{
			Policy: beaconPolicy,
			Name:   PolicyBeaconName(nftPolicy),
		},
		SpotBeacon: Unit{
			Policy: beaconPolicy,
			Name:   SpotBeaconNameBytes(),
		},
	}
}

// Units returns the beacons in mint order
func (p Pair) Units() []Unit {
	return []Unit{p.PolicyBeacon, p.SpotBeacon}
}
