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

package beacon

import (
	"bytes"
	"encoding/hex"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func mustPolicy(t *testing.T, policyHex string) lcommon.Blake2b224 {
	t.Helper()
	raw, err := hex.DecodeString(policyHex)
	require.NoError(t, err)
	return lcommon.NewBlake2b224(raw)
}

func TestPolicyBeaconNameKnownVectors(t *testing.T) {
	testDefs := []struct {
		policy   string
		expected string
	}{
		{
			policy:   "00000000000000000000000000000000000000000000000000000000",
			expected: "11e431c215c5bd334cecbd43148274edf3ffdbd6cd6479fe279577fbe5f52ce6",
		},
		{
			policy:   "bdceb595b8754726b3efe3ab0f81c76cbda1a0a0d3653bb8fad89bb2",
			expected: "a3949df934b6035541b1a6e60de3deb3d9cb6cc756e86272d7faf4d7686b4f98",
		},
		{
			policy:   "c0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0",
			expected: "246a344cb0e25a9cb165a3e4ca17693c2edc0a4235d3fcd2427a696d5469ab30",
		},
	}
	for _, testDef := range testDefs {
		policy := mustPolicy(t, testDef.policy)
		assert.Equal(t, testDef.expected, PolicyBeaconNameHex(policy))
		assert.Len(t, PolicyBeaconName(policy), 32)
	}
}

func TestPolicyBeaconNameNotBlake2b(t *testing.T) {
	policy := mustPolicy(t, "bdceb595b8754726b3efe3ab0f81c76cbda1a0a0d3653bb8fad89bb2")
	input := append([]byte{PolicyBeaconPrefix}, policy.Bytes()...)
	other := blake2b.Sum256(input)
	assert.NotEqual(t, other[:], PolicyBeaconName(policy))
}

func TestForListing(t *testing.T) {
	beaconPolicy := lcommon.NewBlake2b224(bytes.Repeat([]byte{0xbd}, 28))
	nftPolicy := lcommon.NewBlake2b224(make([]byte, 28))
	pair := ForListing(beaconPolicy, nftPolicy)
	assert.Equal(t, beaconPolicy, pair.PolicyBeacon.Policy)
	assert.Equal(t, beaconPolicy, pair.SpotBeacon.Policy)
	assert.Equal(
		t,
		beaconPolicy.String()+"53706f74",
		pair.SpotBeacon.String(),
	)
	assert.Equal(
		t,
		beaconPolicy.String()+
			"11e431c215c5bd334cecbd43148274edf3ffdbd6cd6479fe279577fbe5f52ce6",
		pair.PolicyBeacon.String(),
	)
	assert.Len(t, pair.Units(), 2)
}
