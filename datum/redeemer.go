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

package datum

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/plutigo/data"
)

// ActionCreateCloseOrUpdate is the beacon policy action used when creating,
// closing or updating market outputs
const ActionCreateCloseOrUpdate int64 = 8166

// Redeemer selects the action a script invocation authorizes
type Redeemer struct {
	Action int64
}

// NewBeaconRedeemer returns the redeemer for minting listing beacons
func NewBeaconRedeemer() Redeemer {
	return Redeemer{Action: ActionCreateCloseOrUpdate}
}

func (r Redeemer) ToPlutusData() data.PlutusData {
	return data.NewConstr(0, data.NewInteger(big.NewInt(r.Action)))
}

func (r Redeemer) Cbor() ([]byte, error) {
	ret, err := data.Encode(r.ToPlutusData())
	if err != nil {
		return nil, fmt.Errorf("encode redeemer: %w", err)
	}
	return ret, nil
}
