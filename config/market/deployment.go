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

package market

import (
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	ouroboros "github.com/blinklabs-io/gouroboros"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"gopkg.in/yaml.v3"
)

// DefaultDepositLovelace is the deposit locked with a spot listing when the
// deployment does not override it
const DefaultDepositLovelace uint64 = 5_000_000

var (
	ErrUnknownNetwork    = errors.New("unknown network")
	ErrNoDeployment      = errors.New("no marketplace deployment for network")
	ErrInvalidDeployment = errors.New("invalid marketplace deployment")
)

//go:embed deployments
var embeddedDeploymentsFS embed.FS

// OutputRef points at a transaction output
type OutputRef struct {
	TxId  lcommon.Blake2b256
	Index uint32
}

func (r OutputRef) String() string {
	return fmt.Sprintf("%s#%d", r.TxId.String(), r.Index)
}

// Deployment is the set of script hashes and reference outputs for one
// network. Values are fixed once loaded.
type Deployment struct {
	network                    string
	networkId                  uint8
	beaconPolicyId             lcommon.Blake2b224
	aftermarketScriptHash      lcommon.Blake2b224
	observerScriptHash         lcommon.Blake2b224
	beaconReferenceScript      OutputRef
	aftermarketReferenceScript OutputRef
	depositLovelace            uint64
}

type deploymentFile struct {
	Network                    string        `yaml:"network"`
	BeaconPolicyId             string        `yaml:"beaconPolicyId"`
	AftermarketScriptHash      string        `yaml:"aftermarketScriptHash"`
	ObserverScriptHash         string        `yaml:"observerScriptHash"`
	BeaconReferenceScript      outputRefFile `yaml:"beaconReferenceScript"`
	AftermarketReferenceScript outputRefFile `yaml:"aftermarketReferenceScript"`
	DepositLovelace            uint64        `yaml:"depositLovelace"`
}

type outputRefFile struct {
	TxId  string `yaml:"txId"`
	Index uint32 `yaml:"index"`
}

// NewDeploymentFromReader loads a deployment description in YAML format
func NewDeploymentFromReader(r io.Reader) (*Deployment, error) {
	var tmp deploymentFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tmp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDeployment, err)
	}
	return tmp.toDeployment()
}

// NewDeploymentFromFile loads a deployment description from disk
func NewDeploymentFromFile(file string) (*Deployment, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewDeploymentFromReader(f)
}

// ForNetwork returns the built-in deployment for the named network
func ForNetwork(network string) (*Deployment, error) {
	if _, ok := ouroboros.NetworkByName(network); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	f, err := embeddedDeploymentsFS.Open(
		path.Join("deployments", network+".yaml"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDeployment, network)
	}
	defer f.Close()
	return NewDeploymentFromReader(f)
}

// Networks lists the networks with a built-in deployment
func Networks() []string {
	entries, err := embeddedDeploymentsFS.ReadDir("deployments")
	if err != nil {
		return nil
	}
	ret := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if path.Ext(name) != ".yaml" {
			continue
		}
		ret = append(ret, name[:len(name)-len(".yaml")])
	}
	return ret
}

func (f deploymentFile) toDeployment() (*Deployment, error) {
	network, ok := ouroboros.NetworkByName(f.Network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, f.Network)
	}
	ret := &Deployment{
		network:         f.Network,
		networkId:       network.Id,
		depositLovelace: f.DepositLovelace,
	}
	if ret.depositLovelace == 0 {
		ret.depositLovelace = DefaultDepositLovelace
	}
	var err error
	if ret.beaconPolicyId, err = parseHash224("beaconPolicyId", f.BeaconPolicyId); err != nil {
		return nil, err
	}
	if ret.aftermarketScriptHash, err = parseHash224("aftermarketScriptHash", f.AftermarketScriptHash); err != nil {
		return nil, err
	}
	if ret.observerScriptHash, err = parseHash224("observerScriptHash", f.ObserverScriptHash); err != nil {
		return nil, err
	}
	if ret.beaconReferenceScript, err = f.BeaconReferenceScript.toOutputRef("beaconReferenceScript"); err != nil {
		return nil, err
	}
	if ret.aftermarketReferenceScript, err = f.AftermarketReferenceScript.toOutputRef("aftermarketReferenceScript"); err != nil {
		return nil, err
	}
	return ret, nil
}

func (o outputRefFile) toOutputRef(field string) (OutputRef, error) {
	raw, err := hex.DecodeString(o.TxId)
	if err != nil || len(raw) != lcommon.Blake2b256Size {
		return OutputRef{}, fmt.Errorf(
			"%w: %s: bad transaction ID %q",
			ErrInvalidDeployment,
			field,
			o.TxId,
		)
	}
	return OutputRef{
		TxId:  lcommon.NewBlake2b256(raw),
		Index: o.Index,
	}, nil
}

func parseHash224(field string, val string) (lcommon.Blake2b224, error) {
	raw, err := hex.DecodeString(val)
	if err != nil || len(raw) != lcommon.Blake2b224Size {
		return lcommon.Blake2b224{}, fmt.Errorf(
			"%w: %s: bad hash %q",
			ErrInvalidDeployment,
			field,
			val,
		)
	}
	return lcommon.NewBlake2b224(raw), nil
}

func (d *Deployment) Network() string {
	return d.network
}

func (d *Deployment) NetworkId() uint8 {
	return d.networkId
}

// BeaconPolicyId is also the beacon script hash
func (d *Deployment) BeaconPolicyId() lcommon.Blake2b224 {
	return d.beaconPolicyId
}

func (d *Deployment) AftermarketScriptHash() lcommon.Blake2b224 {
	return d.aftermarketScriptHash
}

func (d *Deployment) ObserverScriptHash() lcommon.Blake2b224 {
	return d.observerScriptHash
}

func (d *Deployment) BeaconReferenceScript() OutputRef {
	return d.beaconReferenceScript
}

func (d *Deployment) AftermarketReferenceScript() OutputRef {
	return d.aftermarketReferenceScript
}

func (d *Deployment) DepositLovelace() uint64 {
	return d.depositLovelace
}
