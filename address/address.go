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

// Package address converts Cardano addresses between their bech32 form and
// the structured credential form that Plutus validators receive.
package address

import (
	"errors"
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/plutigo/data"
)

// Address header types, see CIP-19
const (
	headerTypeBaseKeyKey       = 0x0
	headerTypeBaseScriptKey    = 0x1
	headerTypeBaseKeyScript    = 0x2
	headerTypeBaseScriptScript = 0x3
	headerTypePointerKey       = 0x4
	headerTypePointerScript    = 0x5
	headerTypeEnterpriseKey    = 0x6
	headerTypeEnterpriseScript = 0x7
	headerTypeByron            = 0x8
	headerTypeRewardKey        = 0xe
	headerTypeRewardScript     = 0xf

	credentialLen = 28
)

var (
	ErrMissingPaymentCredential = errors.New("address has no payment credential")
	ErrUnsupportedAddress       = errors.New("unsupported address type")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrNetworkMismatch          = errors.New("address network mismatch")
)

type CredentialType uint8

const (
	CredentialTypeKey    CredentialType = 0
	CredentialTypeScript CredentialType = 1
)

func (t CredentialType) String() string {
	switch t {
	case CredentialTypeKey:
		return "key"
	case CredentialTypeScript:
		return "script"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Credential is a key hash or script hash controlling spending or staking
type Credential struct {
	Type CredentialType
	Hash lcommon.Blake2b224
}

func KeyCredential(hash lcommon.Blake2b224) Credential {
	return Credential{Type: CredentialTypeKey, Hash: hash}
}

func ScriptCredential(hash lcommon.Blake2b224) Credential {
	return Credential{Type: CredentialTypeScript, Hash: hash}
}

// ToPlutusData encodes the credential as PubKeyCredential (constructor 0)
// or ScriptCredential (constructor 1)
func (c Credential) ToPlutusData() data.PlutusData {
	return data.NewConstr(
		uint(c.Type),
		data.NewByteString(c.Hash.Bytes()),
	)
}

func (c Credential) String() string {
	return c.Type.String() + ":" + c.Hash.String()
}

// StakePart is an optional stake credential
type StakePart struct {
	cred *Credential
}

func NoStake() StakePart {
	return StakePart{}
}

func SomeStake(cred Credential) StakePart {
	return StakePart{cred: &cred}
}

// Credential returns the stake credential, if present
func (s StakePart) Credential() (Credential, bool) {
	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

func (s StakePart) IsNone() bool {
	return s.cred == nil
}

// Equal compares by value
func (s StakePart) Equal(other StakePart) bool {
	if s.cred == nil || other.cred == nil {
		return s.cred == nil && other.cred == nil
	}
	return *s.cred == *other.cred
}

// ToPlutusData encodes Maybe StakingCredential: Just (StakingHash cred) is
// constructor 0 wrapping constructor 0, Nothing is constructor 1
func (s StakePart) ToPlutusData() data.PlutusData {
	if s.cred == nil {
		return data.NewConstr(1)
	}
	return data.NewConstr(
		0,
		data.NewConstr(0, s.cred.ToPlutusData()),
	)
}

// ChainAddress is the structured form of a Shelley address
type ChainAddress struct {
	NetworkId uint8
	Payment   Credential
	Stake     StakePart
}

// Equal compares by value
func (a ChainAddress) Equal(other ChainAddress) bool {
	return a.NetworkId == other.NetworkId &&
		a.Payment == other.Payment &&
		a.Stake.Equal(other.Stake)
}

// ToPlutusData encodes the address as the validator-facing Address type
func (a ChainAddress) ToPlutusData() data.PlutusData {
	return data.NewConstr(
		0,
		a.Payment.ToPlutusData(),
		a.Stake.ToPlutusData(),
	)
}

// Bytes returns the raw ledger encoding of the address
func (a ChainAddress) Bytes() ([]byte, error) {
	addr, err := a.ledgerAddress()
	if err != nil {
		return nil, err
	}
	return addr.Bytes()
}

// Bech32 returns the human-readable form of the address
func (a ChainAddress) Bech32() (string, error) {
	addr, err := a.ledgerAddress()
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

func (a ChainAddress) ledgerAddress() (lcommon.Address, error) {
	var addrType uint8
	var stakeBytes []byte
	stake, hasStake := a.Stake.Credential()
	switch {
	case !hasStake && a.Payment.Type == CredentialTypeKey:
		addrType = lcommon.AddressTypeKeyNone
	case !hasStake && a.Payment.Type == CredentialTypeScript:
		addrType = lcommon.AddressTypeScriptNone
	case a.Payment.Type == CredentialTypeKey &&
		stake.Type == CredentialTypeKey:
		addrType = lcommon.AddressTypeKeyKey
	case a.Payment.Type == CredentialTypeScript &&
		stake.Type == CredentialTypeKey:
		addrType = lcommon.AddressTypeScriptKey
	case a.Payment.Type == CredentialTypeKey &&
		stake.Type == CredentialTypeScript:
		addrType = lcommon.AddressTypeKeyScript
	default:
		addrType = lcommon.AddressTypeScriptScript
	}
	if hasStake {
		stakeBytes = stake.Hash.Bytes()
	}
	addr, err := lcommon.NewAddressFromParts(
		addrType,
		a.NetworkId,
		a.Payment.Hash.Bytes(),
		stakeBytes,
	)
	if err != nil {
		return lcommon.Address{}, fmt.Errorf("build address: %w", err)
	}
	return addr, nil
}

// parsed holds the credentials found in an address of any type
type parsed struct {
	networkId uint8
	payment   *Credential
	stake     *Credential
}

func parse(addrStr string) (parsed, error) {
	var ret parsed
	addr, err := lcommon.NewAddress(addrStr)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	raw, err := addr.Bytes()
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(raw) == 0 {
		return ret, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	header := raw[0]
	addrType := header >> 4
	ret.networkId = header & 0x0f
	switch addrType {
	case headerTypeBaseKeyKey,
		headerTypeBaseScriptKey,
		headerTypeBaseKeyScript,
		headerTypeBaseScriptScript:
		if len(raw) != 1+2*credentialLen {
			return ret, fmt.Errorf(
				"%w: base address has %d bytes",
				ErrInvalidAddress,
				len(raw),
			)
		}
		ret.payment = credentialFrom(addrType&0x1 != 0, raw[1:1+credentialLen])
		ret.stake = credentialFrom(addrType&0x2 != 0, raw[1+credentialLen:])
	case headerTypeEnterpriseKey, headerTypeEnterpriseScript:
		if len(raw) != 1+credentialLen {
			return ret, fmt.Errorf(
				"%w: enterprise address has %d bytes",
				ErrInvalidAddress,
				len(raw),
			)
		}
		ret.payment = credentialFrom(
			addrType == headerTypeEnterpriseScript,
			raw[1:],
		)
	case headerTypeRewardKey, headerTypeRewardScript:
		if len(raw) != 1+credentialLen {
			return ret, fmt.Errorf(
				"%w: reward address has %d bytes",
				ErrInvalidAddress,
				len(raw),
			)
		}
		ret.stake = credentialFrom(addrType == headerTypeRewardScript, raw[1:])
	case headerTypeByron:
		// Bootstrap addresses carry neither credential
	case headerTypePointerKey, headerTypePointerScript:
		return ret, fmt.Errorf(
			"%w: pointer addresses are not supported",
			ErrUnsupportedAddress,
		)
	default:
		return ret, fmt.Errorf(
			"%w: header type %d",
			ErrUnsupportedAddress,
			addrType,
		)
	}
	return ret, nil
}

func credentialFrom(isScript bool, hash []byte) *Credential {
	cred := KeyCredential(lcommon.NewBlake2b224(hash))
	if isScript {
		cred.Type = CredentialTypeScript
	}
	return &cred
}

// Decode converts a bech32 address into its structured form. Addresses
// without a payment credential are rejected; a missing stake credential is
// represented as NoStake.
func Decode(addrStr string) (ChainAddress, error) {
	p, err := parse(addrStr)
	if err != nil {
		return ChainAddress{}, err
	}
	if p.payment == nil {
		return ChainAddress{}, fmt.Errorf(
			"%w: %s",
			ErrMissingPaymentCredential,
			addrStr,
		)
	}
	ret := ChainAddress{
		NetworkId: p.networkId,
		Payment:   *p.payment,
	}
	if p.stake != nil {
		ret.Stake = SomeStake(*p.stake)
	}
	return ret, nil
}

// StakeCredential extracts the stake credential from any address type that
// carries one, including reward addresses
func StakeCredential(addrStr string) (Credential, uint8, bool, error) {
	p, err := parse(addrStr)
	if err != nil {
		return Credential{}, 0, false, err
	}
	if p.stake == nil {
		return Credential{}, p.networkId, false, nil
	}
	return *p.stake, p.networkId, true, nil
}

// DeriveContractAddress combines a shared script payment credential with
// the stake credential of delegationAddr. The boolean result is false when
// delegationAddr has no stake credential.
func DeriveContractAddress(
	scriptHash lcommon.Blake2b224,
	networkId uint8,
	delegationAddr string,
) (ChainAddress, bool, error) {
	stake, addrNetworkId, ok, err := StakeCredential(delegationAddr)
	if err != nil {
		return ChainAddress{}, false, err
	}
	if !ok {
		return ChainAddress{}, false, nil
	}
	if addrNetworkId != networkId {
		return ChainAddress{}, false, fmt.Errorf(
			"%w: delegation address is on network %d, expected %d",
			ErrNetworkMismatch,
			addrNetworkId,
			networkId,
		)
	}
	return ChainAddress{
		NetworkId: networkId,
		Payment:   ScriptCredential(scriptHash),
		Stake:     SomeStake(stake),
	}, true, nil
}
