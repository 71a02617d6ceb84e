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

// Package wallet is a single-key wallet backed by a cardano-cli payment
// signing key. It reads its UTxOs from Blockfrost and signs transactions
// with a vkey witness.
package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/aftermarket/address"
	"github.com/blinklabs-io/aftermarket/blockfrost"
	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

const witnessKeyVkeys uint = 0

var ErrNoSigningKey = errors.New("no signing key configured")

// UtxoSource lists the unspent outputs at an address
type UtxoSource interface {
	AddressUtxos(
		ctx context.Context,
		address string,
	) ([]blockfrost.AddressUtxo, error)
}

// Wallet implements listing.Wallet for one payment key
type Wallet struct {
	logger         *slog.Logger
	signingKey     ed25519.PrivateKey
	keyFile        string
	networkId      uint8
	rewardAddress  string
	paymentAddress string
	utxos          UtxoSource
}

type WalletOptionFunc func(*Wallet)

// New creates a wallet. A signing key (or key file), network and UTxO
// source are required.
func New(opts ...WalletOptionFunc) (*Wallet, error) {
	w := &Wallet{}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	w.logger = w.logger.With("component", "wallet")
	if w.signingKey == nil && w.keyFile != "" {
		key, err := LoadSigningKeyFile(w.keyFile)
		if err != nil {
			return nil, err
		}
		w.signingKey = key
	}
	if w.signingKey == nil {
		return nil, ErrNoSigningKey
	}
	if w.utxos == nil {
		return nil, errors.New("a UTxO source is required")
	}
	paymentAddr := address.ChainAddress{
		NetworkId: w.networkId,
		Payment:   address.KeyCredential(w.PaymentKeyHash()),
	}
	if w.rewardAddress != "" {
		stake, networkId, ok, err := address.StakeCredential(w.rewardAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid reward address: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf(
				"reward address %s has no stake credential",
				w.rewardAddress,
			)
		}
		if networkId != w.networkId {
			return nil, fmt.Errorf(
				"%w: reward address is on network %d, expected %d",
				address.ErrNetworkMismatch,
				networkId,
				w.networkId,
			)
		}
		paymentAddr.Stake = address.SomeStake(stake)
	}
	addrStr, err := paymentAddr.Bech32()
	if err != nil {
		return nil, fmt.Errorf("derive payment address: %w", err)
	}
	w.paymentAddress = addrStr
	w.logger.Debug(
		"wallet loaded",
		"payment_address", w.paymentAddress,
		"has_reward_address", w.rewardAddress != "",
	)
	return w, nil
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) WalletOptionFunc {
	return func(w *Wallet) {
		w.logger = logger
	}
}

// WithSigningKey specifies the payment signing key
func WithSigningKey(key ed25519.PrivateKey) WalletOptionFunc {
	return func(w *Wallet) {
		w.signingKey = key
	}
}

// WithSigningKeyFile loads the payment signing key from a cardano-cli key
// file
func WithSigningKeyFile(path string) WalletOptionFunc {
	return func(w *Wallet) {
		w.keyFile = path
	}
}

func WithNetworkId(networkId uint8) WalletOptionFunc {
	return func(w *Wallet) {
		w.networkId = networkId
	}
}

// WithRewardAddress sets the stake address used for the base payment
// address and for listing delegation
func WithRewardAddress(rewardAddress string) WalletOptionFunc {
	return func(w *Wallet) {
		w.rewardAddress = rewardAddress
	}
}

func WithUtxoSource(utxos UtxoSource) WalletOptionFunc {
	return func(w *Wallet) {
		w.utxos = utxos
	}
}

// PaymentKeyHash returns the hash of the payment verification key
func (w *Wallet) PaymentKeyHash() lcommon.Blake2b224 {
	return lcommon.Blake2b224Hash(w.verificationKey())
}

func (w *Wallet) verificationKey() []byte {
	return w.signingKey.Public().(ed25519.PublicKey)
}

func (w *Wallet) PaymentAddress(_ context.Context) (string, error) {
	return w.paymentAddress, nil
}

func (w *Wallet) RewardAddress(_ context.Context) (string, error) {
	return w.rewardAddress, nil
}

// UnspentOutputs returns every asset held at the payment address along with
// the output holding it
func (w *Wallet) UnspentOutputs(
	ctx context.Context,
) ([]listing.AssetBalance, error) {
	utxos, err := w.utxos.AddressUtxos(ctx, w.paymentAddress)
	if err != nil {
		return nil, fmt.Errorf("list wallet UTxOs: %w", err)
	}
	var ret []listing.AssetBalance
	for _, utxo := range utxos {
		for _, amount := range utxo.Amount {
			qty, err := blockfrost.ParseQuantity(amount.Quantity)
			if err != nil {
				return nil, fmt.Errorf(
					"UTxO %s#%d: %w",
					utxo.TxHash,
					utxo.OutputIndex,
					err,
				)
			}
			ret = append(ret, listing.AssetBalance{
				Unit:        amount.Unit,
				Quantity:    qty,
				TxId:        utxo.TxHash,
				OutputIndex: utxo.OutputIndex,
			})
		}
	}
	w.logger.Debug(
		"loaded wallet UTxOs",
		"utxos", len(utxos),
		"balances", len(ret),
	)
	return ret, nil
}

// SignTransaction adds a vkey witness over the transaction body hash
func (w *Wallet) SignTransaction(
	_ context.Context,
	tx *listing.UnsignedTx,
) ([]byte, error) {
	if tx == nil {
		return nil, errors.New("nil transaction")
	}
	return w.signTxCbor(tx.Cbor(), tx.Hash())
}

func (w *Wallet) signTxCbor(
	txCbor []byte,
	bodyHash lcommon.Blake2b256,
) ([]byte, error) {
	var txParts []cbor.RawMessage
	if _, err := cbor.Decode(txCbor, &txParts); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(txParts) != 4 {
		return nil, fmt.Errorf(
			"transaction has %d elements, expected 4",
			len(txParts),
		)
	}
	witnessSet := make(map[uint]cbor.RawMessage)
	if _, err := cbor.Decode(txParts[1], &witnessSet); err != nil {
		return nil, fmt.Errorf("decode witness set: %w", err)
	}
	var witnesses []lcommon.VkeyWitness
	if existing, ok := witnessSet[witnessKeyVkeys]; ok {
		if _, err := cbor.Decode(existing, &witnesses); err != nil {
			return nil, fmt.Errorf("decode vkey witnesses: %w", err)
		}
	}
	vkey := w.verificationKey()
	witnesses = append(
		witnesses,
		lcommon.VkeyWitness{
			Vkey:      vkey,
			Signature: ed25519.Sign(w.signingKey, bodyHash.Bytes()),
		},
	)
	witnessCbor, err := cbor.Encode(witnesses)
	if err != nil {
		return nil, fmt.Errorf("encode vkey witnesses: %w", err)
	}
	witnessSet[witnessKeyVkeys] = witnessCbor
	witnessSetCbor, err := cbor.Encode(witnessSet)
	if err != nil {
		return nil, fmt.Errorf("encode witness set: %w", err)
	}
	txParts[1] = witnessSetCbor
	ret, err := cbor.Encode(txParts)
	if err != nil {
		return nil, fmt.Errorf("encode signed transaction: %w", err)
	}
	w.logger.Debug("signed transaction", "tx_id", bodyHash.String())
	return ret, nil
}
