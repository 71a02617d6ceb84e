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
	"context"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// AssetBalance is one unit held by the wallet. TxId and OutputIndex locate
// the output holding it when the wallet knows them.
type AssetBalance struct {
	Unit        string
	Quantity    uint64
	TxId        string
	OutputIndex uint32
}

// HasOutputRef reports whether the holding output is known
func (b AssetBalance) HasOutputRef() bool {
	return b.TxId != ""
}

// Wallet is the connected wallet
type Wallet interface {
	UnspentOutputs(ctx context.Context) ([]AssetBalance, error)
	PaymentAddress(ctx context.Context) (string, error)
	// RewardAddress returns an empty string when the wallet has none
	RewardAddress(ctx context.Context) (string, error)
	SignTransaction(ctx context.Context, tx *UnsignedTx) ([]byte, error)
}

// ResolvedOutput is a ledger output found by reference. ReferenceScriptHash
// is nil when the ledger does not report it.
type ResolvedOutput struct {
	TxId                string
	OutputIndex         uint32
	Address             string
	ReferenceScriptHash *lcommon.Blake2b224
}

// LedgerQuerier resolves outputs by reference
type LedgerQuerier interface {
	ResolveOutputsByReference(
		ctx context.Context,
		txId string,
		outputIndex uint32,
	) ([]ResolvedOutput, error)
}

// Submitter submits signed transactions and returns the transaction ID
type Submitter interface {
	Submit(ctx context.Context, txCbor []byte) (string, error)
}

// Journal records the outcome of each listing attempt
type Journal interface {
	RecordAttempt(ctx context.Context, req Request, res *Result) error
}
