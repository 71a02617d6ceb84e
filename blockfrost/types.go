// Copyright 2025 Blink Labs Software
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

package blockfrost

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// Amount is a single unit and quantity in a Blockfrost output.
type Amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// TxUtxosResponse is returned by GET /txs/{hash}/utxos.
type TxUtxosResponse struct {
	Hash    string         `json:"hash"`
	Inputs  []TxUtxoInput  `json:"inputs"`
	Outputs []TxUtxoOutput `json:"outputs"`
}

// TxUtxoInput is an input of a transaction.
type TxUtxoInput struct {
	Address     string   `json:"address"`
	Amount      []Amount `json:"amount"`
	TxHash      string   `json:"tx_hash"`
	OutputIndex uint32   `json:"output_index"`
	Collateral  bool     `json:"collateral"`
	Reference   bool     `json:"reference"`
}

// TxUtxoOutput is an output of a transaction. ConsumedByTx is set once the
// output has been spent.
type TxUtxoOutput struct {
	Address             string   `json:"address"`
	Amount              []Amount `json:"amount"`
	OutputIndex         uint32   `json:"output_index"`
	DataHash            *string  `json:"data_hash"`
	InlineDatum         *string  `json:"inline_datum"`
	Collateral          bool     `json:"collateral"`
	ReferenceScriptHash *string  `json:"reference_script_hash"`
	ConsumedByTx        *string  `json:"consumed_by_tx"`
}

// AddressUtxo is returned by GET /addresses/{address}/utxos.
type AddressUtxo struct {
	Address             string   `json:"address"`
	TxHash              string   `json:"tx_hash"`
	OutputIndex         uint32   `json:"output_index"`
	Amount              []Amount `json:"amount"`
	Block               string   `json:"block"`
	DataHash            *string  `json:"data_hash"`
	InlineDatum         *string  `json:"inline_datum"`
	ReferenceScriptHash *string  `json:"reference_script_hash"`
}

// ErrorResponse represents a Blockfrost error response.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
