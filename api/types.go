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

package api

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is returned for every failed request. Condition and State
// are set for failed listing attempts.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Condition  string `json:"condition,omitempty"`
	State      string `json:"state,omitempty"`
}

// CreateListingRequest is the body of POST /api/v0/listings. Amounts are in
// ADA as decimal strings.
type CreateListingRequest struct {
	Fingerprints  []string `json:"fingerprints"`
	SellerAddress string   `json:"seller_address,omitempty"`
	PriceAda      string   `json:"price_ada"`
	DepositAda    string   `json:"deposit_ada,omitempty"`
}

// ListingResponse describes a submitted or built listing. UnsignedTx is the
// hex transaction CBOR for dry runs.
type ListingResponse struct {
	State           string   `json:"state"`
	TxId            string   `json:"tx_id"`
	ContractAddress string   `json:"contract_address"`
	Assets          []string `json:"assets"`
	DepositLovelace string   `json:"deposit_lovelace"`
	PriceLovelace   string   `json:"price_lovelace"`
	Message         string   `json:"message"`
	UnsignedTx      string   `json:"unsigned_tx,omitempty"`
}

// ListingAttemptResponse is one journal entry
type ListingAttemptResponse struct {
	Id              uint     `json:"id"`
	Time            int64    `json:"time"`
	Fingerprints    []string `json:"fingerprints"`
	Assets          []string `json:"assets"`
	SellerAddress   string   `json:"seller_address,omitempty"`
	ContractAddress string   `json:"contract_address,omitempty"`
	State           string   `json:"state"`
	FailedState     string   `json:"failed_state,omitempty"`
	Condition       string   `json:"condition,omitempty"`
	TxId            string   `json:"tx_id,omitempty"`
	Error           string   `json:"error,omitempty"`
	DepositLovelace string   `json:"deposit_lovelace"`
	PriceLovelace   string   `json:"price_lovelace"`
}

// FingerprintResponse is returned by GET /api/v0/fingerprint/{policy}/{name}
type FingerprintResponse struct {
	PolicyId    string `json:"policy_id"`
	AssetName   string `json:"asset_name"`
	Fingerprint string `json:"fingerprint"`
	CIP14       string `json:"cip14_fingerprint,omitempty"`
}

// BeaconsResponse is returned by GET /api/v0/beacons/{policy}
type BeaconsResponse struct {
	PolicyId         string `json:"policy_id"`
	BeaconPolicyId   string `json:"beacon_policy_id"`
	PolicyBeaconName string `json:"policy_beacon_name"`
	PolicyBeacon     string `json:"policy_beacon"`
	SpotBeaconName   string `json:"spot_beacon_name"`
	SpotBeacon       string `json:"spot_beacon"`
}
