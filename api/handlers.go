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

package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/aftermarket/asset"
	"github.com/blinklabs-io/aftermarket/beacon"
	"github.com/blinklabs-io/aftermarket/database"
	"github.com/blinklabs-io/aftermarket/datum"
	"github.com/blinklabs-io/aftermarket/listing"
)

const maxRequestBody = 1 << 20

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForCondition maps a listing failure to an HTTP status
func statusForCondition(condition listing.Condition) int {
	switch condition {
	case listing.ConditionInvalidInput,
		listing.ConditionMissingPaymentCredential,
		listing.ConditionMissingStakeCredential:
		return http.StatusBadRequest
	case listing.ConditionAssetNotFound:
		return http.StatusNotFound
	case listing.ConditionAmbiguousAsset:
		return http.StatusConflict
	case listing.ConditionRejected:
		return http.StatusUnprocessableEntity
	case listing.ConditionReferenceScriptMissing,
		listing.ConditionCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleCreateListing handles POST /api/v0/listings
func (s *Server) handleCreateListing(
	w http.ResponseWriter,
	r *http.Request,
) {
	var body CreateListingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	price, err := listing.ParseAda(body.PriceAda)
	if err != nil {
		writeError(w, http.StatusBadRequest, "price: "+err.Error())
		return
	}
	req := listing.Request{
		Fingerprints:         body.Fingerprints,
		SellerPaymentAddress: body.SellerAddress,
		Price:                []datum.PriceTerm{{AmountLovelace: price}},
	}
	if body.DepositAda != "" {
		deposit, err := listing.ParseAda(body.DepositAda)
		if err != nil {
			writeError(w, http.StatusBadRequest, "deposit: "+err.Error())
			return
		}
		req.DepositLovelace = deposit
	}
	res, err := s.config.Listings.ListForSale(r.Context(), req)
	if err != nil {
		var lErr *listing.Error
		if !errors.As(err, &lErr) {
			s.logger.Error("listing failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status := statusForCondition(lErr.Condition)
		writeJSON(w, status, ErrorResponse{
			StatusCode: status,
			Error:      http.StatusText(status),
			Message:    lErr.Error(),
			Condition:  lErr.Condition.String(),
			State:      lErr.State.String(),
		})
		return
	}
	resp := ListingResponse{
		State:           res.State.String(),
		TxId:            res.TxId,
		ContractAddress: res.ContractAddress,
		Assets:          res.Assets,
		DepositLovelace: strconv.FormatUint(res.DepositLovelace, 10),
		PriceLovelace:   strconv.FormatUint(res.PriceLovelace, 10),
		Message:         res.Message(),
	}
	status := http.StatusCreated
	if res.State == listing.StateTxBuilt {
		status = http.StatusOK
		if res.UnsignedTx != nil {
			resp.UnsignedTx = hex.EncodeToString(res.UnsignedTx.Cbor())
		}
	}
	writeJSON(w, status, resp)
}

// handleListingHistory handles GET /api/v0/listings
func (s *Server) handleListingHistory(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	attempts, total, err := s.config.History.ListAttempts(
		r.Context(),
		database.ListOptions{
			Count:      params.Count,
			Page:       params.Page,
			Descending: params.Order == PaginationOrderDesc,
		},
	)
	if err != nil {
		s.logger.Error("failed to list listing attempts", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve listing history",
		)
		return
	}
	resp := make([]ListingAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		resp = append(resp, ListingAttemptResponse{
			Id:              attempt.ID,
			Time:            attempt.CreatedAt.Unix(),
			Fingerprints:    attempt.FingerprintList(),
			Assets:          attempt.AssetList(),
			SellerAddress:   attempt.SellerAddress,
			ContractAddress: attempt.ContractAddress,
			State:           attempt.State,
			FailedState:     attempt.FailedState,
			Condition:       attempt.Condition,
			TxId:            attempt.TxId,
			Error:           attempt.Error,
			DepositLovelace: strconv.FormatUint(uint64(attempt.DepositLovelace), 10),
			PriceLovelace:   strconv.FormatUint(uint64(attempt.PriceLovelace), 10),
		})
	}
	SetPaginationHeaders(w, int(total), params)
	writeJSON(w, http.StatusOK, resp)
}

// handleFingerprint handles GET /api/v0/fingerprint/{policy}/{name}. The
// name segment may be omitted for an empty asset name.
func (s *Server) handleFingerprint(
	w http.ResponseWriter,
	r *http.Request,
) {
	policyHex := r.PathValue("policy")
	nameHex := r.PathValue("name")
	fp := asset.Compute(policyHex, nameHex)
	if !fp.Ok() {
		writeError(w, http.StatusBadRequest, fp.Reason().Error())
		return
	}
	resp := FingerprintResponse{
		PolicyId:    policyHex,
		AssetName:   nameHex,
		Fingerprint: fp.String(),
	}
	if id, err := asset.ParseUnit(policyHex + nameHex); err == nil {
		resp.CIP14 = id.CIP14()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBeacons handles GET /api/v0/beacons/{policy}
func (s *Server) handleBeacons(
	w http.ResponseWriter,
	r *http.Request,
) {
	policy, err := asset.ParsePolicyId(r.PathValue("policy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pair := beacon.ForListing(s.config.Deployment.BeaconPolicyId(), policy)
	writeJSON(w, http.StatusOK, BeaconsResponse{
		PolicyId:         policy.String(),
		BeaconPolicyId:   s.config.Deployment.BeaconPolicyId().String(),
		PolicyBeaconName: hex.EncodeToString(pair.PolicyBeacon.Name),
		PolicyBeacon:     pair.PolicyBeacon.String(),
		SpotBeaconName:   hex.EncodeToString(pair.SpotBeacon.Name),
		SpotBeacon:       pair.SpotBeacon.String(),
	})
}
