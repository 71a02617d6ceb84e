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

package blockfrost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/blinklabs-io/aftermarket/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTxId       = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testScriptHash = "e07ee8979776692ce3477b0c0d53b4c650ef4ccf5ea4e4c4f4b1847c"
	testProjectId  = "preprodTestProject"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(
		Config{
			BaseURL:   server.URL + "/",
			ProjectId: testProjectId,
			RetryMax:  0,
		},
		nil,
	)
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestHealthSendsProjectId(t *testing.T) {
	var gotProjectId string
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotProjectId = r.Header.Get("project_id")
			assert.Equal(t, "/health", r.URL.Path)
			writeTestJSON(t, w, http.StatusOK, HealthResponse{IsHealthy: true})
		},
	))
	healthy, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)
	assert.Equal(t, testProjectId, gotProjectId)
}

func TestResolveOutputsByReference(t *testing.T) {
	scriptHash := testScriptHash
	consumed := "bbbb"
	utxos := TxUtxosResponse{
		Hash: testTxId,
		Outputs: []TxUtxoOutput{
			{
				Address:             "addr_test1wrsref",
				OutputIndex:         0,
				ReferenceScriptHash: &scriptHash,
			},
			{
				Address:      "addr_test1spent",
				OutputIndex:  1,
				ConsumedByTx: &consumed,
			},
			{
				Address:     "addr_test1plain",
				OutputIndex: 2,
			},
		},
	}
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/txs/"+testTxId+"/utxos", r.URL.Path)
			writeTestJSON(t, w, http.StatusOK, utxos)
		},
	))
	ctx := context.Background()

	ret, err := client.ResolveOutputsByReference(ctx, testTxId, 0)
	require.NoError(t, err)
	require.Len(t, ret, 1)
	assert.Equal(t, testTxId, ret[0].TxId)
	assert.Equal(t, "addr_test1wrsref", ret[0].Address)
	require.NotNil(t, ret[0].ReferenceScriptHash)
	assert.Equal(t, testScriptHash, ret[0].ReferenceScriptHash.String())

	ret, err = client.ResolveOutputsByReference(ctx, testTxId, 1)
	require.NoError(t, err)
	assert.Empty(t, ret, "spent outputs are not resolved")

	ret, err = client.ResolveOutputsByReference(ctx, testTxId, 2)
	require.NoError(t, err)
	require.Len(t, ret, 1)
	assert.Nil(t, ret[0].ReferenceScriptHash)

	ret, err = client.ResolveOutputsByReference(ctx, testTxId, 7)
	require.NoError(t, err)
	assert.Empty(t, ret)
}

func TestResolveOutputsByReferenceNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, ErrorResponse{
				StatusCode: http.StatusNotFound,
				Error:      "Not Found",
				Message:    "The requested component has not been found.",
			})
		},
	))
	ret, err := client.ResolveOutputsByReference(
		context.Background(),
		testTxId,
		0,
	)
	require.NoError(t, err)
	assert.Empty(t, ret)
}

func TestResolveOutputsByReferenceBadScriptHash(t *testing.T) {
	badHash := "zz"
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, TxUtxosResponse{
				Outputs: []TxUtxoOutput{
					{OutputIndex: 0, ReferenceScriptHash: &badHash},
				},
			})
		},
	))
	_, err := client.ResolveOutputsByReference(
		context.Background(),
		testTxId,
		0,
	)
	assert.ErrorIs(t, err, ErrRequest)
}

func TestResolveOutputsByReferenceServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusInternalServerError, ErrorResponse{
				StatusCode: http.StatusInternalServerError,
				Error:      "Internal Server Error",
				Message:    "backend unavailable",
			})
		},
	))
	_, err := client.ResolveOutputsByReference(
		context.Background(),
		testTxId,
		0,
	)
	require.ErrorIs(t, err, ErrRequest)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestAddressUtxosPaging(t *testing.T) {
	const total = DefaultPageSize + 3
	var pages []int
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			page, err := strconv.Atoi(r.URL.Query().Get("page"))
			require.NoError(t, err)
			assert.Equal(
				t,
				strconv.Itoa(DefaultPageSize),
				r.URL.Query().Get("count"),
			)
			pages = append(pages, page)
			start := (page - 1) * DefaultPageSize
			end := min(start+DefaultPageSize, total)
			ret := []AddressUtxo{}
			for i := start; i < end; i++ {
				ret = append(ret, AddressUtxo{
					Address:     "addr_test1seller",
					TxHash:      testTxId,
					OutputIndex: uint32(i),
					Amount: []Amount{
						{Unit: "lovelace", Quantity: "2000000"},
					},
				})
			}
			writeTestJSON(t, w, http.StatusOK, ret)
		},
	))
	ret, err := client.AddressUtxos(context.Background(), "addr_test1seller")
	require.NoError(t, err)
	assert.Len(t, ret, total)
	assert.Equal(t, []int{1, 2}, pages)
	assert.Equal(t, uint32(total-1), ret[total-1].OutputIndex)
}

func TestAddressUtxosUnknownAddress(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	))
	ret, err := client.AddressUtxos(context.Background(), "addr_test1new")
	require.NoError(t, err)
	assert.Empty(t, ret)
}

func TestSubmit(t *testing.T) {
	txCbor := []byte{0x84, 0xa0, 0xa0, 0xf5, 0xf6}
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/tx/submit", r.URL.Path)
			assert.Equal(t, "application/cbor", r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, txCbor, body)
			writeTestJSON(t, w, http.StatusOK, testTxId)
		},
	))
	txId, err := client.Submit(context.Background(), txCbor)
	require.NoError(t, err)
	assert.Equal(t, testTxId, txId)
}

func TestSubmitRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusBadRequest, ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Error:      "Bad Request",
				Message:    "ValueNotConservedUTxO",
			})
		},
	))
	_, err := client.Submit(context.Background(), []byte{0x80})
	require.ErrorIs(t, err, ErrRejected)
	var rejection listing.Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "ValueNotConservedUTxO", rejection.RejectionReason())
}

func TestSubmitServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		},
	))
	_, err := client.Submit(context.Background(), []byte{0x80})
	require.ErrorIs(t, err, ErrRequest)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestParseQuantity(t *testing.T) {
	qty, err := ParseQuantity("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), qty)
	_, err = ParseQuantity("-1")
	assert.Error(t, err)
}

func TestBaseURLForNetwork(t *testing.T) {
	assert.Equal(
		t,
		"https://cardano-preprod.blockfrost.io/api/v0",
		BaseURLForNetwork("preprod"),
	)
}
