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

package utxorpc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	submit "github.com/utxorpc/go-codegen/utxorpc/v1alpha/submit"
)

// Submit submits a signed transaction and returns its ID
func (c *Client) Submit(ctx context.Context, txCbor []byte) (string, error) {
	resp, err := c.submit.SubmitTx(
		ctx,
		connect.NewRequest(&submit.SubmitTxRequest{
			Tx: []*submit.AnyChainTx{
				{Type: &submit.AnyChainTx_Raw{Raw: txCbor}},
			},
		}),
	)
	if err != nil {
		if reason, ok := rejectionReason(err); ok {
			c.logger.Warn(
				"transaction rejected",
				"reason", reason,
			)
			return "", &RejectedError{
				Code:   connect.CodeOf(err),
				Reason: reason,
			}
		}
		return "", requestError("submit", err)
	}
	refs := resp.Msg.GetRef()
	if len(refs) != 1 || len(refs[0]) == 0 {
		return "", fmt.Errorf(
			"%w: submit: expected one transaction reference, got %d",
			ErrRequest,
			len(refs),
		)
	}
	txId := hex.EncodeToString(refs[0])
	c.logger.Info(
		"submitted transaction",
		"tx_id", txId,
	)
	return txId, nil
}

// rejectionReason separates a refused transaction from a failed call.
// Providers report mempool and ledger rule failures either as invalid
// arguments or as plain handler errors, which surface as unknown.
func rejectionReason(err error) (string, bool) {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return "", false
	}
	switch connectErr.Code() {
	case connect.CodeInvalidArgument,
		connect.CodeFailedPrecondition,
		connect.CodeUnknown:
		return connectErr.Message(), true
	default:
		return "", false
	}
}
