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

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/aftermarket/database/models"
	"github.com/blinklabs-io/aftermarket/database/types"
	"github.com/blinklabs-io/aftermarket/listing"
	"gorm.io/gorm"
)

var ErrAttemptNotFound = errors.New("listing attempt not found")

// ListOptions selects a page of journal entries. Page is 1-based.
type ListOptions struct {
	Count      int
	Page       int
	Descending bool
}

// RecordAttempt stores the outcome of a listing attempt
func (d *Database) RecordAttempt(
	ctx context.Context,
	req listing.Request,
	res *listing.Result,
) error {
	if res == nil {
		return errors.New("nil listing result")
	}
	tmpItem := models.ListingAttempt{
		Fingerprints:    models.JoinList(req.Fingerprints),
		Assets:          models.JoinList(res.Assets),
		SellerAddress:   req.SellerPaymentAddress,
		ContractAddress: res.ContractAddress,
		State:           res.State.String(),
		TxId:            res.TxId,
		DepositLovelace: types.Uint64(res.DepositLovelace),
		PriceLovelace:   types.Uint64(res.PriceLovelace),
	}
	if tmpItem.DepositLovelace == 0 {
		tmpItem.DepositLovelace = types.Uint64(req.DepositLovelace)
	}
	if tmpItem.PriceLovelace == 0 && len(req.Price) > 0 {
		tmpItem.PriceLovelace = types.Uint64(req.Price[0].AmountLovelace)
	}
	if res.Condition != listing.ConditionNone {
		tmpItem.Condition = res.Condition.String()
	}
	if res.Err != nil {
		tmpItem.Error = res.Err.Error()
		var lErr *listing.Error
		if errors.As(res.Err, &lErr) {
			tmpItem.FailedState = lErr.State.String()
		}
	}
	if result := d.DB().WithContext(ctx).Create(&tmpItem); result.Error != nil {
		return fmt.Errorf("record listing attempt: %w", result.Error)
	}
	d.logger.Debug(
		"recorded listing attempt",
		"id", tmpItem.ID,
		"state", tmpItem.State,
		"tx_id", tmpItem.TxId,
	)
	return nil
}

// ListAttempts returns a page of journal entries ordered by creation and the
// total number of entries
func (d *Database) ListAttempts(
	ctx context.Context,
	opts ListOptions,
) ([]models.ListingAttempt, int64, error) {
	if opts.Count < 1 {
		opts.Count = 100
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	var total int64
	db := d.DB().WithContext(ctx)
	if result := db.Model(&models.ListingAttempt{}).Count(&total); result.Error != nil {
		return nil, 0, result.Error
	}
	order := "id asc"
	if opts.Descending {
		order = "id desc"
	}
	ret := []models.ListingAttempt{}
	result := db.Order(order).
		Limit(opts.Count).
		Offset((opts.Page - 1) * opts.Count).
		Find(&ret)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return ret, total, nil
}

// AttemptByTxId returns the most recent attempt for a transaction
func (d *Database) AttemptByTxId(
	ctx context.Context,
	txId string,
) (*models.ListingAttempt, error) {
	var ret models.ListingAttempt
	result := d.DB().WithContext(ctx).
		Where("tx_id = ?", txId).
		Order("id desc").
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}
