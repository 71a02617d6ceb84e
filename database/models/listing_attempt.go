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

package models

import (
	"strings"
	"time"

	"github.com/blinklabs-io/aftermarket/database/types"
)

// MigrateModels contains a list of model objects that should have DB migrations applied
var MigrateModels = []any{
	&ListingAttempt{},
}

// ListingAttempt is the recorded outcome of one listing attempt. FailedState
// is the last state reached before a failure.
type ListingAttempt struct {
	CreatedAt       time.Time `gorm:"index"`
	Fingerprints    string
	Assets          string
	SellerAddress   string
	ContractAddress string
	State           string
	FailedState     string
	Condition       string `gorm:"index"`
	TxId            string `gorm:"index"`
	Error           string
	DepositLovelace types.Uint64 `gorm:"type:text"`
	PriceLovelace   types.Uint64 `gorm:"type:text"`
	ID              uint         `gorm:"primaryKey"`
}

func (ListingAttempt) TableName() string {
	return "listing_attempt"
}

const listSeparator = ","

// JoinList packs a string list into a single column value
func JoinList(items []string) string {
	return strings.Join(items, listSeparator)
}

func splitList(val string) []string {
	if val == "" {
		return []string{}
	}
	return strings.Split(val, listSeparator)
}

func (l *ListingAttempt) FingerprintList() []string {
	return splitList(l.Fingerprints)
}

func (l *ListingAttempt) AssetList() []string {
	return splitList(l.Assets)
}
