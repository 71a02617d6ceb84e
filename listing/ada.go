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
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const lovelacePerAda = 1_000_000

var (
	decimalLovelacePerAda = decimal.NewFromInt(lovelacePerAda)
	decimalMaxLovelace    = decimalFromUint64(math.MaxUint64)
)

// ParseAda converts a decimal ADA amount to lovelace. The amount must be
// positive and a whole number of lovelace.
func ParseAda(amount string) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%w: empty ADA amount", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf(
			"%w: ADA amount %q is not numeric",
			ErrInvalidInput,
			amount,
		)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf(
			"%w: ADA amount %q must be positive",
			ErrInvalidInput,
			amount,
		)
	}
	lovelace := d.Mul(decimalLovelacePerAda)
	if !lovelace.IsInteger() {
		return 0, fmt.Errorf(
			"%w: ADA amount %q has more than 6 decimal places",
			ErrInvalidInput,
			amount,
		)
	}
	if lovelace.GreaterThan(decimalMaxLovelace) {
		return 0, fmt.Errorf(
			"%w: ADA amount %q is too large",
			ErrInvalidInput,
			amount,
		)
	}
	return lovelace.BigInt().Uint64(), nil
}

// FormatAda renders a lovelace amount as ADA
func FormatAda(lovelace uint64) string {
	return decimalFromUint64(lovelace).Div(decimalLovelacePerAda).String()
}

func decimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
