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

package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// base32Alphabet is the lowercase RFC 4648 alphabet without padding
const base32Alphabet = "abcdefghijklmnopqrstuvwxyz234567"

var ErrInvalidBase32 = errors.New("invalid base32 string")

// EncodeBase32 encodes data 5 bits at a time, most significant bit first.
// A trailing partial group is left-shifted and zero filled.
func EncodeBase32(data []byte) (string, error) {
	groups, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("regroup bits: %w", err)
	}
	var sb strings.Builder
	sb.Grow(len(groups))
	for _, g := range groups {
		sb.WriteByte(base32Alphabet[g])
	}
	return sb.String(), nil
}

// DecodeBase32 reverses EncodeBase32
func DecodeBase32(s string) ([]byte, error) {
	groups := make([]byte, len(s))
	for i := range len(s) {
		idx := strings.IndexByte(base32Alphabet, s[i])
		if idx < 0 {
			return nil, fmt.Errorf(
				"%w: unexpected character %q at offset %d",
				ErrInvalidBase32,
				s[i],
				i,
			)
		}
		groups[i] = byte(idx)
	}
	ret, err := bech32.ConvertBits(groups, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBase32, err)
	}
	return ret, nil
}
