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
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const (
	fingerprintDigestLen = 20

	// FingerprintPrefixLow is used when the first digest byte is below 128
	FingerprintPrefixLow = "asset1"
	// FingerprintPrefixHigh is used for all other digests
	FingerprintPrefixHigh = "asset"
)

var ErrFingerprintDegraded = errors.New("fingerprint unavailable")

// Fingerprint is the result of a fingerprint computation. A degraded result
// carries the reason instead of a value and never matches anything.
type Fingerprint struct {
	value  string
	reason error
}

// Ok reports whether a fingerprint value was produced
func (f Fingerprint) Ok() bool {
	return f.reason == nil && f.value != ""
}

// Reason returns why the fingerprint is degraded, or nil
func (f Fingerprint) Reason() error {
	return f.reason
}

// String returns the fingerprint, or an empty string when degraded
func (f Fingerprint) String() string {
	if f.reason != nil {
		return ""
	}
	return f.value
}

// Matches reports whether the fingerprint is usable and equal to s
func (f Fingerprint) Matches(s string) bool {
	return f.Ok() && f.value == s
}

func degraded(err error) Fingerprint {
	return Fingerprint{
		reason: fmt.Errorf("%w: %w", ErrFingerprintDegraded, err),
	}
}

// Compute derives the display fingerprint for a policy ID and asset name,
// both given as hex. An empty asset name is valid.
func Compute(policyHex string, assetNameHex string) Fingerprint {
	raw, err := hex.DecodeString(policyHex + assetNameHex)
	if err != nil {
		return degraded(fmt.Errorf("decode asset ID: %w", err))
	}
	hasher, err := blake2b.New(fingerprintDigestLen, nil)
	if err != nil {
		return degraded(fmt.Errorf("create hasher: %w", err))
	}
	hasher.Write(raw)
	digest := hasher.Sum(nil)
	encoded, err := EncodeBase32(digest)
	if err != nil {
		return degraded(err)
	}
	prefix := FingerprintPrefixHigh
	if digest[0] < 128 {
		prefix = FingerprintPrefixLow
	}
	return Fingerprint{value: prefix + encoded}
}
