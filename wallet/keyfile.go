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

package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/gouroboros/cbor"
)

const (
	keyTypePaymentSigning = "PaymentSigningKeyShelley_ed25519"
	keyTypeStakeSigning   = "StakeSigningKeyShelley_ed25519"
)

var (
	ErrInsecureFileMode = errors.New("insecure key file permissions")
	ErrUnsupportedKey   = errors.New("unsupported key type")
)

// keyFileEnvelope represents the JSON structure of a cardano-cli key file.
type keyFileEnvelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

// LoadSigningKeyFile loads a payment signing key from a file path
// (cardano-cli format). Returns ErrInsecureFileMode if the file has group or
// other access.
//
// The file is opened first and permissions are checked on the open handle
// to avoid a race between the permission check and the read.
func LoadSigningKeyFile(path string) (ed25519.PrivateKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %q: %w", path, err)
	}
	defer f.Close()

	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}

	// Valid key files are a few hundred bytes
	const maxKeyFileSize = 1 << 16
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	key, err := parseKeyEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return key, nil
}

// parseKeyEnvelope parses a cardano-cli format signing key
func parseKeyEnvelope(fileBytes []byte) (ed25519.PrivateKey, error) {
	var env keyFileEnvelope
	if err := json.Unmarshal(fileBytes, &env); err != nil {
		return nil, fmt.Errorf("could not parse key file envelope: %w", err)
	}
	switch env.Type {
	case keyTypePaymentSigning:
	case keyTypeStakeSigning:
		return nil, fmt.Errorf(
			"%w: %s is a stake key, a payment key is required",
			ErrUnsupportedKey,
			env.Type,
		)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKey, env.Type)
	}
	cborData, err := hex.DecodeString(env.CborHex)
	if err != nil {
		return nil, fmt.Errorf("could not decode key from hex: %w", err)
	}
	var seed []byte
	if _, err := cbor.Decode(cborData, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signing key CBOR: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"invalid signing key bytes: expected %d, got %d",
			ed25519.SeedSize,
			len(seed),
		)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
