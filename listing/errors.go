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
	"errors"
	"fmt"
)

// Condition classifies why a listing attempt failed
type Condition uint8

const (
	ConditionNone Condition = iota
	ConditionInvalidInput
	ConditionAssetNotFound
	ConditionAmbiguousAsset
	ConditionMissingPaymentCredential
	ConditionMissingStakeCredential
	ConditionReferenceScriptMissing
	ConditionEncoding
	ConditionSigning
	ConditionRejected
	ConditionCollaborator
)

var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrAssetNotFound            = errors.New("asset not found in wallet")
	ErrAmbiguousAsset           = errors.New("fingerprint matches more than one asset")
	ErrMissingPaymentCredential = errors.New("seller address has no payment credential")
	ErrMissingStakeCredential   = errors.New("wallet has no stake credential")
	ErrReferenceScriptMissing   = errors.New("beacon reference script not found")
	ErrEncoding                 = errors.New("encoding failed")
	ErrSigning                  = errors.New("signing failed")
	ErrRejected                 = errors.New("transaction rejected")
	ErrCollaborator             = errors.New("collaborator failed")
)

var conditionErrors = map[Condition]error{
	ConditionInvalidInput:             ErrInvalidInput,
	ConditionAssetNotFound:            ErrAssetNotFound,
	ConditionAmbiguousAsset:           ErrAmbiguousAsset,
	ConditionMissingPaymentCredential: ErrMissingPaymentCredential,
	ConditionMissingStakeCredential:   ErrMissingStakeCredential,
	ConditionReferenceScriptMissing:   ErrReferenceScriptMissing,
	ConditionEncoding:                 ErrEncoding,
	ConditionSigning:                  ErrSigning,
	ConditionRejected:                 ErrRejected,
	ConditionCollaborator:             ErrCollaborator,
}

func (c Condition) String() string {
	switch c {
	case ConditionNone:
		return "None"
	case ConditionInvalidInput:
		return "InvalidInput"
	case ConditionAssetNotFound:
		return "AssetNotFound"
	case ConditionAmbiguousAsset:
		return "AmbiguousAsset"
	case ConditionMissingPaymentCredential:
		return "MissingPaymentCredential"
	case ConditionMissingStakeCredential:
		return "MissingStakeCredential"
	case ConditionReferenceScriptMissing:
		return "ReferenceScriptMissing"
	case ConditionEncoding:
		return "Encoding"
	case ConditionSigning:
		return "Signing"
	case ConditionRejected:
		return "Rejected"
	case ConditionCollaborator:
		return "Collaborator"
	default:
		return "Unknown"
	}
}

// Error is returned by a failed listing attempt. State is the last state
// reached before failing.
type Error struct {
	Condition Condition
	State     State
	Err       error
}

func newError(condition Condition, state State, err error) *Error {
	return &Error{
		Condition: condition,
		State:     state,
		Err:       err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("listing failed in state %s: %s", e.State, e.Condition)
	}
	return fmt.Sprintf(
		"listing failed in state %s: %s: %s",
		e.State,
		e.Condition,
		e.Err,
	)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's condition
func (e *Error) Is(target error) bool {
	sentinel, ok := conditionErrors[e.Condition]
	return ok && target == sentinel
}

// Rejection is implemented by submit errors that carry the network's reason
// for refusing a transaction
type Rejection interface {
	error
	RejectionReason() string
}

// ConditionOf returns the condition of a listing error, or ConditionNone
func ConditionOf(err error) Condition {
	var listingErr *Error
	if errors.As(err, &listingErr) {
		return listingErr.Condition
	}
	return ConditionNone
}
