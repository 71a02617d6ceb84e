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

// State is a stage of a listing attempt
type State uint8

const (
	StateIdle State = iota
	StateOwnershipVerified
	StateDatumBuilt
	StateReferenceResolved
	StateTxBuilt
	StateSigned
	StateSubmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateOwnershipVerified:
		return "OwnershipVerified"
	case StateDatumBuilt:
		return "DatumBuilt"
	case StateReferenceResolved:
		return "ReferenceResolved"
	case StateTxBuilt:
		return "TxBuilt"
	case StateSigned:
		return "Signed"
	case StateSubmitted:
		return "Submitted"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateFailed
}

// next returns the only forward successor of a non-terminal state
func (s State) next() State {
	switch s {
	case StateIdle:
		return StateOwnershipVerified
	case StateOwnershipVerified:
		return StateDatumBuilt
	case StateDatumBuilt:
		return StateReferenceResolved
	case StateReferenceResolved:
		return StateTxBuilt
	case StateTxBuilt:
		return StateSigned
	case StateSigned:
		return StateSubmitted
	default:
		return StateFailed
	}
}

// CanTransition reports whether from may move to to. Every non-terminal
// state may fail.
func CanTransition(from State, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return from.next() == to
}
