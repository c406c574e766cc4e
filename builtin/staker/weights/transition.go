// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package weights

import "math/big"

// Transition is the registry call required after a validator's weight changed.
type Transition uint8

const (
	None Transition = iota
	Add
	Remove
	Update
)

func (t Transition) String() string {
	switch t {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Update:
		return "update"
	default:
		return "none"
	}
}

// Decide evaluates the registry state machine from scratch. No earlier decision is cached,
// since the registry may change its membership on its own.
func Decide(inRegistry bool, weight, threshold *big.Int) Transition {
	above := weight.Cmp(threshold) >= 0
	switch {
	case !inRegistry && above:
		return Add
	case inRegistry && !above:
		return Remove
	case inRegistry && above:
		return Update
	default:
		return None
	}
}
