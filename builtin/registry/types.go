// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"

	"github.com/vechain/stakeweight/thor"
)

// Validator is the registry's record of one validator owner.
type Validator struct {
	Owner   thor.Address
	PubKey  thor.PublicKey
	Pop     thor.ProofOfPossession
	Weight  *big.Int
	Active  bool
	Leader  bool
	Removed bool
	AddedAt uint32 // block of the latest add
}

func (v *Validator) exists() bool {
	return !v.PubKey.IsZero()
}

// Member is a validator snapshot inside a committee.
type Member struct {
	Owner  thor.Address
	Weight *big.Int
	Leader bool
}

// Committee is the validator set committed at Block, effective from ActivationBlock.
type Committee struct {
	Epoch           uint64
	Block           uint32
	ActivationBlock uint32
	TotalWeight     *big.Int
	Members         []Member
}

// LeaderSelection holds the leader rotation parameters.
type LeaderSelection struct {
	Frequency uint64
	Weighted  bool
}
