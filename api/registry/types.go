// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeweight/builtin/registry"
	"github.com/vechain/stakeweight/thor"
)

type Validator struct {
	Owner   thor.Address           `json:"owner"`
	PubKey  thor.PublicKey         `json:"pubKey"`
	Pop     thor.ProofOfPossession `json:"pop"`
	Weight  *math.HexOrDecimal256  `json:"weight"`
	Active  bool                   `json:"active"`
	Leader  bool                   `json:"leader"`
	Removed bool                   `json:"removed"`
	AddedAt uint32                 `json:"addedAt"`
}

type Member struct {
	Owner  thor.Address          `json:"owner"`
	Weight *math.HexOrDecimal256 `json:"weight"`
	Leader bool                  `json:"leader"`
}

type Committee struct {
	Epoch           uint64                `json:"epoch"`
	Block           uint32                `json:"block"`
	ActivationBlock uint32                `json:"activationBlock"`
	TotalWeight     *math.HexOrDecimal256 `json:"totalWeight"`
	Members         []Member              `json:"members"`
}

type Settings struct {
	CommitteeActivationDelay uint64 `json:"committeeActivationDelay"`
	LeaderFrequency          uint64 `json:"leaderFrequency"`
	WeightedLeaders          bool   `json:"weightedLeaders"`
}

func hexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func convertValidator(v *registry.Validator) *Validator {
	return &Validator{
		Owner:   v.Owner,
		PubKey:  v.PubKey,
		Pop:     v.Pop,
		Weight:  hexOrDecimal(v.Weight),
		Active:  v.Active,
		Leader:  v.Leader,
		Removed: v.Removed,
		AddedAt: v.AddedAt,
	}
}

func convertCommittee(c *registry.Committee) *Committee {
	out := &Committee{
		Epoch:           c.Epoch,
		Block:           c.Block,
		ActivationBlock: c.ActivationBlock,
		TotalWeight:     hexOrDecimal(c.TotalWeight),
		Members:         make([]Member, 0, len(c.Members)),
	}
	for _, m := range c.Members {
		out.Members = append(out.Members, Member{Owner: m.Owner, Weight: hexOrDecimal(m.Weight), Leader: m.Leader})
	}
	return out
}
