// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/thor"
)

var (
	slotAdmin           = thor.BytesToBytes32([]byte("admin"))
	slotStakeAuthority  = thor.BytesToBytes32([]byte("validator-stake-authority"))
	slotWeightThreshold = thor.BytesToBytes32([]byte("validator-weight-threshold"))
	slotIsLeaderDefault = thor.BytesToBytes32([]byte("is-leader-default"))
	slotRegistry        = thor.BytesToBytes32([]byte("registry"))
	slotRewardNotifiers = thor.BytesToBytes32([]byte("reward-notifiers"))
)

// Params is a snapshot of the admin controlled parameters.
type Params struct {
	Admin           thor.Address
	StakeAuthority  thor.Address
	WeightThreshold *big.Int
	IsLeaderDefault bool
	Registry        thor.Address
}

type params struct {
	admin         *solidity.Address
	authority     *solidity.Address
	threshold     *solidity.Uint256
	leaderDefault *solidity.Bool
	registry      *solidity.Address
	notifiers     *solidity.Mapping[thor.Address, bool]
}

func newParams(sctx *solidity.Context) *params {
	return &params{
		admin:         solidity.NewAddress(sctx, slotAdmin),
		authority:     solidity.NewAddress(sctx, slotStakeAuthority),
		threshold:     solidity.NewUint256(sctx, slotWeightThreshold),
		leaderDefault: solidity.NewBool(sctx, slotIsLeaderDefault),
		registry:      solidity.NewAddress(sctx, slotRegistry),
		notifiers:     solidity.NewMapping[thor.Address, bool](sctx, slotRewardNotifiers),
	}
}

func (p *params) snapshot() (*Params, error) {
	admin, err := p.admin.Get()
	if err != nil {
		return nil, err
	}
	authority, err := p.authority.Get()
	if err != nil {
		return nil, err
	}
	threshold, err := p.threshold.Get()
	if err != nil {
		return nil, err
	}
	leaderDefault, err := p.leaderDefault.Get()
	if err != nil {
		return nil, err
	}
	registry, err := p.registry.Get()
	if err != nil {
		return nil, err
	}
	return &Params{
		Admin:           admin,
		StakeAuthority:  authority,
		WeightThreshold: threshold,
		IsLeaderDefault: leaderDefault,
		Registry:        registry,
	}, nil
}

func (p *params) requireAdmin(caller thor.Address) error {
	admin, err := p.admin.Get()
	if err != nil {
		return err
	}
	if admin.IsZero() || caller != admin {
		return reverts.Unauthorized("not admin")
	}
	return nil
}

func (p *params) isAuthority(caller thor.Address) (bool, error) {
	authority, err := p.authority.Get()
	if err != nil {
		return false, err
	}
	return !authority.IsZero() && caller == authority, nil
}

func (p *params) requireAuthority(caller thor.Address) error {
	ok, err := p.isAuthority(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Unauthorized("not stake authority")
	}
	return nil
}

func (p *params) requireNotifier(caller thor.Address) error {
	ok, err := p.notifiers.Get(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Unauthorized("not reward notifier")
	}
	return nil
}
