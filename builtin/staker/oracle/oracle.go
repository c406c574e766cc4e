// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle provides earning power oracles for the deposit ledger.
package oracle

import (
	"math/big"

	"github.com/vechain/stakeweight/builtin/staker/vctx"
	"github.com/vechain/stakeweight/thor"
)

// Identity grants earning power equal to the balance.
type Identity struct{}

func (Identity) GetEarningPower(balance *big.Int, _, _ thor.Address) (*big.Int, error) {
	return new(big.Int).Set(balance), nil
}

func (o Identity) GetNewEarningPower(balance *big.Int, owner, delegatee thor.Address, oldPower *big.Int) (*big.Int, bool, error) {
	power, err := o.GetEarningPower(balance, owner, delegatee)
	if err != nil {
		return nil, false, err
	}
	return power, power.Cmp(oldPower) != 0, nil
}

// KeyLookup tells whether a validator declared its keys.
type KeyLookup interface {
	HasKeys(owner thor.Address) (bool, error)
}

// ValidatorGated only grants earning power while the operation's validator has declared keys.
// Deposits backing no validator, or one without keys, earn nothing.
type ValidatorGated struct {
	ctx  vctx.Reader
	keys KeyLookup
}

func NewValidatorGated(ctx vctx.Reader, keys KeyLookup) *ValidatorGated {
	return &ValidatorGated{ctx: ctx, keys: keys}
}

func (o *ValidatorGated) GetEarningPower(balance *big.Int, _, _ thor.Address) (*big.Int, error) {
	validator := o.ctx.Validator()
	if validator.IsZero() {
		return new(big.Int), nil
	}
	ok, err := o.keys.HasKeys(validator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}

func (o *ValidatorGated) GetNewEarningPower(balance *big.Int, owner, delegatee thor.Address, oldPower *big.Int) (*big.Int, bool, error) {
	power, err := o.GetEarningPower(balance, owner, delegatee)
	if err != nil {
		return nil, false, err
	}
	return power, power.Cmp(oldPower) != 0, nil
}
