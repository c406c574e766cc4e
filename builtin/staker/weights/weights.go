// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package weights

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/thor"
)

var (
	slotStakeWeight = thor.BytesToBytes32([]byte("validator-stake-weight"))
	slotBonusWeight = thor.BytesToBytes32([]byte("validator-bonus-weight"))
	slotAssignment  = thor.BytesToBytes32([]byte("deposit-validator"))
)

// ChangedFunc is called once per affected validator after its weight changed.
type ChangedFunc func(validator thor.Address) error

// Ledger tracks the validator each deposit backs, the stake weight of every validator and the
// bonus weight assigned by the stake authority. The zero address means "no validator" and
// carries no weight.
type Ledger struct {
	stake      *solidity.Mapping[thor.Address, *big.Int]
	bonus      *solidity.Mapping[thor.Address, *big.Int]
	assignment *solidity.Mapping[types.DepositID, thor.Address]
	onChanged  ChangedFunc
}

func New(sctx *solidity.Context) *Ledger {
	return &Ledger{
		stake:      solidity.NewMapping[thor.Address, *big.Int](sctx, slotStakeWeight),
		bonus:      solidity.NewMapping[thor.Address, *big.Int](sctx, slotBonusWeight),
		assignment: solidity.NewMapping[types.DepositID, thor.Address](sctx, slotAssignment),
		onChanged:  func(thor.Address) error { return nil },
	}
}

// SetCallbackListener installs the weight changed hook.
func (l *Ledger) SetCallbackListener(fn ChangedFunc) {
	l.onChanged = fn
}

func (l *Ledger) StakeWeight(validator thor.Address) (*big.Int, error) {
	return l.stake.Get(validator)
}

func (l *Ledger) BonusWeight(validator thor.Address) (*big.Int, error) {
	return l.bonus.Get(validator)
}

// TotalWeight is stake weight plus bonus weight.
func (l *Ledger) TotalWeight(validator thor.Address) (*big.Int, error) {
	stake, err := l.stake.Get(validator)
	if err != nil {
		return nil, err
	}
	bonus, err := l.bonus.Get(validator)
	if err != nil {
		return nil, err
	}
	return stake.Add(stake, bonus), nil
}

func (l *Ledger) ValidatorFor(id types.DepositID) (thor.Address, error) {
	return l.assignment.Get(id)
}

func (l *Ledger) Assign(id types.DepositID, validator thor.Address) error {
	return l.assignment.Set(id, validator)
}

func (l *Ledger) add(validator thor.Address, amount *big.Int) error {
	weight, err := l.stake.Get(validator)
	if err != nil {
		return err
	}
	return l.stake.Set(validator, weight.Add(weight, amount))
}

func (l *Ledger) sub(validator thor.Address, amount *big.Int) error {
	weight, err := l.stake.Get(validator)
	if err != nil {
		return err
	}
	if weight.Cmp(amount) < 0 {
		return reverts.InsufficientWeight(fmt.Sprintf("validator %v has %v, removing %v", validator, weight, amount))
	}
	return l.stake.Set(validator, weight.Sub(weight, amount))
}

// changed runs the hook. The zero address means no validator and never reaches it.
func (l *Ledger) changed(validator thor.Address) error {
	if validator.IsZero() {
		return nil
	}
	return l.onChanged(validator)
}

func (l *Ledger) OnStakeCreated(validator thor.Address, amount *big.Int) error {
	if err := l.add(validator, amount); err != nil {
		return err
	}
	return l.changed(validator)
}

func (l *Ledger) OnStakeIncreased(validator thor.Address, amount *big.Int) error {
	return l.OnStakeCreated(validator, amount)
}

func (l *Ledger) OnStakeDecreased(validator thor.Address, amount *big.Int) error {
	if err := l.sub(validator, amount); err != nil {
		return err
	}
	return l.changed(validator)
}

// OnValidatorReassigned moves amount from old to new. Both weights are updated before either
// hook runs, and old's hook runs first.
func (l *Ledger) OnValidatorReassigned(oldValidator, newValidator thor.Address, amount *big.Int) error {
	if err := l.sub(oldValidator, amount); err != nil {
		return err
	}
	if err := l.add(newValidator, amount); err != nil {
		return err
	}
	if oldValidator == newValidator {
		return l.changed(newValidator)
	}
	if err := l.changed(oldValidator); err != nil {
		return err
	}
	return l.changed(newValidator)
}

func (l *Ledger) SetBonusWeight(validator thor.Address, weight *big.Int) error {
	if validator.IsZero() {
		return reverts.Wrap(reverts.ErrInvalidAddress, "zero validator")
	}
	if weight.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "negative bonus weight")
	}
	if err := l.bonus.Set(validator, new(big.Int).Set(weight)); err != nil {
		return err
	}
	return l.changed(validator)
}
