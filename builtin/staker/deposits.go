// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/thor"
)

func requireAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "negative or missing amount")
	}
	return nil
}

// ownedDeposit loads id and checks that caller owns it.
func (s *Staker) ownedDeposit(caller thor.Address, id types.DepositID) (*types.Deposit, error) {
	d, err := s.deposits.Get(id)
	if err != nil {
		return nil, err
	}
	if d.Owner != caller {
		return nil, reverts.Unauthorized("not owner")
	}
	return d, nil
}

// Stake creates a deposit of amount backing validator.
func (s *Staker) Stake(caller thor.Address, amount *big.Int, delegatee, claimer, validator thor.Address) (id types.DepositID, err error) {
	err = s.atomic("stake", func() error {
		if err := requireAmount(amount); err != nil {
			return err
		}
		defer s.vctx.Enter(validator)()

		created, err := s.deposits.Stake(caller, amount, delegatee, claimer)
		if err != nil {
			return err
		}
		id = created
		if err := s.weights.Assign(id, validator); err != nil {
			return err
		}
		return s.weights.OnStakeCreated(validator, amount)
	}, "owner", caller, "validator", validator, "amount", amount)
	return
}

// StakeMore adds amount to a deposit, and to the weight of the validator it backs.
func (s *Staker) StakeMore(caller thor.Address, id types.DepositID, amount *big.Int) error {
	return s.atomic("stakeMore", func() error {
		if err := requireAmount(amount); err != nil {
			return err
		}
		if _, err := s.ownedDeposit(caller, id); err != nil {
			return err
		}
		validator, err := s.weights.ValidatorFor(id)
		if err != nil {
			return err
		}
		defer s.vctx.Enter(validator)()

		if err := s.weights.OnStakeIncreased(validator, amount); err != nil {
			return err
		}
		_, err = s.deposits.StakeMore(caller, id, amount)
		return err
	}, "owner", caller, "depositId", id, "amount", amount)
}

// Withdraw takes amount out of a deposit and out of its validator's weight.
func (s *Staker) Withdraw(caller thor.Address, id types.DepositID, amount *big.Int) error {
	return s.atomic("withdraw", func() error {
		if err := requireAmount(amount); err != nil {
			return err
		}
		if _, err := s.ownedDeposit(caller, id); err != nil {
			return err
		}
		validator, err := s.weights.ValidatorFor(id)
		if err != nil {
			return err
		}
		defer s.vctx.Enter(validator)()

		if err := s.weights.OnStakeDecreased(validator, amount); err != nil {
			return err
		}
		_, err = s.deposits.Withdraw(caller, id, amount)
		return err
	}, "owner", caller, "depositId", id, "amount", amount)
}

// AlterValidator moves a deposit's whole balance to newValidator. Moving it to its current
// validator leaves weights unchanged but still recomputes earning power.
func (s *Staker) AlterValidator(caller thor.Address, id types.DepositID, newValidator thor.Address) error {
	return s.atomic("alterValidator", func() error {
		if _, err := s.ownedDeposit(caller, id); err != nil {
			return err
		}
		defer s.vctx.Enter(newValidator)()

		oldValidator, err := s.weights.ValidatorFor(id)
		if err != nil {
			return err
		}
		d, err := s.deposits.Refresh(id)
		if err != nil {
			return err
		}
		if err := s.weights.OnValidatorReassigned(oldValidator, newValidator, d.Balance); err != nil {
			return err
		}
		if err := s.weights.Assign(id, newValidator); err != nil {
			return err
		}
		s.events.Emit(events.ValidatorAltered,
			events.A("depositId", id), events.A("oldValidator", oldValidator),
			events.A("newValidator", newValidator), events.A("earningPower", d.EarningPower))
		return nil
	}, "owner", caller, "depositId", id, "validator", newValidator)
}

// withDepositValidator runs fn with the validator context set to the deposit's validator.
func (s *Staker) withDepositValidator(id types.DepositID, fn func() error) error {
	validator, err := s.weights.ValidatorFor(id)
	if err != nil {
		return err
	}
	defer s.vctx.Enter(validator)()
	return fn()
}

func (s *Staker) AlterClaimer(caller thor.Address, id types.DepositID, newClaimer thor.Address) error {
	return s.atomic("alterClaimer", func() error {
		return s.withDepositValidator(id, func() error {
			return s.deposits.AlterClaimer(caller, id, newClaimer)
		})
	}, "owner", caller, "depositId", id, "claimer", newClaimer)
}

func (s *Staker) AlterDelegatee(caller thor.Address, id types.DepositID, newDelegatee thor.Address) error {
	return s.atomic("alterDelegatee", func() error {
		return s.withDepositValidator(id, func() error {
			return s.deposits.AlterDelegatee(caller, id, newDelegatee)
		})
	}, "owner", caller, "depositId", id, "delegatee", newDelegatee)
}

func (s *Staker) ClaimReward(caller thor.Address, id types.DepositID) (reward *big.Int, err error) {
	err = s.atomic("claimReward", func() error {
		return s.withDepositValidator(id, func() (err error) {
			reward, err = s.deposits.ClaimReward(caller, id)
			return
		})
	}, "claimer", caller, "depositId", id)
	return
}

func (s *Staker) BumpEarningPower(caller thor.Address, id types.DepositID, tipReceiver thor.Address, tip *big.Int) error {
	return s.atomic("bumpEarningPower", func() error {
		return s.withDepositValidator(id, func() error {
			return s.deposits.BumpEarningPower(caller, id, tipReceiver, tip)
		})
	}, "bumper", caller, "depositId", id, "tip", tip)
}

// NotifyRewardAmount streams amount, taken from the notifier, to depositors.
func (s *Staker) NotifyRewardAmount(caller thor.Address, amount *big.Int) error {
	return s.atomic("notifyRewardAmount", func() error {
		if err := s.params.requireNotifier(caller); err != nil {
			return err
		}
		return s.deposits.NotifyRewardAmount(caller, amount)
	}, "notifier", caller, "amount", amount)
}
