// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deposit

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/thor"
)

// RewardState is a view of the reward stream.
type RewardState struct {
	ScaledRewardRate    *big.Int
	RewardEndBlock      uint32
	LastCheckpointBlock uint32
	RewardPerToken      *big.Int
}

func (l *Ledger) getUint32(u interface{ Get() (*big.Int, error) }) (uint32, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	return uint32(v.Uint64()), nil
}

func (l *Ledger) lastBlockRewardDistributed() (uint32, error) {
	end, err := l.getUint32(l.rewardEnd)
	if err != nil {
		return 0, err
	}
	return min(end, l.blockNum()), nil
}

// RewardPerTokenAccumulated is the checkpointed value plus what streamed since the checkpoint.
func (l *Ledger) RewardPerTokenAccumulated() (*big.Int, error) {
	acc, err := l.rewardPerToken.Get()
	if err != nil {
		return nil, err
	}
	total, err := l.earning.Total()
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return acc, nil
	}
	last, err := l.lastBlockRewardDistributed()
	if err != nil {
		return nil, err
	}
	checkpoint, err := l.getUint32(l.lastCheckpoint)
	if err != nil {
		return nil, err
	}
	if last <= checkpoint {
		return acc, nil
	}
	rate, err := l.rewardRate.Get()
	if err != nil {
		return nil, err
	}
	streamed := new(big.Int).Mul(rate, big.NewInt(int64(last-checkpoint)))
	return acc.Add(acc, streamed.Quo(streamed, total)), nil
}

// CheckpointGlobal folds the streamed rewards into the accumulator. It must run before the
// total earning power changes.
func (l *Ledger) CheckpointGlobal() error {
	acc, err := l.RewardPerTokenAccumulated()
	if err != nil {
		return err
	}
	if err := l.rewardPerToken.Set(acc); err != nil {
		return err
	}
	last, err := l.lastBlockRewardDistributed()
	if err != nil {
		return err
	}
	return l.lastCheckpoint.Set(big.NewInt(int64(last)))
}

func (l *Ledger) scaledUnclaimed(d *types.Deposit, acc *big.Int) *big.Int {
	delta := new(big.Int).Sub(acc, d.RewardPerTokenCheckpoint)
	delta.Mul(delta, d.EarningPower)
	return delta.Add(delta, d.ScaledUnclaimedReward)
}

// CheckpointDeposit credits d with the rewards earned at its current earning power. The
// global checkpoint must be taken first.
func (l *Ledger) CheckpointDeposit(d *types.Deposit) error {
	acc, err := l.rewardPerToken.Get()
	if err != nil {
		return err
	}
	d.ScaledUnclaimedReward = l.scaledUnclaimed(d, acc)
	d.RewardPerTokenCheckpoint = acc
	return nil
}

func (l *Ledger) checkpoint(d *types.Deposit) error {
	if err := l.CheckpointGlobal(); err != nil {
		return err
	}
	return l.CheckpointDeposit(d)
}

// UnclaimedReward is the reward the deposit could claim now.
func (l *Ledger) UnclaimedReward(id types.DepositID) (*big.Int, error) {
	d, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	acc, err := l.RewardPerTokenAccumulated()
	if err != nil {
		return nil, err
	}
	scaled := l.scaledUnclaimed(d, acc)
	return scaled.Quo(scaled, ScaleFactor), nil
}

// NotifyRewardAmount pulls amount from notifier into the reward pool and streams it, together
// with the undistributed remainder, over the reward duration.
func (l *Ledger) NotifyRewardAmount(notifier thor.Address, amount *big.Int) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if err := l.token.Transfer(notifier, l.pool, amount); err != nil {
		return err
	}

	acc, err := l.RewardPerTokenAccumulated()
	if err != nil {
		return err
	}
	if err := l.rewardPerToken.Set(acc); err != nil {
		return err
	}

	now := l.blockNum()
	end, err := l.getUint32(l.rewardEnd)
	if err != nil {
		return err
	}
	rate, err := l.rewardRate.Get()
	if err != nil {
		return err
	}
	duration := big.NewInt(int64(l.cfg.RewardDuration))
	scaledAmount := new(big.Int).Mul(amount, ScaleFactor)
	if now >= end {
		rate = scaledAmount.Quo(scaledAmount, duration)
	} else {
		remaining := new(big.Int).Mul(rate, big.NewInt(int64(end-now)))
		rate = remaining.Add(remaining, scaledAmount).Quo(remaining, duration)
	}

	if rate.Cmp(ScaleFactor) < 0 {
		return reverts.Wrap(reverts.ErrInvalidRewardRate, rate.String())
	}
	pool, err := l.token.BalanceOf(l.pool)
	if err != nil {
		return err
	}
	if new(big.Int).Mul(rate, duration).Cmp(pool.Mul(pool, ScaleFactor)) > 0 {
		return reverts.Wrap(reverts.ErrInsufficientRewardBal, fmt.Sprintf("pool %v", l.pool))
	}

	if err := l.rewardRate.Set(rate); err != nil {
		return err
	}
	if err := l.rewardEnd.Set(big.NewInt(int64(now) + int64(l.cfg.RewardDuration))); err != nil {
		return err
	}
	if err := l.lastCheckpoint.Set(big.NewInt(int64(now))); err != nil {
		return err
	}
	l.events.Emit(events.RewardNotified, events.A("amount", amount), events.A("notifier", notifier))
	return nil
}

func (l *Ledger) RewardState() (*RewardState, error) {
	rate, err := l.rewardRate.Get()
	if err != nil {
		return nil, err
	}
	end, err := l.getUint32(l.rewardEnd)
	if err != nil {
		return nil, err
	}
	last, err := l.getUint32(l.lastCheckpoint)
	if err != nil {
		return nil, err
	}
	acc, err := l.RewardPerTokenAccumulated()
	if err != nil {
		return nil, err
	}
	return &RewardState{ScaledRewardRate: rate, RewardEndBlock: end, LastCheckpointBlock: last, RewardPerToken: acc}, nil
}
