// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package deposit is the base staking ledger: token custody per deposit, streaming rewards
// checkpointed per deposit, claimers and incentivized earning power bumps. Earning power
// totals are delegated to the earning ledger.
package deposit

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/builtin/staker/earning"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/builtin/token"
	"github.com/vechain/stakeweight/thor"
)

// ScaleFactor is the precision of reward accounting.
var ScaleFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)

var (
	slotDeposits            = thor.BytesToBytes32([]byte("deposits"))
	slotNextID              = thor.BytesToBytes32([]byte("next-deposit-id"))
	slotTotalStaked         = thor.BytesToBytes32([]byte("total-staked"))
	slotDepositorStaked     = thor.BytesToBytes32([]byte("depositor-staked"))
	slotScaledRewardRate    = thor.BytesToBytes32([]byte("scaled-reward-rate"))
	slotRewardEndBlock      = thor.BytesToBytes32([]byte("reward-end-block"))
	slotLastCheckpointBlock = thor.BytesToBytes32([]byte("last-checkpoint-block"))
	slotRewardPerToken      = thor.BytesToBytes32([]byte("reward-per-token"))
)

// Config carries the ledger parameters and policies.
type Config struct {
	RewardDuration uint32
	MaxBumpTip     *big.Int
	Cap            CapPolicy
	Surrogates     SurrogatePolicy
}

func (c *Config) normalize() {
	if c.RewardDuration == 0 {
		c.RewardDuration = 8640 * 30
	}
	if c.MaxBumpTip == nil {
		c.MaxBumpTip = new(big.Int)
	}
	if c.Cap == nil {
		c.Cap = NoCap{}
	}
	if c.Surrogates == nil {
		c.Surrogates = HashedSurrogates{}
	}
}

type Ledger struct {
	pool     thor.Address
	token    *token.Token
	earning  *earning.Ledger
	oracle   EarningPowerOracle
	events   *events.Recorder
	blockNum func() uint32
	cfg      Config

	deposits        *solidity.Mapping[types.DepositID, *types.Deposit]
	nextID          *solidity.Uint256
	totalStaked     *solidity.Uint256
	depositorStaked *solidity.Mapping[thor.Address, *big.Int]
	rewardRate      *solidity.Uint256
	rewardEnd       *solidity.Uint256
	lastCheckpoint  *solidity.Uint256
	rewardPerToken  *solidity.Uint256
}

// New creates the ledger. Rewards are held by the context address.
func New(
	sctx *solidity.Context,
	tok *token.Token,
	earn *earning.Ledger,
	oracle EarningPowerOracle,
	rec *events.Recorder,
	blockNum func() uint32,
	cfg Config,
) *Ledger {
	cfg.normalize()
	return &Ledger{
		pool:            sctx.Address(),
		token:           tok,
		earning:         earn,
		oracle:          oracle,
		events:          rec,
		blockNum:        blockNum,
		cfg:             cfg,
		deposits:        solidity.NewMapping[types.DepositID, *types.Deposit](sctx, slotDeposits),
		nextID:          solidity.NewUint256(sctx, slotNextID),
		totalStaked:     solidity.NewUint256(sctx, slotTotalStaked),
		depositorStaked: solidity.NewMapping[thor.Address, *big.Int](sctx, slotDepositorStaked),
		rewardRate:      solidity.NewUint256(sctx, slotScaledRewardRate),
		rewardEnd:       solidity.NewUint256(sctx, slotRewardEndBlock),
		lastCheckpoint:  solidity.NewUint256(sctx, slotLastCheckpointBlock),
		rewardPerToken:  solidity.NewUint256(sctx, slotRewardPerToken),
	}
}

func (l *Ledger) Config() Config {
	return l.cfg
}

func (l *Ledger) Surrogate(delegatee thor.Address) thor.Address {
	return l.cfg.Surrogates.Surrogate(delegatee)
}

// Get returns the deposit or DepositNotFound.
func (l *Ledger) Get(id types.DepositID) (*types.Deposit, error) {
	d, err := l.deposits.Get(id)
	if err != nil {
		return nil, err
	}
	if !d.Exists() {
		return nil, reverts.Wrap(reverts.ErrDepositNotFound, id.String())
	}
	return d.Normalize(), nil
}

func (l *Ledger) save(id types.DepositID, d *types.Deposit) error {
	return l.deposits.Set(id, d)
}

func (l *Ledger) NextID() (types.DepositID, error) {
	next, err := l.nextID.Get()
	if err != nil {
		return 0, err
	}
	return types.DepositID(next.Uint64()), nil
}

func (l *Ledger) TotalStaked() (*big.Int, error) {
	return l.totalStaked.Get()
}

func (l *Ledger) DepositorStaked(owner thor.Address) (*big.Int, error) {
	return l.depositorStaked.Get(owner)
}

func (l *Ledger) addStaked(owner thor.Address, delta *big.Int) error {
	if err := l.totalStaked.Add(delta); err != nil {
		return err
	}
	staked, err := l.depositorStaked.Get(owner)
	if err != nil {
		return err
	}
	return l.depositorStaked.Set(owner, staked.Add(staked, delta))
}

func requireOwner(d *types.Deposit, caller thor.Address) error {
	if d.Owner != caller {
		return reverts.Unauthorized("not owner")
	}
	return nil
}

func requireNonNegative(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, fmt.Sprintf("%v", amount))
	}
	return nil
}

// setEarningPower pushes the deposit's new earning power through the earning ledger.
// The deposit must have been checkpointed first.
func (l *Ledger) setEarningPower(d *types.Deposit, power *big.Int) error {
	narrowed, err := l.earning.Recompute(d.Owner, d.EarningPower, power)
	if err != nil {
		return err
	}
	d.EarningPower = narrowed
	return nil
}

// refresh checkpoints d and asks the oracle for its earning power at the current balance.
func (l *Ledger) refresh(d *types.Deposit) error {
	if err := l.checkpoint(d); err != nil {
		return err
	}
	power, err := l.oracle.GetEarningPower(d.Balance, d.Owner, d.Delegatee)
	if err != nil {
		return errors.Wrap(err, "earning power oracle")
	}
	return l.setEarningPower(d, power)
}

// Stake creates a deposit owned by owner and moves amount into the delegatee's surrogate.
func (l *Ledger) Stake(owner thor.Address, amount *big.Int, delegatee, claimer thor.Address) (types.DepositID, error) {
	if err := requireNonNegative(amount); err != nil {
		return 0, err
	}
	if owner.IsZero() || claimer.IsZero() {
		return 0, reverts.Wrap(reverts.ErrInvalidAddress, "zero owner or claimer")
	}
	if err := l.cfg.Cap.Check(owner, amount); err != nil {
		return 0, err
	}
	if err := l.token.Transfer(owner, l.Surrogate(delegatee), amount); err != nil {
		return 0, err
	}
	if err := l.CheckpointGlobal(); err != nil {
		return 0, err
	}
	checkpoint, err := l.rewardPerToken.Get()
	if err != nil {
		return 0, err
	}

	id, err := l.NextID()
	if err != nil {
		return 0, err
	}
	if err := l.nextID.Add(big.NewInt(1)); err != nil {
		return 0, err
	}

	d := (&types.Deposit{
		Balance:                  new(big.Int).Set(amount),
		Owner:                    owner,
		Delegatee:                delegatee,
		Claimer:                  claimer,
		RewardPerTokenCheckpoint: checkpoint,
	}).Normalize()
	power, err := l.oracle.GetEarningPower(amount, owner, delegatee)
	if err != nil {
		return 0, errors.Wrap(err, "earning power oracle")
	}
	if err := l.setEarningPower(d, power); err != nil {
		return 0, err
	}
	if err := l.addStaked(owner, amount); err != nil {
		return 0, err
	}
	if err := l.save(id, d); err != nil {
		return 0, err
	}

	l.events.Emit(events.StakeDeposited,
		events.A("owner", owner), events.A("depositId", id), events.A("amount", amount),
		events.A("balance", d.Balance), events.A("earningPower", d.EarningPower))
	return id, nil
}

// StakeMore adds amount to an existing deposit.
func (l *Ledger) StakeMore(caller thor.Address, id types.DepositID, amount *big.Int) (*types.Deposit, error) {
	if err := requireNonNegative(amount); err != nil {
		return nil, err
	}
	d, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(d, caller); err != nil {
		return nil, err
	}
	balance := new(big.Int).Add(d.Balance, amount)
	if err := l.cfg.Cap.Check(d.Owner, balance); err != nil {
		return nil, err
	}
	if err := l.token.Transfer(d.Owner, l.Surrogate(d.Delegatee), amount); err != nil {
		return nil, err
	}

	if err := l.checkpoint(d); err != nil {
		return nil, err
	}
	power, err := l.oracle.GetEarningPower(balance, d.Owner, d.Delegatee)
	if err != nil {
		return nil, errors.Wrap(err, "earning power oracle")
	}
	if err := l.setEarningPower(d, power); err != nil {
		return nil, err
	}
	d.Balance = balance
	if err := l.addStaked(d.Owner, amount); err != nil {
		return nil, err
	}
	if err := l.save(id, d); err != nil {
		return nil, err
	}

	l.events.Emit(events.StakeDeposited,
		events.A("owner", d.Owner), events.A("depositId", id), events.A("amount", amount),
		events.A("balance", d.Balance), events.A("earningPower", d.EarningPower))
	return d, nil
}

// Withdraw returns amount of the deposit's balance to its owner.
func (l *Ledger) Withdraw(caller thor.Address, id types.DepositID, amount *big.Int) (*types.Deposit, error) {
	if err := requireNonNegative(amount); err != nil {
		return nil, err
	}
	d, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(d, caller); err != nil {
		return nil, err
	}
	if d.Balance.Cmp(amount) < 0 {
		return nil, reverts.InsufficientBalance(fmt.Sprintf("deposit %v has %v, withdrawing %v", id, d.Balance, amount))
	}

	if err := l.checkpoint(d); err != nil {
		return nil, err
	}
	d.Balance.Sub(d.Balance, amount)
	power, err := l.oracle.GetEarningPower(d.Balance, d.Owner, d.Delegatee)
	if err != nil {
		return nil, errors.Wrap(err, "earning power oracle")
	}
	if err := l.setEarningPower(d, power); err != nil {
		return nil, err
	}
	if err := l.addStaked(d.Owner, new(big.Int).Neg(amount)); err != nil {
		return nil, err
	}
	if err := l.save(id, d); err != nil {
		return nil, err
	}
	if err := l.token.Transfer(l.Surrogate(d.Delegatee), d.Owner, amount); err != nil {
		return nil, err
	}

	l.events.Emit(events.StakeWithdrawn,
		events.A("owner", d.Owner), events.A("depositId", id), events.A("amount", amount),
		events.A("balance", d.Balance), events.A("earningPower", d.EarningPower))
	return d, nil
}

// Refresh checkpoints the deposit and recomputes its earning power without other changes.
func (l *Ledger) Refresh(id types.DepositID) (*types.Deposit, error) {
	d, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if err := l.refresh(d); err != nil {
		return nil, err
	}
	return d, l.save(id, d)
}

// AlterDelegatee moves the deposit's tokens to the surrogate of newDelegatee.
func (l *Ledger) AlterDelegatee(caller thor.Address, id types.DepositID, newDelegatee thor.Address) error {
	d, err := l.Get(id)
	if err != nil {
		return err
	}
	if err := requireOwner(d, caller); err != nil {
		return err
	}
	old := d.Delegatee
	d.Delegatee = newDelegatee
	if err := l.refresh(d); err != nil {
		return err
	}
	if err := l.save(id, d); err != nil {
		return err
	}
	if err := l.token.Transfer(l.Surrogate(old), l.Surrogate(newDelegatee), d.Balance); err != nil {
		return err
	}
	l.events.Emit(events.DelegateeAltered,
		events.A("depositId", id), events.A("oldDelegatee", old), events.A("newDelegatee", newDelegatee),
		events.A("earningPower", d.EarningPower))
	return nil
}

// AlterClaimer sets who may claim the deposit's rewards.
func (l *Ledger) AlterClaimer(caller thor.Address, id types.DepositID, newClaimer thor.Address) error {
	if newClaimer.IsZero() {
		return reverts.Wrap(reverts.ErrInvalidAddress, "zero claimer")
	}
	d, err := l.Get(id)
	if err != nil {
		return err
	}
	if err := requireOwner(d, caller); err != nil {
		return err
	}
	old := d.Claimer
	d.Claimer = newClaimer
	if err := l.refresh(d); err != nil {
		return err
	}
	if err := l.save(id, d); err != nil {
		return err
	}
	l.events.Emit(events.ClaimerAltered,
		events.A("depositId", id), events.A("oldClaimer", old), events.A("newClaimer", newClaimer),
		events.A("earningPower", d.EarningPower))
	return nil
}

// ClaimReward pays out the deposit's unclaimed rewards to its claimer.
func (l *Ledger) ClaimReward(caller thor.Address, id types.DepositID) (*big.Int, error) {
	d, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if caller != d.Claimer && caller != d.Owner {
		return nil, reverts.Unauthorized("not claimer")
	}

	if err := l.checkpoint(d); err != nil {
		return nil, err
	}
	reward := new(big.Int).Quo(d.ScaledUnclaimedReward, ScaleFactor)
	if reward.Sign() == 0 {
		return reward, l.save(id, d)
	}
	d.ScaledUnclaimedReward.Sub(d.ScaledUnclaimedReward, new(big.Int).Mul(reward, ScaleFactor))

	power, err := l.oracle.GetEarningPower(d.Balance, d.Owner, d.Delegatee)
	if err != nil {
		return nil, errors.Wrap(err, "earning power oracle")
	}
	if err := l.setEarningPower(d, power); err != nil {
		return nil, err
	}
	if err := l.save(id, d); err != nil {
		return nil, err
	}
	if err := l.token.Transfer(l.pool, caller, reward); err != nil {
		return nil, err
	}
	l.events.Emit(events.RewardClaimed,
		events.A("depositId", id), events.A("claimer", caller), events.A("amount", reward),
		events.A("earningPower", d.EarningPower))
	return reward, nil
}

// BumpEarningPower lets anyone refresh a stale earning power for a tip taken from the
// deposit's unclaimed rewards.
func (l *Ledger) BumpEarningPower(caller thor.Address, id types.DepositID, tipReceiver thor.Address, tip *big.Int) error {
	if err := requireNonNegative(tip); err != nil {
		return err
	}
	maxTip := l.cfg.MaxBumpTip
	if tip.Cmp(maxTip) > 0 {
		return reverts.Wrap(reverts.ErrInvalidTip, fmt.Sprintf("%v exceeds %v", tip, maxTip))
	}
	d, err := l.Get(id)
	if err != nil {
		return err
	}
	if err := l.checkpoint(d); err != nil {
		return err
	}
	unclaimed := new(big.Int).Quo(d.ScaledUnclaimedReward, ScaleFactor)

	oldPower := new(big.Int).Set(d.EarningPower)
	power, qualified, err := l.oracle.GetNewEarningPower(d.Balance, d.Owner, d.Delegatee, oldPower)
	if err != nil {
		return errors.Wrap(err, "earning power oracle")
	}
	if !qualified || power.Cmp(oldPower) == 0 {
		return reverts.Wrap(reverts.ErrUnqualified, power.String())
	}
	if power.Cmp(oldPower) > 0 && unclaimed.Cmp(tip) < 0 {
		return reverts.Wrap(reverts.ErrInvalidTip, "insufficient unclaimed rewards")
	}
	if power.Cmp(oldPower) < 0 && new(big.Int).Sub(unclaimed, tip).Cmp(maxTip) < 0 {
		return reverts.Wrap(reverts.ErrInvalidTip, "insufficient unclaimed rewards")
	}

	if err := l.setEarningPower(d, power); err != nil {
		return err
	}
	d.ScaledUnclaimedReward.Sub(d.ScaledUnclaimedReward, new(big.Int).Mul(tip, ScaleFactor))
	if err := l.save(id, d); err != nil {
		return err
	}
	if err := l.token.Transfer(l.pool, tipReceiver, tip); err != nil {
		return err
	}
	l.events.Emit(events.EarningPowerBumped,
		events.A("depositId", id), events.A("oldEarningPower", oldPower), events.A("newEarningPower", power),
		events.A("bumper", caller), events.A("tipReceiver", tipReceiver), events.A("tip", tip))
	return nil
}
