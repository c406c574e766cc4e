// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/staker/deposit"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/builtin/staker/oracle"
	"github.com/vechain/stakeweight/builtin/staker/vctx"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/thor"
)

func TestStaker_ThresholdCrossingViaStake(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()

	pk, _ := ts.declareKeys(validator)
	assert.Empty(t, ts.registry.calls, "keys alone must not register")

	ts.stake(validator, 1000)
	assert.Equal(t, []string{"add"}, ts.registry.calls)
	AssertValidator(ts, validator).StakeWeight(1000).Registered(true).RegistryWeight(1000).Assert(t)

	v, err := ts.registry.Get(validator)
	require.NoError(t, err)
	assert.Equal(t, pk, v.PubKey)
	assert.True(t, v.Active)
	assert.False(t, v.Leader)
}

func TestStaker_BonusOnlyRemoval(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)

	ts.stake(validator, 600)
	require.NoError(t, ts.SetBonusWeight(ts.authority, validator, big.NewInt(500)))
	AssertValidator(ts, validator).StakeWeight(600).BonusWeight(500).Registered(true).RegistryWeight(1100).Assert(t)

	ts.registry.reset()
	require.NoError(t, ts.SetBonusWeight(ts.authority, validator, big.NewInt(0)))
	assert.Equal(t, []string{"remove"}, ts.registry.calls)
	AssertValidator(ts, validator).BonusWeight(0).Registered(false).Assert(t)

	total, err := ts.ValidatorTotalWeight(validator)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), total)
}

func TestStaker_ReassignmentCrossingBothDirections(t *testing.T) {
	ts := newTest(t, 1000)
	a, b := datagen.RandAddress(), datagen.RandAddress()
	ts.declareKeys(a)
	ts.declareKeys(b)

	owner, id := ts.stake(a, 1000)
	AssertValidator(ts, a).Registered(true).Assert(t)
	AssertValidator(ts, b).Registered(false).Assert(t)

	ts.registry.reset()
	require.NoError(t, ts.AlterValidator(owner, id, b))
	assert.Equal(t, []string{"remove", "add"}, ts.registry.calls)

	AssertValidator(ts, a).StakeWeight(0).Registered(false).Assert(t)
	AssertValidator(ts, b).StakeWeight(1000).Registered(true).RegistryWeight(1000).Assert(t)

	got, err := ts.ValidatorForDeposit(id)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	evs := ts.DrainEvents()
	last := evs[len(evs)-1]
	assert.Equal(t, events.ValidatorAltered, last.Name)
	assert.Equal(t, a.String(), last.Args["oldValidator"])
	assert.Equal(t, b.String(), last.Args["newValidator"])
	assert.Equal(t, "1000", last.Args["earningPower"])
}

func TestStaker_UnauthorizedAlterValidator(t *testing.T) {
	ts := newTest(t, 1000)
	a, b := datagen.RandAddress(), datagen.RandAddress()
	ts.declareKeys(a)
	_, id := ts.stake(a, 1000)
	ts.DrainEvents()
	ts.registry.reset()

	err := ts.AlterValidator(datagen.RandAddress(), id, b)
	assert.True(t, reverts.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "not owner")

	AssertValidator(ts, a).StakeWeight(1000).Registered(true).Assert(t)
	AssertValidator(ts, b).StakeWeight(0).Assert(t)
	got, err := ts.ValidatorForDeposit(id)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Empty(t, ts.registry.calls)
	assert.Empty(t, ts.DrainEvents())
}

func TestStaker_NoOpReassignment(t *testing.T) {
	ts := newTest(t, 1000, Config{Oracle: func(ctx vctx.Reader, keys oracle.KeyLookup) deposit.EarningPowerOracle {
		return oracle.NewValidatorGated(ctx, keys)
	}})
	validator := datagen.RandAddress()

	owner, id := ts.stake(validator, 700)
	d, err := ts.Deposit(id)
	require.NoError(t, err)
	assert.Equal(t, 0, d.EarningPower.Sign(), "no keys, no earning power")

	ts.declareKeys(validator)
	require.NoError(t, ts.AlterValidator(owner, id, validator))

	AssertValidator(ts, validator).StakeWeight(700).Registered(false).Assert(t)
	d, err = ts.Deposit(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), d.EarningPower)

	total, err := ts.TotalEarningPower()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), total)
	sum, err := ts.DepositorTotalEarningPower(owner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), sum)
}

func TestStaker_KeyGating(t *testing.T) {
	ts := newTest(t, 100)
	validator := datagen.RandAddress()

	owner, id := ts.stake(validator, 500)
	require.NoError(t, ts.StakeMore(owner, id, big.NewInt(0)))
	require.NoError(t, ts.SetBonusWeight(ts.authority, validator, big.NewInt(50)))
	require.NoError(t, ts.Withdraw(owner, id, big.NewInt(450)))
	require.NoError(t, ts.AlterValidator(owner, id, datagen.RandAddress()))

	assert.Empty(t, ts.registry.calls)
	AssertValidator(ts, validator).StakeWeight(0).BonusWeight(50).Registered(false).Assert(t)
}

func TestStaker_ThresholdMonotonicity(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)

	owner, id := ts.stake(validator, 400)
	AssertValidator(ts, validator).Registered(false).Assert(t)

	ts.fund(owner, 2000)
	require.NoError(t, ts.StakeMore(owner, id, big.NewInt(600)))
	AssertValidator(ts, validator).Registered(true).RegistryWeight(1000).Assert(t)

	require.NoError(t, ts.StakeMore(owner, id, big.NewInt(300)))
	AssertValidator(ts, validator).Registered(true).RegistryWeight(1300).Assert(t)

	require.NoError(t, ts.Withdraw(owner, id, big.NewInt(301)))
	AssertValidator(ts, validator).Registered(false).RegistryWeight(1300).Assert(t)

	// re-crossing carries the current weight, not the last registered one
	require.NoError(t, ts.StakeMore(owner, id, big.NewInt(1001)))
	AssertValidator(ts, validator).StakeWeight(2000).Registered(true).RegistryWeight(2000).Assert(t)

	assert.Equal(t, []string{"add", "changeValidatorWeight", "remove", "add"}, ts.registry.calls)
}

func TestStaker_ExternalRemoval(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)
	owner, id := ts.stake(validator, 1000)

	// removed by a path the staker does not observe
	require.NoError(t, ts.registry.Registry.Remove(validator))

	ts.fund(owner, 5)
	ts.registry.reset()
	require.NoError(t, ts.StakeMore(owner, id, big.NewInt(5)))
	assert.Equal(t, []string{"add"}, ts.registry.calls)
	AssertValidator(ts, validator).Registered(true).RegistryWeight(1005).Assert(t)
}

func TestStaker_FullWithdrawalDeregisters(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)
	owner, id := ts.stake(validator, 1000)

	require.NoError(t, ts.Withdraw(owner, id, big.NewInt(1000)))
	AssertValidator(ts, validator).StakeWeight(0).Registered(false).Assert(t)
	assert.Equal(t, big.NewInt(1000), ts.tokenBalance(owner))

	d, err := ts.Deposit(id)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Balance.Sign())
}

func TestStaker_ZeroThreshold(t *testing.T) {
	ts := newTest(t, 0)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)
	AssertValidator(ts, validator).Registered(true).RegistryWeight(0).Assert(t)
}

func TestStaker_KeyChange(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)
	ts.stake(validator, 1000)
	ts.registry.reset()

	pk, pop := datagen.RandKeys()
	assert.True(t, reverts.IsUnauthorized(ts.RegisterOrChangeValidatorKey(datagen.RandAddress(), validator, pk, pop)))
	require.NoError(t, ts.RegisterOrChangeValidatorKey(ts.authority, validator, pk, pop))
	assert.Equal(t, []string{"changeValidatorKey", "changeValidatorWeight"}, ts.registry.calls)

	v, err := ts.registry.Get(validator)
	require.NoError(t, err)
	assert.Equal(t, pk, v.PubKey)
	keys, err := ts.RegisteredValidators(validator)
	require.NoError(t, err)
	assert.Equal(t, pop, keys.Pop)

	err = ts.RegisterOrChangeValidatorKey(validator, validator, thor.PublicKey{}, pop)
	assert.ErrorIs(t, err, reverts.ErrInvalidValidatorKeys)
	keys, err = ts.RegisteredValidators(validator)
	require.NoError(t, err)
	assert.Equal(t, pk, keys.PubKey)

	// the zero address never holds keys, so weight assigned to it stays off the registry
	err = ts.RegisterOrChangeValidatorKey(ts.authority, thor.Address{}, pk, pop)
	assert.ErrorIs(t, err, reverts.ErrInvalidAddress)
}

func TestStaker_RegistryFailureRollsBack(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)
	ts.DrainEvents()

	boom := errors.New("registry unavailable")
	ts.registry.fail["add"] = boom

	owner := datagen.RandAddress()
	ts.fund(owner, 1000)
	_, err := ts.Stake(owner, big.NewInt(1000), owner, owner, validator)
	assert.ErrorIs(t, err, boom)

	AssertValidator(ts, validator).StakeWeight(0).Registered(false).Assert(t)
	assert.Equal(t, big.NewInt(1000), ts.tokenBalance(owner))
	next, err := ts.NextDepositID()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), uint64(next))
	total, err := ts.TotalEarningPower()
	require.NoError(t, err)
	assert.Equal(t, 0, total.Sign())
	assert.Empty(t, ts.DrainEvents())
	assert.True(t, ts.ValidatorContext().Validator().IsZero())
}

// overflowOracle returns an earning power one bit wider than a deposit can hold.
type overflowOracle struct{ oracle.Identity }

func (overflowOracle) GetEarningPower(*big.Int, thor.Address, thor.Address) (*big.Int, error) {
	return new(big.Int).Lsh(big.NewInt(1), 96), nil
}

func TestStaker_EarningPowerOverflow(t *testing.T) {
	ts := newTest(t, 1000, Config{Oracle: func(vctx.Reader, oracle.KeyLookup) deposit.EarningPowerOracle {
		return overflowOracle{}
	}})
	owner := datagen.RandAddress()
	ts.fund(owner, 10)
	_, err := ts.Stake(owner, big.NewInt(10), owner, owner, datagen.RandAddress())
	assert.ErrorIs(t, err, reverts.ErrEarningPowerOverflow)
	assert.Equal(t, big.NewInt(10), ts.tokenBalance(owner))
}

// spyOracle records the validator context each time it is consulted.
type spyOracle struct {
	oracle.Identity
	ctx  vctx.Reader
	seen []thor.Address
}

func (o *spyOracle) GetEarningPower(balance *big.Int, owner, delegatee thor.Address) (*big.Int, error) {
	o.seen = append(o.seen, o.ctx.Validator())
	return o.Identity.GetEarningPower(balance, owner, delegatee)
}

// GetNewEarningPower reports one above the balance so a bump always qualifies.
func (o *spyOracle) GetNewEarningPower(balance *big.Int, _, _ thor.Address, oldPower *big.Int) (*big.Int, bool, error) {
	o.seen = append(o.seen, o.ctx.Validator())
	power := new(big.Int).Add(balance, big.NewInt(1))
	return power, power.Cmp(oldPower) != 0, nil
}

func TestStaker_ValidatorContext(t *testing.T) {
	spy := &spyOracle{}
	ts := newTest(t, 1000, Config{
		Oracle: func(ctx vctx.Reader, _ oracle.KeyLookup) deposit.EarningPowerOracle {
			spy.ctx = ctx
			return spy
		},
		Deposit: deposit.Config{RewardDuration: 100, MaxBumpTip: big.NewInt(5)},
	})
	a, b := datagen.RandAddress(), datagen.RandAddress()

	owner, id := ts.stake(a, 100)
	ts.fund(owner, 10)
	require.NoError(t, ts.StakeMore(owner, id, big.NewInt(10)))
	require.NoError(t, ts.AlterValidator(owner, id, b))
	require.NoError(t, ts.AlterClaimer(owner, id, datagen.RandAddress()))
	require.NoError(t, ts.Withdraw(owner, id, big.NewInt(10)))
	_, err := ts.ClaimReward(owner, id)
	require.NoError(t, err)

	ts.fund(ts.notifier, 1000)
	require.NoError(t, ts.NotifyRewardAmount(ts.notifier, big.NewInt(1000)))
	ts.block += 100
	require.NoError(t, ts.BumpEarningPower(datagen.RandAddress(), id, owner, big.NewInt(5)))

	assert.Equal(t, []thor.Address{a, a, b, b, b, b}, spy.seen)
	assert.True(t, ts.ValidatorContext().Validator().IsZero())
}

func TestStaker_StakeWithoutValidator(t *testing.T) {
	ts := newTest(t, 1000)
	validator := datagen.RandAddress()
	ts.declareKeys(validator)

	owner, id := ts.stake(thor.Address{}, 1000)
	ts.stake(thor.Address{}, 700)
	got, err := ts.ValidatorForDeposit(id)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	assert.Empty(t, ts.registry.calls)

	weight, err := ts.ValidatorStakeWeight(thor.Address{})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1700), weight)

	require.NoError(t, ts.AlterValidator(owner, id, validator))
	AssertValidator(ts, validator).StakeWeight(1000).Registered(true).Assert(t)
	weight, err = ts.ValidatorStakeWeight(thor.Address{})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), weight)
}

func TestStaker_Rewards(t *testing.T) {
	ts := newTest(t, 1000, Config{Deposit: deposit.Config{RewardDuration: 100, MaxBumpTip: big.NewInt(5)}})
	validator := datagen.RandAddress()
	owner, id := ts.stake(validator, 100)

	ts.fund(ts.notifier, 1000)
	assert.True(t, reverts.IsUnauthorized(ts.NotifyRewardAmount(owner, big.NewInt(1000))))
	require.NoError(t, ts.NotifyRewardAmount(ts.notifier, big.NewInt(1000)))

	ts.block += 100
	reward, err := ts.UnclaimedReward(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), reward)

	assert.ErrorIs(t, ts.BumpEarningPower(owner, id, owner, big.NewInt(1)), reverts.ErrUnqualified)

	claimed, err := ts.ClaimReward(owner, id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), claimed)
	assert.Equal(t, big.NewInt(1000), ts.tokenBalance(owner))
}
