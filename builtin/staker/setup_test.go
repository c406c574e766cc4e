// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/builtin/registry"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/builtin/token"
	"github.com/vechain/stakeweight/lvldb"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/thor"
)

var (
	stakerAddr   = thor.BytesToAddress([]byte("stkr"))
	tokenAddr    = thor.BytesToAddress([]byte("token"))
	registryAddr = thor.BytesToAddress([]byte("registry"))
)

// recordingRegistry records every mutating call made to the wrapped registry.
type recordingRegistry struct {
	*registry.Registry
	calls []string
	fail  map[string]error
}

func (r *recordingRegistry) record(call string) error {
	r.calls = append(r.calls, call)
	return r.fail[call]
}

func (r *recordingRegistry) Add(owner thor.Address, isLeader, active bool, weight *big.Int, pk thor.PublicKey, pop thor.ProofOfPossession) error {
	if err := r.record("add"); err != nil {
		return err
	}
	return r.Registry.Add(owner, isLeader, active, weight, pk, pop)
}

func (r *recordingRegistry) ChangeValidatorKey(owner thor.Address, pk thor.PublicKey, pop thor.ProofOfPossession) error {
	if err := r.record("changeValidatorKey"); err != nil {
		return err
	}
	return r.Registry.ChangeValidatorKey(owner, pk, pop)
}

func (r *recordingRegistry) ChangeValidatorWeight(owner thor.Address, weight *big.Int) error {
	if err := r.record("changeValidatorWeight"); err != nil {
		return err
	}
	return r.Registry.ChangeValidatorWeight(owner, weight)
}

func (r *recordingRegistry) Remove(owner thor.Address) error {
	if err := r.record("remove"); err != nil {
		return err
	}
	return r.Registry.Remove(owner)
}

func (r *recordingRegistry) reset() {
	r.calls = nil
}

type StakerTest struct {
	*Staker
	t        *testing.T
	token    *token.Token
	registry *recordingRegistry
	block    uint32

	admin     thor.Address
	authority thor.Address
	notifier  thor.Address
}

func newTest(t *testing.T, threshold int64, cfgs ...Config) *StakerTest {
	st := state.New(lvldb.NewMem())
	ts := &StakerTest{
		t:         t,
		token:     token.New(tokenAddr, st),
		block:     1,
		admin:     datagen.RandAddress(),
		authority: datagen.RandAddress(),
		notifier:  datagen.RandAddress(),
	}
	blockNum := func() uint32 { return ts.block }

	var cfg Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	ts.Staker = New(stakerAddr, st, ts.token, blockNum, cfg)
	ts.registry = &recordingRegistry{Registry: registry.New(registryAddr, st, blockNum), fail: map[string]error{}}
	ts.AddRegistry(ts.registry)

	require.NoError(t, ts.Initialize(&Genesis{
		Admin:           ts.admin,
		StakeAuthority:  ts.authority,
		WeightThreshold: big.NewInt(threshold),
		Registry:        registryAddr,
		RewardNotifiers: []thor.Address{ts.notifier},
	}))
	ts.DrainEvents()
	return ts
}

// fund mints amount to addr.
func (ts *StakerTest) fund(addr thor.Address, amount int64) {
	require.NoError(ts.t, ts.token.Mint(addr, big.NewInt(amount)))
}

// stake funds a new depositor and stakes amount to validator.
func (ts *StakerTest) stake(validator thor.Address, amount int64) (thor.Address, types.DepositID) {
	owner := datagen.RandAddress()
	ts.fund(owner, amount)
	id, err := ts.Stake(owner, big.NewInt(amount), owner, owner, validator)
	require.NoError(ts.t, err)
	return owner, id
}

// declareKeys registers random keys for validator, called by the validator itself.
func (ts *StakerTest) declareKeys(validator thor.Address) (thor.PublicKey, thor.ProofOfPossession) {
	pk, pop := datagen.RandKeys()
	require.NoError(ts.t, ts.RegisterOrChangeValidatorKey(validator, validator, pk, pop))
	return pk, pop
}

func (ts *StakerTest) tokenBalance(addr thor.Address) *big.Int {
	bal, err := ts.token.BalanceOf(addr)
	require.NoError(ts.t, err)
	return bal
}

type ValidatorAssertions struct {
	ts   *StakerTest
	addr thor.Address

	stakeWeight *big.Int
	bonusWeight *big.Int
	registered  *bool
	regWeight   *big.Int
}

func AssertValidator(ts *StakerTest, addr thor.Address) *ValidatorAssertions {
	return &ValidatorAssertions{ts: ts, addr: addr}
}

func (va *ValidatorAssertions) StakeWeight(expected int64) *ValidatorAssertions {
	va.stakeWeight = big.NewInt(expected)
	return va
}

func (va *ValidatorAssertions) BonusWeight(expected int64) *ValidatorAssertions {
	va.bonusWeight = big.NewInt(expected)
	return va
}

func (va *ValidatorAssertions) Registered(expected bool) *ValidatorAssertions {
	va.registered = &expected
	return va
}

// RegistryWeight asserts the weight recorded by the registry.
func (va *ValidatorAssertions) RegistryWeight(expected int64) *ValidatorAssertions {
	va.regWeight = big.NewInt(expected)
	return va
}

func (va *ValidatorAssertions) Assert(t *testing.T) {
	if va.stakeWeight != nil {
		w, err := va.ts.ValidatorStakeWeight(va.addr)
		require.NoError(t, err)
		assert.Equal(t, va.stakeWeight.String(), w.String(), "validator %s stake weight mismatch", va.addr)
	}
	if va.bonusWeight != nil {
		w, err := va.ts.ValidatorBonusWeight(va.addr)
		require.NoError(t, err)
		assert.Equal(t, va.bonusWeight.String(), w.String(), "validator %s bonus weight mismatch", va.addr)
	}

	v, err := va.ts.registry.Get(va.addr)
	require.NoError(t, err)
	if va.registered != nil {
		assert.Equal(t, *va.registered, !v.PubKey.IsZero() && !v.Removed, "validator %s registration mismatch", va.addr)
	}
	if va.regWeight != nil {
		assert.Equal(t, va.regWeight.String(), v.Weight.String(), "validator %s registry weight mismatch", va.addr)
	}
}
