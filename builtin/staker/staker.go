// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/builtin/staker/deposit"
	"github.com/vechain/stakeweight/builtin/staker/earning"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/builtin/staker/keystore"
	"github.com/vechain/stakeweight/builtin/staker/oracle"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/builtin/staker/vctx"
	"github.com/vechain/stakeweight/builtin/staker/weights"
	"github.com/vechain/stakeweight/builtin/token"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/thor"
)

var logger = log.WithContext("pkg", "staker")

func SetLogger(l log.Logger) {
	logger = l
}

// Registry is the validator registry kept in sync with validator weights.
type Registry interface {
	Address() thor.Address
	Add(owner thor.Address, isLeader, active bool, weight *big.Int, pubKey thor.PublicKey, pop thor.ProofOfPossession) error
	ChangeValidatorKey(owner thor.Address, pubKey thor.PublicKey, pop thor.ProofOfPossession) error
	ChangeValidatorWeight(owner thor.Address, weight *big.Int) error
	Remove(owner thor.Address) error
	ChangeValidatorLeader(owner thor.Address, isLeader bool) error
	CommitValidatorCommittee() error
	SetCommitteeActivationDelay(delay uint64) error
	UpdateLeaderSelection(frequency uint64, weighted bool) error
	// Status returns the registered public key and the removed flag of owner.
	Status(owner thor.Address) (thor.PublicKey, bool, error)
}

// OracleFactory builds the earning power oracle from the staker's validator context and key store.
type OracleFactory func(ctx vctx.Reader, keys oracle.KeyLookup) deposit.EarningPowerOracle

type Config struct {
	Deposit deposit.Config
	Oracle  OracleFactory // defaults to oracle.Identity
}

// Genesis holds the initial admin parameters.
type Genesis struct {
	Admin           thor.Address
	StakeAuthority  thor.Address
	WeightThreshold *big.Int
	IsLeaderDefault bool
	Registry        thor.Address
	RewardNotifiers []thor.Address
}

// Staker keeps validator weights, earning power and the validator registry consistent across
// all deposit operations.
type Staker struct {
	addr   thor.Address
	state  *state.State
	params *params

	weights  *weights.Ledger
	keys     *keystore.Store
	earning  *earning.Ledger
	deposits *deposit.Ledger

	vctx       *vctx.Context
	events     *events.Recorder
	registries map[thor.Address]Registry
}

// New creates a staker stored under addr. blockNum supplies the current block number.
func New(addr thor.Address, st *state.State, tok *token.Token, blockNum func() uint32, cfg Config) *Staker {
	sctx := solidity.NewContext(addr, st)

	s := &Staker{
		addr:       addr,
		state:      st,
		params:     newParams(sctx),
		weights:    weights.New(sctx),
		keys:       keystore.New(sctx),
		earning:    earning.New(sctx),
		vctx:       vctx.New(),
		events:     events.NewRecorder(addr),
		registries: make(map[thor.Address]Registry),
	}
	s.weights.SetCallbackListener(s.syncValidator)

	var o deposit.EarningPowerOracle = oracle.Identity{}
	if cfg.Oracle != nil {
		o = cfg.Oracle(s.vctx, s.keys)
	}
	s.deposits = deposit.New(sctx, tok, s.earning, o, s.events, blockNum, cfg.Deposit)
	return s
}

func (s *Staker) Address() thor.Address {
	return s.addr
}

// AddRegistry makes a registry implementation selectable by SetRegistry.
func (s *Staker) AddRegistry(r Registry) {
	s.registries[r.Address()] = r
}

// Initialize sets the genesis parameters. It fails once an admin is set.
func (s *Staker) Initialize(g *Genesis) error {
	return s.atomic("initialize", func() error {
		admin, err := s.params.admin.Get()
		if err != nil {
			return err
		}
		if !admin.IsZero() {
			return errors.New("staker already initialized")
		}
		if g.Admin.IsZero() {
			return reverts.Wrap(reverts.ErrInvalidAddress, "zero admin")
		}
		if _, ok := s.registries[g.Registry]; !ok {
			return reverts.UnknownRegistry(g.Registry.String())
		}
		threshold := g.WeightThreshold
		if threshold == nil {
			threshold = new(big.Int)
		}
		s.params.admin.Set(g.Admin)
		s.params.authority.Set(g.StakeAuthority)
		s.params.leaderDefault.Set(g.IsLeaderDefault)
		s.params.registry.Set(g.Registry)
		if err := s.params.threshold.Set(threshold); err != nil {
			return err
		}
		for _, n := range g.RewardNotifiers {
			if err := s.params.notifiers.Set(n, true); err != nil {
				return err
			}
			s.events.Emit(events.RewardNotifierSet, events.A("notifier", n), events.A("enabled", true))
		}

		var zero thor.Address
		s.events.Emit(events.AdminSet, events.A("old", zero), events.A("new", g.Admin))
		s.events.Emit(events.StakeAuthoritySet, events.A("old", zero), events.A("new", g.StakeAuthority))
		s.events.Emit(events.WeightThresholdSet, events.A("old", new(big.Int)), events.A("new", threshold))
		s.events.Emit(events.LeaderDefaultSet, events.A("old", false), events.A("new", g.IsLeaderDefault))
		s.events.Emit(events.RegistrySet, events.A("old", zero), events.A("new", g.Registry))
		return nil
	}, "admin", g.Admin, "registry", g.Registry)
}

// atomic runs fn as one all-or-nothing operation. On error every state change and event
// recorded by fn is discarded.
func (s *Staker) atomic(op string, fn func() error, ctx ...any) error {
	logger.Debug(op, ctx...)

	stateRev := s.state.NewCheckpoint()
	eventRev := s.events.Checkpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(stateRev)
		s.events.RevertTo(eventRev)
		logger.Info(op+" failed", append(ctx, "error", err)...)
		metricEntryCount().AddWithLabel(1, map[string]string{"op": op, "result": "failed"})
		return err
	}
	metricEntryCount().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	return nil
}

// DrainEvents returns the events of all committed operations since the last drain.
func (s *Staker) DrainEvents() []*events.Event {
	return s.events.Drain()
}

// ValidatorContext exposes the atomic validator context.
func (s *Staker) ValidatorContext() vctx.Reader {
	return s.vctx
}

//
// Getters - no state change
//

func (s *Staker) Params() (*Params, error) {
	return s.params.snapshot()
}

func (s *Staker) IsRewardNotifier(addr thor.Address) (bool, error) {
	return s.params.notifiers.Get(addr)
}

func (s *Staker) ValidatorStakeWeight(validator thor.Address) (*big.Int, error) {
	return s.weights.StakeWeight(validator)
}

func (s *Staker) ValidatorBonusWeight(validator thor.Address) (*big.Int, error) {
	return s.weights.BonusWeight(validator)
}

func (s *Staker) ValidatorTotalWeight(validator thor.Address) (*big.Int, error) {
	return s.weights.TotalWeight(validator)
}

func (s *Staker) ValidatorForDeposit(id types.DepositID) (thor.Address, error) {
	return s.weights.ValidatorFor(id)
}

// RegisteredValidators returns the keys declared by owner.
func (s *Staker) RegisteredValidators(owner thor.Address) (*keystore.Keys, error) {
	return s.keys.Get(owner)
}

func (s *Staker) TotalEarningPower() (*big.Int, error) {
	return s.earning.Total()
}

func (s *Staker) DepositorTotalEarningPower(owner thor.Address) (*big.Int, error) {
	return s.earning.Depositor(owner)
}

func (s *Staker) Deposit(id types.DepositID) (*types.Deposit, error) {
	return s.deposits.Get(id)
}

func (s *Staker) NextDepositID() (types.DepositID, error) {
	return s.deposits.NextID()
}

func (s *Staker) UnclaimedReward(id types.DepositID) (*big.Int, error) {
	return s.deposits.UnclaimedReward(id)
}

func (s *Staker) TotalStaked() (*big.Int, error) {
	return s.deposits.TotalStaked()
}

func (s *Staker) DepositorTotalStaked(owner thor.Address) (*big.Int, error) {
	return s.deposits.DepositorStaked(owner)
}

func (s *Staker) RewardState() (*deposit.RewardState, error) {
	return s.deposits.RewardState()
}

func (s *Staker) Surrogate(delegatee thor.Address) thor.Address {
	return s.deposits.Surrogate(delegatee)
}

// Registry returns the registry currently pointed to.
func (s *Staker) Registry() (Registry, error) {
	addr, err := s.params.registry.Get()
	if err != nil {
		return nil, err
	}
	r, ok := s.registries[addr]
	if !ok {
		return nil, reverts.UnknownRegistry(addr.String())
	}
	return r, nil
}
