// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry is a state backed validator registry. It stores validator keys and weights,
// leader flags and committed validator committees.
package registry

import (
	"fmt"
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/linkedlist"
	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/thor"
)

var (
	logger = log.WithContext("pkg", "registry")

	slotValidators      = thor.Blake2b([]byte("registry-validators"))
	slotListHead        = thor.Blake2b([]byte("registry-list-head"))
	slotListTail        = thor.Blake2b([]byte("registry-list-tail"))
	slotListSize        = thor.Blake2b([]byte("registry-list-size"))
	slotActivationDelay = thor.Blake2b([]byte("registry-activation-delay"))
	slotLeaderFrequency = thor.Blake2b([]byte("registry-leader-frequency"))
	slotLeaderWeighted  = thor.Blake2b([]byte("registry-leader-weighted"))
	slotEpoch           = thor.Blake2b([]byte("registry-epoch"))
	slotCommittees      = thor.Blake2b([]byte("registry-committees"))
)

type epochKey uint64

func (e epochKey) Bytes() []byte {
	return new(big.Int).SetUint64(uint64(e)).Bytes()
}

// Registry implements the validator registry consumed by the staker.
type Registry struct {
	addr            thor.Address
	validators      *solidity.Mapping[thor.Address, *Validator]
	members         *linkedlist.List
	activationDelay *solidity.Uint256
	leaderFrequency *solidity.Uint256
	leaderWeighted  *solidity.Bool
	epoch           *solidity.Uint256
	committees      *solidity.Mapping[epochKey, *Committee]
	blockNum        func() uint32
}

// New creates a registry stored under addr. blockNum supplies the current block number.
func New(addr thor.Address, st *state.State, blockNum func() uint32) *Registry {
	sctx := solidity.NewContext(addr, st)
	return &Registry{
		addr:            addr,
		validators:      solidity.NewMapping[thor.Address, *Validator](sctx, slotValidators),
		members:         linkedlist.New(sctx, slotListHead, slotListTail, slotListSize),
		activationDelay: solidity.NewUint256(sctx, slotActivationDelay),
		leaderFrequency: solidity.NewUint256(sctx, slotLeaderFrequency),
		leaderWeighted:  solidity.NewBool(sctx, slotLeaderWeighted),
		epoch:           solidity.NewUint256(sctx, slotEpoch),
		committees:      solidity.NewMapping[epochKey, *Committee](sctx, slotCommittees),
		blockNum:        blockNum,
	}
}

func (r *Registry) Address() thor.Address {
	return r.addr
}

// Get returns the record of owner; an unknown owner has zero keys.
func (r *Registry) Get(owner thor.Address) (*Validator, error) {
	v, err := r.validators.Get(owner)
	if err != nil {
		return nil, err
	}
	if v.Weight == nil {
		v.Weight = new(big.Int)
	}
	return v, nil
}

// Status returns the validator's registered public key and removed flag.
func (r *Registry) Status(owner thor.Address) (thor.PublicKey, bool, error) {
	v, err := r.Get(owner)
	if err != nil {
		return thor.PublicKey{}, false, err
	}
	return v.PubKey, v.Removed, nil
}

// live returns the record only if it is registered and not removed.
func (r *Registry) live(owner thor.Address) (*Validator, error) {
	v, err := r.Get(owner)
	if err != nil {
		return nil, err
	}
	if !v.exists() || v.Removed {
		return nil, reverts.Wrap(reverts.ErrValidatorNotFound, owner.String())
	}
	return v, nil
}

func checkKeys(pubKey thor.PublicKey, pop thor.ProofOfPossession) error {
	if pubKey.IsZero() || pop.IsZero() {
		return reverts.InvalidValidatorKeys()
	}
	return nil
}

// Add registers owner, or re-registers an owner that was removed.
func (r *Registry) Add(
	owner thor.Address,
	isLeader bool,
	active bool,
	weight *big.Int,
	pubKey thor.PublicKey,
	pop thor.ProofOfPossession,
) error {
	if owner.IsZero() {
		return reverts.Wrap(reverts.ErrInvalidAddress, "zero owner")
	}
	if err := checkKeys(pubKey, pop); err != nil {
		return err
	}
	v, err := r.Get(owner)
	if err != nil {
		return err
	}
	if v.exists() && !v.Removed {
		return reverts.Wrap(reverts.ErrValidatorExists, owner.String())
	}

	*v = Validator{
		Owner:   owner,
		PubKey:  pubKey,
		Pop:     pop,
		Weight:  new(big.Int).Set(weight),
		Active:  active,
		Leader:  isLeader,
		AddedAt: r.blockNum(),
	}
	if err := r.validators.Set(owner, v); err != nil {
		return err
	}
	logger.Debug("validator added", "owner", owner, "weight", weight, "leader", isLeader)
	return r.members.Push(owner)
}

func (r *Registry) ChangeValidatorKey(owner thor.Address, pubKey thor.PublicKey, pop thor.ProofOfPossession) error {
	if err := checkKeys(pubKey, pop); err != nil {
		return err
	}
	v, err := r.live(owner)
	if err != nil {
		return err
	}
	v.PubKey, v.Pop = pubKey, pop
	return r.validators.Set(owner, v)
}

func (r *Registry) ChangeValidatorWeight(owner thor.Address, weight *big.Int) error {
	if weight.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "negative weight")
	}
	v, err := r.live(owner)
	if err != nil {
		return err
	}
	v.Weight = new(big.Int).Set(weight)
	return r.validators.Set(owner, v)
}

func (r *Registry) ChangeValidatorLeader(owner thor.Address, isLeader bool) error {
	v, err := r.live(owner)
	if err != nil {
		return err
	}
	v.Leader = isLeader
	return r.validators.Set(owner, v)
}

// Remove flags owner as removed. Keys are kept so Status still reports them.
func (r *Registry) Remove(owner thor.Address) error {
	v, err := r.live(owner)
	if err != nil {
		return err
	}
	v.Removed = true
	v.Active = false
	if err := r.validators.Set(owner, v); err != nil {
		return err
	}
	logger.Debug("validator removed", "owner", owner)
	return r.members.Remove(owner)
}

// Validators lists the registered, non removed validators in registration order.
func (r *Registry) Validators() ([]*Validator, error) {
	owners, err := r.members.Addresses()
	if err != nil {
		return nil, err
	}
	out := make([]*Validator, 0, len(owners))
	for _, owner := range owners {
		v, err := r.Get(owner)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SetCommitteeActivationDelay sets the number of blocks between a commit and its activation.
func (r *Registry) SetCommitteeActivationDelay(delay uint64) error {
	if delay > math.MaxUint32 {
		return reverts.Wrap(reverts.ErrInvalidAmount, fmt.Sprintf("activation delay %d exceeds block range", delay))
	}
	return r.activationDelay.Set(new(big.Int).SetUint64(delay))
}

func (r *Registry) CommitteeActivationDelay() (uint64, error) {
	delay, err := r.activationDelay.Get()
	if err != nil {
		return 0, err
	}
	return delay.Uint64(), nil
}

func (r *Registry) UpdateLeaderSelection(frequency uint64, weighted bool) error {
	if frequency == 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "zero leader frequency")
	}
	if err := r.leaderFrequency.Set(new(big.Int).SetUint64(frequency)); err != nil {
		return err
	}
	r.leaderWeighted.Set(weighted)
	return nil
}

func (r *Registry) LeaderSelection() (*LeaderSelection, error) {
	freq, err := r.leaderFrequency.Get()
	if err != nil {
		return nil, err
	}
	weighted, err := r.leaderWeighted.Get()
	if err != nil {
		return nil, err
	}
	return &LeaderSelection{Frequency: freq.Uint64(), Weighted: weighted}, nil
}

// CommitValidatorCommittee snapshots the active validators into a new epoch committee
// which takes effect after the activation delay.
func (r *Registry) CommitValidatorCommittee() error {
	validators, err := r.Validators()
	if err != nil {
		return err
	}
	delay, err := r.CommitteeActivationDelay()
	if err != nil {
		return err
	}
	epoch, err := r.epoch.Get()
	if err != nil {
		return err
	}
	next := epoch.Uint64() + 1

	block := r.blockNum()
	if delay > uint64(math.MaxUint32-block) {
		return reverts.Wrap(reverts.ErrInvalidAmount, fmt.Sprintf("activation block %d+%d overflows", block, delay))
	}
	committee := &Committee{
		Epoch:           next,
		Block:           block,
		ActivationBlock: block + uint32(delay),
		TotalWeight:     new(big.Int),
	}
	for _, v := range validators {
		if !v.Active {
			continue
		}
		committee.Members = append(committee.Members, Member{Owner: v.Owner, Weight: v.Weight, Leader: v.Leader})
		committee.TotalWeight.Add(committee.TotalWeight, v.Weight)
	}
	if len(committee.Members) == 0 {
		return errors.New("no active validators to commit")
	}

	if err := r.committees.Set(epochKey(next), committee); err != nil {
		return err
	}
	logger.Info("committee committed", "epoch", next, "members", len(committee.Members), "activation", committee.ActivationBlock)
	return r.epoch.Set(new(big.Int).SetUint64(next))
}

// Committee returns the committee of the given epoch, or nil if none. Epoch 0 means the latest.
func (r *Registry) Committee(epoch uint64) (*Committee, error) {
	if epoch == 0 {
		latest, err := r.epoch.Get()
		if err != nil {
			return nil, err
		}
		epoch = latest.Uint64()
	}
	if epoch == 0 {
		return nil, nil
	}
	c, err := r.committees.Get(epochKey(epoch))
	if err != nil {
		return nil, err
	}
	if c.Epoch == 0 {
		return nil, nil
	}
	return c, nil
}
