// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events buffers the events emitted by staker operations until the operation commits.
package events

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeweight/thor"
)

// Event signatures. The first topic of an event is the Keccak256 of its signature.
const (
	ValidatorTotalWeightUpdated = "ValidatorTotalWeightUpdated(address,uint256)"
	ValidatorAltered            = "ValidatorAltered(uint256,address,address,uint96)"
	ValidatorKeysSet            = "ValidatorKeysSet(address,bytes,bytes)"
	BonusWeightSet              = "BonusWeightSet(address,uint256)"
	WeightThresholdSet          = "ValidatorWeightThresholdSet(uint256,uint256)"
	LeaderDefaultSet            = "IsLeaderDefaultSet(bool,bool)"
	StakeAuthoritySet           = "ValidatorStakeAuthoritySet(address,address)"
	RegistrySet                 = "RegistrySet(address,address)"
	AdminSet                    = "AdminSet(address,address)"
	RewardNotifierSet           = "RewardNotifierSet(address,bool)"

	StakeDeposited     = "StakeDeposited(address,uint256,uint256,uint256,uint256)"
	StakeWithdrawn     = "StakeWithdrawn(address,uint256,uint256,uint256,uint256)"
	ClaimerAltered     = "ClaimerAltered(uint256,address,address,uint256)"
	DelegateeAltered   = "DelegateeAltered(uint256,address,address,uint256)"
	RewardClaimed      = "RewardClaimed(uint256,address,uint256,uint256)"
	RewardNotified     = "RewardNotified(uint256,address)"
	EarningPowerBumped = "EarningPowerBumped(uint256,uint256,uint256,address,address,uint256)"
)

// Event is one emitted log.
type Event struct {
	Address thor.Address
	Name    string
	Topic   thor.Bytes32
	Args    map[string]string
}

// Arg is a named event argument.
type Arg struct {
	Name  string
	Value any
}

func A(name string, value any) Arg {
	return Arg{Name: name, Value: value}
}

func format(v any) string {
	switch v := v.(type) {
	case *big.Int:
		if v == nil {
			return "0"
		}
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Recorder collects events with revision support mirroring state checkpoints.
type Recorder struct {
	addr    thor.Address
	pending []*Event
}

func NewRecorder(addr thor.Address) *Recorder {
	return &Recorder{addr: addr}
}

// Emit records an event named by its signature.
func (r *Recorder) Emit(signature string, args ...Arg) {
	ev := &Event{
		Address: r.addr,
		Name:    signature,
		Topic:   thor.Keccak256([]byte(signature)),
		Args:    make(map[string]string, len(args)),
	}
	for _, a := range args {
		ev.Args[a.Name] = format(a.Value)
	}
	r.pending = append(r.pending, ev)
}

func (r *Recorder) Checkpoint() int {
	return len(r.pending)
}

func (r *Recorder) RevertTo(revision int) {
	if revision < len(r.pending) {
		r.pending = r.pending[:revision]
	}
}

// Drain returns and forgets all recorded events.
func (r *Recorder) Drain() []*Event {
	out := r.pending
	r.pending = nil
	return out
}

// Pending returns the recorded events without draining them.
func (r *Recorder) Pending() []*Event {
	return r.pending
}
