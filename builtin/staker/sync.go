// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/builtin/staker/weights"
	"github.com/vechain/stakeweight/thor"
)

// registryCall counts and annotates a call into the registry.
func registryCall(call string, validator thor.Address, fn func() error) error {
	metricRegistryCalls().AddWithLabel(1, map[string]string{"call": call})
	if err := fn(); err != nil {
		return errors.WithMessagef(err, "registry %s %v", call, validator)
	}
	return nil
}

// inRegistry asks the registry whether validator is registered and not removed.
func inRegistry(reg Registry, validator thor.Address) (bool, error) {
	pubKey, removed, err := reg.Status(validator)
	if err != nil {
		return false, errors.WithMessage(err, "registry status")
	}
	return !pubKey.IsZero() && !removed, nil
}

// syncValidator is the weight changed hook. It brings the registry in line with the
// validator's current total weight.
func (s *Staker) syncValidator(validator thor.Address) error {
	weight, err := s.weights.TotalWeight(validator)
	if err != nil {
		return err
	}
	s.events.Emit(events.ValidatorTotalWeightUpdated, events.A("validator", validator), events.A("weight", weight))

	keys, err := s.keys.Get(validator)
	if err != nil {
		return err
	}
	if !keys.Declared() {
		return nil
	}

	reg, err := s.Registry()
	if err != nil {
		return err
	}
	registered, err := inRegistry(reg, validator)
	if err != nil {
		return err
	}
	p, err := s.params.snapshot()
	if err != nil {
		return err
	}

	transition := weights.Decide(registered, weight, p.WeightThreshold)
	if transition != weights.None {
		metricWeightChanges().AddWithLabel(1, map[string]string{"transition": transition.String()})
		logger.Debug("registry transition", "validator", validator, "transition", transition, "weight", weight)
	}

	switch transition {
	case weights.Add:
		return registryCall("add", validator, func() error {
			return reg.Add(validator, p.IsLeaderDefault, true, weight, keys.PubKey, keys.Pop)
		})
	case weights.Remove:
		return registryCall("remove", validator, func() error {
			return reg.Remove(validator)
		})
	case weights.Update:
		return registryCall("changeValidatorWeight", validator, func() error {
			return reg.ChangeValidatorWeight(validator, weight)
		})
	}
	return nil
}
