// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/thor"
)

// SetAdmin hands the admin role to newAdmin.
func (s *Staker) SetAdmin(caller, newAdmin thor.Address) error {
	return s.atomic("setAdmin", func() error {
		if err := s.params.requireAdmin(caller); err != nil {
			return err
		}
		if newAdmin.IsZero() {
			return reverts.Wrap(reverts.ErrInvalidAddress, "zero admin")
		}
		old, err := s.params.admin.Get()
		if err != nil {
			return err
		}
		s.params.admin.Set(newAdmin)
		s.events.Emit(events.AdminSet, events.A("old", old), events.A("new", newAdmin))
		return nil
	}, "caller", caller, "admin", newAdmin)
}

func (s *Staker) SetValidatorStakeAuthority(caller, authority thor.Address) error {
	return s.atomic("setValidatorStakeAuthority", func() error {
		if err := s.params.requireAdmin(caller); err != nil {
			return err
		}
		old, err := s.params.authority.Get()
		if err != nil {
			return err
		}
		s.params.authority.Set(authority)
		s.events.Emit(events.StakeAuthoritySet, events.A("old", old), events.A("new", authority))
		return nil
	}, "caller", caller, "authority", authority)
}

// SetValidatorWeightThreshold changes the registry activation threshold. Validators are
// re-evaluated on their next weight change.
func (s *Staker) SetValidatorWeightThreshold(caller thor.Address, threshold *big.Int) error {
	return s.atomic("setValidatorWeightThreshold", func() error {
		if err := s.params.requireAdmin(caller); err != nil {
			return err
		}
		if err := requireAmount(threshold); err != nil {
			return err
		}
		old, err := s.params.threshold.Get()
		if err != nil {
			return err
		}
		if err := s.params.threshold.Set(threshold); err != nil {
			return err
		}
		s.events.Emit(events.WeightThresholdSet, events.A("old", old), events.A("new", threshold))
		return nil
	}, "caller", caller, "threshold", threshold)
}

// SetRegistry points the staker at a known registry.
func (s *Staker) SetRegistry(caller, registry thor.Address) error {
	return s.atomic("setRegistry", func() error {
		if err := s.params.requireAdmin(caller); err != nil {
			return err
		}
		if _, ok := s.registries[registry]; !ok {
			return reverts.UnknownRegistry(registry.String())
		}
		old, err := s.params.registry.Get()
		if err != nil {
			return err
		}
		s.params.registry.Set(registry)
		s.events.Emit(events.RegistrySet, events.A("old", old), events.A("new", registry))
		return nil
	}, "caller", caller, "registry", registry)
}

func (s *Staker) SetRewardNotifier(caller, notifier thor.Address, enabled bool) error {
	return s.atomic("setRewardNotifier", func() error {
		if err := s.params.requireAdmin(caller); err != nil {
			return err
		}
		if err := s.params.notifiers.Set(notifier, enabled); err != nil {
			return err
		}
		s.events.Emit(events.RewardNotifierSet, events.A("notifier", notifier), events.A("enabled", enabled))
		return nil
	}, "caller", caller, "notifier", notifier, "enabled", enabled)
}

func (s *Staker) SetIsLeaderDefault(caller thor.Address, isLeader bool) error {
	return s.atomic("setIsLeaderDefault", func() error {
		if err := s.params.requireAuthority(caller); err != nil {
			return err
		}
		old, err := s.params.leaderDefault.Get()
		if err != nil {
			return err
		}
		s.params.leaderDefault.Set(isLeader)
		s.events.Emit(events.LeaderDefaultSet, events.A("old", old), events.A("new", isLeader))
		return nil
	}, "caller", caller, "isLeader", isLeader)
}

// SetBonusWeight overwrites the bonus weight of validator and syncs the registry.
func (s *Staker) SetBonusWeight(caller, validator thor.Address, weight *big.Int) error {
	return s.atomic("setBonusWeight", func() error {
		if err := s.params.requireAuthority(caller); err != nil {
			return err
		}
		if err := s.weights.SetBonusWeight(validator, weight); err != nil {
			return err
		}
		s.events.Emit(events.BonusWeightSet, events.A("validator", validator), events.A("weight", weight))
		return nil
	}, "caller", caller, "validator", validator, "weight", weight)
}

// RegisterOrChangeValidatorKey declares or replaces owner's keys. A registered validator gets
// its registry keys updated, then the registry is synced with its weight.
func (s *Staker) RegisterOrChangeValidatorKey(caller, owner thor.Address, pubKey thor.PublicKey, pop thor.ProofOfPossession) error {
	return s.atomic("registerOrChangeValidatorKey", func() error {
		if owner.IsZero() {
			return reverts.Wrap(reverts.ErrInvalidAddress, "zero owner")
		}
		if caller != owner {
			ok, err := s.params.isAuthority(caller)
			if err != nil {
				return err
			}
			if !ok {
				return reverts.Unauthorized("not validator owner or authority")
			}
		}
		if err := s.keys.Set(owner, pubKey, pop); err != nil {
			return err
		}
		s.events.Emit(events.ValidatorKeysSet, events.A("owner", owner), events.A("pubKey", pubKey), events.A("pop", pop))

		reg, err := s.Registry()
		if err != nil {
			return err
		}
		registered, err := inRegistry(reg, owner)
		if err != nil {
			return err
		}
		if registered {
			if err := registryCall("changeValidatorKey", owner, func() error {
				return reg.ChangeValidatorKey(owner, pubKey, pop)
			}); err != nil {
				return err
			}
		}
		return s.syncValidator(owner)
	}, "caller", caller, "owner", owner)
}

// passThrough checks the stake authority and forwards call to the registry.
func (s *Staker) passThrough(op string, caller thor.Address, call func(Registry) error, ctx ...any) error {
	return s.atomic(op, func() error {
		if err := s.params.requireAuthority(caller); err != nil {
			return err
		}
		reg, err := s.Registry()
		if err != nil {
			return err
		}
		return registryCall(op, thor.Address{}, func() error { return call(reg) })
	}, append([]any{"caller", caller}, ctx...)...)
}

func (s *Staker) ChangeValidatorLeader(caller, owner thor.Address, isLeader bool) error {
	return s.passThrough("changeValidatorLeader", caller, func(r Registry) error {
		return r.ChangeValidatorLeader(owner, isLeader)
	}, "owner", owner, "isLeader", isLeader)
}

func (s *Staker) CommitValidatorCommittee(caller thor.Address) error {
	return s.passThrough("commitValidatorCommittee", caller, func(r Registry) error {
		return r.CommitValidatorCommittee()
	})
}

func (s *Staker) SetCommitteeActivationDelay(caller thor.Address, delay uint64) error {
	return s.passThrough("setCommitteeActivationDelay", caller, func(r Registry) error {
		return r.SetCommitteeActivationDelay(delay)
	}, "delay", delay)
}

func (s *Staker) UpdateLeaderSelection(caller thor.Address, frequency uint64, weighted bool) error {
	return s.passThrough("updateLeaderSelection", caller, func(r Registry) error {
		return r.UpdateLeaderSelection(frequency, weighted)
	}, "frequency", frequency, "weighted", weighted)
}
