// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deposit

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/thor"
)

// EarningPowerOracle computes the reward eligibility of a deposit.
type EarningPowerOracle interface {
	GetEarningPower(balance *big.Int, owner, delegatee thor.Address) (*big.Int, error)
	// GetNewEarningPower also reports whether the change qualifies for an incentivized bump.
	GetNewEarningPower(balance *big.Int, owner, delegatee thor.Address, oldPower *big.Int) (*big.Int, bool, error)
}

// CapPolicy limits the balance of a single deposit.
type CapPolicy interface {
	Check(owner thor.Address, newBalance *big.Int) error
}

// SurrogatePolicy resolves the address holding the tokens delegated to delegatee.
type SurrogatePolicy interface {
	Surrogate(delegatee thor.Address) thor.Address
}

type NoCap struct{}

func (NoCap) Check(thor.Address, *big.Int) error { return nil }

// MaxBalance rejects deposits whose balance would exceed Limit.
type MaxBalance struct {
	Limit *big.Int
}

func (m MaxBalance) Check(owner thor.Address, newBalance *big.Int) error {
	if newBalance.Cmp(m.Limit) > 0 {
		return reverts.Wrap(reverts.ErrCapExceeded, fmt.Sprintf("%v: %v > %v", owner, newBalance, m.Limit))
	}
	return nil
}

// HashedSurrogates derives one custody address per delegatee.
type HashedSurrogates struct{}

func (HashedSurrogates) Surrogate(delegatee thor.Address) thor.Address {
	h := thor.Blake2b([]byte("surrogate"), delegatee.Bytes())
	return thor.BytesToAddress(h[12:])
}
