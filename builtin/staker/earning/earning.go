// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package earning

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/thor"
)

// MaxBits is the width of a deposit's earning power field.
const MaxBits = 96

var (
	slotTotal       = thor.BytesToBytes32([]byte("total-earning-power"))
	slotByDepositor = thor.BytesToBytes32([]byte("depositor-earning-power"))
)

// Ledger keeps the global and per depositor earning power sums.
type Ledger struct {
	total       *solidity.Uint256
	byDepositor *solidity.Mapping[thor.Address, *big.Int]
}

func New(sctx *solidity.Context) *Ledger {
	return &Ledger{
		total:       solidity.NewUint256(sctx, slotTotal),
		byDepositor: solidity.NewMapping[thor.Address, *big.Int](sctx, slotByDepositor),
	}
}

func (l *Ledger) Total() (*big.Int, error) {
	return l.total.Get()
}

func (l *Ledger) Depositor(owner thor.Address) (*big.Int, error) {
	return l.byDepositor.Get(owner)
}

// Narrow checks that value fits the deposit field.
func Narrow(value *big.Int) (*big.Int, error) {
	if value.Sign() < 0 || value.BitLen() > MaxBits {
		return nil, reverts.EarningPowerOverflow(fmt.Sprintf("%v does not fit in uint%d", value, MaxBits))
	}
	return new(big.Int).Set(value), nil
}

// Recompute replaces oldPower by newPower in both sums and returns the narrowed value the
// caller stores in the deposit. Nothing is written when narrowing fails.
func (l *Ledger) Recompute(owner thor.Address, oldPower, newPower *big.Int) (*big.Int, error) {
	narrowed, err := Narrow(newPower)
	if err != nil {
		return nil, err
	}

	total, err := l.total.Get()
	if err != nil {
		return nil, err
	}
	total.Sub(total, oldPower).Add(total, narrowed)
	if err := l.total.Set(total); err != nil {
		return nil, err
	}

	sum, err := l.byDepositor.Get(owner)
	if err != nil {
		return nil, err
	}
	sum.Sub(sum, oldPower).Add(sum, narrowed)
	if sum.Sign() < 0 {
		return nil, fmt.Errorf("depositor %v earning power below zero", owner)
	}
	if err := l.byDepositor.Set(owner, sum); err != nil {
		return nil, err
	}
	return narrowed, nil
}
