// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps custody of the staking token: plain balances, mint and transfer.
package token

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/thor"
)

var (
	slotBalances    = thor.Blake2b([]byte("token-balances"))
	slotTotalSupply = thor.Blake2b([]byte("token-total-supply"))
)

type Token struct {
	balances *solidity.Mapping[thor.Address, *big.Int]
	supply   *solidity.Uint256
}

func New(addr thor.Address, st *state.State) *Token {
	sctx := solidity.NewContext(addr, st)
	return &Token{
		balances: solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		supply:   solidity.NewUint256(sctx, slotTotalSupply),
	}
}

func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

// Mint credits amount to addr and grows the supply.
func (t *Token) Mint(addr thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "negative mint")
	}
	bal, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	if err := t.supply.Add(amount); err != nil {
		return err
	}
	return t.balances.Set(addr, bal.Add(bal, amount))
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Wrap(reverts.ErrInvalidAmount, "negative transfer")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.InsufficientBalance(fmt.Sprintf("%v has %v, needs %v", from, fromBal, amount))
	}
	toBal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if err := t.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return t.balances.Set(to, toBal.Add(toBal, amount))
}
