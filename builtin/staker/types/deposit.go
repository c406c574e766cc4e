// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"math/big"
	"strconv"

	"github.com/vechain/stakeweight/thor"
)

// DepositID identifies a deposit. Ids are assigned sequentially from zero.
type DepositID uint64

func (id DepositID) Bytes() []byte {
	return new(big.Int).SetUint64(uint64(id)).Bytes()
}

func (id DepositID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Deposit is the base ledger's record of one stake position.
type Deposit struct {
	Balance                  *big.Int
	Owner                    thor.Address
	Delegatee                thor.Address
	Claimer                  thor.Address
	EarningPower             *big.Int // fits in 96 bits
	RewardPerTokenCheckpoint *big.Int
	ScaledUnclaimedReward    *big.Int
}

// Exists is false for ids that were never created.
func (d *Deposit) Exists() bool {
	return !d.Owner.IsZero()
}

// Normalize replaces nil amounts of a freshly decoded record.
func (d *Deposit) Normalize() *Deposit {
	for _, p := range []**big.Int{&d.Balance, &d.EarningPower, &d.RewardPerTokenCheckpoint, &d.ScaledUnclaimedReward} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
	return d
}
