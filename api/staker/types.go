// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeweight/thor"
)

func hexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func bigOf(v *math.HexOrDecimal256) *big.Int {
	return (*big.Int)(v)
}

type Params struct {
	Admin           thor.Address          `json:"admin"`
	StakeAuthority  thor.Address          `json:"stakeAuthority"`
	WeightThreshold *math.HexOrDecimal256 `json:"weightThreshold"`
	IsLeaderDefault bool                  `json:"isLeaderDefault"`
	Registry        thor.Address          `json:"registry"`
}

type Validator struct {
	Address     thor.Address            `json:"address"`
	StakeWeight *math.HexOrDecimal256   `json:"stakeWeight"`
	BonusWeight *math.HexOrDecimal256   `json:"bonusWeight"`
	TotalWeight *math.HexOrDecimal256   `json:"totalWeight"`
	PubKey      *thor.PublicKey         `json:"pubKey"`
	Pop         *thor.ProofOfPossession `json:"pop"`
}

type Deposit struct {
	ID              uint64                `json:"id"`
	Owner           thor.Address          `json:"owner"`
	Delegatee       thor.Address          `json:"delegatee"`
	Claimer         thor.Address          `json:"claimer"`
	Validator       thor.Address          `json:"validator"`
	Surrogate       thor.Address          `json:"surrogate"`
	Balance         *math.HexOrDecimal256 `json:"balance"`
	EarningPower    *math.HexOrDecimal256 `json:"earningPower"`
	UnclaimedReward *math.HexOrDecimal256 `json:"unclaimedReward"`
}

type Depositor struct {
	Address      thor.Address          `json:"address"`
	Staked       *math.HexOrDecimal256 `json:"staked"`
	EarningPower *math.HexOrDecimal256 `json:"earningPower"`
}

type Totals struct {
	Staked        *math.HexOrDecimal256 `json:"staked"`
	EarningPower  *math.HexOrDecimal256 `json:"earningPower"`
	NextDepositID uint64                `json:"nextDepositId"`
}

type RewardState struct {
	ScaledRewardRate    *math.HexOrDecimal256 `json:"scaledRewardRate"`
	RewardEndBlock      uint32                `json:"rewardEndBlock"`
	LastCheckpointBlock uint32                `json:"lastCheckpointBlock"`
	RewardPerToken      *math.HexOrDecimal256 `json:"rewardPerToken"`
}

type StakeRequest struct {
	Caller    thor.Address          `json:"caller"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Delegatee thor.Address          `json:"delegatee"`
	Claimer   thor.Address          `json:"claimer"`
	Validator thor.Address          `json:"validator"`
}

type StakeResponse struct {
	DepositID uint64 `json:"depositId"`
}

type CallerRequest struct {
	Caller thor.Address `json:"caller"`
}

type AmountRequest struct {
	Caller thor.Address          `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type AddressRequest struct {
	Caller  thor.Address `json:"caller"`
	Address thor.Address `json:"address"`
}

type FlagRequest struct {
	Caller  thor.Address `json:"caller"`
	Enabled bool         `json:"enabled"`
}

type NotifierRequest struct {
	Caller   thor.Address `json:"caller"`
	Notifier thor.Address `json:"notifier"`
	Enabled  bool         `json:"enabled"`
}

type KeysRequest struct {
	Caller thor.Address           `json:"caller"`
	PubKey thor.PublicKey         `json:"pubKey"`
	Pop    thor.ProofOfPossession `json:"pop"`
}

type BumpRequest struct {
	Caller      thor.Address          `json:"caller"`
	TipReceiver thor.Address          `json:"tipReceiver"`
	Tip         *math.HexOrDecimal256 `json:"tip"`
}

type ClaimResponse struct {
	Reward *math.HexOrDecimal256 `json:"reward"`
}

type DelayRequest struct {
	Caller thor.Address `json:"caller"`
	Delay  uint64       `json:"delay"`
}

type LeaderSelectionRequest struct {
	Caller    thor.Address `json:"caller"`
	Frequency uint64       `json:"frequency"`
	Weighted  bool         `json:"weighted"`
}
