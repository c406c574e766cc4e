// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/builtin/staker/types"
	"github.com/vechain/stakeweight/node"
)

type Staker struct {
	node *node.Node
}

func New(n *node.Node) *Staker {
	return &Staker{node: n}
}

func parse[T any](r *http.Request) (*T, error) {
	var req T
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return nil, restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	return &req, nil
}

func depositID(r *http.Request) (types.DepositID, error) {
	id, err := restutil.Uint64Var(r, "id")
	return types.DepositID(id), err
}

func (s *Staker) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	var out Params
	if err := s.node.View(func(c *node.Contracts) error {
		p, err := c.Staker.Params()
		if err != nil {
			return err
		}
		out = Params{
			Admin:           p.Admin,
			StakeAuthority:  p.StakeAuthority,
			WeightThreshold: hexOrDecimal(p.WeightThreshold),
			IsLeaderDefault: p.IsLeaderDefault,
			Registry:        p.Registry,
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staker) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	var out Totals
	if err := s.node.View(func(c *node.Contracts) error {
		staked, err := c.Staker.TotalStaked()
		if err != nil {
			return err
		}
		power, err := c.Staker.TotalEarningPower()
		if err != nil {
			return err
		}
		next, err := c.Staker.NextDepositID()
		if err != nil {
			return err
		}
		out = Totals{Staked: hexOrDecimal(staked), EarningPower: hexOrDecimal(power), NextDepositID: uint64(next)}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staker) handleGetRewardState(w http.ResponseWriter, _ *http.Request) error {
	var out RewardState
	if err := s.node.View(func(c *node.Contracts) error {
		rs, err := c.Staker.RewardState()
		if err != nil {
			return err
		}
		out = RewardState{
			ScaledRewardRate:    hexOrDecimal(rs.ScaledRewardRate),
			RewardEndBlock:      rs.RewardEndBlock,
			LastCheckpointBlock: rs.LastCheckpointBlock,
			RewardPerToken:      hexOrDecimal(rs.RewardPerToken),
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staker) handleGetValidator(w http.ResponseWriter, r *http.Request) error {
	addr, err := restutil.AddressVar(r, "address")
	if err != nil {
		return err
	}
	out := Validator{Address: addr}
	if err := s.node.View(func(c *node.Contracts) error {
		stake, err := c.Staker.ValidatorStakeWeight(addr)
		if err != nil {
			return err
		}
		bonus, err := c.Staker.ValidatorBonusWeight(addr)
		if err != nil {
			return err
		}
		total, err := c.Staker.ValidatorTotalWeight(addr)
		if err != nil {
			return err
		}
		keys, err := c.Staker.RegisteredValidators(addr)
		if err != nil {
			return err
		}
		out.StakeWeight = hexOrDecimal(stake)
		out.BonusWeight = hexOrDecimal(bonus)
		out.TotalWeight = hexOrDecimal(total)
		if keys.Declared() {
			out.PubKey, out.Pop = &keys.PubKey, &keys.Pop
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staker) handleGetDeposit(w http.ResponseWriter, r *http.Request) error {
	id, err := depositID(r)
	if err != nil {
		return err
	}
	var out Deposit
	if err := s.node.View(func(c *node.Contracts) error {
		d, err := c.Staker.Deposit(id)
		if err != nil {
			return err
		}
		validator, err := c.Staker.ValidatorForDeposit(id)
		if err != nil {
			return err
		}
		unclaimed, err := c.Staker.UnclaimedReward(id)
		if err != nil {
			return err
		}
		out = Deposit{
			ID:              uint64(id),
			Owner:           d.Owner,
			Delegatee:       d.Delegatee,
			Claimer:         d.Claimer,
			Validator:       validator,
			Surrogate:       c.Staker.Surrogate(d.Delegatee),
			Balance:         hexOrDecimal(d.Balance),
			EarningPower:    hexOrDecimal(d.EarningPower),
			UnclaimedReward: hexOrDecimal(unclaimed),
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staker) handleGetDepositor(w http.ResponseWriter, r *http.Request) error {
	addr, err := restutil.AddressVar(r, "address")
	if err != nil {
		return err
	}
	out := Depositor{Address: addr}
	if err := s.node.View(func(c *node.Contracts) error {
		staked, err := c.Staker.DepositorTotalStaked(addr)
		if err != nil {
			return err
		}
		power, err := c.Staker.DepositorTotalEarningPower(addr)
		if err != nil {
			return err
		}
		out.Staked, out.EarningPower = hexOrDecimal(staked), hexOrDecimal(power)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staker) handleStake(w http.ResponseWriter, r *http.Request) error {
	req, err := parse[StakeRequest](r)
	if err != nil {
		return err
	}
	var id types.DepositID
	if err := s.node.Exec(r.Context(), func(c *node.Contracts) (err error) {
		id, err = c.Staker.Stake(req.Caller, bigOf(req.Amount), req.Delegatee, req.Claimer, req.Validator)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &StakeResponse{DepositID: uint64(id)})
}

// depositAmountOp handles the deposit operations taking an amount.
func (s *Staker) depositAmountOp(op func(c *node.Contracts, req *AmountRequest, id types.DepositID) error) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := depositID(r)
		if err != nil {
			return err
		}
		req, err := parse[AmountRequest](r)
		if err != nil {
			return err
		}
		if err := s.node.Exec(r.Context(), func(c *node.Contracts) error { return op(c, req, id) }); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// depositAddressOp handles the deposit operations taking an address.
func (s *Staker) depositAddressOp(op func(c *node.Contracts, req *AddressRequest, id types.DepositID) error) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := depositID(r)
		if err != nil {
			return err
		}
		req, err := parse[AddressRequest](r)
		if err != nil {
			return err
		}
		if err := s.node.Exec(r.Context(), func(c *node.Contracts) error { return op(c, req, id) }); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func (s *Staker) handleClaim(w http.ResponseWriter, r *http.Request) error {
	id, err := depositID(r)
	if err != nil {
		return err
	}
	req, err := parse[CallerRequest](r)
	if err != nil {
		return err
	}
	var reward *big.Int
	if err := s.node.Exec(r.Context(), func(c *node.Contracts) (err error) {
		reward, err = c.Staker.ClaimReward(req.Caller, id)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &ClaimResponse{Reward: hexOrDecimal(reward)})
}

func (s *Staker) handleBump(w http.ResponseWriter, r *http.Request) error {
	id, err := depositID(r)
	if err != nil {
		return err
	}
	req, err := parse[BumpRequest](r)
	if err != nil {
		return err
	}
	if err := s.node.Exec(r.Context(), func(c *node.Contracts) error {
		return c.Staker.BumpEarningPower(req.Caller, id, req.TipReceiver, bigOf(req.Tip))
	}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// execOp handles operations that respond no content.
func execOp[T any](s *Staker, op func(c *node.Contracts, req *T, r *http.Request) error) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		req, err := parse[T](r)
		if err != nil {
			return err
		}
		if err := s.node.Exec(r.Context(), func(c *node.Contracts) error { return op(c, req, r) }); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func (s *Staker) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	get := func(path string, h restutil.HandlerFunc) {
		sub.Path(path).Methods(http.MethodGet).Name("GET " + pathPrefix + path).HandlerFunc(restutil.WrapHandlerFunc(h))
	}
	post := func(path string, h restutil.HandlerFunc) {
		sub.Path(path).Methods(http.MethodPost).Name("POST " + pathPrefix + path).HandlerFunc(restutil.WrapHandlerFunc(h))
	}

	get("/params", s.handleGetParams)
	get("/totals", s.handleGetTotals)
	get("/rewards", s.handleGetRewardState)
	get("/validators/{address}", s.handleGetValidator)
	get("/deposits/{id}", s.handleGetDeposit)
	get("/depositors/{address}", s.handleGetDepositor)

	post("/deposits", s.handleStake)
	post("/deposits/{id}/stake-more", s.depositAmountOp(func(c *node.Contracts, req *AmountRequest, id types.DepositID) error {
		return c.Staker.StakeMore(req.Caller, id, bigOf(req.Amount))
	}))
	post("/deposits/{id}/withdraw", s.depositAmountOp(func(c *node.Contracts, req *AmountRequest, id types.DepositID) error {
		return c.Staker.Withdraw(req.Caller, id, bigOf(req.Amount))
	}))
	post("/deposits/{id}/validator", s.depositAddressOp(func(c *node.Contracts, req *AddressRequest, id types.DepositID) error {
		return c.Staker.AlterValidator(req.Caller, id, req.Address)
	}))
	post("/deposits/{id}/claimer", s.depositAddressOp(func(c *node.Contracts, req *AddressRequest, id types.DepositID) error {
		return c.Staker.AlterClaimer(req.Caller, id, req.Address)
	}))
	post("/deposits/{id}/delegatee", s.depositAddressOp(func(c *node.Contracts, req *AddressRequest, id types.DepositID) error {
		return c.Staker.AlterDelegatee(req.Caller, id, req.Address)
	}))
	post("/deposits/{id}/claim", s.handleClaim)
	post("/deposits/{id}/bump", s.handleBump)
	post("/rewards", execOp(s, func(c *node.Contracts, req *AmountRequest, _ *http.Request) error {
		return c.Staker.NotifyRewardAmount(req.Caller, bigOf(req.Amount))
	}))

	post("/validators/{address}/keys", execOp(s, func(c *node.Contracts, req *KeysRequest, r *http.Request) error {
		owner, err := restutil.AddressVar(r, "address")
		if err != nil {
			return err
		}
		return c.Staker.RegisterOrChangeValidatorKey(req.Caller, owner, req.PubKey, req.Pop)
	}))
	post("/validators/{address}/bonus", execOp(s, func(c *node.Contracts, req *AmountRequest, r *http.Request) error {
		validator, err := restutil.AddressVar(r, "address")
		if err != nil {
			return err
		}
		return c.Staker.SetBonusWeight(req.Caller, validator, bigOf(req.Amount))
	}))
	post("/validators/{address}/leader", execOp(s, func(c *node.Contracts, req *FlagRequest, r *http.Request) error {
		owner, err := restutil.AddressVar(r, "address")
		if err != nil {
			return err
		}
		return c.Staker.ChangeValidatorLeader(req.Caller, owner, req.Enabled)
	}))

	post("/admin/admin", execOp(s, func(c *node.Contracts, req *AddressRequest, _ *http.Request) error {
		return c.Staker.SetAdmin(req.Caller, req.Address)
	}))
	post("/admin/stake-authority", execOp(s, func(c *node.Contracts, req *AddressRequest, _ *http.Request) error {
		return c.Staker.SetValidatorStakeAuthority(req.Caller, req.Address)
	}))
	post("/admin/weight-threshold", execOp(s, func(c *node.Contracts, req *AmountRequest, _ *http.Request) error {
		return c.Staker.SetValidatorWeightThreshold(req.Caller, bigOf(req.Amount))
	}))
	post("/admin/registry", execOp(s, func(c *node.Contracts, req *AddressRequest, _ *http.Request) error {
		return c.Staker.SetRegistry(req.Caller, req.Address)
	}))
	post("/admin/reward-notifiers", execOp(s, func(c *node.Contracts, req *NotifierRequest, _ *http.Request) error {
		return c.Staker.SetRewardNotifier(req.Caller, req.Notifier, req.Enabled)
	}))
	post("/admin/leader-default", execOp(s, func(c *node.Contracts, req *FlagRequest, _ *http.Request) error {
		return c.Staker.SetIsLeaderDefault(req.Caller, req.Enabled)
	}))
	post("/admin/committee", execOp(s, func(c *node.Contracts, req *CallerRequest, _ *http.Request) error {
		return c.Staker.CommitValidatorCommittee(req.Caller)
	}))
	post("/admin/committee-activation-delay", execOp(s, func(c *node.Contracts, req *DelayRequest, _ *http.Request) error {
		return c.Staker.SetCommitteeActivationDelay(req.Caller, req.Delay)
	}))
	post("/admin/leader-selection", execOp(s, func(c *node.Contracts, req *LeaderSelectionRequest, _ *http.Request) error {
		return c.Staker.UpdateLeaderSelection(req.Caller, req.Frequency, req.Weighted)
	}))
}
