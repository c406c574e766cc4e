// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"encoding/json"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/test/testnode"
	"github.com/vechain/stakeweight/thor"
)

var (
	admin     = genesis.DevAccounts()[0].Address
	authority = genesis.DevAccounts()[1].Address
	notifier  = genesis.DevAccounts()[2].Address
	alice     = genesis.DevAccounts()[3].Address
	bob       = genesis.DevAccounts()[4].Address
)

func amount(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

func initServer(t *testing.T) (*node.Node, *testnode.Client) {
	gen := genesis.NewDevConfig()
	gen.WeightThreshold = genesis.NewHexOrDecimal256(1000)
	n := testnode.New(t, gen)

	router := mux.NewRouter()
	New(n).Mount(router, "/staker")
	return n, testnode.NewClient(t, router)
}

func stake(t *testing.T, c *testnode.Client, owner, validator thor.Address, value int64) uint64 {
	body, status := c.Post("/staker/deposits", &StakeRequest{
		Caller:    owner,
		Amount:    amount(value),
		Delegatee: owner,
		Claimer:   owner,
		Validator: validator,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var res StakeResponse
	require.NoError(t, json.Unmarshal(body, &res))
	return res.DepositID
}

func TestParams(t *testing.T) {
	_, c := initServer(t)

	var p Params
	c.GetJSON("/staker/params", &p)
	assert.Equal(t, admin, p.Admin)
	assert.Equal(t, authority, p.StakeAuthority)
	assert.Equal(t, "1000", (*big.Int)(p.WeightThreshold).String())
	assert.Equal(t, genesis.RegistryAddress, p.Registry)
}

func TestStakeLifecycle(t *testing.T) {
	n, c := initServer(t)
	validator := datagen.RandAddress()

	id := stake(t, c, alice, validator, 600)
	second := stake(t, c, bob, validator, 500)
	assert.Equal(t, id+1, second)

	var d Deposit
	c.GetJSON("/staker/deposits/0", &d)
	assert.Equal(t, alice, d.Owner)
	assert.Equal(t, validator, d.Validator)
	assert.Equal(t, "600", (*big.Int)(d.Balance).String())

	pk, pop := datagen.RandKeys()
	body, status := c.Post("/staker/validators/"+validator.String()+"/keys", &KeysRequest{Caller: validator, PubKey: pk, Pop: pop})
	require.Equal(t, http.StatusNoContent, status, string(body))

	var v Validator
	c.GetJSON("/staker/validators/"+validator.String(), &v)
	assert.Equal(t, "1100", (*big.Int)(v.TotalWeight).String())
	require.NotNil(t, v.PubKey)
	assert.Equal(t, pk, *v.PubKey)

	require.NoError(t, n.View(func(c *node.Contracts) error {
		rv, err := c.Registry.Get(validator)
		require.NoError(t, err)
		assert.Equal(t, pk, rv.PubKey)
		assert.Equal(t, int64(1100), rv.Weight.Int64())
		return nil
	}))

	// dropping below the threshold removes the validator from the registry
	body, status = c.Post("/staker/deposits/0/withdraw", &AmountRequest{Caller: alice, Amount: amount(200)})
	require.Equal(t, http.StatusNoContent, status, string(body))
	require.NoError(t, n.View(func(c *node.Contracts) error {
		rv, err := c.Registry.Get(validator)
		require.NoError(t, err)
		assert.True(t, rv.Removed)
		return nil
	}))

	var dep Depositor
	c.GetJSON("/staker/depositors/"+alice.String(), &dep)
	assert.Equal(t, "400", (*big.Int)(dep.Staked).String())

	var totals Totals
	c.GetJSON("/staker/totals", &totals)
	assert.Equal(t, "900", (*big.Int)(totals.Staked).String())
	assert.Equal(t, uint64(2), totals.NextDepositID)
}

func TestReverts(t *testing.T) {
	_, c := initServer(t)
	validator := datagen.RandAddress()
	stake(t, c, alice, validator, 100)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"not owner", "/staker/deposits/0/withdraw", &AmountRequest{Caller: bob, Amount: amount(1)}, http.StatusForbidden},
		{"missing deposit", "/staker/deposits/9/stake-more", &AmountRequest{Caller: alice, Amount: amount(1)}, http.StatusNotFound},
		{"over balance", "/staker/deposits/0/withdraw", &AmountRequest{Caller: alice, Amount: amount(101)}, http.StatusBadRequest},
		{"not authority", "/staker/validators/" + validator.String() + "/bonus", &AmountRequest{Caller: alice, Amount: amount(1)}, http.StatusForbidden},
		{"not admin", "/staker/admin/weight-threshold", &AmountRequest{Caller: alice, Amount: amount(1)}, http.StatusForbidden},
		{"not notifier", "/staker/rewards", &AmountRequest{Caller: alice, Amount: amount(1)}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, status := c.Post(tt.path, tt.body)
			require.Equal(t, tt.status, status, string(body))

			var revert restutil.Revert
			require.NoError(t, json.Unmarshal(body, &revert))
			assert.NotEmpty(t, revert.Error)
			assert.Contains(t, revert.Data, "0x08c379a0")
		})
	}

	_, status := c.Post("/staker/deposits/0/withdraw", map[string]any{"caller": alice, "unknown": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = c.Get("/staker/deposits/abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminAndRewards(t *testing.T) {
	n, c := initServer(t)
	validator := datagen.RandAddress()
	stake(t, c, alice, validator, 100)

	body, status := c.Post("/staker/admin/weight-threshold", &AmountRequest{Caller: admin, Amount: amount(50)})
	require.Equal(t, http.StatusNoContent, status, string(body))

	body, status = c.Post("/staker/validators/"+validator.String()+"/bonus", &AmountRequest{Caller: authority, Amount: amount(7)})
	require.Equal(t, http.StatusNoContent, status, string(body))

	var v Validator
	c.GetJSON("/staker/validators/"+validator.String(), &v)
	assert.Equal(t, "7", (*big.Int)(v.BonusWeight).String())
	assert.Equal(t, "107", (*big.Int)(v.TotalWeight).String())
	assert.Nil(t, v.PubKey)

	body, status = c.Post("/staker/rewards", &AmountRequest{Caller: notifier, Amount: amount(8640)})
	require.Equal(t, http.StatusNoContent, status, string(body))

	var rs RewardState
	c.GetJSON("/staker/rewards", &rs)
	assert.Equal(t, n.Head()+8640, rs.RewardEndBlock)

	body, status = c.Post("/staker/deposits/0/claim", &CallerRequest{Caller: alice})
	require.Equal(t, http.StatusOK, status, string(body))
	var claim ClaimResponse
	require.NoError(t, json.Unmarshal(body, &claim))
	assert.Positive(t, (*big.Int)(claim.Reward).Sign())

	body, status = c.Post("/staker/admin/reward-notifiers", &NotifierRequest{Caller: admin, Notifier: bob, Enabled: true})
	require.Equal(t, http.StatusNoContent, status, string(body))
	body, status = c.Post("/staker/admin/committee-activation-delay", &DelayRequest{Caller: authority, Delay: 3})
	require.Equal(t, http.StatusNoContent, status, string(body))
}
