// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package client

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/api"
	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/test/testnode"
	"github.com/vechain/stakeweight/thor"
)

func newClient(t *testing.T) *Client {
	n := testnode.New(t, nil)
	handler, closeSubs := api.New(n, api.Options{})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeSubs()
		ts.Close()
	})
	return New(ts.URL)
}

func TestStakeAndRegister(t *testing.T) {
	c := newClient(t)
	dev := genesis.DevAccounts()
	depositor, validator, stranger := dev[3].Address, dev[5].Address, datagen.RandAddress()

	params, err := c.Params()
	require.NoError(t, err)
	threshold := (*big.Int)(params.WeightThreshold)

	head, err := c.Head()
	require.NoError(t, err)

	id, err := c.Stake(depositor, threshold, depositor, depositor, validator)
	require.NoError(t, err)

	d, err := c.Deposit(id)
	require.NoError(t, err)
	assert.Equal(t, validator, d.Validator)
	assert.Equal(t, threshold, (*big.Int)(d.Balance))

	// weight alone does not register the validator
	_, err = c.RegistryValidator(validator)
	assert.ErrorIs(t, err, ErrNotFound)

	pk, pop := datagen.RandKeys()
	require.NoError(t, c.SetValidatorKeys(validator, validator, pk, pop))

	rv, err := c.RegistryValidator(validator)
	require.NoError(t, err)
	assert.Equal(t, pk, rv.PubKey)
	assert.Equal(t, threshold, (*big.Int)(rv.Weight))

	vs, err := c.RegistryValidators()
	require.NoError(t, err)
	assert.Len(t, vs, 1)

	v, err := c.Validator(validator)
	require.NoError(t, err)
	assert.Equal(t, threshold, (*big.Int)(v.TotalWeight))

	// a stranger cannot touch the deposit
	err = c.Withdraw(stranger, id, big.NewInt(1))
	var revert *RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, http.StatusForbidden, revert.StatusCode)

	require.NoError(t, c.Withdraw(depositor, id, big.NewInt(1)))
	rv, err = c.RegistryValidator(validator)
	require.NoError(t, err)
	assert.True(t, rv.Removed, "weight below threshold deregisters")

	topic := thor.Keccak256([]byte(events.ValidatorKeysSet))
	evs, err := c.Events(&EventFilter{Topic: &topic})
	require.NoError(t, err)
	require.Len(t, evs, 1)

	next, err := c.NextEvents(head, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, next)
}

func TestSubscribeEvents(t *testing.T) {
	c := newClient(t)
	depositor := genesis.DevAccounts()[3].Address

	_, err := c.Stake(depositor, big.NewInt(7), depositor, depositor, datagen.RandAddress())
	require.NoError(t, err)

	pos := uint32(0)
	topic := thor.Keccak256([]byte(events.StakeDeposited))
	sub, err := c.SubscribeEvents(&pos, nil, &topic)
	require.NoError(t, err)
	defer sub.Close()

	next := func() *EventWrapper {
		select {
		case w, ok := <-sub.C():
			require.True(t, ok)
			return &w
		case <-time.After(5 * time.Second):
			t.Fatal("no event received")
			return nil
		}
	}

	w := next()
	require.NoError(t, w.Error)
	assert.Equal(t, "7", w.Event.Args["amount"])

	_, err = c.Stake(depositor, big.NewInt(8), depositor, depositor, datagen.RandAddress())
	require.NoError(t, err)
	w = next()
	require.NoError(t, w.Error)
	assert.Equal(t, "8", w.Event.Args["amount"])

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	_, err = New("ftp://localhost").SubscribeEvents(nil, nil, nil)
	assert.Error(t, err)
}

func TestRewards(t *testing.T) {
	c := newClient(t)
	dev := genesis.DevAccounts()
	notifier, depositor := dev[2].Address, dev[4].Address

	id, err := c.Stake(depositor, big.NewInt(1e18), depositor, depositor, dev[5].Address)
	require.NoError(t, err)

	require.NoError(t, c.NotifyRewardAmount(notifier, big.NewInt(8640_000)))
	state, err := c.RewardState()
	require.NoError(t, err)
	assert.Positive(t, (*big.Int)(state.ScaledRewardRate).Sign())

	// one more block accrues reward for the deposit
	require.NoError(t, c.Transfer(notifier, depositor, big.NewInt(1)))

	before, err := c.Balance(depositor)
	require.NoError(t, err)
	reward, err := c.Claim(depositor, id)
	require.NoError(t, err)
	assert.Positive(t, reward.Sign())

	after, err := c.Balance(depositor)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(before, reward), after)

	err = c.NotifyRewardAmount(depositor, big.NewInt(1))
	assert.Error(t, err)
}

func TestNotFound(t *testing.T) {
	c := newClient(t)

	_, err := c.Deposit(12345)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Committee(nil)
	assert.ErrorIs(t, err, ErrNotFound)

	epoch := uint64(3)
	_, err = c.Committee(&epoch)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventFilterQuery(t *testing.T) {
	from, to := uint32(1), uint32(9)
	addr := thor.BytesToAddress([]byte("a"))
	f := &EventFilter{Address: &addr, From: &from, To: &to, Desc: true, Limit: 5}
	assert.Equal(t, "?address="+addr.String()+"&from=1&limit=5&order=desc&to=9", f.query())
	assert.Equal(t, "", (&EventFilter{}).query())
}
