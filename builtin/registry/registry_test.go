// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/lvldb"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/thor"
)

func newRegistry(block *uint32) *Registry {
	return New(thor.BytesToAddress([]byte("registry")), state.New(lvldb.NewMem()), func() uint32 { return *block })
}

func TestRegistry_Lifecycle(t *testing.T) {
	var block uint32 = 10
	reg := newRegistry(&block)
	owner := datagen.RandAddress()
	pk, pop := datagen.RandKeys()

	key, removed, err := reg.Status(owner)
	require.NoError(t, err)
	assert.True(t, key.IsZero())
	assert.False(t, removed)

	assert.ErrorIs(t, reg.ChangeValidatorWeight(owner, big.NewInt(1)), reverts.ErrValidatorNotFound)
	assert.ErrorIs(t, reg.Remove(owner), reverts.ErrValidatorNotFound)

	require.NoError(t, reg.Add(owner, true, true, big.NewInt(1000), pk, pop))
	assert.ErrorIs(t, reg.Add(owner, true, true, big.NewInt(1000), pk, pop), reverts.ErrValidatorExists)

	v, err := reg.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), v.Weight)
	assert.True(t, v.Leader)
	assert.Equal(t, uint32(10), v.AddedAt)

	require.NoError(t, reg.ChangeValidatorWeight(owner, big.NewInt(1500)))
	require.NoError(t, reg.ChangeValidatorLeader(owner, false))
	pk2, pop2 := datagen.RandKeys()
	require.NoError(t, reg.ChangeValidatorKey(owner, pk2, pop2))
	assert.ErrorIs(t, reg.ChangeValidatorKey(owner, thor.PublicKey{}, pop2), reverts.ErrInvalidValidatorKeys)

	v, err = reg.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), v.Weight)
	assert.False(t, v.Leader)
	assert.Equal(t, pk2, v.PubKey)

	require.NoError(t, reg.Remove(owner))
	key, removed, err = reg.Status(owner)
	require.NoError(t, err)
	assert.Equal(t, pk2, key)
	assert.True(t, removed)

	all, err := reg.Validators()
	require.NoError(t, err)
	assert.Empty(t, all)

	// removed owners can be added again with fresh values
	block = 20
	require.NoError(t, reg.Add(owner, false, true, big.NewInt(700), pk, pop))
	v, err = reg.Get(owner)
	require.NoError(t, err)
	assert.False(t, v.Removed)
	assert.Equal(t, big.NewInt(700), v.Weight)
	assert.Equal(t, uint32(20), v.AddedAt)
}

func TestRegistry_Committee(t *testing.T) {
	var block uint32 = 5
	reg := newRegistry(&block)

	assert.Error(t, reg.CommitValidatorCommittee())
	c, err := reg.Committee(0)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, reg.SetCommitteeActivationDelay(3))
	a, b, inactive := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()
	for _, owner := range []thor.Address{a, b, inactive} {
		pk, pop := datagen.RandKeys()
		require.NoError(t, reg.Add(owner, owner == a, owner != inactive, big.NewInt(100), pk, pop))
	}
	require.NoError(t, reg.CommitValidatorCommittee())

	c, err = reg.Committee(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Epoch)
	assert.Equal(t, uint32(8), c.ActivationBlock)
	assert.Equal(t, big.NewInt(200), c.TotalWeight)
	require.Len(t, c.Members, 2)
	assert.Equal(t, a, c.Members[0].Owner)
	assert.True(t, c.Members[0].Leader)

	c, err = reg.Committee(9)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRegistry_ActivationDelayRange(t *testing.T) {
	var block uint32 = 10
	reg := newRegistry(&block)
	pk, pop := datagen.RandKeys()
	require.NoError(t, reg.Add(datagen.RandAddress(), true, true, big.NewInt(100), pk, pop))

	assert.ErrorIs(t, reg.SetCommitteeActivationDelay(1<<32), reverts.ErrInvalidAmount)
	delay, err := reg.CommitteeActivationDelay()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), delay)

	require.NoError(t, reg.SetCommitteeActivationDelay(math.MaxUint32-10))
	require.NoError(t, reg.CommitValidatorCommittee())
	c, err := reg.Committee(0)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint32(math.MaxUint32), c.ActivationBlock)

	block = 11
	assert.ErrorIs(t, reg.CommitValidatorCommittee(), reverts.ErrInvalidAmount)
}

func TestRegistry_LeaderSelection(t *testing.T) {
	var block uint32
	reg := newRegistry(&block)

	assert.Error(t, reg.UpdateLeaderSelection(0, true))
	require.NoError(t, reg.UpdateLeaderSelection(12, true))

	ls, err := reg.LeaderSelection()
	require.NoError(t, err)
	assert.Equal(t, &LeaderSelection{Frequency: 12, Weighted: true}, ls)
}
