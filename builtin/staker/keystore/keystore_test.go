// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/lvldb"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/thor"
)

func TestStore(t *testing.T) {
	store := New(solidity.NewContext(thor.Address{1}, state.New(lvldb.NewMem())))
	owner := datagen.RandAddress()

	ok, err := store.HasKeys(owner)
	require.NoError(t, err)
	assert.False(t, ok)

	pk, pop := datagen.RandKeys()
	assert.ErrorIs(t, store.Set(owner, thor.PublicKey{}, pop), reverts.ErrInvalidValidatorKeys)
	assert.ErrorIs(t, store.Set(owner, pk, thor.ProofOfPossession{}), reverts.ErrInvalidValidatorKeys)

	ok, err = store.HasKeys(owner)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(owner, pk, pop))
	keys, err := store.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, &Keys{PubKey: pk, Pop: pop}, keys)

	pk2, pop2 := datagen.RandKeys()
	require.NoError(t, store.Set(owner, pk2, pop2))
	keys, err = store.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, pk2, keys.PubKey)

	// a rejected change keeps the previous keys
	assert.Error(t, store.Set(owner, thor.PublicKey{}, thor.ProofOfPossession{}))
	keys, err = store.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, pop2, keys.Pop)
}

func TestKeys_Declared(t *testing.T) {
	pk, pop := datagen.RandKeys()
	assert.True(t, (&Keys{PubKey: pk, Pop: pop}).Declared())
	assert.False(t, (&Keys{PubKey: pk}).Declared())
	assert.False(t, (&Keys{Pop: pop}).Declared())
	assert.False(t, (&Keys{}).Declared())
}
