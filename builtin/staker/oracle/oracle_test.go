// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/builtin/staker/vctx"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/thor"
)

type keySet map[thor.Address]bool

func (k keySet) HasKeys(owner thor.Address) (bool, error) {
	if owner == (thor.Address{0xff}) {
		return false, errors.New("lookup failed")
	}
	return k[owner], nil
}

func TestIdentity(t *testing.T) {
	var o Identity
	power, err := o.GetEarningPower(big.NewInt(42), thor.Address{}, thor.Address{})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), power)

	power, ok, err := o.GetNewEarningPower(big.NewInt(42), thor.Address{}, thor.Address{}, big.NewInt(42))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, big.NewInt(42), power)

	_, ok, err = o.GetNewEarningPower(big.NewInt(43), thor.Address{}, thor.Address{}, big.NewInt(42))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidatorGated(t *testing.T) {
	withKeys, withoutKeys := datagen.RandAddress(), datagen.RandAddress()
	ctx := vctx.New()
	o := NewValidatorGated(ctx, keySet{withKeys: true})
	balance := big.NewInt(100)

	power, err := o.GetEarningPower(balance, thor.Address{}, thor.Address{})
	require.NoError(t, err)
	assert.Equal(t, 0, power.Sign(), "no context")

	release := ctx.Enter(withoutKeys)
	power, err = o.GetEarningPower(balance, thor.Address{}, thor.Address{})
	require.NoError(t, err)
	assert.Equal(t, 0, power.Sign())
	release()

	release = ctx.Enter(withKeys)
	power, ok, err := o.GetNewEarningPower(balance, thor.Address{}, thor.Address{}, new(big.Int))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, balance, power)
	release()

	defer ctx.Enter(thor.Address{0xff})()
	_, err = o.GetEarningPower(balance, thor.Address{}, thor.Address{})
	assert.Error(t, err)
}
