// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"context"
	"math/big"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/test/testnode"
)

func TestRegistryAPI(t *testing.T) {
	gen := genesis.NewDevConfig()
	gen.WeightThreshold = genesis.NewHexOrDecimal256(10)
	n := testnode.New(t, gen)

	router := mux.NewRouter()
	New(n).Mount(router, "/registry")
	c := testnode.NewClient(t, router)

	var settings Settings
	c.GetJSON("/registry/settings", &settings)
	assert.Equal(t, Settings{CommitteeActivationDelay: 10, LeaderFrequency: 1, WeightedLeaders: true}, settings)

	_, status := c.Get("/registry/committee")
	assert.Equal(t, http.StatusNotFound, status)

	owner := genesis.DevAccounts()[3].Address
	validator := datagen.RandAddress()
	pk, pop := datagen.RandKeys()
	ctx := context.Background()
	require.NoError(t, n.Exec(ctx, func(c *node.Contracts) error {
		if _, err := c.Staker.Stake(owner, big.NewInt(25), owner, owner, validator); err != nil {
			return err
		}
		return c.Staker.RegisterOrChangeValidatorKey(validator, validator, pk, pop)
	}))

	var vs []*Validator
	c.GetJSON("/registry/validators", &vs)
	require.Len(t, vs, 1)
	assert.Equal(t, validator, vs[0].Owner)
	assert.Equal(t, "25", (*big.Int)(vs[0].Weight).String())
	assert.True(t, vs[0].Leader, "leader default applies")

	var v Validator
	c.GetJSON("/registry/validators/"+validator.String(), &v)
	assert.Equal(t, pk, v.PubKey)

	_, status = c.Get("/registry/validators/" + datagen.RandAddress().String())
	assert.Equal(t, http.StatusNotFound, status)

	require.NoError(t, n.Exec(ctx, func(c *node.Contracts) error {
		return c.Staker.CommitValidatorCommittee(genesis.DevAccounts()[1].Address)
	}))

	var committee Committee
	c.GetJSON("/registry/committee", &committee)
	assert.Equal(t, uint64(1), committee.Epoch)
	assert.Equal(t, committee.Block+10, committee.ActivationBlock)
	require.Len(t, committee.Members, 1)
	assert.Equal(t, validator, committee.Members[0].Owner)

	c.GetJSON("/registry/committee?epoch=1", &committee)
	assert.Equal(t, uint64(1), committee.Epoch)
	_, status = c.Get("/registry/committee?epoch=x")
	assert.Equal(t, http.StatusBadRequest, status)
}
