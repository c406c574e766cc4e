// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_NamedReverts(t *testing.T) {
	err := Unauthorized("not owner")
	assert.Equal(t, "Unauthorized: not owner", err.Error())
	assert.Equal(t, "Unauthorized", err.Kind())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrInvalidValidatorKeys)
	assert.True(t, IsUnauthorized(err))

	wrapped := errors.Wrap(InvalidValidatorKeys(), "set keys")
	assert.True(t, IsRevertErr(wrapped))
	assert.ErrorIs(t, wrapped, ErrInvalidValidatorKeys)
	assert.False(t, IsUnauthorized(wrapped))
	assert.Equal(t, "InvalidValidatorKeys", InvalidValidatorKeys().Error())

	tip := Wrap(ErrInvalidTip, " tip too large ")
	assert.Equal(t, "InvalidTip: tip too large", tip.Error())
	assert.ErrorIs(t, tip, ErrInvalidTip)
}

func Test_RevertBytes(t *testing.T) {
	var nilRevert *ErrRevert
	assert.Nil(t, nilRevert.Bytes())

	encoded := New("test").Bytes()
	assert.Len(t, encoded, 4+32+32+32)
	assert.Equal(t, "08c379a0", hex.EncodeToString(encoded[:4]))
	assert.Equal(t, byte(32), encoded[35])
	assert.Equal(t, byte(4), encoded[67])
	assert.Equal(t, "test", string(encoded[68:72]))
}
