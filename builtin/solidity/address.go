// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/stakeweight/thor"
)

// Address is a wrapper for storage and retrieval of an address. Similar to storing an address in a smart contract.
type Address struct {
	context *Context
	pos     thor.Bytes32
}

func NewAddress(context *Context, pos thor.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (thor.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return thor.Address{}, err
	}
	return thor.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr thor.Address) {
	a.context.state.SetStorage(a.context.address, a.pos, thor.BytesToBytes32(addr.Bytes()))
}

// Bool is a wrapper for a boolean flag stored in a single slot.
type Bool struct {
	context *Context
	pos     thor.Bytes32
}

func NewBool(context *Context, pos thor.Bytes32) *Bool {
	return &Bool{context: context, pos: pos}
}

func (b *Bool) Get() (bool, error) {
	storage, err := b.context.state.GetStorage(b.context.address, b.pos)
	if err != nil {
		return false, err
	}
	return !storage.IsZero(), nil
}

func (b *Bool) Set(value bool) {
	var storage thor.Bytes32
	if value {
		storage[31] = 1
	}
	b.context.state.SetStorage(b.context.address, b.pos, storage)
}
