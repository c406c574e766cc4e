// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vctx holds the validator an in-flight staker operation is about. Earning power
// oracles read it instead of receiving the validator as a parameter.
package vctx

import (
	"github.com/vechain/stakeweight/thor"
)

// Reader exposes the current validator to collaborators.
type Reader interface {
	Validator() thor.Address
}

// Context is a single slot. It is zero outside of an operation.
type Context struct {
	current thor.Address
}

func New() *Context {
	return &Context{}
}

func (c *Context) Validator() thor.Address {
	return c.current
}

// Enter sets the slot to validator. The returned release clears it and must be deferred by
// the caller. A nested Enter overwrites the slot and its release leaves it cleared.
func (c *Context) Enter(validator thor.Address) (release func()) {
	c.current = validator
	return func() {
		c.current = thor.Address{}
	}
}
