// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import "github.com/vechain/stakeweight/thor"

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Event is a stored staker event.
type Event struct {
	BlockNumber uint32
	Index       uint32
	Address     thor.Address
	Topic       thor.Bytes32
	Name        string
	Args        map[string]string
}

// Range is an inclusive block range. To below From means unbounded.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects events. Nil fields match everything.
type Filter struct {
	Address *thor.Address
	Topic   *thor.Bytes32
	Range   *Range
	Order   Order
	Options *Options
}
