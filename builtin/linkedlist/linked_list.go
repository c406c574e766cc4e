// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/thor"
)

var errEmpty = errors.New("list is empty")

// List is a storage backed doubly linked list of addresses. Insertion order is preserved.
type List struct {
	head  *solidity.Address
	tail  *solidity.Address
	count *solidity.Uint256
	next  *solidity.Mapping[thor.Address, thor.Address]
	prev  *solidity.Mapping[thor.Address, thor.Address]
}

// New creates a list whose pointers live under the given slots.
func New(sctx *solidity.Context, headPos, tailPos, countPos thor.Bytes32) *List {
	return &List{
		head:  solidity.NewAddress(sctx, headPos),
		tail:  solidity.NewAddress(sctx, tailPos),
		count: solidity.NewUint256(sctx, countPos),
		next:  solidity.NewMapping[thor.Address, thor.Address](sctx, headPos),
		prev:  solidity.NewMapping[thor.Address, thor.Address](sctx, tailPos),
	}
}

// Contains reports whether address is linked into the list.
func (l *List) Contains(address thor.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	if head == address {
		return true, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	return !prev.IsZero(), nil
}

// Push appends address to the tail. Pushing an address already present is a no-op.
func (l *List) Push(address thor.Address) error {
	if address.IsZero() {
		return errors.New("zero address")
	}
	present, err := l.Contains(address)
	if err != nil || present {
		return err
	}

	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}
	if oldTail.IsZero() {
		l.head.Set(address)
	} else {
		if err := l.next.Set(oldTail, address); err != nil {
			return err
		}
		if err := l.prev.Set(address, oldTail); err != nil {
			return err
		}
	}
	l.tail.Set(address)
	return l.count.Add(big.NewInt(1))
}

// Remove unlinks address. Removing an absent address is a no-op.
func (l *List) Remove(address thor.Address) error {
	present, err := l.Contains(address)
	if err != nil || !present {
		return err
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return err
	}

	if prev.IsZero() {
		l.head.Set(next)
	} else if err := l.next.Set(prev, next); err != nil {
		return err
	}

	if next.IsZero() {
		l.tail.Set(prev)
	} else if err := l.prev.Set(next, prev); err != nil {
		return err
	}

	l.next.Delete(address)
	l.prev.Delete(address)
	return l.count.Sub(big.NewInt(1))
}

// Pop removes and returns the head.
func (l *List) Pop() (thor.Address, error) {
	head, err := l.head.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if head.IsZero() {
		return thor.Address{}, errEmpty
	}
	if err := l.Remove(head); err != nil {
		return thor.Address{}, err
	}
	return head, nil
}

func (l *List) Head() (thor.Address, error) {
	return l.head.Get()
}

func (l *List) Len() (uint64, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Iter walks the list from head to tail until callback returns false or an error.
func (l *List) Iter(callback func(thor.Address) (bool, error)) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		more, err := callback(ptr)
		if err != nil || !more {
			return err
		}
		if ptr, err = l.next.Get(ptr); err != nil {
			return err
		}
	}
	return nil
}

// Addresses collects the whole list.
func (l *List) Addresses() ([]thor.Address, error) {
	var out []thor.Address
	err := l.Iter(func(addr thor.Address) (bool, error) {
		out = append(out, addr)
		return true, nil
	})
	return out, err
}
