// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/vechain/stakeweight/api/events"
	"github.com/vechain/stakeweight/thor"
)

type eventFilter struct {
	Address *thor.Address
	Topic   *thor.Bytes32
}

func (f *eventFilter) match(ev *events.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	if f.Topic != nil && *f.Topic != ev.Topic {
		return false
	}
	return true
}

// eventReader walks committed blocks one at a time, starting after a given block.
type eventReader struct {
	head   func() uint32
	cache  *blockCache
	filter *eventFilter
	next   uint32
}

func newEventReader(head func() uint32, cache *blockCache, filter *eventFilter, after uint32) *eventReader {
	return &eventReader{head: head, cache: cache, filter: filter, next: after + 1}
}

// Read returns the matching events of the next committed block, and whether
// more committed blocks remain. Nothing is read while the reader is ahead of the head.
func (r *eventReader) Read() ([]*events.Event, bool, error) {
	head := r.head()
	if r.next > head {
		return nil, false, nil
	}
	evs, _, err := r.cache.Get(r.next)
	if err != nil {
		return nil, false, err
	}
	r.next++

	msgs := make([]*events.Event, 0, len(evs))
	for _, ev := range evs {
		if msg := events.Convert(ev); r.filter.match(msg) {
			msgs = append(msgs, msg)
		}
	}
	return msgs, r.next <= head, nil
}
