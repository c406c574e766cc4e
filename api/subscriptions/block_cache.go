// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/stakeweight/eventdb"
)

// blockCache keeps the events of recently streamed blocks, so that subscribers
// following the head share one event db query per block.
type blockCache struct {
	cache *lru.Cache
	load  func(num uint32) ([]*eventdb.Event, error)
}

func newBlockCache(size int, load func(num uint32) ([]*eventdb.Event, error)) *blockCache {
	size = min(max(size, 1), 1000)
	cache, err := lru.New(size)
	if err != nil {
		panic(fmt.Errorf("failed to create block cache: %v", err))
	}
	return &blockCache{cache: cache, load: load}
}

// Get returns the events of a committed block. The second return value reports a cache hit.
func (c *blockCache) Get(num uint32) ([]*eventdb.Event, bool, error) {
	if v, ok := c.cache.Get(num); ok {
		return v.([]*eventdb.Event), true, nil
	}
	evs, err := c.load(num)
	if err != nil {
		return nil, false, err
	}
	c.cache.Add(num, evs)
	return evs, false, nil
}
