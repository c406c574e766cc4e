// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// StackedMap maintains maps in a stack.
// Each map inherits key/value of map that is at lower level.
// It acts as a map with save-restore/snapshot-revert manner.
type StackedMap[K comparable, V any] struct {
	src            MapGetter[K, V]
	mapStack       []*level[K, V]
	keyRevisionMap map[K][]int
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []*JournalEntry[K, V]
}

// JournalEntry entry of journal.
type JournalEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// MapGetter defines getter method of map.
type MapGetter[K comparable, V any] func(key K) (value V, exist bool, err error)

// New create an instance of StackedMap.
// src acts as source of data.
func New[K comparable, V any](src MapGetter[K, V]) *StackedMap[K, V] {
	return &StackedMap[K, V]{
		src:            src,
		keyRevisionMap: make(map[K][]int),
	}
}

// Depth returns depth of stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.mapStack)
}

// Push pushes a new map on stack.
// It returns stack depth before push.
func (sm *StackedMap[K, V]) Push() int {
	sm.mapStack = append(sm.mapStack, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.mapStack) - 1
}

// Pop pop the map at top of stack.
// It will revert all Put operations since last Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.mapStack[len(sm.mapStack)-1]
	for key := range top.kvs {
		revs := sm.keyRevisionMap[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(sm.keyRevisionMap, key)
		} else {
			sm.keyRevisionMap[key] = revs
		}
	}
	sm.mapStack = sm.mapStack[:len(sm.mapStack)-1]
}

// PopTo pop maps until stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.mapStack) > depth {
		sm.Pop()
	}
}

// Get gets value for given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.keyRevisionMap[key]; ok {
		lvl := sm.mapStack[revs[len(revs)-1]]
		if v, ok := lvl.kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put puts key value into map at stack top.
// It will panic if stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	rev := len(sm.mapStack) - 1
	top := sm.mapStack[rev]
	_, existed := top.kvs[key]
	top.kvs[key] = value
	top.journal = append(top.journal, &JournalEntry[K, V]{Key: key, Value: value})

	// a key is recorded once per level, so Pop can unwind one revision per level
	if !existed {
		sm.keyRevisionMap[key] = append(sm.keyRevisionMap[key], rev)
	}
}

// Journal returns journal of all Put operations.
func (sm *StackedMap[K, V]) Journal() (j []*JournalEntry[K, V]) {
	for _, lvl := range sm.mapStack {
		j = append(j, lvl.journal...)
	}
	return
}
