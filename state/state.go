// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeweight/kv"
	"github.com/vechain/stakeweight/stackedmap"
	"github.com/vechain/stakeweight/thor"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(append(make([]byte, 0, thor.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State manages contract storage of the builtin contracts.
// All writes are journaled in a stacked map, so any call can be reverted to a checkpoint
// and only committed changes reach the underlying store.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object on top of the kv store.
func New(store kv.Store) *State {
	s := &State{store: store}
	s.sm = stackedmap.New(s.storeGetter)
	s.sm.Push()
	return s
}

func (s *State) storeGetter(key storageKey) (rlp.RawValue, bool, error) {
	raw, err := s.store.Get(key.dbKey())
	if err != nil {
		if s.store.IsNotFound(err) {
			return rlp.RawValue(nil), true, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage collects the latest value of every key written since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	var order []storageKey
	for _, entry := range s.sm.Journal() {
		if _, ok := changes[entry.Key]; !ok {
			order = append(order, entry.Key)
		}
		changes[entry.Key] = entry.Value
	}
	return &Stage{state: s, changes: changes, order: order}
}

// Stage is the pending change set of a state.
type Stage struct {
	state   *State
	changes map[storageKey]rlp.RawValue
	order   []storageKey
}

// Len returns the number of changed storage slots.
func (st *Stage) Len() int {
	return len(st.changes)
}

// Commit writes the change set into the store atomically and resets the journal.
func (st *Stage) Commit() error {
	batch := st.state.store.NewBatch()
	for _, key := range st.order {
		raw := st.changes[key]
		var err error
		if len(raw) == 0 {
			err = batch.Delete(key.dbKey())
		} else {
			err = batch.Put(key.dbKey(), raw)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	st.state.sm.PopTo(0)
	st.state.sm.Push()
	return nil
}
