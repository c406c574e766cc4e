// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeweight/thor"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction for built-in contracts, similar to the mapping in Solidity.
// Values are RLP encoded at Blake2b(key, basePos). Missing keys decode to the zero value;
// pointer values are never nil.
type Mapping[K Key, V any] struct {
	context *Context
	basePos thor.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos thor.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) thor.Bytes32 {
	return thor.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete clears the slot, so the key reads back as the zero value.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}
