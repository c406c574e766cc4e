// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Getter wraps methods for getting kvs.
type Getter interface {
	// Get value for given key.
	// An error returned if key not found. It can be checked via IsNotFound.
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool
}

// Putter wraps methods for putting kvs.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch defines batch of putting ops, applied atomically by Write.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Iterator to iterates kvs.
type Iterator interface {
	Next() bool
	Release()
	Error() error

	Key() []byte
	Value() []byte
}

// Range is the key range.
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// Store defines the full functional kv store.
type Store interface {
	Getter
	Putter

	NewBatch() Batch
	Iterate(r Range) Iterator
}

// GetPutCloser with close method.
type GetPutCloser interface {
	Store
	Close() error
}
