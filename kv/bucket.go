// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(key []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(key)), b...), key...)
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	bucket Bucket
	src    Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.bucket.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.bucket.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.bucket.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.bucket.key(key)) }

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.bucket, s.src.NewBatch()}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	var rng Range
	if len(r.Limit) == 0 {
		rng = Range(*util.BytesPrefix([]byte(s.bucket)))
		if len(r.Start) > 0 {
			rng.Start = s.bucket.key(r.Start)
		}
	} else {
		rng = Range{Start: s.bucket.key(r.Start), Limit: s.bucket.key(r.Limit)}
	}
	return &bucketIterator{s.src.Iterate(rng), len(s.bucket)}
}

type bucketBatch struct {
	bucket Bucket
	batch  Batch
}

func (b *bucketBatch) Put(key, val []byte) error { return b.batch.Put(b.bucket.key(key), val) }
func (b *bucketBatch) Delete(key []byte) error   { return b.batch.Delete(b.bucket.key(key)) }
func (b *bucketBatch) Len() int                  { return b.batch.Len() }
func (b *bucketBatch) Write() error              { return b.batch.Write() }

type bucketIterator struct {
	Iterator
	nPrefix int
}

func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[i.nPrefix:]
}
