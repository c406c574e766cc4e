// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements kv.Store on goleveldb, on disk or in memory.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/stakeweight/kv"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/metrics"
)

var (
	logger = log.WithContext("pkg", "lvldb")

	metricBatchWrites = metrics.LazyLoadCounter("lvldb_batch_write_count")
	metricBatchOps    = metrics.LazyLoadCounter("lvldb_batch_op_count")
)

var _ kv.GetPutCloser = (*LevelDB)(nil)

// Options tunes a persistent instance. Values below 16 are raised to 16.
type Options struct {
	CacheSize              int // MiB
	OpenFilesCacheCapacity int
}

type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db storage")
	}
	db, err := open(stg, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("level db opened", "path", path, "cache", opts.CacheSize)
	return db, nil
}

// NewMem creates a level db in memory. Opening memory storage cannot fail.
func NewMem() *LevelDB {
	db, err := open(storage.NewMemStorage(), Options{})
	if err != nil {
		panic(err)
	}
	return db
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cache := max(opts.CacheSize, 16)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, 16),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// Get fails with an error satisfying IsNotFound for a missing key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{db: ldb.db}
}

func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, nil)
}

// batch buffers writes until Write applies them atomically.
type batch struct {
	db *leveldb.DB
	b  leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	if err := b.db.Write(&b.b, nil); err != nil {
		return err
	}
	metricBatchWrites().Add(1)
	metricBatchOps().Add(int64(b.b.Len()))
	return nil
}
