// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package leveldbkv implements store.KV on top of syndtr/goleveldb, the
// teacher's own on-disk engine (go/backend/leveldb).
package leveldbkv

import (
	"errors"
	"fmt"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/store"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// DB is a store.KV backed by a LevelDB directory.
type DB struct {
	ldb *leveldb.DB
}

// Open opens (creating if absent) the LevelDB directory at path.
func Open(path string) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: opening leveldb at %s: %v", common.ErrStoreIO, path, err)
	}
	return &DB{ldb: ldb}, nil
}

func (db *DB) Get(key []byte) ([]byte, error) {
	v, err := db.ldb.Get(key, nil)
	if err != nil {
		if errors.Is(err, ldberrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: key %x", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return v, nil
}

func (db *DB) Put(key, value []byte) error {
	if err := db.ldb.Put(key, value, nil); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}

func (db *DB) Has(key []byte) (bool, error) {
	ok, err := db.ldb.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return ok, nil
}

func (db *DB) NewBatch() store.Batch {
	return &batch{ldb: db.ldb, b: new(leveldb.Batch)}
}

func (db *DB) Close() error {
	if err := db.ldb.Close(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}

type batch struct {
	ldb *leveldb.DB
	b   *leveldb.Batch
}

func (bt *batch) Put(key, value []byte) { bt.b.Put(key, value) }

func (bt *batch) Write() error {
	if err := bt.ldb.Write(bt.b, nil); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}
