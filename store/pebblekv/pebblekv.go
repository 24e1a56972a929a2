// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package pebblekv implements store.KV on top of cockroachdb/pebble, an
// alternative on-disk engine carried in the example corpus alongside
// goleveldb; wiring both gives callers a choice of LSM engine without
// touching the node algebra or the NodeStore above it.
package pebblekv

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/store"
)

// DB is a store.KV backed by a Pebble directory.
type DB struct {
	pdb *pebble.DB
}

// Open opens (creating if absent) the Pebble directory at path.
func Open(path string) (*DB, error) {
	pdb, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: opening pebble at %s: %v", common.ErrStoreIO, path, err)
	}
	return &DB{pdb: pdb}, nil
}

func (db *DB) Get(key []byte) ([]byte, error) {
	v, closer, err := db.pdb.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: key %x", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return out, nil
}

func (db *DB) Put(key, value []byte) error {
	if err := db.pdb.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}

func (db *DB) Has(key []byte) (bool, error) {
	_, closer, err := db.pdb.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	defer closer.Close()
	return true, nil
}

func (db *DB) NewBatch() store.Batch {
	return &batch{b: db.pdb.NewBatch()}
}

func (db *DB) Close() error {
	if err := db.pdb.Close(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}

type batch struct {
	b *pebble.Batch
}

func (bt *batch) Put(key, value []byte) { bt.b.Set(key, value, nil) }

func (bt *batch) Write() error {
	if err := bt.b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}
