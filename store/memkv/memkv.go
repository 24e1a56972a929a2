// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package memkv is an in-memory store.KV backend for tests and short-lived
// tooling invocations; it never touches disk.
package memkv

import (
	"fmt"
	"sync"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/store"
)

// DB is a store.KV backed by a guarded map.
type DB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty DB.
func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

func (db *DB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.data[string(key)]
	if !ok {
		return nil, fmt.Errorf("%w: key %x", common.ErrNotFound, key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (db *DB) Put(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	db.data[string(key)] = cp
	return nil
}

func (db *DB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *DB) NewBatch() store.Batch {
	return &batch{db: db}
}

func (db *DB) Close() error { return nil }

type batch struct {
	db   *DB
	puts map[string][]byte
}

func (b *batch) Put(key, value []byte) {
	if b.puts == nil {
		b.puts = make(map[string][]byte)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b.puts[string(key)] = cp
}

func (b *batch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for k, v := range b.puts {
		b.db.data[k] = v
	}
	return nil
}
