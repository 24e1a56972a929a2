// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store implements the persistent node store: a pluggable
// key/value backend holding the Nodes, Roots and Meta tables, wrapped with
// a read-through LRU cache and Prometheus instrumentation (spec.md §3, §5).
//
// The KV contract below is grounded on the teacher's common.LevelDB /
// common.LevelDBReader interfaces in go/backend/leveldb: a narrow
// Get/Put/Has/batch-write surface that every concrete engine (LevelDB,
// Pebble, an in-memory map for tests) implements identically.
package store

// KV is the contract every backend (memkv, leveldbkv, pebblekv) implements.
// Get returns common.ErrNotFound when the key is absent.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Has(key []byte) (bool, error)
	NewBatch() Batch
	Close() error
}

// Batch accumulates writes to be applied atomically. NodeStore always
// writes a node and (when it bumps the counter) the next-ref meta entry
// through the same Batch, so a crash between the two can never happen.
type Batch interface {
	Put(key, value []byte)
	Write() error
}
