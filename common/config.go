// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// Backend selects the on-disk key/value engine a node store is opened
// against.
type Backend string

const (
	BackendLevelDB Backend = "leveldb"
	BackendPebble  Backend = "pebble"
	BackendMemory  Backend = "memory"
)

// Config bundles the tuning knobs a deployment picks once, at startup, in
// the style of the teacher's MptConfig: a descriptive Name plus a handful
// of named options, rather than a long positional constructor.
type Config struct {
	// Name has no effect except for logging and debugging.
	Name string

	// Backend selects the KV engine a node store opens.
	Backend Backend

	// NodeCacheSize is the number of decoded nodes the store's read-through
	// LRU cache retains. It must be positive: store.Open returns an error
	// for a size of 0 or less, and caching cannot be disabled.
	NodeCacheSize int
}

// DefaultConfig is a reasonable configuration for a single-node deployment
// backed by LevelDB.
var DefaultConfig = Config{
	Name:          "default",
	Backend:       BackendLevelDB,
	NodeCacheSize: 4096,
}
