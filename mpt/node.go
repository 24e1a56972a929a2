// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package mpt implements the node algebra of an Ethereum-compatible
// Patricia Merkle Trie: the Branch/Extension/Leaf tagged union, their
// get/insert/remove/compute-hash operators, and the on-disk storage
// encoding distinct from the consensus hash preimage (spec.md §3, §4, §6).
//
// The package is grounded on original_source/crates/storage/trie/node/
// branch.rs (the Rust implementation spec.md was distilled from) for the
// exact operator semantics, and on the teacher's database/mpt/nodes.go for
// the Go shape of a tagged-union Node implemented as a set of structs
// sharing a common interface.
package mpt

import (
	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/nibble"
)

// NodeRef is an opaque, dense, monotonically assigned integer identifier
// for a node in the store (spec.md §3). The zero value is the sentinel
// meaning "no child".
type NodeRef uint64

// NoRef is the sentinel NodeRef meaning "no child".
const NoRef NodeRef = 0

// Valid reports whether r addresses an actual node.
func (r NodeRef) Valid() bool { return r != NoRef }

// Store is the contract the node algebra needs from the persistence layer:
// decode a node by reference, and persist a (possibly new) node, obtaining
// a fresh reference. It is implemented by package store's NodeStore; kept
// as a narrow interface here so the node algebra never depends on a
// concrete storage engine (spec.md §4.2's get_node/insert_node).
type Store interface {
	GetNode(ref NodeRef) (Node, error)
	InsertNode(n Node) (NodeRef, error)
}

// Node is the tagged union Branch | Extension | Leaf (spec.md §3).
type Node interface {
	// Get returns the value stored at path, if any.
	Get(store Store, path nibble.Slice) (common.ValueRLP, error)

	// Insert inserts value at path into the subtrie rooted at this node,
	// returning the new root of the subtrie. It mutates the receiver in
	// place and returns it, mirroring the teacher's move/consume shape
	// ("mut self -> Self") from the Rust original.
	Insert(store Store, path nibble.Slice, value common.ValueRLP) (Node, error)

	// Remove removes the value at path (if any) from the subtrie rooted at
	// this node. It returns the new root of the subtrie (nil if the whole
	// subtrie was removed) and the removed value (nil if there was none).
	Remove(store Store, path nibble.Slice) (Node, common.ValueRLP, error)

	// ComputeHash computes this node's consensus hash/inline encoding,
	// recursively refreshing children as needed, and caches the result
	// (spec.md §4.3 "Compute hash"). pathOffset is the number of nibbles
	// already consumed to reach this node; implementations pass it on to
	// their children and do not otherwise use it.
	ComputeHash(store Store, pathOffset int) (EncodedChild, error)

	// markDirty invalidates this node's cached hash. Called whenever a
	// mutation changes anything reachable from this node.
	markDirty()
}

// EncodedChild is a node's encoding as seen by its parent: either the raw
// RLP bytes of the node itself (when that encoding is shorter than 32
// bytes, the Ethereum "inline child" rule) or its 32-byte keccak256 digest
// (spec.md §3 "NodeHash", §6 "Consensus hash preimage").
type EncodedChild struct {
	Bytes []byte
}

// IsInline reports whether this child is embedded by value rather than by
// hash.
func (e EncodedChild) IsInline() bool { return len(e.Bytes) < common.HashSize }

// AsHash interprets a non-inline EncodedChild as a 32-byte hash.
func (e EncodedChild) AsHash() common.Hash {
	var h common.Hash
	copy(h[:], e.Bytes)
	return h
}

// hashState is the three-state hash cache slot required by spec.md §9:
// "dirty | inline(bytes,len) | hashed([32])". The distinction between a
// short inline RLP fragment and a keccak digest is load-bearing at the
// parent's encoding step (a parent must know whether to re-embed the
// bytes or treat them as a 32-byte hash string), so it is never collapsed
// into a nullable hash.
//
// valid's zero value is false, so a freshly constructed or freshly decoded
// node is "dirty" (needs computing) by default; nothing needs to remember
// to call markDirty() on construction.
type hashState struct {
	valid  bool
	cached EncodedChild
}

func (h *hashState) markDirty() { h.valid = false }

// get returns the cached encoding and true if it is still valid.
func (h *hashState) get() (EncodedChild, bool) {
	if !h.valid {
		return EncodedChild{}, false
	}
	return h.cached, true
}

func (h *hashState) set(enc EncodedChild) {
	h.cached = enc
	h.valid = true
}
