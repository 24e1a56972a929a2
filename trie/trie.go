// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trie is the facade over the node algebra and the node store: the
// single entry point callers use to open, query and mutate a Patricia
// Merkle Trie by its root hash (spec.md §3 "Trie", §7).
package trie

import (
	"fmt"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/mpt"
	"github.com/ledgerfold/pmt-core/nibble"
	"github.com/ledgerfold/pmt-core/store"
)

// EmptyRootHash is the keccak256 digest of the RLP encoding of the empty
// string, the canonical root hash of a trie with no entries (spec.md §7).
var EmptyRootHash = common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// Trie is a handle onto one root of the node algebra backed by a shared
// NodeStore. A nil in-memory root represents the empty trie; it is never
// given a NodeRef or written to the Roots table until Commit is called.
type Trie struct {
	store  *store.NodeStore
	root   mpt.Node
	logger common.Logger
}

// New returns the empty trie over the given store.
func New(s *store.NodeStore) *Trie {
	return &Trie{store: s, logger: common.NoopLogger{}}
}

// SetLogger directs the trie's trace/debug output at logger.
func (t *Trie) SetLogger(logger common.Logger) {
	t.logger = logger
}

// NewAt resumes a trie directly from a NodeRef, bypassing the Roots table.
// Used internally by OpenAt and by tooling that already tracks NodeRefs.
func NewAt(s *store.NodeStore, ref mpt.NodeRef) (*Trie, error) {
	if !ref.Valid() {
		return &Trie{store: s, logger: common.NoopLogger{}}, nil
	}
	n, err := s.GetNode(ref)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: node ref %d not found", common.ErrInconsistentTree, ref)
	}
	return &Trie{store: s, root: n, logger: common.NoopLogger{}}, nil
}

// OpenAt resumes a previously committed trie by its root hash, resolving it
// through the store's Roots table (spec.md §5, §7 "OpenAt").
func OpenAt(s *store.NodeStore, rootHash common.Hash) (*Trie, error) {
	if rootHash == EmptyRootHash {
		return &Trie{store: s, logger: common.NoopLogger{}}, nil
	}
	ref, ok, err := s.GetRoot(rootHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: root hash %s not found", common.ErrNotFound, rootHash)
	}
	return NewAt(s, ref)
}

// Get returns the value stored at key, or nil if there is none.
func (t *Trie) Get(key []byte) (common.ValueRLP, error) {
	if t.root == nil {
		return nil, nil
	}
	return t.root.Get(t.store, nibble.New(key))
}

// Insert writes value at key, creating intermediate nodes as needed.
func (t *Trie) Insert(key []byte, value common.ValueRLP) error {
	path := nibble.New(key)
	if t.root == nil {
		t.root = mpt.NewLeaf(path.ToVec(), value)
		return nil
	}
	newRoot, err := t.root.Insert(t.store, path, value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

// Remove deletes the value at key, if any, returning what was removed.
func (t *Trie) Remove(key []byte) (common.ValueRLP, error) {
	if t.root == nil {
		return nil, nil
	}
	newRoot, value, err := t.root.Remove(t.store, nibble.New(key))
	if err != nil {
		return nil, err
	}
	t.root = newRoot
	return value, nil
}

// ComputeRootHash returns the current root hash without persisting
// anything. The <32-byte inline-child rule only ever applies to a node as
// seen by its parent; the root itself is always hashed in full (spec.md
// §4.3/§4.4/§4.5 "Compute hash", §9).
func (t *Trie) ComputeRootHash() (common.Hash, error) {
	if t.root == nil {
		return EmptyRootHash, nil
	}
	enc, err := t.root.ComputeHash(t.store, 0)
	if err != nil {
		return common.Hash{}, err
	}
	if enc.IsInline() {
		return common.Keccak256(enc.Bytes), nil
	}
	return enc.AsHash(), nil
}

// Commit persists the current root to the Nodes and Roots tables and
// returns its hash, so a later OpenAt can resume from it (spec.md §5, §7
// "Commit").
func (t *Trie) Commit() (common.Hash, error) {
	rootHash, err := t.ComputeRootHash()
	if err != nil {
		return common.Hash{}, err
	}
	if t.root == nil {
		return rootHash, nil
	}
	ref, err := t.store.InsertNode(t.root)
	if err != nil {
		return common.Hash{}, err
	}
	if err := t.store.PutRoot(rootHash, ref); err != nil {
		return common.Hash{}, err
	}
	if t.logger.IsDebug() {
		t.logger.Debug("committed trie root", "hash", rootHash.String(), "ref", ref)
	}
	return rootHash, nil
}
