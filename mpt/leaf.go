// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/nibble"
	"github.com/ledgerfold/pmt-core/rlp"
)

// LeafNode terminates a key: Path holds the remaining nibble suffix from
// this node down to the value (spec.md §4.5).
type LeafNode struct {
	hash  hashState
	Path  nibble.Vec
	Value common.ValueRLP
}

// NewLeaf creates a Leaf for the remaining path suffix and its value.
func NewLeaf(path nibble.Vec, value common.ValueRLP) *LeafNode {
	return &LeafNode{Path: path, Value: value}
}

func (l *LeafNode) markDirty() { l.hash.markDirty() }

// Get returns the value if the cursor's remaining tail matches Path exactly,
// nil otherwise (spec.md §4.5).
func (l *LeafNode) Get(store Store, path nibble.Slice) (common.ValueRLP, error) {
	if path.Len() != l.Path.Len() {
		return nil, nil
	}
	for i, n := range l.Path.Nibbles() {
		if path.At(i) != n {
			return nil, nil
		}
	}
	return l.Value, nil
}

// Insert either overwrites this leaf's value (path matches exactly) or
// splits the divergence point into a Branch, optionally wrapped in an
// Extension for the shared prefix (spec.md §4.5).
func (l *LeafNode) Insert(store Store, path nibble.Slice, value common.ValueRLP) (Node, error) {
	lcp := path.CommonPrefixLength(l.Path)

	if lcp == l.Path.Len() && lcp == path.Len() {
		l.markDirty()
		l.Value = value
		return l, nil
	}

	return splitAtDivergence(store, l.Path, l.Value, path, value, lcp)
}

// splitAtDivergence builds the Branch (optionally Extension-wrapped) that
// results from two paths diverging after lcp shared nibbles. It is used by
// LeafNode.Insert; ExtensionNode.Insert uses splitExtensionAtDivergence
// (spec.md §4.4, §4.5).
func splitAtDivergence(store Store, oldSuffix nibble.Vec, oldValue common.ValueRLP, newPath nibble.Slice, newValue common.ValueRLP, lcp int) (Node, error) {
	// Advance newPath past the shared prefix so what remains is exactly the
	// divergent tail.
	for i := 0; i < lcp; i++ {
		newPath.Next()
	}

	var branch BranchNode

	oldRest := oldSuffix.Nibbles()[lcp:]
	if len(oldRest) == 0 {
		// The old entry terminates exactly at the divergence point: it
		// becomes the new branch's own value.
		branch.HasValue = true
		branch.Value = oldValue
	} else {
		oldLeaf := NewLeaf(nibble.FromNibbles(oldRest[1:]), oldValue)
		oldRef, err := store.InsertNode(oldLeaf)
		if err != nil {
			return nil, err
		}
		branch.Choices[oldRest[0]] = oldRef
	}

	newNibble, hasMore := newPath.Next()
	if !hasMore {
		branch.HasValue = true
		branch.Value = newValue
	} else {
		newLeaf := NewLeaf(newPath.ToVec(), newValue)
		newRef, err := store.InsertNode(newLeaf)
		if err != nil {
			return nil, err
		}
		branch.Choices[newNibble] = newRef
	}

	if lcp == 0 {
		return &branch, nil
	}

	branchRef, err := store.InsertNode(&branch)
	if err != nil {
		return nil, err
	}
	return NewExtension(nibble.FromNibbles(oldSuffix.Nibbles()[:lcp]), branchRef), nil
}

// Remove deletes this leaf if the cursor matches Path exactly, returning a
// nil subtrie and the removed value; otherwise it returns the leaf
// unchanged and no value (spec.md §4.5).
func (l *LeafNode) Remove(store Store, path nibble.Slice) (Node, common.ValueRLP, error) {
	if path.Len() != l.Path.Len() {
		return l, nil, nil
	}
	for i, n := range l.Path.Nibbles() {
		if path.At(i) != n {
			return l, nil, nil
		}
	}
	return nil, l.Value, nil
}

// ComputeHash RLP-encodes [compactEncode(Path, isLeaf=true), Value] and
// applies the shared <32-byte inline rule (spec.md §4.5).
func (l *LeafNode) ComputeHash(store Store, pathOffset int) (EncodedChild, error) {
	if enc, ok := l.hash.get(); ok {
		return enc, nil
	}
	encodedPath := compactEncode(l.Path, true)
	encoded := rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.String{Str: encodedPath},
		rlp.String{Str: l.Value},
	}})
	result := finalizeEncoding(encoded)
	l.hash.set(result)
	return result, nil
}
