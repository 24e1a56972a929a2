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
	"fmt"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/nibble"
	"github.com/ledgerfold/pmt-core/rlp"
)

// ExtensionNode compresses a run of nibbles that has exactly one child and
// no value of its own (spec.md §3, §4.4). Prefix.Len() is always >= 1: a
// zero-length Extension is never a reachable, stable state.
type ExtensionNode struct {
	hash   hashState
	Prefix nibble.Vec
	Child  NodeRef
}

// NewExtension creates an Extension over the given prefix, pointing at an
// already-stored child.
func NewExtension(prefix nibble.Vec, child NodeRef) *ExtensionNode {
	return &ExtensionNode{Prefix: prefix, Child: child}
}

func (e *ExtensionNode) markDirty() { e.hash.markDirty() }

// Get descends into the child iff the cursor's next Prefix.Len() nibbles
// match Prefix exactly (spec.md §4.4).
func (e *ExtensionNode) Get(store Store, path nibble.Slice) (common.ValueRLP, error) {
	if !path.SkipPrefix(e.Prefix) {
		return nil, nil
	}
	child, err := store.GetNode(e.Child)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, fmt.Errorf("%w: extension references missing node %d", errInconsistentSentinel, e.Child)
	}
	return child.Get(store, path)
}

// Insert descends into the child when the full prefix matches; otherwise
// the common prefix splits the Extension into a Branch (optionally
// re-wrapped in a shorter Extension for the surviving shared nibbles),
// mirroring LeafNode.Insert's divergence handling (spec.md §4.4).
func (e *ExtensionNode) Insert(store Store, path nibble.Slice, value common.ValueRLP) (Node, error) {
	lcp := path.CommonPrefixLength(e.Prefix)

	if lcp == e.Prefix.Len() {
		e.markDirty()
		path.SkipPrefix(e.Prefix)
		child, err := store.GetNode(e.Child)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, fmt.Errorf("%w: extension references missing node %d", errInconsistentSentinel, e.Child)
		}
		newChild, err := child.Insert(store, path, value)
		if err != nil {
			return nil, err
		}
		newRef, err := store.InsertNode(newChild)
		if err != nil {
			return nil, err
		}
		e.Child = newRef
		return e, nil
	}

	return splitExtensionAtDivergence(store, e.Prefix, e.Child, path, value, lcp)
}

// splitExtensionAtDivergence is splitAtDivergence's counterpart for an
// Extension, whose old side is a child reference rather than an inline
// Leaf value.
func splitExtensionAtDivergence(store Store, oldPrefix nibble.Vec, oldChild NodeRef, newPath nibble.Slice, newValue common.ValueRLP, lcp int) (Node, error) {
	for i := 0; i < lcp; i++ {
		newPath.Next()
	}

	var branch BranchNode

	oldRest := oldPrefix.Nibbles()[lcp:]
	// oldRest is never empty: lcp < oldPrefix.Len() was already established
	// by the caller (otherwise Insert would have taken the full-match path).
	if len(oldRest) == 1 {
		branch.Choices[oldRest[0]] = oldChild
	} else {
		oldExt := NewExtension(nibble.FromNibbles(oldRest[1:]), oldChild)
		oldRef, err := store.InsertNode(oldExt)
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
	return NewExtension(nibble.FromNibbles(oldPrefix.Nibbles()[:lcp]), branchRef), nil
}

// Remove descends into the child when the prefix matches; if the child
// collapses away entirely the Extension dissolves with it; if the child
// becomes an Extension or Leaf it is merged into this node's prefix rather
// than left double-indirected, and a Branch child stays behind this
// Extension (spec.md §4.4).
func (e *ExtensionNode) Remove(store Store, path nibble.Slice) (Node, common.ValueRLP, error) {
	if !path.SkipPrefix(e.Prefix) {
		return e, nil, nil
	}

	child, err := store.GetNode(e.Child)
	if err != nil {
		return nil, nil, err
	}
	if child == nil {
		return nil, nil, fmt.Errorf("%w: extension references missing node %d", errInconsistentSentinel, e.Child)
	}

	newChild, value, err := child.Remove(store, path)
	if err != nil {
		return nil, nil, err
	}
	if value == nil {
		return e, nil, nil
	}
	e.markDirty()

	if newChild == nil {
		return nil, value, nil
	}

	switch c := newChild.(type) {
	case *BranchNode:
		newRef, err := store.InsertNode(c)
		if err != nil {
			return nil, nil, err
		}
		e.Child = newRef
		return e, value, nil
	case *ExtensionNode:
		merged := NewExtension(e.Prefix.Append(c.Prefix), c.Child)
		return merged, value, nil
	case *LeafNode:
		merged := NewLeaf(e.Prefix.Append(c.Path), c.Value)
		return merged, value, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported child node type %T", errInconsistentSentinel, newChild)
	}
}

// ComputeHash RLP-encodes [compactEncode(Prefix, isLeaf=false), childHash]
// and applies the shared <32-byte inline rule (spec.md §4.4).
func (e *ExtensionNode) ComputeHash(store Store, pathOffset int) (EncodedChild, error) {
	if enc, ok := e.hash.get(); ok {
		return enc, nil
	}

	child, err := store.GetNode(e.Child)
	if err != nil {
		return EncodedChild{}, err
	}
	if child == nil {
		return EncodedChild{}, fmt.Errorf("%w: extension references missing node %d", errInconsistentSentinel, e.Child)
	}
	childEnc, err := child.ComputeHash(store, pathOffset+e.Prefix.Len())
	if err != nil {
		return EncodedChild{}, err
	}

	encodedPath := compactEncode(e.Prefix, false)
	var childItem rlp.Item
	if childEnc.IsInline() {
		childItem = rlp.Encoded{Data: childEnc.Bytes}
	} else {
		childItem = rlp.String{Str: childEnc.Bytes}
	}

	encoded := rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.String{Str: encodedPath},
		childItem,
	}})
	result := finalizeEncoding(encoded)
	e.hash.set(result)
	return result, nil
}
