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

// BranchNode is the 16-way fan-out node of the trie. It may additionally
// terminate a key of its own, tracked explicitly by HasValue rather than by
// Value's length or nilness, since an owned value can legitimately be a
// zero-length byte string (spec.md §3).
type BranchNode struct {
	hash     hashState
	Choices  [16]NodeRef
	HasValue bool
	Value    common.ValueRLP
}

// NewBranch creates a branch with the given children and no own value.
func NewBranch(choices [16]NodeRef) *BranchNode {
	return &BranchNode{Choices: choices}
}

// NewBranchWithValue creates a branch with the given children that also
// terminates its own key at value.
func NewBranchWithValue(choices [16]NodeRef, value common.ValueRLP) *BranchNode {
	return &BranchNode{Choices: choices, HasValue: true, Value: value}
}

func (b *BranchNode) markDirty() { b.hash.markDirty() }

// Get consumes one nibble and either recurses into the matching child or,
// if the cursor is exhausted, returns this branch's own value (spec.md §4.3).
func (b *BranchNode) Get(store Store, path nibble.Slice) (common.ValueRLP, error) {
	n, ok := path.Next()
	if !ok {
		if !b.HasValue {
			return nil, nil
		}
		return b.Value, nil
	}

	ref := b.Choices[n]
	if !ref.Valid() {
		return nil, nil
	}
	child, err := store.GetNode(ref)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, fmt.Errorf("%w: branch choice %d references missing node %d", errInconsistentSentinel, n, ref)
	}
	return child.Get(store, path)
}

// Insert either creates/descends into the matching child slot, or updates
// this branch's own (path, value) pair when the cursor is exhausted
// (spec.md §4.3).
func (b *BranchNode) Insert(store Store, path nibble.Slice, value common.ValueRLP) (Node, error) {
	b.markDirty()

	n, ok := path.Next()
	if !ok {
		b.HasValue = true
		b.Value = value
		return b, nil
	}

	ref := b.Choices[n]
	if !ref.Valid() {
		leaf := NewLeaf(path.ToVec(), value)
		newRef, err := store.InsertNode(leaf)
		if err != nil {
			return nil, err
		}
		b.Choices[n] = newRef
		return b, nil
	}

	child, err := store.GetNode(ref)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, fmt.Errorf("%w: branch choice %d references missing node %d", errInconsistentSentinel, n, ref)
	}
	newChild, err := child.Insert(store, path, value)
	if err != nil {
		return nil, err
	}
	newRef, err := store.InsertNode(newChild)
	if err != nil {
		return nil, err
	}
	b.Choices[n] = newRef
	return b, nil
}

// Remove implements the two-phase extract-then-restructure algorithm of
// spec.md §4.3. See DESIGN.md for the one point where this module follows
// spec.md's explicit prose over original_source/.../branch.rs's literal
// code (the "1 child + own value" case).
func (b *BranchNode) Remove(store Store, path nibble.Slice) (Node, common.ValueRLP, error) {
	pathOffset := path.Offset()

	var removed common.ValueRLP
	n, ok := path.Next()
	if ok {
		ref := b.Choices[n]
		if ref.Valid() {
			child, err := store.GetNode(ref)
			if err != nil {
				return nil, nil, err
			}
			if child == nil {
				return nil, nil, fmt.Errorf("%w: branch choice %d references missing node %d", errInconsistentSentinel, n, ref)
			}
			newChild, value, err := child.Remove(store, path)
			if err != nil {
				return nil, nil, err
			}
			if newChild != nil {
				newRef, err := store.InsertNode(newChild)
				if err != nil {
					return nil, nil, err
				}
				b.Choices[n] = newRef
			} else {
				b.Choices[n] = NoRef
			}
			removed = value
		}
	} else if b.HasValue {
		removed = b.Value
		b.HasValue = false
		b.Value = nil
	}

	if removed != nil {
		b.markDirty()
	}

	// Count the surviving children.
	singleIndex := -1
	var singleRef NodeRef
	count := 0
	for i, ref := range b.Choices {
		if ref.Valid() {
			count++
			singleIndex = i
			singleRef = ref
		}
	}

	switch {
	case count >= 2:
		return b, removed, nil

	case count == 1 && b.HasValue:
		// A branch with exactly one child and its own value is a legal,
		// non-transient branch (spec.md §3 invariants); no restructuring.
		return b, removed, nil

	case count == 1:
		child, err := store.GetNode(singleRef)
		if err != nil {
			return nil, nil, err
		}
		if child == nil {
			return nil, nil, fmt.Errorf("%w: branch choice %d references missing node %d", errInconsistentSentinel, singleIndex, singleRef)
		}
		switch c := child.(type) {
		case *BranchNode:
			ext := NewExtension(nibble.FromSingle(nibble.Nibble(singleIndex), pathOffset%2 != 0), singleRef)
			return ext, removed, nil
		case *ExtensionNode:
			c.Prefix = c.Prefix.Prepend(nibble.Nibble(singleIndex))
			c.markDirty()
			return c, removed, nil
		case *LeafNode:
			merged := NewLeaf(c.Path.Prepend(nibble.Nibble(singleIndex)), c.Value)
			return merged, removed, nil
		default:
			return nil, nil, fmt.Errorf("%w: unsupported child node type %T", errInconsistentSentinel, child)
		}

	case b.HasValue:
		// 0 children, own value present: convert to a Leaf terminating
		// right here, so its path is the empty Vec.
		return NewLeaf(nibble.Vec{}, b.Value), removed, nil

	default:
		// 0 children, no value: empty branch, acceptable only transiently
		// (root mid-mutation never returned to the facade, spec.md §3).
		return b, removed, nil
	}
}

// ComputeHash implements spec.md §4.3's "Compute hash": each of the 16
// slots is hashed recursively, embedded inline if its encoding is shorter
// than 32 bytes, the 17th element is the branch's own value, and the
// resulting RLP list is hashed (or kept inline) the same way.
func (b *BranchNode) ComputeHash(store Store, pathOffset int) (EncodedChild, error) {
	if enc, ok := b.hash.get(); ok {
		return enc, nil
	}

	var children [16]EncodedChild
	for i, ref := range b.Choices {
		if !ref.Valid() {
			continue
		}
		child, err := store.GetNode(ref)
		if err != nil {
			return EncodedChild{}, err
		}
		if child == nil {
			return EncodedChild{}, fmt.Errorf("%w: branch choice %d references missing node %d", errInconsistentSentinel, i, ref)
		}
		enc, err := child.ComputeHash(store, pathOffset+1)
		if err != nil {
			return EncodedChild{}, err
		}
		children[i] = enc
	}

	items := make([]rlp.Item, 17)
	for i, enc := range children {
		switch {
		case len(enc.Bytes) == 0:
			items[i] = rlp.String{}
		case enc.IsInline():
			items[i] = rlp.Encoded{Data: enc.Bytes}
		default:
			items[i] = rlp.String{Str: enc.Bytes}
		}
	}
	if b.HasValue {
		items[16] = rlp.String{Str: b.Value}
	} else {
		items[16] = rlp.String{}
	}

	result := finalizeEncoding(rlp.Encode(rlp.List{Items: items}))
	b.hash.set(result)
	return result, nil
}

// finalizeEncoding applies the <32-byte inline rule shared by every node
// variant's compute_hash (spec.md §4.3/§4.4/§4.5).
func finalizeEncoding(encoded []byte) EncodedChild {
	if len(encoded) < common.HashSize {
		return EncodedChild{Bytes: encoded}
	}
	h := common.Keccak256(encoded)
	return EncodedChild{Bytes: h[:]}
}
