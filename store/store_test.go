// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store_test

import (
	"bytes"
	"testing"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/mpt"
	"github.com/ledgerfold/pmt-core/nibble"
	"github.com/ledgerfold/pmt-core/store"
	"github.com/ledgerfold/pmt-core/store/memkv"
)

func newNodeStore(t *testing.T) *store.NodeStore {
	t.Helper()
	ns, err := store.Open(memkv.New(), 64)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return ns
}

func TestNodeStore_InsertThenGetRoundTrips(t *testing.T) {
	ns := newNodeStore(t)
	leaf := mpt.NewLeaf(nibble.FromBytes([]byte{0xAB, 0xCD}), []byte("value"))

	ref, err := ns.InsertNode(leaf)
	if err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	if ref == mpt.NoRef {
		t.Fatalf("expected a non-zero NodeRef")
	}

	got, err := ns.GetNode(ref)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	value, err := got.Get(ns, nibble.New([]byte{0xAB, 0xCD}))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Fatalf("got %q, want value", value)
	}
}

func TestNodeStore_RefsAreMonotonicAndNeverReused(t *testing.T) {
	ns := newNodeStore(t)
	var refs []mpt.NodeRef
	for i := 0; i < 5; i++ {
		ref, err := ns.InsertNode(mpt.NewLeaf(nibble.FromBytes([]byte{byte(i)}), []byte("v")))
		if err != nil {
			t.Fatalf("InsertNode: %v", err)
		}
		refs = append(refs, ref)
	}
	for i := 1; i < len(refs); i++ {
		if refs[i] <= refs[i-1] {
			t.Fatalf("refs not strictly increasing: %v", refs)
		}
	}
}

func TestNodeStore_RootTableRoundTrips(t *testing.T) {
	ns := newNodeStore(t)
	ref, err := ns.InsertNode(mpt.NewLeaf(nibble.FromBytes([]byte{0x01}), []byte("v")))
	if err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	root := common.Keccak256([]byte("arbitrary root hash seed"))

	if err := ns.PutRoot(root, ref); err != nil {
		t.Fatalf("PutRoot: %v", err)
	}
	got, ok, err := ns.GetRoot(root)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if !ok || got != ref {
		t.Fatalf("GetRoot = (%v, %v), want (%v, true)", got, ok, ref)
	}

	unknown := common.Keccak256([]byte("never stored"))
	if _, ok, err := ns.GetRoot(unknown); err != nil || ok {
		t.Fatalf("GetRoot(unknown) = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestNodeStore_GetNodeOfNoRefIsNilNotError(t *testing.T) {
	ns := newNodeStore(t)
	n, err := ns.GetNode(mpt.NoRef)
	if err != nil || n != nil {
		t.Fatalf("GetNode(NoRef) = (%v, %v), want (nil, nil)", n, err)
	}
}

func TestNodeStore_PersistsAcrossCacheEviction(t *testing.T) {
	ns, err := store.Open(memkv.New(), 1)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}

	firstRef, err := ns.InsertNode(mpt.NewLeaf(nibble.FromBytes([]byte{0x01}), []byte("first")))
	if err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	// A second insert with cache size 1 evicts the first node from the
	// cache; GetNode must still reconstruct it from the backing engine.
	if _, err := ns.InsertNode(mpt.NewLeaf(nibble.FromBytes([]byte{0x02}), []byte("second"))); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	n, err := ns.GetNode(firstRef)
	if err != nil {
		t.Fatalf("GetNode after eviction: %v", err)
	}
	leaf, ok := n.(*mpt.LeafNode)
	if !ok {
		t.Fatalf("expected *mpt.LeafNode, got %T", n)
	}
	if !bytes.Equal(leaf.Value, []byte("first")) {
		t.Fatalf("leaf value = %q, want first", leaf.Value)
	}
}
