// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// The 10,000-operation randomized scenario from spec.md §8: random
// insert/remove against an authoritative map, with structural invariants 5
// and 6 re-checked after every operation.
package trie_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ledgerfold/pmt-core/mpt"
	"github.com/ledgerfold/pmt-core/store"
	"github.com/ledgerfold/pmt-core/store/memkv"
	"github.com/ledgerfold/pmt-core/trie"
)

func TestFuzz_TenThousandOpsAgainstReferenceMap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping the 10,000-op fuzz pass in -short mode")
	}

	ns, err := store.Open(memkv.New(), 1024)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	tr := trie.New(ns)

	// Fixed seed: a failure must be reproducible across runs, not a
	// one-off flake.
	rng := rand.New(rand.NewSource(1))
	reference := make(map[string][]byte)

	randomBytes := func(maxLen int) []byte {
		b := make([]byte, 1+rng.Intn(maxLen))
		rng.Read(b)
		return b
	}

	const ops = 10000
	for i := 0; i < ops; i++ {
		key := randomBytes(4)

		if rng.Intn(3) == 0 && len(reference) > 0 {
			idx := rng.Intn(len(reference))
			j := 0
			for k := range reference {
				if j == idx {
					key = []byte(k)
					break
				}
				j++
			}
			want := reference[string(key)]
			removed, err := tr.Remove(key)
			if err != nil {
				t.Fatalf("op %d: Remove(%x): %v", i, key, err)
			}
			if !bytes.Equal(removed, want) {
				t.Fatalf("op %d: Remove(%x) = %x, want %x", i, key, removed, want)
			}
			delete(reference, string(key))
		} else {
			value := randomBytes(8)
			if err := tr.Insert(key, value); err != nil {
				t.Fatalf("op %d: Insert(%x): %v", i, key, err)
			}
			reference[string(key)] = value
		}

		got, err := tr.Get(key)
		if err != nil {
			t.Fatalf("op %d: Get(%x): %v", i, key, err)
		}
		if want := reference[string(key)]; !bytes.Equal(got, want) {
			t.Fatalf("op %d: Get(%x) = %x, want %x per the reference map", i, key, got, want)
		}

		hash, err := tr.Commit()
		if err != nil {
			t.Fatalf("op %d: Commit: %v", i, err)
		}
		if hash == trie.EmptyRootHash {
			continue
		}
		ref, ok, err := ns.GetRoot(hash)
		if err != nil {
			t.Fatalf("op %d: GetRoot: %v", i, err)
		}
		if !ok {
			t.Fatalf("op %d: committed root %s has no Roots-table entry", i, hash)
		}
		root, err := ns.GetNode(ref)
		if err != nil {
			t.Fatalf("op %d: GetNode: %v", i, err)
		}
		checkStructuralInvariants(t, ns, root, i)
	}

	for k, want := range reference {
		got, err := tr.Get([]byte(k))
		if err != nil {
			t.Fatalf("final Get(%x): %v", []byte(k), err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("final Get(%x) = %x, want %x", []byte(k), got, want)
		}
	}
}

// checkStructuralInvariants walks n and asserts spec.md §8 invariants 5
// ("every Extension's child resolves to a Branch") and 6 ("no Branch has
// exactly one child and an empty own value").
func checkStructuralInvariants(t *testing.T, ns *store.NodeStore, n mpt.Node, op int) {
	t.Helper()
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *mpt.BranchNode:
		children := 0
		for _, ref := range v.Choices {
			if ref.Valid() {
				children++
			}
		}
		if children == 1 && !v.HasValue {
			t.Fatalf("op %d: branch-compaction invariant violated: exactly one child and no own value", op)
		}
		for _, ref := range v.Choices {
			if !ref.Valid() {
				continue
			}
			child, err := ns.GetNode(ref)
			if err != nil {
				t.Fatalf("op %d: GetNode: %v", op, err)
			}
			checkStructuralInvariants(t, ns, child, op)
		}
	case *mpt.ExtensionNode:
		child, err := ns.GetNode(v.Child)
		if err != nil {
			t.Fatalf("op %d: GetNode: %v", op, err)
		}
		if _, ok := child.(*mpt.BranchNode); !ok {
			t.Fatalf("op %d: extension-points-to-branch invariant violated: child is %T", op, child)
		}
		checkStructuralInvariants(t, ns, child, op)
	case *mpt.LeafNode:
		// a Leaf has no children to descend into.
	}
}
