// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie_test

import (
	"bytes"
	"testing"

	"github.com/ledgerfold/pmt-core/store"
	"github.com/ledgerfold/pmt-core/store/memkv"
	"github.com/ledgerfold/pmt-core/trie"
)

func newTrie(t *testing.T) *trie.Trie {
	t.Helper()
	ns, err := store.Open(memkv.New(), 256)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return trie.New(ns)
}

func TestTrie_EmptyRootHash(t *testing.T) {
	tr := newTrie(t)
	hash, err := tr.ComputeRootHash()
	if err != nil {
		t.Fatalf("ComputeRootHash: %v", err)
	}
	if hash != trie.EmptyRootHash {
		t.Fatalf("got %s, want %s", hash, trie.EmptyRootHash)
	}
}

func TestTrie_InsertGetRemove(t *testing.T) {
	tr := newTrie(t)

	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"doge":  "coin",
		"horse": "stallion",
	}
	for k, v := range entries {
		if err := tr.Insert([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Insert(%q): %v", k, err)
		}
	}
	for k, v := range entries {
		got, err := tr.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if !bytes.Equal(got, []byte(v)) {
			t.Fatalf("Get(%q) = %q, want %q", k, got, v)
		}
	}

	removed, err := tr.Remove([]byte("dog"))
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !bytes.Equal(removed, []byte("puppy")) {
		t.Fatalf("removed = %q, want puppy", removed)
	}
	if got, err := tr.Get([]byte("dog")); err != nil || got != nil {
		t.Fatalf("Get(dog) after removal = (%q, %v), want (nil, nil)", got, err)
	}
	if got, err := tr.Get([]byte("doge")); err != nil || !bytes.Equal(got, []byte("coin")) {
		t.Fatalf("Get(doge) after unrelated removal = (%q, %v)", got, err)
	}
}

func TestTrie_CommitThenOpenAtRoundTrips(t *testing.T) {
	ns, err := store.Open(memkv.New(), 256)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	tr := trie.New(ns)
	if err := tr.Insert([]byte("alpha"), []byte("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tr.Insert([]byte("beta"), []byte("2")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rootHash, err := tr.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reopened, err := trie.OpenAt(ns, rootHash)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	got, err := reopened.Get([]byte("alpha"))
	if err != nil || !bytes.Equal(got, []byte("1")) {
		t.Fatalf("Get(alpha) on reopened trie = (%q, %v)", got, err)
	}

	reopenedHash, err := reopened.ComputeRootHash()
	if err != nil {
		t.Fatalf("ComputeRootHash on reopened trie: %v", err)
	}
	if reopenedHash != rootHash {
		t.Fatalf("reopened hash %s != committed hash %s", reopenedHash, rootHash)
	}
}

func TestTrie_OpenAtUnknownRootFails(t *testing.T) {
	ns, err := store.Open(memkv.New(), 256)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	bogus := trie.EmptyRootHash
	bogus[0] ^= 0xFF
	if _, err := trie.OpenAt(ns, bogus); err == nil {
		t.Fatalf("expected an error opening an unknown root")
	}
}
