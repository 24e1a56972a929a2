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

// Sentinel error kinds surfaced by the trie core (spec.md §7). Callers
// should match them with errors.Is; call sites wrap them with fmt.Errorf's
// %w verb to attach context (the NodeRef involved, the key, ...).
const (
	// ErrStoreIO signals a backing KV failure. Fatal to the current
	// operation; the trie's root field is left unchanged.
	ErrStoreIO = ConstError("store: backing key/value engine failure")

	// ErrDecode signals that on-disk bytes failed to parse as a valid
	// node. Indicates corruption and is fatal to the current operation.
	ErrDecode = ConstError("store: node bytes failed to decode")

	// ErrInconsistentTree signals that a valid NodeRef resolved to no
	// node, or an Extension pointed at a non-Branch. This is a bug or
	// corruption and is unrecoverable for the affected root.
	ErrInconsistentTree = ConstError("trie: inconsistent internal tree structure")

	// ErrInvalidArgument signals an empty key on insert, or a value of
	// zero length (the reserved deletion sentinel).
	ErrInvalidArgument = ConstError("trie: invalid argument")

	// ErrNotFound signals that a NodeRef or root hash has no corresponding
	// entry in the store.
	ErrNotFound = ConstError("store: not found")
)
