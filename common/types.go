// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package common holds the small set of types shared by every layer of the
// trie engine: the fixed-size Hash type, RLP byte-buffer aliases, and the
// sentinel error values surfaced by the core (spec.md §7).
package common

import (
	"bytes"
	"encoding/hex"
)

// HashSize is the byte-size of the Hash type.
const HashSize = 32

// Hash is a 32-byte keccak256 digest.
type Hash [HashSize]byte

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

func (a Hash) Compare(b Hash) int { return bytes.Compare(a[:], b[:]) }

// BytesToHash right-aligns b into a Hash, truncating from the left if b is
// longer than HashSize.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(h[HashSize-len(b):], b)
	return h
}

// HexToHash parses a hex string (with or without "0x" prefix) into a Hash.
func HexToHash(s string) Hash {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, _ := hex.DecodeString(s)
	return BytesToHash(b)
}

// PathRLP is the raw key a value is stored under in the trie.
type PathRLP = []byte

// ValueRLP is the raw, already-encoded value stored in the trie.
type ValueRLP = []byte

// ConstError is an error type that can be used to define immutable error
// constants, following the teacher's common/const_error.go idiom.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}
