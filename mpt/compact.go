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

	"github.com/ledgerfold/pmt-core/nibble"
)

// compactEncode implements Ethereum's hex-prefix ("compact") path encoding
// (spec.md §4.5): a single leading byte encodes (leaf_flag, odd_length_flag)
// in its high nibble, followed by the remaining nibbles packed two per
// byte. When the nibble count is odd, the first nibble is packed into the
// low half of the leading byte instead of being zero-padded.
//
// Grounded on the teacher's database/mpt/hasher.go encodePartialPath,
// generalized here to operate directly on a nibble.Vec rather than an
// already-packed, fixed-size key buffer.
func compactEncode(path nibble.Vec, isLeaf bool) []byte {
	nibbles := path.Nibbles()
	odd := len(nibbles)%2 == 1

	var flags byte
	if isLeaf {
		flags |= 1 << 5
	}
	if odd {
		flags |= 1 << 4
	}

	out := make([]byte, 0, len(nibbles)/2+1)
	if odd {
		flags |= byte(nibbles[0])
		nibbles = nibbles[1:]
	}
	out = append(out, flags)
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, byte(nibbles[i])<<4|byte(nibbles[i+1]))
	}
	return out
}

// compactDecode is the inverse of compactEncode.
func compactDecode(data []byte) (path nibble.Vec, isLeaf bool, err error) {
	if len(data) == 0 {
		return nibble.Vec{}, false, fmt.Errorf("%w: empty compact-encoded path", errDecodeSentinel)
	}
	flags := data[0]
	isLeaf = flags&(1<<5) != 0
	odd := flags&(1<<4) != 0

	var out []nibble.Nibble
	if odd {
		out = append(out, nibble.Nibble(flags&0x0F))
	}
	for _, b := range data[1:] {
		out = append(out, nibble.Nibble(b>>4), nibble.Nibble(b&0x0F))
	}
	return nibble.FromNibbles(out), isLeaf, nil
}
