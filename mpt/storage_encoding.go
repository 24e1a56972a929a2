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
	"github.com/ledgerfold/pmt-core/rlp"
)

// Storage tag bytes identifying which variant follows in EncodeNode's
// output. This is the versioned, store-internal encoding (spec.md §6); it
// is never fed into keccak256 and must not be confused with a node's
// consensus hash preimage, which carries no tag and references children by
// hash rather than by NodeRef.
const (
	tagBranch    byte = 0
	tagExtension byte = 1
	tagLeaf      byte = 2
)

// EncodeNode serializes n for the key/value store: a single tag byte
// followed by an RLP list of the variant's fields, referencing children by
// NodeRef rather than by hash.
func EncodeNode(n Node) ([]byte, error) {
	var tag byte
	var body rlp.Item

	switch v := n.(type) {
	case *BranchNode:
		tag = tagBranch
		choices := make([]rlp.Item, 16)
		for i, ref := range v.Choices {
			choices[i] = rlp.Uint64{Value: uint64(ref)}
		}
		hasValue := uint64(0)
		if v.HasValue {
			hasValue = 1
		}
		body = rlp.List{Items: []rlp.Item{
			rlp.List{Items: choices},
			rlp.Uint64{Value: hasValue},
			rlp.String{Str: v.Value},
		}}

	case *ExtensionNode:
		tag = tagExtension
		count, packed := encodeNibbles(v.Prefix)
		body = rlp.List{Items: []rlp.Item{
			rlp.Uint64{Value: count},
			rlp.String{Str: packed},
			rlp.Uint64{Value: uint64(v.Child)},
		}}

	case *LeafNode:
		tag = tagLeaf
		count, packed := encodeNibbles(v.Path)
		body = rlp.List{Items: []rlp.Item{
			rlp.Uint64{Value: count},
			rlp.String{Str: packed},
			rlp.String{Str: v.Value},
		}}

	default:
		return nil, fmt.Errorf("%w: unsupported node type %T", errDecodeSentinel, n)
	}

	return rlp.EncodeInto([]byte{tag}, body), nil
}

// DecodeNode is EncodeNode's inverse.
func DecodeNode(data []byte) (Node, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty node bytes", errDecodeSentinel)
	}
	tag, rest := data[0], data[1:]

	item, err := rlp.Decode(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDecodeSentinel, err)
	}
	list, ok := item.(rlp.List)
	if !ok {
		return nil, fmt.Errorf("%w: expected an RLP list at the node body", errDecodeSentinel)
	}

	switch tag {
	case tagBranch:
		if len(list.Items) != 3 {
			return nil, fmt.Errorf("%w: branch body has %d fields, want 3", errDecodeSentinel, len(list.Items))
		}
		choicesList, ok := list.Items[0].(rlp.List)
		if !ok || len(choicesList.Items) != 16 {
			return nil, fmt.Errorf("%w: branch choices field is malformed", errDecodeSentinel)
		}
		var choices [16]NodeRef
		for i, it := range choicesList.Items {
			s, ok := it.(rlp.String)
			if !ok {
				return nil, fmt.Errorf("%w: branch choice %d is not a string", errDecodeSentinel, i)
			}
			choices[i] = NodeRef(decodeUint64(s))
		}
		hasValueItem, ok := list.Items[1].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("%w: branch has-value field is malformed", errDecodeSentinel)
		}
		value, ok := list.Items[2].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("%w: branch value field is malformed", errDecodeSentinel)
		}
		return &BranchNode{Choices: choices, HasValue: decodeUint64(hasValueItem) != 0, Value: value.Str}, nil

	case tagExtension:
		if len(list.Items) != 3 {
			return nil, fmt.Errorf("%w: extension body has %d fields, want 3", errDecodeSentinel, len(list.Items))
		}
		count, packed, err := decodeNibbleFields(list.Items[0], list.Items[1])
		if err != nil {
			return nil, err
		}
		childItem, ok := list.Items[2].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("%w: extension child field is malformed", errDecodeSentinel)
		}
		return &ExtensionNode{
			Prefix: decodeNibbles(count, packed),
			Child:  NodeRef(decodeUint64(childItem)),
		}, nil

	case tagLeaf:
		if len(list.Items) != 3 {
			return nil, fmt.Errorf("%w: leaf body has %d fields, want 3", errDecodeSentinel, len(list.Items))
		}
		count, packed, err := decodeNibbleFields(list.Items[0], list.Items[1])
		if err != nil {
			return nil, err
		}
		value, ok := list.Items[2].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("%w: leaf value field is malformed", errDecodeSentinel)
		}
		return &LeafNode{Path: decodeNibbles(count, packed), Value: value.Str}, nil

	default:
		return nil, fmt.Errorf("%w: unknown node tag %d", errDecodeSentinel, tag)
	}
}

// encodeNibbles packs v losslessly as (nibble count, tightly-packed bytes).
// The count is carried explicitly because a packed byte buffer alone cannot
// distinguish an odd-length sequence from one padded with a trailing zero
// nibble.
func encodeNibbles(v nibble.Vec) (count uint64, packed []byte) {
	nibbles := v.Nibbles()
	packed = make([]byte, (len(nibbles)+1)/2)
	for i, n := range nibbles {
		if i%2 == 0 {
			packed[i/2] = byte(n) << 4
		} else {
			packed[i/2] |= byte(n)
		}
	}
	return uint64(len(nibbles)), packed
}

func decodeNibbles(count uint64, packed []byte) nibble.Vec {
	out := make([]nibble.Nibble, count)
	for i := range out {
		b := packed[i/2]
		if i%2 == 0 {
			out[i] = nibble.Nibble(b >> 4)
		} else {
			out[i] = nibble.Nibble(b & 0x0F)
		}
	}
	return nibble.FromNibbles(out)
}

func decodeNibbleFields(countItem, packedItem rlp.Item) (count uint64, packed []byte, err error) {
	countStr, ok := countItem.(rlp.String)
	if !ok {
		return 0, nil, fmt.Errorf("%w: nibble count field is malformed", errDecodeSentinel)
	}
	packedStr, ok := packedItem.(rlp.String)
	if !ok {
		return 0, nil, fmt.Errorf("%w: packed nibble field is malformed", errDecodeSentinel)
	}
	return decodeUint64(countStr), packedStr.Str, nil
}

func decodeUint64(s rlp.String) uint64 {
	var v uint64
	for _, b := range s.Str {
		v = v<<8 | uint64(b)
	}
	return v
}
