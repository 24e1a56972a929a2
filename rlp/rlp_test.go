// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE.TXT file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use
// of this software will be governed by the GNU Lesser General Public Licence v3.

package rlp

import (
	"bytes"
	"math/big"
	"testing"
)

func TestEncoding_EncodeStrings(t *testing.T) {
	tests := []struct {
		input  []byte
		result []byte
	}{
		{[]byte{}, []byte{0x80}},
		{[]byte{0}, []byte{0}},
		{[]byte{0x7f}, []byte{0x7f}},
		{[]byte{0x80}, []byte{0x81, 0x80}},
		{[]byte{1, 2, 3}, []byte{0x83, 1, 2, 3}},
		{make([]byte, 55), func() []byte {
			res := make([]byte, 56)
			res[0] = 0x80 + 55
			return res
		}()},
		{make([]byte, 56), func() []byte {
			res := make([]byte, 58)
			res[0] = 0xb7 + 1
			res[1] = 56
			return res
		}()},
	}

	for _, test := range tests {
		if got, want := Encode(String{test.input}), test.result; !bytes.Equal(got, want) {
			t.Errorf("invalid encoding, wanted %v, got %v, input %v", want, got, test.input)
		}
		if got, want := (String{test.input}).getEncodedLength(), len(test.result); got != want {
			t.Errorf("invalid encoded length, wanted %d, got %d, input %v", want, got, test.input)
		}
	}
}

func TestEncoding_EncodeList(t *testing.T) {
	list := List{Items: []Item{String{[]byte{1}}, String{[]byte{2, 3}}}}
	got := Encode(list)
	want := []byte{0xc4, 1, 0x82, 2, 3}
	if !bytes.Equal(got, want) {
		t.Errorf("invalid list encoding, wanted %v, got %v", want, got)
	}
}

func TestEncoding_Uint64(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{1}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x81, 0x80}},
		{1024, []byte{0x82, 0x04, 0x00}},
	}
	for _, test := range tests {
		if got := Encode(Uint64{test.value}); !bytes.Equal(got, test.want) {
			t.Errorf("Uint64(%d): got %v, want %v", test.value, got, test.want)
		}
	}
}

func TestEncoding_BigInt(t *testing.T) {
	v := new(big.Int)
	v.SetString("123456789012345678901234567890", 10)
	encoded := Encode(BigInt{v})
	item, err := Decode(encoded)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	str, ok := item.(String)
	if !ok {
		t.Fatalf("expected String, got %T", item)
	}
	got := new(big.Int).SetBytes(str.Str)
	if got.Cmp(v) != 0 {
		t.Errorf("round-trip mismatch: got %v, want %v", got, v)
	}
}

func TestDecode_RoundTripsList(t *testing.T) {
	list := List{Items: []Item{String{[]byte("hello")}, String{[]byte("world")}}}
	encoded := Encode(list)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	got, ok := decoded.(List)
	if !ok || len(got.Items) != 2 {
		t.Fatalf("unexpected decode result: %#v", decoded)
	}
	if s, ok := got.Items[0].(String); !ok || string(s.Str) != "hello" {
		t.Errorf("item 0: got %#v", got.Items[0])
	}
	if s, ok := got.Items[1].(String); !ok || string(s.Str) != "world" {
		t.Errorf("item 1: got %#v", got.Items[1])
	}
}

func TestDecode_RejectsTrailingBytes(t *testing.T) {
	encoded := append(Encode(String{[]byte("x")}), 0xFF)
	if _, err := Decode(encoded); err == nil {
		t.Errorf("expected an error for trailing bytes")
	}
}

func TestDecode_RejectsEmptyInput(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Errorf("expected an error for empty input")
	}
}
