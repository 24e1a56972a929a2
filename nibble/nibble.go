// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package nibble implements the trie's path alphabet: half-bytes ("nibbles"),
// packed nibble sequences, and a cursor for recursive descent without
// copying (spec.md §4.1). Nibble and the common-prefix helpers are
// generalized from the teacher's database/mpt/nibble.go, which only ever
// converts fixed 32-byte account/storage keys; here a NibbleSlice cursor
// walks arbitrary-length paths as required for Branch/Extension/Leaf
// traversal over arbitrary caller-supplied keys.
package nibble

// Nibble is a 4-bit value in [0, 15], the trie's path alphabet.
type Nibble byte

// Rune converts a Nibble into a hexadecimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	switch {
	case n < 10:
		return rune('0' + n)
	case n < 16:
		return rune('a' + n - 10)
	default:
		return '?'
	}
}

func (n Nibble) String() string {
	return string(n.Rune())
}

// Vec is a sequence of nibbles together with a flag recording whether the
// first nibble occupies the high or low half of its backing byte. The flag
// is required to reconstruct odd-length paths unambiguously when a Vec is
// built by prepending a single nibble to an existing (possibly odd-length)
// sequence, as happens when a Branch collapses into an Extension
// (spec.md §4.3).
type Vec struct {
	nibbles []Nibble
	// oddOffset is true when the logical path this Vec represents began at
	// an odd nibble offset in its original byte buffer. It only matters for
	// round-tripping through the compact encoding; the nibble contents
	// themselves are always stored as a plain, byte-aligned slice.
	oddOffset bool
}

// FromNibbles builds a Vec from an explicit nibble slice.
func FromNibbles(nibbles []Nibble) Vec {
	return Vec{nibbles: append([]Nibble(nil), nibbles...)}
}

// FromSingle builds a one-nibble Vec, recording the parity it was carved
// from. Used when a Branch collapses into an Extension of a single choice
// index (spec.md §4.3, Remove "1 child" case).
func FromSingle(n Nibble, odd bool) Vec {
	return Vec{nibbles: []Nibble{n}, oddOffset: odd}
}

// Len returns the number of nibbles in v.
func (v Vec) Len() int { return len(v.nibbles) }

// Nibbles returns the raw nibble sequence. Callers must not mutate it.
func (v Vec) Nibbles() []Nibble { return v.nibbles }

// Prepend returns a new Vec with n placed before v's existing nibbles.
func (v Vec) Prepend(n Nibble) Vec {
	out := make([]Nibble, 0, len(v.nibbles)+1)
	out = append(out, n)
	out = append(out, v.nibbles...)
	return Vec{nibbles: out, oddOffset: v.oddOffset}
}

// Append returns a new Vec with other's nibbles placed after v's.
func (v Vec) Append(other Vec) Vec {
	out := make([]Nibble, 0, len(v.nibbles)+len(other.nibbles))
	out = append(out, v.nibbles...)
	out = append(out, other.nibbles...)
	return Vec{nibbles: out, oddOffset: v.oddOffset}
}

// Slice is a read cursor over a byte buffer, addressed in nibbles via an
// offset. It never copies the backing buffer; it only tracks a position.
type Slice struct {
	data   []byte
	offset int // position, in nibbles
}

// New returns a cursor over bytes starting at offset 0.
func New(data []byte) Slice {
	return Slice{data: data}
}

// NewAt returns a cursor over bytes starting at the given nibble offset.
func NewAt(data []byte, offset int) Slice {
	return Slice{data: data, offset: offset}
}

// Len returns the number of remaining nibbles in the cursor.
func (s Slice) Len() int {
	return len(s.data)*2 - s.offset
}

// Offset returns the current cursor position, in nibbles, within the
// original buffer. Callers use its parity to decide whether a single-nibble
// prefix sits in the high or low half of its backing byte when
// reconstructing an Extension's prefix after branch collapse.
func (s Slice) Offset() int { return s.offset }

// At returns the nibble at logical position i without advancing the
// cursor.
func (s Slice) At(i int) Nibble {
	pos := s.offset + i
	b := s.data[pos/2]
	if pos%2 == 0 {
		return Nibble(b >> 4)
	}
	return Nibble(b & 0x0F)
}

// Next returns the nibble at the cursor and advances it by one. ok is false
// once the cursor is exhausted.
func (s *Slice) Next() (n Nibble, ok bool) {
	if s.Len() <= 0 {
		return 0, false
	}
	n = s.At(0)
	s.offset++
	return n, true
}

// Data realizes the remaining cursor tail as a fresh, byte-aligned buffer.
// If the current offset is odd, the first output byte's high nibble is
// zero-padded (spec.md §4.1).
func (s Slice) Data() []byte {
	n := s.Len()
	out := make([]byte, (n+1)/2)
	pad := s.offset % 2
	for i := 0; i < n; i++ {
		nib := s.At(i)
		j := i + pad
		if j%2 == 0 {
			out[j/2] = byte(nib) << 4
		} else {
			out[j/2] |= byte(nib)
		}
	}
	return out
}

// SkipPrefix reports whether the next len(prefix) nibbles of the cursor
// match prefix exactly; if so it advances the cursor past them.
func (s *Slice) SkipPrefix(prefix Vec) bool {
	pn := prefix.Nibbles()
	if s.Len() < len(pn) {
		return false
	}
	for i, n := range pn {
		if s.At(i) != n {
			return false
		}
	}
	s.offset += len(pn)
	return true
}

// CommonPrefixLength computes the length of the common prefix between the
// cursor's remaining tail and the given Vec, without advancing the cursor.
func (s Slice) CommonPrefixLength(v Vec) int {
	max := v.Len()
	if rem := s.Len(); rem < max {
		max = rem
	}
	for i := 0; i < max; i++ {
		if s.At(i) != v.Nibbles()[i] {
			return i
		}
	}
	return max
}

// ToVec realizes the remaining cursor tail as a Vec (used when the full
// remaining path must be stored verbatim, e.g. building a Leaf).
func (s Slice) ToVec() Vec {
	out := make([]Nibble, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return Vec{nibbles: out, oddOffset: s.offset%2 != 0}
}

// FromBytes converts a byte buffer into a full nibble Vec (two nibbles per
// byte, high nibble first).
func FromBytes(data []byte) Vec {
	out := make([]Nibble, len(data)*2)
	for i, b := range data {
		out[2*i] = Nibble(b >> 4)
		out[2*i+1] = Nibble(b & 0x0F)
	}
	return Vec{nibbles: out}
}

// CommonPrefixLength computes the length of the common prefix of two nibble
// sequences.
func CommonPrefixLength(a, b []Nibble) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for i := 0; i < max; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return max
}

// IsPrefixOf tests whether a is a prefix of b.
func IsPrefixOf(a, b []Nibble) bool {
	return len(a) <= len(b) && CommonPrefixLength(a, b) == len(a)
}

func (v Vec) String() string {
	runes := make([]rune, len(v.nibbles))
	for i, n := range v.nibbles {
		runes[i] = n.Rune()
	}
	return string(runes)
}
