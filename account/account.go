// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package account implements the RLP codec for the value an Ethereum
// account trie stores at each leaf: (nonce, balance, storage root, code
// hash). It is grounded on the teacher's encodeAccount in
// go/database/mpt/hasher.go, generalized from Carmen's fixed account
// layout to the standalone big.Int balance Ethereum actually uses.
package account

import (
	"fmt"
	"math/big"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/rlp"
)

// Account is the value stored at a leaf of the state trie, keyed by the
// keccak256 hash of an address.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// Encode RLP-encodes a into the four-field list the consensus state trie
// expects.
func Encode(a Account) common.ValueRLP {
	balance := a.Balance
	if balance == nil {
		balance = new(big.Int)
	}
	return rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.Uint64{Value: a.Nonce},
		rlp.BigInt{Value: balance},
		rlp.String{Str: a.StorageRoot.Bytes()},
		rlp.String{Str: a.CodeHash.Bytes()},
	}})
}

// Decode is Encode's inverse.
func Decode(data common.ValueRLP) (Account, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	list, ok := item.(rlp.List)
	if !ok || len(list.Items) != 4 {
		return Account{}, fmt.Errorf("%w: account body is not a 4-element list", common.ErrDecode)
	}

	nonce, ok := list.Items[0].(rlp.String)
	if !ok {
		return Account{}, fmt.Errorf("%w: malformed nonce field", common.ErrDecode)
	}
	balance, ok := list.Items[1].(rlp.String)
	if !ok {
		return Account{}, fmt.Errorf("%w: malformed balance field", common.ErrDecode)
	}
	storageRoot, ok := list.Items[2].(rlp.String)
	if !ok || len(storageRoot.Str) != common.HashSize {
		return Account{}, fmt.Errorf("%w: malformed storage root field", common.ErrDecode)
	}
	codeHash, ok := list.Items[3].(rlp.String)
	if !ok || len(codeHash.Str) != common.HashSize {
		return Account{}, fmt.Errorf("%w: malformed code hash field", common.ErrDecode)
	}

	return Account{
		Nonce:       decodeUint64(nonce.Str),
		Balance:     new(big.Int).SetBytes(balance.Str),
		StorageRoot: common.BytesToHash(storageRoot.Str),
		CodeHash:    common.BytesToHash(codeHash.Str),
	}, nil
}

func decodeUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// EmptyCodeHash is the keccak256 hash of the empty byte string, the
// CodeHash value every externally-owned account carries.
var EmptyCodeHash = common.Keccak256(nil)
