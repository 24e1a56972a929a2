// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package statediff

import (
	"math/big"
	"testing"

	"github.com/ledgerfold/pmt-core/common"
)

func TestEncodeDecode_RoundTripsFullDiff(t *testing.T) {
	nonce := uint64(3)
	bytecodeHash := common.Keccak256([]byte("code"))

	sd := StateDiff{
		Version: 1,
		ModifiedAccounts: []AccountDiff{
			{
				Address: Address{0x01},
				Nonce:   &nonce,
				Balance: big.NewInt(42),
				Storage: map[common.Hash]common.Hash{
					common.Keccak256([]byte("slot-a")): common.Keccak256([]byte("value-a")),
					common.Keccak256([]byte("slot-b")): common.Keccak256([]byte("value-b")),
				},
				BytecodeHash: &bytecodeHash,
			},
			{Address: Address{0x02}},
		},
		WithdrawalLogs: []WithdrawalLog{
			{Address: Address{0x03}, Amount: big.NewInt(1000), TxHash: common.Keccak256([]byte("withdrawal"))},
		},
		DepositLogs: []DepositLog{
			{Address: Address{0x04}, Amount: big.NewInt(500), L1TxHash: common.Keccak256([]byte("deposit"))},
		},
	}

	encoded := Encode(sd)
	got, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Version != sd.Version {
		t.Errorf("Version = %d, want %d", got.Version, sd.Version)
	}
	if len(got.ModifiedAccounts) != 2 {
		t.Fatalf("ModifiedAccounts len = %d, want 2", len(got.ModifiedAccounts))
	}
	first := got.ModifiedAccounts[0]
	if first.Nonce == nil || *first.Nonce != nonce {
		t.Errorf("Nonce = %v, want %d", first.Nonce, nonce)
	}
	if first.Balance == nil || first.Balance.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("Balance = %v, want 42", first.Balance)
	}
	if len(first.Storage) != 2 {
		t.Errorf("Storage len = %d, want 2", len(first.Storage))
	}
	if first.BytecodeHash == nil || *first.BytecodeHash != bytecodeHash {
		t.Errorf("BytecodeHash = %v, want %s", first.BytecodeHash, bytecodeHash)
	}

	second := got.ModifiedAccounts[1]
	if second.Nonce != nil || second.Balance != nil || second.BytecodeHash != nil || len(second.Storage) != 0 {
		t.Errorf("second account should have no fields set, got %+v", second)
	}

	if len(got.WithdrawalLogs) != 1 || got.WithdrawalLogs[0].Amount.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("WithdrawalLogs round trip mismatch: %+v", got.WithdrawalLogs)
	}
	if len(got.DepositLogs) != 1 || got.DepositLogs[0].Amount.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("DepositLogs round trip mismatch: %+v", got.DepositLogs)
	}
}

func TestEncodeDecode_EmptyDiff(t *testing.T) {
	sd := StateDiff{Version: 1}
	got, err := Decode(Encode(sd))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.ModifiedAccounts) != 0 || len(got.WithdrawalLogs) != 0 || len(got.DepositLogs) != 0 {
		t.Fatalf("expected all-empty sections, got %+v", got)
	}
}

func TestDecode_RejectsTrailingBytes(t *testing.T) {
	encoded := append(Encode(StateDiff{Version: 1}), 0xFF)
	if _, err := Decode(encoded); err == nil {
		t.Fatalf("expected an error for trailing bytes")
	}
}

func TestDecode_RejectsTruncatedInput(t *testing.T) {
	if _, err := Decode([]byte{1, 0}); err == nil {
		t.Fatalf("expected an error for truncated input")
	}
}
