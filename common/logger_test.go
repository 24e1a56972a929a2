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

import "testing"

func TestNoopLogger_NeverWantsToLog(t *testing.T) {
	var l NoopLogger
	if l.IsTrace() || l.IsDebug() {
		t.Fatalf("NoopLogger should report both levels disabled")
	}
	// Must not panic even though nothing is listening.
	l.Trace("hello", "k", "v")
	l.Debug("hello", "k", "v")
}

func TestDefaultConfig_NamesALevelDBBackend(t *testing.T) {
	if DefaultConfig.Backend != BackendLevelDB {
		t.Fatalf("DefaultConfig.Backend = %v, want %v", DefaultConfig.Backend, BackendLevelDB)
	}
	if DefaultConfig.NodeCacheSize <= 0 {
		t.Fatalf("DefaultConfig.NodeCacheSize = %d, want > 0", DefaultConfig.NodeCacheSize)
	}
}
