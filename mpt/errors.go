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

import "github.com/ledgerfold/pmt-core/common"

// errDecodeSentinel is wrapped by every decode-time error in this package
// so callers can match them uniformly with errors.Is(err, common.ErrDecode).
var errDecodeSentinel = common.ErrDecode

// errInconsistentSentinel is wrapped whenever a fetched NodeRef resolves to
// nothing, or an Extension's child is not a Branch (spec.md §7).
var errInconsistentSentinel = common.ErrInconsistentTree
