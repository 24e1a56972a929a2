// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import "github.com/prometheus/client_golang/prometheus"

var (
	nodeReads = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pmt",
		Subsystem: "store",
		Name:      "node_reads_total",
		Help:      "Number of nodes fetched from the backing key/value engine.",
	})
	nodeWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pmt",
		Subsystem: "store",
		Name:      "node_writes_total",
		Help:      "Number of nodes persisted to the backing key/value engine.",
	})
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pmt",
		Subsystem: "store",
		Name:      "node_cache_hits_total",
		Help:      "Number of GetNode calls served from the in-memory LRU cache.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pmt",
		Subsystem: "store",
		Name:      "node_cache_misses_total",
		Help:      "Number of GetNode calls that missed the in-memory LRU cache.",
	})
)

func init() {
	prometheus.MustRegister(nodeReads, nodeWrites, cacheHits, cacheMisses)
}
