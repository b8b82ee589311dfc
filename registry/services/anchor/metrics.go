/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"

var (
	callsOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "anchor",
		Name:       "calls",
		Help:       "The number of ledger calls by operation and outcome.",
		LabelNames: []string{"op", "outcome"},
	}
	retriesOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "anchor",
		Name:       "retries",
		Help:       "The number of retried ledger submissions by error class.",
		LabelNames: []string{"class"},
	}
	duplicatesOpts = metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "anchor",
		Name:      "local_duplicates",
		Help:      "The number of calls refused by the deduplication window.",
	}
	durationOpts = metrics.HistogramOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "anchor",
		Name:       "duration_seconds",
		Help:       "Time from enqueueing a call to its confirmation.",
		LabelNames: []string{"op"},
		Buckets:    []float64{.1, .5, 1, 2.5, 5, 10, 20, 40, 60, 120},
	}
)

type Metrics struct {
	Calls      metrics.Counter
	Retries    metrics.Counter
	Duplicates metrics.Counter
	Duration   metrics.Histogram
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Calls:      p.NewCounter(callsOpts),
		Retries:    p.NewCounter(retriesOpts),
		Duplicates: p.NewCounter(duplicatesOpts),
		Duration:   p.NewHistogram(durationOpts),
	}
}
