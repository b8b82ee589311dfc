/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"

var (
	completedOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "issuance",
		Name:       "completed",
		Help:       "The number of operations confirmed on the ledger and recorded off-chain.",
		LabelNames: []string{"op"},
	}
	failedOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "issuance",
		Name:       "failed",
		Help:       "The number of operations that did not reach the ledger.",
		LabelNames: []string{"op"},
	}
	orphanedOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "issuance",
		Name:       "orphaned_anchors",
		Help:       "The number of ledger operations confirmed but not recorded off-chain.",
		LabelNames: []string{"op"},
	}
)

type Metrics struct {
	Completed metrics.Counter
	Failed    metrics.Counter
	Orphaned  metrics.Counter
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Completed: p.NewCounter(completedOpts),
		Failed:    p.NewCounter(failedOpts),
		Orphaned:  p.NewCounter(orphanedOpts),
	}
}
