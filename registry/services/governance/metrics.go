/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package governance

import "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"

var (
	votesOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "governance",
		Name:       "votes",
		Help:       "The number of accepted votes.",
		LabelNames: []string{"decision"},
	}
	resolutionsOpts = metrics.CounterOpts{
		Namespace:  metrics.Namespace,
		Subsystem:  "governance",
		Name:       "resolved_requests",
		Help:       "The number of registration requests that reached a decision.",
		LabelNames: []string{"outcome"},
	}
	approvedOpts = metrics.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "governance",
		Name:      "approved_institutions",
		Help:      "The number of approved institutions observed at the last vote.",
	}
)

type Metrics struct {
	Votes       metrics.Counter
	Resolutions metrics.Counter
	Approved    metrics.Gauge
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Votes:       p.NewCounter(votesOpts),
		Resolutions: p.NewCounter(resolutionsOpts),
		Approved:    p.NewGauge(approvedOpts),
	}
}
