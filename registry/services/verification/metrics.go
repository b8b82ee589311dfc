/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verification

import "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"

var verificationsOpts = metrics.CounterOpts{
	Namespace:  metrics.Namespace,
	Subsystem:  "verification",
	Name:       "verifications",
	Help:       "The number of verifications by outcome.",
	LabelNames: []string{"outcome"},
}

type Metrics struct {
	Verifications metrics.Counter
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{Verifications: p.NewCounter(verificationsOpts)}
}
