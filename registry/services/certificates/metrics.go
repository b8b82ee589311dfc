/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package certificates

import "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"

var (
	recordedOpts = metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "certificates",
		Name:      "recorded",
		Help:      "The number of certificates recorded off-chain.",
	}
	duplicatesOpts = metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "certificates",
		Name:      "duplicates",
		Help:      "The number of certificates refused because the fingerprint was already recorded.",
	}
	revokedOpts = metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "certificates",
		Name:      "revoked",
		Help:      "The number of certificates revoked off-chain.",
	}
)

type Metrics struct {
	Recorded   metrics.Counter
	Duplicates metrics.Counter
	Revoked    metrics.Counter
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Recorded:   p.NewCounter(recordedOpts),
		Duplicates: p.NewCounter(duplicatesOpts),
		Revoked:    p.NewCounter(revokedOpts),
	}
}
