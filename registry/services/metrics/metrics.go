/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"net/http"

	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/hyperledger/fabric-lib-go/common/metrics/prometheus"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	CounterOpts = metrics.CounterOpts
	Counter     = metrics.Counter

	GaugeOpts = metrics.GaugeOpts
	Gauge     = metrics.Gauge

	HistogramOpts = metrics.HistogramOpts
	Histogram     = metrics.Histogram

	Provider = metrics.Provider
)

const (
	Namespace = "certreg"

	Prometheus = "prometheus"
	Disabled   = "disabled"
)

// NewProvider returns the provider for the named backend.
func NewProvider(kind string) (Provider, error) {
	switch kind {
	case Prometheus:
		return &prometheus.Provider{}, nil
	case "", Disabled:
		return &disabled.Provider{}, nil
	}
	return nil, errors.Errorf("unknown metrics provider [%s]", kind)
}

func NewDisabledProvider() Provider { return &disabled.Provider{} }

// Handler exposes the default prometheus registry.
func Handler() http.Handler { return promhttp.Handler() }
