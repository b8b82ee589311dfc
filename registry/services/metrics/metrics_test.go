/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("")
	require.NoError(t, err)
	p.NewCounter(CounterOpts{Namespace: Namespace, Name: "noop", Help: "noop"}).Add(1)

	_, err = NewProvider("statsd")
	assert.Error(t, err)
}

func TestPrometheusHandler(t *testing.T) {
	p, err := NewProvider(Prometheus)
	require.NoError(t, err)
	c := p.NewCounter(CounterOpts{
		Namespace:  Namespace,
		Subsystem:  "test",
		Name:       "handler_probe",
		Help:       "Probe counter.",
		LabelNames: []string{"kind"},
	})
	c.With("kind", "probe").Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `certreg_test_handler_probe{kind="probe"} 3`)
}
