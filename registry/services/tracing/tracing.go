/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	None   = "none"
	Stdout = "stdout"

	ServiceName = "certreg"
)

// Provider is a tracer provider that must be shut down to flush pending spans.
type Provider interface {
	trace.TracerProvider
	Shutdown(ctx context.Context) error
}

type noopProvider struct{ noop.TracerProvider }

func (noopProvider) Shutdown(context.Context) error { return nil }

// NewProvider returns the tracer provider named by kind. Stdout spans are
// written to w, or to os.Stdout when w is nil.
func NewProvider(kind string, w io.Writer) (Provider, error) {
	switch kind {
	case "", None:
		return noopProvider{noop.NewTracerProvider()}, nil
	case Stdout:
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, errors.Wrapf(err, "failed creating stdout exporter")
		}
		res := resource.NewSchemaless(attribute.String("service.name", ServiceName))
		return sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		), nil
	}
	return nil, errors.Errorf("unknown tracing provider [%s]", kind)
}
