/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutProvider(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(Stdout, &buf)
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "register")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "register")
}

func TestNoopProvider(t *testing.T) {
	p, err := NewProvider("", nil)
	require.NoError(t, err)
	_, span := p.Tracer("test").Start(context.Background(), "register")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))

	_, err = NewProvider("jaeger", nil)
	assert.Error(t, err)
}
