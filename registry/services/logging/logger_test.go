/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLoggerName(t *testing.T) {
	assert.Equal(t, "registry.anchor.0xabc", loggerName("registry.anchor", "", "0xabc"))
	assert.Equal(t, "registry", loggerName("registry", "", ""))
	assert.Equal(t, "", loggerName())
}

func TestInit(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Config{Spec: "registry.logtest=debug:warning", Format: "%{message}", Writer: buf})
	defer Init(Config{Spec: "info"})

	l := ServiceLogger("registry.logtest")
	assert.True(t, l.IsEnabledFor(zapcore.DebugLevel))
	l.Debugf("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")

	other := MustGetLogger("registry.other")
	assert.False(t, other.IsEnabledFor(zapcore.InfoLevel))
}
