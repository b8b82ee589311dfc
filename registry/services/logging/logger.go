/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"io"
	"os"
	"slices"
	"strings"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"go.uber.org/zap/zapcore"
)

const loggerNameSeparator = "."

// Logger provides logging API
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Panic(args ...interface{})
	Panicf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	IsEnabledFor(level zapcore.Level) bool
}

// Config selects the log spec (e.g. "info:registry.anchor=debug") and format.
type Config struct {
	Spec   string
	Format string
	Writer io.Writer
}

// Init (re)configures the global logging system.
func Init(c Config) {
	w := c.Writer
	if w == nil {
		w = os.Stderr
	}
	flogging.Init(flogging.Config{
		Format:  c.Format,
		Writer:  w,
		LogSpec: c.Spec,
	})
}

func MustGetLogger(loggerName string) Logger {
	return flogging.MustGetLogger(loggerName)
}

// ServiceLogger returns a logger named after the service and its optional qualifiers,
// e.g. registry.anchor.0xabc.
func ServiceLogger(prefix string, qualifiers ...string) Logger {
	return flogging.MustGetLogger(loggerName(append([]string{prefix}, qualifiers...)...))
}

func isEmptyString(s string) bool { return len(s) == 0 }

func loggerName(parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, isEmptyString), loggerNameSeparator)
}
