/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, fingerprint.SHA512, c.Fingerprint.Algorithm)
	assert.Equal(t, 70, c.Governance.QuorumPercent)
	assert.Equal(t, 30, c.Anchor.GasMarginPercent)
	assert.Equal(t, 3, c.Anchor.MaxAttempts)
	assert.Equal(t, 3*time.Second, c.Anchor.MinInterval)
	assert.Equal(t, 30*time.Second, c.Anchor.DedupWindow)
	assert.Equal(t, 60*time.Second, c.Anchor.ConfirmationTimeout)
	assert.Equal(t, 10*time.Second, c.Storage.Mongo.ConnectTimeout)
	assert.True(t, c.Verification.CrossCheck)
	assert.Equal(t, int64(10000), c.Verification.Cache.MaxEntries)
	assert.Equal(t, 8, c.Reconcile.Workers)
}

func TestLoadFileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "core.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
storage:
  driver: sqlite
  sqlite:
    dataSource: file:/tmp/test.sqlite
anchor:
  minInterval: 250ms
`), 0o600))
	t.Setenv("CERTREG_GOVERNANCE_QUORUMPERCENT", "51")
	t.Setenv("CERTREG_LEDGER_ATOMICREPLACE", "true")

	c, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Storage.Driver)
	assert.Equal(t, "file:/tmp/test.sqlite", c.Storage.SQLite.DataSource)
	assert.Equal(t, "cr", c.Storage.SQLite.TablePrefix)
	assert.Equal(t, 250*time.Millisecond, c.Anchor.MinInterval)
	assert.Equal(t, 51, c.Governance.QuorumPercent)
	assert.True(t, c.Ledger.AtomicReplace)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("CERTREG_FINGERPRINT_ALGORITHM", "md5")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadInvalidQuorum(t *testing.T) {
	t.Setenv("CERTREG_GOVERNANCE_QUORUMPERCENT", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestPrint(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	out, err := Print(c)
	require.NoError(t, err)

	var back Configuration
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, c.Anchor, back.Anchor)
	assert.Contains(t, string(out), "minInterval: 3s")

	c.Server.AdminToken = "s3cret"
	out, err = Print(c)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "s3cret")
	assert.Equal(t, "s3cret", c.Server.AdminToken)
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "sampleconfig", "core.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Storage.Driver)
	assert.Equal(t, "stdout", c.Tracing.Provider)
	assert.True(t, c.Ledger.AtomicReplace)
	assert.Equal(t, 90*time.Second, c.Anchor.ConfirmationTimeout)
	assert.Equal(t, 3, c.Anchor.MaxAttempts)
	assert.Equal(t, 16, c.Reconcile.Workers)
}
