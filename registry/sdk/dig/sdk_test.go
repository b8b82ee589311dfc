/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"context"
	"testing"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/governance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	c, err := config.Load("")
	require.NoError(t, err)
	c.Metrics.Provider = "disabled"
	return c
}

func TestInstall(t *testing.T) {
	s := NewSDK(testConfig(t))
	require.NoError(t, s.Install())

	services, err := s.Services()
	require.NoError(t, err)
	assert.NotNil(t, services.Governance)
	assert.NotNil(t, services.Registry)
	assert.NotNil(t, services.Issuance)
	assert.NotNil(t, services.Verification)
	assert.NotNil(t, services.Companies)
	assert.NotNil(t, services.Reconcile)

	router, err := s.Router()
	require.NoError(t, err)
	assert.NotEmpty(t, router.Routes())

	// the same ledger backs anchoring, verification and reconciliation
	require.NoError(t, s.Container().Invoke(func(l driver.Ledger, g *governance.Service) {
		assert.False(t, l.SupportsAtomicReplace())
		n, err := g.ApprovedCount(context.Background())
		assert.NoError(t, err)
		assert.Zero(t, n)
	}))
	assert.NoError(t, s.Close())
}

func TestInstallInvalidDriver(t *testing.T) {
	c := testConfig(t)
	c.Storage.Driver = "cassandra"
	s := NewSDK(c)
	require.NoError(t, s.Install())
	_, err := s.Services()
	assert.Error(t, err)
}
