/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	dbtest.StoreTest(t, func(name string) (driver.Store, error) {
		return NewStore(Config{TablePrefix: name})
	})
}

func TestIsolated(t *testing.T) {
	ctx := context.Background()
	a, err := NewStore(Config{})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := NewStore(Config{})
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	assert.Same(t, a.ReadDB, a.WriteDB)
	p, err := model.NewProposal("Institute A", "inst-a", "a@example.edu", "0xa")
	require.NoError(t, err)
	require.NoError(t, a.SeedInstitution(ctx, p.Institution("a", model.InstitutionApproved, time.Now())))

	n, err := a.CountInstitutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = b.CountInstitutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDataSource(t *testing.T) {
	assert.Equal(t, "file:registry?mode=memory&cache=shared", DataSource("registry"))
}
