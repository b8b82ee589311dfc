/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, Config{Driver: Memory})
	require.NoError(t, err)
	n, err := s.CountInstitutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, s.Close())

	c := Config{Driver: SQLite}
	c.SQLite.DataSource = "file:" + filepath.Join(t.TempDir(), "registry.db")
	c.SQLite.TablePrefix = "cr"
	s, err = NewStore(ctx, c)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewStore(ctx, Config{Driver: "cassandra"})
	assert.Error(t, err)
	_, err = NewStore(ctx, Config{Driver: Postgres})
	assert.Error(t, err)
}
