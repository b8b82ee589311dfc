/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storage

import (
	"context"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/memory"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/mongo"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/sql/postgres"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/sql/sqlite"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("registry.storage")

const (
	Memory   = memory.Persistence
	SQLite   = "sqlite"
	Postgres = "postgres"
	Mongo    = "mongo"
)

type Config struct {
	Driver   string          `mapstructure:"driver" yaml:"driver"`
	Memory   memory.Config   `mapstructure:"memory" yaml:"memory"`
	SQLite   sqlite.Config   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres postgres.Config `mapstructure:"postgres" yaml:"postgres"`
	Mongo    mongo.Config    `mapstructure:"mongo" yaml:"mongo"`
}

// NewStore opens the backend named by c.Driver.
func NewStore(ctx context.Context, c Config) (driver.Store, error) {
	logger.Infof("opening [%s] store", c.Driver)
	switch c.Driver {
	case Memory, "":
		return memory.NewStore(c.Memory)
	case SQLite:
		return sqlite.NewStore(c.SQLite)
	case Postgres:
		return postgres.NewStore(c.Postgres)
	case Mongo:
		return mongo.NewStore(ctx, c.Mongo)
	}
	return nil, errors.Errorf("unknown storage driver [%s]", c.Driver)
}
