/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"database/sql"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/sql/common"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

const (
	Persistence = "postgres"
	driverName  = "pgx"

	uniqueViolation = "23505"
)

var logger = logging.MustGetLogger("registry.db.postgres")

type Config struct {
	DataSource      string        `mapstructure:"dataSource" yaml:"dataSource"`
	TablePrefix     string        `mapstructure:"tablePrefix" yaml:"tablePrefix"`
	SkipCreateTable bool          `mapstructure:"skipCreateTable" yaml:"skipCreateTable"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns" yaml:"maxIdleConns"`
	MaxIdleTime     time.Duration `mapstructure:"maxIdleTime" yaml:"maxIdleTime"`
}

type Store struct {
	*common.RegistryStore
}

func NewStore(c Config) (*Store, error) {
	if len(c.DataSource) == 0 {
		return nil, errors.New("postgres data source is required")
	}
	tables, err := common.GetTableNames(c.TablePrefix)
	if err != nil {
		return nil, errors.Wrap(err, "invalid table prefix")
	}
	logger.Debugf("opening postgres db with table prefix [%s]", c.TablePrefix)
	db, err := sql.Open(driverName, c.DataSource)
	if err != nil {
		return nil, errors.Wrap(err, "failed opening postgres db")
	}
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(c.MaxIdleTime)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed connecting to postgres db")
	}

	store := NewStoreFromDB(db, tables)
	if !c.SkipCreateTable {
		if err := store.CreateSchema(); err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "failed creating schema")
		}
	}
	return store, nil
}

// NewStoreFromDB wraps an already opened database without touching the schema.
func NewStoreFromDB(db *sql.DB, tables common.TableNames) *Store {
	return &Store{RegistryStore: common.NewRegistryStore(db, db, tables, Dialect())}
}

// Dialect maps Postgres unique violations and locks rows read inside transactions.
func Dialect() common.Dialect {
	return common.Dialect{
		Name:              Persistence,
		IsUniqueViolation: IsUniqueViolation,
		LockClause:        " FOR UPDATE",
		TableLock:         "LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE",
	}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
