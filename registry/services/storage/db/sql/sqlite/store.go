/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"database/sql"
	"database/sql/driver"
	"net/url"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/sql/common"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const Persistence = "sqlite"

var logger = logging.MustGetLogger("registry.db.sqlite")

// LowerFunction lowercases with full Unicode case mapping, LOWER folds ASCII only.
const LowerFunction = "registry_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(LowerFunction, 1, lower)
}

func lower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

type Config struct {
	DataSource      string        `mapstructure:"dataSource" yaml:"dataSource"`
	TablePrefix     string        `mapstructure:"tablePrefix" yaml:"tablePrefix"`
	SkipCreateTable bool          `mapstructure:"skipCreateTable" yaml:"skipCreateTable"`
	SkipPragmas     bool          `mapstructure:"skipPragmas" yaml:"skipPragmas"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns" yaml:"maxIdleConns"`
	MaxIdleTime     time.Duration `mapstructure:"maxIdleTime" yaml:"maxIdleTime"`
}

type Store struct {
	*common.RegistryStore
}

// NewStore opens the database, a single-connection writer and a pooled reader,
// and creates the schema unless told not to.
func NewStore(c Config) (*Store, error) {
	if len(c.DataSource) == 0 {
		return nil, errors.New("sqlite data source is required")
	}
	tables, err := common.GetTableNames(c.TablePrefix)
	if err != nil {
		return nil, errors.Wrap(err, "invalid table prefix")
	}

	readDB, writeDB, err := open(c)
	if err != nil {
		return nil, err
	}
	store := common.NewRegistryStore(readDB, writeDB, tables, Dialect())
	if !c.SkipCreateTable {
		if err := store.CreateSchema(); err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "failed creating schema")
		}
	}
	return &Store{RegistryStore: store}, nil
}

// Dialect maps SQLite constraint errors.
func Dialect() common.Dialect {
	return common.Dialect{
		Name:              Persistence,
		IsUniqueViolation: IsUniqueViolation,
		Lower:             LowerFunction,
	}
}

func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// primary code only when extended result codes are off
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

func open(c Config) (*sql.DB, *sql.DB, error) {
	if isInMemory(c.DataSource) {
		// every connection to :memory: is a distinct database
		db, err := openDB(withParams(c.DataSource, c.SkipPragmas, false), 1, c)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
	writeDB, err := openDB(withParams(c.DataSource, c.SkipPragmas, true), 1, c)
	if err != nil {
		return nil, nil, err
	}
	readDB, err := openDB(withParams(c.DataSource, c.SkipPragmas, false), c.MaxOpenConns, c)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return readDB, writeDB, nil
}

func openDB(dataSource string, maxOpenConns int, c Config) (*sql.DB, error) {
	logger.Debugf("opening sqlite db [%s]", dataSource)
	db, err := sql.Open(Persistence, dataSource)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening db [%s]", c.DataSource)
	}
	db.SetMaxOpenConns(maxOpenConns)
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(c.MaxIdleTime)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed connecting to db [%s]", c.DataSource)
	}
	return db, nil
}

func isInMemory(dataSource string) bool {
	return strings.Contains(dataSource, ":memory:") || strings.Contains(dataSource, "mode=memory")
}

// withParams adds WAL and busy timeout pragmas; writers take the lock when the
// transaction begins so concurrent read-modify-write sequences serialize.
func withParams(dataSource string, skipPragmas bool, writer bool) string {
	params := url.Values{}
	if !skipPragmas {
		if !strings.Contains(dataSource, "busy_timeout") {
			params.Add("_pragma", "busy_timeout(20000)")
		}
		if !strings.Contains(dataSource, "journal_mode") && !isInMemory(dataSource) {
			params.Add("_pragma", "journal_mode(WAL)")
		}
	}
	if writer && !strings.Contains(dataSource, "_txlock") {
		params.Add("_txlock", "immediate")
	}
	if len(params) == 0 {
		return dataSource
	}
	sep := "?"
	if strings.Contains(dataSource, "?") {
		sep = "&"
	}
	return dataSource + sep + params.Encode()
}
