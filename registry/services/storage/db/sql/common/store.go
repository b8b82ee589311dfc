/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("registry.db.sql")

var validPrefix = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type TableNames struct {
	Institutions  string
	Requests      string
	Votes         string
	Students      string
	Certificates  string
	Companies     string
	Verifications string
}

// GetTableNames returns the table names prefixed with prefix, which must be a valid SQL identifier.
func GetTableNames(prefix string) (TableNames, error) {
	if len(prefix) != 0 {
		if len(prefix) > 100 {
			return TableNames{}, errors.New("table prefix must be shorter than 100 characters")
		}
		if !validPrefix.MatchString(prefix) {
			return TableNames{}, errors.Errorf("illegal character in table prefix [%s]: only letters, digits and underscores are allowed", prefix)
		}
		prefix = strings.ToLower(prefix) + "_"
	}
	return TableNames{
		Institutions:  prefix + "institutions",
		Requests:      prefix + "requests",
		Votes:         prefix + "request_votes",
		Students:      prefix + "students",
		Certificates:  prefix + "certificates",
		Companies:     prefix + "companies",
		Verifications: prefix + "company_verifications",
	}, nil
}

// Dialect captures what differs between the SQL engines.
type Dialect struct {
	Name string
	// IsUniqueViolation recognises unique and primary key violations.
	IsUniqueViolation func(error) bool
	// Lower names the lowercasing function used by case-insensitive search,
	// LOWER when empty.
	Lower string
	// LockClause is appended to selects that must lock the read row in a transaction.
	LockClause string
	// TableLock, formatted with a table name, blocks concurrent writers of the
	// table until the transaction ends. Engines that serialize write
	// transactions leave it empty.
	TableLock string
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RegistryStore implements driver.Store on top of database/sql.
type RegistryStore struct {
	ReadDB  *sql.DB
	WriteDB *sql.DB
	Table   TableNames
	Logger  logging.Logger
	dialect Dialect
}

func NewRegistryStore(readDB, writeDB *sql.DB, tables TableNames, dialect Dialect) *RegistryStore {
	return &RegistryStore{
		ReadDB:  readDB,
		WriteDB: writeDB,
		Table:   tables,
		Logger:  logger,
		dialect: dialect,
	}
}

func (db *RegistryStore) CreateSchema() error {
	return InitSchema(db.WriteDB, db.GetSchema())
}

func (db *RegistryStore) GetSchema() string {
	return fmt.Sprintf(`
		-- Institutions
		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT NOT NULL PRIMARY KEY,
			legal_name TEXT NOT NULL,
			handle TEXT NOT NULL UNIQUE,
			contact_address TEXT NOT NULL UNIQUE,
			chain_address TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			credential_hash TEXT NOT NULL,
			certificates_issued INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_state_%[1]s ON %[1]s ( state );

		-- Registration requests
		CREATE TABLE IF NOT EXISTS %[2]s (
			id TEXT NOT NULL PRIMARY KEY,
			legal_name TEXT NOT NULL,
			handle TEXT NOT NULL,
			contact_address TEXT NOT NULL,
			chain_address TEXT NOT NULL,
			credential_hash TEXT NOT NULL,
			approvals INT NOT NULL DEFAULT 0,
			rejections INT NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			institution_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP NULL
		);
		CREATE INDEX IF NOT EXISTS idx_state_%[2]s ON %[2]s ( state );

		-- Votes
		CREATE TABLE IF NOT EXISTS %[3]s (
			request_id TEXT NOT NULL,
			voter_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			seq INT NOT NULL,
			cast_at TIMESTAMP NOT NULL,
			PRIMARY KEY(request_id, voter_id)
		);

		-- Students
		CREATE TABLE IF NOT EXISTS %[4]s (
			id TEXT NOT NULL PRIMARY KEY,
			institution_id TEXT NOT NULL,
			full_name TEXT NOT NULL,
			registration_number TEXT NOT NULL,
			academic_year TEXT NOT NULL,
			current_year INT NOT NULL,
			branch TEXT NOT NULL,
			specialization TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE(registration_number, institution_id)
		);
		CREATE INDEX IF NOT EXISTS idx_institution_%[4]s ON %[4]s ( institution_id );

		-- Certificates
		CREATE TABLE IF NOT EXISTS %[5]s (
			id TEXT NOT NULL PRIMARY KEY,
			student_id TEXT NOT NULL,
			seq INT NOT NULL,
			name TEXT NOT NULL,
			fingerprint TEXT NOT NULL UNIQUE,
			storage_locator TEXT NOT NULL,
			storage_content_id TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL,
			byte_size BIGINT NOT NULL,
			issuer_id TEXT NOT NULL,
			issued_at TIMESTAMP NOT NULL,
			chain_tx_ref TEXT NOT NULL DEFAULT '',
			chain_block_ref BIGINT NOT NULL DEFAULT 0,
			chain_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			revoked BOOLEAN NOT NULL DEFAULT FALSE,
			revocation_reason TEXT NOT NULL DEFAULT '',
			revoked_at TIMESTAMP NULL,
			revocation_tx_ref TEXT NOT NULL DEFAULT '',
			replacement_fingerprint TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_student_%[5]s ON %[5]s ( student_id, seq );

		-- Companies
		CREATE TABLE IF NOT EXISTS %[6]s (
			id TEXT NOT NULL PRIMARY KEY,
			legal_name TEXT NOT NULL,
			handle TEXT NOT NULL UNIQUE,
			credential_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		-- Company verifications
		CREATE TABLE IF NOT EXISTS %[7]s (
			company_id TEXT NOT NULL,
			student_id TEXT NOT NULL,
			seq INT NOT NULL,
			full_name TEXT NOT NULL,
			registration_number TEXT NOT NULL,
			branch TEXT NOT NULL,
			institution_id TEXT NOT NULL,
			verified_at TIMESTAMP NOT NULL,
			PRIMARY KEY(company_id, student_id)
		);`,
		db.Table.Institutions,
		db.Table.Requests,
		db.Table.Votes,
		db.Table.Students,
		db.Table.Certificates,
		db.Table.Companies,
		db.Table.Verifications,
	)
}

func (db *RegistryStore) Close() error {
	return Close(db.ReadDB, db.WriteDB)
}

// InitSchema runs the schema statements in a single transaction.
func InitSchema(db *sql.DB, schemas ...string) (err error) {
	logger.Debug("creating tables")
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed starting transaction")
	}
	defer func() {
		if err != nil && tx != nil {
			if err := tx.Rollback(); err != nil {
				logger.Errorf("failed rolling back schema creation: %v", err)
			}
		}
	}()
	for _, schema := range schemas {
		logger.Debug(schema)
		if _, err = tx.Exec(schema); err != nil {
			return errors.Wrap(err, "error creating schema")
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed committing schema")
	}
	return nil
}

// Close closes both handles, once if they are the same.
func Close(readDB, writeDB *sql.DB) error {
	if readDB == writeDB {
		return errors.Wrap(writeDB.Close(), "failed closing db")
	}
	err := writeDB.Close()
	if rerr := readDB.Close(); rerr != nil && err == nil {
		err = rerr
	}
	return errors.Wrap(err, "failed closing db")
}

func (db *RegistryStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.WriteDB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed starting transaction")
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			db.Logger.Warnf("failed rolling back transaction: %v", rerr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "failed committing transaction")
}

// insertError maps unique violations to a conflict with the given message.
func (db *RegistryStore) insertError(err error, format string, args ...interface{}) error {
	if db.dialect.IsUniqueViolation != nil && db.dialect.IsUniqueViolation(err) {
		return errs.Wrapf(errs.KindConflict, err, format, args...)
	}
	return errors.Wrapf(err, "failed inserting into db")
}

func (d Dialect) lower() string {
	if len(d.Lower) == 0 {
		return "LOWER"
	}
	return d.Lower
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed reading affected rows")
	}
	return n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
