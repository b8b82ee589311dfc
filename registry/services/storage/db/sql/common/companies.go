/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/pkg/errors"
)

func (db *RegistryStore) CreateCompany(ctx context.Context, c *model.Company) error {
	query := fmt.Sprintf("INSERT INTO %s (id, legal_name, handle, credential_hash, created_at) VALUES ($1, $2, $3, $4, $5)", db.Table.Companies)
	db.Logger.Debug(query, c.ID, c.Handle)
	if _, err := db.WriteDB.ExecContext(ctx, query, c.ID, c.LegalName, c.Handle, c.CredentialHash, c.CreatedAt.UTC()); err != nil {
		return db.insertError(err, "company handle [%s] already in use", c.Handle)
	}
	return nil
}

func (db *RegistryStore) Company(ctx context.Context, id string) (*model.Company, error) {
	query := fmt.Sprintf("SELECT id, legal_name, handle, credential_hash, created_at FROM %s WHERE id = $1", db.Table.Companies)
	db.Logger.Debug(query, id)
	c := &model.Company{}
	err := db.ReadDB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.LegalName, &c.Handle, &c.CredentialHash, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("company [%s] not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed loading company [%s]", id)
	}

	query = fmt.Sprintf("SELECT student_id, full_name, registration_number, branch, institution_id, verified_at FROM %s WHERE company_id = $1 ORDER BY seq", db.Table.Verifications)
	db.Logger.Debug(query, id)
	rows, err := db.ReadDB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed querying verifications of [%s]", id)
	}
	defer func() { _ = rows.Close() }()
	c.VerifiedStudents = []model.VerifiedStudent{}
	for rows.Next() {
		var v model.VerifiedStudent
		if err := rows.Scan(&v.StudentID, &v.FullName, &v.RegistrationNumber, &v.Branch, &v.InstitutionID, &v.VerifiedAt); err != nil {
			return nil, errors.Wrap(err, "failed scanning verification")
		}
		c.VerifiedStudents = append(c.VerifiedStudents, v)
	}
	return c, errors.Wrap(rows.Err(), "failed iterating verifications")
}

func (db *RegistryStore) AppendVerified(ctx context.Context, companyID string, v model.VerifiedStudent) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf("SELECT id FROM %s WHERE id = $1%s", db.Table.Companies, db.dialect.LockClause)
		db.Logger.Debug(query, companyID)
		var found string
		err := tx.QueryRowContext(ctx, query, companyID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("company [%s] not found", companyID)
		}
		if err != nil {
			return errors.Wrapf(err, "failed loading company [%s]", companyID)
		}

		var seq int
		query = fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE company_id = $1", db.Table.Verifications)
		db.Logger.Debug(query, companyID)
		if err := tx.QueryRowContext(ctx, query, companyID).Scan(&seq); err != nil {
			return errors.Wrapf(err, "failed counting verifications of [%s]", companyID)
		}

		query = fmt.Sprintf("INSERT INTO %s (company_id, student_id, seq, full_name, registration_number, branch, institution_id, verified_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8)", db.Table.Verifications)
		db.Logger.Debug(query, companyID, v.StudentID)
		if _, err := tx.ExecContext(ctx, query, companyID, v.StudentID, seq, v.FullName, v.RegistrationNumber, v.Branch, v.InstitutionID, v.VerifiedAt.UTC()); err != nil {
			return db.insertError(err, "student [%s] already verified", v.StudentID)
		}
		return nil
	})
}
