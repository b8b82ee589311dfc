/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/pkg/errors"
)

const studentFields = "id, institution_id, full_name, registration_number, academic_year, current_year, branch, specialization, created_at"

func (db *RegistryStore) CreateStudent(ctx context.Context, s *model.Student) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)", db.Table.Students, studentFields)
	db.Logger.Debug(query, s.ID, s.InstitutionID, s.RegistrationNumber)
	_, err := db.WriteDB.ExecContext(ctx, query,
		s.ID, s.InstitutionID, s.FullName, s.RegistrationNumber, s.AcademicYear, s.CurrentYear,
		s.Branch, s.Specialization, s.CreatedAt.UTC())
	if err != nil {
		return db.insertError(err, "student with registration number [%s] already exists", s.RegistrationNumber)
	}
	return nil
}

func (db *RegistryStore) Student(ctx context.Context, id string) (*model.Student, error) {
	return db.student(ctx, db.ReadDB, "id = $1", id)
}

func (db *RegistryStore) StudentByRegistration(ctx context.Context, institutionID, registrationNumber string) (*model.Student, error) {
	return db.student(ctx, db.ReadDB, "institution_id = $1 AND registration_number = $2", institutionID, model.NormalizeRegistrationNumber(registrationNumber))
}

func (db *RegistryStore) student(ctx context.Context, q queryer, where string, args ...any) (*model.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", studentFields, db.Table.Students, where)
	db.Logger.Debug(query, args)
	s, err := scanStudent(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("student [%v] not found", args[len(args)-1])
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed loading student")
	}
	if s.Certificates, err = db.certificates(ctx, q, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *RegistryStore) SearchStudents(ctx context.Context, institutionID, query string) ([]*model.Student, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	sqlQuery := fmt.Sprintf(
		"SELECT %[1]s FROM %[2]s WHERE (%[3]s(full_name) LIKE $1 ESCAPE '\\' OR %[3]s(registration_number) LIKE $2 ESCAPE '\\' OR %[3]s(branch) LIKE $3 ESCAPE '\\')",
		studentFields, db.Table.Students, db.dialect.lower())
	args := []any{pattern, pattern, pattern}
	if len(institutionID) != 0 {
		sqlQuery += " AND institution_id = $4"
		args = append(args, institutionID)
	}
	sqlQuery += " ORDER BY full_name, id"
	db.Logger.Debug(sqlQuery, args)

	rows, err := db.ReadDB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed searching students")
	}
	res := make([]*model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			_ = rows.Close()
			return nil, errors.Wrap(err, "failed scanning student")
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "failed iterating students")
	}
	_ = rows.Close()

	for _, s := range res {
		if s.Certificates, err = db.certificates(ctx, db.ReadDB, s.ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (db *RegistryStore) DeleteStudent(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := db.lockStudent(ctx, tx, id); err != nil {
			return err
		}
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE student_id = $1 AND revoked = $2", db.Table.Certificates)
		db.Logger.Debug(query, id)
		var active int
		if err := tx.QueryRowContext(ctx, query, id, false).Scan(&active); err != nil {
			return errors.Wrapf(err, "failed counting certificates of [%s]", id)
		}
		if active != 0 {
			return errs.Conflict("student [%s] holds %d active certificates", id, active)
		}

		query = fmt.Sprintf("DELETE FROM %s WHERE student_id = $1", db.Table.Certificates)
		db.Logger.Debug(query, id)
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return errors.Wrapf(err, "failed deleting certificates of [%s]", id)
		}
		query = fmt.Sprintf("DELETE FROM %s WHERE id = $1", db.Table.Students)
		db.Logger.Debug(query, id)
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return errors.Wrapf(err, "failed deleting student [%s]", id)
		}
		return nil
	})
}

// lockStudent checks the student exists and, where supported, locks its row.
func (db *RegistryStore) lockStudent(ctx context.Context, tx *sql.Tx, id string) error {
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = $1%s", db.Table.Students, db.dialect.LockClause)
	db.Logger.Debug(query, id)
	var found string
	err := tx.QueryRowContext(ctx, query, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound("student [%s] not found", id)
	}
	return errors.Wrapf(err, "failed loading student [%s]", id)
}

func scanStudent(row scanner) (*model.Student, error) {
	s := &model.Student{}
	if err := row.Scan(&s.ID, &s.InstitutionID, &s.FullName, &s.RegistrationNumber, &s.AcademicYear,
		&s.CurrentYear, &s.Branch, &s.Specialization, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Certificates = []*model.Certificate{}
	return s, nil
}
