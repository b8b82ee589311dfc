/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/pkg/errors"
)

const institutionFields = "id, legal_name, handle, contact_address, chain_address, state, credential_hash, certificates_issued, created_at, updated_at"

func (db *RegistryStore) CreateInstitution(ctx context.Context, inst *model.Institution) error {
	return db.insertInstitution(ctx, db.WriteDB, inst)
}

func (db *RegistryStore) SeedInstitution(ctx context.Context, inst *model.Institution) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if len(db.dialect.TableLock) != 0 {
			query := fmt.Sprintf(db.dialect.TableLock, db.Table.Institutions)
			db.Logger.Debug(query)
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return errors.Wrapf(err, "failed locking [%s]", db.Table.Institutions)
			}
		}
		n, err := db.countInstitutions(ctx, tx, model.InstitutionApproved)
		if err != nil {
			return err
		}
		if n != 0 {
			return errs.Conflict("bootstrap is only allowed while no institution is approved")
		}
		return db.insertInstitution(ctx, tx, inst)
	})
}

func (db *RegistryStore) insertInstitution(ctx context.Context, q queryer, inst *model.Institution) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)", db.Table.Institutions, institutionFields)
	db.Logger.Debug(query, inst.ID, inst.Handle)
	_, err := q.ExecContext(ctx, query,
		inst.ID, inst.LegalName, inst.Handle, inst.ContactAddress, inst.ChainAddress,
		string(inst.State), inst.CredentialHash, inst.CertificatesIssued, inst.CreatedAt.UTC(), inst.UpdatedAt.UTC())
	if err != nil {
		return db.insertError(err, "institution identifiers already in use")
	}
	return nil
}

func (db *RegistryStore) Institution(ctx context.Context, id string) (*model.Institution, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", institutionFields, db.Table.Institutions)
	db.Logger.Debug(query, id)
	inst, err := scanInstitution(db.ReadDB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("institution [%s] not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed loading institution [%s]", id)
	}
	return inst, nil
}

func (db *RegistryStore) Institutions(ctx context.Context, state model.InstitutionState) ([]*model.Institution, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", institutionFields, db.Table.Institutions)
	var args []any
	if len(state) != 0 {
		query += " WHERE state = $1"
		args = append(args, string(state))
	}
	query += " ORDER BY created_at, id"
	db.Logger.Debug(query, args)

	rows, err := db.ReadDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying institutions")
	}
	defer func() { _ = rows.Close() }()
	res := make([]*model.Institution, 0)
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed scanning institution")
		}
		res = append(res, inst)
	}
	return res, errors.Wrap(rows.Err(), "failed iterating institutions")
}

func (db *RegistryStore) CountInstitutions(ctx context.Context, state model.InstitutionState) (int, error) {
	return db.countInstitutions(ctx, db.ReadDB, state)
}

func (db *RegistryStore) countInstitutions(ctx context.Context, q queryer, state model.InstitutionState) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE state = $1", db.Table.Institutions)
	db.Logger.Debug(query, state)
	var n int
	if err := q.QueryRowContext(ctx, query, string(state)).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed counting institutions")
	}
	return n, nil
}

func (db *RegistryStore) SetInstitutionState(ctx context.Context, id string, from, to model.InstitutionState) error {
	query := fmt.Sprintf("UPDATE %s SET state = $1, updated_at = $2 WHERE id = $3 AND state = $4", db.Table.Institutions)
	db.Logger.Debug(query, to, id, from)
	res, err := db.WriteDB.ExecContext(ctx, query, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return errors.Wrapf(err, "failed updating institution [%s]", id)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		inst, err := db.Institution(ctx, id)
		if err != nil {
			return err
		}
		return errs.Conflict("institution [%s] is %s, not %s", id, inst.State, from)
	}
	return nil
}

func (db *RegistryStore) IdentifiersInUse(ctx context.Context, handle, contactAddress, chainAddress string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE handle = $1 OR contact_address = $2 OR chain_address = $3", db.Table.Institutions)
	db.Logger.Debug(query, handle, contactAddress, chainAddress)
	var n int
	if err := db.ReadDB.QueryRowContext(ctx, query, handle, contactAddress, chainAddress).Scan(&n); err != nil {
		return false, errors.Wrap(err, "failed checking institution identifiers")
	}
	if n > 0 {
		return true, nil
	}

	query = fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE state = $1 AND (handle = $2 OR contact_address = $3 OR chain_address = $4)", db.Table.Requests)
	db.Logger.Debug(query, handle, contactAddress, chainAddress)
	if err := db.ReadDB.QueryRowContext(ctx, query, string(model.RequestPending), handle, contactAddress, chainAddress).Scan(&n); err != nil {
		return false, errors.Wrap(err, "failed checking request identifiers")
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row scanner) (*model.Institution, error) {
	inst := &model.Institution{}
	var state string
	if err := row.Scan(&inst.ID, &inst.LegalName, &inst.Handle, &inst.ContactAddress, &inst.ChainAddress,
		&state, &inst.CredentialHash, &inst.CertificatesIssued, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
		return nil, err
	}
	inst.State = model.InstitutionState(state)
	return inst, nil
}
