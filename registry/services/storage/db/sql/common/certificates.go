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

const certificateFields = "id, student_id, seq, name, fingerprint, storage_locator, storage_content_id, file_name, byte_size, issuer_id, issued_at, " +
	"chain_tx_ref, chain_block_ref, chain_confirmed, revoked, revocation_reason, revoked_at, revocation_tx_ref, replacement_fingerprint"

func (db *RegistryStore) AppendCertificate(ctx context.Context, studentID string, c *model.Certificate) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := db.lockStudent(ctx, tx, studentID); err != nil {
			return err
		}
		var seq int
		query := fmt.Sprintf("SELECT COALESCE(MAX(seq), -1) + 1 FROM %s WHERE student_id = $1", db.Table.Certificates)
		db.Logger.Debug(query, studentID)
		if err := tx.QueryRowContext(ctx, query, studentID).Scan(&seq); err != nil {
			return errors.Wrapf(err, "failed computing certificate position for [%s]", studentID)
		}

		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)",
			db.Table.Certificates, certificateFields)
		db.Logger.Debug(query, c.ID, studentID, c.Fingerprint)
		r := c.Revocation
		if _, err := tx.ExecContext(ctx, query,
			c.ID, studentID, seq, c.Name, c.Fingerprint, c.StorageLocator, c.StorageContentID, c.FileName, c.ByteSize,
			c.IssuerID, c.IssuedAt.UTC(), c.ChainTxRef, int64(c.ChainBlockRef), c.ChainConfirmed,
			r.Revoked, r.Reason, nullTime(r.RevokedAt), r.TxRef, r.ReplacementFingerprint); err != nil {
			return db.insertError(err, "duplicate certificate")
		}

		query = fmt.Sprintf("UPDATE %s SET certificates_issued = certificates_issued + 1 WHERE id = $1", db.Table.Institutions)
		db.Logger.Debug(query, c.IssuerID)
		if _, err := tx.ExecContext(ctx, query, c.IssuerID); err != nil {
			return errors.Wrapf(err, "failed incrementing issued counter of [%s]", c.IssuerID)
		}
		return nil
	})
}

func (db *RegistryStore) CertificateByFingerprint(ctx context.Context, fingerprint string) (*model.Match, error) {
	return db.match(ctx, "fingerprint = $1", fingerprint)
}

func (db *RegistryStore) Certificate(ctx context.Context, id string) (*model.Match, error) {
	return db.match(ctx, "id = $1", id)
}

func (db *RegistryStore) match(ctx context.Context, where string, arg string) (*model.Match, error) {
	query := fmt.Sprintf("SELECT student_id, id FROM %s WHERE %s", db.Table.Certificates, where)
	db.Logger.Debug(query, arg)
	var studentID, certID string
	err := db.ReadDB.QueryRowContext(ctx, query, arg).Scan(&studentID, &certID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("certificate not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed looking up certificate")
	}
	s, err := db.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Certificates {
		if c.ID == certID {
			return &model.Match{Student: s, Certificate: c}, nil
		}
	}
	return nil, errs.NotFound("certificate not found")
}

func (db *RegistryStore) RevokeCertificate(ctx context.Context, id string, patch model.RevocationPatch) (*model.Certificate, error) {
	query := fmt.Sprintf("UPDATE %s SET revoked = $1, revocation_reason = $2, revoked_at = $3, revocation_tx_ref = $4, replacement_fingerprint = $5 "+
		"WHERE id = $6 AND revoked = $7", db.Table.Certificates)
	db.Logger.Debug(query, id, patch.Reason)
	res, err := db.WriteDB.ExecContext(ctx, query, true, patch.Reason, patch.RevokedAt.UTC(), patch.TxRef, patch.ReplacementFingerprint, id, false)
	if err != nil {
		return nil, errors.Wrapf(err, "failed revoking certificate [%s]", id)
	}
	n, err := affected(res)
	if err != nil {
		return nil, err
	}
	m, err := db.Certificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.Conflict("certificate [%s] is already revoked", id)
	}
	return m.Certificate, nil
}

func (db *RegistryStore) certificates(ctx context.Context, q queryer, studentID string) ([]*model.Certificate, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE student_id = $1 ORDER BY seq", certificateFields, db.Table.Certificates)
	db.Logger.Debug(query, studentID)
	rows, err := q.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed querying certificates of [%s]", studentID)
	}
	defer func() { _ = rows.Close() }()
	res := make([]*model.Certificate, 0)
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed scanning certificate")
		}
		res = append(res, c)
	}
	return res, errors.Wrap(rows.Err(), "failed iterating certificates")
}

func scanCertificate(row scanner) (*model.Certificate, error) {
	c := &model.Certificate{}
	var studentID string
	var seq int
	var blockRef int64
	var revokedAt sql.NullTime
	r := &c.Revocation
	if err := row.Scan(&c.ID, &studentID, &seq, &c.Name, &c.Fingerprint, &c.StorageLocator, &c.StorageContentID, &c.FileName, &c.ByteSize,
		&c.IssuerID, &c.IssuedAt, &c.ChainTxRef, &blockRef, &c.ChainConfirmed,
		&r.Revoked, &r.Reason, &revokedAt, &r.TxRef, &r.ReplacementFingerprint); err != nil {
		return nil, err
	}
	c.ChainBlockRef = uint64(blockRef)
	if revokedAt.Valid {
		at := revokedAt.Time
		r.RevokedAt = &at
	}
	return c, nil
}
