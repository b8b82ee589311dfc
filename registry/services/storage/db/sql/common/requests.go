/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/pkg/errors"
)

const requestFields = "id, legal_name, handle, contact_address, chain_address, credential_hash, approvals, rejections, state, institution_id, created_at, resolved_at"

func (db *RegistryStore) CreateRequest(ctx context.Context, req *model.RegistrationRequest) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)", db.Table.Requests, requestFields)
	db.Logger.Debug(query, req.ID)
	p := req.Proposal
	_, err := db.WriteDB.ExecContext(ctx, query,
		req.ID, p.LegalName, p.Handle, p.ContactAddress, p.ChainAddress, p.CredentialHash,
		req.Approvals, req.Rejections, string(req.State), req.InstitutionID, req.CreatedAt.UTC(), nullTime(req.ResolvedAt))
	if err != nil {
		return db.insertError(err, "request [%s] already exists", req.ID)
	}
	return nil
}

func (db *RegistryStore) Request(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	return db.request(ctx, db.ReadDB, id, "")
}

func (db *RegistryStore) request(ctx context.Context, q queryer, id string, lock string) (*model.RegistrationRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1%s", requestFields, db.Table.Requests, lock)
	db.Logger.Debug(query, id)
	req, err := scanRequest(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("request [%s] not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed loading request [%s]", id)
	}
	if req.Votes, err = db.votes(ctx, q, id); err != nil {
		return nil, err
	}
	return req, nil
}

func (db *RegistryStore) votes(ctx context.Context, q queryer, requestID string) ([]model.Vote, error) {
	query := fmt.Sprintf("SELECT voter_id, decision, cast_at FROM %s WHERE request_id = $1 ORDER BY seq", db.Table.Votes)
	db.Logger.Debug(query, requestID)
	rows, err := q.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed querying votes of [%s]", requestID)
	}
	defer func() { _ = rows.Close() }()
	votes := make([]model.Vote, 0)
	for rows.Next() {
		var v model.Vote
		var decision string
		if err := rows.Scan(&v.VoterID, &decision, &v.CastAt); err != nil {
			return nil, errors.Wrap(err, "failed scanning vote")
		}
		v.Decision = model.Decision(decision)
		votes = append(votes, v)
	}
	return votes, errors.Wrap(rows.Err(), "failed iterating votes")
}

func (db *RegistryStore) Requests(ctx context.Context, state model.RequestState) ([]*model.RegistrationRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", requestFields, db.Table.Requests)
	var args []any
	if len(state) != 0 {
		query += " WHERE state = $1"
		args = append(args, string(state))
	}
	query += " ORDER BY created_at, id"
	db.Logger.Debug(query, args)

	rows, err := db.ReadDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying requests")
	}
	res := make([]*model.RegistrationRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			_ = rows.Close()
			return nil, errors.Wrap(err, "failed scanning request")
		}
		res = append(res, req)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "failed iterating requests")
	}
	_ = rows.Close()

	for _, req := range res {
		if req.Votes, err = db.votes(ctx, db.ReadDB, req.ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (db *RegistryStore) RecordVote(ctx context.Context, requestID string, vote model.Vote, resolve driver.Resolver, institutionID string) (*model.RegistrationRequest, error) {
	var result *model.RegistrationRequest
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		req, err := db.request(ctx, tx, requestID, db.dialect.LockClause)
		if err != nil {
			return err
		}
		if req.State != model.RequestPending {
			return errs.Conflict("request [%s] is already %s", requestID, req.State)
		}
		if req.HasVoted(vote.VoterID) {
			return errs.Conflict("institution [%s] already voted on request [%s]", vote.VoterID, requestID)
		}

		query := fmt.Sprintf("INSERT INTO %s (request_id, voter_id, decision, seq, cast_at) VALUES ($1, $2, $3, $4, $5)", db.Table.Votes)
		db.Logger.Debug(query, requestID, vote.VoterID, vote.Decision)
		if _, err := tx.ExecContext(ctx, query, requestID, vote.VoterID, string(vote.Decision), len(req.Votes), vote.CastAt.UTC()); err != nil {
			return db.insertError(err, "institution [%s] already voted on request [%s]", vote.VoterID, requestID)
		}
		req.Votes = append(req.Votes, vote)
		req.Tally()

		n, err := db.countInstitutions(ctx, tx, model.InstitutionApproved)
		if err != nil {
			return err
		}
		req.State = resolve(req.Approvals, req.Rejections, n)
		if req.State != model.RequestPending {
			at := vote.CastAt
			req.ResolvedAt = &at
		}
		if req.State == model.RequestApproved {
			if err := db.insertInstitution(ctx, tx, req.Proposal.Institution(institutionID, model.InstitutionApproved, vote.CastAt)); err != nil {
				return err
			}
			req.InstitutionID = institutionID
		}

		query = fmt.Sprintf("UPDATE %s SET approvals = $1, rejections = $2, state = $3, institution_id = $4, resolved_at = $5 WHERE id = $6", db.Table.Requests)
		db.Logger.Debug(query, req.Approvals, req.Rejections, req.State, requestID)
		if _, err := tx.ExecContext(ctx, query, req.Approvals, req.Rejections, string(req.State), req.InstitutionID, nullTime(req.ResolvedAt), requestID); err != nil {
			return errors.Wrapf(err, "failed updating request [%s]", requestID)
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scanRequest(row scanner) (*model.RegistrationRequest, error) {
	req := &model.RegistrationRequest{}
	var state string
	var resolvedAt sql.NullTime
	p := &req.Proposal
	if err := row.Scan(&req.ID, &p.LegalName, &p.Handle, &p.ContactAddress, &p.ChainAddress, &p.CredentialHash,
		&req.Approvals, &req.Rejections, &state, &req.InstitutionID, &req.CreatedAt, &resolvedAt); err != nil {
		return nil, err
	}
	req.State = model.RequestState(state)
	if resolvedAt.Valid {
		at := resolvedAt.Time
		req.ResolvedAt = &at
	}
	req.Votes = []model.Vote{}
	return req, nil
}
