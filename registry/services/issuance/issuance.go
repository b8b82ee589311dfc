/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import (
	"context"
	"fmt"
	"strings"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/anchor"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/certificates"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("registry.issuance")

type InstitutionDirectory interface {
	Institution(ctx context.Context, id string) (*model.Institution, error)
}

// Upload is a certificate file handed in by an issuer. StorageLocator is
// needed only when no content store is configured.
type Upload struct {
	Name           string
	FileName       string
	MimeType       string
	Content        []byte
	StorageLocator string
}

// OrphanedAnchorError reports a ledger operation that was confirmed but could
// not be recorded off-chain. Reconciliation repairs it.
type OrphanedAnchorError struct {
	Op          driver.Operation
	Fingerprint string
	Receipt     *driver.Receipt
	Cause       error
}

func (e *OrphanedAnchorError) Error() string {
	return fmt.Sprintf("%s of [%s] confirmed in [%s] but not recorded off-chain: %v", e.Op, e.Fingerprint, e.Receipt.TxRef, e.Cause)
}

func (e *OrphanedAnchorError) Unwrap() error { return e.Cause }

// Service drives an issuance through content storage, the ledger and the registry,
// in that order. Nothing is recorded off-chain before the ledger confirms.
type Service struct {
	institutions InstitutionDirectory
	registry     *certificates.Registry
	anchor       *anchor.Service
	content      driver.ContentStore
	metrics      *Metrics
}

func NewService(institutions InstitutionDirectory, registry *certificates.Registry, anchor *anchor.Service, content driver.ContentStore, m *Metrics) *Service {
	return &Service{
		institutions: institutions,
		registry:     registry,
		anchor:       anchor,
		content:      content,
		metrics:      m,
	}
}

func (s *Service) Issue(ctx context.Context, institutionID, studentID string, u Upload) (*model.Certificate, error) {
	inst, err := s.issuer(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	student, err := s.registry.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.InstitutionID != inst.ID {
		return nil, errs.Forbidden("student [%s] does not belong to the caller", studentID)
	}
	data, err := s.prepare(ctx, u)
	if err != nil {
		return nil, err
	}

	receipt, err := s.anchor.Register(ctx, inst.ChainAddress, data.Fingerprint, entryMetadata(student, data))
	if err != nil {
		s.metrics.Failed.With("op", string(driver.Register)).Add(1)
		return nil, errors.WithMessagef(err, "failed anchoring certificate of [%s]", studentID)
	}
	data.ChainTxRef = receipt.TxRef
	data.ChainBlockRef = receipt.BlockRef

	c, err := s.registry.RecordCertificate(ctx, inst.ID, studentID, *data)
	if err != nil {
		return nil, s.orphaned(driver.Register, data.Fingerprint, receipt, err)
	}
	s.metrics.Completed.With("op", string(driver.Register)).Add(1)
	return c, nil
}

// Revoke is allowed to suspended institutions too.
func (s *Service) Revoke(ctx context.Context, institutionID, certificateID, reason string) (*model.Certificate, error) {
	if len(strings.TrimSpace(reason)) == 0 {
		return nil, errs.Validation("revocation reason is required")
	}
	inst, err := s.institution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	m, err := s.revocable(ctx, inst, certificateID)
	if err != nil {
		return nil, err
	}
	receipt, err := s.anchor.Revoke(ctx, inst.ChainAddress, m.Certificate.Fingerprint, reason)
	if err != nil {
		s.metrics.Failed.With("op", string(driver.Revoke)).Add(1)
		return nil, errors.WithMessagef(err, "failed revoking certificate [%s] on the ledger", certificateID)
	}
	c, err := s.registry.Revoke(ctx, inst.ID, certificateID, reason, receipt.TxRef, "")
	if err != nil {
		return nil, s.orphaned(driver.Revoke, m.Certificate.Fingerprint, receipt, err)
	}
	s.metrics.Completed.With("op", string(driver.Revoke)).Add(1)
	return c, nil
}

// Replace revokes a certificate and issues u to the same student in its place.
func (s *Service) Replace(ctx context.Context, institutionID, certificateID, reason string, u Upload) (*model.Certificate, error) {
	if len(strings.TrimSpace(reason)) == 0 {
		return nil, errs.Validation("revocation reason is required")
	}
	inst, err := s.issuer(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	m, err := s.revocable(ctx, inst, certificateID)
	if err != nil {
		return nil, err
	}
	data, err := s.prepare(ctx, u)
	if err != nil {
		return nil, err
	}

	rr, err := s.anchor.Replace(ctx, inst.ChainAddress, m.Certificate.Fingerprint, reason, data.Fingerprint, entryMetadata(m.Student, data))
	if err != nil {
		s.metrics.Failed.With("op", string(driver.Replace)).Add(1)
		var pe *anchor.PartialReplaceError
		if errors.As(err, &pe) {
			// keep the registry in line with the ledger: the old one is revoked
			if _, rerr := s.registry.Revoke(ctx, inst.ID, certificateID, reason, pe.Revocation.TxRef, ""); rerr != nil {
				return nil, s.orphaned(driver.Revoke, m.Certificate.Fingerprint, pe.Revocation, rerr)
			}
		}
		return nil, errors.WithMessagef(err, "failed replacing certificate [%s]", certificateID)
	}

	if _, err := s.registry.Revoke(ctx, inst.ID, certificateID, reason, rr.Revocation.TxRef, data.Fingerprint); err != nil {
		return nil, s.orphaned(driver.Replace, m.Certificate.Fingerprint, rr.Revocation, err)
	}
	data.ChainTxRef = rr.Registration.TxRef
	data.ChainBlockRef = rr.Registration.BlockRef
	c, err := s.registry.RecordCertificate(ctx, inst.ID, m.Student.ID, *data)
	if err != nil {
		return nil, s.orphaned(driver.Replace, data.Fingerprint, rr.Registration, err)
	}
	s.metrics.Completed.With("op", string(driver.Replace)).Add(1)
	return c, nil
}

// prepare fingerprints the upload and puts it in content storage.
func (s *Service) prepare(ctx context.Context, u Upload) (*model.CertificateData, error) {
	if len(u.Content) == 0 {
		return nil, errs.Validation("empty certificate file")
	}
	fp := s.registry.Engine().Fingerprint(u.Content)
	if _, err := s.registry.FindByFingerprint(ctx, fp); err == nil {
		return nil, errs.Conflict("duplicate certificate")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	data := &model.CertificateData{
		Name:           u.Name,
		Fingerprint:    fp,
		StorageLocator: u.StorageLocator,
		FileName:       u.FileName,
		ByteSize:       int64(len(u.Content)),
	}
	if s.content != nil {
		stored, err := s.content.Store(ctx, u.Content, u.FileName, u.MimeType)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed storing [%s]", u.FileName)
		}
		data.StorageLocator = stored.RetrievalURL
		data.StorageContentID = stored.ContentID
	}
	if err := s.registry.CheckData(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Service) institution(ctx context.Context, id string) (*model.Institution, error) {
	inst, err := s.institutions.Institution(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Forbidden("unknown institution")
		}
		return nil, err
	}
	return inst, nil
}

func (s *Service) issuer(ctx context.Context, id string) (*model.Institution, error) {
	inst, err := s.institution(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inst.CanIssue() {
		return nil, errs.Forbidden("institution [%s] is %s and cannot issue", id, inst.State)
	}
	return inst, nil
}

func (s *Service) revocable(ctx context.Context, inst *model.Institution, certificateID string) (*model.Match, error) {
	m, err := s.registry.Certificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if m.Certificate.IssuerID != inst.ID {
		return nil, errs.Forbidden("certificate [%s] was not issued by the caller", certificateID)
	}
	if m.Certificate.Revocation.Revoked {
		return nil, errs.Conflict("certificate [%s] is already revoked", certificateID)
	}
	return m, nil
}

func (s *Service) orphaned(op driver.Operation, fp string, r *driver.Receipt, cause error) error {
	s.metrics.Orphaned.With("op", string(op)).Add(1)
	logger.Errorf("%s of [%s] confirmed in [%s] at block %d but not recorded off-chain: %v", op, fp, r.TxRef, r.BlockRef, cause)
	return &OrphanedAnchorError{Op: op, Fingerprint: fp, Receipt: r, Cause: cause}
}

func entryMetadata(s *model.Student, d *model.CertificateData) driver.EntryMetadata {
	return driver.EntryMetadata{
		StudentName:        s.FullName,
		RegistrationNumber: s.RegistrationNumber,
		FileName:           d.FileName,
		StorageLocator:     d.StorageLocator,
		StorageContentID:   d.StorageContentID,
		CertificateName:    d.Name,
		ByteSize:           d.ByteSize,
	}
}
