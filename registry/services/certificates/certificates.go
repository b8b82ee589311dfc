/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package certificates

import (
	"context"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/utils"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("registry.certificates")

type Store interface {
	driver.StudentStore
	driver.CertificateStore
}

// Registry is the off-chain record of students and the certificates issued to them.
// Entries are append-only; the only mutation is revocation.
type Registry struct {
	store   Store
	engine  *fingerprint.Engine
	metrics *Metrics
	newID   utils.IDGenerator
	now     func() time.Time
}

func NewRegistry(store Store, engine *fingerprint.Engine, m *Metrics) *Registry {
	return &Registry{
		store:   store,
		engine:  engine,
		metrics: m,
		newID:   utils.NewID,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Engine returns the fingerprint engine shared with verification.
func (r *Registry) Engine() *fingerprint.Engine { return r.engine }

func (r *Registry) AddStudent(ctx context.Context, f model.StudentFields, ownerID string) (*model.Student, error) {
	id, err := r.newID()
	if err != nil {
		return nil, err
	}
	s, err := model.NewStudent(id, f, ownerID, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.store.CreateStudent(ctx, s); err != nil {
		return nil, errors.WithMessagef(err, "failed adding student [%s]", s.RegistrationNumber)
	}
	logger.Debugf("student [%s] added to [%s] as [%s]", s.RegistrationNumber, ownerID, id)
	return s, nil
}

// RecordCertificate appends a certificate to a student owned by the caller.
// A fingerprint can be recorded once across the whole registry.
func (r *Registry) RecordCertificate(ctx context.Context, callerID, studentID string, d model.CertificateData) (*model.Certificate, error) {
	s, err := r.store.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if s.InstitutionID != callerID {
		return nil, errs.Forbidden("student [%s] does not belong to the caller", studentID)
	}
	if err := r.CheckData(&d); err != nil {
		return nil, err
	}
	id, err := r.newID()
	if err != nil {
		return nil, err
	}
	c, err := model.NewCertificate(id, d, callerID, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.store.AppendCertificate(ctx, studentID, c); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			r.metrics.Duplicates.Add(1)
			return nil, errs.Wrapf(errs.KindConflict, err, "duplicate certificate")
		}
		return nil, errors.WithMessagef(err, "failed recording certificate for [%s]", studentID)
	}
	r.metrics.Recorded.Add(1)
	logger.Infof("certificate [%s] recorded for student [%s]", c.ID, studentID)
	return c, nil
}

// CheckData validates and normalises the fingerprint and storage content id of d.
func (r *Registry) CheckData(d *model.CertificateData) error {
	if err := d.Validate(); err != nil {
		return err
	}
	fp, err := r.engine.Validate(d.Fingerprint)
	if err != nil {
		return err
	}
	d.Fingerprint = fp
	d.StorageContentID = strings.TrimSpace(d.StorageContentID)
	if len(d.StorageContentID) != 0 {
		if _, err := cid.Decode(d.StorageContentID); err != nil {
			return errs.Validation("malformed storage content id [%s]: %s", d.StorageContentID, err)
		}
	}
	return nil
}

// FindByFingerprint returns the single certificate carrying the fingerprint.
func (r *Registry) FindByFingerprint(ctx context.Context, fp string) (*model.Match, error) {
	fp, err := r.engine.Validate(fp)
	if err != nil {
		return nil, err
	}
	return r.store.CertificateByFingerprint(ctx, fp)
}

// Revoke marks a certificate revoked. Only the issuer can revoke, and only once.
func (r *Registry) Revoke(ctx context.Context, callerID, certificateID, reason, chainRef, replacement string) (*model.Certificate, error) {
	patch, err := model.NewRevocationPatch(reason, chainRef, replacement, r.now())
	if err != nil {
		return nil, err
	}
	m, err := r.store.Certificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if m.Certificate.IssuerID != callerID {
		return nil, errs.Forbidden("certificate [%s] was not issued by the caller", certificateID)
	}
	if m.Certificate.Revocation.Revoked {
		return nil, errs.Conflict("certificate [%s] is already revoked", certificateID)
	}
	c, err := r.store.RevokeCertificate(ctx, certificateID, patch)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed revoking certificate [%s]", certificateID)
	}
	r.metrics.Revoked.Add(1)
	logger.Infof("certificate [%s] revoked: %s", certificateID, patch.Reason)
	return c, nil
}

// SearchStudents is scoped to the caller's own students.
func (r *Registry) SearchStudents(ctx context.Context, institutionID, query string) ([]*model.Student, error) {
	if len(institutionID) == 0 {
		return nil, errs.Validation("missing required fields: institution")
	}
	return r.store.SearchStudents(ctx, institutionID, query)
}

func (r *Registry) Student(ctx context.Context, id string) (*model.Student, error) {
	return r.store.Student(ctx, id)
}

func (r *Registry) StudentByRegistration(ctx context.Context, institutionID, registrationNumber string) (*model.Student, error) {
	return r.store.StudentByRegistration(ctx, institutionID, model.NormalizeRegistrationNumber(registrationNumber))
}

func (r *Registry) Certificate(ctx context.Context, id string) (*model.Match, error) {
	return r.store.Certificate(ctx, id)
}

// DeleteStudent removes a student without active certificates.
func (r *Registry) DeleteStudent(ctx context.Context, callerID, studentID string) error {
	s, err := r.store.Student(ctx, studentID)
	if err != nil {
		return err
	}
	if s.InstitutionID != callerID {
		return errs.Forbidden("student [%s] does not belong to the caller", studentID)
	}
	if n := s.ActiveCertificates(); n > 0 {
		return errs.Conflict("student [%s] holds %d active certificates", studentID, n)
	}
	if err := r.store.DeleteStudent(ctx, studentID); err != nil {
		return errors.WithMessagef(err, "failed deleting student [%s]", studentID)
	}
	logger.Infof("student [%s] deleted", studentID)
	return nil
}
