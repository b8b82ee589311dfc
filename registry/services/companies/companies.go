/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package companies

import (
	"context"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/utils"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var logger = logging.MustGetLogger("registry.companies")

const minCredentialLength = 8

type Store interface {
	driver.CompanyStore
	driver.StudentStore
}

// Service lets employers look students up and keep a record of the ones they checked.
type Service struct {
	store Store
	cost  int
	newID utils.IDGenerator
	now   func() time.Time
}

func NewService(store Store, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store: store,
		cost:  bcryptCost,
		newID: utils.NewID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Register(ctx context.Context, legalName, handle, credential string) (*model.Company, error) {
	if len(credential) < minCredentialLength {
		return nil, errs.Validation("credential must be at least %d characters", minCredentialLength)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(credential), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errs.Validation("credential must be at most 72 bytes")
		}
		return nil, errors.Wrap(err, "failed hashing credential")
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	c, err := model.NewCompany(id, legalName, handle, string(h), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return nil, errors.WithMessagef(err, "failed registering company [%s]", c.Handle)
	}
	logger.Infof("company [%s] registered as [%s]", c.Handle, id)
	return c, nil
}

func (s *Service) Authenticate(ctx context.Context, companyID, credential string) (*model.Company, error) {
	c, err := s.store.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.CredentialHash), []byte(credential)); err != nil {
		return nil, errs.Forbidden("invalid credentials")
	}
	return c, nil
}

// SearchStudents searches across all institutions; the result is read only.
func (s *Service) SearchStudents(ctx context.Context, companyID, query string) ([]*model.Student, error) {
	if _, err := s.store.Company(ctx, companyID); err != nil {
		return nil, err
	}
	return s.store.SearchStudents(ctx, "", query)
}

// MarkVerified records that the company checked the student. Each student once.
func (s *Service) MarkVerified(ctx context.Context, companyID, studentID string) (*model.VerifiedStudent, error) {
	st, err := s.store.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	entry := model.SnapshotStudent(st, s.now())
	if err := s.store.AppendVerified(ctx, companyID, entry); err != nil {
		return nil, errors.WithMessagef(err, "failed marking [%s] verified by [%s]", studentID, companyID)
	}
	logger.Debugf("company [%s] verified student [%s]", companyID, studentID)
	return &entry, nil
}

func (s *Service) Verified(ctx context.Context, companyID string) ([]model.VerifiedStudent, error) {
	c, err := s.store.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return c.VerifiedStudents, nil
}

func (s *Service) Company(ctx context.Context, id string) (*model.Company, error) {
	return s.store.Company(ctx, id)
}
