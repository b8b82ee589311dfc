/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package governance

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

var logger = logging.MustGetLogger("registry.governance")

const minCredentialLength = 8

type Store interface {
	driver.InstitutionStore
	driver.RequestStore
}

type Config struct {
	QuorumPercent int `mapstructure:"quorumPercent" yaml:"quorumPercent"`
	BcryptCost    int `mapstructure:"bcryptCost" yaml:"bcryptCost"`
}

// Service admits institutions by vote of the already approved ones.
type Service struct {
	store   Store
	quorum  Quorum
	cost    int
	metrics *Metrics
	newID   utils.IDGenerator
	now     func() time.Time
}

func NewService(store Store, c Config, m *Metrics) (*Service, error) {
	if c.QuorumPercent == 0 {
		c.QuorumPercent = DefaultQuorumPercent
	}
	if c.QuorumPercent < 1 || c.QuorumPercent > 100 {
		return nil, errors.Errorf("quorum percent must be in [1,100], got [%d]", c.QuorumPercent)
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost must be in [%d,%d], got [%d]", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return &Service{
		store:   store,
		quorum:  Quorum{Percent: c.QuorumPercent},
		cost:    c.BcryptCost,
		metrics: m,
		newID:   utils.NewID,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Submit files a registration request; the credential is hashed once, here.
func (s *Service) Submit(ctx context.Context, p model.Proposal, credential string) (*model.RegistrationRequest, error) {
	if err := s.checkIdentifiers(ctx, p); err != nil {
		return nil, err
	}
	hash, err := s.hash(credential)
	if err != nil {
		return nil, err
	}
	p.CredentialHash = hash

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	req := model.NewRegistrationRequest(id, p, s.now())
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, errors.WithMessagef(err, "failed storing registration request for [%s]", p.Handle)
	}
	logger.Infof("registration request [%s] submitted by [%s]", id, p.Handle)
	return req, nil
}

// Vote records the decision of an approved institution and resolves the request
// when the quorum is reached either way.
func (s *Service) Vote(ctx context.Context, requestID, voterID string, decision model.Decision) (*model.RegistrationRequest, error) {
	if decision != model.Approve && decision != model.Reject {
		return nil, errs.Validation("invalid decision [%s]", decision)
	}
	voter, err := s.store.Institution(ctx, voterID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Forbidden("only approved institutions can vote")
		}
		return nil, err
	}
	if voter.State != model.InstitutionApproved {
		return nil, errs.Forbidden("institution [%s] is %s and cannot vote", voterID, voter.State)
	}

	institutionID, err := s.newID()
	if err != nil {
		return nil, err
	}
	req, err := s.store.RecordVote(ctx, requestID, model.Vote{
		VoterID:  voterID,
		Decision: decision,
		CastAt:   s.now(),
	}, s.resolve, institutionID)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed recording vote of [%s] on [%s]", voterID, requestID)
	}
	s.metrics.Votes.With("decision", string(decision)).Add(1)

	switch req.State {
	case model.RequestApproved:
		logger.Infof("request [%s] approved with %d approvals, institution [%s] created", requestID, req.Approvals, req.InstitutionID)
		s.metrics.Resolutions.With("outcome", string(req.State)).Add(1)
	case model.RequestRejected:
		logger.Infof("request [%s] rejected with %d rejections", requestID, req.Rejections)
		s.metrics.Resolutions.With("outcome", string(req.State)).Add(1)
	default:
		logger.Debugf("request [%s] pending: %d approvals, %d rejections", requestID, req.Approvals, req.Rejections)
	}
	return req, nil
}

func (s *Service) resolve(approvals, rejections, n int) model.RequestState {
	s.metrics.Approved.Set(float64(n))
	return s.quorum.Resolve(approvals, rejections, n)
}

// Seed creates the first approved institution. It is refused once any
// institution has been approved, after which admission goes through votes.
func (s *Service) Seed(ctx context.Context, p model.Proposal, credential string) (*model.Institution, error) {
	if err := s.checkIdentifiers(ctx, p); err != nil {
		return nil, err
	}
	hash, err := s.hash(credential)
	if err != nil {
		return nil, err
	}
	p.CredentialHash = hash
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	inst := p.Institution(id, model.InstitutionApproved, s.now())
	if err := s.store.SeedInstitution(ctx, inst); err != nil {
		return nil, errors.WithMessagef(err, "failed seeding institution [%s]", p.Handle)
	}
	logger.Infof("seeded institution [%s] as [%s]", p.Handle, id)
	return inst, nil
}

// Suspend freezes issuance and voting rights.
func (s *Service) Suspend(ctx context.Context, institutionID string) error {
	if err := s.store.SetInstitutionState(ctx, institutionID, model.InstitutionApproved, model.InstitutionSuspended); err != nil {
		return errors.WithMessagef(err, "failed suspending [%s]", institutionID)
	}
	logger.Infof("institution [%s] suspended", institutionID)
	return nil
}

func (s *Service) Reinstate(ctx context.Context, institutionID string) error {
	if err := s.store.SetInstitutionState(ctx, institutionID, model.InstitutionSuspended, model.InstitutionApproved); err != nil {
		return errors.WithMessagef(err, "failed reinstating [%s]", institutionID)
	}
	logger.Infof("institution [%s] reinstated", institutionID)
	return nil
}

// Authenticate checks a plaintext credential against the stored hash.
func (s *Service) Authenticate(ctx context.Context, institutionID, credential string) (*model.Institution, error) {
	inst, err := s.store.Institution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(inst.CredentialHash), []byte(credential)); err != nil {
		return nil, errs.Forbidden("invalid credentials")
	}
	return inst, nil
}

func (s *Service) Request(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	return s.store.Request(ctx, id)
}

func (s *Service) Pending(ctx context.Context) ([]*model.RegistrationRequest, error) {
	return s.store.Requests(ctx, model.RequestPending)
}

func (s *Service) Institution(ctx context.Context, id string) (*model.Institution, error) {
	return s.store.Institution(ctx, id)
}

func (s *Service) Institutions(ctx context.Context, state model.InstitutionState) ([]*model.Institution, error) {
	return s.store.Institutions(ctx, state)
}

func (s *Service) ApprovedCount(ctx context.Context) (int, error) {
	return s.store.CountInstitutions(ctx, model.InstitutionApproved)
}

func (s *Service) checkIdentifiers(ctx context.Context, p model.Proposal) error {
	inUse, err := s.store.IdentifiersInUse(ctx, p.Handle, p.ContactAddress, p.ChainAddress)
	if err != nil {
		return err
	}
	if inUse {
		return errs.Conflict("handle, contact address or chain address already in use")
	}
	return nil
}

func (s *Service) hash(credential string) (string, error) {
	if len(credential) < minCredentialLength {
		return "", errs.Validation("credential must be at least %d characters", minCredentialLength)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(credential), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errs.Validation("credential must be at most 72 bytes")
	}
	if err != nil {
		return "", errors.Wrap(err, "failed hashing credential")
	}
	return string(h), nil
}
