/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/certificates"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/utils/cache"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("registry.verification")

type Config struct {
	// CrossCheck compares every match against its ledger registration.
	CrossCheck bool         `mapstructure:"crossCheck" yaml:"crossCheck"`
	Cache      cache.Config `mapstructure:"cache" yaml:"cache"`
}

type InstitutionDirectory interface {
	Institution(ctx context.Context, id string) (*model.Institution, error)
}

// Anchor is the immutable part of a ledger registration.
type Anchor struct {
	Issuer   string               `json:"issuer"`
	TxRef    string               `json:"txRef"`
	BlockRef uint64               `json:"blockRef"`
	Metadata driver.EntryMetadata `json:"metadata"`
}

// Result is either a full match or a clear negative.
type Result struct {
	Matched                bool               `json:"matched"`
	Fingerprint            string             `json:"fingerprint"`
	Student                *model.Student     `json:"student,omitempty"`
	Certificate            *model.Certificate `json:"certificate,omitempty"`
	Issuer                 *model.Institution `json:"issuer,omitempty"`
	Anchor                 *Anchor            `json:"anchor,omitempty"`
	Revoked                bool               `json:"revoked"`
	RevocationReason       string             `json:"revocationReason,omitempty"`
	RevokedAt              *time.Time         `json:"revokedAt,omitempty"`
	ReplacementFingerprint string             `json:"replacementFingerprint,omitempty"`
}

// Valid is true for a matched certificate that was not revoked.
func (r *Result) Valid() bool { return r.Matched && !r.Revoked }

type Service struct {
	registry     *certificates.Registry
	institutions InstitutionDirectory
	ledger       driver.Ledger
	anchors      cache.Cache[*Anchor]
	crossCheck   bool
	metrics      *Metrics
}

func NewService(registry *certificates.Registry, institutions InstitutionDirectory, ledger driver.Ledger, c Config, m *Metrics) (*Service, error) {
	anchors, err := cache.New[*Anchor](c.Cache)
	if err != nil {
		return nil, err
	}
	if c.CrossCheck && ledger == nil {
		return nil, errors.New("ledger cross-check requires a ledger client")
	}
	return &Service{
		registry:     registry,
		institutions: institutions,
		ledger:       ledger,
		anchors:      anchors,
		crossCheck:   c.CrossCheck,
		metrics:      m,
	}, nil
}

// Verify fingerprints content and looks it up, optionally within one student's certificates.
func (s *Service) Verify(ctx context.Context, content []byte, studentID string) (*Result, error) {
	return s.verify(ctx, s.registry.Engine().Fingerprint(content), studentID)
}

// VerifyReader streams r through the fingerprint engine.
func (s *Service) VerifyReader(ctx context.Context, r io.Reader, studentID string) (*Result, error) {
	fp, _, err := s.registry.Engine().FingerprintReader(r)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, fp, studentID)
}

// VerifyFingerprint serves callers that hashed the file themselves.
func (s *Service) VerifyFingerprint(ctx context.Context, fingerprint, studentID string) (*Result, error) {
	fp, err := s.registry.Engine().Validate(fingerprint)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, fp, studentID)
}

func (s *Service) verify(ctx context.Context, fp, studentID string) (*Result, error) {
	res, err := s.lookup(ctx, fp, studentID)
	if err != nil {
		s.metrics.Verifications.With("outcome", errs.KindOf(err).String()).Add(1)
		return nil, err
	}
	switch {
	case !res.Matched:
		s.metrics.Verifications.With("outcome", "unmatched").Add(1)
	case res.Revoked:
		s.metrics.Verifications.With("outcome", "revoked").Add(1)
	default:
		s.metrics.Verifications.With("outcome", "valid").Add(1)
	}
	return res, nil
}

func (s *Service) lookup(ctx context.Context, fp, studentID string) (*Result, error) {
	var m *model.Match
	if len(studentID) != 0 {
		student, err := s.registry.Student(ctx, studentID)
		if err != nil {
			return nil, err
		}
		for _, c := range student.Certificates {
			if c.Fingerprint == fp {
				m = &model.Match{Student: student, Certificate: c}
				break
			}
		}
	} else {
		found, err := s.registry.FindByFingerprint(ctx, fp)
		if err != nil && !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		m = found
	}
	if m == nil {
		logger.Debugf("no certificate with fingerprint [%s]", fp)
		return &Result{Fingerprint: fp}, nil
	}

	issuer, err := s.institutions.Institution(ctx, m.Certificate.IssuerID)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed loading issuer of certificate [%s]", m.Certificate.ID)
	}
	res := &Result{
		Matched:     true,
		Fingerprint: fp,
		Student:     m.Student,
		Certificate: m.Certificate,
		Issuer:      issuer,
	}
	if rev := m.Certificate.Revocation; rev.Revoked {
		res.Revoked = true
		res.RevocationReason = rev.Reason
		res.RevokedAt = rev.RevokedAt
		res.ReplacementFingerprint = rev.ReplacementFingerprint
	}
	if s.crossCheck {
		a, err := s.anchor(ctx, fp)
		if err != nil {
			return nil, err
		}
		if err := crossCheck(a, issuer, m); err != nil {
			logger.Warnf("certificate [%s] disagrees with its ledger registration: %v", m.Certificate.ID, err)
			return nil, err
		}
		res.Anchor = a
	}
	return res, nil
}

func (s *Service) anchor(ctx context.Context, fp string) (*Anchor, error) {
	a, _, err := s.anchors.GetOrLoad(fp, func() (*Anchor, error) {
		e, err := s.ledger.GetEntry(ctx, fp)
		if err != nil {
			return nil, err
		}
		return &Anchor{Issuer: e.Issuer, TxRef: e.TxRef, BlockRef: e.BlockRef, Metadata: e.Metadata}, nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Integrity("certificate is recorded but not registered on the ledger")
		}
		return nil, errors.WithMessagef(driver.Classify(err), "failed reading ledger entry")
	}
	return a, nil
}

func crossCheck(a *Anchor, issuer *model.Institution, m *model.Match) error {
	var mismatched []string
	if !strings.EqualFold(a.Issuer, issuer.ChainAddress) {
		mismatched = append(mismatched, "issuer")
	}
	if a.Metadata.RegistrationNumber != m.Student.RegistrationNumber {
		mismatched = append(mismatched, "registration number")
	}
	if a.Metadata.StorageLocator != m.Certificate.StorageLocator {
		mismatched = append(mismatched, "storage locator")
	}
	if len(mismatched) != 0 {
		return errs.Integrity("ledger registration does not match the record: %s", strings.Join(mismatched, ", "))
	}
	return nil
}
