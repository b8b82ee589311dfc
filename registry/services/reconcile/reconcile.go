/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/certificates"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
)

var logger = logging.MustGetLogger("registry.reconcile")

const DefaultWorkers = 8

type InstitutionDirectory interface {
	Institution(ctx context.Context, id string) (*model.Institution, error)
}

type Finding string

const (
	// Missing: registered on the ledger, absent from the registry.
	Missing Finding = "missing"
	// RevokedOnLedger: revoked on the ledger, active in the registry.
	RevokedOnLedger Finding = "revoked-on-ledger"
	// RevokedOffChain: revoked in the registry, active on the ledger.
	RevokedOffChain Finding = "revoked-off-chain"
	// Foreign: the registry holds the fingerprint for another institution.
	Foreign Finding = "foreign"
)

type Discrepancy struct {
	Finding       Finding `json:"finding"`
	Fingerprint   string  `json:"fingerprint"`
	TxRef         string  `json:"txRef"`
	CertificateID string  `json:"certificateId,omitempty"`
	Repaired      bool    `json:"repaired"`
	RepairError   string  `json:"repairError,omitempty"`
}

type Report struct {
	InstitutionID string        `json:"institutionId"`
	ChainAddress  string        `json:"chainAddress"`
	Scanned       int           `json:"scanned"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// Clean is true when the registry agrees with the ledger.
func (r *Report) Clean() bool { return len(r.Discrepancies) == 0 }

// Count returns the number of discrepancies of kind f.
func (r *Report) Count(f Finding) int {
	n := 0
	for _, d := range r.Discrepancies {
		if d.Finding == f {
			n++
		}
	}
	return n
}

// Service compares the ledger registrations of an institution with the registry.
type Service struct {
	ledger       driver.Ledger
	registry     *certificates.Registry
	institutions InstitutionDirectory
	workers      int
}

func NewService(ledger driver.Ledger, registry *certificates.Registry, institutions InstitutionDirectory, workers int) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{ledger: ledger, registry: registry, institutions: institutions, workers: workers}
}

// Run scans every ledger entry of the institution. With repair, missing
// certificates are re-recorded for the student with the registration number
// found on the ledger, and ledger revocations are applied off-chain.
func (s *Service) Run(ctx context.Context, institutionID string, repair bool) (*Report, error) {
	inst, err := s.institutions.Institution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.Entries(ctx, inst.ChainAddress)
	if err != nil {
		return nil, errors.WithMessagef(driver.Classify(err), "failed listing ledger entries of [%s]", inst.ChainAddress)
	}
	logger.Infof("reconciling %d ledger entries of [%s] (repair=%v)", len(entries), institutionID, repair)

	p := pool.NewWithResults[*Discrepancy]().WithContext(ctx).WithMaxGoroutines(s.workers)
	for _, e := range entries {
		e := e
		p.Go(func(ctx context.Context) (*Discrepancy, error) {
			return s.check(ctx, inst, e, repair)
		})
	}
	found, err := p.Wait()
	if err != nil {
		return nil, err
	}

	report := &Report{
		InstitutionID: institutionID,
		ChainAddress:  inst.ChainAddress,
		Scanned:       len(entries),
		Discrepancies: []Discrepancy{},
	}
	for _, d := range found {
		if d != nil {
			report.Discrepancies = append(report.Discrepancies, *d)
		}
	}
	sort.Slice(report.Discrepancies, func(i, j int) bool {
		return report.Discrepancies[i].Fingerprint < report.Discrepancies[j].Fingerprint
	})
	logger.Infof("reconciled [%s]: %d discrepancies", institutionID, len(report.Discrepancies))
	return report, nil
}

func (s *Service) check(ctx context.Context, inst *model.Institution, e *driver.Entry, repair bool) (*Discrepancy, error) {
	m, err := s.registry.FindByFingerprint(ctx, e.Fingerprint)
	if errors.Is(err, errs.ErrNotFound) {
		d := &Discrepancy{Finding: Missing, Fingerprint: e.Fingerprint, TxRef: e.TxRef}
		if repair {
			s.repairMissing(ctx, inst, e, d)
		}
		return d, nil
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed looking up [%s]", e.Fingerprint)
	}

	c := m.Certificate
	switch {
	case c.IssuerID != inst.ID:
		return &Discrepancy{Finding: Foreign, Fingerprint: e.Fingerprint, TxRef: e.TxRef, CertificateID: c.ID}, nil
	case e.Revoked && !c.Revocation.Revoked:
		d := &Discrepancy{Finding: RevokedOnLedger, Fingerprint: e.Fingerprint, TxRef: e.RevocationTxRef, CertificateID: c.ID}
		if repair {
			_, err := s.registry.Revoke(ctx, inst.ID, c.ID, revocationReason(e), e.RevocationTxRef, e.ReplacedBy)
			s.repaired(d, err)
		}
		return d, nil
	case !e.Revoked && c.Revocation.Revoked:
		return &Discrepancy{Finding: RevokedOffChain, Fingerprint: e.Fingerprint, TxRef: e.TxRef, CertificateID: c.ID}, nil
	}
	return nil, nil
}

func (s *Service) repairMissing(ctx context.Context, inst *model.Institution, e *driver.Entry, d *Discrepancy) {
	student, err := s.registry.StudentByRegistration(ctx, inst.ID, e.Metadata.RegistrationNumber)
	if err != nil {
		s.repaired(d, err)
		return
	}
	name := e.Metadata.CertificateName
	if len(strings.TrimSpace(name)) == 0 {
		name = e.Metadata.FileName
	}
	c, err := s.registry.RecordCertificate(ctx, inst.ID, student.ID, model.CertificateData{
		Name:             name,
		Fingerprint:      e.Fingerprint,
		StorageLocator:   e.Metadata.StorageLocator,
		StorageContentID: e.Metadata.StorageContentID,
		FileName:         e.Metadata.FileName,
		ByteSize:         e.Metadata.ByteSize,
		ChainTxRef:       e.TxRef,
		ChainBlockRef:    e.BlockRef,
	})
	if err != nil {
		s.repaired(d, err)
		return
	}
	d.CertificateID = c.ID
	if e.Revoked {
		_, err = s.registry.Revoke(ctx, inst.ID, c.ID, revocationReason(e), e.RevocationTxRef, e.ReplacedBy)
	}
	s.repaired(d, err)
}

func (s *Service) repaired(d *Discrepancy, err error) {
	if err != nil {
		logger.Warnf("could not repair %s [%s]: %v", d.Finding, d.Fingerprint, err)
		d.RepairError = errs.Message(err)
		return
	}
	d.Repaired = true
	logger.Infof("repaired %s [%s]", d.Finding, d.Fingerprint)
}

func revocationReason(e *driver.Entry) string {
	if len(strings.TrimSpace(e.RevocationReason)) == 0 {
		return "revoked on the ledger"
	}
	return e.RevocationReason
}
