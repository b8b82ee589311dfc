/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
)

// Resolver decides the state of a registration request given the current tally
// and the number of approved institutions at vote time.
type Resolver func(approvals, rejections, approvedInstitutions int) model.RequestState

// InstitutionStore persists institutions.
// Handle, contact address and chain address are unique; collisions return errs.ErrConflict.
type InstitutionStore interface {
	CreateInstitution(ctx context.Context, inst *model.Institution) error
	// SeedInstitution creates inst only while no institution is approved,
	// failing with errs.ErrConflict otherwise. Check and insert are atomic.
	SeedInstitution(ctx context.Context, inst *model.Institution) error
	Institution(ctx context.Context, id string) (*model.Institution, error)
	Institutions(ctx context.Context, state model.InstitutionState) ([]*model.Institution, error)
	CountInstitutions(ctx context.Context, state model.InstitutionState) (int, error)
	// SetInstitutionState moves an institution from one state to another,
	// failing with errs.ErrConflict if it is not in the expected state.
	SetInstitutionState(ctx context.Context, id string, from, to model.InstitutionState) error
	// IdentifiersInUse reports whether any of the identifiers is taken by an
	// institution or a pending registration request.
	IdentifiersInUse(ctx context.Context, handle, contactAddress, chainAddress string) (bool, error)
}

// RequestStore persists registration requests and their votes.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *model.RegistrationRequest) error
	Request(ctx context.Context, id string) (*model.RegistrationRequest, error)
	Requests(ctx context.Context, state model.RequestState) ([]*model.RegistrationRequest, error)
	// RecordVote appends the vote, re-tallies, resolves the request and, on approval,
	// creates the institution with id institutionID. All of it happens atomically.
	// A request that is no longer pending or a voter that already voted yields errs.ErrConflict.
	RecordVote(ctx context.Context, requestID string, vote model.Vote, resolve Resolver, institutionID string) (*model.RegistrationRequest, error)
}

// StudentStore persists students. (registration number, institution) is unique.
type StudentStore interface {
	CreateStudent(ctx context.Context, s *model.Student) error
	// Student returns the student with its certificates in issuance order.
	Student(ctx context.Context, id string) (*model.Student, error)
	StudentByRegistration(ctx context.Context, institutionID, registrationNumber string) (*model.Student, error)
	// SearchStudents matches the query case-insensitively against name, registration
	// number and branch. An empty institutionID searches across all institutions.
	SearchStudents(ctx context.Context, institutionID, query string) ([]*model.Student, error)
	// DeleteStudent removes the student and its revoked certificates; errs.ErrConflict
	// if it still holds an active certificate.
	DeleteStudent(ctx context.Context, id string) error
}

// CertificateStore persists certificates. Fingerprints are globally unique.
type CertificateStore interface {
	// AppendCertificate adds the certificate to the student and increments the
	// issuer's issued counter.
	AppendCertificate(ctx context.Context, studentID string, cert *model.Certificate) error
	CertificateByFingerprint(ctx context.Context, fingerprint string) (*model.Match, error)
	Certificate(ctx context.Context, id string) (*model.Match, error)
	// RevokeCertificate applies the patch only if the certificate is not revoked yet.
	RevokeCertificate(ctx context.Context, id string, patch model.RevocationPatch) (*model.Certificate, error)
}

// CompanyStore persists companies and their verification history.
type CompanyStore interface {
	CreateCompany(ctx context.Context, c *model.Company) error
	Company(ctx context.Context, id string) (*model.Company, error)
	// AppendVerified records a verification; a student appears at most once per company.
	AppendVerified(ctx context.Context, companyID string, entry model.VerifiedStudent) error
}

// Store is the full persistence contract of the registry.
type Store interface {
	InstitutionStore
	RequestStore
	StudentStore
	CertificateStore
	CompanyStore
	Close() error
}
