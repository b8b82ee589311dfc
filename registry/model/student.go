/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
)

// StudentFields are the caller-provided attributes of a student.
type StudentFields struct {
	FullName           string `json:"fullName"`
	RegistrationNumber string `json:"registrationNumber"`
	AcademicYear       string `json:"academicYear"`
	CurrentYear        int    `json:"currentYear"`
	Branch             string `json:"branch"`
	Specialization     string `json:"specialization,omitempty"`
}

type Student struct {
	ID                 string         `json:"id" bson:"_id"`
	FullName           string         `json:"fullName" bson:"fullName"`
	RegistrationNumber string         `json:"registrationNumber" bson:"registrationNumber"`
	AcademicYear       string         `json:"academicYear" bson:"academicYear"`
	CurrentYear        int            `json:"currentYear" bson:"currentYear"`
	Branch             string         `json:"branch" bson:"branch"`
	Specialization     string         `json:"specialization,omitempty" bson:"specialization"`
	InstitutionID      string         `json:"institutionId" bson:"institutionId"`
	Certificates       []*Certificate `json:"certificates" bson:"certificates"`
	CreatedAt          time.Time      `json:"createdAt" bson:"createdAt"`
}

// NormalizeRegistrationNumber returns the canonical (trimmed, upper case) form.
func NormalizeRegistrationNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func NewStudent(id string, f StudentFields, institutionID string, now time.Time) (*Student, error) {
	s := &Student{
		ID:                 id,
		FullName:           strings.TrimSpace(f.FullName),
		RegistrationNumber: NormalizeRegistrationNumber(f.RegistrationNumber),
		AcademicYear:       strings.TrimSpace(f.AcademicYear),
		CurrentYear:        f.CurrentYear,
		Branch:             strings.TrimSpace(f.Branch),
		Specialization:     strings.TrimSpace(f.Specialization),
		InstitutionID:      institutionID,
		Certificates:       []*Certificate{},
		CreatedAt:          now,
	}
	if err := requireFields(
		field{"full name", s.FullName},
		field{"registration number", s.RegistrationNumber},
		field{"academic year", s.AcademicYear},
		field{"branch", s.Branch},
		field{"institution", s.InstitutionID},
	); err != nil {
		return nil, err
	}
	if s.CurrentYear <= 0 {
		return nil, errs.Validation("current year must be positive, got [%d]", s.CurrentYear)
	}
	return s, nil
}

// ActiveCertificates counts the certificates that were not revoked.
func (s *Student) ActiveCertificates() int {
	n := 0
	for _, c := range s.Certificates {
		if !c.Revocation.Revoked {
			n++
		}
	}
	return n
}

// Matches reports whether the lower-cased query is a substring of the name,
// registration number or branch.
func (s *Student) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) == 0 {
		return true
	}
	return strings.Contains(strings.ToLower(s.FullName), q) ||
		strings.Contains(strings.ToLower(s.RegistrationNumber), q) ||
		strings.Contains(strings.ToLower(s.Branch), q)
}
