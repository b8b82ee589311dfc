/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"strings"
	"time"
)

// VerifiedStudent is a snapshot of a student taken when a company verified them.
type VerifiedStudent struct {
	StudentID          string    `json:"studentId" bson:"studentId"`
	FullName           string    `json:"fullName" bson:"fullName"`
	RegistrationNumber string    `json:"registrationNumber" bson:"registrationNumber"`
	Branch             string    `json:"branch" bson:"branch"`
	InstitutionID      string    `json:"institutionId" bson:"institutionId"`
	VerifiedAt         time.Time `json:"verifiedAt" bson:"verifiedAt"`
}

type Company struct {
	ID               string            `json:"id" bson:"_id"`
	LegalName        string            `json:"legalName" bson:"legalName"`
	Handle           string            `json:"handle" bson:"handle"`
	CredentialHash   string            `json:"-" bson:"credentialHash"`
	VerifiedStudents []VerifiedStudent `json:"verifiedStudents" bson:"verifiedStudents"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
}

func NewCompany(id, legalName, handle, credentialHash string, now time.Time) (*Company, error) {
	c := &Company{
		ID:               id,
		LegalName:        strings.TrimSpace(legalName),
		Handle:           strings.ToLower(strings.TrimSpace(handle)),
		CredentialHash:   credentialHash,
		VerifiedStudents: []VerifiedStudent{},
		CreatedAt:        now,
	}
	if err := requireFields(
		field{"legal name", c.LegalName},
		field{"handle", c.Handle},
		field{"credential", c.CredentialHash},
	); err != nil {
		return nil, err
	}
	return c, nil
}

func SnapshotStudent(s *Student, at time.Time) VerifiedStudent {
	return VerifiedStudent{
		StudentID:          s.ID,
		FullName:           s.FullName,
		RegistrationNumber: s.RegistrationNumber,
		Branch:             s.Branch,
		InstitutionID:      s.InstitutionID,
		VerifiedAt:         at,
	}
}
