/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProposal(t *testing.T) {
	p, err := NewProposal(" Vellore Institute ", " VIT ", "Admin@VIT.ac.in", " 0xABCdef ")
	require.NoError(t, err)
	assert.Equal(t, "Vellore Institute", p.LegalName)
	assert.Equal(t, "vit", p.Handle)
	assert.Equal(t, "admin@vit.ac.in", p.ContactAddress)
	assert.Equal(t, "0xabcdef", p.ChainAddress)

	_, err = NewProposal("", "vit", "a@b", "0x1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	assert.Contains(t, err.Error(), "legal name")

	_, err = NewProposal("VIT", "vit", "not-an-address", "0x1")
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestNewStudent(t *testing.T) {
	now := time.Now()
	s, err := NewStudent("s1", StudentFields{
		FullName:           "Asha Rao",
		RegistrationNumber: " 21bce0001 ",
		AcademicYear:       "2021-2025",
		CurrentYear:        3,
		Branch:             "CSE",
	}, "inst1", now)
	require.NoError(t, err)
	assert.Equal(t, "21BCE0001", s.RegistrationNumber)
	assert.Empty(t, s.Certificates)

	_, err = NewStudent("s2", StudentFields{FullName: "A", RegistrationNumber: "x", AcademicYear: "y", Branch: "b"}, "inst1", now)
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = NewStudent("s3", StudentFields{FullName: "A", AcademicYear: "y", CurrentYear: 1, Branch: "b"}, "inst1", now)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	assert.Contains(t, err.Error(), "registration number")
}

func TestStudentMatches(t *testing.T) {
	s := &Student{FullName: "Asha Rao", RegistrationNumber: "21BCE0001", Branch: "Computer Science"}
	assert.True(t, s.Matches("asha"))
	assert.True(t, s.Matches("bce00"))
	assert.True(t, s.Matches("SCIENCE"))
	assert.True(t, s.Matches(""))
	assert.False(t, s.Matches("mech"))
}

func TestNewCertificate(t *testing.T) {
	data := CertificateData{
		Name:           "Degree",
		Fingerprint:    "ABCD",
		StorageLocator: "ipfs://bafy",
		FileName:       "degree.pdf",
		ByteSize:       42,
		ChainTxRef:     "0xtx",
		ChainBlockRef:  7,
	}
	c, err := NewCertificate("c1", data, "inst1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "abcd", c.Fingerprint)
	assert.True(t, c.ChainConfirmed)
	assert.False(t, c.Revocation.Revoked)

	for _, mutate := range []func(*CertificateData){
		func(d *CertificateData) { d.Name = " " },
		func(d *CertificateData) { d.Fingerprint = "" },
		func(d *CertificateData) { d.StorageLocator = "" },
		func(d *CertificateData) { d.FileName = "" },
		func(d *CertificateData) { d.ByteSize = 0 },
	} {
		d := data
		mutate(&d)
		_, err := NewCertificate("c2", d, "inst1", time.Now())
		assert.True(t, errors.Is(err, errs.ErrValidation))
	}
}

func TestRevocationPatch(t *testing.T) {
	_, err := NewRevocationPatch("  ", "0xtx", "", time.Now())
	assert.True(t, errors.Is(err, errs.ErrValidation))

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p, err := NewRevocationPatch("superseded", "0xtx", "ABC", at)
	require.NoError(t, err)
	r := p.Revocation()
	assert.True(t, r.Revoked)
	assert.Equal(t, "superseded", r.Reason)
	assert.Equal(t, at, *r.RevokedAt)
	assert.Equal(t, "abc", r.ReplacementFingerprint)
}

func TestRequestTally(t *testing.T) {
	r := NewRegistrationRequest("r1", Proposal{}, time.Now())
	r.Votes = append(r.Votes,
		Vote{VoterID: "a", Decision: Approve},
		Vote{VoterID: "b", Decision: Reject},
		Vote{VoterID: "c", Decision: Approve},
	)
	r.Tally()
	assert.Equal(t, 2, r.Approvals)
	assert.Equal(t, 1, r.Rejections)
	assert.True(t, r.HasVoted("b"))
	assert.False(t, r.HasVoted("d"))

	d, err := ParseDecision("true")
	require.NoError(t, err)
	assert.Equal(t, Approve, d)
	_, err = ParseDecision("maybe")
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestNewCompany(t *testing.T) {
	c, err := NewCompany("co1", "Acme", " ACME ", "hash", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "acme", c.Handle)
	_, err = NewCompany("co2", "Acme", "acme", "", time.Now())
	assert.True(t, errors.Is(err, errs.ErrValidation))
}
