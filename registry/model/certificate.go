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

// CertificateData is what an issuer supplies when recording a certificate.
type CertificateData struct {
	Name             string `json:"name"`
	Fingerprint      string `json:"fingerprint"`
	StorageLocator   string `json:"storageLocator"`
	StorageContentID string `json:"storageContentId,omitempty"`
	FileName         string `json:"fileName"`
	ByteSize         int64  `json:"byteSize"`
	ChainTxRef       string `json:"chainTxRef,omitempty"`
	ChainBlockRef    uint64 `json:"chainBlockRef,omitempty"`
}

// Validate checks the required fields; fingerprint and content id formats are
// checked by the registry, which knows the configured algorithm.
func (d CertificateData) Validate() error {
	if err := requireFields(
		field{"name", d.Name},
		field{"fingerprint", d.Fingerprint},
		field{"storage locator", d.StorageLocator},
		field{"file name", d.FileName},
	); err != nil {
		return err
	}
	if d.ByteSize <= 0 {
		return errs.Validation("byte size must be positive, got [%d]", d.ByteSize)
	}
	return nil
}

type Revocation struct {
	Revoked                bool       `json:"revoked" bson:"revoked"`
	Reason                 string     `json:"reason,omitempty" bson:"reason"`
	RevokedAt              *time.Time `json:"revokedAt,omitempty" bson:"revokedAt,omitempty"`
	TxRef                  string     `json:"txRef,omitempty" bson:"txRef"`
	ReplacementFingerprint string     `json:"replacementFingerprint,omitempty" bson:"replacementFingerprint"`
}

type Certificate struct {
	ID               string     `json:"id" bson:"id"`
	Name             string     `json:"name" bson:"name"`
	Fingerprint      string     `json:"fingerprint" bson:"fingerprint"`
	StorageLocator   string     `json:"storageLocator" bson:"storageLocator"`
	StorageContentID string     `json:"storageContentId,omitempty" bson:"storageContentId"`
	FileName         string     `json:"fileName" bson:"fileName"`
	ByteSize         int64      `json:"byteSize" bson:"byteSize"`
	IssuerID         string     `json:"issuerId" bson:"issuerId"`
	IssuedAt         time.Time  `json:"issuedAt" bson:"issuedAt"`
	ChainTxRef       string     `json:"chainTxRef,omitempty" bson:"chainTxRef"`
	ChainBlockRef    uint64     `json:"chainBlockRef,omitempty" bson:"chainBlockRef"`
	ChainConfirmed   bool       `json:"chainConfirmed" bson:"chainConfirmed"`
	Revocation       Revocation `json:"revocation" bson:"revocation"`
}

func NewCertificate(id string, d CertificateData, issuerID string, issuedAt time.Time) (*Certificate, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.FileName = strings.TrimSpace(d.FileName)
	d.StorageLocator = strings.TrimSpace(d.StorageLocator)
	d.StorageContentID = strings.TrimSpace(d.StorageContentID)
	d.Fingerprint = strings.ToLower(strings.TrimSpace(d.Fingerprint))
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if len(issuerID) == 0 {
		return nil, errs.Validation("missing required fields: issuer")
	}
	return &Certificate{
		ID:               id,
		Name:             d.Name,
		Fingerprint:      d.Fingerprint,
		StorageLocator:   d.StorageLocator,
		StorageContentID: d.StorageContentID,
		FileName:         d.FileName,
		ByteSize:         d.ByteSize,
		IssuerID:         issuerID,
		IssuedAt:         issuedAt,
		ChainTxRef:       d.ChainTxRef,
		ChainBlockRef:    d.ChainBlockRef,
		ChainConfirmed:   len(d.ChainTxRef) != 0,
	}, nil
}

// RevocationPatch is the only mutation a certificate ever receives.
type RevocationPatch struct {
	Reason                 string
	RevokedAt              time.Time
	TxRef                  string
	ReplacementFingerprint string
}

func NewRevocationPatch(reason, txRef, replacementFingerprint string, at time.Time) (RevocationPatch, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) == 0 {
		return RevocationPatch{}, errs.Validation("revocation reason is required")
	}
	return RevocationPatch{
		Reason:                 reason,
		RevokedAt:              at,
		TxRef:                  txRef,
		ReplacementFingerprint: strings.ToLower(strings.TrimSpace(replacementFingerprint)),
	}, nil
}

func (p RevocationPatch) Revocation() Revocation {
	at := p.RevokedAt
	return Revocation{
		Revoked:                true,
		Reason:                 p.Reason,
		RevokedAt:              &at,
		TxRef:                  p.TxRef,
		ReplacementFingerprint: p.ReplacementFingerprint,
	}
}

// Match is the result of a fingerprint or id lookup: the owning student and the certificate.
type Match struct {
	Student     *Student
	Certificate *Certificate
}
