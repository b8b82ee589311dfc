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

type InstitutionState string

const (
	InstitutionPending   InstitutionState = "pending"
	InstitutionApproved  InstitutionState = "approved"
	InstitutionRejected  InstitutionState = "rejected"
	InstitutionSuspended InstitutionState = "suspended"
)

// Institution is an organization allowed, once approved, to issue certificates and vote.
type Institution struct {
	ID                 string           `json:"id" bson:"_id"`
	LegalName          string           `json:"legalName" bson:"legalName"`
	Handle             string           `json:"handle" bson:"handle"`
	ContactAddress     string           `json:"contactAddress" bson:"contactAddress"`
	ChainAddress       string           `json:"chainAddress" bson:"chainAddress"`
	State              InstitutionState `json:"state" bson:"state"`
	CredentialHash     string           `json:"-" bson:"credentialHash"`
	CertificatesIssued int              `json:"certificatesIssued" bson:"certificatesIssued"`
	CreatedAt          time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// CanIssue is true only for approved institutions; suspension freezes issuance and voting.
func (i *Institution) CanIssue() bool { return i != nil && i.State == InstitutionApproved }

// Proposal carries the fields of an institution asking to be admitted.
// CredentialHash is already hashed by the time a proposal is persisted.
type Proposal struct {
	LegalName      string `json:"legalName" bson:"legalName"`
	Handle         string `json:"handle" bson:"handle"`
	ContactAddress string `json:"contactAddress" bson:"contactAddress"`
	ChainAddress   string `json:"chainAddress" bson:"chainAddress"`
	CredentialHash string `json:"-" bson:"credentialHash"`
}

// NewProposal validates and normalises the identifying fields of a proposal.
func NewProposal(legalName, handle, contactAddress, chainAddress string) (Proposal, error) {
	p := Proposal{
		LegalName:      strings.TrimSpace(legalName),
		Handle:         strings.ToLower(strings.TrimSpace(handle)),
		ContactAddress: strings.ToLower(strings.TrimSpace(contactAddress)),
		ChainAddress:   NormalizeChainAddress(chainAddress),
	}
	if err := requireFields(
		field{"legal name", p.LegalName},
		field{"handle", p.Handle},
		field{"contact address", p.ContactAddress},
		field{"chain address", p.ChainAddress},
	); err != nil {
		return Proposal{}, err
	}
	if !strings.Contains(p.ContactAddress, "@") {
		return Proposal{}, errs.Validation("invalid contact address [%s]", p.ContactAddress)
	}
	return p, nil
}

// Institution materialises the proposal as an institution in the given state.
func (p Proposal) Institution(id string, state InstitutionState, now time.Time) *Institution {
	return &Institution{
		ID:             id,
		LegalName:      p.LegalName,
		Handle:         p.Handle,
		ContactAddress: p.ContactAddress,
		ChainAddress:   p.ChainAddress,
		State:          state,
		CredentialHash: p.CredentialHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NormalizeChainAddress lower-cases and trims a ledger address.
func NormalizeChainAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if len(strings.TrimSpace(f.value)) == 0 {
			missing = append(missing, f.name)
		}
	}
	if len(missing) != 0 {
		return errs.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
