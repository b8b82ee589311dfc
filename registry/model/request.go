/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
)

type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// ParseDecision accepts approve/reject and the boolean spellings used by clients.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "approve", "approved", "true", "yes":
		return Approve, nil
	case "reject", "rejected", "false", "no":
		return Reject, nil
	}
	return "", errs.Validation("invalid decision [%s]", s)
}

type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestApproved RequestState = "approved"
	RequestRejected RequestState = "rejected"
)

type Vote struct {
	VoterID  string    `json:"voterId" bson:"voterId"`
	Decision Decision  `json:"decision" bson:"decision"`
	CastAt   time.Time `json:"castAt" bson:"castAt"`
}

// RegistrationRequest is an institution's application for admission, decided by vote.
type RegistrationRequest struct {
	ID            string       `json:"id" bson:"_id"`
	Proposal      Proposal     `json:"proposal" bson:"proposal"`
	Votes         []Vote       `json:"votes" bson:"votes"`
	Approvals     int          `json:"approvals" bson:"approvals"`
	Rejections    int          `json:"rejections" bson:"rejections"`
	State         RequestState `json:"state" bson:"state"`
	InstitutionID string       `json:"institutionId,omitempty" bson:"institutionId"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	ResolvedAt    *time.Time   `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
}

func NewRegistrationRequest(id string, p Proposal, now time.Time) *RegistrationRequest {
	return &RegistrationRequest{
		ID:        id,
		Proposal:  p,
		Votes:     []Vote{},
		State:     RequestPending,
		CreatedAt: now,
	}
}

func (r *RegistrationRequest) HasVoted(voterID string) bool {
	for _, v := range r.Votes {
		if v.VoterID == voterID {
			return true
		}
	}
	return false
}

// Tally recomputes approvals and rejections from the recorded votes.
func (r *RegistrationRequest) Tally() {
	r.Approvals, r.Rejections = 0, 0
	for _, v := range r.Votes {
		if v.Decision == Approve {
			r.Approvals++
		} else {
			r.Rejections++
		}
	}
}
