/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package governance

import "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"

const DefaultQuorumPercent = 70

// RequiredApprovals is ceil(percent * n / 100) in integer arithmetic.
func RequiredApprovals(n, percent int) int {
	return (percent*n + 99) / 100
}

// Quorum decides registration requests against the approved institutions counted at vote time.
type Quorum struct {
	Percent int
}

// Resolve never approves with no approved institutions.
func (q Quorum) Resolve(approvals, rejections, n int) model.RequestState {
	if n <= 0 {
		return model.RequestPending
	}
	required := RequiredApprovals(n, q.Percent)
	if approvals >= required {
		return model.RequestApproved
	}
	if rejections > n-required {
		return model.RequestRejected
	}
	return model.RequestPending
}
