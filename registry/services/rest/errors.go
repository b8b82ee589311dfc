/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/anchor"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/issuance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	// TxRef is set when a ledger transaction was confirmed even though the request failed.
	TxRef string `json:"txRef,omitempty"`
}

var kindStatus = map[errs.Kind]int{
	errs.KindValidation: http.StatusBadRequest,
	errs.KindConflict:   http.StatusConflict,
	errs.KindForbidden:  http.StatusForbidden,
	errs.KindNotFound:   http.StatusNotFound,
	errs.KindIntegrity:  http.StatusUnprocessableEntity,
}

// statusOf maps err to an HTTP status and the body shown to the caller.
// Internal causes are never echoed back.
func statusOf(err error) (int, errorResponse) {
	var orphaned *issuance.OrphanedAnchorError
	if errors.As(err, &orphaned) {
		return http.StatusInternalServerError, errorResponse{
			Error: "ledger operation confirmed but not recorded, reconciliation required",
			Kind:  "orphaned_anchor",
			TxRef: orphaned.Receipt.TxRef,
		}
	}
	var partial *anchor.PartialReplaceError
	if errors.As(err, &partial) {
		return http.StatusBadGateway, errorResponse{
			Error: "certificate revoked but replacement was not registered",
			Kind:  "partial_replace",
			TxRef: partial.Revocation.TxRef,
		}
	}
	if kind := errs.KindOf(err); kind != errs.KindInternal {
		return kindStatus[kind], errorResponse{Error: errs.Message(err), Kind: kind.String()}
	}
	var le *driver.LedgerError
	if errors.As(err, &le) {
		status := http.StatusBadGateway
		if le.Retryable() {
			status = http.StatusServiceUnavailable
		}
		return status, errorResponse{Error: le.Summary(), Kind: "ledger_" + le.Class.String()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: errs.KindInternal.String()}
}

func abort(c *gin.Context, err error) {
	status, body := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s failed: %+v", c.Request.Method, c.FullPath(), err)
	} else {
		logger.Debugf("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, body)
}
