/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// verify hashes the uploaded file and checks it against the registry.
// An optional "studentId" form field scopes the lookup.
func (h *handlers) verify(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		abort(c, uploadError(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abort(c, errors.Wrapf(err, "failed opening upload [%s]", fh.Filename))
		return
	}
	defer f.Close()

	res, err := h.Verification.VerifyReader(c.Request.Context(), f, c.PostForm("studentId"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": res.Valid(), "result": res})
}

func (h *handlers) verifyFingerprint(c *gin.Context) {
	res, err := h.Verification.VerifyFingerprint(c.Request.Context(), c.Param("fingerprint"), c.Query("studentId"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": res.Valid(), "result": res})
}
