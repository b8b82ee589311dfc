/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type companyRequest struct {
	LegalName  string `json:"legalName"`
	Handle     string `json:"handle"`
	Credential string `json:"credential"`
}

type markVerifiedRequest struct {
	StudentID string `json:"studentId"`
}

func (h *handlers) registerCompany(c *gin.Context) {
	var req companyRequest
	if !bind(c, &req) {
		return
	}
	company, err := h.Companies.Register(c.Request.Context(), req.LegalName, req.Handle, req.Credential)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *handlers) companySearch(c *gin.Context) {
	students, err := h.Companies.SearchStudents(c.Request.Context(), caller(c), c.Query("q"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *handlers) markVerified(c *gin.Context) {
	var req markVerifiedRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.Companies.MarkVerified(c.Request.Context(), caller(c), req.StudentID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *handlers) verified(c *gin.Context) {
	list, err := h.Companies.Verified(c.Request.Context(), caller(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
