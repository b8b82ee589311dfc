/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"
	"strconv"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/gin-gonic/gin"
)

type proposalRequest struct {
	LegalName      string `json:"legalName"`
	Handle         string `json:"handle"`
	ContactAddress string `json:"contactAddress"`
	ChainAddress   string `json:"chainAddress"`
	Credential     string `json:"credential"`
}

type voteRequest struct {
	Decision string `json:"decision"`
}

func (h *handlers) proposal(c *gin.Context) (model.Proposal, string, bool) {
	var req proposalRequest
	if !bind(c, &req) {
		return model.Proposal{}, "", false
	}
	p, err := model.NewProposal(req.LegalName, req.Handle, req.ContactAddress, req.ChainAddress)
	if err != nil {
		abort(c, err)
		return model.Proposal{}, "", false
	}
	return p, req.Credential, true
}

func (h *handlers) submit(c *gin.Context) {
	p, credential, ok := h.proposal(c)
	if !ok {
		return
	}
	req, err := h.Governance.Submit(c.Request.Context(), p, credential)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *handlers) seed(c *gin.Context) {
	p, credential, ok := h.proposal(c)
	if !ok {
		return
	}
	inst, err := h.Governance.Seed(c.Request.Context(), p, credential)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

func (h *handlers) pending(c *gin.Context) {
	reqs, err := h.Governance.Pending(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *handlers) request(c *gin.Context) {
	req, err := h.Governance.Request(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *handlers) vote(c *gin.Context) {
	var body voteRequest
	if !bind(c, &body) {
		return
	}
	d, err := model.ParseDecision(body.Decision)
	if err != nil {
		abort(c, err)
		return
	}
	req, err := h.Governance.Vote(c.Request.Context(), c.Param("id"), caller(c), d)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *handlers) institution(c *gin.Context) {
	inst, err := h.Governance.Institution(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (h *handlers) suspend(c *gin.Context) {
	if err := h.Governance.Suspend(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) reinstate(c *gin.Context) {
	if err := h.Governance.Reinstate(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// reconcile runs a scan of the caller's own ledger registrations.
func (h *handlers) reconcile(c *gin.Context) {
	id := c.Param("id")
	if id != caller(c) {
		abort(c, errs.Forbidden("institutions can only reconcile their own registrations"))
		return
	}
	repair, _ := strconv.ParseBool(c.Query("repair"))
	report, err := h.Reconcile.Run(c.Request.Context(), id, repair)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
