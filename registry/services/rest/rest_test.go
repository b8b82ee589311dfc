/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	sdk "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/sdk/dig"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/rest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-secret"

type client struct {
	t      *testing.T
	router *gin.Engine
}

func newClient(t *testing.T) *client {
	t.Helper()
	c, err := config.Load("")
	require.NoError(t, err)
	c.Metrics.Provider = "disabled"
	c.Server.AdminToken = adminToken
	c.Governance.BcryptCost = 4
	c.Companies.BcryptCost = 4
	c.Anchor.MinInterval = -1
	c.Anchor.RetryDelay = time.Millisecond

	s := sdk.NewSDK(c)
	require.NoError(t, s.Install())
	t.Cleanup(func() { _ = s.Close() })
	router, err := s.Router()
	require.NoError(t, err)
	return &client{t: t, router: router}
}

func (c *client) do(method, path string, headers map[string]string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case *multipartBody:
		r = httptest.NewRequest(method, path, &b.buf)
		r.Header.Set("Content-Type", b.contentType)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, r)
	return w
}

func (c *client) decode(w *httptest.ResponseRecorder, status int, v interface{}) {
	c.t.Helper()
	require.Equal(c.t, status, w.Code, w.Body.String())
	if v != nil {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), v))
	}
}

type multipartBody struct {
	buf         bytes.Buffer
	contentType string
}

func upload(t *testing.T, content string, fields map[string]string) *multipartBody {
	t.Helper()
	b := &multipartBody{}
	w := multipart.NewWriter(&b.buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("file", "degree.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	b.contentType = w.FormDataContentType()
	return b
}

type verifyResponse struct {
	Valid  bool `json:"valid"`
	Result struct {
		Matched          bool   `json:"matched"`
		Revoked          bool   `json:"revoked"`
		RevocationReason string `json:"revocationReason"`
	} `json:"result"`
}

func proposal(handle, addr string) map[string]string {
	return map[string]string{
		"legalName":      "Institute " + handle,
		"handle":         handle,
		"contactAddress": handle + "@example.org",
		"chainAddress":   addr,
		"credential":     "correct horse battery",
	}
}

func TestIssueAndVerify(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/api/v1/admin/institutions/seed", nil, proposal("alice", "0x00000000000000000000000000000000000a11ce"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var inst model.Institution
	c.decode(c.do(http.MethodPost, "/api/v1/admin/institutions/seed",
		map[string]string{rest.HeaderAdminToken: adminToken},
		proposal("alice", "0x00000000000000000000000000000000000a11ce")), http.StatusCreated, &inst)
	assert.Equal(t, model.InstitutionApproved, inst.State)
	as := map[string]string{rest.HeaderInstitution: inst.ID}

	w = c.do(http.MethodPost, "/api/v1/students", nil, model.StudentFields{FullName: "Ada"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var student model.Student
	c.decode(c.do(http.MethodPost, "/api/v1/students", as, model.StudentFields{
		FullName:           "Ada Lovelace",
		RegistrationNumber: "reg-001",
		AcademicYear:       "2024-2025",
		CurrentYear:        3,
		Branch:             "Mathematics",
	}), http.StatusCreated, &student)
	assert.Equal(t, "REG-001", student.RegistrationNumber)

	var cert model.Certificate
	c.decode(c.do(http.MethodPost, "/api/v1/students/"+student.ID+"/certificates", as,
		upload(t, "diploma", map[string]string{"name": "Degree"})), http.StatusCreated, &cert)
	assert.Equal(t, fingerprint.Fingerprint([]byte("diploma")), cert.Fingerprint)
	assert.True(t, cert.ChainConfirmed)

	w = c.do(http.MethodPost, "/api/v1/students/"+student.ID+"/certificates", as, upload(t, "diploma", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	var res verifyResponse
	c.decode(c.do(http.MethodPost, "/api/v1/verify", nil, upload(t, "diploma", map[string]string{"studentId": student.ID})), http.StatusOK, &res)
	assert.True(t, res.Valid)

	c.decode(c.do(http.MethodPost, "/api/v1/verify", nil, upload(t, "diplomb", nil)), http.StatusOK, &res)
	assert.False(t, res.Result.Matched)
	assert.False(t, res.Valid)

	w = c.do(http.MethodPost, "/api/v1/verify", nil, upload(t, "diploma", map[string]string{"studentId": "nobody"}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodGet, "/api/v1/verify/not-hex", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c.decode(c.do(http.MethodPost, "/api/v1/certificates/"+cert.ID+"/revoke", as, map[string]string{"reason": "superseded"}), http.StatusOK, nil)
	c.decode(c.do(http.MethodGet, "/api/v1/verify/"+cert.Fingerprint, nil, nil), http.StatusOK, &res)
	assert.True(t, res.Result.Matched)
	assert.True(t, res.Result.Revoked)
	assert.Equal(t, "superseded", res.Result.RevocationReason)
	assert.False(t, res.Valid)

	w = c.do(http.MethodPost, "/api/v1/certificates/"+cert.ID+"/revoke", as, map[string]string{"reason": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	var report struct {
		Scanned       int           `json:"scanned"`
		Discrepancies []interface{} `json:"discrepancies"`
	}
	c.decode(c.do(http.MethodPost, "/api/v1/institutions/"+inst.ID+"/reconcile", as, nil), http.StatusOK, &report)
	assert.Equal(t, 1, report.Scanned)
	assert.Empty(t, report.Discrepancies)

	w = c.do(http.MethodPost, "/api/v1/institutions/someone-else/reconcile", as, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c.decode(c.do(http.MethodDelete, "/api/v1/students/"+student.ID, as, nil), http.StatusNoContent, nil)
}

func TestGovernance(t *testing.T) {
	c := newClient(t)

	var seed model.Institution
	c.decode(c.do(http.MethodPost, "/api/v1/admin/institutions/seed",
		map[string]string{rest.HeaderAdminToken: adminToken},
		proposal("alice", "0x00000000000000000000000000000000000a11ce")), http.StatusCreated, &seed)

	var req model.RegistrationRequest
	c.decode(c.do(http.MethodPost, "/api/v1/institutions/requests", nil,
		proposal("bob", "0x0000000000000000000000000000000000000b0b")), http.StatusCreated, &req)
	assert.Equal(t, model.RequestPending, req.State)

	w := c.do(http.MethodPost, "/api/v1/institutions/requests", nil, proposal("bob", "0x0000000000000000000000000000000000000b0c"))
	assert.Equal(t, http.StatusConflict, w.Code)

	var pending []model.RegistrationRequest
	c.decode(c.do(http.MethodGet, "/api/v1/institutions/requests", nil, nil), http.StatusOK, &pending)
	assert.Len(t, pending, 1)

	w = c.do(http.MethodPost, "/api/v1/institutions/requests/"+req.ID+"/votes",
		map[string]string{rest.HeaderInstitution: "stranger"}, map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	c.decode(c.do(http.MethodPost, "/api/v1/institutions/requests/"+req.ID+"/votes",
		map[string]string{rest.HeaderInstitution: seed.ID}, map[string]string{"decision": "approve"}), http.StatusOK, &req)
	assert.Equal(t, model.RequestApproved, req.State)
	require.NotEmpty(t, req.InstitutionID)

	var bob model.Institution
	c.decode(c.do(http.MethodGet, "/api/v1/institutions/"+req.InstitutionID, nil, nil), http.StatusOK, &bob)
	assert.Equal(t, model.InstitutionApproved, bob.State)

	admin := map[string]string{rest.HeaderAdminToken: adminToken}
	c.decode(c.do(http.MethodPost, "/api/v1/admin/institutions/"+bob.ID+"/suspend", admin, nil), http.StatusNoContent, nil)
	w = c.do(http.MethodPost, "/api/v1/students", map[string]string{rest.HeaderInstitution: bob.ID}, model.StudentFields{
		FullName: "Grace Hopper", RegistrationNumber: "G-1", AcademicYear: "2024", CurrentYear: 1, Branch: "CS",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var grace model.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grace))
	w = c.do(http.MethodPost, "/api/v1/students/"+grace.ID+"/certificates", map[string]string{rest.HeaderInstitution: bob.ID}, upload(t, "grace", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	c.decode(c.do(http.MethodPost, "/api/v1/admin/institutions/"+bob.ID+"/reinstate", admin, nil), http.StatusNoContent, nil)
}

func TestCompanies(t *testing.T) {
	c := newClient(t)

	var inst model.Institution
	c.decode(c.do(http.MethodPost, "/api/v1/admin/institutions/seed",
		map[string]string{rest.HeaderAdminToken: adminToken},
		proposal("alice", "0x00000000000000000000000000000000000a11ce")), http.StatusCreated, &inst)
	var student model.Student
	c.decode(c.do(http.MethodPost, "/api/v1/students", map[string]string{rest.HeaderInstitution: inst.ID}, model.StudentFields{
		FullName: "Ada Lovelace", RegistrationNumber: "REG-001", AcademicYear: "2024", CurrentYear: 3, Branch: "Mathematics",
	}), http.StatusCreated, &student)

	var company model.Company
	c.decode(c.do(http.MethodPost, "/api/v1/companies", nil, map[string]string{
		"legalName": "Acme", "handle": "acme", "credential": "hunter22hunter",
	}), http.StatusCreated, &company)
	as := map[string]string{rest.HeaderCompany: company.ID}

	var found []model.Student
	c.decode(c.do(http.MethodGet, "/api/v1/companies/students?q=lovelace", as, nil), http.StatusOK, &found)
	require.Len(t, found, 1)
	assert.Equal(t, student.ID, found[0].ID)

	c.decode(c.do(http.MethodPost, "/api/v1/companies/verified", as, map[string]string{"studentId": student.ID}), http.StatusCreated, nil)
	w := c.do(http.MethodPost, "/api/v1/companies/verified", as, map[string]string{"studentId": student.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	var verified []model.VerifiedStudent
	c.decode(c.do(http.MethodGet, "/api/v1/companies/verified", as, nil), http.StatusOK, &verified)
	require.Len(t, verified, 1)
	assert.Equal(t, "REG-001", verified[0].RegistrationNumber)

	w = c.do(http.MethodGet, "/api/v1/companies/verified", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	c.decode(c.do(http.MethodGet, "/healthz", nil, nil), http.StatusOK, nil)
}
