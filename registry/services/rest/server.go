/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/certificates"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/companies"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/governance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/issuance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/reconcile"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/verification"
	"github.com/gin-gonic/gin"
)

var logger = logging.MustGetLogger("registry.rest")

const (
	// HeaderInstitution carries the authenticated institution id set by the session layer.
	HeaderInstitution = "X-Institution-ID"
	// HeaderCompany carries the authenticated company id set by the session layer.
	HeaderCompany = "X-Company-ID"
	// HeaderAdminToken authorises administrative routes.
	HeaderAdminToken = "X-Admin-Token"

	callerKey = "caller"
)

type Config struct {
	MaxUploadBytes int64
	// AdminToken enables the administrative routes; empty disables them.
	AdminToken string
}

// Services are the operations exposed over HTTP.
type Services struct {
	Governance   *governance.Service
	Registry     *certificates.Registry
	Issuance     *issuance.Service
	Verification *verification.Service
	Companies    *companies.Service
	Reconcile    *reconcile.Service
}

type handlers struct {
	Services
	config Config
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// NewRouter mounts every route on a new gin engine. Extra handlers, such as
// the metrics endpoint, can be added by the caller.
func NewRouter(s Services, c Config) *gin.Engine {
	h := &handlers{Services: s, config: c}

	r := gin.New()
	r.MaxMultipartMemory = c.MaxUploadBytes
	r.Use(gin.Recovery(), accessLog())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")

	admin := v1.Group("/admin", h.requireAdmin)
	admin.POST("/institutions/seed", h.seed)
	admin.POST("/institutions/:id/suspend", h.suspend)
	admin.POST("/institutions/:id/reinstate", h.reinstate)

	v1.POST("/institutions/requests", h.submit)
	v1.GET("/institutions/requests", h.pending)
	v1.GET("/institutions/requests/:id", h.request)
	v1.GET("/institutions/:id", h.institution)

	inst := v1.Group("", requireCaller(HeaderInstitution))
	inst.POST("/institutions/requests/:id/votes", h.vote)
	inst.POST("/institutions/:id/reconcile", h.reconcile)
	inst.POST("/students", h.addStudent)
	inst.GET("/students", h.searchStudents)
	inst.GET("/students/:id", h.student)
	inst.DELETE("/students/:id", h.deleteStudent)
	inst.POST("/students/:id/certificates", h.limitBody, h.issue)
	inst.GET("/certificates/:id", h.certificate)
	inst.POST("/certificates/:id/revoke", h.revoke)
	inst.POST("/certificates/:id/replace", h.limitBody, h.replace)

	v1.POST("/verify", h.limitBody, h.verify)
	v1.GET("/verify/:fingerprint", h.verifyFingerprint)

	v1.POST("/companies", h.registerCompany)
	comp := v1.Group("/companies", requireCaller(HeaderCompany))
	comp.GET("/students", h.companySearch)
	comp.POST("/verified", h.markVerified)
	comp.GET("/verified", h.verified)

	return r
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// requireCaller reads the caller id from header and stores it in the context.
func requireCaller(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(header))
		if len(id) == 0 {
			abort(c, errs.Forbidden("missing %s header", header))
			return
		}
		c.Set(callerKey, id)
		c.Next()
	}
}

func caller(c *gin.Context) string { return c.GetString(callerKey) }

func (h *handlers) requireAdmin(c *gin.Context) {
	token := c.GetHeader(HeaderAdminToken)
	if len(h.config.AdminToken) == 0 || subtle.ConstantTimeCompare([]byte(token), []byte(h.config.AdminToken)) != 1 {
		abort(c, errs.Forbidden("administrative access denied"))
		return
	}
	c.Next()
}

func (h *handlers) limitBody(c *gin.Context) {
	if h.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)
	}
	c.Next()
}

// bind decodes the JSON body into v, aborting with a validation error on failure.
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abort(c, errs.Validation("malformed request body: %v", err))
		return false
	}
	return true
}
