/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"io"
	"net/http"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/issuance"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type matchResponse struct {
	Student     *model.Student     `json:"student"`
	Certificate *model.Certificate `json:"certificate"`
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

func (h *handlers) addStudent(c *gin.Context) {
	var f model.StudentFields
	if !bind(c, &f) {
		return
	}
	s, err := h.Registry.AddStudent(c.Request.Context(), f, caller(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handlers) searchStudents(c *gin.Context) {
	students, err := h.Registry.SearchStudents(c.Request.Context(), caller(c), c.Query("q"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *handlers) student(c *gin.Context) {
	s, err := h.Registry.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	if s.InstitutionID != caller(c) {
		abort(c, errs.Forbidden("student [%s] does not belong to the caller", s.ID))
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) deleteStudent(c *gin.Context) {
	if err := h.Registry.DeleteStudent(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) issue(c *gin.Context) {
	u, ok := readUpload(c)
	if !ok {
		return
	}
	cert, err := h.Issuance.Issue(c.Request.Context(), caller(c), c.Param("id"), u)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

func (h *handlers) certificate(c *gin.Context) {
	m, err := h.Registry.Certificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	if m.Student.InstitutionID != caller(c) {
		abort(c, errs.Forbidden("certificate [%s] does not belong to the caller", m.Certificate.ID))
		return
	}
	c.JSON(http.StatusOK, matchResponse{Student: m.Student, Certificate: m.Certificate})
}

func (h *handlers) revoke(c *gin.Context) {
	var req revokeRequest
	if !bind(c, &req) {
		return
	}
	cert, err := h.Issuance.Revoke(c.Request.Context(), caller(c), c.Param("id"), req.Reason)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

func (h *handlers) replace(c *gin.Context) {
	u, ok := readUpload(c)
	if !ok {
		return
	}
	cert, err := h.Issuance.Replace(c.Request.Context(), caller(c), c.Param("id"), c.PostForm("reason"), u)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

// readUpload reads the multipart "file" field together with its optional
// "name" and "storageLocator" fields.
func readUpload(c *gin.Context) (issuance.Upload, bool) {
	content, fileName, mimeType, err := formFile(c)
	if err != nil {
		abort(c, err)
		return issuance.Upload{}, false
	}
	name := c.PostForm("name")
	if len(name) == 0 {
		name = fileName
	}
	return issuance.Upload{
		Name:           name,
		FileName:       fileName,
		MimeType:       mimeType,
		Content:        content,
		StorageLocator: c.PostForm("storageLocator"),
	}, true
}

func formFile(c *gin.Context) ([]byte, string, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", "", uploadError(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", "", errors.Wrapf(err, "failed opening upload [%s]", fh.Filename)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", "", uploadError(err)
	}
	return content, fh.Filename, fh.Header.Get("Content-Type"), nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.Validation("file exceeds the upload limit of %d bytes", tooLarge.Limit)
	}
	if errors.Is(err, http.ErrMissingFile) {
		return errs.Validation("missing file")
	}
	return errs.Wrapf(errs.KindValidation, err, "malformed upload")
}
