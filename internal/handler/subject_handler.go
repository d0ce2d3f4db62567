package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/internal/service"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
	"github.com/richwell-portal/registrar-api/pkg/response"
)

type prereqLister interface {
	ListPrerequisites(ctx context.Context, subjectID string) ([]models.Subject, error)
}

// SubjectHandler exposes catalog lookups around subjects and their
// prerequisite chains.
type SubjectHandler struct {
	subjects prereqLister
	prereqs  *service.PrereqService
	students *service.StudentService
}

// NewSubjectHandler constructs SubjectHandler.
func NewSubjectHandler(subjects prereqLister, prereqs *service.PrereqService, students *service.StudentService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, prereqs: prereqs, students: students}
}

// Prerequisites godoc
// @Summary List the direct prerequisites of a subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/prerequisites [get]
func (h *SubjectHandler) Prerequisites(c *gin.Context) {
	prereqs, err := h.subjects.ListPrerequisites(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prereqs, nil)
}

// Eligibility godoc
// @Summary Evaluate the student's prerequisite standing for one subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/eligibility [get]
func (h *SubjectHandler) Eligibility(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.ForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.prereqs.Check(c.Request.Context(), student, c.Param("id"), nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
