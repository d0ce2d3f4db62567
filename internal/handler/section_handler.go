package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/internal/service"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
	"github.com/richwell-portal/registrar-api/pkg/export"
	"github.com/richwell-portal/registrar-api/pkg/response"
)

// SectionHandler exposes registrar section management.
type SectionHandler struct {
	sections *service.SectionService
	csv      *export.CSVExporter
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections *service.SectionService, csv *export.CSVExporter) *SectionHandler {
	return &SectionHandler{sections: sections, csv: csv}
}

// List godoc
// @Summary List sections scheduled in a term
// @Tags Sections
// @Produce json
// @Param term_id query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	termID := c.Query("term_id")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id is required"))
		return
	}

	sections, err := h.sections.ListByTerm(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// ClassList godoc
// @Summary Download a section's class list as CSV
// @Tags Sections
// @Produce text/csv
// @Param id path string true "Section ID"
// @Success 200 {string} string "CSV class list"
// @Router /sections/{id}/class-list [get]
func (h *SectionHandler) ClassList(c *gin.Context) {
	section, roster, err := h.sections.ClassList(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"student_no", "last_name", "first_name", "subject_code"},
		Rows:    make([]map[string]string, len(roster)),
	}
	for i, row := range roster {
		dataset.Rows[i] = map[string]string{
			"student_no":   row.StudentNo,
			"last_name":    row.LastName,
			"first_name":   row.FirstName,
			"subject_code": row.SubjectCode,
		}
	}

	body, err := h.csv.Render(dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=class-list-%s.csv", section.Code))
	c.Data(http.StatusOK, "text/csv", body)
}

type setSectionStatusRequest struct {
	Status models.SectionStatus `json:"status" binding:"required"`
}

// SetStatus godoc
// @Summary Set a section's registration status
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body setSectionStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/status [patch]
func (h *SectionHandler) SetStatus(c *gin.Context) {
	var req setSectionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	section, err := h.sections.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}
