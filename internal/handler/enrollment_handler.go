package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/internal/service"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
	"github.com/richwell-portal/registrar-api/pkg/export"
	"github.com/richwell-portal/registrar-api/pkg/response"
)

type accountReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ConfirmEnrollmentRequest is the subject selection submitted for commit.
type ConfirmEnrollmentRequest struct {
	SubjectIDs []string `json:"subject_ids" binding:"required,min=1"`
}

// EnrollmentHandler exposes the student enrollment flow: eligibility, the
// availability plan, confirmation, and the resulting registration record.
type EnrollmentHandler struct {
	students     *service.StudentService
	terms        *service.TermService
	enrollments  *service.EnrollmentService
	availability *service.AvailabilityService
	metrics      *service.MetricsService
	users        accountReader
	cor          *export.CORExporter
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(
	students *service.StudentService,
	terms *service.TermService,
	enrollments *service.EnrollmentService,
	availability *service.AvailabilityService,
	metrics *service.MetricsService,
	users accountReader,
	cor *export.CORExporter,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		students:     students,
		terms:        terms,
		enrollments:  enrollments,
		availability: availability,
		metrics:      metrics,
		users:        users,
		cor:          cor,
	}
}

func (h *EnrollmentHandler) studentAndTerm(c *gin.Context) (*models.StudentDetail, *models.Term, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, nil, false
	}
	student, err := h.students.ForEnrollment(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}
	term, err := h.terms.ActiveForStudent(c.Request.Context(), student)
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}
	return student, term, true
}

// Eligibility godoc
// @Summary Check whether the student may open an enrollment this term
// @Tags Enrollment
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollment/eligibility [get]
func (h *EnrollmentHandler) Eligibility(c *gin.Context) {
	student, term, ok := h.studentAndTerm(c)
	if !ok {
		return
	}

	decision, err := h.enrollments.CanEnroll(c.Request.Context(), student, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !decision.Allowed {
		h.metrics.RecordGateRejection(decision.Reason)
	}

	response.JSON(c, http.StatusOK, gin.H{
		"term":     term,
		"decision": decision,
	}, nil)
}

// Subjects godoc
// @Summary List the availability plan for the active term
// @Tags Enrollment
// @Produce json
// @Param include_incomplete_path query bool false "Preview next year's first term when carrying an INC"
// @Success 200 {object} response.Envelope
// @Router /enrollment/subjects [get]
func (h *EnrollmentHandler) Subjects(c *gin.Context) {
	student, term, ok := h.studentAndTerm(c)
	if !ok {
		return
	}
	includeIncomplete, _ := strconv.ParseBool(c.DefaultQuery("include_incomplete_path", "false"))

	plan, err := h.availability.ListAvailableSubjects(c.Request.Context(), student, term, includeIncomplete)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Confirm godoc
// @Summary Confirm the subject selection for the active term
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body ConfirmEnrollmentRequest true "Selected subject IDs"
// @Success 201 {object} response.Envelope
// @Router /enrollment/confirm [post]
func (h *EnrollmentHandler) Confirm(c *gin.Context) {
	student, term, ok := h.studentAndTerm(c)
	if !ok {
		return
	}

	var req ConfirmEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	decision, err := h.enrollments.CanEnroll(c.Request.Context(), student, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !decision.Allowed {
		h.metrics.RecordGateRejection(decision.Reason)
		response.Error(c, appErrors.WithDetails(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("enrollment blocked: %s", decision.Reason), decision))
		return
	}

	enrollment, err := h.enrollments.Confirm(c.Request.Context(), student, term, req.SubjectIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordConfirm()
	response.Created(c, enrollment)
}

// Me godoc
// @Summary View the student's enrollment for the active term
// @Tags Enrollment
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollment/me [get]
func (h *EnrollmentHandler) Me(c *gin.Context) {
	student, term, ok := h.studentAndTerm(c)
	if !ok {
		return
	}

	enrollment, attempts, err := h.enrollments.MyEnrollment(c.Request.Context(), student, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"enrollment": enrollment,
		"subjects":   attempts,
	}, nil)
}

// CertificateOfRegistration godoc
// @Summary Download the certificate of registration as PDF
// @Tags Enrollment
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /enrollment/me/cor [get]
func (h *EnrollmentHandler) CertificateOfRegistration(c *gin.Context) {
	student, term, ok := h.studentAndTerm(c)
	if !ok {
		return
	}

	_, attempts, err := h.enrollments.MyEnrollment(c.Request.Context(), student, term)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), student.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	doc := export.CORDocument{
		StudentNo:   student.StudentNo,
		StudentName: fmt.Sprintf("%s, %s", user.LastName, user.FirstName),
		ProgramName: student.ProgramName,
		TermName:    term.Name,
	}
	for _, attempt := range attempts {
		line := export.CORLine{
			Code:  attempt.SubjectCode,
			Title: attempt.SubjectTitle,
			Units: attempt.Units,
		}
		if attempt.SectionCode != nil {
			line.Section = *attempt.SectionCode
		}
		doc.Lines = append(doc.Lines, line)
		doc.TotalUnits += attempt.Units
	}

	pdf, err := h.cor.Render(doc)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("cor-%s.pdf", student.StudentNo)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
