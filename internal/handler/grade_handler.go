package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richwell-portal/registrar-api/internal/service"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
	"github.com/richwell-portal/registrar-api/pkg/response"
)

// GradeHandler exposes grade posting for professors.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Post godoc
// @Summary Post a grade for a subject attempt
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.PostGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Post(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PostGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	grade, err := h.grades.PostGrade(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}
