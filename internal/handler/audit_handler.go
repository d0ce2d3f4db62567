package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richwell-portal/registrar-api/internal/service"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
	"github.com/richwell-portal/registrar-api/pkg/export"
	"github.com/richwell-portal/registrar-api/pkg/response"
)

// AuditHandler exposes the audit trail to registrar staff.
type AuditHandler struct {
	audit *service.AuditService
	csv   *export.CSVExporter
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *service.AuditService, csv *export.CSVExporter) *AuditHandler {
	return &AuditHandler{audit: audit, csv: csv}
}

// History godoc
// @Summary List recent audit entries for one entity
// @Tags Audit
// @Produce json
// @Param entity query string true "Entity name, e.g. enrollments"
// @Param entity_id query string true "Entity ID"
// @Param limit query int false "Max entries (default 50)"
// @Param format query string false "Set to csv for a CSV download"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) History(c *gin.Context) {
	entity := c.Query("entity")
	entityID := c.Query("entity_id")
	if entity == "" || entityID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "entity and entity_id are required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	trails, err := h.audit.History(c.Request.Context(), entity, entityID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("format") != "csv" {
		response.JSON(c, http.StatusOK, trails, nil)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"created_at", "action", "actor_id", "entity", "entity_id"},
		Rows:    make([]map[string]string, len(trails)),
	}
	for i, trail := range trails {
		row := map[string]string{
			"created_at": trail.CreatedAt.Format(time.RFC3339),
			"action":     trail.Action,
			"entity":     trail.Entity,
		}
		if trail.ActorID != nil {
			row["actor_id"] = *trail.ActorID
		}
		if trail.EntityID != nil {
			row["entity_id"] = *trail.EntityID
		}
		dataset.Rows[i] = row
	}

	body, err := h.csv.Render(dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=audit-%s-%s.csv", entity, entityID))
	c.Data(http.StatusOK, "text/csv", body)
}
