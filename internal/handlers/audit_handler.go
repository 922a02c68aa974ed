package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Records
// @Description Get a paginated, filterable view of the audit trail, newest first
// @Tags Audit
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Param action query string false "Filter by action (SUBMIT, APPROVE, REJECT, RETURN, AUTO_APPROVE)"
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query int false "Filter by entity ID"
// @Param actor_id query int false "Filter by actor"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := &repository.AuditQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "50"))
	query.Action = c.Query("action")
	query.EntityType = c.Query("entity_type")
	entityID, _ := strconv.ParseUint(c.Query("entity_id"), 10, 32)
	query.EntityID = uint(entityID)
	actorID, _ := strconv.ParseUint(c.Query("actor_id"), 10, 32)
	query.ActorID = uint(actorID)
	query.DateFrom = parseDate(c.Query("date_from"))
	query.DateTo = parseDate(c.Query("date_to"))

	records, total, err := h.auditService.Query(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": records,
		"pagination": gin.H{
			"total":    total,
			"page":     query.Page,
			"per_page": query.PerPage,
		},
	})
}

// @Summary Audit Statistics
// @Description Get aggregate counts of the audit trail by day, action and entity type
// @Tags Audit
// @Accept json
// @Produce json
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} repository.AuditStats
// @Security BearerAuth
// @Router /audits/stats [get]
func (h *AuditHandler) Stats(c *gin.Context) {
	stats, err := h.auditService.Stats(c.Request.Context(), parseDate(c.Query("date_from")), parseDate(c.Query("date_to")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
