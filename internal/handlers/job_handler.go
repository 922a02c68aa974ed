package handlers

import (
	"net/http"

	"github.com/edupulse/emis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobService          *services.JobService
	autoApprovalService *services.AutoApprovalService
}

func NewJobHandler(jobSvc *services.JobService, autoApprovalSvc *services.AutoApprovalService) *JobHandler {
	return &JobHandler{
		jobService:          jobSvc,
		autoApprovalService: autoApprovalSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, completed, failed, queue length)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// TriggerAutoApproval runs a deadline sweep immediately instead of waiting
// for the scheduled pass.
// @Summary Trigger auto-approval sweep
// @Description Approve pending submissions in all categories whose deadline has passed
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.RunSummary
// @Router /jobs/auto_approval [post]
func (h *JobHandler) TriggerAutoApproval(c *gin.Context) {
	summary, err := h.autoApprovalService.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
