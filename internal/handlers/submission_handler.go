package handlers

import (
	"net/http"
	"strconv"

	"github.com/edupulse/emis-api/internal/middleware"
	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
	approvalService   *services.ApprovalService
	bulkService       *services.BulkService
}

func NewSubmissionHandler(submissionSvc *services.SubmissionService, approvalSvc *services.ApprovalService, bulkSvc *services.BulkService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionSvc,
		approvalService:   approvalSvc,
		bulkService:       bulkSvc,
	}
}

// @Summary List Submissions
// @Description Get a paginated list of submissions
// @Tags Submissions
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param category_id query int false "Filter by category"
// @Param owner_type query string false "Filter by owner type (school, sector)"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /submissions [get]
func (h *SubmissionHandler) Index(c *gin.Context) {
	query := &repository.SubmissionQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)
	query.CategoryID = uint(categoryID)
	query.OwnerType = c.Query("owner_type")
	query.Status = c.Query("status")

	// Owner accounts only ever see their own submissions. Reviewer roles
	// keep the requested filters: a sector admin submits sector data but
	// still has to see the school submissions it reviews.
	actor := actorFromContext(c)
	if actor.OwnerID != nil && !middleware.IsReviewer(c) {
		query.OwnerType = actor.OwnerType
		query.OwnerID = *actor.OwnerID
	}

	submissions, total, err := h.submissionService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, s := range submissions {
		responses = append(responses, s.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"submissions": responses, "pagination": gin.H{"total": total}})
}

// @Summary Get Submission
// @Description Get a submission with its category, columns and entries
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} models.SubmissionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /submissions/{submission_id} [get]
func (h *SubmissionHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("submission_id"), 10, 32)
	submission, err := h.submissionService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": submission.ToResponse()})
}

type WriteEntriesRequest struct {
	Entries []models.SubmissionEntry `json:"entries" binding:"required"`
}

// @Summary Write Entries
// @Description Upsert entry values for a category; creates the draft submission on first write
// @Tags Submissions
// @Accept json
// @Produce json
// @Param category_id path int true "Category ID"
// @Param request body WriteEntriesRequest true "Entry Values"
// @Success 200 {object} models.SubmissionResponse
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories/{category_id}/entries [put]
func (h *SubmissionHandler) WriteEntries(c *gin.Context) {
	categoryID, _ := strconv.ParseUint(c.Param("category_id"), 10, 32)
	var req WriteEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.submissionService.WriteEntries(c.Request.Context(), uint(categoryID), actorFromContext(c), req.Entries)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission.ToResponse()})
}

// @Summary Submit Submission
// @Description Submit a draft or returned submission for review
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} models.SubmissionResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /submissions/{submission_id}/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("submission_id"), 10, 32)
	submission, err := h.approvalService.Submit(c.Request.Context(), uint(id), actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": submission.ToResponse()})
}

// @Summary Approve Submission
// @Description Approve a pending submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} models.SubmissionResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /submissions/{submission_id}/approve [post]
func (h *SubmissionHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("submission_id"), 10, 32)
	submission, err := h.approvalService.Approve(c.Request.Context(), uint(id), actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": submission.ToResponse()})
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject Submission
// @Description Reject a pending submission with a reason
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Param request body RejectRequest true "Rejection Reason"
// @Success 200 {object} models.SubmissionResponse
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /submissions/{submission_id}/reject [post]
func (h *SubmissionHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("submission_id"), 10, 32)
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.approvalService.Reject(c.Request.Context(), uint(id), actorFromContext(c), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": submission.ToResponse()})
}

type ReturnRequest struct {
	Notes string `json:"notes"`
}

// @Summary Return Submission
// @Description Return a pending submission to its owner for revision
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Param request body ReturnRequest true "Revision Notes"
// @Success 200 {object} models.SubmissionResponse
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /submissions/{submission_id}/return [post]
func (h *SubmissionHandler) Return(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("submission_id"), 10, 32)
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.approvalService.Return(c.Request.Context(), uint(id), actorFromContext(c), req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": submission.ToResponse()})
}

type BulkRequest struct {
	Action string              `json:"action" binding:"required"`
	Items  []services.BulkItem `json:"items" binding:"required"`
	Reason string              `json:"reason"`
}

// @Summary Bulk Approve or Reject
// @Description Apply approve or reject to a list of submissions; items fail independently
// @Tags Submissions
// @Accept json
// @Produce json
// @Param request body BulkRequest true "Bulk Operation"
// @Success 200 {object} services.BulkSummary
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /submissions/bulk [post]
func (h *SubmissionHandler) Bulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.bulkService.BulkApply(c.Request.Context(), req.Action, req.Items, actorFromContext(c), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
