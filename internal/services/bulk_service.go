package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/edupulse/emis-api/internal/statemachine"
	"github.com/edupulse/emis-api/pkg/logger"
)

// BulkItem identifies one submission inside a bulk request
type BulkItem struct {
	SubmissionID uint   `json:"submission_id"`
	OwnerType    string `json:"owner_type"`
}

// BulkItemResult is the per-item outcome of a bulk operation
type BulkItemResult struct {
	SubmissionID uint   `json:"id"`
	Success      bool   `json:"success"`
	Conflict     bool   `json:"conflict,omitempty"` // already handled by another actor
	Error        string `json:"error,omitempty"`
}

// BulkSummary aggregates a bulk operation. Conflicts (submissions already
// handled by someone else) count towards failed but carry the conflict flag
// so clients can tell them apart.
type BulkSummary struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []BulkItemResult `json:"results"`
}

// BulkService applies approve/reject to a list of submissions with
// continue-on-error semantics: one item failing never aborts the rest, and
// partial progress is permanent.
type BulkService struct {
	approvalSvc *ApprovalService
}

// NewBulkService creates a new bulk coordinator
func NewBulkService(approvalSvc *ApprovalService) *BulkService {
	return &BulkService{approvalSvc: approvalSvc}
}

// BulkApply runs the action over every item independently. For reject, a
// single batch-level reason is required up front and applied to each item.
// Results are keyed by submission id so callers can reconcile regardless of
// processing order.
func (s *BulkService) BulkApply(ctx context.Context, action string, items []BulkItem, actor Actor, reason string) (*BulkSummary, error) {
	if action != statemachine.ActionApprove && action != statemachine.ActionReject {
		return nil, NewValidationError("action")
	}
	if action == statemachine.ActionReject && isBlank(reason) {
		return nil, NewValidationError("reason")
	}

	summary := &BulkSummary{
		Total:   len(items),
		Results: make([]BulkItemResult, 0, len(items)),
	}

	for _, item := range items {
		result := BulkItemResult{SubmissionID: item.SubmissionID}

		_, err := s.approvalSvc.ApplyForBulk(ctx, item.SubmissionID, action, actor, reason)
		switch {
		case err == nil:
			result.Success = true
			summary.Successful++
		case errors.Is(err, ErrConcurrentModification):
			// Another actor got there first. Flagged so callers can treat
			// it as already handled rather than retrying.
			result.Conflict = true
			result.Error = err.Error()
			summary.Failed++
		default:
			result.Error = err.Error()
			summary.Failed++
			logger.Warn("Bulk item failed",
				"action", action,
				"submission_id", item.SubmissionID,
				"error", err)
		}

		summary.Results = append(summary.Results, result)
	}

	logger.Info(fmt.Sprintf("Bulk %s finished", action),
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"actor_id", actor.ID)

	return summary, nil
}
