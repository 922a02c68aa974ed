package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/pkg/logger"
)

// CategoryRunResult is the per-category outcome of an auto-approval sweep
type CategoryRunResult struct {
	CategoryID      uint     `json:"category_id"`
	CategoryName    string   `json:"category_name"`
	Deadline        string   `json:"deadline"`
	ApprovedSchools int      `json:"approved_schools"`
	ApprovedSectors int      `json:"approved_sectors"`
	AlreadyHandled  int      `json:"already_handled"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors,omitempty"`
}

// RunSummary aggregates one auto-approval sweep
type RunSummary struct {
	StartedAt           time.Time           `json:"started_at"`
	FinishedAt          time.Time           `json:"finished_at"`
	CategoriesProcessed int                 `json:"categories_processed"`
	SubmissionsApproved int                 `json:"submissions_approved"`
	AlreadyHandled      int                 `json:"already_handled"`
	Failed              int                 `json:"failed"`
	Categories          []CategoryRunResult `json:"categories"`
}

// AutoApprovalService is the deadline scheduler: it sweeps categories whose
// deadline has passed and approves their remaining pending submissions as
// the system actor. It is triggered externally (cron or the admin endpoint),
// never self-scheduling, and a repeat run over the same categories is a
// no-op because no pending submissions remain.
type AutoApprovalService struct {
	categoryRepo repository.CategoryRepository
	repo         repository.SubmissionRepository
	approvalSvc  *ApprovalService
}

// NewAutoApprovalService creates a new deadline scheduler service
func NewAutoApprovalService(categoryRepo repository.CategoryRepository, repo repository.SubmissionRepository, approvalSvc *ApprovalService) *AutoApprovalService {
	return &AutoApprovalService{
		categoryRepo: categoryRepo,
		repo:         repo,
		approvalSvc:  approvalSvc,
	}
}

// Run performs one sweep. Failures on individual submissions or categories
// are recorded and never stop the pass: the job always makes maximal forward
// progress, and a fresh run picks up whatever failed.
func (s *AutoApprovalService) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{StartedAt: time.Now()}

	categories, err := s.categoryRepo.ListExpired(ctx, summary.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired categories: %w", err)
	}

	for _, category := range categories {
		result := s.sweepCategory(ctx, &category)
		summary.CategoriesProcessed++
		summary.SubmissionsApproved += result.ApprovedSchools + result.ApprovedSectors
		summary.AlreadyHandled += result.AlreadyHandled
		summary.Failed += result.Failed
		summary.Categories = append(summary.Categories, result)
	}

	summary.FinishedAt = time.Now()
	logger.Info("Auto-approval sweep finished",
		"categories", summary.CategoriesProcessed,
		"approved", summary.SubmissionsApproved,
		"already_handled", summary.AlreadyHandled,
		"failed", summary.Failed,
		"elapsed", summary.FinishedAt.Sub(summary.StartedAt))

	return summary, nil
}

func (s *AutoApprovalService) sweepCategory(ctx context.Context, category *models.Category) CategoryRunResult {
	result := CategoryRunResult{
		CategoryID:   category.ID,
		CategoryName: category.Name,
	}
	if category.Deadline != nil {
		result.Deadline = category.Deadline.Format(time.RFC3339)
	}

	note := fmt.Sprintf("Auto-approved: category %q deadline %s passed", category.Name, result.Deadline)

	pending, err := s.repo.ListPendingByCategory(ctx, category.ID)
	if err != nil {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("list pending: %v", err))
		logger.Error("Failed to list pending submissions",
			"category_id", category.ID, "error", err)
		return result
	}

	for _, submission := range pending {
		_, err := s.approvalSvc.AutoApprove(ctx, submission.ID, note)
		switch {
		case err == nil:
			if submission.OwnerType == models.OwnerTypeSector {
				result.ApprovedSectors++
			} else {
				result.ApprovedSchools++
			}
		case errors.Is(err, ErrConcurrentModification):
			// A human approved or rejected it between the listing and the
			// sweep reaching it. Already handled, nothing to do.
			result.AlreadyHandled++
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("submission %d: %v", submission.ID, err))
			logger.Warn("Auto-approval failed",
				"category_id", category.ID,
				"submission_id", submission.ID,
				"error", err)
		}
	}

	return result
}
