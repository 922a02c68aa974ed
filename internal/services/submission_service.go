package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"gorm.io/gorm"
)

// SubmissionService covers the store side of the pipeline: entry writes that
// create and fill draft submissions, plus the read surface. Status never
// changes here; every transition goes through the approval service.
type SubmissionService struct {
	repo         repository.SubmissionRepository
	categoryRepo repository.CategoryRepository
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(repo repository.SubmissionRepository, categoryRepo repository.CategoryRepository) *SubmissionService {
	return &SubmissionService{repo: repo, categoryRepo: categoryRepo}
}

func (s *SubmissionService) FindByID(ctx context.Context, id uint) (*models.Submission, error) {
	submission, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) List(ctx context.Context, query *repository.SubmissionQuery) ([]models.Submission, int64, error) {
	return s.repo.List(ctx, query)
}

// WriteEntries upserts entry values for the actor's own submission in the
// category, creating the draft on first write. Only draft and returned
// submissions are editable.
func (s *SubmissionService) WriteEntries(ctx context.Context, categoryID uint, actor Actor, values []models.SubmissionEntry) (*models.Submission, error) {
	if actor.OwnerType == "" || actor.OwnerID == nil {
		return nil, ErrUnauthorized
	}

	category, err := s.categoryRepo.FindByIDWithColumns(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if category.Status != models.CategoryStatusActive {
		return nil, NewValidationError("category is archived")
	}
	if !category.AppliesTo(actor.OwnerType) {
		return nil, ErrUnauthorized
	}

	known := make(map[uint]bool, len(category.Columns))
	for _, col := range category.Columns {
		known[col.ID] = true
	}
	for _, v := range values {
		if !known[v.ColumnID] {
			return nil, NewValidationError(fmt.Sprintf("unknown column %d", v.ColumnID))
		}
	}

	submission, err := s.repo.FindByOwner(ctx, categoryID, actor.OwnerType, *actor.OwnerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First write creates the draft.
		submission = &models.Submission{
			CategoryID: categoryID,
			OwnerType:  actor.OwnerType,
			OwnerID:    *actor.OwnerID,
			Status:     models.SubmissionStatusDraft,
		}
		if err := s.repo.Create(ctx, submission); err != nil {
			return nil, fmt.Errorf("failed to create submission: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	if submission.Status != models.SubmissionStatusDraft && submission.Status != models.SubmissionStatusReturned {
		return nil, NewValidationError(fmt.Sprintf("submission in state %q is not editable", submission.Status))
	}

	if err := s.repo.UpsertEntries(ctx, submission.ID, values); err != nil {
		return nil, fmt.Errorf("failed to write entries: %w", err)
	}

	return s.repo.FindByIDWithDetails(ctx, submission.ID)
}
