package services

import (
	"context"
	"testing"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockWriteRepo struct {
	mockSubmissionRepo
	mockFindByOwner   func(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error)
	mockCreate        func(ctx context.Context, submission *models.Submission) error
	mockUpsertEntries func(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error
}

func (m *mockWriteRepo) FindByOwner(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error) {
	return m.mockFindByOwner(ctx, categoryID, ownerType, ownerID)
}

func (m *mockWriteRepo) Create(ctx context.Context, submission *models.Submission) error {
	return m.mockCreate(ctx, submission)
}

func (m *mockWriteRepo) UpsertEntries(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error {
	return m.mockUpsertEntries(ctx, submissionID, entries)
}

type mockCategoryColumnsRepo struct {
	mockCategoryRepo
	mockFindByIDWithColumns func(ctx context.Context, id uint) (*models.Category, error)
}

func (m *mockCategoryColumnsRepo) FindByIDWithColumns(ctx context.Context, id uint) (*models.Category, error) {
	return m.mockFindByIDWithColumns(ctx, id)
}

func activeCategory() *models.Category {
	return &models.Category{
		ID:          1,
		Name:        "Enrollment 2026",
		TargetScope: models.ScopeSchools,
		Status:      models.CategoryStatusActive,
		Columns: []models.CategoryColumn{
			{ID: 1, CategoryID: 1, Name: "total_students", Required: true},
			{ID: 2, CategoryID: 1, Name: "remarks"},
		},
	}
}

func TestSubmissionService_WriteEntries_CreatesDraftOnFirstWrite(t *testing.T) {
	catRepo := &mockCategoryColumnsRepo{}
	catRepo.mockFindByIDWithColumns = func(ctx context.Context, id uint) (*models.Category, error) {
		return activeCategory(), nil
	}

	repo := &mockWriteRepo{}
	repo.mockFindByOwner = func(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error) {
		return nil, gorm.ErrRecordNotFound
	}
	var created *models.Submission
	repo.mockCreate = func(ctx context.Context, submission *models.Submission) error {
		submission.ID = 10
		created = submission
		return nil
	}
	repo.mockUpsertEntries = func(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error {
		assert.Equal(t, uint(10), submissionID)
		return nil
	}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return created, nil
	}

	service := NewSubmissionService(repo, catRepo)
	submission, err := service.WriteEntries(context.Background(), 1, schoolActor(), []models.SubmissionEntry{{ColumnID: 1, Value: "420"}})

	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusDraft, submission.Status)
	assert.Equal(t, models.OwnerTypeSchool, submission.OwnerType)
	assert.Equal(t, uint(7), submission.OwnerID)
}

func TestSubmissionService_WriteEntries_RejectsUnknownColumn(t *testing.T) {
	catRepo := &mockCategoryColumnsRepo{}
	catRepo.mockFindByIDWithColumns = func(ctx context.Context, id uint) (*models.Category, error) {
		return activeCategory(), nil
	}

	service := NewSubmissionService(&mockWriteRepo{}, catRepo)
	_, err := service.WriteEntries(context.Background(), 1, schoolActor(), []models.SubmissionEntry{{ColumnID: 99, Value: "x"}})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSubmissionService_WriteEntries_PendingNotEditable(t *testing.T) {
	catRepo := &mockCategoryColumnsRepo{}
	catRepo.mockFindByIDWithColumns = func(ctx context.Context, id uint) (*models.Category, error) {
		return activeCategory(), nil
	}

	repo := &mockWriteRepo{}
	repo.mockFindByOwner = func(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error) {
		return &models.Submission{ID: 10, Status: models.SubmissionStatusPending}, nil
	}
	repo.mockUpsertEntries = func(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error {
		t.Fatal("entries must not be written while pending")
		return nil
	}

	service := NewSubmissionService(repo, catRepo)
	_, err := service.WriteEntries(context.Background(), 1, schoolActor(), []models.SubmissionEntry{{ColumnID: 1, Value: "7"}})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSubmissionService_WriteEntries_ReturnedIsEditable(t *testing.T) {
	catRepo := &mockCategoryColumnsRepo{}
	catRepo.mockFindByIDWithColumns = func(ctx context.Context, id uint) (*models.Category, error) {
		return activeCategory(), nil
	}

	returned := &models.Submission{ID: 10, Status: models.SubmissionStatusReturned}
	repo := &mockWriteRepo{}
	repo.mockFindByOwner = func(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error) {
		return returned, nil
	}
	upserted := false
	repo.mockUpsertEntries = func(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error {
		upserted = true
		return nil
	}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return returned, nil
	}

	service := NewSubmissionService(repo, catRepo)
	_, err := service.WriteEntries(context.Background(), 1, schoolActor(), []models.SubmissionEntry{{ColumnID: 1, Value: "7"}})

	assert.NoError(t, err)
	assert.True(t, upserted)
}

func TestSubmissionService_WriteEntries_ScopeMismatch(t *testing.T) {
	catRepo := &mockCategoryColumnsRepo{}
	catRepo.mockFindByIDWithColumns = func(ctx context.Context, id uint) (*models.Category, error) {
		category := activeCategory()
		category.TargetScope = models.ScopeSectors
		return category, nil
	}

	service := NewSubmissionService(&mockWriteRepo{}, catRepo)
	_, err := service.WriteEntries(context.Background(), 1, schoolActor(), nil)

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmissionService_WriteEntries_ReviewerHasNoOwner(t *testing.T) {
	service := NewSubmissionService(&mockWriteRepo{}, &mockCategoryColumnsRepo{})

	_, err := service.WriteEntries(context.Background(), 1, reviewerActor(), nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmissionService_WriteEntries_ArchivedCategory(t *testing.T) {
	catRepo := &mockCategoryColumnsRepo{}
	catRepo.mockFindByIDWithColumns = func(ctx context.Context, id uint) (*models.Category, error) {
		category := activeCategory()
		category.Status = models.CategoryStatusArchived
		return category, nil
	}

	service := NewSubmissionService(&mockWriteRepo{}, catRepo)
	_, err := service.WriteEntries(context.Background(), 1, schoolActor(), nil)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
