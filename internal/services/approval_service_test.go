package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockSubmissionRepo struct {
	repository.SubmissionRepository
	mockFindByIDWithDetails   func(ctx context.Context, id uint) (*models.Submission, error)
	mockTransition            func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error)
	mockListPendingByCategory func(ctx context.Context, categoryID uint) ([]models.Submission, error)
}

func (m *mockSubmissionRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockSubmissionRepo) Transition(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
	return m.mockTransition(ctx, id, expectedStatus, updates, record)
}

func (m *mockSubmissionRepo) ListPendingByCategory(ctx context.Context, categoryID uint) ([]models.Submission, error) {
	return m.mockListPendingByCategory(ctx, categoryID)
}

func ownerID(id uint) *uint {
	return &id
}

// draftSubmission builds a school submission with a two-column category
// template (one required) and a filled required entry.
func draftSubmission(status string) *models.Submission {
	return &models.Submission{
		ID:         10,
		CategoryID: 1,
		OwnerType:  models.OwnerTypeSchool,
		OwnerID:    7,
		Status:     status,
		Category: models.Category{
			ID:   1,
			Name: "Enrollment 2026",
			Columns: []models.CategoryColumn{
				{ID: 1, CategoryID: 1, Name: "total_students", Required: true},
				{ID: 2, CategoryID: 1, Name: "remarks"},
			},
		},
		Entries: []models.SubmissionEntry{
			{SubmissionID: 10, ColumnID: 1, Value: "420"},
		},
	}
}

func schoolActor() Actor {
	return Actor{ID: 3, Role: models.RoleSchool, OwnerType: models.OwnerTypeSchool, OwnerID: ownerID(7)}
}

func reviewerActor() Actor {
	return Actor{ID: 5, Role: models.RoleSectorAdmin}
}

func TestApprovalService_Submit(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusDraft), nil
	}

	var gotExpected string
	var gotUpdates map[string]any
	var gotRecord *models.AuditRecord
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		gotExpected = expectedStatus
		gotUpdates = updates
		gotRecord = record
		return true, nil
	}

	submission, err := service.Submit(context.Background(), 10, schoolActor())

	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)
	assert.Equal(t, models.SubmissionStatusDraft, gotExpected)
	assert.Equal(t, models.SubmissionStatusPending, gotUpdates["status"])
	assert.Nil(t, gotUpdates["return_notes"])

	assert.Equal(t, models.AuditActionSubmit, gotRecord.Action)
	assert.Equal(t, models.AuditEntitySubmission, gotRecord.EntityType)
	assert.Equal(t, uint(10), gotRecord.EntityID)
	assert.Equal(t, uint(3), *gotRecord.ActorID)

	var oldValue, newValue models.SubmissionSnapshot
	assert.NoError(t, json.Unmarshal(gotRecord.OldValue, &oldValue))
	assert.NoError(t, json.Unmarshal(gotRecord.NewValue, &newValue))
	assert.Equal(t, models.SubmissionStatusDraft, oldValue.Status)
	assert.Equal(t, models.SubmissionStatusPending, newValue.Status)
}

func TestApprovalService_Submit_MissingRequiredColumn(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	submission := draftSubmission(models.SubmissionStatusDraft)
	submission.Entries = nil
	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return submission, nil
	}
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		t.Fatal("nothing should be written when validation fails")
		return false, nil
	}

	_, err := service.Submit(context.Background(), 10, schoolActor())

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "total_students")
}

func TestApprovalService_Submit_WrongOwner(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusDraft), nil
	}

	actor := schoolActor()
	actor.OwnerID = ownerID(99) // a different school

	_, err := service.Submit(context.Background(), 10, actor)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestApprovalService_Approve_ConcurrentModification(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		// Another reviewer moved the submission off pending first.
		return false, nil
	}

	_, err := service.Approve(context.Background(), 10, reviewerActor())
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestApprovalService_Approve_SetsApprovedAt(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}

	var gotUpdates map[string]any
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		gotUpdates = updates
		return true, nil
	}

	submission, err := service.Approve(context.Background(), 10, reviewerActor())

	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, submission.Status)
	assert.NotNil(t, submission.ApprovedAt)
	assert.IsType(t, time.Time{}, gotUpdates["approved_at"])
}

func TestApprovalService_Approve_IllegalFromDraft(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusDraft), nil
	}

	_, err := service.Approve(context.Background(), 10, reviewerActor())

	var transitionErr *statemachine.IllegalTransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.SubmissionStatusDraft, transitionErr.State)
}

func TestApprovalService_Approve_PermissionDenied(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}

	// Schools never review.
	_, err := service.Approve(context.Background(), 10, schoolActor())

	var permissionErr *PermissionError
	assert.ErrorAs(t, err, &permissionErr)
	assert.Equal(t, models.RoleSchool, permissionErr.Role)
}

func TestApprovalService_Reject_BlankReason(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}

	_, err := service.Reject(context.Background(), 10, reviewerActor(), "   ")

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"reason"}, validationErr.Fields)
}

func TestApprovalService_Return_BlankNotes(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}

	_, err := service.Return(context.Background(), 10, reviewerActor(), "")

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"notes"}, validationErr.Fields)
}

func TestApprovalService_Reject_StoresReason(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}

	var gotUpdates map[string]any
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		gotUpdates = updates
		return true, nil
	}

	submission, err := service.Reject(context.Background(), 10, reviewerActor(), "numbers do not add up")

	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusRejected, submission.Status)
	assert.Equal(t, "numbers do not add up", gotUpdates["rejection_reason"])
	assert.Equal(t, "numbers do not add up", *submission.RejectionReason)
}

func TestApprovalService_NotFound(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := service.Submit(context.Background(), 999, schoolActor())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprovalService_RetriesLoadOnce(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	calls := 0
	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection reset")
		}
		return draftSubmission(models.SubmissionStatusDraft), nil
	}
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		return true, nil
	}

	_, err := service.Submit(context.Background(), 10, schoolActor())
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestApprovalService_BulkVariantDoesNotRetry(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	calls := 0
	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		calls++
		return nil, errors.New("connection reset")
	}

	_, err := service.ApplyForBulk(context.Background(), 10, statemachine.ActionApprove, reviewerActor(), "")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestApprovalService_AutoApprove(t *testing.T) {
	mockRepo := &mockSubmissionRepo{}
	service := NewApprovalService(mockRepo, nil, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Submission, error) {
		return draftSubmission(models.SubmissionStatusPending), nil
	}

	var gotUpdates map[string]any
	var gotRecord *models.AuditRecord
	mockRepo.mockTransition = func(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
		gotUpdates = updates
		gotRecord = record
		return true, nil
	}

	submission, err := service.AutoApprove(context.Background(), 10, `Auto-approved: category "Enrollment 2026" deadline passed`)

	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, submission.Status)
	assert.Nil(t, submission.LastActorID)
	assert.Nil(t, gotUpdates["last_actor_id"])
	assert.Equal(t, models.RoleSystem, gotUpdates["last_actor_role"])

	assert.Equal(t, models.AuditActionAutoApprove, gotRecord.Action)
	assert.Nil(t, gotRecord.ActorID)
	assert.Contains(t, string(gotRecord.NewValue), "Enrollment 2026")
}
