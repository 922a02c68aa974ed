package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/services"
	"github.com/edupulse/emis-api/internal/statemachine"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockListRepo struct {
	repository.SubmissionRepository
	mockList func(ctx context.Context, query *repository.SubmissionQuery) ([]models.Submission, int64, error)
}

func (m *mockListRepo) List(ctx context.Context, query *repository.SubmissionQuery) ([]models.Submission, int64, error) {
	return m.mockList(ctx, query)
}

func listContext(t *testing.T, target, role, ownerType string, ownerID uint) *gin.Context {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", target, nil)
	c.Set("userID", uint(5))
	c.Set("userRole", role)
	if ownerType != "" {
		c.Set("ownerType", ownerType)
		c.Set("ownerID", ownerID)
	}
	return c
}

func TestSubmissionHandler_Index_OwnerScoping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		target        string
		role          string
		ownerType     string
		ownerID       uint
		wantOwnerType string
		wantOwnerID   uint
	}{
		{
			// A sector admin submits sector data but reviews school
			// submissions; the requested filters must survive.
			name:          "Sector Admin Keeps Requested Filters",
			target:        "/submissions?owner_type=school&status=pending",
			role:          models.RoleSectorAdmin,
			ownerType:     models.OwnerTypeSector,
			ownerID:       2,
			wantOwnerType: models.OwnerTypeSchool,
			wantOwnerID:   0,
		},
		{
			name:          "School Is Scoped To Its Own Submissions",
			target:        "/submissions?owner_type=sector",
			role:          models.RoleSchool,
			ownerType:     models.OwnerTypeSchool,
			ownerID:       7,
			wantOwnerType: models.OwnerTypeSchool,
			wantOwnerID:   7,
		},
		{
			name:          "Region Admin Keeps Requested Filters",
			target:        "/submissions?owner_type=sector&status=pending",
			role:          models.RoleRegionAdmin,
			wantOwnerType: models.OwnerTypeSector,
			wantOwnerID:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *repository.SubmissionQuery
			repo := &mockListRepo{
				mockList: func(ctx context.Context, query *repository.SubmissionQuery) ([]models.Submission, int64, error) {
					captured = query
					return nil, 0, nil
				},
			}
			handler := NewSubmissionHandler(services.NewSubmissionService(repo, nil), nil, nil)

			c := listContext(t, tt.target, tt.role, tt.ownerType, tt.ownerID)
			handler.Index(c)

			assert.Equal(t, 200, c.Writer.Status())
			assert.Equal(t, tt.wantOwnerType, captured.OwnerType)
			assert.Equal(t, tt.wantOwnerID, captured.OwnerID)
		})
	}
}

func TestRespondServiceError_StatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			// Lost compare-and-swap races and impossible actions must stay
			// distinguishable on the wire.
			name:   "Concurrent Modification",
			err:    services.ErrConcurrentModification,
			status: 409,
		},
		{
			name:   "Illegal Transition",
			err:    &statemachine.IllegalTransitionError{State: models.SubmissionStatusDraft, Action: statemachine.ActionApprove},
			status: 422,
		},
		{
			name:   "Not Found",
			err:    services.ErrNotFound,
			status: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondServiceError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
