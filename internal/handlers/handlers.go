package handlers

import (
	"errors"
	"net/http"

	"github.com/edupulse/emis-api/internal/middleware"
	"github.com/edupulse/emis-api/internal/services"
	"github.com/edupulse/emis-api/internal/statemachine"
	"github.com/gin-gonic/gin"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Category     *CategoryHandler
	Submission   *SubmissionHandler
	Audit        *AuditHandler
	Notification *NotificationHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		Category:     NewCategoryHandler(svcs.Category),
		Submission:   NewSubmissionHandler(svcs.Submission, svcs.Approval, svcs.Bulk),
		Audit:        NewAuditHandler(svcs.Audit),
		Notification: NewNotificationHandler(svcs.Notification),
		Job:          NewJobHandler(svcs.Job, svcs.AutoApproval),
	}
}

// actorFromContext rebuilds the acting user from the JWT claims the auth
// middleware stored on the request.
func actorFromContext(c *gin.Context) services.Actor {
	ownerType, ownerID := middleware.GetOwner(c)
	return services.Actor{
		ID:        middleware.GetUserID(c),
		Role:      middleware.GetUserRole(c),
		OwnerType: ownerType,
		OwnerID:   ownerID,
	}
}

// respondServiceError translates service-layer errors to HTTP responses so
// every workflow endpoint reports the same shapes.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var permissionErr *services.PermissionError
	var transitionErr *statemachine.IllegalTransitionError

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Error(), "fields": validationErr.Fields})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, gin.H{"error": permissionErr.Error()})
	case errors.As(err, &transitionErr):
		// 409 is reserved for lost compare-and-swap races; an action that is
		// impossible from the current state is a semantic error.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": transitionErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
