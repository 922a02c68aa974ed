package services

import (
	"context"
	"fmt"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/pkg/logger"
)

// NotificationService creates in-app notification rows and implements the
// Notifier interface consumed by the approval service. Delivery beyond these
// rows (email, push) is outside this service.
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo}
}

func (s *NotificationService) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	notification.MarkAsRead()
	return s.repo.Update(ctx, notification)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// Notify fans a transition event out to the users who care about it: a
// submit goes to the reviewers of the owner tier, everything else goes to
// the owner's accounts. Failures are logged, never propagated into the
// transition.
func (s *NotificationService) Notify(ctx context.Context, event TransitionEvent) error {
	title, message, notifType := describeTransition(event)

	var recipients []models.User
	var err error
	if event.NewStatus == models.SubmissionStatusPending {
		recipients, err = s.userRepo.FindReviewersFor(ctx, event.OwnerType)
	} else {
		recipients, err = s.userRepo.FindOwners(ctx, event.OwnerType, event.OwnerID)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	for _, user := range recipients {
		notification := &models.Notification{
			UserID:           user.ID,
			Title:            title,
			Message:          message,
			NotificationType: &notifType,
		}
		if err := s.repo.Create(ctx, notification); err != nil {
			logger.Warn("Failed to create notification",
				"user_id", user.ID,
				"submission_id", event.SubmissionID,
				"error", err)
		}
	}
	return nil
}

func describeTransition(event TransitionEvent) (title, message, notifType string) {
	switch event.NewStatus {
	case models.SubmissionStatusPending:
		return "Submission received",
			fmt.Sprintf("A %s submission is waiting for review", event.OwnerType),
			models.NotificationTypeSubmissionSubmitted
	case models.SubmissionStatusApproved:
		if event.ActorRole == models.RoleSystem {
			return "Submission auto-approved",
				"Your submission was approved automatically after the category deadline",
				models.NotificationTypeSubmissionAutoApproved
		}
		return "Submission approved",
			"Your submission has been approved",
			models.NotificationTypeSubmissionApproved
	case models.SubmissionStatusRejected:
		return "Submission rejected",
			"Your submission has been rejected; see the reason attached by the reviewer",
			models.NotificationTypeSubmissionRejected
	case models.SubmissionStatusReturned:
		return "Submission returned",
			"Your submission was returned for correction; see the reviewer's notes",
			models.NotificationTypeSubmissionReturned
	default:
		return "Submission updated",
			fmt.Sprintf("Submission moved from %s to %s", event.OldStatus, event.NewStatus),
			models.NotificationTypeSubmissionSubmitted
	}
}
