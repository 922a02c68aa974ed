package services

import (
	"github.com/edupulse/emis-api/internal/config"
	"github.com/edupulse/emis-api/internal/jobs"
	"github.com/edupulse/emis-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	Category     *CategoryService
	Submission   *SubmissionService
	Approval     *ApprovalService
	Bulk         *BulkService
	AutoApproval *AutoApprovalService
	Audit        *AuditService
	Notification *NotificationService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	approvalSvc := NewApprovalService(repos.Submission, notificationSvc, worker)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		Category:     NewCategoryService(repos.Category),
		Submission:   NewSubmissionService(repos.Submission, repos.Category),
		Approval:     approvalSvc,
		Bulk:         NewBulkService(approvalSvc),
		AutoApproval: NewAutoApprovalService(repos.Category, repos.Submission, approvalSvc),
		Audit:        NewAuditService(repos.Audit),
		Notification: notificationSvc,
		Job:          NewJobService(worker),
	}
}
