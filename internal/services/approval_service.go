package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edupulse/emis-api/internal/jobs"
	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/statemachine"
	"github.com/edupulse/emis-api/pkg/logger"
	"gorm.io/gorm"
)

// TransitionEvent is handed to the notification dispatcher after every
// successful transition. Delivery is fire-and-forget and never rolls the
// transition back.
type TransitionEvent struct {
	SubmissionID uint      `json:"submission_id"`
	CategoryID   uint      `json:"category_id"`
	OwnerType    string    `json:"owner_type"`
	OwnerID      uint      `json:"owner_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	ActorID      *uint     `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	Timestamp    time.Time `json:"timestamp"`
}

// Notifier dispatches transition events to interested users. Implementations
// must tolerate being called concurrently.
type Notifier interface {
	Notify(ctx context.Context, event TransitionEvent) error
}

// ApprovalService orchestrates single-submission transitions: it validates
// through the state machine and the permission table, performs the
// compare-and-swap write with the audit record in one transaction, and hands
// the event to the notifier.
type ApprovalService struct {
	repo     repository.SubmissionRepository
	notifier Notifier
	worker   *jobs.Worker
}

// NewApprovalService creates a new approval service
func NewApprovalService(repo repository.SubmissionRepository, notifier Notifier, worker *jobs.Worker) *ApprovalService {
	return &ApprovalService{
		repo:     repo,
		notifier: notifier,
		worker:   worker,
	}
}

// auditPayload is the JSON written into audit old/new values. Note carries
// the auto-approval traceability text and is empty otherwise.
type auditPayload struct {
	models.SubmissionSnapshot
	Note string `json:"note,omitempty"`
}

// Submit moves a draft or returned submission to pending. The owner must
// have filled every required column of the category template.
func (s *ApprovalService) Submit(ctx context.Context, submissionID uint, actor Actor) (*models.Submission, error) {
	return s.apply(ctx, submissionID, statemachine.ActionSubmit, actor, "", "", true)
}

// Approve moves a pending submission to approved
func (s *ApprovalService) Approve(ctx context.Context, submissionID uint, actor Actor) (*models.Submission, error) {
	return s.apply(ctx, submissionID, statemachine.ActionApprove, actor, "", "", true)
}

// Reject moves a pending submission to rejected. The reason is mandatory and
// is shown to the owner.
func (s *ApprovalService) Reject(ctx context.Context, submissionID uint, actor Actor, reason string) (*models.Submission, error) {
	return s.apply(ctx, submissionID, statemachine.ActionReject, actor, reason, "", true)
}

// Return hands a pending submission back to its owner for correction,
// preserving the entries. Notes are mandatory.
func (s *ApprovalService) Return(ctx context.Context, submissionID uint, actor Actor, notes string) (*models.Submission, error) {
	return s.apply(ctx, submissionID, statemachine.ActionReturn, actor, notes, "", true)
}

// AutoApprove approves a pending submission as the system actor. Used only
// by the deadline scheduler; the note embeds category name and deadline for
// traceability and ends up in the audit record.
func (s *ApprovalService) AutoApprove(ctx context.Context, submissionID uint, reasonNote string) (*models.Submission, error) {
	return s.apply(ctx, submissionID, statemachine.ActionApprove, SystemActor, "", reasonNote, false)
}

// ApplyForBulk runs one action without the single-call store retry; the bulk
// coordinator records the failure instead and a fresh run picks it up.
func (s *ApprovalService) ApplyForBulk(ctx context.Context, submissionID uint, action string, actor Actor, reason string) (*models.Submission, error) {
	return s.apply(ctx, submissionID, action, actor, reason, "", false)
}

func (s *ApprovalService) apply(ctx context.Context, submissionID uint, action string, actor Actor, reason, note string, retryStore bool) (*models.Submission, error) {
	submission, err := s.loadSubmission(ctx, submissionID, retryStore)
	if err != nil {
		return nil, err
	}

	if err := checkPermission(actor, submission.OwnerType, action); err != nil {
		return nil, err
	}
	if !actor.IsSystem() && action == statemachine.ActionSubmit {
		if err := checkOwnership(actor, submission); err != nil {
			return nil, err
		}
	}

	// Action-specific preconditions. Nothing is written when these fail.
	switch action {
	case statemachine.ActionSubmit:
		if err := validateEntries(&submission.Category, submission.Entries); err != nil {
			return nil, err
		}
	case statemachine.ActionReject:
		if isBlank(reason) {
			return nil, NewValidationError("reason")
		}
	case statemachine.ActionReturn:
		if isBlank(reason) {
			return nil, NewValidationError("notes")
		}
	}

	oldSnapshot := submission.Snapshot()
	expectedStatus := submission.Status

	// Pure transition on the in-memory copy; the CAS below persists it.
	machine := statemachine.NewSubmissionFSM(submission)
	transition, err := machine.Apply(ctx, action)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{
		"status":          transition.To,
		"last_actor_role": actor.Role,
	}
	if actor.IsSystem() {
		updates["last_actor_id"] = nil
		submission.LastActorID = nil
	} else {
		updates["last_actor_id"] = actor.ID
		submission.LastActorID = &actor.ID
	}
	role := actor.Role
	submission.LastActorRole = &role

	switch action {
	case statemachine.ActionSubmit:
		// A resubmit clears the reviewer's notes from the previous round.
		updates["return_notes"] = nil
		submission.ReturnNotes = nil
	case statemachine.ActionApprove:
		updates["approved_at"] = now
		submission.ApprovedAt = &now
	case statemachine.ActionReject:
		updates["rejection_reason"] = reason
		submission.RejectionReason = &reason
	case statemachine.ActionReturn:
		updates["return_notes"] = reason
		submission.ReturnNotes = &reason
	}

	record, err := s.buildAuditRecord(actor, action, submission, oldSnapshot, note)
	if err != nil {
		return nil, err
	}

	swapped, err := s.transition(ctx, submissionID, expectedStatus, updates, record, retryStore)
	if err != nil {
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}
	if !swapped {
		return nil, ErrConcurrentModification
	}

	s.dispatch(TransitionEvent{
		SubmissionID: submission.ID,
		CategoryID:   submission.CategoryID,
		OwnerType:    submission.OwnerType,
		OwnerID:      submission.OwnerID,
		OldStatus:    transition.From,
		NewStatus:    transition.To,
		ActorID:      submission.LastActorID,
		ActorRole:    actor.Role,
		Timestamp:    now,
	})

	return submission, nil
}

func (s *ApprovalService) loadSubmission(ctx context.Context, id uint, retryStore bool) (*models.Submission, error) {
	submission, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil && retryStore && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Retrying submission load after store error", "submission_id", id, "error", err)
		submission, err = s.repo.FindByIDWithDetails(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return submission, nil
}

func (s *ApprovalService) transition(ctx context.Context, id uint, expected string, updates map[string]any, record *models.AuditRecord, retryStore bool) (bool, error) {
	swapped, err := s.repo.Transition(ctx, id, expected, updates, record)
	if err != nil && retryStore {
		logger.Warn("Retrying transition after store error", "submission_id", id, "error", err)
		swapped, err = s.repo.Transition(ctx, id, expected, updates, record)
	}
	return swapped, err
}

func (s *ApprovalService) buildAuditRecord(actor Actor, action string, submission *models.Submission, oldSnapshot models.SubmissionSnapshot, note string) (*models.AuditRecord, error) {
	oldValue, err := json.Marshal(auditPayload{SubmissionSnapshot: oldSnapshot})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit snapshot: %w", err)
	}
	newValue, err := json.Marshal(auditPayload{SubmissionSnapshot: submission.Snapshot(), Note: note})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit snapshot: %w", err)
	}

	record := &models.AuditRecord{
		ActorRole:  actor.Role,
		Action:     auditAction(action, actor),
		EntityType: models.AuditEntitySubmission,
		EntityID:   submission.ID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if !actor.IsSystem() {
		id := actor.ID
		record.ActorID = &id
	}
	return record, nil
}

func auditAction(action string, actor Actor) string {
	switch action {
	case statemachine.ActionSubmit:
		return models.AuditActionSubmit
	case statemachine.ActionApprove:
		if actor.IsSystem() {
			return models.AuditActionAutoApprove
		}
		return models.AuditActionApprove
	case statemachine.ActionReject:
		return models.AuditActionReject
	case statemachine.ActionReturn:
		return models.AuditActionReturn
	default:
		return action
	}
}

func (s *ApprovalService) dispatch(event TransitionEvent) {
	if s.notifier == nil {
		return
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notifier.Notify(ctx, event)
	})
}

// checkOwnership restricts submit to accounts of the owning school or sector
// (admins pass the permission table instead).
func checkOwnership(actor Actor, submission *models.Submission) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.OwnerType != submission.OwnerType || actor.OwnerID == nil || *actor.OwnerID != submission.OwnerID {
		return ErrUnauthorized
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
