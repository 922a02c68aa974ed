package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission is the approvable aggregate: one category's data for one school
// or sector. Exactly one live submission exists per (category, owner type,
// owner) tuple; its entries transition atomically with it.
type Submission struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	GUID            string     `gorm:"uniqueIndex" json:"guid"`
	CategoryID      uint       `gorm:"not null;index:idx_submissions_owner,unique,priority:1" json:"category_id"`
	OwnerType       string     `gorm:"not null;index:idx_submissions_owner,unique,priority:2" json:"owner_type"`
	OwnerID         uint       `gorm:"not null;index:idx_submissions_owner,unique,priority:3" json:"owner_id"`
	Status          string     `gorm:"default:draft;index" json:"status"`
	LastActorID     *uint      `json:"last_actor_id"`
	LastActorRole   *string    `json:"last_actor_role"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	ReturnNotes     *string    `gorm:"type:text" json:"return_notes"`
	ApprovedAt      *time.Time `gorm:"index" json:"approved_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Associations
	Category Category          `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Entries  []SubmissionEntry `gorm:"foreignKey:SubmissionID" json:"entries,omitempty"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}

// Submission status constants
const (
	SubmissionStatusDraft    = "draft"
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
	SubmissionStatusReturned = "returned"
)

// Owner type constants
const (
	OwnerTypeSchool = "school"
	OwnerTypeSector = "sector"
)

// BeforeCreate hook assigns a GUID and the initial status
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.GUID == "" {
		s.GUID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SubmissionStatusDraft
	}
	return nil
}

// MaySubmit returns true if the submission can transition to pending
func (s *Submission) MaySubmit() bool {
	return s.Status == SubmissionStatusDraft || s.Status == SubmissionStatusReturned
}

// MayApprove returns true if the submission can be approved
func (s *Submission) MayApprove() bool {
	return s.Status == SubmissionStatusPending
}

// MayReject returns true if the submission can be rejected
func (s *Submission) MayReject() bool {
	return s.Status == SubmissionStatusPending
}

// MayReturn returns true if the submission can be returned for correction
func (s *Submission) MayReturn() bool {
	return s.Status == SubmissionStatusPending
}

// SubmissionSnapshot is the audit-trail view of a submission's mutable state.
type SubmissionSnapshot struct {
	Status          string     `json:"status"`
	LastActorID     *uint      `json:"last_actor_id,omitempty"`
	LastActorRole   *string    `json:"last_actor_role,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	ReturnNotes     *string    `json:"return_notes,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
}

// Snapshot captures the state recorded in audit old/new values
func (s *Submission) Snapshot() SubmissionSnapshot {
	return SubmissionSnapshot{
		Status:          s.Status,
		LastActorID:     s.LastActorID,
		LastActorRole:   s.LastActorRole,
		RejectionReason: s.RejectionReason,
		ReturnNotes:     s.ReturnNotes,
		ApprovedAt:      s.ApprovedAt,
	}
}

// SubmissionEntry is one (column → value) pair belonging to a submission.
// Entries never carry an independent status.
type SubmissionEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index:idx_entries_column,unique,priority:1" json:"submission_id"`
	ColumnID     uint      `gorm:"not null;index:idx_entries_column,unique,priority:2" json:"column_id"`
	Value        string    `gorm:"type:text" json:"value"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for SubmissionEntry
func (SubmissionEntry) TableName() string {
	return "submission_entries"
}

// SubmissionResponse is the JSON response format for submissions
type SubmissionResponse struct {
	ID              uint                    `json:"id"`
	GUID            string                  `json:"guid"`
	CategoryID      uint                    `json:"category_id"`
	CategoryName    string                  `json:"category_name"`
	OwnerType       string                  `json:"owner_type"`
	OwnerID         uint                    `json:"owner_id"`
	Status          string                  `json:"status"`
	LastActorID     *uint                   `json:"last_actor_id"`
	LastActorRole   *string                 `json:"last_actor_role"`
	RejectionReason *string                 `json:"rejection_reason"`
	ReturnNotes     *string                 `json:"return_notes"`
	ApprovedAt      *time.Time              `json:"approved_at"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	Entries         []SubmissionEntryValue  `json:"entries,omitempty"`
}

// SubmissionEntryValue is the entry representation nested in responses
type SubmissionEntryValue struct {
	ColumnID uint   `json:"column_id"`
	Value    string `json:"value"`
}

// ToResponse converts Submission to SubmissionResponse
func (s *Submission) ToResponse() SubmissionResponse {
	resp := SubmissionResponse{
		ID:              s.ID,
		GUID:            s.GUID,
		CategoryID:      s.CategoryID,
		CategoryName:    s.Category.Name,
		OwnerType:       s.OwnerType,
		OwnerID:         s.OwnerID,
		Status:          s.Status,
		LastActorID:     s.LastActorID,
		LastActorRole:   s.LastActorRole,
		RejectionReason: s.RejectionReason,
		ReturnNotes:     s.ReturnNotes,
		ApprovedAt:      s.ApprovedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	for _, entry := range s.Entries {
		resp.Entries = append(resp.Entries, SubmissionEntryValue{ColumnID: entry.ColumnID, Value: entry.Value})
	}
	return resp
}
