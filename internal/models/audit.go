package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditRecord is one immutable row of the approval history. Records are
// created exactly once per transition and never updated or deleted; no such
// code path exists.
type AuditRecord struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ActorID    *uint          `gorm:"index" json:"actor_id"` // nil for system actions
	ActorRole  string         `gorm:"size:50" json:"actor_role"`
	Action     string         `gorm:"size:50;not null;index" json:"action"`
	EntityType string         `gorm:"size:50;not null;index" json:"entity_type"`
	EntityID   uint           `gorm:"index" json:"entity_id"`
	OldValue   datatypes.JSON `json:"old_value"`
	NewValue   datatypes.JSON `json:"new_value"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`

	// Associations
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// TableName specifies the table name for AuditRecord
func (AuditRecord) TableName() string {
	return "audit_records"
}

// Audit action constants
const (
	AuditActionSubmit      = "SUBMIT"
	AuditActionApprove     = "APPROVE"
	AuditActionReject      = "REJECT"
	AuditActionReturn      = "RETURN"
	AuditActionAutoApprove = "AUTO_APPROVE"
)

// Audit entity type constants
const (
	AuditEntitySubmission = "Submission"
	AuditEntityCategory   = "Category"
)
