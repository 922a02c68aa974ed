package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
)

// AuditService exposes the append-only approval history. Records are written
// by the approval service inside the transition transaction; this service
// covers direct writes for non-transition events plus the query surface.
type AuditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends one audit entry. actorID is nil for system actions. Old and
// new values are stored as JSON snapshots.
func (s *AuditService) Record(ctx context.Context, actorID *uint, actorRole, action, entityType string, entityID uint, oldValue, newValue any) (*models.AuditRecord, error) {
	oldJSON, err := json.Marshal(oldValue)
	if err != nil {
		return nil, err
	}
	newJSON, err := json.Marshal(newValue)
	if err != nil {
		return nil, err
	}

	record := &models.AuditRecord{
		ActorID:    actorID,
		ActorRole:  actorRole,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValue:   oldJSON,
		NewValue:   newJSON,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Query retrieves audit records newest-first with the given filters
func (s *AuditService) Query(ctx context.Context, query *repository.AuditQuery) ([]models.AuditRecord, int64, error) {
	return s.repo.Query(ctx, query)
}

// Stats aggregates the trail for dashboards without scanning raw records
func (s *AuditService) Stats(ctx context.Context, dateFrom, dateTo *time.Time) (*repository.AuditStats, error) {
	return s.repo.Stats(ctx, dateFrom, dateTo)
}
