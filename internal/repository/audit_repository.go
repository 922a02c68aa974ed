package repository

import (
	"context"
	"time"

	"github.com/edupulse/emis-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository defines the interface for the append-only audit store.
// There is deliberately no update or delete method.
type AuditRepository interface {
	Create(ctx context.Context, record *models.AuditRecord) error
	Query(ctx context.Context, query *AuditQuery) ([]models.AuditRecord, int64, error)
	Stats(ctx context.Context, dateFrom, dateTo *time.Time) (*AuditStats, error)
}

// AuditQuery carries the audit trail filters
type AuditQuery struct {
	*ListQuery
	Action     string
	EntityType string
	EntityID   uint
	ActorID    uint
	DateFrom   *time.Time
	DateTo     *time.Time
}

// AuditStats aggregates the trail for operational dashboards
type AuditStats struct {
	Total         int64            `json:"total"`
	CountsByDay   []AuditDayCount  `json:"counts_by_day"`
	ByAction      map[string]int64 `json:"counts_by_action"`
	ByEntityType  map[string]int64 `json:"counts_by_entity_type"`
}

// AuditDayCount is one day's record count
type AuditDayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, record *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *auditRepository) Query(ctx context.Context, query *AuditQuery) ([]models.AuditRecord, int64, error) {
	var records []models.AuditRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditRecord{})
	db = r.applyFilters(db, query)

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("created_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Actor").Find(&records).Error
	return records, total, err
}

func (r *auditRepository) applyFilters(db *gorm.DB, query *AuditQuery) *gorm.DB {
	if query.Action != "" {
		db = db.Where("action = ?", query.Action)
	}
	if query.EntityType != "" {
		db = db.Where("entity_type = ?", query.EntityType)
	}
	if query.EntityID > 0 {
		db = db.Where("entity_id = ?", query.EntityID)
	}
	if query.ActorID > 0 {
		db = db.Where("actor_id = ?", query.ActorID)
	}
	if query.DateFrom != nil {
		db = db.Where("created_at >= ?", *query.DateFrom)
	}
	if query.DateTo != nil {
		db = db.Where("created_at <= ?", *query.DateTo)
	}
	return db
}

func (r *auditRepository) Stats(ctx context.Context, dateFrom, dateTo *time.Time) (*AuditStats, error) {
	stats := &AuditStats{
		ByAction:     make(map[string]int64),
		ByEntityType: make(map[string]int64),
	}

	base := func() *gorm.DB {
		db := r.db.WithContext(ctx).Model(&models.AuditRecord{})
		if dateFrom != nil {
			db = db.Where("created_at >= ?", *dateFrom)
		}
		if dateTo != nil {
			db = db.Where("created_at <= ?", *dateTo)
		}
		return db
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byAction []bucket
	if err := base().
		Select("action AS key, COUNT(*) AS count").
		Group("action").
		Scan(&byAction).Error; err != nil {
		return nil, err
	}
	for _, b := range byAction {
		stats.ByAction[b.Key] = b.Count
	}

	var byEntity []bucket
	if err := base().
		Select("entity_type AS key, COUNT(*) AS count").
		Group("entity_type").
		Scan(&byEntity).Error; err != nil {
		return nil, err
	}
	for _, b := range byEntity {
		stats.ByEntityType[b.Key] = b.Count
	}

	var byDay []AuditDayCount
	if err := base().
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*) AS count").
		Group("day").
		Order("day ASC").
		Scan(&byDay).Error; err != nil {
		return nil, err
	}
	stats.CountsByDay = byDay

	return stats, nil
}
