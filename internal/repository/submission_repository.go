package repository

import (
	"context"
	"time"

	"github.com/edupulse/emis-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionRepository defines the interface for submission data access.
// All status writes go through Transition, which enforces the
// compare-and-swap discipline on the status column.
type SubmissionRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Submission, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error)
	FindByOwner(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	UpsertEntries(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error
	ListPendingByCategory(ctx context.Context, categoryID uint) ([]models.Submission, error)
	List(ctx context.Context, query *SubmissionQuery) ([]models.Submission, int64, error)

	// Transition performs the compare-and-swap status write and the audit
	// insert as one database transaction. It returns false (and writes
	// nothing) when another writer already moved the submission off
	// expectedStatus.
	Transition(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error)
}

// SubmissionQuery extends ListQuery with submission-specific filters
type SubmissionQuery struct {
	*ListQuery
	CategoryID uint
	OwnerType  string
	OwnerID    uint
	Status     string
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) FindByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Joins("Category").
		Preload("Category.Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("column_id ASC")
		}).
		First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByOwner(ctx context.Context, categoryID uint, ownerType string, ownerID uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND owner_type = ? AND owner_id = ?", categoryID, ownerType, ownerID).
		Preload("Entries").
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// UpsertEntries writes entry values keyed by (submission, column). Existing
// values are overwritten; the submission row itself is not touched.
func (r *submissionRepository) UpsertEntries(ctx context.Context, submissionID uint, entries []models.SubmissionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].SubmissionID = submissionID
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}, {Name: "column_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entries).Error
}

func (r *submissionRepository) ListPendingByCategory(ctx context.Context, categoryID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND status = ?", categoryID, models.SubmissionStatusPending).
		Order("id ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) List(ctx context.Context, query *SubmissionQuery) ([]models.Submission, int64, error) {
	var submissions []models.Submission
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Submission{})

	if query.CategoryID > 0 {
		db = db.Where("submissions.category_id = ?", query.CategoryID)
	}
	if query.OwnerType != "" {
		db = db.Where("submissions.owner_type = ?", query.OwnerType)
	}
	if query.OwnerID > 0 {
		db = db.Where("submissions.owner_id = ?", query.OwnerID)
	}
	if query.Status != "" {
		db = db.Where("submissions.status = ?", query.Status)
	}
	if query.Filters != nil {
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("submissions.created_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			if len(val) == 10 { // YYYY-MM-DD
				val += " 23:59:59"
			}
			db = db.Where("submissions.created_at <= ?", val)
		}
		if val, ok := query.Filters["guid"]; ok && val != "" {
			db = db.Where("submissions.guid = ?", val)
		}
	}

	// Count with a separate session so Count() does not alter the main query
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("submissions.updated_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Category").Find(&submissions).Error
	return submissions, total, err
}

func (r *submissionRepository) Transition(ctx context.Context, id uint, expectedStatus string, updates map[string]any, record *models.AuditRecord) (bool, error) {
	swapped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if updates == nil {
			updates = map[string]any{}
		}
		updates["updated_at"] = time.Now()

		res := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", id, expectedStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another writer won the race; roll back without an audit row.
			return nil
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}
		swapped = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}
