package repository

import (
	"context"
	"time"

	"github.com/edupulse/emis-api/internal/models"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	FindByIDWithColumns(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context, query *ListQuery) ([]models.Category, int64, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByIDWithColumns(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, query *ListQuery) ([]models.Category, int64, error) {
	var categories []models.Category
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Category{})

	if status, ok := query.Filters["status"]; ok && status != "" {
		db = db.Where("status = ?", status)
	}
	if scope, ok := query.Filters["target_scope"]; ok && scope != "" {
		db = db.Where("target_scope = ?", scope)
	}
	if query.Search != "" {
		db = db.Where("name ILIKE ?", "%"+query.Search+"%")
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("created_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Columns").Find(&categories).Error
	return categories, total, err
}

// ListExpired returns active categories whose deadline has passed. These are
// the candidates for the auto-approval sweep.
func (r *categoryRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND deadline < ? AND status = ?", now, models.CategoryStatusActive).
		Order("deadline ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}
