package services

import (
	"context"
	"errors"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"gorm.io/gorm"
)

// CategoryService exposes the collection templates. Administrative edits are
// deliberately thin; the engine treats categories as mostly immutable.
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.FindByIDWithColumns(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, query *repository.ListQuery) ([]models.Category, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *CategoryService) Create(ctx context.Context, category *models.Category) error {
	return s.repo.Create(ctx, category)
}

func (s *CategoryService) Update(ctx context.Context, category *models.Category) error {
	return s.repo.Update(ctx, category)
}
