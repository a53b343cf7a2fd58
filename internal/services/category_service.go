package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// CreateCategoryInput is the payload for adding a category
type CreateCategoryInput struct {
	Name              string  `json:"name" binding:"required"`
	Description       *string `json:"description"`
	MaxBorrowDuration int     `json:"max_borrow_duration" binding:"required,min=1"`
}

// UpdateCategoryInput is the payload for category edits
type UpdateCategoryInput struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	MaxBorrowDuration *int    `json:"max_borrow_duration"`
}

// CategoryService handles category administration
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	auditSvc     *AuditService
}

// NewCategoryService creates a new category service
func NewCategoryService(categoryRepo repository.CategoryRepository, auditSvc *AuditService) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, auditSvc: auditSvc}
}

// GetByID returns one category
func (s *CategoryService) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return category, nil
}

// List returns all categories
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

// Create adds a category
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput, actor *models.User) (*models.Category, error) {
	category := &models.Category{
		Name:              input.Name,
		Description:       input.Description,
		MaxBorrowDuration: input.MaxBorrowDuration,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor.ID, "create", "Category", category.ID, "", "", "")
	return category, nil
}

// Update applies category edits. Lowering MaxBorrowDuration affects future
// approvals only; outstanding loans keep their expected return dates.
func (s *CategoryService) Update(ctx context.Context, id uint, input UpdateCategoryInput, actor *models.User) (*models.Category, error) {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		category.Name = *input.Name
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.MaxBorrowDuration != nil {
		if *input.MaxBorrowDuration < 1 {
			return nil, fmt.Errorf("%w: max borrow duration must be at least 1 day", ErrValidation)
		}
		category.MaxBorrowDuration = *input.MaxBorrowDuration
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor.ID, "update", "Category", id, "", "", "")
	return category, nil
}

// Delete removes a category
func (s *CategoryService) Delete(ctx context.Context, id uint, actor *models.User) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor.ID, "delete", "Category", id, "", "", "")
	return nil
}
