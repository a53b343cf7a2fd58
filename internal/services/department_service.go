package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// CreateDepartmentInput is the payload for adding a department
type CreateDepartmentInput struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required,max=10"`
}

// DepartmentService handles department administration
type DepartmentService struct {
	deptRepo repository.DepartmentRepository
	itemRepo repository.ItemRepository
	auditSvc *AuditService
}

// NewDepartmentService creates a new department service
func NewDepartmentService(deptRepo repository.DepartmentRepository, itemRepo repository.ItemRepository, auditSvc *AuditService) *DepartmentService {
	return &DepartmentService{deptRepo: deptRepo, itemRepo: itemRepo, auditSvc: auditSvc}
}

// GetByID returns one department
func (s *DepartmentService) GetByID(ctx context.Context, id uint) (*models.Department, error) {
	dept, err := s.deptRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dept, nil
}

// List returns all departments
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	return s.deptRepo.FindAll(ctx)
}

// ListIncharges returns the incharge users of a department
func (s *DepartmentService) ListIncharges(ctx context.Context, id uint) ([]models.User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.deptRepo.FindIncharges(ctx, id)
}

// Create adds a department. The code becomes the prefix of every manual ID
// the department issues, so it is uppercased and immutable after creation.
func (s *DepartmentService) Create(ctx context.Context, input CreateDepartmentInput, actor *models.User) (*models.Department, error) {
	dept := &models.Department{
		Name: input.Name,
		Code: strings.ToUpper(strings.TrimSpace(input.Code)),
	}
	if dept.Code == "" {
		return nil, fmt.Errorf("%w: department code is required", ErrValidation)
	}
	if err := s.deptRepo.Create(ctx, dept); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor.ID, "create", "Department", dept.ID,
		fmt.Sprintf(`{"code":%q}`, dept.Code), "", "")
	return dept, nil
}

// Update renames a department
func (s *DepartmentService) Update(ctx context.Context, id uint, name string, actor *models.User) (*models.Department, error) {
	dept, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dept.Name = name
	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor.ID, "update", "Department", id, "", "", "")
	return dept, nil
}

// Delete removes an empty department
func (s *DepartmentService) Delete(ctx context.Context, id uint, actor *models.User) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	items, _, err := s.itemRepo.List(ctx, &repository.ItemQuery{
		ListQuery:    &repository.ListQuery{Page: 1, PerPage: 1},
		DepartmentID: id,
	})
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return fmt.Errorf("%w: department still holds inventory", ErrInvalidState)
	}
	if err := s.deptRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor.ID, "delete", "Department", id, "", "", "")
	return nil
}
