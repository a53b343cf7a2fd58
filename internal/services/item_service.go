package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// CreateItemInput is the payload for adding an item to inventory
type CreateItemInput struct {
	Name          string  `json:"name" binding:"required"`
	Description   *string `json:"description"`
	CategoryID    uint    `json:"category_id" binding:"required"`
	DepartmentID  uint    `json:"department_id" binding:"required"`
	Condition     string  `json:"condition"`
	IsConsumable  bool    `json:"is_consumable"`
	CurrentStock  *int    `json:"current_stock"`
	MinStockLevel *int    `json:"min_stock_level"`
}

// UpdateItemInput is the payload for item edits. Status is deliberately
// absent: issuance, returns and transfers own the status field.
type UpdateItemInput struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	CategoryID    *uint   `json:"category_id"`
	Condition     *string `json:"condition"`
	MinStockLevel *int    `json:"min_stock_level"`
	CurrentStock  *int    `json:"current_stock"`
}

// ItemService handles inventory administration
type ItemService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	deptRepo     repository.DepartmentRepository
	requestRepo  repository.IssueRequestRepository
	auditSvc     *AuditService
	worker       *jobs.Worker
}

// NewItemService creates a new item service
func NewItemService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	deptRepo repository.DepartmentRepository,
	requestRepo repository.IssueRequestRepository,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *ItemService {
	return &ItemService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		deptRepo:     deptRepo,
		requestRepo:  requestRepo,
		auditSvc:     auditSvc,
		worker:       worker,
	}
}

// GetByID returns one item with its associations loaded
func (s *ItemService) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	item, err := s.itemRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// GetByManualID looks an item up by its printed identifier
func (s *ItemService) GetByManualID(ctx context.Context, manualID string) (*models.Item, error) {
	item, err := s.itemRepo.FindByManualID(ctx, manualID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// List returns items matching the query
func (s *ItemService) List(ctx context.Context, query *repository.ItemQuery) ([]models.Item, int64, error) {
	return s.itemRepo.List(ctx, query)
}

// Create adds an item, assigning it the next manual ID in its department's
// sequence
func (s *ItemService) Create(ctx context.Context, input CreateItemInput, actor *models.User) (*models.Item, error) {
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %d", ErrNotFound, input.CategoryID)
		}
		return nil, err
	}
	if _, err := s.deptRepo.FindByID(ctx, input.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: department %d", ErrNotFound, input.DepartmentID)
		}
		return nil, err
	}

	condition := input.Condition
	if condition == "" {
		condition = models.ConditionGood
	}
	if !models.IsValidCondition(condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrValidation, condition)
	}
	if input.IsConsumable && (input.CurrentStock == nil || input.MinStockLevel == nil) {
		return nil, fmt.Errorf("%w: consumables need a current stock and a minimum stock level", ErrValidation)
	}

	manualID, err := s.itemRepo.NextManualID(ctx, input.DepartmentID)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ManualID:      manualID,
		Name:          input.Name,
		Description:   input.Description,
		CategoryID:    input.CategoryID,
		DepartmentID:  input.DepartmentID,
		Status:        models.ItemStatusAvailable,
		Condition:     condition,
		IsConsumable:  input.IsConsumable,
		CurrentStock:  input.CurrentStock,
		MinStockLevel: input.MinStockLevel,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "create", "Item", item.ID,
			fmt.Sprintf(`{"manual_id":%q}`, item.ManualID), "", "")
	})

	return s.GetByID(ctx, item.ID)
}

// Update applies inventory edits
func (s *ItemService) Update(ctx context.Context, id uint, input UpdateItemInput, actor *models.User) (*models.Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: category %d", ErrNotFound, *input.CategoryID)
			}
			return nil, err
		}
		item.CategoryID = *input.CategoryID
	}
	if input.Condition != nil {
		if !models.IsValidCondition(*input.Condition) {
			return nil, fmt.Errorf("%w: unknown condition %q", ErrValidation, *input.Condition)
		}
		item.Condition = *input.Condition
	}
	if input.MinStockLevel != nil {
		item.MinStockLevel = input.MinStockLevel
	}
	if input.CurrentStock != nil {
		if !item.IsConsumable {
			return nil, fmt.Errorf("%w: only consumables carry stock", ErrValidation)
		}
		item.CurrentStock = input.CurrentStock
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "update", "Item", id, "", "", "")
	})
	return item, nil
}

// SetMaintenance moves an item in or out of maintenance. Issued items cannot
// change status here; they go through a return first.
func (s *ItemService) SetMaintenance(ctx context.Context, id uint, underMaintenance bool, actor *models.User) (*models.Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == models.ItemStatusIssued {
		return nil, fmt.Errorf("%w: item is issued", ErrInvalidState)
	}

	if underMaintenance {
		item.Status = models.ItemStatusMaintenance
	} else {
		item.Status = models.ItemStatusAvailable
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "set_maintenance", "Item", id,
			fmt.Sprintf(`{"status":%q}`, item.Status), "", "")
	})
	return item, nil
}

// Delete removes an item that is not on loan and has no open requests
func (s *ItemService) Delete(ctx context.Context, id uint, actor *models.User) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.Status == models.ItemStatusIssued {
		return fmt.Errorf("%w: item is issued", ErrInvalidState)
	}
	hasOpen, err := s.requestRepo.HasOpenForItem(ctx, id)
	if err != nil {
		return err
	}
	if hasOpen {
		return fmt.Errorf("%w: item has open requests", ErrInvalidState)
	}

	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "delete", "Item", id,
			fmt.Sprintf(`{"manual_id":%q}`, item.ManualID), "", "")
	})
	return nil
}
