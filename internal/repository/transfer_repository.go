package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmejia/labtrack-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock is returned when a consumable transfer completes
// against less stock than it was approved for.
var ErrInsufficientStock = errors.New("insufficient stock")

// TransferRepository defines the interface for transfer request data access
type TransferRepository interface {
	FindByID(ctx context.Context, id uint) (*models.TransferRequest, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.TransferRequest, error)
	Create(ctx context.Context, transfer *models.TransferRequest) error
	Update(ctx context.Context, transfer *models.TransferRequest) error
	List(ctx context.Context, query *TransferQuery) ([]models.TransferRequest, int64, error)
	HasOpenForItem(ctx context.Context, itemID uint) (bool, error)
	Complete(ctx context.Context, transferID uint, completedAt time.Time) (*models.TransferRequest, error)
}

// TransferQuery extends ListQuery with transfer filters
type TransferQuery struct {
	*ListQuery
	DepartmentID uint // matches either side of the transfer
	Status       string
}

type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) FindByID(ctx context.Context, id uint) (*models.TransferRequest, error) {
	var transfer models.TransferRequest
	err := r.db.WithContext(ctx).First(&transfer, id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.TransferRequest, error) {
	var transfer models.TransferRequest
	err := r.db.WithContext(ctx).
		Joins("Item").
		Joins("FromDepartment").
		Joins("ToDepartment").
		Preload("Requester").
		First(&transfer, id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) Create(ctx context.Context, transfer *models.TransferRequest) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *transferRepository) Update(ctx context.Context, transfer *models.TransferRequest) error {
	return r.db.WithContext(ctx).Save(transfer).Error
}

func (r *transferRepository) List(ctx context.Context, query *TransferQuery) ([]models.TransferRequest, int64, error) {
	var transfers []models.TransferRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&models.TransferRequest{})

	if query.DepartmentID > 0 {
		db = db.Where("transfer_requests.from_department_id = ? OR transfer_requests.to_department_id = ?",
			query.DepartmentID, query.DepartmentID)
	}
	if query.Status != "" {
		db = db.Where("transfer_requests.status = ?", query.Status)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN items ON items.id = transfer_requests.item_id").
			Where("items.name ILIKE ? OR items.manual_id ILIKE ? OR transfer_requests.purpose ILIKE ?",
				search, search, search)
	}

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
		db = db.Order("transfer_requests.request_date DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Item").Preload("FromDepartment").Preload("ToDepartment").Preload("Requester").
		Find(&transfers).Error
	return transfers, total, err
}

func (r *transferRepository) HasOpenForItem(ctx context.Context, itemID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TransferRequest{}).
		Where("item_id = ? AND status IN ?", itemID,
			[]string{models.TransferStatusPending, models.TransferStatusApproved}).
		Count(&count).Error
	return count > 0, err
}

// Complete moves the inventory for an approved transfer and marks it
// completed, all in one transaction. Non-consumables change department; the
// item must still be available, so an item issued between approval and
// completion blocks the move. Consumables deduct the approved quantity from
// the source item and add it to the destination department's matching item,
// creating one (with its own manual ID) when none exists yet.
func (r *transferRepository) Complete(ctx context.Context, transferID uint, completedAt time.Time) (*models.TransferRequest, error) {
	var transfer models.TransferRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&transfer, transferID).Error; err != nil {
			return err
		}
		if !transfer.MayComplete() {
			return fmt.Errorf("transfer %d is %s, expected %s",
				transfer.ID, transfer.Status, models.TransferStatusApproved)
		}

		var item models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, transfer.ItemID).Error; err != nil {
			return err
		}

		if item.IsConsumable {
			if err := r.moveStock(tx, &transfer, &item); err != nil {
				return err
			}
		} else {
			reassign := tx.Model(&models.Item{}).
				Where("id = ? AND status = ?", item.ID, models.ItemStatusAvailable).
				Update("department_id", transfer.ToDepartmentID)
			if reassign.Error != nil {
				return reassign.Error
			}
			if reassign.RowsAffected == 0 {
				return ErrItemNotAvailable
			}
		}

		transfer.Status = models.TransferStatusCompleted
		transfer.CompletedAt = &completedAt
		return tx.Save(&transfer).Error
	})
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) moveStock(tx *gorm.DB, transfer *models.TransferRequest, item *models.Item) error {
	deduct := tx.Model(&models.Item{}).
		Where("id = ? AND current_stock >= ?", item.ID, transfer.Quantity).
		Update("current_stock", gorm.Expr("current_stock - ?", transfer.Quantity))
	if deduct.Error != nil {
		return deduct.Error
	}
	if deduct.RowsAffected == 0 {
		return ErrInsufficientStock
	}

	var dest models.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("department_id = ? AND category_id = ? AND name = ? AND is_consumable = TRUE",
			transfer.ToDepartmentID, item.CategoryID, item.Name).
		First(&dest).Error
	if err == nil {
		return tx.Model(&models.Item{}).
			Where("id = ?", dest.ID).
			Update("current_stock", gorm.Expr("COALESCE(current_stock, 0) + ?", transfer.Quantity)).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	manualID, err := nextManualIDTx(tx, transfer.ToDepartmentID)
	if err != nil {
		return err
	}
	stock := transfer.Quantity
	dest = models.Item{
		ManualID:      manualID,
		Name:          item.Name,
		Description:   item.Description,
		CategoryID:    item.CategoryID,
		DepartmentID:  transfer.ToDepartmentID,
		Status:        models.ItemStatusAvailable,
		Condition:     item.Condition,
		IsConsumable:  true,
		CurrentStock:  &stock,
		MinStockLevel: item.MinStockLevel,
	}
	return tx.Create(&dest).Error
}

// nextManualIDTx advances the department's manual-ID sequence within an
// already-open transaction.
func nextManualIDTx(tx *gorm.DB, departmentID uint) (string, error) {
	var dept models.Department
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&dept, departmentID).Error; err != nil {
		return "", err
	}
	dept.ManualSeq++
	if err := tx.Model(&models.Department{}).
		Where("id = ?", dept.ID).
		Update("manual_seq", dept.ManualSeq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", dept.Code, dept.ManualSeq), nil
}
