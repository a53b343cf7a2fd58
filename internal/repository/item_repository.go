package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmejia/labtrack-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Item, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Item, error)
	FindByManualID(ctx context.Context, manualID string) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ItemQuery) ([]models.Item, int64, error)
	FindAll(ctx context.Context) ([]models.Item, error)
	NextManualID(ctx context.Context, departmentID uint) (string, error)
	BulkCreate(ctx context.Context, items []models.Item) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ItemQuery extends ListQuery with item-specific filters
type ItemQuery struct {
	*ListQuery
	DepartmentID uint
	CategoryID   uint
	Status       string
	Condition    string
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) FindByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Joins("Category").
		Joins("Department").
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByManualID(ctx context.Context, manualID string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Joins("Category").
		Joins("Department").
		Where("items.manual_id = ?", manualID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isDuplicateKeyError(err, "items_manual_id_key") {
			return errors.New("an item with this manual ID already exists")
		}
		return err
	}
	return nil
}

func (r *itemRepository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Item{}, id).Error
}

func (r *itemRepository) List(ctx context.Context, query *ItemQuery) ([]models.Item, int64, error) {
	var items []models.Item
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Item{})

	if query.DepartmentID > 0 {
		db = db.Where("items.department_id = ?", query.DepartmentID)
	}
	if query.CategoryID > 0 {
		db = db.Where("items.category_id = ?", query.CategoryID)
	}
	if query.Status != "" {
		db = db.Where("items.status = ?", query.Status)
	}
	if query.Condition != "" {
		db = db.Where("items.condition = ?", query.Condition)
	}
	if query.Filters["consumable"] != "" {
		db = db.Where("items.is_consumable = ?", query.Filters["consumable"] == "true")
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("items.name ILIKE ? OR items.manual_id ILIKE ? OR items.description ILIKE ?",
			search, search, search)
	}

	// Count total using a separate session so the main query is not altered by Count()
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
		db = db.Order("items.manual_id ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Category").Preload("Department").Find(&items).Error
	return items, total, err
}

func (r *itemRepository) FindAll(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Department").
		Order("manual_id ASC").
		Find(&items).Error
	return items, err
}

// NextManualID advances the department's manual-ID sequence and returns the
// formatted identifier (e.g. CS-007). The department row is locked so two
// concurrent callers never see the same cursor value.
func (r *itemRepository) NextManualID(ctx context.Context, departmentID uint) (string, error) {
	var manualID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dept models.Department
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&dept, departmentID).Error; err != nil {
			return err
		}
		dept.ManualSeq++
		if err := tx.Model(&models.Department{}).
			Where("id = ?", dept.ID).
			Update("manual_seq", dept.ManualSeq).Error; err != nil {
			return err
		}
		manualID = fmt.Sprintf("%s-%03d", dept.Code, dept.ManualSeq)
		return nil
	})
	return manualID, err
}

// BulkCreate inserts a batch of items in a single transaction, assigning each
// a manual ID from its department's sequence. Either every row is inserted or
// none are.
func (r *itemRepository) BulkCreate(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Group sequence advances per department, holding each row lock once
		cursors := make(map[uint]*models.Department)
		for i := range items {
			dept, ok := cursors[items[i].DepartmentID]
			if !ok {
				dept = &models.Department{}
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					First(dept, items[i].DepartmentID).Error; err != nil {
					return err
				}
				cursors[items[i].DepartmentID] = dept
			}
			dept.ManualSeq++
			items[i].ManualID = fmt.Sprintf("%s-%03d", dept.Code, dept.ManualSeq)
		}
		for id, dept := range cursors {
			if err := tx.Model(&models.Department{}).
				Where("id = ?", id).
				Update("manual_seq", dept.ManualSeq).Error; err != nil {
				return err
			}
		}
		return tx.Create(&items).Error
	})
}

func (r *itemRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
