package models

import (
	"time"
)

// Item represents a piece of lab inventory owned by one department
type Item struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ManualID      string    `gorm:"uniqueIndex;not null" json:"manual_id"`
	Name          string    `gorm:"not null;index" json:"name"`
	Description   *string   `gorm:"type:text" json:"description"`
	CategoryID    uint      `gorm:"not null;index" json:"category_id"`
	DepartmentID  uint      `gorm:"not null;index" json:"department_id"`
	Status        string    `gorm:"default:available;index" json:"status"`
	Condition     string    `gorm:"default:good" json:"condition"`
	IsConsumable  bool      `gorm:"default:false" json:"is_consumable"`
	CurrentStock  *int      `json:"current_stock"`
	MinStockLevel *int      `json:"min_stock_level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Category   Category   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Department Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// TableName specifies the table name for Item
func (Item) TableName() string {
	return "items"
}

// Item status constants. Status and condition are independent axes: a damaged
// item can remain available for reissue once a repair decision is made.
const (
	ItemStatusAvailable          = "available"
	ItemStatusIssued             = "issued"
	ItemStatusMaintenance        = "maintenance"
	ItemStatusPendingReplacement = "pending_replacement"
)

// Item condition constants
const (
	ConditionNew         = "new"
	ConditionGood        = "good"
	ConditionFair        = "fair"
	ConditionDamaged     = "damaged"
	ConditionUnderRepair = "under_repair"
)

// IsValidCondition reports whether condition is a known condition value
func IsValidCondition(condition string) bool {
	switch condition {
	case ConditionNew, ConditionGood, ConditionFair, ConditionDamaged, ConditionUnderRepair:
		return true
	}
	return false
}

// IsAvailable returns true if the item can be requested or issued
func (i *Item) IsAvailable() bool {
	return i.Status == ItemStatusAvailable
}

// IsLowStock returns true for consumables at or below their minimum level
func (i *Item) IsLowStock() bool {
	if !i.IsConsumable || i.CurrentStock == nil || i.MinStockLevel == nil {
		return false
	}
	return *i.CurrentStock <= *i.MinStockLevel
}

// ItemResponse is the JSON response format for items
type ItemResponse struct {
	ID             uint      `json:"id"`
	ManualID       string    `json:"manual_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	CategoryID     uint      `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	DepartmentID   uint      `json:"department_id"`
	DepartmentCode string    `json:"department_code"`
	Status         string    `json:"status"`
	Condition      string    `json:"condition"`
	IsConsumable   bool      `json:"is_consumable"`
	CurrentStock   *int      `json:"current_stock"`
	MinStockLevel  *int      `json:"min_stock_level"`
	LowStock       bool      `json:"low_stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToResponse converts Item to ItemResponse
func (i *Item) ToResponse() ItemResponse {
	return ItemResponse{
		ID:             i.ID,
		ManualID:       i.ManualID,
		Name:           i.Name,
		Description:    i.Description,
		CategoryID:     i.CategoryID,
		CategoryName:   i.Category.Name,
		DepartmentID:   i.DepartmentID,
		DepartmentCode: i.Department.Code,
		Status:         i.Status,
		Condition:      i.Condition,
		IsConsumable:   i.IsConsumable,
		CurrentStock:   i.CurrentStock,
		MinStockLevel:  i.MinStockLevel,
		LowStock:       i.IsLowStock(),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}
