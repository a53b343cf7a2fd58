package models

import (
	"time"
)

// Department represents a university department that owns lab inventory
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null;size:10" json:"code"`
	ManualSeq int       `gorm:"default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Items     []Item `gorm:"foreignKey:DepartmentID" json:"items,omitempty"`
	Incharges []User `gorm:"many2many:user_departments" json:"incharges,omitempty"`
}

// TableName specifies the table name for Department
func (Department) TableName() string {
	return "departments"
}

// Category represents an item category with borrow constraints
type Category struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"uniqueIndex;not null" json:"name"`
	Description       *string   `gorm:"type:text" json:"description"`
	MaxBorrowDuration int       `gorm:"default:30" json:"max_borrow_duration"` // days
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Associations
	Items []Item `gorm:"foreignKey:CategoryID" json:"items,omitempty"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
