package models

import (
	"time"
)

// Setting is one key/value row of the runtime configuration table that
// parametrizes the borrow and return rules.
type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"not null" json:"value"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

// Setting keys. Per-role keys are built as "<role>_" + suffix, e.g.
// "student_max_borrow_days".
const (
	SettingSuffixMaxBorrowDays    = "max_borrow_days"
	SettingSuffixMaxItems         = "max_items"
	SettingSuffixRequiresApproval = "requires_approval"

	SettingKeyLateBanMonths           = "late_ban_months"
	SettingKeyOverdueRemindersEnabled = "overdue_reminders_enabled"
)

// RoleSettingKey builds the settings key for a per-role limit
func RoleSettingKey(role, suffix string) string {
	return role + "_" + suffix
}

// BorrowPolicy is the resolved per-role borrowing limits handed to the
// request-approval workflow. Engines only ever see this value, never the
// settings table.
type BorrowPolicy struct {
	Role             string
	MaxBorrowDays    int
	MaxItems         int
	RequiresApproval bool
}

// ReturnPolicy is the resolved penalty configuration handed to the return engine
type ReturnPolicy struct {
	LateBanMonths int
}
