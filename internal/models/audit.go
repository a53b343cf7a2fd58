package models

import (
	"time"
)

// AuditLog represents a system audit entry. Rows are append-only: written as a
// side effect of every state transition, never updated or deleted.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, APPROVE, REJECT, ISSUE, RETURN, ...
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Item, IssueRequest, IssueRecord, TransferRequest, ...
	EntityID  uint      `json:"entity_id"`
	Changes   string    `gorm:"type:text" json:"changes"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
