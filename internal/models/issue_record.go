package models

import (
	"math"
	"time"
)

// IssueRecord represents an active or completed loan of one item to one user.
// Created at issuance, mutated once at return, never deleted. An item has at
// most one outstanding record (actual_return_date IS NULL) at a time.
type IssueRecord struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	IssueRequestID       uint       `gorm:"not null;uniqueIndex" json:"issue_request_id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	ItemID               uint       `gorm:"not null;index" json:"item_id"`
	DepartmentID         uint       `gorm:"not null;index" json:"department_id"`
	IssueDate            time.Time  `gorm:"not null" json:"issue_date"`
	ExpectedReturnDate   time.Time  `gorm:"not null;index" json:"expected_return_date"`
	ActualReturnDate     *time.Time `gorm:"index" json:"actual_return_date"`
	ReturnCondition      *string    `json:"return_condition"`
	DamageRemarks        *string    `gorm:"type:text" json:"damage_remarks"`
	IsPendingReplacement bool       `gorm:"default:false" json:"is_pending_replacement"`
	IssuedBy             *uint      `json:"issued_by"`
	ReturnedTo           *uint      `json:"returned_to"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Associations
	IssueRequest IssueRequest `gorm:"foreignKey:IssueRequestID" json:"issue_request,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Item         Item         `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Department   Department   `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// TableName specifies the table name for IssueRecord
func (IssueRecord) TableName() string {
	return "issue_records"
}

// IsOutstanding returns true while the item has not been returned
func (r *IssueRecord) IsOutstanding() bool {
	return r.ActualReturnDate == nil
}

// IsOverdue returns true for outstanding records past their expected return date
func (r *IssueRecord) IsOverdue(now time.Time) bool {
	return r.IsOutstanding() && now.After(r.ExpectedReturnDate)
}

// DaysOverdue returns the number of late days, rounded up, or 0 when not overdue
func (r *IssueRecord) DaysOverdue(now time.Time) int {
	if !r.IsOverdue(now) {
		return 0
	}
	return int(math.Ceil(now.Sub(r.ExpectedReturnDate).Hours() / 24))
}

// IssueRecordResponse is the JSON response format for issue records
type IssueRecordResponse struct {
	ID                   uint       `json:"id"`
	IssueRequestID       uint       `json:"issue_request_id"`
	UserID               uint       `json:"user_id"`
	UserName             string     `json:"user_name"`
	ItemID               uint       `json:"item_id"`
	ItemManualID         string     `json:"item_manual_id"`
	ItemName             string     `json:"item_name"`
	DepartmentID         uint       `json:"department_id"`
	IssueDate            time.Time  `json:"issue_date"`
	ExpectedReturnDate   time.Time  `json:"expected_return_date"`
	ActualReturnDate     *time.Time `json:"actual_return_date"`
	ReturnCondition      *string    `json:"return_condition"`
	DamageRemarks        *string    `json:"damage_remarks"`
	IsPendingReplacement bool       `json:"is_pending_replacement"`
	IsOverdue            bool       `json:"is_overdue"`
	DaysOverdue          int        `json:"days_overdue"`
	CreatedAt            time.Time  `json:"created_at"`
}

// ToResponse converts IssueRecord to IssueRecordResponse, annotating the
// computed overdue fields against the supplied clock.
func (r *IssueRecord) ToResponse(now time.Time) IssueRecordResponse {
	return IssueRecordResponse{
		ID:                   r.ID,
		IssueRequestID:       r.IssueRequestID,
		UserID:               r.UserID,
		UserName:             r.User.FullName,
		ItemID:               r.ItemID,
		ItemManualID:         r.Item.ManualID,
		ItemName:             r.Item.Name,
		DepartmentID:         r.DepartmentID,
		IssueDate:            r.IssueDate,
		ExpectedReturnDate:   r.ExpectedReturnDate,
		ActualReturnDate:     r.ActualReturnDate,
		ReturnCondition:      r.ReturnCondition,
		DamageRemarks:        r.DamageRemarks,
		IsPendingReplacement: r.IsPendingReplacement,
		IsOverdue:            r.IsOverdue(now),
		DaysOverdue:          r.DaysOverdue(now),
		CreatedAt:            r.CreatedAt,
	}
}
