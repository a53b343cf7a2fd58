package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueRequest represents a borrow request for an item
type IssueRequest struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	GUID                   string     `gorm:"uniqueIndex;size:36" json:"guid"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	ItemID                 uint       `gorm:"not null;index" json:"item_id"`
	Purpose                string     `gorm:"type:text;not null" json:"purpose"`
	RequestedDays          int        `gorm:"not null" json:"requested_days"`
	Status                 string     `gorm:"default:pending;index" json:"status"`
	RequestDate            time.Time  `json:"request_date"`
	ApprovalDate           *time.Time `json:"approval_date"`
	ApprovedBy             *uint      `json:"approved_by"`
	RejectionReason        *string    `gorm:"type:text" json:"rejection_reason"`
	CollectionInstructions *string    `gorm:"type:text" json:"collection_instructions"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`

	// Associations
	User     User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Item     Item         `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Approver *User        `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	Record   *IssueRecord `gorm:"foreignKey:IssueRequestID" json:"record,omitempty"`
}

// TableName specifies the table name for IssueRequest
func (IssueRequest) TableName() string {
	return "issue_requests"
}

// BeforeCreate hook assigns GUID and request date
func (r *IssueRequest) BeforeCreate(tx *gorm.DB) error {
	if r.GUID == "" {
		r.GUID = uuid.NewString()
	}
	if r.RequestDate.IsZero() {
		r.RequestDate = time.Now()
	}
	return nil
}

// Issue request status constants
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusCancelled = "cancelled"
)

// MayApprove returns true if request can be approved
func (r *IssueRequest) MayApprove() bool {
	return r.Status == RequestStatusPending
}

// MayReject returns true if request can be rejected
func (r *IssueRequest) MayReject() bool {
	return r.Status == RequestStatusPending
}

// MayCancel returns true if request can be cancelled
func (r *IssueRequest) MayCancel() bool {
	return r.Status == RequestStatusPending
}

// IsTerminal returns true once the request can no longer change state
func (r *IssueRequest) IsTerminal() bool {
	return r.Status == RequestStatusApproved ||
		r.Status == RequestStatusRejected ||
		r.Status == RequestStatusCancelled
}

// IssueRequestResponse is the JSON response format for issue requests
type IssueRequestResponse struct {
	ID                     uint       `json:"id"`
	GUID                   string     `json:"guid"`
	UserID                 uint       `json:"user_id"`
	UserName               string     `json:"user_name"`
	UserRole               string     `json:"user_role"`
	ItemID                 uint       `json:"item_id"`
	ItemManualID           string     `json:"item_manual_id"`
	ItemName               string     `json:"item_name"`
	DepartmentID           uint       `json:"department_id"`
	Purpose                string     `json:"purpose"`
	RequestedDays          int        `json:"requested_days"`
	Status                 string     `json:"status"`
	RequestDate            time.Time  `json:"request_date"`
	ApprovalDate           *time.Time `json:"approval_date"`
	RejectionReason        *string    `json:"rejection_reason"`
	CollectionInstructions *string    `json:"collection_instructions"`
	CreatedAt              time.Time  `json:"created_at"`
}

// ToResponse converts IssueRequest to IssueRequestResponse
func (r *IssueRequest) ToResponse() IssueRequestResponse {
	return IssueRequestResponse{
		ID:                     r.ID,
		GUID:                   r.GUID,
		UserID:                 r.UserID,
		UserName:               r.User.FullName,
		UserRole:               r.User.Role,
		ItemID:                 r.ItemID,
		ItemManualID:           r.Item.ManualID,
		ItemName:               r.Item.Name,
		DepartmentID:           r.Item.DepartmentID,
		Purpose:                r.Purpose,
		RequestedDays:          r.RequestedDays,
		Status:                 r.Status,
		RequestDate:            r.RequestDate,
		ApprovalDate:           r.ApprovalDate,
		RejectionReason:        r.RejectionReason,
		CollectionInstructions: r.CollectionInstructions,
		CreatedAt:              r.CreatedAt,
	}
}
