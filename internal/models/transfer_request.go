package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferRequest represents a request to move an item between departments
type TransferRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	GUID             string     `gorm:"uniqueIndex;size:36" json:"guid"`
	ItemID           uint       `gorm:"not null;index" json:"item_id"`
	FromDepartmentID uint       `gorm:"not null;index" json:"from_department_id"`
	ToDepartmentID   uint       `gorm:"not null;index" json:"to_department_id"`
	RequestedBy      uint       `gorm:"not null;index" json:"requested_by"`
	Quantity         int        `gorm:"default:1" json:"quantity"`
	Purpose          string     `gorm:"type:text" json:"purpose"`
	Status           string     `gorm:"default:pending;index" json:"status"`
	RequestDate      time.Time  `json:"request_date"`
	ApprovalDate     *time.Time `json:"approval_date"`
	ApprovedBy       *uint      `json:"approved_by"`
	CompletedAt      *time.Time `json:"completed_at"`
	RejectionReason  *string    `gorm:"type:text" json:"rejection_reason"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	Item           Item       `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	FromDepartment Department `gorm:"foreignKey:FromDepartmentID" json:"from_department,omitempty"`
	ToDepartment   Department `gorm:"foreignKey:ToDepartmentID" json:"to_department,omitempty"`
	Requester      User       `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
}

// TableName specifies the table name for TransferRequest
func (TransferRequest) TableName() string {
	return "transfer_requests"
}

// BeforeCreate hook assigns GUID and request date
func (t *TransferRequest) BeforeCreate(tx *gorm.DB) error {
	if t.GUID == "" {
		t.GUID = uuid.NewString()
	}
	if t.RequestDate.IsZero() {
		t.RequestDate = time.Now()
	}
	return nil
}

// Transfer status constants
const (
	TransferStatusPending   = "pending"
	TransferStatusApproved  = "approved"
	TransferStatusRejected  = "rejected"
	TransferStatusCompleted = "completed"
	TransferStatusCancelled = "cancelled"
)

// MayApprove returns true if transfer can be approved
func (t *TransferRequest) MayApprove() bool {
	return t.Status == TransferStatusPending
}

// MayReject returns true if transfer can be rejected
func (t *TransferRequest) MayReject() bool {
	return t.Status == TransferStatusPending
}

// MayComplete returns true if transfer can be completed
func (t *TransferRequest) MayComplete() bool {
	return t.Status == TransferStatusApproved
}

// MayCancel returns true if transfer can be cancelled
func (t *TransferRequest) MayCancel() bool {
	return t.Status == TransferStatusPending
}

// TransferRequestResponse is the JSON response format for transfer requests
type TransferRequestResponse struct {
	ID              uint       `json:"id"`
	GUID            string     `json:"guid"`
	ItemID          uint       `json:"item_id"`
	ItemManualID    string     `json:"item_manual_id"`
	ItemName        string     `json:"item_name"`
	FromDepartment  string     `json:"from_department"`
	ToDepartment    string     `json:"to_department"`
	RequestedBy     uint       `json:"requested_by"`
	RequesterName   string     `json:"requester_name"`
	Quantity        int        `json:"quantity"`
	Purpose         string     `json:"purpose"`
	Status          string     `json:"status"`
	RequestDate     time.Time  `json:"request_date"`
	ApprovalDate    *time.Time `json:"approval_date"`
	CompletedAt     *time.Time `json:"completed_at"`
	RejectionReason *string    `json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToResponse converts TransferRequest to TransferRequestResponse
func (t *TransferRequest) ToResponse() TransferRequestResponse {
	return TransferRequestResponse{
		ID:              t.ID,
		GUID:            t.GUID,
		ItemID:          t.ItemID,
		ItemManualID:    t.Item.ManualID,
		ItemName:        t.Item.Name,
		FromDepartment:  t.FromDepartment.Code,
		ToDepartment:    t.ToDepartment.Code,
		RequestedBy:     t.RequestedBy,
		RequesterName:   t.Requester.FullName,
		Quantity:        t.Quantity,
		Purpose:         t.Purpose,
		Status:          t.Status,
		RequestDate:     t.RequestDate,
		ApprovalDate:    t.ApprovalDate,
		CompletedAt:     t.CompletedAt,
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt,
	}
}
