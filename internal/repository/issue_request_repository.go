package repository

import (
	"context"

	"github.com/rmejia/labtrack-api/internal/models"
	"gorm.io/gorm"
)

// IssueRequestRepository defines the interface for borrow request data access
type IssueRequestRepository interface {
	FindByID(ctx context.Context, id uint) (*models.IssueRequest, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.IssueRequest, error)
	Create(ctx context.Context, request *models.IssueRequest) error
	Update(ctx context.Context, request *models.IssueRequest) error
	List(ctx context.Context, query *RequestQuery) ([]models.IssueRequest, int64, error)
	CountOpenForUser(ctx context.Context, userID uint) (int64, error)
	HasOpenForItem(ctx context.Context, itemID uint) (bool, error)
}

// RequestQuery extends ListQuery with request-specific filters
type RequestQuery struct {
	*ListQuery
	UserID       uint
	DepartmentID uint
	Status       string
}

type issueRequestRepository struct {
	db *gorm.DB
}

// NewIssueRequestRepository creates a new issue request repository
func NewIssueRequestRepository(db *gorm.DB) IssueRequestRepository {
	return &issueRequestRepository{db: db}
}

func (r *issueRequestRepository) FindByID(ctx context.Context, id uint) (*models.IssueRequest, error) {
	var request models.IssueRequest
	err := r.db.WithContext(ctx).First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *issueRequestRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.IssueRequest, error) {
	var request models.IssueRequest
	err := r.db.WithContext(ctx).
		Joins("User").
		Joins("Item").
		Preload("Item.Category").
		Preload("Item.Department").
		Preload("Record").
		First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *issueRequestRepository) Create(ctx context.Context, request *models.IssueRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *issueRequestRepository) Update(ctx context.Context, request *models.IssueRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *issueRequestRepository) List(ctx context.Context, query *RequestQuery) ([]models.IssueRequest, int64, error) {
	var requests []models.IssueRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&models.IssueRequest{})

	// Scope to the requesting user (non-staff callers)
	if query.UserID > 0 {
		db = db.Where("issue_requests.user_id = ?", query.UserID)
	}

	// Scope to a department (incharge callers)
	if query.DepartmentID > 0 {
		db = db.Joins("JOIN items ON items.id = issue_requests.item_id").
			Where("items.department_id = ?", query.DepartmentID)
	}

	if query.Status != "" {
		db = db.Where("issue_requests.status = ?", query.Status)
	}

	if val, ok := query.Filters["guid"]; ok && val != "" {
		db = db.Where("issue_requests.guid = ?", val)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN users ON users.id = issue_requests.user_id").
			Joins("LEFT JOIN items AS search_items ON search_items.id = issue_requests.item_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ? OR search_items.name ILIKE ? OR search_items.manual_id ILIKE ?",
				search, search, search, search)
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
		db = db.Order("issue_requests.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("User").Preload("Item").Preload("Item.Department").Find(&requests).Error
	return requests, total, err
}

// CountOpenForUser returns the number of loans the user currently holds open:
// outstanding issue records plus approved requests awaiting collection. This
// is the count checked against the role's max-items limit.
func (r *issueRequestRepository) CountOpenForUser(ctx context.Context, userID uint) (int64, error) {
	var outstanding int64
	err := r.db.WithContext(ctx).
		Model(&models.IssueRecord{}).
		Where("user_id = ? AND actual_return_date IS NULL", userID).
		Count(&outstanding).Error
	if err != nil {
		return 0, err
	}

	var awaiting int64
	err = r.db.WithContext(ctx).
		Model(&models.IssueRequest{}).
		Joins("LEFT JOIN issue_records ON issue_records.issue_request_id = issue_requests.id").
		Where("issue_requests.user_id = ? AND issue_requests.status = ? AND issue_records.id IS NULL",
			userID, models.RequestStatusApproved).
		Count(&awaiting).Error
	if err != nil {
		return 0, err
	}

	return outstanding + awaiting, nil
}

// HasOpenForItem reports whether an approved request is already waiting on the item
func (r *issueRequestRepository) HasOpenForItem(ctx context.Context, itemID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IssueRequest{}).
		Joins("LEFT JOIN issue_records ON issue_records.issue_request_id = issue_requests.id").
		Where("issue_requests.item_id = ? AND issue_requests.status = ? AND issue_records.id IS NULL",
			itemID, models.RequestStatusApproved).
		Count(&count).Error
	return count > 0, err
}
