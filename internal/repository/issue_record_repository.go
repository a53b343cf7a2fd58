package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rmejia/labtrack-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Precondition failures surfaced by the transactional paths. The service layer
// translates these into its own error taxonomy.
var (
	ErrRecordAlreadyReturned = errors.New("issue record already returned")
	ErrItemNotAvailable      = errors.New("item is not available")
	ErrRequestAlreadyIssued  = errors.New("request already has an issue record")
)

// ReturnApplication carries every write of one processed return. The decision
// logic upstream computes it; ApplyReturn persists it atomically.
type ReturnApplication struct {
	RecordID             uint
	ReturnedAt           time.Time
	ReturnCondition      string
	DamageRemarks        *string
	IsPendingReplacement bool
	ReturnedTo           uint

	ItemStatus    string
	ItemCondition string

	// Ban change; ignored unless BanUser is set. A nil BannedUntil with
	// BanUser means an indefinite ban.
	BanUser     bool
	BannedUntil *time.Time
	BanReason   *string
}

// IssueRecordRepository defines the interface for issue record data access
type IssueRecordRepository interface {
	FindByID(ctx context.Context, id uint) (*models.IssueRecord, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.IssueRecord, error)
	List(ctx context.Context, query *IssueQuery) ([]models.IssueRecord, int64, error)
	FindOverdueOutstanding(ctx context.Context, asOf time.Time) ([]models.IssueRecord, error)
	IssueApproved(ctx context.Context, record *models.IssueRecord) error
	ApplyReturn(ctx context.Context, app *ReturnApplication) (*models.IssueRecord, error)
}

// IssueQuery extends ListQuery with issue-record filters
type IssueQuery struct {
	*ListQuery
	UserID          uint
	DepartmentID    uint
	OutstandingOnly bool
	OverdueOnly     bool
}

type issueRecordRepository struct {
	db *gorm.DB
}

// NewIssueRecordRepository creates a new issue record repository
func NewIssueRecordRepository(db *gorm.DB) IssueRecordRepository {
	return &issueRecordRepository{db: db}
}

func (r *issueRecordRepository) FindByID(ctx context.Context, id uint) (*models.IssueRecord, error) {
	var record models.IssueRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *issueRecordRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.IssueRecord, error) {
	var record models.IssueRecord
	err := r.db.WithContext(ctx).
		Joins("User").
		Joins("Item").
		Joins("Department").
		Preload("IssueRequest").
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *issueRecordRepository) List(ctx context.Context, query *IssueQuery) ([]models.IssueRecord, int64, error) {
	var records []models.IssueRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&models.IssueRecord{})

	if query.UserID > 0 {
		db = db.Where("issue_records.user_id = ?", query.UserID)
	}
	if query.DepartmentID > 0 {
		db = db.Where("issue_records.department_id = ?", query.DepartmentID)
	}
	if query.OutstandingOnly {
		db = db.Where("issue_records.actual_return_date IS NULL")
	}
	if query.OverdueOnly {
		db = db.Where("issue_records.actual_return_date IS NULL AND issue_records.expected_return_date < ?", time.Now())
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN users ON users.id = issue_records.user_id").
			Joins("LEFT JOIN items ON items.id = issue_records.item_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ? OR items.name ILIKE ? OR items.manual_id ILIKE ?",
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
		db = db.Order("issue_records.expected_return_date ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("User").Preload("Item").Preload("Item.Department").Find(&records).Error
	return records, total, err
}

func (r *issueRecordRepository) FindOverdueOutstanding(ctx context.Context, asOf time.Time) ([]models.IssueRecord, error) {
	var records []models.IssueRecord
	err := r.db.WithContext(ctx).
		Where("actual_return_date IS NULL AND expected_return_date < ?", asOf).
		Preload("User").
		Preload("Item").
		Find(&records).Error
	return records, err
}

// IssueApproved creates the loan record for an approved request. The item is
// re-claimed with a conditional update inside the transaction, so a request
// approved against an item that was issued, transferred or retired in the
// meantime loses cleanly instead of double-issuing.
func (r *issueRecordRepository) IssueApproved(ctx context.Context, record *models.IssueRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One record per request, ever
		var existing int64
		if err := tx.Model(&models.IssueRecord{}).
			Where("issue_request_id = ?", record.IssueRequestID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrRequestAlreadyIssued
		}

		// Claim the item: status must still be available at this instant
		claim := tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", record.ItemID, models.ItemStatusAvailable).
			Update("status", models.ItemStatusIssued)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrItemNotAvailable
		}

		return tx.Create(record).Error
	})
}

// ApplyReturn persists one processed return atomically: the issue record, the
// item's status/condition and any ban change all commit together or not at
// all. The outstanding precondition is re-checked under a row lock, so of two
// concurrent returns exactly one wins and the other sees
// ErrRecordAlreadyReturned.
func (r *issueRecordRepository) ApplyReturn(ctx context.Context, app *ReturnApplication) (*models.IssueRecord, error) {
	var record models.IssueRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, app.RecordID).Error; err != nil {
			return err
		}
		if record.ActualReturnDate != nil {
			return ErrRecordAlreadyReturned
		}

		record.ActualReturnDate = &app.ReturnedAt
		record.ReturnCondition = &app.ReturnCondition
		record.DamageRemarks = app.DamageRemarks
		record.IsPendingReplacement = app.IsPendingReplacement
		if app.ReturnedTo > 0 {
			record.ReturnedTo = &app.ReturnedTo
		}
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Item{}).
			Where("id = ?", record.ItemID).
			Updates(map[string]interface{}{
				"status":    app.ItemStatus,
				"condition": app.ItemCondition,
			}).Error; err != nil {
			return err
		}

		if app.BanUser {
			if err := tx.Model(&models.User{}).
				Where("id = ?", record.UserID).
				Updates(map[string]interface{}{
					"is_banned":    true,
					"banned_until": app.BannedUntil,
					"ban_reason":   app.BanReason,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}
