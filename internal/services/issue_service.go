package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// IssueService converts approved requests into active loans and serves the
// loan listings.
type IssueService struct {
	recordRepo  repository.IssueRecordRepository
	requestRepo repository.IssueRequestRepository
	notifySvc   *NotificationService
	auditSvc    *AuditService
	worker      *jobs.Worker
}

// NewIssueService creates a new issue service
func NewIssueService(
	recordRepo repository.IssueRecordRepository,
	requestRepo repository.IssueRequestRepository,
	notifySvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *IssueService {
	return &IssueService{
		recordRepo:  recordRepo,
		requestRepo: requestRepo,
		notifySvc:   notifySvc,
		auditSvc:    auditSvc,
		worker:      worker,
	}
}

// GetByID returns one loan record with its associations loaded
func (s *IssueService) GetByID(ctx context.Context, id uint) (*models.IssueRecord, error) {
	record, err := s.recordRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns loan records matching the query
func (s *IssueService) List(ctx context.Context, query *repository.IssueQuery) ([]models.IssueRecord, int64, error) {
	return s.recordRepo.List(ctx, query)
}

// Issue hands an item over against an approved request. The expected return
// date is the handover time plus the approved days, not the approval time:
// the clock starts when the borrower actually holds the item. The item is
// re-claimed atomically, so a stale approval cannot double-issue it.
func (s *IssueService) Issue(ctx context.Context, requestID uint, actor *models.User, ip, userAgent string) (*models.IssueRecord, error) {
	request, err := s.requestRepo.FindByIDWithDetails(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(request.Item.DepartmentID) {
		return nil, ErrForbidden
	}
	if request.Status != models.RequestStatusApproved {
		return nil, fmt.Errorf("%w: request is %s, expected %s",
			ErrInvalidState, request.Status, models.RequestStatusApproved)
	}

	now := time.Now()
	record := &models.IssueRecord{
		IssueRequestID:     request.ID,
		UserID:             request.UserID,
		ItemID:             request.ItemID,
		DepartmentID:       request.Item.DepartmentID,
		IssueDate:          now,
		ExpectedReturnDate: now.AddDate(0, 0, request.RequestedDays),
		IssuedBy:           &actor.ID,
	}
	if err := s.recordRepo.IssueApproved(ctx, record); err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotAvailable):
			return nil, ErrItemNotAvailable
		case errors.Is(err, repository.ErrRequestAlreadyIssued):
			return nil, fmt.Errorf("%w: request %d already issued", ErrDuplicate, request.ID)
		}
		return nil, err
	}
	record.User = request.User
	record.Item = request.Item

	recordCopy := *record
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, "issue", "IssueRecord", recordCopy.ID, "", ip, userAgent); err != nil {
			return err
		}
		return s.notifySvc.NotifyUser(asyncCtx, recordCopy.UserID,
			"Item issued",
			fmt.Sprintf("%s is due back on %s",
				recordCopy.Item.Name, recordCopy.ExpectedReturnDate.Format("02 Jan 2006")),
			models.NotificationTypeItemIssued)
	})

	return record, nil
}
