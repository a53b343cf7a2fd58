package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/statemachine"
	"gorm.io/gorm"
)

// CreateRequestInput is the payload for a new borrow request
type CreateRequestInput struct {
	ItemID        uint   `json:"item_id" binding:"required"`
	Purpose       string `json:"purpose" binding:"required"`
	RequestedDays int    `json:"requested_days" binding:"required,min=1"`
}

// RequestService implements the borrow-request workflow: creation, the
// pending → approved/rejected/cancelled transitions and the eligibility rules
// that gate approval.
type RequestService struct {
	requestRepo repository.IssueRequestRepository
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	settingSvc  *SettingService
	notifySvc   *NotificationService
	emailSvc    *EmailService
	auditSvc    *AuditService
	worker      *jobs.Worker
}

// NewRequestService creates a new request service
func NewRequestService(
	requestRepo repository.IssueRequestRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	settingSvc *SettingService,
	notifySvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		settingSvc:  settingSvc,
		notifySvc:   notifySvc,
		emailSvc:    emailSvc,
		auditSvc:    auditSvc,
		worker:      worker,
	}
}

// GetByID returns one request with its associations loaded
func (s *RequestService) GetByID(ctx context.Context, id uint) (*models.IssueRequest, error) {
	request, err := s.requestRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

// List returns requests matching the query
func (s *RequestService) List(ctx context.Context, query *repository.RequestQuery) ([]models.IssueRequest, int64, error) {
	return s.requestRepo.List(ctx, query)
}

// Create submits a new borrow request. Banned users are rejected up front on
// the stored flag alone: an expired timed ban still blocks until something
// clears it, which matches how approvals behave (see checkEligibility). When
// the requester's role does not require approval the request is approved in
// the same call.
func (s *RequestService) Create(ctx context.Context, user *models.User, input CreateRequestInput) (*models.IssueRequest, error) {
	if !user.IsApproved {
		return nil, ErrUserNotApproved
	}
	if !user.IsActive() {
		return nil, ErrForbidden
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}

	item, err := s.itemRepo.FindByIDWithDetails(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, input.ItemID)
		}
		return nil, err
	}
	if item.IsConsumable {
		return nil, fmt.Errorf("%w: consumables cannot be borrowed", ErrValidation)
	}
	if !item.IsAvailable() {
		return nil, ErrItemNotAvailable
	}

	hasOpen, err := s.requestRepo.HasOpenForItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if hasOpen {
		return nil, fmt.Errorf("%w: item already has an open request", ErrValidation)
	}

	policy, err := s.settingSvc.ResolvePolicy(ctx, user.Role)
	if err != nil {
		return nil, err
	}
	if input.RequestedDays > policy.MaxBorrowDays {
		return nil, fmt.Errorf("%w: %s role may borrow for at most %d days",
			ErrValidation, user.Role, policy.MaxBorrowDays)
	}
	if input.RequestedDays > item.Category.MaxBorrowDuration {
		return nil, fmt.Errorf("%w: %s items may be borrowed for at most %d days",
			ErrValidation, item.Category.Name, item.Category.MaxBorrowDuration)
	}

	request := &models.IssueRequest{
		UserID:        user.ID,
		ItemID:        item.ID,
		Purpose:       input.Purpose,
		RequestedDays: input.RequestedDays,
		Status:        models.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	request.User = *user
	request.Item = *item

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.notifySvc.NotifyIncharges(asyncCtx, item.DepartmentID,
			"New borrow request",
			fmt.Sprintf("%s requested %s for %d days", user.FullName, item.Name, input.RequestedDays),
			models.NotificationTypeItemIssued)
	})

	if !policy.RequiresApproval {
		// Exempt roles skip the incharge queue entirely
		if _, err := s.approve(ctx, request, user, nil, "", ""); err != nil {
			return nil, err
		}
	}
	return request, nil
}

// Approve moves a pending request to approved after re-checking eligibility.
// Approval grants permission only; the item stays available until the
// issuance step hands it over.
func (s *RequestService) Approve(ctx context.Context, id uint, actor *models.User, instructions *string, ip, userAgent string) (*models.IssueRequest, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(request.Item.DepartmentID) {
		return nil, ErrForbidden
	}
	return s.approve(ctx, request, actor, instructions, ip, userAgent)
}

func (s *RequestService) approve(ctx context.Context, request *models.IssueRequest, actor *models.User, instructions *string, ip, userAgent string) (*models.IssueRequest, error) {
	if err := s.checkEligibility(ctx, request); err != nil {
		return nil, err
	}

	requestFSM := statemachine.NewIssueRequestFSM(request)
	if err := requestFSM.Approve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	now := time.Now()
	request.ApprovalDate = &now
	request.ApprovedBy = &actor.ID
	request.CollectionInstructions = instructions
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	requestCopy := *request
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, "approve", "IssueRequest", requestCopy.ID, "", ip, userAgent); err != nil {
			return err
		}
		if err := s.notifySvc.NotifyUser(asyncCtx, requestCopy.UserID,
			"Request approved",
			fmt.Sprintf("Your request for %s has been approved", requestCopy.Item.Name),
			models.NotificationTypeRequestApproved); err != nil {
			return err
		}
		return s.emailSvc.SendRequestApproved(asyncCtx, &requestCopy)
	})

	return request, nil
}

// Reject moves a pending request to rejected. A non-empty reason is required.
func (s *RequestService) Reject(ctx context.Context, id uint, actor *models.User, reason, ip, userAgent string) (*models.IssueRequest, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(request.Item.DepartmentID) {
		return nil, ErrForbidden
	}

	requestFSM := statemachine.NewIssueRequestFSM(request)
	if err := requestFSM.Reject(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	request.RejectionReason = &reason
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	requestCopy := *request
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, "reject", "IssueRequest", requestCopy.ID,
			fmt.Sprintf(`{"reason":%q}`, reason), ip, userAgent); err != nil {
			return err
		}
		if err := s.notifySvc.NotifyUser(asyncCtx, requestCopy.UserID,
			"Request rejected",
			fmt.Sprintf("Your request for %s was rejected: %s", requestCopy.Item.Name, reason),
			models.NotificationTypeRequestRejected); err != nil {
			return err
		}
		return s.emailSvc.SendRequestRejected(asyncCtx, &requestCopy)
	})

	return request, nil
}

// Cancel lets the owning user withdraw a pending request
func (s *RequestService) Cancel(ctx context.Context, id uint, actor *models.User, ip, userAgent string) (*models.IssueRequest, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.UserID != actor.ID {
		return nil, ErrForbidden
	}

	requestFSM := statemachine.NewIssueRequestFSM(request)
	if err := requestFSM.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	requestCopy := *request
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "cancel", "IssueRequest", requestCopy.ID, "", ip, userAgent)
	})

	return request, nil
}

// checkEligibility re-runs the approval-time business rules. Note the ban
// check reads the stored flag only and does not compare banned_until against
// the clock: a user whose timed ban has lapsed stays blocked until an admin
// revoke or a later return touches the row.
func (s *RequestService) checkEligibility(ctx context.Context, request *models.IssueRequest) error {
	if !request.Item.IsAvailable() {
		return ErrItemNotAvailable
	}

	requester, err := s.userRepo.FindByID(ctx, request.UserID)
	if err != nil {
		return err
	}
	if requester.IsBanned {
		return ErrUserBanned
	}

	policy, err := s.settingSvc.ResolvePolicy(ctx, requester.Role)
	if err != nil {
		return err
	}
	open, err := s.requestRepo.CountOpenForUser(ctx, request.UserID)
	if err != nil {
		return err
	}
	if open >= int64(policy.MaxItems) {
		return fmt.Errorf("%w: %s role may hold at most %d items", ErrBorrowLimit, requester.Role, policy.MaxItems)
	}

	if request.RequestedDays > request.Item.Category.MaxBorrowDuration {
		return fmt.Errorf("%w: %s items may be borrowed for at most %d days",
			ErrValidation, request.Item.Category.Name, request.Item.Category.MaxBorrowDuration)
	}

	return nil
}
