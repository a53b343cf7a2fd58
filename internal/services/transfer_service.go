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

// CreateTransferInput is the payload for a new transfer request
type CreateTransferInput struct {
	ItemID         uint   `json:"item_id" binding:"required"`
	ToDepartmentID uint   `json:"to_department_id" binding:"required"`
	Quantity       int    `json:"quantity"`
	Purpose        string `json:"purpose" binding:"required"`
}

// TransferService implements the inter-department transfer workflow.
type TransferService struct {
	transferRepo repository.TransferRepository
	itemRepo     repository.ItemRepository
	deptRepo     repository.DepartmentRepository
	notifySvc    *NotificationService
	auditSvc     *AuditService
	worker       *jobs.Worker
}

// NewTransferService creates a new transfer service
func NewTransferService(
	transferRepo repository.TransferRepository,
	itemRepo repository.ItemRepository,
	deptRepo repository.DepartmentRepository,
	notifySvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *TransferService {
	return &TransferService{
		transferRepo: transferRepo,
		itemRepo:     itemRepo,
		deptRepo:     deptRepo,
		notifySvc:    notifySvc,
		auditSvc:     auditSvc,
		worker:       worker,
	}
}

// GetByID returns one transfer with its associations loaded
func (s *TransferService) GetByID(ctx context.Context, id uint) (*models.TransferRequest, error) {
	transfer, err := s.transferRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return transfer, nil
}

// List returns transfers matching the query
func (s *TransferService) List(ctx context.Context, query *repository.TransferQuery) ([]models.TransferRequest, int64, error) {
	return s.transferRepo.List(ctx, query)
}

// Create submits a transfer request for an item the actor's department owns.
// Quantity only applies to consumables; a non-consumable always moves as a
// single unit.
func (s *TransferService) Create(ctx context.Context, actor *models.User, input CreateTransferInput) (*models.TransferRequest, error) {
	item, err := s.itemRepo.FindByIDWithDetails(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, input.ItemID)
		}
		return nil, err
	}
	if !actor.IsAdmin() && actor.Role != models.RoleProcurement && !actor.InchargeOf(item.DepartmentID) {
		return nil, ErrForbidden
	}
	if input.ToDepartmentID == item.DepartmentID {
		return nil, fmt.Errorf("%w: item is already in that department", ErrValidation)
	}
	if _, err := s.deptRepo.FindByID(ctx, input.ToDepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: department %d", ErrNotFound, input.ToDepartmentID)
		}
		return nil, err
	}

	quantity := input.Quantity
	if item.IsConsumable {
		if quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		if item.CurrentStock == nil || *item.CurrentStock < quantity {
			return nil, ErrInsufficientStock
		}
	} else {
		if quantity > 1 {
			return nil, fmt.Errorf("%w: non-consumables transfer one unit at a time", ErrValidation)
		}
		quantity = 1
		if !item.IsAvailable() {
			return nil, ErrItemNotAvailable
		}
		hasOpen, err := s.transferRepo.HasOpenForItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		if hasOpen {
			return nil, fmt.Errorf("%w: item already has an open transfer", ErrValidation)
		}
	}

	transfer := &models.TransferRequest{
		ItemID:           item.ID,
		FromDepartmentID: item.DepartmentID,
		ToDepartmentID:   input.ToDepartmentID,
		RequestedBy:      actor.ID,
		Quantity:         quantity,
		Purpose:          input.Purpose,
		Status:           models.TransferStatusPending,
	}
	if err := s.transferRepo.Create(ctx, transfer); err != nil {
		return nil, err
	}
	transfer.Item = *item

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.notifySvc.NotifyIncharges(asyncCtx, input.ToDepartmentID,
			"New transfer request",
			fmt.Sprintf("%s requested a transfer of %s", actor.FullName, item.Name),
			models.NotificationTypeTransferApproved)
	})

	return transfer, nil
}

// Approve accepts a pending transfer on behalf of the receiving department
func (s *TransferService) Approve(ctx context.Context, id uint, actor *models.User, ip, userAgent string) (*models.TransferRequest, error) {
	transfer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(transfer.ToDepartmentID) {
		return nil, ErrForbidden
	}

	// Stock may have been drawn down since the request was filed, so the
	// quantity is checked again against the source's current level.
	item, err := s.itemRepo.FindByIDWithDetails(ctx, transfer.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, transfer.ItemID)
		}
		return nil, err
	}
	if item.IsConsumable && (item.CurrentStock == nil || *item.CurrentStock < transfer.Quantity) {
		return nil, ErrInsufficientStock
	}

	transferFSM := statemachine.NewTransferFSM(transfer)
	if err := transferFSM.Approve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	now := time.Now()
	transfer.ApprovalDate = &now
	transfer.ApprovedBy = &actor.ID
	if err := s.transferRepo.Update(ctx, transfer); err != nil {
		return nil, err
	}

	s.dispatchTransferSideEffects(transfer, actor, "approve",
		fmt.Sprintf("Transfer of %s to %s was approved", transfer.Item.Name, transfer.ToDepartment.Code),
		models.NotificationTypeTransferApproved, ip, userAgent)
	return transfer, nil
}

// Reject declines a pending transfer. A non-empty reason is required.
func (s *TransferService) Reject(ctx context.Context, id uint, actor *models.User, reason, ip, userAgent string) (*models.TransferRequest, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	transfer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(transfer.ToDepartmentID) {
		return nil, ErrForbidden
	}

	transferFSM := statemachine.NewTransferFSM(transfer)
	if err := transferFSM.Reject(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	transfer.RejectionReason = &reason
	if err := s.transferRepo.Update(ctx, transfer); err != nil {
		return nil, err
	}

	s.dispatchTransferSideEffects(transfer, actor, "reject",
		fmt.Sprintf("Transfer of %s was rejected: %s", transfer.Item.Name, reason),
		models.NotificationTypeTransferRejected, ip, userAgent)
	return transfer, nil
}

// Complete moves custody for an approved transfer. The inventory writes and
// the status change commit in one transaction inside the repository.
func (s *TransferService) Complete(ctx context.Context, id uint, actor *models.User, ip, userAgent string) (*models.TransferRequest, error) {
	transfer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(transfer.FromDepartmentID) && !actor.InchargeOf(transfer.ToDepartmentID) {
		return nil, ErrForbidden
	}
	if !transfer.MayComplete() {
		return nil, fmt.Errorf("%w: transfer is %s, expected %s",
			ErrInvalidState, transfer.Status, models.TransferStatusApproved)
	}

	completed, err := s.transferRepo.Complete(ctx, transfer.ID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotAvailable):
			return nil, ErrItemNotAvailable
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, ErrInsufficientStock
		}
		return nil, err
	}
	completed.Item = transfer.Item
	completed.FromDepartment = transfer.FromDepartment
	completed.ToDepartment = transfer.ToDepartment
	completed.Requester = transfer.Requester

	s.dispatchTransferSideEffects(completed, actor, "complete",
		fmt.Sprintf("Transfer of %s to %s is complete", completed.Item.Name, completed.ToDepartment.Code),
		models.NotificationTypeTransferCompleted, ip, userAgent)
	return completed, nil
}

// Cancel lets the requester withdraw a pending transfer
func (s *TransferService) Cancel(ctx context.Context, id uint, actor *models.User, ip, userAgent string) (*models.TransferRequest, error) {
	transfer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.RequestedBy != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	transferFSM := statemachine.NewTransferFSM(transfer)
	if err := transferFSM.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.transferRepo.Update(ctx, transfer); err != nil {
		return nil, err
	}

	transferCopy := *transfer
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "cancel", "TransferRequest", transferCopy.ID, "", ip, userAgent)
	})
	return transfer, nil
}

func (s *TransferService) dispatchTransferSideEffects(transfer *models.TransferRequest, actor *models.User, action, message, notifType, ip, userAgent string) {
	transferCopy := *transfer
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, action, "TransferRequest", transferCopy.ID, "", ip, userAgent); err != nil {
			return err
		}
		return s.notifySvc.NotifyUser(asyncCtx, transferCopy.RequestedBy, "Transfer update", message, notifType)
	})
}
