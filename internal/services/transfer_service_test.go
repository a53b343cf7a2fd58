package services

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockTransferRepo struct {
	repository.TransferRepository
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.TransferRequest, error)
	mockHasOpenForItem      func(ctx context.Context, itemID uint) (bool, error)
	mockUpdate              func(ctx context.Context, transfer *models.TransferRequest) error
}

func (m *mockTransferRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.TransferRequest, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockTransferRepo) HasOpenForItem(ctx context.Context, itemID uint) (bool, error) {
	return m.mockHasOpenForItem(ctx, itemID)
}

func (m *mockTransferRepo) Update(ctx context.Context, transfer *models.TransferRequest) error {
	return m.mockUpdate(ctx, transfer)
}

func consumableItem(stock int) *models.Item {
	return &models.Item{
		ID:           3,
		Name:         "Solder wire",
		ManualID:     "PHY-044",
		DepartmentID: 2,
		Status:       models.ItemStatusAvailable,
		Condition:    models.ConditionNew,
		IsConsumable: true,
		CurrentStock: &stock,
	}
}

func transferAdmin() *models.User {
	return &models.User{ID: 1, Role: models.RoleAdmin, FullName: "Admin"}
}

func TestTransferService_Reject_EmptyReason(t *testing.T) {
	// Nil repos: the reason check must fail before any lookup or write
	service := NewTransferService(nil, nil, nil, nil, nil, nil)

	_, err := service.Reject(context.Background(), 1, transferAdmin(), "", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransferService_Create_QuantityExceedsStock(t *testing.T) {
	itemRepo := &mockItemRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Item, error) {
			return consumableItem(10), nil
		},
	}
	service := NewTransferService(&mockTransferRepo{}, itemRepo, &itemDeptRepo{}, nil, nil, nil)

	_, err := service.Create(context.Background(), transferAdmin(), CreateTransferInput{
		ItemID: 3, ToDepartmentID: 5, Quantity: 50, Purpose: "restock",
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestTransferService_Create_ConsumableNeedsPositiveQuantity(t *testing.T) {
	itemRepo := &mockItemRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Item, error) {
			return consumableItem(10), nil
		},
	}
	service := NewTransferService(&mockTransferRepo{}, itemRepo, &itemDeptRepo{}, nil, nil, nil)

	_, err := service.Create(context.Background(), transferAdmin(), CreateTransferInput{
		ItemID: 3, ToDepartmentID: 5, Quantity: 0, Purpose: "restock",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransferService_Create_OneOpenTransferPerItem(t *testing.T) {
	itemRepo := &mockItemRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Item, error) {
			return borrowableItem(), nil
		},
	}
	transferRepo := &mockTransferRepo{
		mockHasOpenForItem: func(ctx context.Context, itemID uint) (bool, error) {
			return true, nil
		},
	}
	service := NewTransferService(transferRepo, itemRepo, &itemDeptRepo{}, nil, nil, nil)

	_, err := service.Create(context.Background(), transferAdmin(), CreateTransferInput{
		ItemID: 3, ToDepartmentID: 5, Purpose: "relocation",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransferService_Create_SameDepartment(t *testing.T) {
	itemRepo := &mockItemRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Item, error) {
			return borrowableItem(), nil // owned by department 2
		},
	}
	service := NewTransferService(&mockTransferRepo{}, itemRepo, &itemDeptRepo{}, nil, nil, nil)

	_, err := service.Create(context.Background(), transferAdmin(), CreateTransferInput{
		ItemID: 3, ToDepartmentID: 2, Purpose: "relocation",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransferService_Approve_RechecksStock(t *testing.T) {
	// Stock was sufficient when the request was filed but has since dropped
	transfer := &models.TransferRequest{
		ID:               8,
		ItemID:           3,
		FromDepartmentID: 2,
		ToDepartmentID:   5,
		Quantity:         50,
		Status:           models.TransferStatusPending,
	}
	transferRepo := &mockTransferRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.TransferRequest, error) {
			return transfer, nil
		},
	}
	itemRepo := &mockItemRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Item, error) {
			return consumableItem(10), nil
		},
	}
	service := NewTransferService(transferRepo, itemRepo, &itemDeptRepo{}, nil, nil, nil)

	_, err := service.Approve(context.Background(), 8, transferAdmin(), "", "")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, models.TransferStatusPending, transfer.Status, "failed approval must not advance the transfer")
}
