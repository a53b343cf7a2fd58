package services

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type itemCategoryRepo struct {
	repository.CategoryRepository
}

func (m *itemCategoryRepo) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	return &models.Category{ID: id, Name: "Electronics", MaxBorrowDuration: 30}, nil
}

type itemDeptRepo struct {
	repository.DepartmentRepository
}

func (m *itemDeptRepo) FindByID(ctx context.Context, id uint) (*models.Department, error) {
	return &models.Department{ID: id, Name: "Physics", Code: "PHY"}, nil
}

func TestItemService_Create_ConsumableNeedsBothStockFields(t *testing.T) {
	service := NewItemService(nil, &itemCategoryRepo{}, &itemDeptRepo{}, nil, nil, nil)
	stock := 120
	minStock := 20

	tests := []struct {
		name  string
		input CreateItemInput
	}{
		{
			name: "no stock fields",
			input: CreateItemInput{
				Name: "Solder wire", CategoryID: 1, DepartmentID: 2, IsConsumable: true,
			},
		},
		{
			name: "missing min stock",
			input: CreateItemInput{
				Name: "Solder wire", CategoryID: 1, DepartmentID: 2, IsConsumable: true,
				CurrentStock: &stock,
			},
		},
		{
			name: "missing current stock",
			input: CreateItemInput{
				Name: "Solder wire", CategoryID: 1, DepartmentID: 2, IsConsumable: true,
				MinStockLevel: &minStock,
			},
		},
	}

	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tt.input, actor)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestItemService_Create_RejectsUnknownCondition(t *testing.T) {
	service := NewItemService(nil, &itemCategoryRepo{}, &itemDeptRepo{}, nil, nil, nil)

	_, err := service.Create(context.Background(), CreateItemInput{
		Name: "Beaker", CategoryID: 1, DepartmentID: 2, Condition: "mint",
	}, &models.User{ID: 1, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrValidation)
}
