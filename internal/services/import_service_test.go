package services

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func importCaches() (map[string]*models.Category, map[string]*models.Department) {
	categories := map[string]*models.Category{
		"electronics": {ID: 1, Name: "Electronics", MaxBorrowDuration: 30},
	}
	departments := map[string]*models.Department{
		"PHY": {ID: 2, Name: "Physics", Code: "PHY"},
	}
	return categories, departments
}

func TestImportService_ParseRow(t *testing.T) {
	// Pre-seeded caches keep parseRow off the repositories entirely
	service := NewImportService(nil, nil, nil, nil, nil)
	categories, departments := importCaches()

	tests := []struct {
		name    string
		row     []string
		wantErr string
	}{
		{
			name: "complete row",
			row:  []string{"Oscilloscope", "100 MHz dual channel", "Electronics", "PHY", "good", "false", "", ""},
		},
		{
			name: "condition defaults to good",
			row:  []string{"Multimeter", "", "electronics", "PHY"},
		},
		{
			name: "consumable with stock",
			row:  []string{"Solder wire", "", "Electronics", "PHY", "new", "true", "120", "20"},
		},
		{
			name:    "missing name",
			row:     []string{"", "", "Electronics", "PHY"},
			wantErr: "name is required",
		},
		{
			name:    "missing category",
			row:     []string{"Beaker", "", "", "PHY"},
			wantErr: "category is required",
		},
		{
			name:    "unknown condition",
			row:     []string{"Beaker", "", "Electronics", "PHY", "mint"},
			wantErr: "unknown condition",
		},
		{
			name:    "bad consumable flag",
			row:     []string{"Beaker", "", "Electronics", "PHY", "good", "maybe"},
			wantErr: "consumable must be true or false",
		},
		{
			name:    "consumable without stock",
			row:     []string{"Solder wire", "", "Electronics", "PHY", "new", "true"},
			wantErr: "consumables need a stock value",
		},
		{
			name:    "consumable without min stock",
			row:     []string{"Solder wire", "", "Electronics", "PHY", "new", "true", "120"},
			wantErr: "consumables need a min stock value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := service.parseRow(context.Background(), tt.row, categories, departments)

			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, uint(1), item.CategoryID)
			assert.Equal(t, uint(2), item.DepartmentID)
			assert.Equal(t, models.ItemStatusAvailable, item.Status)
		})
	}
}

func TestImportService_ParseRow_ConsumableStock(t *testing.T) {
	service := NewImportService(nil, nil, nil, nil, nil)
	categories, departments := importCaches()

	item, err := service.parseRow(context.Background(),
		[]string{"Solder wire", "", "Electronics", "PHY", "new", "true", "120", "20"},
		categories, departments)

	assert.NoError(t, err)
	assert.True(t, item.IsConsumable)
	assert.Equal(t, 120, *item.CurrentStock)
	assert.Equal(t, 20, *item.MinStockLevel)
}
