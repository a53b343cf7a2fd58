package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/services"
	"github.com/stretchr/testify/assert"
)

type mockItemRepo struct {
	repository.ItemRepository
	mockList                func(ctx context.Context, query *repository.ItemQuery) ([]models.Item, int64, error)
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.Item, error)
	mockFindByManualID      func(ctx context.Context, manualID string) (*models.Item, error)
}

func (m *mockItemRepo) List(ctx context.Context, query *repository.ItemQuery) ([]models.Item, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockItemRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Item, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockItemRepo) FindByManualID(ctx context.Context, manualID string) (*models.Item, error) {
	return m.mockFindByManualID(ctx, manualID)
}

func TestItemHandler_Index_QueryMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockItemRepo{}
	itemService := services.NewItemService(mockRepo, nil, nil, nil, nil, nil)
	handler := NewItemHandler(itemService, nil, nil, nil)

	var captured *repository.ItemQuery
	mockRepo.mockList = func(ctx context.Context, query *repository.ItemQuery) ([]models.Item, int64, error) {
		captured = query
		return []models.Item{}, 0, nil
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/items?department_id=2&category_id=5&status=available&condition=good&search_term=oscillo&page=3&per_page=10", nil)
	handler.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(2), captured.DepartmentID)
	assert.Equal(t, uint(5), captured.CategoryID)
	assert.Equal(t, "available", captured.Status)
	assert.Equal(t, "good", captured.Condition)
	assert.Equal(t, "oscillo", captured.Search)
	assert.Equal(t, 3, captured.Page)
	assert.Equal(t, 10, captured.PerPage)
}

func TestItemHandler_Index_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockItemRepo{}
	itemService := services.NewItemService(mockRepo, nil, nil, nil, nil, nil)
	handler := NewItemHandler(itemService, nil, nil, nil)

	var captured *repository.ItemQuery
	mockRepo.mockList = func(ctx context.Context, query *repository.ItemQuery) ([]models.Item, int64, error) {
		captured = query
		return []models.Item{}, 0, nil
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/items", nil)
	handler.Index(c)

	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, 20, captured.PerPage)
	assert.Zero(t, captured.DepartmentID)
	assert.Zero(t, captured.CategoryID)
}

func TestItemHandler_Show_ManualIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockItemRepo{}
	itemService := services.NewItemService(mockRepo, nil, nil, nil, nil, nil)
	handler := NewItemHandler(itemService, nil, nil, nil)

	item := &models.Item{ID: 9, Name: "Spectrometer", ManualID: "CHM-009"}

	var lookedUpID uint
	var lookedUpManual string
	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Item, error) {
		lookedUpID = id
		return item, nil
	}
	mockRepo.mockFindByManualID = func(ctx context.Context, manualID string) (*models.Item, error) {
		lookedUpManual = manualID
		return item, nil
	}

	// Numeric path segment goes through the primary key
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/items/9", nil)
	c.Params = gin.Params{{Key: "item_id", Value: "9"}}
	handler.Show(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(9), lookedUpID)

	// Anything else is treated as a printed label code
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/items/CHM-009", nil)
	c.Params = gin.Params{{Key: "item_id", Value: "CHM-009"}}
	handler.Show(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CHM-009", lookedUpManual)
}
