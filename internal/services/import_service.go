package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportRowError describes one rejected spreadsheet row
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Created int              `json:"created"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportService loads inventory from an uploaded spreadsheet. Expected
// columns: Name, Description, Category, Department Code, Condition,
// Consumable, Stock, Min Stock. The first row is the header.
type ImportService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	deptRepo     repository.DepartmentRepository
	auditSvc     *AuditService
	worker       *jobs.Worker
}

// NewImportService creates a new import service
func NewImportService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	deptRepo repository.DepartmentRepository,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *ImportService {
	return &ImportService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		deptRepo:     deptRepo,
		auditSvc:     auditSvc,
		worker:       worker,
	}
}

// ImportItemsXLSX parses and inserts the spreadsheet. Validation failures are
// collected per row and the whole file is rejected when any row is bad, so a
// re-upload never half-applies.
func (s *ImportService) ImportItemsXLSX(ctx context.Context, reader io.Reader, actor *models.User) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read spreadsheet: %v", ErrValidation, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read sheet %q: %v", ErrValidation, sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: spreadsheet has no data rows", ErrValidation)
	}

	result := &ImportResult{}
	var items []models.Item
	// Caches keyed by name/code so each lookup hits the database once
	categories := map[string]*models.Category{}
	departments := map[string]*models.Department{}

	for i, row := range rows[1:] {
		rowNum := i + 2
		item, err := s.parseRow(ctx, row, categories, departments)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		items = append(items, *item)
	}

	if len(result.Errors) > 0 {
		return result, fmt.Errorf("%w: %d row(s) failed validation", ErrValidation, len(result.Errors))
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no data rows", ErrValidation)
	}

	if err := s.itemRepo.BulkCreate(ctx, items); err != nil {
		return nil, err
	}
	result.Created = len(items)

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "import", "Item", 0,
			fmt.Sprintf(`{"rows":%d}`, result.Created), "", "")
	})

	return result, nil
}

func (s *ImportService) parseRow(ctx context.Context, row []string, categories map[string]*models.Category, departments map[string]*models.Department) (*models.Item, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := cell(0)
	if name == "" {
		return nil, errors.New("name is required")
	}

	categoryName := cell(2)
	if categoryName == "" {
		return nil, errors.New("category is required")
	}
	category, ok := categories[strings.ToLower(categoryName)]
	if !ok {
		found, err := s.categoryRepo.FindByName(ctx, categoryName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("unknown category %q", categoryName)
			}
			return nil, err
		}
		category = found
		categories[strings.ToLower(categoryName)] = found
	}

	deptCode := cell(3)
	if deptCode == "" {
		return nil, errors.New("department code is required")
	}
	dept, ok := departments[strings.ToUpper(deptCode)]
	if !ok {
		found, err := s.deptRepo.FindByCode(ctx, deptCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("unknown department code %q", deptCode)
			}
			return nil, err
		}
		dept = found
		departments[strings.ToUpper(deptCode)] = found
	}

	condition := cell(4)
	if condition == "" {
		condition = models.ConditionGood
	}
	if !models.IsValidCondition(condition) {
		return nil, fmt.Errorf("unknown condition %q", condition)
	}

	isConsumable := false
	if raw := cell(5); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("consumable must be true or false, got %q", raw)
		}
		isConsumable = b
	}

	item := &models.Item{
		Name:         name,
		CategoryID:   category.ID,
		DepartmentID: dept.ID,
		Status:       models.ItemStatusAvailable,
		Condition:    condition,
		IsConsumable: isConsumable,
	}
	if desc := cell(1); desc != "" {
		item.Description = &desc
	}

	if isConsumable {
		stockRaw := cell(6)
		if stockRaw == "" {
			return nil, errors.New("consumables need a stock value")
		}
		stock, err := strconv.Atoi(stockRaw)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock %q", stockRaw)
		}
		item.CurrentStock = &stock

		minRaw := cell(7)
		if minRaw == "" {
			return nil, errors.New("consumables need a min stock value")
		}
		min, err := strconv.Atoi(minRaw)
		if err != nil || min < 0 {
			return nil, fmt.Errorf("invalid min stock %q", minRaw)
		}
		item.MinStockLevel = &min
	}

	return item, nil
}
