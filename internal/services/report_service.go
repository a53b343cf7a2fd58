package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// InventoryStats is the dashboard summary
type InventoryStats struct {
	TotalItems       int64            `json:"total_items"`
	ItemsByStatus    map[string]int64 `json:"items_by_status"`
	OutstandingLoans int64            `json:"outstanding_loans"`
	OverdueLoans     int64            `json:"overdue_loans"`
	PendingRequests  int64            `json:"pending_requests"`
	PendingTransfers int64            `json:"pending_transfers"`
}

// ReportService builds the export documents: overdue CSV, inventory XLSX and
// the printable issue slip PDF.
type ReportService struct {
	itemRepo     repository.ItemRepository
	recordRepo   repository.IssueRecordRepository
	requestRepo  repository.IssueRequestRepository
	transferRepo repository.TransferRepository
}

// NewReportService creates a new report service
func NewReportService(
	itemRepo repository.ItemRepository,
	recordRepo repository.IssueRecordRepository,
	requestRepo repository.IssueRequestRepository,
	transferRepo repository.TransferRepository,
) *ReportService {
	return &ReportService{
		itemRepo:     itemRepo,
		recordRepo:   recordRepo,
		requestRepo:  requestRepo,
		transferRepo: transferRepo,
	}
}

// Stats aggregates the dashboard counters
func (s *ReportService) Stats(ctx context.Context) (*InventoryStats, error) {
	byStatus, err := s.itemRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range byStatus {
		total += n
	}

	_, outstanding, err := s.recordRepo.List(ctx, &repository.IssueQuery{
		ListQuery:       &repository.ListQuery{Page: 1, PerPage: 1},
		OutstandingOnly: true,
	})
	if err != nil {
		return nil, err
	}
	_, overdue, err := s.recordRepo.List(ctx, &repository.IssueQuery{
		ListQuery:   &repository.ListQuery{Page: 1, PerPage: 1},
		OverdueOnly: true,
	})
	if err != nil {
		return nil, err
	}
	_, pendingRequests, err := s.requestRepo.List(ctx, &repository.RequestQuery{
		ListQuery: &repository.ListQuery{Page: 1, PerPage: 1},
		Status:    models.RequestStatusPending,
	})
	if err != nil {
		return nil, err
	}
	_, pendingTransfers, err := s.transferRepo.List(ctx, &repository.TransferQuery{
		ListQuery: &repository.ListQuery{Page: 1, PerPage: 1},
		Status:    models.TransferStatusPending,
	})
	if err != nil {
		return nil, err
	}

	return &InventoryStats{
		TotalItems:       total,
		ItemsByStatus:    byStatus,
		OutstandingLoans: outstanding,
		OverdueLoans:     overdue,
		PendingRequests:  pendingRequests,
		PendingTransfers: pendingTransfers,
	}, nil
}

// OverdueCSV exports every overdue outstanding loan
func (s *ReportService) OverdueCSV(ctx context.Context) ([]byte, string, error) {
	now := time.Now()
	records, err := s.recordRepo.FindOverdueOutstanding(ctx, now)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Overdue Loans Report", now.Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Item", "Manual ID", "Borrower", "Email", "Issued", "Due", "Days Overdue"})

	for _, r := range records {
		_ = writer.Write([]string{
			r.Item.Name,
			r.Item.ManualID,
			r.User.FullName,
			r.User.Email,
			r.IssueDate.Format("2006-01-02"),
			r.ExpectedReturnDate.Format("2006-01-02"),
			fmt.Sprintf("%d", r.DaysOverdue(now)),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("overdue_report_%s.csv", now.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// InventoryXLSX exports the full inventory as a spreadsheet
func (s *ReportService) InventoryXLSX(ctx context.Context) ([]byte, string, error) {
	items, err := s.itemRepo.FindAll(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Inventory"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Manual ID", "Name", "Category", "Department", "Status", "Condition", "Consumable", "Stock", "Min Stock"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, item := range items {
		values := []interface{}{
			item.ManualID,
			item.Name,
			item.Category.Name,
			item.Department.Code,
			item.Status,
			item.Condition,
			item.IsConsumable,
			intOrEmpty(item.CurrentStock),
			intOrEmpty(item.MinStockLevel),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// IssueSlipPDF renders the printable handover slip for one loan
func (s *ReportService) IssueSlipPDF(ctx context.Context, record *models.IssueRecord) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Equipment Issue Slip")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Slip No:")
	pdf.Cell(60, 8, fmt.Sprintf("%d", record.ID))
	pdf.Ln(8)

	pdf.Cell(60, 8, "Borrower:")
	pdf.Cell(60, 8, record.User.FullName)
	pdf.Ln(6)

	pdf.Cell(60, 8, "Email:")
	pdf.Cell(60, 8, record.User.Email)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Item")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Name:")
	pdf.Cell(60, 8, record.Item.Name)
	pdf.Ln(6)

	pdf.Cell(60, 8, "Manual ID:")
	pdf.Cell(60, 8, record.Item.ManualID)
	pdf.Ln(6)

	pdf.Cell(60, 8, "Department:")
	pdf.Cell(60, 8, record.Department.Code)
	pdf.Ln(10)

	pdf.Cell(60, 8, "Issued:")
	pdf.Cell(60, 8, record.IssueDate.Format("02 Jan 2006"))
	pdf.Ln(6)

	pdf.Cell(60, 8, "Expected return:")
	pdf.Cell(60, 8, record.ExpectedReturnDate.Format("02 Jan 2006"))
	pdf.Ln(16)

	pdf.Cell(60, 8, "Borrower signature: ____________________")
	pdf.Ln(10)
	pdf.Cell(60, 8, "Staff signature: ____________________")

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("issue_slip_%d.pdf", record.ID)
	return buf.Bytes(), filename, nil
}

func intOrEmpty(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}
