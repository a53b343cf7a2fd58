package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockRecordRepo struct {
	repository.IssueRecordRepository
	mockList                   func(ctx context.Context, query *repository.IssueQuery) ([]models.IssueRecord, int64, error)
	mockFindOverdueOutstanding func(ctx context.Context, now time.Time) ([]models.IssueRecord, error)
}

func (m *mockRecordRepo) List(ctx context.Context, query *repository.IssueQuery) ([]models.IssueRecord, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockRecordRepo) FindOverdueOutstanding(ctx context.Context, now time.Time) ([]models.IssueRecord, error) {
	return m.mockFindOverdueOutstanding(ctx, now)
}

type statsItemRepo struct {
	repository.ItemRepository
	mockCountByStatus func(ctx context.Context) (map[string]int64, error)
}

func (m *statsItemRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return m.mockCountByStatus(ctx)
}

type statsRequestRepo struct {
	repository.IssueRequestRepository
	mockList func(ctx context.Context, query *repository.RequestQuery) ([]models.IssueRequest, int64, error)
}

func (m *statsRequestRepo) List(ctx context.Context, query *repository.RequestQuery) ([]models.IssueRequest, int64, error) {
	return m.mockList(ctx, query)
}

type statsTransferRepo struct {
	repository.TransferRepository
	mockList func(ctx context.Context, query *repository.TransferQuery) ([]models.TransferRequest, int64, error)
}

func (m *statsTransferRepo) List(ctx context.Context, query *repository.TransferQuery) ([]models.TransferRequest, int64, error) {
	return m.mockList(ctx, query)
}

func TestReportService_Stats(t *testing.T) {
	itemRepo := &statsItemRepo{
		mockCountByStatus: func(ctx context.Context) (map[string]int64, error) {
			return map[string]int64{
				models.ItemStatusAvailable:   40,
				models.ItemStatusIssued:      8,
				models.ItemStatusMaintenance: 2,
			}, nil
		},
	}
	recordRepo := &mockRecordRepo{
		mockList: func(ctx context.Context, query *repository.IssueQuery) ([]models.IssueRecord, int64, error) {
			if query.OverdueOnly {
				return nil, 3, nil
			}
			return nil, 8, nil
		},
	}
	requestRepo := &statsRequestRepo{
		mockList: func(ctx context.Context, query *repository.RequestQuery) ([]models.IssueRequest, int64, error) {
			assert.Equal(t, models.RequestStatusPending, query.Status)
			return nil, 5, nil
		},
	}
	transferRepo := &statsTransferRepo{
		mockList: func(ctx context.Context, query *repository.TransferQuery) ([]models.TransferRequest, int64, error) {
			assert.Equal(t, models.TransferStatusPending, query.Status)
			return nil, 1, nil
		},
	}

	service := NewReportService(itemRepo, recordRepo, requestRepo, transferRepo)
	stats, err := service.Stats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(50), stats.TotalItems)
	assert.Equal(t, int64(8), stats.OutstandingLoans)
	assert.Equal(t, int64(3), stats.OverdueLoans)
	assert.Equal(t, int64(5), stats.PendingRequests)
	assert.Equal(t, int64(1), stats.PendingTransfers)
}

func TestReportService_OverdueCSV(t *testing.T) {
	due := time.Now().AddDate(0, 0, -4)
	issued := due.AddDate(0, 0, -7)

	recordRepo := &mockRecordRepo{
		mockFindOverdueOutstanding: func(ctx context.Context, now time.Time) ([]models.IssueRecord, error) {
			return []models.IssueRecord{
				{
					IssueDate:          issued,
					ExpectedReturnDate: due,
					Item:               models.Item{Name: "Oscilloscope", ManualID: "PHY-001"},
					User:               models.User{FullName: "Test Student", Email: "student@uni.edu"},
				},
			}, nil
		},
	}

	service := NewReportService(nil, recordRepo, nil, nil)
	data, filename, err := service.OverdueCSV(context.Background())

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "overdue_report_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	csv := string(data)
	assert.Contains(t, csv, "Item,Manual ID,Borrower,Email,Issued,Due,Days Overdue")
	assert.Contains(t, csv, "Oscilloscope,PHY-001,Test Student,student@uni.edu")
	assert.Contains(t, csv, due.Format("2006-01-02"))
}

func TestReportService_OverdueCSV_Empty(t *testing.T) {
	recordRepo := &mockRecordRepo{
		mockFindOverdueOutstanding: func(ctx context.Context, now time.Time) ([]models.IssueRecord, error) {
			return nil, nil
		},
	}

	service := NewReportService(nil, recordRepo, nil, nil)
	data, _, err := service.OverdueCSV(context.Background())

	assert.NoError(t, err)
	// Header rows are always present so the download is never a zero-byte file
	assert.Contains(t, string(data), "Overdue Loans Report")
}
