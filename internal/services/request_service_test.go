package services

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockItemRepo struct {
	repository.ItemRepository
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.Item, error)
}

func (m *mockItemRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Item, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

type mockRequestRepo struct {
	repository.IssueRequestRepository
	mockHasOpenForItem   func(ctx context.Context, itemID uint) (bool, error)
	mockCountOpenForUser func(ctx context.Context, userID uint) (int64, error)
	mockCreate           func(ctx context.Context, request *models.IssueRequest) error
}

func (m *mockRequestRepo) HasOpenForItem(ctx context.Context, itemID uint) (bool, error) {
	if m.mockHasOpenForItem != nil {
		return m.mockHasOpenForItem(ctx, itemID)
	}
	return false, nil
}

func (m *mockRequestRepo) CountOpenForUser(ctx context.Context, userID uint) (int64, error) {
	if m.mockCountOpenForUser != nil {
		return m.mockCountOpenForUser(ctx, userID)
	}
	return 0, nil
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.IssueRequest) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, request)
	}
	return nil
}

type mockUserRepo struct {
	repository.UserRepository
	mockFindByID func(ctx context.Context, id uint) (*models.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func defaultsSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{
		mockGetMany: func(ctx context.Context, keys []string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
}

func borrowableItem() *models.Item {
	return &models.Item{
		ID:           3,
		Name:         "Oscilloscope",
		ManualID:     "PHY-001",
		DepartmentID: 2,
		Status:       models.ItemStatusAvailable,
		Condition:    models.ConditionGood,
		Category:     models.Category{ID: 1, Name: "Electronics", MaxBorrowDuration: 30},
	}
}

func approvedStudent() *models.User {
	return &models.User{
		ID:         7,
		Role:       models.RoleStudent,
		Status:     models.StatusActive,
		IsApproved: true,
		FullName:   "Test Student",
	}
}

func newTestRequestService(itemRepo *mockItemRepo, requestRepo *mockRequestRepo, userRepo *mockUserRepo) *RequestService {
	return NewRequestService(
		requestRepo,
		itemRepo,
		userRepo,
		NewSettingService(defaultsSettingRepo(), nil),
		nil, nil, nil, nil,
	)
}

func TestRequestService_Create_UnapprovedUser(t *testing.T) {
	service := newTestRequestService(&mockItemRepo{}, &mockRequestRepo{}, &mockUserRepo{})

	user := approvedStudent()
	user.IsApproved = false

	_, err := service.Create(context.Background(), user, CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 5})
	assert.ErrorIs(t, err, ErrUserNotApproved)
}

func TestRequestService_Create_BannedUser(t *testing.T) {
	service := newTestRequestService(&mockItemRepo{}, &mockRequestRepo{}, &mockUserRepo{})

	user := approvedStudent()
	user.IsBanned = true

	_, err := service.Create(context.Background(), user, CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 5})
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestRequestService_Create_ConsumableRejected(t *testing.T) {
	itemRepo := &mockItemRepo{}
	service := newTestRequestService(itemRepo, &mockRequestRepo{}, &mockUserRepo{})

	itemRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Item, error) {
		item := borrowableItem()
		item.IsConsumable = true
		return item, nil
	}

	_, err := service.Create(context.Background(), approvedStudent(), CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestService_Create_ItemNotAvailable(t *testing.T) {
	itemRepo := &mockItemRepo{}
	service := newTestRequestService(itemRepo, &mockRequestRepo{}, &mockUserRepo{})

	itemRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Item, error) {
		item := borrowableItem()
		item.Status = models.ItemStatusIssued
		return item, nil
	}

	_, err := service.Create(context.Background(), approvedStudent(), CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 5})
	assert.ErrorIs(t, err, ErrItemNotAvailable)
}

func TestRequestService_Create_OpenRequestOnItem(t *testing.T) {
	itemRepo := &mockItemRepo{}
	requestRepo := &mockRequestRepo{}
	service := newTestRequestService(itemRepo, requestRepo, &mockUserRepo{})

	itemRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Item, error) {
		return borrowableItem(), nil
	}
	requestRepo.mockHasOpenForItem = func(ctx context.Context, itemID uint) (bool, error) {
		return true, nil
	}

	_, err := service.Create(context.Background(), approvedStudent(), CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestService_Create_RoleDurationCap(t *testing.T) {
	itemRepo := &mockItemRepo{}
	service := newTestRequestService(itemRepo, &mockRequestRepo{}, &mockUserRepo{})

	itemRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Item, error) {
		return borrowableItem(), nil
	}

	// Default student limit is 7 days
	_, err := service.Create(context.Background(), approvedStudent(), CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 8})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestService_Create_CategoryDurationCap(t *testing.T) {
	itemRepo := &mockItemRepo{}
	service := newTestRequestService(itemRepo, &mockRequestRepo{}, &mockUserRepo{})

	itemRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Item, error) {
		item := borrowableItem()
		item.Category.MaxBorrowDuration = 3
		return item, nil
	}

	// Within the role limit but over the category's own cap
	_, err := service.Create(context.Background(), approvedStudent(), CreateRequestInput{ItemID: 3, Purpose: "lab", RequestedDays: 5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckEligibility_BannedFlagBlocksEvenWhenTimedBanLapsed(t *testing.T) {
	userRepo := &mockUserRepo{}
	service := newTestRequestService(&mockItemRepo{}, &mockRequestRepo{}, userRepo)

	// banned_until in the past: the stored flag alone decides
	userRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		user := approvedStudent()
		user.IsBanned = true
		return user, nil
	}

	request := &models.IssueRequest{UserID: 7, RequestedDays: 5, Item: *borrowableItem()}
	err := service.checkEligibility(context.Background(), request)
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestCheckEligibility_BorrowLimit(t *testing.T) {
	userRepo := &mockUserRepo{}
	requestRepo := &mockRequestRepo{}
	service := newTestRequestService(&mockItemRepo{}, requestRepo, userRepo)

	userRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return approvedStudent(), nil
	}
	requestRepo.mockCountOpenForUser = func(ctx context.Context, userID uint) (int64, error) {
		return 2, nil // at the default student cap already
	}

	request := &models.IssueRequest{UserID: 7, RequestedDays: 5, Item: *borrowableItem()}
	err := service.checkEligibility(context.Background(), request)
	assert.ErrorIs(t, err, ErrBorrowLimit)
}

func TestCheckEligibility_Passes(t *testing.T) {
	userRepo := &mockUserRepo{}
	requestRepo := &mockRequestRepo{}
	service := newTestRequestService(&mockItemRepo{}, requestRepo, userRepo)

	userRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return approvedStudent(), nil
	}
	requestRepo.mockCountOpenForUser = func(ctx context.Context, userID uint) (int64, error) {
		return 1, nil
	}

	request := &models.IssueRequest{UserID: 7, RequestedDays: 5, Item: *borrowableItem()}
	assert.NoError(t, service.checkEligibility(context.Background(), request))
}
