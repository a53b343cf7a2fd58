package services

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockSettingRepo struct {
	repository.SettingRepository
	mockGetMany func(ctx context.Context, keys []string) (map[string]string, error)
}

func (m *mockSettingRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	return m.mockGetMany(ctx, keys)
}

func TestSettingService_ResolvePolicy_StoredValues(t *testing.T) {
	repo := &mockSettingRepo{}
	service := NewSettingService(repo, nil)

	repo.mockGetMany = func(ctx context.Context, keys []string) (map[string]string, error) {
		return map[string]string{
			"faculty_max_borrow_days":   "45",
			"faculty_max_items":         "10",
			"faculty_requires_approval": "false",
		}, nil
	}

	policy, err := service.ResolvePolicy(context.Background(), models.RoleFaculty)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, policy.Role)
	assert.Equal(t, 45, policy.MaxBorrowDays)
	assert.Equal(t, 10, policy.MaxItems)
	assert.False(t, policy.RequiresApproval)
}

func TestSettingService_ResolvePolicy_MissingRowsFallBackToDefaults(t *testing.T) {
	repo := &mockSettingRepo{}
	service := NewSettingService(repo, nil)

	repo.mockGetMany = func(ctx context.Context, keys []string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	policy, err := service.ResolvePolicy(context.Background(), models.RoleStudent)
	assert.NoError(t, err)
	assert.Equal(t, 7, policy.MaxBorrowDays)
	assert.Equal(t, 2, policy.MaxItems)
	assert.True(t, policy.RequiresApproval)
}

func TestSettingService_ResolvePolicy_MalformedRowFallsBack(t *testing.T) {
	repo := &mockSettingRepo{}
	service := NewSettingService(repo, nil)

	repo.mockGetMany = func(ctx context.Context, keys []string) (map[string]string, error) {
		// A corrupted row must never zero out a limit
		return map[string]string{
			"student_max_borrow_days": "not-a-number",
			"student_max_items":       "0",
		}, nil
	}

	policy, err := service.ResolvePolicy(context.Background(), models.RoleStudent)
	assert.NoError(t, err)
	assert.Equal(t, 7, policy.MaxBorrowDays)
	assert.Equal(t, 2, policy.MaxItems)
}

func TestSettingService_ResolvePolicy_UnknownRole(t *testing.T) {
	service := NewSettingService(&mockSettingRepo{}, nil)

	_, err := service.ResolvePolicy(context.Background(), "janitor")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettingService_ResolvePolicy_ExemptRolesSkipApproval(t *testing.T) {
	repo := &mockSettingRepo{}
	service := NewSettingService(repo, nil)
	repo.mockGetMany = func(ctx context.Context, keys []string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	for _, role := range []string{models.RoleIncharge, models.RoleAdmin} {
		policy, err := service.ResolvePolicy(context.Background(), role)
		assert.NoError(t, err)
		assert.False(t, policy.RequiresApproval, "role %s should be approval-exempt by default", role)
	}
}

func TestSettingService_ResolveReturnPolicy(t *testing.T) {
	repo := &mockSettingRepo{}
	service := NewSettingService(repo, nil)

	repo.mockGetMany = func(ctx context.Context, keys []string) (map[string]string, error) {
		return map[string]string{models.SettingKeyLateBanMonths: "3"}, nil
	}
	policy, err := service.ResolveReturnPolicy(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, policy.LateBanMonths)

	repo.mockGetMany = func(ctx context.Context, keys []string) (map[string]string, error) {
		return map[string]string{}, nil
	}
	policy, err = service.ResolveReturnPolicy(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 6, policy.LateBanMonths)
}

func TestSettingService_Update_RejectsUnknownKey(t *testing.T) {
	service := NewSettingService(&mockSettingRepo{}, nil)

	err := service.Update(context.Background(), "typo_max_items", "5", 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettingService_Update_RejectsBadValues(t *testing.T) {
	service := NewSettingService(&mockSettingRepo{}, nil)

	cases := []struct {
		key   string
		value string
	}{
		{"student_max_items", "zero"},
		{"student_max_items", "-1"},
		{"student_max_items", "0"},
		{"student_requires_approval", "yes please"},
		{models.SettingKeyOverdueRemindersEnabled, "1h"},
		{models.SettingKeyLateBanMonths, "true"},
	}
	for _, tc := range cases {
		err := service.Update(context.Background(), tc.key, tc.value, 1)
		assert.ErrorIs(t, err, ErrValidation, "key %s value %q", tc.key, tc.value)
	}
}

func TestDefaultSettings_CoverEveryRole(t *testing.T) {
	for _, role := range models.Roles {
		for _, suffix := range []string{
			models.SettingSuffixMaxBorrowDays,
			models.SettingSuffixMaxItems,
			models.SettingSuffixRequiresApproval,
		} {
			key := models.RoleSettingKey(role, suffix)
			assert.True(t, isKnownSettingKey(key), "missing default for %s", key)
		}
	}
}
