package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
)

// defaultSettings is the fixed table restored by ResetDefaults and used as the
// fallback for any missing key.
var defaultSettings = []models.Setting{
	{Key: "student_max_borrow_days", Value: "7", Description: strPtr("Maximum loan duration in days for students")},
	{Key: "student_max_items", Value: "2", Description: strPtr("Maximum concurrent loans for students")},
	{Key: "student_requires_approval", Value: "true", Description: strPtr("Whether student requests need approval")},
	{Key: "faculty_max_borrow_days", Value: "30", Description: strPtr("Maximum loan duration in days for faculty")},
	{Key: "faculty_max_items", Value: "5", Description: strPtr("Maximum concurrent loans for faculty")},
	{Key: "faculty_requires_approval", Value: "true", Description: strPtr("Whether faculty requests need approval")},
	{Key: "staff_max_borrow_days", Value: "14", Description: strPtr("Maximum loan duration in days for staff")},
	{Key: "staff_max_items", Value: "3", Description: strPtr("Maximum concurrent loans for staff")},
	{Key: "staff_requires_approval", Value: "true", Description: strPtr("Whether staff requests need approval")},
	{Key: "incharge_max_borrow_days", Value: "30", Description: strPtr("Maximum loan duration in days for lab incharges")},
	{Key: "incharge_max_items", Value: "5", Description: strPtr("Maximum concurrent loans for lab incharges")},
	{Key: "incharge_requires_approval", Value: "false", Description: strPtr("Whether incharge requests need approval")},
	{Key: "admin_max_borrow_days", Value: "30", Description: strPtr("Maximum loan duration in days for admins")},
	{Key: "admin_max_items", Value: "5", Description: strPtr("Maximum concurrent loans for admins")},
	{Key: "admin_requires_approval", Value: "false", Description: strPtr("Whether admin requests need approval")},
	{Key: "procurement_max_borrow_days", Value: "14", Description: strPtr("Maximum loan duration in days for procurement staff")},
	{Key: "procurement_max_items", Value: "3", Description: strPtr("Maximum concurrent loans for procurement staff")},
	{Key: "procurement_requires_approval", Value: "true", Description: strPtr("Whether procurement requests need approval")},
	{Key: models.SettingKeyLateBanMonths, Value: "6", Description: strPtr("Months a late-return ban lasts")},
	{Key: models.SettingKeyOverdueRemindersEnabled, Value: "true", Description: strPtr("Whether the overdue reminder job sends notifications")},
}

func strPtr(s string) *string { return &s }

// SettingService resolves the key/value configuration table into typed policy
// values. Settings are read per request; there is no cache to invalidate.
type SettingService struct {
	settingRepo repository.SettingRepository
	auditSvc    *AuditService
}

// NewSettingService creates a new setting service
func NewSettingService(settingRepo repository.SettingRepository, auditSvc *AuditService) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		auditSvc:    auditSvc,
	}
}

// GetAll returns all settings
func (s *SettingService) GetAll(ctx context.Context) ([]models.Setting, error) {
	return s.settingRepo.GetAll(ctx)
}

// Update writes one setting value. Unknown keys are rejected so a typo cannot
// create a dead row that the resolver never reads.
func (s *SettingService) Update(ctx context.Context, key, value string, updatedBy uint) error {
	if !isKnownSettingKey(key) {
		return fmt.Errorf("%w: unknown setting key %q", ErrValidation, key)
	}
	if err := validateSettingValue(key, value); err != nil {
		return err
	}
	if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, updatedBy, "update", "setting", 0, fmt.Sprintf(`{"key":%q,"value":%q}`, key, value), "", "")
	return nil
}

// ResetDefaults restores the fixed defaults table, discarding any overrides.
func (s *SettingService) ResetDefaults(ctx context.Context, updatedBy uint) error {
	settings := make([]models.Setting, len(defaultSettings))
	copy(settings, defaultSettings)
	if err := s.settingRepo.ReplaceAll(ctx, settings); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, updatedBy, "reset_defaults", "setting", 0, "", "", "")
	return nil
}

// ResolvePolicy reads the per-role borrow limits and returns them as an
// immutable value. Missing or malformed rows fall back to the defaults table.
func (s *SettingService) ResolvePolicy(ctx context.Context, role string) (models.BorrowPolicy, error) {
	if !models.IsValidRole(role) {
		return models.BorrowPolicy{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	keys := []string{
		models.RoleSettingKey(role, models.SettingSuffixMaxBorrowDays),
		models.RoleSettingKey(role, models.SettingSuffixMaxItems),
		models.RoleSettingKey(role, models.SettingSuffixRequiresApproval),
	}
	values, err := s.settingRepo.GetMany(ctx, keys)
	if err != nil {
		return models.BorrowPolicy{}, err
	}

	return models.BorrowPolicy{
		Role:             role,
		MaxBorrowDays:    s.intValue(values, keys[0]),
		MaxItems:         s.intValue(values, keys[1]),
		RequiresApproval: s.boolValue(values, keys[2]),
	}, nil
}

// ResolveReturnPolicy reads the penalty configuration for the return engine.
func (s *SettingService) ResolveReturnPolicy(ctx context.Context) (models.ReturnPolicy, error) {
	values, err := s.settingRepo.GetMany(ctx, []string{models.SettingKeyLateBanMonths})
	if err != nil {
		return models.ReturnPolicy{}, err
	}
	return models.ReturnPolicy{
		LateBanMonths: s.intValue(values, models.SettingKeyLateBanMonths),
	}, nil
}

// OverdueRemindersEnabled reports whether the reminder job should run.
func (s *SettingService) OverdueRemindersEnabled(ctx context.Context) (bool, error) {
	values, err := s.settingRepo.GetMany(ctx, []string{models.SettingKeyOverdueRemindersEnabled})
	if err != nil {
		return false, err
	}
	return s.boolValue(values, models.SettingKeyOverdueRemindersEnabled), nil
}

func (s *SettingService) intValue(values map[string]string, key string) int {
	if raw, ok := values[key]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	n, _ := strconv.Atoi(defaultValue(key))
	return n
}

func (s *SettingService) boolValue(values map[string]string, key string) bool {
	if raw, ok := values[key]; ok {
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	b, _ := strconv.ParseBool(defaultValue(key))
	return b
}

func defaultValue(key string) string {
	for _, s := range defaultSettings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func isKnownSettingKey(key string) bool {
	return defaultValue(key) != ""
}

func validateSettingValue(key, value string) error {
	if key == models.SettingKeyOverdueRemindersEnabled ||
		strings.HasSuffix(key, models.SettingSuffixRequiresApproval) {
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrValidation, key)
		}
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %s must be a positive integer", ErrValidation, key)
	}
	return nil
}
