package services

import (
	"context"
	"testing"
	"time"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func outstandingRecord(expected time.Time) *models.IssueRecord {
	return &models.IssueRecord{
		ID:                 1,
		UserID:             7,
		ItemID:             3,
		IssueDate:          expected.AddDate(0, 0, -7),
		ExpectedReturnDate: expected,
	}
}

func TestEvaluateReturn_OnTimeGoodCondition(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, 2))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{Condition: models.ConditionGood}, now)

	assert.False(t, outcome.IsLate)
	assert.Equal(t, 0, outcome.DaysLate)
	assert.Equal(t, models.ItemStatusAvailable, outcome.ItemStatus)
	assert.Equal(t, models.ConditionGood, outcome.ItemCondition)
	assert.False(t, outcome.BanUser)
	assert.Nil(t, outcome.Warnings.LateBan)
	assert.Nil(t, outcome.Warnings.CompensationBan)
}

func TestEvaluateReturn_LateAppliesTimedBan(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, -2))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{Condition: models.ConditionGood}, now)

	assert.True(t, outcome.IsLate)
	assert.Equal(t, 2, outcome.DaysLate)
	assert.Equal(t, models.ItemStatusAvailable, outcome.ItemStatus)
	assert.True(t, outcome.BanUser)
	if assert.NotNil(t, outcome.BannedUntil) {
		assert.Equal(t, now.AddDate(0, 6, 0), *outcome.BannedUntil)
	}
	assert.NotNil(t, outcome.Warnings.LateBan)
	assert.Nil(t, outcome.Warnings.CompensationBan)
}

func TestEvaluateReturn_PartialDayCountsAsLate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	// Six hours past the deadline still rounds up to one late day
	record := outstandingRecord(now.Add(-6 * time.Hour))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{Condition: models.ConditionGood}, now)

	assert.True(t, outcome.IsLate)
	assert.Equal(t, 1, outcome.DaysLate)
}

func TestEvaluateReturn_PendingReplacementAppliesIndefiniteBan(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, 2))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{
			Condition:            models.ConditionDamaged,
			DamageRemarks:        strPtr("cracked lens"),
			IsPendingReplacement: true,
		}, now)

	assert.False(t, outcome.IsLate)
	assert.Equal(t, models.ItemStatusPendingReplacement, outcome.ItemStatus)
	assert.Equal(t, models.ConditionDamaged, outcome.ItemCondition)
	assert.True(t, outcome.BanUser)
	assert.Nil(t, outcome.BannedUntil, "compensation ban has no expiry")
	assert.Nil(t, outcome.Warnings.LateBan)
	assert.NotNil(t, outcome.Warnings.CompensationBan)
}

func TestEvaluateReturn_UnderRepairGoesToMaintenance(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, 2))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{Condition: models.ConditionUnderRepair}, now)

	assert.Equal(t, models.ItemStatusMaintenance, outcome.ItemStatus)
	assert.Equal(t, models.ConditionUnderRepair, outcome.ItemCondition)
	assert.False(t, outcome.BanUser)
}

func TestEvaluateReturn_LateBanWinsOverCompensationBan(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, -5))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{
			Condition:            models.ConditionDamaged,
			DamageRemarks:        strPtr("bent probe"),
			IsPendingReplacement: true,
		}, now)

	// Item disposition still follows the replacement path
	assert.Equal(t, models.ItemStatusPendingReplacement, outcome.ItemStatus)

	// But the ban is the timed late ban, not the indefinite one
	assert.True(t, outcome.BanUser)
	if assert.NotNil(t, outcome.BannedUntil) {
		assert.Equal(t, now.AddDate(0, 6, 0), *outcome.BannedUntil)
	}
	assert.NotNil(t, outcome.Warnings.LateBan)
	assert.Nil(t, outcome.Warnings.CompensationBan)
}

func TestEvaluateReturn_ReplacementFlagOnlyMovesDamagedItems(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, 2))
	policy := models.ReturnPolicy{LateBanMonths: 6}

	// An under-repair item goes to maintenance even with the flag set
	outcome := evaluateReturn(record, policy, ReturnInput{
		Condition:            models.ConditionUnderRepair,
		DamageRemarks:        strPtr("motor seized"),
		IsPendingReplacement: true,
	}, now)
	assert.Equal(t, models.ItemStatusMaintenance, outcome.ItemStatus)

	// A good-condition return stays in circulation
	outcome = evaluateReturn(record, policy, ReturnInput{
		Condition:            models.ConditionGood,
		IsPendingReplacement: true,
	}, now)
	assert.Equal(t, models.ItemStatusAvailable, outcome.ItemStatus)
	assert.Equal(t, models.ConditionGood, outcome.ItemCondition)
}

func TestEvaluateReturn_DamagedWithoutReplacementStaysAvailable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, 2))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 6},
		ReturnInput{Condition: models.ConditionDamaged, DamageRemarks: strPtr("scratched")}, now)

	assert.Equal(t, models.ItemStatusAvailable, outcome.ItemStatus)
	assert.Equal(t, models.ConditionDamaged, outcome.ItemCondition)
	assert.False(t, outcome.BanUser)
}

func TestEvaluateReturn_LateBanMonthsFromPolicy(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	record := outstandingRecord(now.AddDate(0, 0, -1))

	outcome := evaluateReturn(record, models.ReturnPolicy{LateBanMonths: 2},
		ReturnInput{Condition: models.ConditionFair}, now)

	if assert.NotNil(t, outcome.BannedUntil) {
		assert.Equal(t, now.AddDate(0, 2, 0), *outcome.BannedUntil)
	}
}

func TestProcessReturn_ValidationBeforeAnyLookup(t *testing.T) {
	// Nil repos: a validation failure must short-circuit before persistence
	service := NewReturnService(nil, nil, nil, nil, nil, nil)
	actor := &models.User{ID: 1, Role: models.RoleAdmin}

	_, err := service.ProcessReturn(context.Background(), 1,
		ReturnInput{Condition: "pristine"}, actor, "", "")
	assert.ErrorIs(t, err, ErrValidation)

	for _, condition := range []string{models.ConditionDamaged, models.ConditionUnderRepair} {
		_, err := service.ProcessReturn(context.Background(), 1,
			ReturnInput{Condition: condition}, actor, "", "")
		assert.ErrorIs(t, err, ErrValidation, "condition %s without remarks", condition)
	}

	// The replacement flag is only valid on a damaged return
	for _, condition := range []string{models.ConditionGood, models.ConditionUnderRepair} {
		_, err := service.ProcessReturn(context.Background(), 1,
			ReturnInput{
				Condition:            condition,
				DamageRemarks:        strPtr("handle snapped"),
				IsPendingReplacement: true,
			}, actor, "", "")
		assert.ErrorIs(t, err, ErrValidation, "pending replacement with condition %s", condition)
	}
}
