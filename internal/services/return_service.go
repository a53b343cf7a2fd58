package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// ReturnInput is the reported state of an item being handed back.
type ReturnInput struct {
	Condition            string  `json:"condition" binding:"required"`
	DamageRemarks        *string `json:"damage_remarks"`
	IsPendingReplacement bool    `json:"is_pending_replacement"`
}

// ReturnWarnings tells the caller which bans the return applied, for display
// alongside the receipt.
type ReturnWarnings struct {
	LateBan         *string `json:"lateBan"`
	CompensationBan *string `json:"compensationBan"`
}

// ReturnOutcome is the full decision for one return: item disposition, ban
// change and caller warnings. Computed by evaluateReturn without touching the
// database, then persisted in a single transaction.
type ReturnOutcome struct {
	IsLate   bool
	DaysLate int

	ItemStatus    string
	ItemCondition string

	BanUser     bool
	BannedUntil *time.Time // nil with BanUser means indefinite
	BanReason   *string

	Warnings ReturnWarnings
}

// ReturnResult is what ProcessReturn hands back to the HTTP layer.
type ReturnResult struct {
	Record   models.IssueRecordResponse `json:"issue_record"`
	Warnings ReturnWarnings             `json:"warnings"`
}

// ReturnService processes item returns: lateness, penalties, item disposition
// and the notification side effects.
type ReturnService struct {
	recordRepo repository.IssueRecordRepository
	settingSvc *SettingService
	notifySvc  *NotificationService
	emailSvc   *EmailService
	auditSvc   *AuditService
	worker     *jobs.Worker
}

// NewReturnService creates a new return service
func NewReturnService(
	recordRepo repository.IssueRecordRepository,
	settingSvc *SettingService,
	notifySvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *ReturnService {
	return &ReturnService{
		recordRepo: recordRepo,
		settingSvc: settingSvc,
		notifySvc:  notifySvc,
		emailSvc:   emailSvc,
		auditSvc:   auditSvc,
		worker:     worker,
	}
}

// evaluateReturn decides everything about one return from its inputs alone.
//
// Lateness is checked first and a late return gets the timed ban even when the
// item also needs a replacement; the compensation branch only applies to
// on-time returns. That precedence is deliberate and load-bearing: both
// branches overwrite the user's entire ban state, so reordering them changes
// which ban survives.
func evaluateReturn(record *models.IssueRecord, policy models.ReturnPolicy, input ReturnInput, now time.Time) ReturnOutcome {
	outcome := ReturnOutcome{
		IsLate:   record.IsOverdue(now),
		DaysLate: record.DaysOverdue(now),
	}

	// Item disposition. The replacement flag only moves a damaged item out of
	// circulation; an under-repair item goes to maintenance and everything
	// else stays available with the reported condition on record.
	switch {
	case input.Condition == models.ConditionDamaged && input.IsPendingReplacement:
		outcome.ItemStatus = models.ItemStatusPendingReplacement
		outcome.ItemCondition = input.Condition
	case input.Condition == models.ConditionUnderRepair:
		outcome.ItemStatus = models.ItemStatusMaintenance
		outcome.ItemCondition = models.ConditionUnderRepair
	default:
		outcome.ItemStatus = models.ItemStatusAvailable
		outcome.ItemCondition = input.Condition
	}

	// Ban application
	switch {
	case outcome.IsLate:
		until := now.AddDate(0, policy.LateBanMonths, 0)
		reason := fmt.Sprintf("returned %d day(s) late", outcome.DaysLate)
		outcome.BanUser = true
		outcome.BannedUntil = &until
		outcome.BanReason = &reason
		msg := fmt.Sprintf("Borrowing suspended until %s for a %d-day-late return",
			until.Format("02 Jan 2006"), outcome.DaysLate)
		outcome.Warnings.LateBan = &msg
	case input.IsPendingReplacement:
		reason := "replacement pending for damaged item"
		outcome.BanUser = true
		outcome.BannedUntil = nil
		outcome.BanReason = &reason
		msg := "Borrowing suspended until the replacement is settled"
		outcome.Warnings.CompensationBan = &msg
	}

	return outcome
}

// ProcessReturn closes an outstanding loan. The record, the item and the
// user's ban state commit in one transaction; emails, notifications and the
// audit entry are dispatched afterwards and never fail the return.
func (s *ReturnService) ProcessReturn(ctx context.Context, recordID uint, input ReturnInput, actor *models.User, ip, userAgent string) (*ReturnResult, error) {
	if !models.IsValidCondition(input.Condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrValidation, input.Condition)
	}
	if input.IsPendingReplacement && input.Condition != models.ConditionDamaged {
		return nil, fmt.Errorf("%w: a pending replacement requires condition %q", ErrValidation, models.ConditionDamaged)
	}
	needsRemarks := input.Condition == models.ConditionDamaged ||
		input.Condition == models.ConditionUnderRepair
	if needsRemarks && getStringValue(input.DamageRemarks) == "" {
		return nil, fmt.Errorf("%w: damage remarks are required for condition %q", ErrValidation, input.Condition)
	}

	record, err := s.recordRepo.FindByIDWithDetails(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && !actor.InchargeOf(record.DepartmentID) {
		return nil, ErrForbidden
	}
	if !record.IsOutstanding() {
		return nil, ErrAlreadyReturned
	}

	policy, err := s.settingSvc.ResolveReturnPolicy(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	outcome := evaluateReturn(record, policy, input, now)

	updated, err := s.recordRepo.ApplyReturn(ctx, &repository.ReturnApplication{
		RecordID:             record.ID,
		ReturnedAt:           now,
		ReturnCondition:      input.Condition,
		DamageRemarks:        input.DamageRemarks,
		IsPendingReplacement: input.IsPendingReplacement,
		ReturnedTo:           actor.ID,
		ItemStatus:           outcome.ItemStatus,
		ItemCondition:        outcome.ItemCondition,
		BanUser:              outcome.BanUser,
		BannedUntil:          outcome.BannedUntil,
		BanReason:            outcome.BanReason,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRecordAlreadyReturned) {
			return nil, ErrAlreadyReturned
		}
		return nil, err
	}
	// Keep the loaded associations for the response and side effects
	updated.User = record.User
	updated.Item = record.Item

	s.dispatchReturnSideEffects(updated, outcome, actor, ip, userAgent)

	result := &ReturnResult{
		Record:   updated.ToResponse(now),
		Warnings: outcome.Warnings,
	}
	return result, nil
}

func (s *ReturnService) dispatchReturnSideEffects(record *models.IssueRecord, outcome ReturnOutcome, actor *models.User, ip, userAgent string) {
	user := record.User
	recordCopy := *record

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		changes := fmt.Sprintf(`{"condition":%q,"late":%t,"days_late":%d,"pending_replacement":%t}`,
			outcome.ItemCondition, outcome.IsLate, outcome.DaysLate, recordCopy.IsPendingReplacement)
		return s.auditSvc.Log(ctx, actor.ID, "return", "IssueRecord", recordCopy.ID, changes, ip, userAgent)
	})

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notifySvc.NotifyUser(ctx, user.ID,
			"Return processed",
			fmt.Sprintf("Your return of %s has been recorded", recordCopy.Item.Name),
			models.NotificationTypeReturnProcessed)
	})

	// Unlike the ban branches, the two penalty mails are independent: a late
	// return that also needs a replacement triggers both.
	if outcome.IsLate {
		until := *outcome.BannedUntil
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			if err := s.notifySvc.NotifyUser(ctx, user.ID,
				"Borrowing suspended",
				fmt.Sprintf("Late return of %s: suspended until %s", recordCopy.Item.Name, until.Format("02 Jan 2006")),
				models.NotificationTypeLateBan); err != nil {
				return err
			}
			return s.emailSvc.SendLateReturnBan(ctx, &user, &recordCopy, outcome.DaysLate, until)
		})
	}
	if recordCopy.IsPendingReplacement {
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			if err := s.notifySvc.NotifyUser(ctx, user.ID,
				"Replacement pending",
				fmt.Sprintf("%s was returned damaged and must be replaced or compensated", recordCopy.Item.Name),
				models.NotificationTypeCompensationBan); err != nil {
				return err
			}
			return s.emailSvc.SendCompensationBan(ctx, &user, &recordCopy)
		})
	}
}
