package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
)

type JobService struct {
	worker     *jobs.Worker
	recordRepo repository.IssueRecordRepository
	settingSvc *SettingService
	notifySvc  *NotificationService
	emailSvc   *EmailService
}

func NewJobService(
	worker *jobs.Worker,
	recordRepo repository.IssueRecordRepository,
	settingSvc *SettingService,
	notifySvc *NotificationService,
	emailSvc *EmailService,
) *JobService {
	return &JobService{
		worker:     worker,
		recordRepo: recordRepo,
		settingSvc: settingSvc,
		notifySvc:  notifySvc,
		emailSvc:   emailSvc,
	}
}

func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"finished_jobs":  stats.FinishedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
	}
}

// SendOverdueReminders notifies every borrower with overdue outstanding
// loans, one notification and one email per borrower. The scheduled ticker
// calls this hourly; it can also be triggered manually. Nothing here clears
// bans: an expired timed ban stays in place until an admin revokes it or a
// later return rewrites it.
func (s *JobService) SendOverdueReminders(ctx context.Context, asOf time.Time) error {
	enabled, err := s.settingSvc.OverdueRemindersEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	records, err := s.recordRepo.FindOverdueOutstanding(ctx, asOf)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	byUser := map[uint][]models.IssueRecord{}
	for _, r := range records {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	var firstErr error
	for userID, userRecords := range byUser {
		user := userRecords[0].User
		message := fmt.Sprintf("You have %d overdue item(s); please return them as soon as possible", len(userRecords))
		if err := s.notifySvc.NotifyUser(ctx, userID,
			"Overdue items", message, models.NotificationTypeOverdueReminder); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.emailSvc.SendOverdueReminder(ctx, &user, userRecords); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
