package services

import (
	"context"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	deptRepo repository.DepartmentRepository
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, deptRepo repository.DepartmentRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, deptRepo: deptRepo}
}

func (s *NotificationService) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.repo.FindByUser(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notifType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}

func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notifType string) error {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		return err
	}
	notifications := make([]models.Notification, 0, len(admins))
	for _, admin := range admins {
		t := notifType
		notifications = append(notifications, models.Notification{
			UserID:           admin.ID,
			Title:            title,
			Message:          message,
			NotificationType: &t,
		})
	}
	return s.repo.CreateBatch(ctx, notifications)
}

// NotifyIncharges notifies every incharge of a department, typically on a new
// borrow or transfer request landing in their queue.
func (s *NotificationService) NotifyIncharges(ctx context.Context, departmentID uint, title, message, notifType string) error {
	incharges, err := s.deptRepo.FindIncharges(ctx, departmentID)
	if err != nil {
		return err
	}
	notifications := make([]models.Notification, 0, len(incharges))
	for _, incharge := range incharges {
		t := notifType
		notifications = append(notifications, models.Notification{
			UserID:           incharge.ID,
			Title:            title,
			Message:          message,
			NotificationType: &t,
		})
	}
	return s.repo.CreateBatch(ctx, notifications)
}
