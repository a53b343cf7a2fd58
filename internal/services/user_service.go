package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// CreateUserInput is the payload for admin user creation
type CreateUserInput struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	FullName      string `json:"full_name" binding:"required"`
	Phone         string `json:"phone"`
	Role          string `json:"role" binding:"required"`
	DepartmentIDs []uint `json:"department_ids"`
}

// UpdateUserInput is the payload for profile updates
type UpdateUserInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
}

// UserService handles user administration: accounts, approval, roles,
// department assignment and ban revocation.
type UserService struct {
	userRepo  repository.UserRepository
	notifySvc *NotificationService
	emailSvc  *EmailService
	auditSvc  *AuditService
	worker    *jobs.Worker
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repository.UserRepository,
	notifySvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		notifySvc: notifySvc,
		emailSvc:  emailSvc,
		auditSvc:  auditSvc,
		worker:    worker,
	}
}

// GetByID returns one user with departments loaded
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByIDWithDepartments(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns users matching the query
func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, query)
}

// Create adds a user account directly, already approved. Admin-only; this is
// how incharge, admin and procurement accounts come into existence.
func (s *UserService) Create(ctx context.Context, input CreateUserInput, actor *models.User) (*models.User, error) {
	if !models.IsValidRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             input.Email,
		EncryptedPassword: hashed,
		FullName:          input.FullName,
		Phone:             input.Phone,
		Role:              input.Role,
		Status:            models.StatusActive,
		IsApproved:        true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if len(input.DepartmentIDs) > 0 {
		if err := s.userRepo.AssignDepartments(ctx, user.ID, input.DepartmentIDs); err != nil {
			return nil, err
		}
	}

	userCopy := *user
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, "create", "User", userCopy.ID, "", "", ""); err != nil {
			return err
		}
		return s.emailSvc.SendAccountCreated(asyncCtx, &userCopy)
	})

	return s.GetByID(ctx, user.ID)
}

// Update applies profile changes
func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput, actor *models.User) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Role != nil {
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		if !models.IsValidRole(*input.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *input.Role)
		}
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Approve marks a pending account as approved so it can borrow
func (s *UserService) Approve(ctx context.Context, id uint, actor *models.User) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return user, nil
	}

	user.IsApproved = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	userCopy := *user
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, "approve", "User", userCopy.ID, "", "", ""); err != nil {
			return err
		}
		return s.notifySvc.NotifyUser(asyncCtx, userCopy.ID,
			"Account approved",
			"Your account has been approved. You can now request lab equipment.",
			models.NotificationTypeNewUser)
	})

	return user, nil
}

// ToggleStatus flips a user between active and inactive
func (s *UserService) ToggleStatus(ctx context.Context, id uint, actor *models.User) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Status == models.StatusActive {
		user.Status = models.StatusInactive
	} else {
		user.Status = models.StatusActive
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	userCopy := *user
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "toggle_status", "User", userCopy.ID,
			fmt.Sprintf(`{"status":%q}`, userCopy.Status), "", "")
	})
	return user, nil
}

// RevokeBan clears a user's ban. This is the only path that lifts an
// indefinite (compensation) ban, and the way an expired timed ban actually
// gets cleared.
func (s *UserService) RevokeBan(ctx context.Context, id uint, actor *models.User) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsBanned {
		return nil, fmt.Errorf("%w: user is not banned", ErrValidation)
	}

	user.IsBanned = false
	user.BannedUntil = nil
	user.BanReason = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	userCopy := *user
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.auditSvc.Log(asyncCtx, actor.ID, "revoke_ban", "User", userCopy.ID, "", "", ""); err != nil {
			return err
		}
		return s.notifySvc.NotifyUser(asyncCtx, userCopy.ID,
			"Borrowing restored",
			"Your borrowing suspension has been lifted.",
			models.NotificationTypeReturnProcessed)
	})
	return user, nil
}

// AssignDepartments replaces the departments an incharge is responsible for
func (s *UserService) AssignDepartments(ctx context.Context, id uint, departmentIDs []uint, actor *models.User) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsIncharge() {
		return nil, fmt.Errorf("%w: only incharge accounts are assigned departments", ErrValidation)
	}

	if err := s.userRepo.AssignDepartments(ctx, id, departmentIDs); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "assign_departments", "User", id, "", "", "")
	})
	return s.GetByID(ctx, id)
}

// Delete soft-deletes a user account
func (s *UserService) Delete(ctx context.Context, id uint, actor *models.User) error {
	if id == actor.ID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "delete", "User", id, "", "", "")
	})
	return nil
}

// Restore reverses a soft delete
func (s *UserService) Restore(ctx context.Context, id uint, actor *models.User) error {
	if err := s.userRepo.Restore(ctx, id); err != nil {
		return err
	}
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.auditSvc.Log(asyncCtx, actor.ID, "restore", "User", id, "", "", "")
	})
	return nil
}
