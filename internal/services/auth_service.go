package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rmejia/labtrack-api/internal/config"
	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const recoveryCodeTTL = 15 * time.Minute

// AuthService handles authentication operations
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	notifySvc        *NotificationService
	emailSvc         *EmailService
	worker           *jobs.Worker
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	notifySvc *NotificationService,
	emailSvc *EmailService,
	worker *jobs.Worker,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: rtRepo,
		notifySvc:        notifySvc,
		emailSvc:         emailSvc,
		worker:           worker,
		cfg:              cfg,
	}
}

// RegisterInput is the payload for account signup
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token        string              `json:"token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
}

// Register creates an account pending admin approval. Only the non-privileged
// roles are self-assignable; incharge and admin accounts are created by an
// admin through the user service.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleStudent
	}
	switch role {
	case models.RoleStudent, models.RoleFaculty, models.RoleStaff:
	default:
		return nil, fmt.Errorf("%w: role %q cannot self-register", ErrValidation, role)
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
		Role:              role,
		Status:            models.StatusActive,
		IsApproved:        false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	userCopy := *user
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		if err := s.notifySvc.NotifyAdmins(asyncCtx,
			"New account pending approval",
			fmt.Sprintf("%s (%s) signed up as %s", userCopy.FullName, userCopy.Email, userCopy.Role),
			models.NotificationTypeNewUser); err != nil {
			return err
		}
		return s.emailSvc.SendAccountCreated(asyncCtx, &userCopy)
	})

	return user, nil
}

// Login authenticates a user and returns tokens. An unapproved account can
// log in and browse; only borrowing is gated on approval.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidPassword
	}

	if !user.IsActive() {
		return nil, ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
	}, nil
}

// RefreshToken validates a refresh token and returns new tokens
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if rt.IsExpired() {
		s.refreshTokenRepo.DeleteByToken(ctx, refreshToken)
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.FindByIDWithDepartments(ctx, rt.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if !user.IsActive() {
		return nil, ErrForbidden
	}

	// Rotate: the old token is single-use
	s.refreshTokenRepo.DeleteByToken(ctx, refreshToken)

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, err
	}

	newRefreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: newRefreshToken,
		User:         user.ToResponse(),
	}, nil
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.DeleteByToken(ctx, refreshToken)
}

// ForgotPassword issues a recovery code and emails it. The response does not
// reveal whether the address exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}

	code, err := generateRecoveryCode()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetRecoveryCode(ctx, user.ID, code, time.Now()); err != nil {
		return err
	}

	userCopy := *user
	s.worker.EnqueueAsync(func(asyncCtx context.Context) error {
		return s.emailSvc.SendRecoveryCode(asyncCtx, &userCopy, code)
	})
	return nil
}

// ResetPassword verifies a recovery code and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return ErrInvalidRecoveryCode
	}
	if user.RecoveryCode == nil || user.RecoveryCodeSentAt == nil {
		return ErrInvalidRecoveryCode
	}
	if *user.RecoveryCode != code {
		return ErrInvalidRecoveryCode
	}
	if time.Since(*user.RecoveryCodeSentAt) > recoveryCodeTTL {
		return ErrInvalidRecoveryCode
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashed
	user.RecoveryCode = nil
	user.RecoveryCodeSentAt = nil
	return s.userRepo.Update(ctx, user)
}

// generateJWT creates a new JWT token for a user
func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// generateRefreshToken creates a new refresh token
func (s *AuthService) generateRefreshToken(ctx context.Context, userID uint) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(bytes)

	expiresAt := time.Now().Add(30 * 24 * time.Hour)

	rt := &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: &expiresAt,
	}

	if err := s.refreshTokenRepo.Create(ctx, rt); err != nil {
		return "", err
	}

	return token, nil
}

// generateRecoveryCode returns a 6-digit numeric code
func generateRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a password with a hash
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
