package services

import (
	"context"
	"testing"
	"time"

	"github.com/rmejia/labtrack-api/internal/config"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type authUserRepo struct {
	repository.UserRepository
	mockFindByEmail       func(ctx context.Context, email string) (*models.User, error)
	mockFindByIDWithDepts func(ctx context.Context, id uint) (*models.User, error)
	mockUpdate            func(ctx context.Context, user *models.User) error
}

func (m *authUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *authUserRepo) FindByIDWithDepartments(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByIDWithDepts(ctx, id)
}

func (m *authUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.mockUpdate(ctx, user)
}

type authRTRepo struct {
	repository.RefreshTokenRepository
	mockCreate        func(ctx context.Context, rt *models.RefreshToken) error
	mockFindByToken   func(ctx context.Context, token string) (*models.RefreshToken, error)
	mockDeleteByToken func(ctx context.Context, token string) error
}

func (m *authRTRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	return m.mockCreate(ctx, rt)
}

func (m *authRTRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return m.mockFindByToken(ctx, token)
}

func (m *authRTRepo) DeleteByToken(ctx context.Context, token string) error {
	if m.mockDeleteByToken != nil {
		return m.mockDeleteByToken(ctx, token)
	}
	return nil
}

func authTestConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	userRepo := &authUserRepo{}
	service := NewAuthService(userRepo, nil, nil, nil, nil, authTestConfig())

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{Email: email, Status: models.StatusInactive}, nil
	}

	result, err := service.Login(context.Background(), "inactive@uni.edu", "password123")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hashed, err := HashPassword("correct-password")
	assert.NoError(t, err)

	userRepo := &authUserRepo{}
	service := NewAuthService(userRepo, nil, nil, nil, nil, authTestConfig())

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{Email: email, Status: models.StatusActive, EncryptedPassword: hashed}, nil
	}

	result, err := service.Login(context.Background(), "student@uni.edu", "wrong-password")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthService_Login_Success(t *testing.T) {
	hashed, err := HashPassword("correct-password")
	assert.NoError(t, err)

	userRepo := &authUserRepo{}
	rtRepo := &authRTRepo{}
	service := NewAuthService(userRepo, rtRepo, nil, nil, nil, authTestConfig())

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			ID:                4,
			Email:             email,
			FullName:          "Test Student",
			Role:              models.RoleStudent,
			Status:            models.StatusActive,
			EncryptedPassword: hashed,
		}, nil
	}

	var storedToken string
	rtRepo.mockCreate = func(ctx context.Context, rt *models.RefreshToken) error {
		storedToken = rt.Token
		return nil
	}

	result, err := service.Login(context.Background(), "student@uni.edu", "correct-password")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, storedToken, result.RefreshToken)
	assert.Equal(t, uint(4), result.User.ID)
}

func TestAuthService_Register_PrivilegedRolesRejected(t *testing.T) {
	service := NewAuthService(&authUserRepo{}, nil, nil, nil, nil, authTestConfig())

	for _, role := range []string{models.RoleIncharge, models.RoleAdmin, models.RoleProcurement} {
		_, err := service.Register(context.Background(), RegisterInput{
			Email:    "x@uni.edu",
			Password: "password123",
			FullName: "X",
			Role:     role,
		})
		assert.ErrorIs(t, err, ErrValidation, "role %s", role)
	}
}

func TestAuthService_RefreshToken_ExpiredTokenRotatedOut(t *testing.T) {
	rtRepo := &authRTRepo{}
	service := NewAuthService(&authUserRepo{}, rtRepo, nil, nil, nil, authTestConfig())

	expired := time.Now().Add(-time.Hour)
	rtRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 4, Token: token, ExpiresAt: &expired}, nil
	}

	var deleted bool
	rtRepo.mockDeleteByToken = func(ctx context.Context, token string) error {
		deleted = true
		return nil
	}

	result, err := service.RefreshToken(context.Background(), "stale-token")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, deleted)
}

func TestAuthService_ResetPassword_CodeChecks(t *testing.T) {
	code := "123456"
	sentAt := time.Now().Add(-5 * time.Minute)

	userRepo := &authUserRepo{}
	service := NewAuthService(userRepo, nil, nil, nil, nil, authTestConfig())

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{Email: email, RecoveryCode: &code, RecoveryCodeSentAt: &sentAt}, nil
	}

	// Wrong code
	err := service.ResetPassword(context.Background(), "student@uni.edu", "000000", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidRecoveryCode)

	// Short password fails before any lookup
	err = service.ResetPassword(context.Background(), "student@uni.edu", code, "short")
	assert.ErrorIs(t, err, ErrValidation)

	// Correct code rewrites the credential and clears the code
	var updated *models.User
	userRepo.mockUpdate = func(ctx context.Context, user *models.User) error {
		updated = user
		return nil
	}
	err = service.ResetPassword(context.Background(), "student@uni.edu", code, "newpassword1")
	assert.NoError(t, err)
	assert.Nil(t, updated.RecoveryCode)
	assert.True(t, VerifyPassword("newpassword1", updated.EncryptedPassword))
}

func TestAuthService_ResetPassword_StaleCode(t *testing.T) {
	code := "123456"
	sentAt := time.Now().Add(-recoveryCodeTTL - time.Minute)

	userRepo := &authUserRepo{}
	service := NewAuthService(userRepo, nil, nil, nil, nil, authTestConfig())

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{Email: email, RecoveryCode: &code, RecoveryCodeSentAt: &sentAt}, nil
	}

	err := service.ResetPassword(context.Background(), "student@uni.edu", code, "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidRecoveryCode)
}
