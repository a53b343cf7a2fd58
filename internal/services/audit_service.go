package services

import (
	"context"

	"github.com/rmejia/labtrack-api/internal/models"
	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, changes, ip, userAgent string) error {
	logEntry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Changes:   changes,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	return s.db.WithContext(ctx).Create(logEntry).Error
}

// List retrieves audit logs, newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := s.db.WithContext(ctx).Preload("User").
		Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}

// ListForEntity retrieves the audit trail of a single entity, newest first
func (s *AuditService) ListForEntity(ctx context.Context, entity string, entityID uint, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if limit <= 0 {
		limit = 50
	}
	err := s.db.WithContext(ctx).Preload("User").
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at desc").Limit(limit).Find(&logs).Error
	return logs, err
}
