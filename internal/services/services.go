package services

import (
	"github.com/rmejia/labtrack-api/internal/config"
	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Department   *DepartmentService
	Category     *CategoryService
	Item         *ItemService
	Request      *RequestService
	Issue        *IssueService
	Return       *ReturnService
	Transfer     *TransferService
	Setting      *SettingService
	Notification *NotificationService
	Report       *ReportService
	Import       *ImportService
	Audit        *AuditService
	Email        *EmailService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	emailSvc := NewEmailService(cfg)
	notificationSvc := NewNotificationService(repos.Notification, repos.User, repos.Department)
	settingSvc := NewSettingService(repos.Setting, auditSvc)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, notificationSvc, emailSvc, worker, cfg),
		User:         NewUserService(repos.User, notificationSvc, emailSvc, auditSvc, worker),
		Department:   NewDepartmentService(repos.Department, repos.Item, auditSvc),
		Category:     NewCategoryService(repos.Category, auditSvc),
		Item:         NewItemService(repos.Item, repos.Category, repos.Department, repos.IssueRequest, auditSvc, worker),
		Request:      NewRequestService(repos.IssueRequest, repos.Item, repos.User, settingSvc, notificationSvc, emailSvc, auditSvc, worker),
		Issue:        NewIssueService(repos.IssueRecord, repos.IssueRequest, notificationSvc, auditSvc, worker),
		Return:       NewReturnService(repos.IssueRecord, settingSvc, notificationSvc, emailSvc, auditSvc, worker),
		Transfer:     NewTransferService(repos.Transfer, repos.Item, repos.Department, notificationSvc, auditSvc, worker),
		Setting:      settingSvc,
		Notification: notificationSvc,
		Report:       NewReportService(repos.Item, repos.IssueRecord, repos.IssueRequest, repos.Transfer),
		Import:       NewImportService(repos.Item, repos.Category, repos.Department, auditSvc, worker),
		Audit:        auditSvc,
		Email:        emailSvc,
		Job:          NewJobService(worker, repos.IssueRecord, settingSvc, notificationSvc, emailSvc),
	}
}
