package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Department   DepartmentRepository
	Category     CategoryRepository
	Item         ItemRepository
	IssueRequest IssueRequestRepository
	IssueRecord  IssueRecordRepository
	Transfer     TransferRepository
	Setting      SettingRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repositories with the given database connection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Department:   NewDepartmentRepository(db),
		Category:     NewCategoryRepository(db),
		Item:         NewItemRepository(db),
		IssueRequest: NewIssueRequestRepository(db),
		IssueRecord:  NewIssueRecordRepository(db),
		Transfer:     NewTransferRepository(db),
		Setting:      NewSettingRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}
