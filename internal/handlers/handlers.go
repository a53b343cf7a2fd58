package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/middleware"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Department   *DepartmentHandler
	Category     *CategoryHandler
	Item         *ItemHandler
	Request      *RequestHandler
	Issue        *IssueHandler
	Transfer     *TransferHandler
	Setting      *SettingHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Department:   NewDepartmentHandler(svcs.Department, svcs.User),
		Category:     NewCategoryHandler(svcs.Category, svcs.User),
		Item:         NewItemHandler(svcs.Item, svcs.Import, svcs.Report, svcs.User),
		Request:      NewRequestHandler(svcs.Request, svcs.User),
		Issue:        NewIssueHandler(svcs.Issue, svcs.Return, svcs.Report, svcs.User),
		Transfer:     NewTransferHandler(svcs.Transfer, svcs.User),
		Setting:      NewSettingHandler(svcs.Setting),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}

// respondError translates service errors into HTTP status codes. Services
// return wrapped sentinel errors, so every handler can delegate here instead
// of repeating the mapping.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrInvalidRecoveryCode):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrUserBanned),
		errors.Is(err, services.ErrUserNotApproved):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrAlreadyReturned),
		errors.Is(err, services.ErrItemNotAvailable),
		errors.Is(err, services.ErrBorrowLimit),
		errors.Is(err, services.ErrInsufficientStock):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUser loads the authenticated user (with department assignments) for
// handlers whose service calls authorize against the full account, not just
// the token claims.
func currentUser(c *gin.Context, users *services.UserService) (*models.User, bool) {
	actor, err := users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session account no longer exists"})
		return nil, false
	}
	return actor, true
}
