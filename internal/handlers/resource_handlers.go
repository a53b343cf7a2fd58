package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/middleware"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/services"
)

type DepartmentHandler struct {
	departmentService *services.DepartmentService
	userService       *services.UserService
}

func NewDepartmentHandler(departmentService *services.DepartmentService, userService *services.UserService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService, userService: userService}
}

// @Summary List Departments
// @Description Get all departments
// @Tags Departments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /departments [get]
func (h *DepartmentHandler) Index(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// @Summary Get Department
// @Description Get a department by ID
// @Tags Departments
// @Accept json
// @Produce json
// @Param department_id path int true "Department ID"
// @Success 200 {object} models.Department
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /departments/{department_id} [get]
func (h *DepartmentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("department_id"), 10, 32)
	department, err := h.departmentService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": department})
}

// @Summary List Department Incharges
// @Description Get the users assigned as incharge of a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param department_id path int true "Department ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /departments/{department_id}/incharges [get]
func (h *DepartmentHandler) Incharges(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("department_id"), 10, 32)
	incharges, err := h.departmentService.ListIncharges(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []models.UserResponse
	for _, u := range incharges {
		responses = append(responses, u.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"incharges": responses})
}

// @Summary Create Department
// @Description Create a new department; the code becomes the manual ID prefix
// @Tags Departments
// @Accept json
// @Produce json
// @Param request body services.CreateDepartmentInput true "Department Data"
// @Success 201 {object} models.Department
// @Security BearerAuth
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var input services.CreateDepartmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	department, err := h.departmentService.Create(c.Request.Context(), input, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"department": department})
}

type UpdateDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

// @Summary Update Department
// @Description Rename a department (the code is immutable)
// @Tags Departments
// @Accept json
// @Produce json
// @Param department_id path int true "Department ID"
// @Param request body UpdateDepartmentRequest true "Department Data"
// @Success 200 {object} models.Department
// @Security BearerAuth
// @Router /departments/{department_id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("department_id"), 10, 32)
	var req UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	department, err := h.departmentService.Update(c.Request.Context(), uint(id), req.Name, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": department})
}

// @Summary Delete Department
// @Description Delete a department that holds no items
// @Tags Departments
// @Accept json
// @Produce json
// @Param department_id path int true "Department ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /departments/{department_id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("department_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.departmentService.Delete(c.Request.Context(), uint(id), actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Department deleted"})
}

type CategoryHandler struct {
	categoryService *services.CategoryService
	userService     *services.UserService
}

func NewCategoryHandler(categoryService *services.CategoryService, userService *services.UserService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, userService: userService}
}

// @Summary List Categories
// @Description Get all item categories
// @Tags Categories
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories [get]
func (h *CategoryHandler) Index(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// @Summary Get Category
// @Description Get a category by ID
// @Tags Categories
// @Accept json
// @Produce json
// @Param category_id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{category_id} [get]
func (h *CategoryHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("category_id"), 10, 32)
	category, err := h.categoryService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// @Summary Create Category
// @Description Create a new item category
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body services.CreateCategoryInput true "Category Data"
// @Success 201 {object} models.Category
// @Security BearerAuth
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var input services.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), input, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// @Summary Update Category
// @Description Update a category; duration changes only affect future approvals
// @Tags Categories
// @Accept json
// @Produce json
// @Param category_id path int true "Category ID"
// @Param request body services.UpdateCategoryInput true "Category Data"
// @Success 200 {object} models.Category
// @Security BearerAuth
// @Router /categories/{category_id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("category_id"), 10, 32)
	var input services.UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), uint(id), input, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// @Summary Delete Category
// @Description Delete a category with no items
// @Tags Categories
// @Accept json
// @Produce json
// @Param category_id path int true "Category ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{category_id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("category_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), uint(id), actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Get notifications for the current user
// @Tags Notifications
// @Accept json
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	userID := middleware.GetUserID(c)
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notificationService.FindByUser(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.NotificationResponse
	for _, n := range notifications {
		responses = append(responses, n.ToResponse())
	}

	unread, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": responses, "unread_count": unread})
}

// @Summary Mark Notification Read
// @Description Mark one of the current user's notifications as read
// @Tags Notifications
// @Accept json
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{notification_id}/read [put]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("notification_id"), 10, 32)
	userID := middleware.GetUserID(c)
	if err := h.notificationService.MarkAsRead(c.Request.Context(), uint(id), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// @Summary Mark All Notifications Read
// @Description Mark all of the current user's notifications as read
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/mark_all_as_read [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

type SettingHandler struct {
	settingService *services.SettingService
}

func NewSettingHandler(settingService *services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// @Summary List Settings
// @Description Get all borrowing policy settings
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingHandler) Index(c *gin.Context) {
	settings, err := h.settingService.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// @Summary Update Setting
// @Description Update one policy setting by key
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting Key"
// @Param request body UpdateSettingRequest true "New Value"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /settings/{key} [put]
func (h *SettingHandler) Update(c *gin.Context) {
	key := c.Param("key")
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settingService.Update(c.Request.Context(), key, req.Value, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting updated"})
}

// @Summary Reset Settings
// @Description Restore all policy settings to their defaults
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /settings/reset [post]
func (h *SettingHandler) Reset(c *gin.Context) {
	if err := h.settingService.ResetDefaults(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings reset to defaults"})
}

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Get a paginated list of audit log entries, newest first
// @Tags Audit
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit_logs [get]
func (h *AuditHandler) Index(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}

	logs, total, err := h.auditService.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": (total + int64(perPage) - 1) / int64(perPage),
		},
	})
}

// @Summary Entity Audit Trail
// @Description Get the audit trail for one entity
// @Tags Audit
// @Accept json
// @Produce json
// @Param entity query string true "Entity name"
// @Param entity_id query int true "Entity ID"
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit_logs/entity [get]
func (h *AuditHandler) Entity(c *gin.Context) {
	entity := c.Query("entity")
	entityID, _ := strconv.ParseUint(c.Query("entity_id"), 10, 32)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if entity == "" || entityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity and entity_id are required"})
		return
	}

	logs, err := h.auditService.ListForEntity(c.Request.Context(), entity, uint(entityID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
