package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/middleware"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/services"
)

type RequestHandler struct {
	requestService *services.RequestService
	userService    *services.UserService
}

func NewRequestHandler(requestService *services.RequestService, userService *services.UserService) *RequestHandler {
	return &RequestHandler{requestService: requestService, userService: userService}
}

// @Summary List Issue Requests
// @Description Get a paginated list of borrow requests; non-staff only see their own
// @Tags Requests
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param department_id query int false "Filter by item department"
// @Param user_id query int false "Filter by requester (staff only)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /issue_requests [get]
func (h *RequestHandler) Index(c *gin.Context) {
	query := &repository.RequestQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")

	deptID, _ := strconv.ParseUint(c.Query("department_id"), 10, 32)
	query.DepartmentID = uint(deptID)

	role := middleware.GetUserRole(c)
	if role == models.RoleAdmin || role == models.RoleIncharge || role == models.RoleProcurement {
		userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 32)
		query.UserID = uint(userID)
	} else {
		// Borrowers only ever see their own requests
		query.UserID = middleware.GetUserID(c)
	}

	requests, total, err := h.requestService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.IssueRequestResponse
	for _, r := range requests {
		responses = append(responses, r.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"issue_requests": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Issue Request
// @Description Get a borrow request by ID
// @Tags Requests
// @Accept json
// @Produce json
// @Param request_id path int true "Request ID"
// @Success 200 {object} models.IssueRequestResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /issue_requests/{request_id} [get]
func (h *RequestHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("request_id"), 10, 32)
	request, err := h.requestService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	if !middleware.IsAdmin(c) && !middleware.IsIncharge(c) && request.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only view your own requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue_request": request.ToResponse()})
}

// @Summary Create Issue Request
// @Description Submit a borrow request; exempt roles are approved immediately
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body services.CreateRequestInput true "Request Data"
// @Success 201 {object} models.IssueRequestResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /issue_requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var input services.CreateRequestInput
	if err := BindNestedOrFlat(c, "issue_request", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.ItemID == 0 || input.Purpose == "" || input.RequestedDays < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id, purpose and requested_days are required"})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"issue_request": request.ToResponse(), "message": "Request submitted"})
}

type ApproveRequestRequest struct {
	CollectionInstructions *string `json:"collection_instructions"`
}

// @Summary Approve Issue Request
// @Description Approve a pending borrow request
// @Tags Requests
// @Accept json
// @Produce json
// @Param request_id path int true "Request ID"
// @Param request body ApproveRequestRequest false "Collection Instructions"
// @Success 200 {object} models.IssueRequestResponse
// @Security BearerAuth
// @Router /issue_requests/{request_id}/approve [put]
func (h *RequestHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("request_id"), 10, 32)
	var req ApproveRequestRequest
	// Body is optional
	_ = c.ShouldBindJSON(&req)

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	request, err := h.requestService.Approve(c.Request.Context(), uint(id), actor,
		req.CollectionInstructions, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue_request": request.ToResponse(), "message": "Request approved"})
}

type RejectRequestRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Reject Issue Request
// @Description Reject a pending borrow request with a reason
// @Tags Requests
// @Accept json
// @Produce json
// @Param request_id path int true "Request ID"
// @Param request body RejectRequestRequest true "Rejection Reason"
// @Success 200 {object} models.IssueRequestResponse
// @Security BearerAuth
// @Router /issue_requests/{request_id}/reject [put]
func (h *RequestHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("request_id"), 10, 32)
	var req RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	request, err := h.requestService.Reject(c.Request.Context(), uint(id), actor,
		req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue_request": request.ToResponse(), "message": "Request rejected"})
}

// @Summary Cancel Issue Request
// @Description Cancel one of your own pending requests
// @Tags Requests
// @Accept json
// @Produce json
// @Param request_id path int true "Request ID"
// @Success 200 {object} models.IssueRequestResponse
// @Security BearerAuth
// @Router /issue_requests/{request_id}/cancel [put]
func (h *RequestHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("request_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	request, err := h.requestService.Cancel(c.Request.Context(), uint(id), actor,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue_request": request.ToResponse(), "message": "Request cancelled"})
}
