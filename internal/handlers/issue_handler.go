package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/middleware"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/services"
)

type IssueHandler struct {
	issueService  *services.IssueService
	returnService *services.ReturnService
	reportService *services.ReportService
	userService   *services.UserService
}

func NewIssueHandler(
	issueService *services.IssueService,
	returnService *services.ReturnService,
	reportService *services.ReportService,
	userService *services.UserService,
) *IssueHandler {
	return &IssueHandler{
		issueService:  issueService,
		returnService: returnService,
		reportService: reportService,
		userService:   userService,
	}
}

// @Summary List Issue Records
// @Description Get a paginated list of loans; non-staff only see their own
// @Tags Issues
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param outstanding query bool false "Only items not yet returned"
// @Param overdue query bool false "Only loans past their expected return date"
// @Param department_id query int false "Filter by item department"
// @Param user_id query int false "Filter by borrower (staff only)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /issue_records [get]
func (h *IssueHandler) Index(c *gin.Context) {
	query := &repository.IssueQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.OutstandingOnly = c.Query("outstanding") == "true"
	query.OverdueOnly = c.Query("overdue") == "true"

	deptID, _ := strconv.ParseUint(c.Query("department_id"), 10, 32)
	query.DepartmentID = uint(deptID)

	role := middleware.GetUserRole(c)
	if role == models.RoleAdmin || role == models.RoleIncharge || role == models.RoleProcurement {
		userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 32)
		query.UserID = uint(userID)
	} else {
		query.UserID = middleware.GetUserID(c)
	}

	records, total, err := h.issueService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	var responses []models.IssueRecordResponse
	for _, r := range records {
		responses = append(responses, r.ToResponse(now))
	}

	c.JSON(http.StatusOK, gin.H{
		"issue_records": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Issue Record
// @Description Get a loan by ID
// @Tags Issues
// @Accept json
// @Produce json
// @Param record_id path int true "Record ID"
// @Success 200 {object} models.IssueRecordResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /issue_records/{record_id} [get]
func (h *IssueHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("record_id"), 10, 32)
	record, err := h.issueService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	if !middleware.IsAdmin(c) && !middleware.IsIncharge(c) && record.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only view your own loans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue_record": record.ToResponse(time.Now())})
}

type IssueItemRequest struct {
	RequestID uint `json:"request_id" binding:"required"`
}

// @Summary Issue Item
// @Description Hand over the item for an approved request; the loan clock starts now
// @Tags Issues
// @Accept json
// @Produce json
// @Param request body IssueItemRequest true "Approved Request ID"
// @Success 201 {object} models.IssueRecordResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /issue_records [post]
func (h *IssueHandler) Create(c *gin.Context) {
	var req IssueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required"})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	record, err := h.issueService.Issue(c.Request.Context(), req.RequestID, actor,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"issue_record": record.ToResponse(time.Now()), "message": "Item issued"})
}

// @Summary Process Return
// @Description Record the return of an issued item, applying late and damage penalties
// @Tags Issues
// @Accept json
// @Produce json
// @Param record_id path int true "Record ID"
// @Param request body services.ReturnInput true "Return Data"
// @Success 200 {object} services.ReturnResult
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /issue_records/{record_id}/return [put]
func (h *IssueHandler) Return(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("record_id"), 10, 32)
	var input services.ReturnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	result, err := h.returnService.ProcessReturn(c.Request.Context(), uint(id), input, actor,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Issue Slip
// @Description Download the printable issue slip for a loan as PDF
// @Tags Issues
// @Produce application/pdf
// @Param record_id path int true "Record ID"
// @Success 200 {file} file "issue_slip.pdf"
// @Security BearerAuth
// @Router /issue_records/{record_id}/slip [get]
func (h *IssueHandler) Slip(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("record_id"), 10, 32)
	record, err := h.issueService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	if !middleware.IsAdmin(c) && !middleware.IsIncharge(c) && record.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only download your own issue slips"})
		return
	}

	data, filename, err := h.reportService.IssueSlipPDF(c.Request.Context(), record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
