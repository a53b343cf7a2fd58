package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/services"
)

type TransferHandler struct {
	transferService *services.TransferService
	userService     *services.UserService
}

func NewTransferHandler(transferService *services.TransferService, userService *services.UserService) *TransferHandler {
	return &TransferHandler{transferService: transferService, userService: userService}
}

// @Summary List Transfers
// @Description Get a paginated list of inter-department transfers
// @Tags Transfers
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param department_id query int false "Filter by either side of the transfer"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /transfers [get]
func (h *TransferHandler) Index(c *gin.Context) {
	query := &repository.TransferQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")

	deptID, _ := strconv.ParseUint(c.Query("department_id"), 10, 32)
	query.DepartmentID = uint(deptID)

	transfers, total, err := h.transferService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.TransferRequestResponse
	for _, t := range transfers {
		responses = append(responses, t.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"transfers": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Transfer
// @Description Get a transfer by ID
// @Tags Transfers
// @Accept json
// @Produce json
// @Param transfer_id path int true "Transfer ID"
// @Success 200 {object} models.TransferRequestResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /transfers/{transfer_id} [get]
func (h *TransferHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("transfer_id"), 10, 32)
	transfer, err := h.transferService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfer": transfer.ToResponse()})
}

// @Summary Create Transfer
// @Description Request an inter-department transfer of an item or consumable stock
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body services.CreateTransferInput true "Transfer Data"
// @Success 201 {object} models.TransferRequestResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /transfers [post]
func (h *TransferHandler) Create(c *gin.Context) {
	var input services.CreateTransferInput
	if err := BindNestedOrFlat(c, "transfer", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.ItemID == 0 || input.ToDepartmentID == 0 || input.Purpose == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id, to_department_id and purpose are required"})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	transfer, err := h.transferService.Create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transfer": transfer.ToResponse(), "message": "Transfer requested"})
}

// @Summary Approve Transfer
// @Description Approve a pending transfer (destination incharge or admin)
// @Tags Transfers
// @Accept json
// @Produce json
// @Param transfer_id path int true "Transfer ID"
// @Success 200 {object} models.TransferRequestResponse
// @Security BearerAuth
// @Router /transfers/{transfer_id}/approve [put]
func (h *TransferHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("transfer_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	transfer, err := h.transferService.Approve(c.Request.Context(), uint(id), actor,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer.ToResponse(), "message": "Transfer approved"})
}

type RejectTransferRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Reject Transfer
// @Description Reject a pending transfer with a reason
// @Tags Transfers
// @Accept json
// @Produce json
// @Param transfer_id path int true "Transfer ID"
// @Param request body RejectTransferRequest true "Rejection Reason"
// @Success 200 {object} models.TransferRequestResponse
// @Security BearerAuth
// @Router /transfers/{transfer_id}/reject [put]
func (h *TransferHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("transfer_id"), 10, 32)
	var req RejectTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	transfer, err := h.transferService.Reject(c.Request.Context(), uint(id), actor,
		req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer.ToResponse(), "message": "Transfer rejected"})
}

// @Summary Complete Transfer
// @Description Complete an approved transfer, moving the item or stock
// @Tags Transfers
// @Accept json
// @Produce json
// @Param transfer_id path int true "Transfer ID"
// @Success 200 {object} models.TransferRequestResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /transfers/{transfer_id}/complete [put]
func (h *TransferHandler) Complete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("transfer_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	transfer, err := h.transferService.Complete(c.Request.Context(), uint(id), actor,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer.ToResponse(), "message": "Transfer completed"})
}

// @Summary Cancel Transfer
// @Description Cancel one of your own pending transfers
// @Tags Transfers
// @Accept json
// @Produce json
// @Param transfer_id path int true "Transfer ID"
// @Success 200 {object} models.TransferRequestResponse
// @Security BearerAuth
// @Router /transfers/{transfer_id}/cancel [put]
func (h *TransferHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("transfer_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	transfer, err := h.transferService.Cancel(c.Request.Context(), uint(id), actor,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer.ToResponse(), "message": "Transfer cancelled"})
}
