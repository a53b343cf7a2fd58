package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/services"
)

type ItemHandler struct {
	itemService   *services.ItemService
	importService *services.ImportService
	reportService *services.ReportService
	userService   *services.UserService
}

func NewItemHandler(
	itemService *services.ItemService,
	importService *services.ImportService,
	reportService *services.ReportService,
	userService *services.UserService,
) *ItemHandler {
	return &ItemHandler{
		itemService:   itemService,
		importService: importService,
		reportService: reportService,
		userService:   userService,
	}
}

// @Summary List Items
// @Description Get a paginated list of inventory items
// @Tags Items
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by name or manual ID"
// @Param department_id query int false "Filter by department"
// @Param category_id query int false "Filter by category"
// @Param status query string false "Filter by status"
// @Param condition query string false "Filter by condition"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /items [get]
func (h *ItemHandler) Index(c *gin.Context) {
	query := &repository.ItemQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Status = c.Query("status")
	query.Condition = c.Query("condition")

	deptID, _ := strconv.ParseUint(c.Query("department_id"), 10, 32)
	query.DepartmentID = uint(deptID)
	catID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)
	query.CategoryID = uint(catID)

	items, total, err := h.itemService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.ItemResponse
	for _, i := range items {
		responses = append(responses, i.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"items": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Item
// @Description Get an item by ID, or by manual ID when the path value is not numeric
// @Tags Items
// @Accept json
// @Produce json
// @Param item_id path string true "Item ID or Manual ID"
// @Success 200 {object} models.ItemResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /items/{item_id} [get]
func (h *ItemHandler) Show(c *gin.Context) {
	raw := c.Param("item_id")

	var item *models.Item
	var err error
	if id, parseErr := strconv.ParseUint(raw, 10, 32); parseErr == nil {
		item, err = h.itemService.GetByID(c.Request.Context(), uint(id))
	} else {
		// Labels printed on the physical items carry the manual ID (CODE-NNN),
		// so lookups by label land here.
		item, err = h.itemService.GetByManualID(c.Request.Context(), raw)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse()})
}

// @Summary Create Item
// @Description Register a new inventory item; the manual ID is assigned from the department sequence
// @Tags Items
// @Accept json
// @Produce json
// @Param request body services.CreateItemInput true "Item Data"
// @Success 201 {object} models.ItemResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	var input services.CreateItemInput
	if err := BindNestedOrFlat(c, "item", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == "" || input.CategoryID == 0 || input.DepartmentID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, category_id and department_id are required"})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), input, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item.ToResponse(), "message": "Item created"})
}

// @Summary Update Item
// @Description Update item details; status is managed by issuance, returns and transfers
// @Tags Items
// @Accept json
// @Produce json
// @Param item_id path int true "Item ID"
// @Param request body services.UpdateItemInput true "Item Fields"
// @Success 200 {object} models.ItemResponse
// @Security BearerAuth
// @Router /items/{item_id} [put]
func (h *ItemHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("item_id"), 10, 32)
	var input services.UpdateItemInput
	if err := BindNestedOrFlat(c, "item", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), uint(id), input, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse(), "message": "Item updated"})
}

type MaintenanceRequest struct {
	UnderMaintenance bool `json:"under_maintenance"`
}

// @Summary Set Maintenance
// @Description Move an item in or out of maintenance
// @Tags Items
// @Accept json
// @Produce json
// @Param item_id path int true "Item ID"
// @Param request body MaintenanceRequest true "Maintenance Flag"
// @Success 200 {object} models.ItemResponse
// @Security BearerAuth
// @Router /items/{item_id}/maintenance [put]
func (h *ItemHandler) SetMaintenance(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("item_id"), 10, 32)
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	item, err := h.itemService.SetMaintenance(c.Request.Context(), uint(id), req.UnderMaintenance, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse(), "message": "Item updated"})
}

// @Summary Delete Item
// @Description Delete an item with no outstanding loans or open requests
// @Tags Items
// @Accept json
// @Produce json
// @Param item_id path int true "Item ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /items/{item_id} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("item_id"), 10, 32)
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.itemService.Delete(c.Request.Context(), uint(id), actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// @Summary Import Items
// @Description Bulk import items from an XLSX upload; the whole file is rejected if any row is invalid
// @Tags Items
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file"
// @Success 200 {object} services.ImportResult
// @Failure 422 {object} services.ImportResult
// @Security BearerAuth
// @Router /items/import [post]
func (h *ItemHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An XLSX file is required under the 'file' field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	result, err := h.importService.ImportItemsXLSX(c.Request.Context(), file, actor)
	if err != nil {
		// Row-level failures return the per-row details alongside the error
		if result != nil && len(result.Errors) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "errors": result.Errors})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Export Inventory
// @Description Download the full inventory as an XLSX workbook
// @Tags Items
// @Produce application/octet-stream
// @Success 200 {file} file "inventory.xlsx"
// @Security BearerAuth
// @Router /items/export [get]
func (h *ItemHandler) Export(c *gin.Context) {
	data, filename, err := h.reportService.InventoryXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}
