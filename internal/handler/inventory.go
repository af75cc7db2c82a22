package handler

import (
	"net/http"

	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// StockIn godoc
// @Summary      Receive a batch
// @Description  Creates the product when the barcode is new, then the batch and its "in" movement. Expired batches are rejected.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StockInRequest true "Batch received"
// @Success      201  {object} dto.StockInResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/inventory/stock-in [post]
func (h *InventoryHandler) StockIn(c *gin.Context) {
	var req dto.StockInRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.StockIn(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AdjustStock godoc
// @Summary      Manual stock adjustment
// @Description  Applies in/out/adjustment to the soonest-expiring sellable batch and records a movement.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AdjustStockRequest true "Adjustment"
// @Success      200  {object} dto.AdjustStockResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/inventory/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DiscontinueProduct godoc
// @Summary      Discontinue a product
// @Description  Soft delete: the product stays in history and reports but can no longer be sold or restocked.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Product ID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/inventory/products/{id}/discontinue [post]
func (h *InventoryHandler) DiscontinueProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.DiscontinueProduct(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Scan godoc
// @Summary      Scan a barcode
// @Description  Returns the product and its sellable batches in FEFO order, or exists=false.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "Barcode"
// @Success      200     {object} dto.ScanResponse
// @Router       /v1/inventory/scan/{barcode} [get]
func (h *InventoryHandler) Scan(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.ScanBarcode(c.Request.Context(), p, c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Inventory summary
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.InventorySummaryItem
// @Router       /v1/inventory [get]
func (h *InventoryHandler) Summary(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.InventorySummary(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExpiryAlerts godoc
// @Summary      Expiry alerts
// @Description  Classifies every in-stock batch as expired, critical, warning or safe.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ExpiryAlertsResponse
// @Router       /v1/inventory/alerts [get]
func (h *InventoryHandler) ExpiryAlerts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.ExpiryAlerts(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Stock movement history
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        productId query string false "Product UUID"
// @Param        type      query string false "in | out | adjustment | return | sale"
// @Param        from      query string false "YYYY-MM-DD"
// @Param        to        query string false "YYYY-MM-DD"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Page size (default 100)"
// @Success      200       {object} dto.MovementListResponse
// @Router       /v1/inventory/history [get]
func (h *InventoryHandler) History(c *gin.Context) {
	var filter dto.StockHistoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.StockHistory(c.Request.Context(), p, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
