package handler

import (
	"net/http"

	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler { return &ReportsHandler{svc: svc} }

// StockReport godoc
// @Summary      Stock reconciliation report
// @Description  Per product: opening, purchases, returns, consumption, balance and closing over the inclusive date range.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string true "YYYY-MM-DD"
// @Param        to   query string true "YYYY-MM-DD"
// @Success      200  {object} dto.StockReportResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reports/stock [get]
func (h *ReportsHandler) StockReport(c *gin.Context) {
	var r dto.DateRange
	if !bindQuery(c, &r) {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.StockReport(c.Request.Context(), p, r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SalesReport godoc
// @Summary      Sales report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string true "YYYY-MM-DD"
// @Param        to   query string true "YYYY-MM-DD"
// @Success      200  {object} dto.SalesReportResponse
// @Router       /v1/reports/sales [get]
func (h *ReportsHandler) SalesReport(c *gin.Context) {
	var r dto.DateRange
	if !bindQuery(c, &r) {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.SalesReport(c.Request.Context(), p, r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ledger godoc
// @Summary      Ledger entries
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        type  query string false "SALE | EXPENSE | REFUND | ADJUSTMENT | COST"
// @Param        from  query string false "YYYY-MM-DD"
// @Param        to    query string false "YYYY-MM-DD"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Page size (default 100)"
// @Success      200   {object} dto.LedgerListResponse
// @Router       /v1/reports/ledger [get]
func (h *ReportsHandler) Ledger(c *gin.Context) {
	var filter dto.LedgerFilter
	if !bindQuery(c, &filter) {
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.LedgerEntries(c.Request.Context(), p, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
