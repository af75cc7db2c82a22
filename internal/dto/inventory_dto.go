package dto

import (
	"github.com/shopspring/decimal"
)

// ─── Stock-in ────────────────────────────────────────────────────────────────

type StockInRequest struct {
	Barcode      string          `json:"barcode"      validate:"required,max=64"`
	Name         string          `json:"name"         validate:"required,max=200"`
	Category     string          `json:"category"     validate:"required,max=100"`
	Manufacturer *string         `json:"manufacturer"`
	BatchNumber  string          `json:"batchNumber"  validate:"required,max=64"`
	ExpiryDate   string          `json:"expiryDate"   validate:"required,datetime=2006-01-02" example:"2027-03-31"`
	Quantity     int             `json:"quantity"     validate:"required,min=1"`
	CostPrice    decimal.Decimal `json:"costPrice"    validate:"min=0"`
	SellingPrice decimal.Decimal `json:"sellingPrice" validate:"min=0"`
	Supplier     *string         `json:"supplier"`
}

type ProductResponse struct {
	ID           string  `json:"id"`
	Barcode      string  `json:"barcode"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Manufacturer *string `json:"manufacturer,omitempty"`
	ReorderLevel int     `json:"reorderLevel"`
	Status       string  `json:"status"`
}

type BatchResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	BranchID     string          `json:"branchId"`
	BatchNumber  string          `json:"batchNumber"`
	ExpiryDate   string          `json:"expiryDate"`
	Quantity     int             `json:"quantity"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Supplier     *string         `json:"supplier,omitempty"`
}

type StockInResponse struct {
	Product        ProductResponse `json:"product"`
	Batch          BatchResponse   `json:"batch"`
	ProductCreated bool            `json:"productCreated"`
}

// ─── Adjustment ──────────────────────────────────────────────────────────────

type AdjustStockRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Type      string `json:"type"      validate:"required,oneof=in out adjustment"`
	Quantity  int    `json:"quantity"  validate:"required,min=1"`
	Reason    string `json:"reason"    validate:"required,min=3,max=255"`
}

type AdjustStockResponse struct {
	ProductID        string `json:"productId"`
	BatchID          string `json:"batchId"`
	BatchNumber      string `json:"batchNumber"`
	Type             string `json:"type"`
	Quantity         int    `json:"quantity"`
	PreviousQuantity int    `json:"previousQuantity"`
	NewQuantity      int    `json:"newQuantity"`
}

// ─── Lookups ─────────────────────────────────────────────────────────────────

type ScanResponse struct {
	Exists  bool             `json:"exists"`
	Product *ProductResponse `json:"product,omitempty"`
	Batches []BatchResponse  `json:"batches,omitempty"`
}

type InventorySummaryItem struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category"`
	TotalQuantity int     `json:"totalQuantity"`
	BatchCount    int     `json:"batchCount"`
	NearestExpiry *string `json:"nearestExpiry"`
	ReorderLevel  int     `json:"reorderLevel"`
	BelowReorder  bool    `json:"belowReorder"`
}

// ─── Expiry alerts ───────────────────────────────────────────────────────────

type ExpiryAlert struct {
	BatchID      string `json:"batchId"`
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	BatchNumber  string `json:"batchNumber"`
	ExpiryDate   string `json:"expiryDate"`
	Quantity     int    `json:"quantity"`
	DaysToExpiry int    `json:"daysToExpiry"`
	Status       string `json:"status"` // expired | critical | warning | safe
}

type ExpiryAlertSummary struct {
	Expired  int `json:"expired"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Safe     int `json:"safe"`
}

type ExpiryAlertsResponse struct {
	Summary ExpiryAlertSummary `json:"summary"`
	Alerts  []ExpiryAlert      `json:"alerts"`
}

// ─── Movement history ────────────────────────────────────────────────────────

// StockHistoryFilter is bound from GET /v1/inventory/history.
type StockHistoryFilter struct {
	ProductID string `form:"productId" validate:"omitempty,uuid"`
	Type      string `form:"type"      validate:"omitempty,oneof=in out adjustment return sale"`
	From      string `form:"from"      validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"        validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page,default=1"    validate:"min=1"`
	Limit     int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type MovementResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"productId"`
	ProductName      string  `json:"productName"`
	BatchID          *string `json:"batchId,omitempty"`
	BatchNumber      string  `json:"batchNumber"`
	Type             string  `json:"type"`
	Quantity         int     `json:"quantity"`
	PreviousQuantity int     `json:"previousQuantity"`
	NewQuantity      int     `json:"newQuantity"`
	Reason           string  `json:"reason"`
	SaleID           *string `json:"saleId,omitempty"`
	PerformedBy      string  `json:"performedBy"`
	CreatedAt        string  `json:"createdAt"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
