package dto

import "github.com/shopspring/decimal"

// DateRange is bound from ?from=YYYY-MM-DD&to=YYYY-MM-DD.
type DateRange struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to"   validate:"required,datetime=2006-01-02"`
}

// StockReportLine reconciles one product over the requested range.
// OpeningRaw is the value before clamping; OpeningClamped is true when the
// movement history could not account for the current quantity.
type StockReportLine struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Barcode        string `json:"barcode"`
	Opening        int    `json:"opening"`
	OpeningRaw     int    `json:"openingRaw"`
	OpeningClamped bool   `json:"openingClamped"`
	Purchases      int    `json:"purchases"`
	Returns        int    `json:"returns"`
	Consumption    int    `json:"consumption"`
	Balance        int    `json:"balance"`
	Closing        int    `json:"closing"`
}

type StockReportSummary struct {
	Products            int `json:"products"`
	TotalOpening        int `json:"totalOpening"`
	TotalPurchases      int `json:"totalPurchases"`
	TotalReturns        int `json:"totalReturns"`
	TotalConsumption    int `json:"totalConsumption"`
	TotalClosing        int `json:"totalClosing"`
	DataQualityWarnings int `json:"dataQualityWarnings"`
}

type StockReportResponse struct {
	From    string             `json:"from"`
	To      string             `json:"to"`
	Lines   []StockReportLine  `json:"lines"`
	Summary StockReportSummary `json:"summary"`
}

type DailySales struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type SalesSummary struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalSales   int64           `json:"totalSales"`
	AvgSale      decimal.Decimal `json:"avgSale"`
}

type SalesReportResponse struct {
	Daily   []DailySales `json:"daily"`
	Summary SalesSummary `json:"summary"`
}

// LedgerFilter is bound from GET /v1/reports/ledger.
type LedgerFilter struct {
	Type  string `form:"type"  validate:"omitempty,oneof=SALE EXPENSE REFUND ADJUSTMENT COST"`
	From  string `form:"from"  validate:"omitempty,datetime=2006-01-02"`
	To    string `form:"to"    validate:"omitempty,datetime=2006-01-02"`
	Page  int    `form:"page,default=1"    validate:"min=1"`
	Limit int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	ReferenceID string          `json:"referenceId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"createdAt"`
}

type LedgerListResponse struct {
	Data  []LedgerEntryResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
