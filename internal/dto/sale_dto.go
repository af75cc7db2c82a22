package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SaleItemRequest identifies a product by id or barcode. UnitPrice, when set,
// overrides the batch selling price for every unit of the line.
type SaleItemRequest struct {
	ProductID string           `json:"productId" validate:"omitempty,uuid"`
	Barcode   string           `json:"barcode"   validate:"omitempty,max=64"`
	Quantity  int              `json:"quantity"  validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// SaleCustomerRequest carries the optional loyalty customer. Either
// CustomerID references an existing record or Name/Phone describe one.
type SaleCustomerRequest struct {
	CustomerID string  `json:"customerId" validate:"omitempty,uuid"`
	Name       string  `json:"name"       validate:"omitempty,max=120"`
	Phone      string  `json:"phone"      validate:"omitempty,max=32"`
	Email      *string `json:"email"      validate:"omitempty,email"`
	Address    *string `json:"address"`
	IsNew      bool    `json:"isNew"`
}

// CreateSaleRequest is bound from POST /v1/sales. An empty Items slice is
// rejected by the service with an EMPTY_BASKET error rather than by tags.
type CreateSaleRequest struct {
	Items         []SaleItemRequest    `json:"items"         validate:"dive"`
	PaymentMethod string               `json:"paymentMethod" validate:"required,oneof=CASH CARD MOMO"`
	AmountPaid    decimal.Decimal      `json:"amountPaid"    validate:"min=0"`
	Customer      *SaleCustomerRequest `json:"customer,omitempty"`
}

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID   string          `json:"productId"`
	BatchID     string          `json:"batchId"`
	Name        string          `json:"name"`
	BatchNumber string          `json:"batchNumber"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

type SoldBy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	ReceiptNo     int64              `json:"receiptNo"`
	BranchID      string             `json:"branchId"`
	Items         []SaleItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	PaymentMethod string             `json:"paymentMethod"`
	AmountPaid    decimal.Decimal    `json:"amountPaid"`
	Change        decimal.Decimal    `json:"change"`
	SoldBy        SoldBy             `json:"soldBy"`
	CreatedAt     string             `json:"createdAt"`
}

type SaleListResponse struct {
	Data       []SaleResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}
