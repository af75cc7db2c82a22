package service

import (
	"context"
	"time"

	"github.com/bamskydbest/pharm-back/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleCompleted is emitted once a sale has committed. Consumers (loyalty,
// receipt email) run outside the sale's atomic unit and cannot affect it.
type SaleCompleted struct {
	SaleID     uuid.UUID                `json:"sale_id"`
	BranchID   uuid.UUID                `json:"branch_id"`
	ReceiptNo  int64                    `json:"receipt_no"`
	Subtotal   decimal.Decimal          `json:"subtotal"`
	Customer   *dto.SaleCustomerRequest `json:"customer,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// SaleEventPublisher hands SaleCompleted to the async side. Implemented by
// worker.Dispatcher.
type SaleEventPublisher interface {
	PublishSaleCompleted(ctx context.Context, ev SaleCompleted) error
}
