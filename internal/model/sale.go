package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the till.
const (
	PaymentCash = "CASH"
	PaymentCard = "CARD"
	PaymentMomo = "MOMO"
)

// Sale is a completed transaction. It is written once, together with its
// ledger entry and stock movements, and never modified afterwards.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptNo     int64           `gorm:"uniqueIndex;not null"`
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_branch_created,priority:1"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(10);not null"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Change        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SoldByID      uuid.UUID       `gorm:"type:uuid;not null"`
	SoldByName    string          `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"index:idx_sales_branch_created,priority:2"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

// SaleItem is one batch draw. A requested basket line that spans several
// batches produces several items. ProductID/BatchID are plain references.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null"`
	Name        string          `gorm:"not null"`
	BatchNumber string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
