package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is a lot of one product received into one branch. Quantity is the only
// hot mutable field: it changes through conditional updates only and never
// drops below zero. Exhausted batches are kept for the audit trail.
type Batch struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_batches_product_branch_expiry,priority:1"`
	BranchID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_batches_product_branch_expiry,priority:2"`
	BatchNumber  string          `gorm:"not null"`
	ExpiryDate   time.Time       `gorm:"not null;index:idx_batches_product_branch_expiry,priority:3"`
	Quantity     int             `gorm:"not null;default:0"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Supplier     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// IsSellable reports whether the batch can be drawn from at instant now.
func (b *Batch) IsSellable(now time.Time) bool {
	return b.Quantity > 0 && b.ExpiryDate.After(now)
}
