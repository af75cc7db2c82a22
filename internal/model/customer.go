package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is the per-branch loyalty record. It is updated after a sale
// commits and is never part of the sale's atomic unit.
type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customers_branch_phone,priority:1"`
	Name          string    `gorm:"not null"`
	Phone         string    `gorm:"not null;uniqueIndex:idx_customers_branch_phone,priority:2"`
	Email         *string
	Address       *string
	LoyaltyPoints int64           `gorm:"not null;default:0"`
	TotalSpent    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PurchaseCount int             `gorm:"not null;default:0"`
	LastVisit     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
