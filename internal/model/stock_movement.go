package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement types.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementReturn     = "return"
	MovementSale       = "sale"
)

// StockMovement is the immutable audit record of one quantity change to one
// batch. Quantity is signed: positive adds units, negative removes them.
type StockMovement struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_movements_branch_created,priority:1"`
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductName      string     `gorm:"not null"`
	BatchID          *uuid.UUID `gorm:"type:uuid;index"`
	BatchNumber      string
	Type             string          `gorm:"type:varchar(20);not null;index"`
	Quantity         int             `gorm:"not null"`
	PreviousQuantity int             `gorm:"not null"`
	NewQuantity      int             `gorm:"not null"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(12,2)"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Reason           string
	SaleID           *uuid.UUID `gorm:"type:uuid;index"` // set for type=sale
	PerformedBy      string     `gorm:"not null"`
	PerformedByID    uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt        time.Time  `gorm:"index:idx_movements_branch_created,priority:2"`
}
