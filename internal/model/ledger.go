package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry types.
const (
	LedgerSale       = "SALE"
	LedgerExpense    = "EXPENSE"
	LedgerRefund     = "REFUND"
	LedgerAdjustment = "ADJUSTMENT"
	LedgerCost       = "COST"
)

// LedgerEntry is an append-only financial fact. Entries are never updated;
// corrections are new entries.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_branch_created,priority:1"`
	Type        string          `gorm:"type:varchar(20);not null"`
	ReferenceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string
	CreatedByID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"index:idx_ledger_branch_created,priority:2"`
}
