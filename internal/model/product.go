package model

import (
	"time"

	"github.com/google/uuid"
)

// Product lifecycle status. Products are never hard-deleted.
const (
	ProductActive       = "active"
	ProductDiscontinued = "discontinued"
)

// Product is a catalog entry shared by all branches. It is created on the
// first stock-in of its barcode; inventory lives in Batch rows.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode      string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"index;not null"`
	Category     string    `gorm:"not null"`
	Manufacturer *string
	ReorderLevel int        `gorm:"not null;default:10"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedByID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Product) IsActive() bool { return p.Status != ProductDiscontinued }
