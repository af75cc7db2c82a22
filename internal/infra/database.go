package infra

import (
	"fmt"

	"github.com/bamskydbest/pharm-back/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (check constraints, partial indexes, sequences).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema. It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.Batch{},
		&model.StockMovement{},
		&model.Sale{},
		&model.SaleItem{},
		&model.LedgerEntry{},
		&model.Customer{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs DDL that AutoMigrate does not manage. Each statement
// is guarded so re-running on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Last line of defence against oversell: the conditional decrement
		// already refuses, the constraint makes it impossible.
		{"batches quantity non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_batches_quantity_non_negative') THEN
    ALTER TABLE batches ADD CONSTRAINT chk_batches_quantity_non_negative CHECK (quantity >= 0);
  END IF;
END $$`},
		{"sale item quantity positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sale_items_quantity_positive') THEN
    ALTER TABLE sale_items ADD CONSTRAINT chk_sale_items_quantity_positive CHECK (quantity > 0);
  END IF;
END $$`},
		// FEFO lookups only ever touch in-stock rows.
		{"sellable batches partial index",
			`CREATE INDEX IF NOT EXISTS idx_batches_sellable
			   ON batches (product_id, branch_id, expiry_date, created_at)
			   WHERE quantity > 0`},
		{"receipt number sequence",
			`CREATE SEQUENCE IF NOT EXISTS sales_receipt_no_seq START WITH 1000`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
