package repository

import (
	"context"
	"time"

	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyTotal is one row of the per-day sales aggregate.
type DailyTotal struct {
	Date  string
	Total decimal.Decimal
	Count int64
}

type SaleRepository interface {
	// Record writes the sale with its items, the SALE ledger entry and the
	// stock movements. Callers pass the transaction that performed the batch
	// decrements so all of it commits or rolls back together.
	Record(ctx context.Context, tx *gorm.DB, sale *model.Sale, ledger *model.LedgerEntry, movements []model.StockMovement) error
	NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	FindByID(ctx context.Context, branchID, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, branchID uuid.UUID, page, limit int) ([]model.Sale, int64, error)
	DailyTotals(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]DailyTotal, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Record(ctx context.Context, tx *gorm.DB, sale *model.Sale, ledger *model.LedgerEntry, movements []model.StockMovement) error {
	db := conn(ctx, r.db, tx)
	if err := db.Create(sale).Error; err != nil {
		return storeErr(err)
	}
	if err := db.Create(ledger).Error; err != nil {
		return storeErr(err)
	}
	if len(movements) > 0 {
		if err := db.Create(&movements).Error; err != nil {
			return storeErr(err)
		}
	}
	return nil
}

func (r *saleRepo) NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	// Uses a PostgreSQL sequence for atomic receipt number generation
	var num int64
	err := conn(ctx, r.db, tx).Raw("SELECT nextval('sales_receipt_no_seq')").Scan(&num).Error
	return num, storeErr(err)
}

func (r *saleRepo) FindByID(ctx context.Context, branchID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND branch_id = ?", id, branchID).
		First(&s).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, branchID uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("branch_id = ?", branchID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	page, limit = normalizePage(page, limit, 50, 200)
	var sales []model.Sale
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sales).Error
	return sales, total, storeErr(err)
}

func (r *saleRepo) DailyTotals(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]DailyTotal, error) {
	var rows []DailyTotal
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("to_char(created_at, 'YYYY-MM-DD') AS date, COALESCE(SUM(subtotal), 0) AS total, COUNT(*) AS count").
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, from, to).
		Group("1").Order("1 ASC").
		Scan(&rows).Error
	return rows, storeErr(err)
}
