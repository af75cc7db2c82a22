package repository

import (
	"context"
	"time"

	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementFilter defines filters for listing stock movements.
type StockMovementFilter struct {
	BranchID  uuid.UUID
	ProductID *uuid.UUID
	Type      string
	From      *time.Time
	To        *time.Time // exclusive
	Page      int
	Limit     int
}

// MovementTotal is the absolute quantity moved for one product and type.
type MovementTotal struct {
	ProductID uuid.UUID
	Type      string
	Total     int
}

type StockMovementRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error)

	// SumByProductAndType aggregates |quantity| per product and movement type
	// for movements created in [from, to).
	SumByProductAndType(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]MovementTotal, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) Create(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error {
	return storeErr(conn(ctx, r.db, tx).Create(m).Error)
}

func (r *stockMovementRepo) List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).Where("branch_id = ?", filter.BranchID)
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit, 100, 500)
	var movements []model.StockMovement
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&movements).Error
	return movements, total, storeErr(err)
}

func (r *stockMovementRepo) SumByProductAndType(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]MovementTotal, error) {
	var totals []MovementTotal
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select("product_id, type, COALESCE(SUM(ABS(quantity)), 0) AS total").
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, from, to).
		Group("product_id, type").
		Scan(&totals).Error
	return totals, storeErr(err)
}

// normalizePage clamps page/limit the same way for every paginated listing.
func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > max {
		limit = def
	}
	return page, limit
}
