package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchRepository is the lot-level inventory store. Quantity is mutated only
// through DecrementIfAvailable and Increment, both single conditional UPDATE
// statements, never through read-modify-save.
type BatchRepository interface {
	Create(ctx context.Context, tx *gorm.DB, b *model.Batch) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Batch, error)

	// ListSellable returns batches with quantity > 0 and expiry_date > now,
	// soonest expiry first.
	ListSellable(ctx context.Context, tx *gorm.DB, productID, branchID uuid.UUID, now time.Time) ([]model.Batch, error)

	// ListByBranch returns every batch of the branch with its product preloaded.
	// inStockOnly restricts the result to quantity > 0.
	ListByBranch(ctx context.Context, branchID uuid.UUID, inStockOnly bool) ([]model.Batch, error)

	// DecrementIfAvailable subtracts qty only if the batch still holds at least
	// qty units and returns the new quantity. It fails with
	// apierror.ErrConcurrentModification when the guard does not match.
	DecrementIfAvailable(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error)

	// Increment adds qty and returns the new quantity.
	Increment(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error)
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) Create(ctx context.Context, tx *gorm.DB, b *model.Batch) error {
	return storeErr(conn(ctx, r.db, tx).Create(b).Error)
}

func (r *batchRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, storeErr(err)
	}
	return &b, nil
}

func (r *batchRepo) ListSellable(ctx context.Context, tx *gorm.DB, productID, branchID uuid.UUID, now time.Time) ([]model.Batch, error) {
	var batches []model.Batch
	err := conn(ctx, r.db, tx).
		Where("product_id = ? AND branch_id = ? AND quantity > 0 AND expiry_date > ?", productID, branchID, now).
		Order("expiry_date ASC").Order("created_at ASC").
		Find(&batches).Error
	return batches, storeErr(err)
}

func (r *batchRepo) ListByBranch(ctx context.Context, branchID uuid.UUID, inStockOnly bool) ([]model.Batch, error) {
	var batches []model.Batch
	q := r.db.WithContext(ctx).Preload("Product").Where("branch_id = ?", branchID)
	if inStockOnly {
		q = q.Where("quantity > 0")
	}
	err := q.Order("expiry_date ASC").Find(&batches).Error
	return batches, storeErr(err)
}

func (r *batchRepo) DecrementIfAvailable(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	var b model.Batch
	res := conn(ctx, r.db, tx).Model(&b).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "quantity"}}}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: batch %s", apierror.ErrConcurrentModification, id)
	}
	return b.Quantity, nil
}

func (r *batchRepo) Increment(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	var b model.Batch
	res := conn(ctx, r.db, tx).Model(&b).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "quantity"}}}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("batch %s: %w", id, apierror.ErrNotFound)
	}
	return b.Quantity, nil
}
