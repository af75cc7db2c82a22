package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, branchID, id uuid.UUID) (*model.Customer, error)
	FindByPhone(ctx context.Context, branchID uuid.UUID, phone string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error

	// RecordPurchase applies the loyalty increments in one UPDATE so two sales
	// for the same customer never lose an update.
	RecordPurchase(ctx context.Context, id uuid.UUID, amount decimal.Decimal, points int64, at time.Time) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) FindByID(ctx context.Context, branchID, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).Where("id = ? AND branch_id = ?", id, branchID).First(&c).Error; err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

func (r *customerRepo) FindByPhone(ctx context.Context, branchID uuid.UUID, phone string) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).Where("branch_id = ? AND phone = ?", branchID, phone).First(&c).Error; err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return storeErr(r.db.WithContext(ctx).Create(c).Error)
}

func (r *customerRepo) RecordPurchase(ctx context.Context, id uuid.UUID, amount decimal.Decimal, points int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_spent":    gorm.Expr("total_spent + ?", amount),
			"purchase_count": gorm.Expr("purchase_count + 1"),
			"loyalty_points": gorm.Expr("loyalty_points + ?", points),
			"last_visit":     at,
		})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("customer %s: %w", id, apierror.ErrNotFound)
	}
	return nil
}
