package repository

import (
	"context"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for the product catalog.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, tx *gorm.DB, barcode string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Product) error {
	return storeErr(conn(ctx, r.db, tx).Create(p).Error)
}

func (r *productRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, storeErr(err)
	}
	return &p, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, tx *gorm.DB, barcode string) (*model.Product, error) {
	var p model.Product
	if err := conn(ctx, r.db, tx).Where("barcode = ?", barcode).First(&p).Error; err != nil {
		return nil, storeErr(err)
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&products).Error
	return products, storeErr(err)
}

func (r *productRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	res := conn(ctx, r.db, tx).Model(&model.Product{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apierror.ErrNotFound
	}
	return nil
}
