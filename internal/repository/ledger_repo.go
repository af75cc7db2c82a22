package repository

import (
	"context"
	"time"

	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerFilter struct {
	BranchID uuid.UUID
	Type     string
	From     *time.Time
	To       *time.Time // exclusive
	Page     int
	Limit    int
}

// LedgerRepository is read-only from the API side; entries are written by
// SaleRepository.Record inside the sale transaction.
type LedgerRepository interface {
	List(ctx context.Context, filter LedgerFilter) ([]model.LedgerEntry, int64, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) List(ctx context.Context, filter LedgerFilter) ([]model.LedgerEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("branch_id = ?", filter.BranchID)
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
	var entries []model.LedgerEntry
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&entries).Error
	return entries, total, storeErr(err)
}
