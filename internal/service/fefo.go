package service

import (
	"context"
	"sort"
	"time"

	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FEFOSelector returns the sellable batches of a product in a branch, soonest
// expiry first. Every call reads a fresh snapshot.
type FEFOSelector interface {
	SelectSellableBatches(ctx context.Context, tx *gorm.DB, productID, branchID uuid.UUID) ([]model.Batch, error)
}

type fefoSelector struct {
	batches repository.BatchRepository
	now     func() time.Time
}

// NewFEFOSelector builds a selector. now may be nil, in which case time.Now is used.
func NewFEFOSelector(batches repository.BatchRepository, now func() time.Time) FEFOSelector {
	if now == nil {
		now = time.Now
	}
	return &fefoSelector{batches: batches, now: now}
}

func (s *fefoSelector) SelectSellableBatches(ctx context.Context, tx *gorm.DB, productID, branchID uuid.UUID) ([]model.Batch, error) {
	now := s.now()
	batches, err := s.batches.ListSellable(ctx, tx, productID, branchID, now)
	if err != nil {
		return nil, err
	}

	sellable := batches[:0]
	for _, b := range batches {
		if b.IsSellable(now) {
			sellable = append(sellable, b)
		}
	}
	// Ties on expiry keep the store order (oldest receipt first).
	sort.SliceStable(sellable, func(i, j int) bool {
		return sellable[i].ExpiryDate.Before(sellable[j].ExpiryDate)
	})
	return sellable, nil
}
