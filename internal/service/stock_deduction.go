package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deduction is one conditional decrement applied to one batch.
type Deduction struct {
	Batch            model.Batch
	QuantityUsed     int
	PreviousQuantity int
	NewQuantity      int
	UnitPrice        decimal.Decimal
	LineValue        decimal.Decimal
}

// StockDeducter draws a quantity of a product from its FEFO-ordered batches.
//
// On failure the deductions already applied during the call are returned
// together with the error; the caller owns their compensation (rollback of
// the surrounding transaction, or Increment when running without one).
type StockDeducter interface {
	Deduct(ctx context.Context, tx *gorm.DB, product *model.Product, branchID uuid.UUID, qty int) ([]Deduction, error)
}

type stockDeducter struct {
	selector   FEFOSelector
	batches    repository.BatchRepository
	maxRereads int
}

// NewStockDeducter wires the engine. maxRereads bounds how many fresh FEFO
// snapshots one call may take after losing a compare-and-swap.
func NewStockDeducter(selector FEFOSelector, batches repository.BatchRepository, maxRereads int) StockDeducter {
	if maxRereads < 0 {
		maxRereads = 0
	}
	return &stockDeducter{selector: selector, batches: batches, maxRereads: maxRereads}
}

func (d *stockDeducter) Deduct(ctx context.Context, tx *gorm.DB, product *model.Product, branchID uuid.UUID, qty int) ([]Deduction, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity for %s must be positive", apierror.ErrValidation, product.Name)
	}

	var applied []Deduction
	remaining := qty
	rereads := 0

	for remaining > 0 {
		batches, err := d.selector.SelectSellableBatches(ctx, tx, product.ID, branchID)
		if err != nil {
			return applied, err
		}

		available := 0
		for _, b := range batches {
			available += b.Quantity
		}
		if available < remaining {
			return applied, fmt.Errorf("%w for %s: requested %d, available %d",
				apierror.ErrInsufficientStock, product.Name, qty, qty-remaining+available)
		}

		lostRace := false
		for _, b := range batches {
			if remaining == 0 {
				break
			}
			take := min(b.Quantity, remaining)
			newQty, err := d.batches.DecrementIfAvailable(ctx, tx, b.ID, take)
			if errors.Is(err, apierror.ErrConcurrentModification) {
				lostRace = true
				break
			}
			if err != nil {
				return applied, err
			}

			applied = append(applied, Deduction{
				Batch:            b,
				QuantityUsed:     take,
				PreviousQuantity: newQty + take,
				NewQuantity:      newQty,
				UnitPrice:        b.SellingPrice,
				LineValue:        b.SellingPrice.Mul(decimal.NewFromInt(int64(take))),
			})
			remaining -= take
		}

		if !lostRace {
			break
		}
		rereads++
		if rereads > d.maxRereads {
			return applied, fmt.Errorf("%w for %s: stock changed concurrently, %d of %d units could not be reserved",
				apierror.ErrInsufficientStock, product.Name, remaining, qty)
		}
		log.Debug().
			Str("product_id", product.ID.String()).
			Str("branch_id", branchID.String()).
			Int("remaining", remaining).
			Int("reread", rereads).
			Msg("stock_deduction: lost batch race, re-reading FEFO snapshot")
	}

	return applied, nil
}
