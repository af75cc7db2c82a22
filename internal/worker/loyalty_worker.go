package worker

// loyalty_worker.go
// Applies the customer loyalty update of a committed sale. Runs outside the
// sale's transaction; a failure here never affects the sale.

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/rs/zerolog/log"
)

type LoyaltyWorker struct {
	customers service.CustomerService
}

func NewLoyaltyWorker(customers service.CustomerService) *LoyaltyWorker {
	return &LoyaltyWorker{customers: customers}
}

// Process handles one jobs:loyalty payload (a SaleCompleted event). Unknown
// customers and invalid customer data are permanent failures; storage errors
// are retried.
func (w *LoyaltyWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var ev service.SaleCompleted
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Permanent(err)
	}

	c, err := w.customers.RecordPurchase(ctx, ev)
	if err != nil {
		log.Warn().Err(err).
			Str("sale_id", ev.SaleID.String()).
			Str("branch_id", ev.BranchID.String()).
			Msg("loyalty_worker: loyalty update failed")
		if errors.Is(err, apierror.ErrNotFound) || errors.Is(err, apierror.ErrValidation) {
			return Permanent(err)
		}
		return err
	}
	if c != nil {
		log.Info().
			Str("sale_id", ev.SaleID.String()).
			Str("customer_id", c.ID.String()).
			Int64("loyalty_points", c.LoyaltyPoints).
			Msg("loyalty_worker: customer updated")
	}
	return nil
}
