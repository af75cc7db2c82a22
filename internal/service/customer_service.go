package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CustomerService applies loyalty bookkeeping for committed sales. It never
// runs inside a sale's transaction.
type CustomerService interface {
	RecordPurchase(ctx context.Context, ev SaleCompleted) (*model.Customer, error)
}

type customerService struct {
	repo          repository.CustomerRepository
	pointsDivisor int64
}

func NewCustomerService(repo repository.CustomerRepository, pointsDivisor int64) CustomerService {
	return &customerService{repo: repo, pointsDivisor: pointsDivisor}
}

// LoyaltyPoints returns floor(subtotal / divisor), or 0 for a non-positive divisor.
func LoyaltyPoints(subtotal decimal.Decimal, divisor int64) int64 {
	if divisor <= 0 || !subtotal.IsPositive() {
		return 0
	}
	return subtotal.Div(decimal.NewFromInt(divisor)).Floor().IntPart()
}

// RecordPurchase resolves the customer by id, then by phone within the branch,
// and creates one when the phone is unknown.
func (s *customerService) RecordPurchase(ctx context.Context, ev SaleCompleted) (*model.Customer, error) {
	info := ev.Customer
	if info == nil {
		return nil, nil
	}
	points := LoyaltyPoints(ev.Subtotal, s.pointsDivisor)

	var existing *model.Customer
	switch {
	case info.CustomerID != "":
		id, err := uuid.Parse(info.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid customerId %q", apierror.ErrValidation, info.CustomerID)
		}
		c, err := s.repo.FindByID(ctx, ev.BranchID, id)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", id, err)
		}
		existing = c
	case strings.TrimSpace(info.Phone) != "":
		c, err := s.repo.FindByPhone(ctx, ev.BranchID, strings.TrimSpace(info.Phone))
		if err != nil && !errors.Is(err, apierror.ErrNotFound) {
			return nil, err
		}
		existing = c
	default:
		log.Debug().Str("sale_id", ev.SaleID.String()).Msg("customer_service: no customer reference, skipping")
		return nil, nil
	}

	if existing != nil {
		if err := s.repo.RecordPurchase(ctx, existing.ID, ev.Subtotal, points, ev.OccurredAt); err != nil {
			return nil, err
		}
		existing.TotalSpent = existing.TotalSpent.Add(ev.Subtotal)
		existing.PurchaseCount++
		existing.LoyaltyPoints += points
		at := ev.OccurredAt
		existing.LastVisit = &at
		log.Info().
			Str("customer_id", existing.ID.String()).
			Str("sale_id", ev.SaleID.String()).
			Int64("points", points).
			Msg("customer_service: purchase recorded")
		return existing, nil
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: a name is required to register customer %s", apierror.ErrValidation, info.Phone)
	}
	at := ev.OccurredAt
	c := &model.Customer{
		BranchID:      ev.BranchID,
		Name:          name,
		Phone:         strings.TrimSpace(info.Phone),
		Email:         info.Email,
		Address:       info.Address,
		LoyaltyPoints: points,
		TotalSpent:    ev.Subtotal,
		PurchaseCount: 1,
		LastVisit:     &at,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Info().
		Str("customer_id", c.ID.String()).
		Str("branch_id", ev.BranchID.String()).
		Str("sale_id", ev.SaleID.String()).
		Msg("customer_service: customer registered")
	return c, nil
}
