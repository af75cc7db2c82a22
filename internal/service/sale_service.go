package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/infra"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	CreateSale(ctx context.Context, principal model.Principal, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, principal model.Principal, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, principal model.Principal, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	RenderReceipt(ctx context.Context, principal model.Principal, id uuid.UUID) ([]byte, error)
}

type saleService struct {
	repo         repository.SaleRepository
	productRepo  repository.ProductRepository
	batchRepo    repository.BatchRepository
	deducter     StockDeducter
	publisher    SaleEventPublisher
	pharmacyName string
	now          func() time.Time
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	deducter StockDeducter,
	publisher SaleEventPublisher,
	pharmacyName string,
) SaleService {
	return &saleService{
		repo:         repo,
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		deducter:     deducter,
		publisher:    publisher,
		pharmacyName: pharmacyName,
		now:          time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CreateSale ────────────────────────────────────────────────────────────────
//   1. Reject an empty basket, resolve every product (pre-flight, read only)
//   2. BEGIN TX: FEFO deduction per line, price the drawn batches
//   3. Validate amountPaid >= subtotal
//   4. nextval receipt, write sale + SALE ledger entry + sale movements
//   5. COMMIT, or ROLLBACK (compensate by Increment when there is no TX)
//   6. (async) publish SaleCompleted for loyalty and receipt email

type resolvedLine struct {
	product   *model.Product
	quantity  int
	unitPrice *decimal.Decimal
}

func (s *saleService) CreateSale(ctx context.Context, principal model.Principal, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.ErrEmptyBasket
	}
	if req.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: amountPaid must not be negative", apierror.ErrValidation)
	}
	if !isCents(req.AmountPaid) {
		return nil, fmt.Errorf("%w: amountPaid must have at most 2 decimal places", apierror.ErrValidation)
	}

	lines := make([]resolvedLine, 0, len(req.Items))
	for i, item := range req.Items {
		p, err := s.resolveProduct(ctx, i, item)
		if err != nil {
			return nil, err
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d (%s): quantity must be at least 1", apierror.ErrValidation, i+1, p.Name)
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d (%s): unitPrice must not be negative", apierror.ErrValidation, i+1, p.Name)
		}
		if item.UnitPrice != nil && !isCents(*item.UnitPrice) {
			return nil, fmt.Errorf("%w: item %d (%s): unitPrice must have at most 2 decimal places", apierror.ErrValidation, i+1, p.Name)
		}
		lines = append(lines, resolvedLine{product: p, quantity: item.Quantity, unitPrice: item.UnitPrice})
	}

	// The unit runs to commit or rollback even if the client goes away.
	ctx = context.WithoutCancel(ctx)
	db := s.repo.DB()

	sale := model.Sale{
		ID:            uuid.New(),
		BranchID:      principal.BranchID,
		PaymentMethod: req.PaymentMethod,
		AmountPaid:    req.AmountPaid,
		SoldByID:      principal.ID,
		SoldByName:    principal.Name,
		CreatedAt:     s.now(),
	}
	var applied []Deduction

	txErr := runTx(ctx, db, func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		var movements []model.StockMovement

		for _, line := range lines {
			deductions, err := s.deducter.Deduct(ctx, tx, line.product, principal.BranchID, line.quantity)
			applied = append(applied, deductions...)
			if err != nil {
				return err
			}
			for _, d := range deductions {
				price := d.UnitPrice
				if line.unitPrice != nil {
					price = *line.unitPrice
				}
				total := price.Mul(decimal.NewFromInt(int64(d.QuantityUsed)))
				subtotal = subtotal.Add(total)

				batchID := d.Batch.ID
				sale.Items = append(sale.Items, model.SaleItem{
					SaleID:      sale.ID,
					Position:    len(sale.Items) + 1,
					ProductID:   line.product.ID,
					BatchID:     batchID,
					Name:        line.product.Name,
					BatchNumber: d.Batch.BatchNumber,
					Quantity:    d.QuantityUsed,
					UnitPrice:   price,
					Total:       total,
				})
				movements = append(movements, model.StockMovement{
					BranchID:         principal.BranchID,
					ProductID:        line.product.ID,
					ProductName:      line.product.Name,
					BatchID:          &batchID,
					BatchNumber:      d.Batch.BatchNumber,
					Type:             model.MovementSale,
					Quantity:         -d.QuantityUsed,
					PreviousQuantity: d.PreviousQuantity,
					NewQuantity:      d.NewQuantity,
					CostPrice:        d.Batch.CostPrice,
					SellingPrice:     price,
					SaleID:           &sale.ID,
					PerformedBy:      principal.Name,
					PerformedByID:    principal.ID,
					CreatedAt:        sale.CreatedAt,
				})
			}
		}

		if req.AmountPaid.LessThan(subtotal) {
			return fmt.Errorf("%w: amount paid %s is less than subtotal %s",
				apierror.ErrInsufficientPayment, req.AmountPaid.StringFixed(2), subtotal.StringFixed(2))
		}
		sale.Subtotal = subtotal
		sale.Change = req.AmountPaid.Sub(subtotal)

		receiptNo, err := s.repo.NextReceiptNumber(ctx, tx)
		if err != nil {
			return err
		}
		sale.ReceiptNo = receiptNo

		for i := range movements {
			movements[i].Reason = fmt.Sprintf("Sale #%d", receiptNo)
		}
		ledger := &model.LedgerEntry{
			BranchID:    principal.BranchID,
			Type:        model.LedgerSale,
			ReferenceID: sale.ID,
			Amount:      subtotal,
			Description: "POS Sale",
			CreatedByID: principal.ID,
			CreatedAt:   sale.CreatedAt,
		}
		return s.repo.Record(ctx, tx, &sale, ledger, movements)
	})
	if txErr != nil {
		if db == nil && len(applied) > 0 {
			s.compensate(ctx, applied)
		}
		log.Warn().Err(txErr).
			Str("branch_id", principal.BranchID.String()).
			Str("sale_id", sale.ID.String()).
			Int("deductions_reverted", len(applied)).
			Msg("sale_service: sale rolled back")
		return nil, reportAsStockError(txErr)
	}

	log.Info().
		Str("branch_id", principal.BranchID.String()).
		Str("sale_id", sale.ID.String()).
		Int64("receipt_no", sale.ReceiptNo).
		Str("subtotal", sale.Subtotal.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("sale_service: sale committed")

	s.publish(ctx, &sale, req.Customer)
	return saleToResponse(&sale), nil
}

func (s *saleService) resolveProduct(ctx context.Context, i int, item dto.SaleItemRequest) (*model.Product, error) {
	var (
		p   *model.Product
		err error
		ref string
	)
	switch {
	case item.ProductID != "":
		ref = item.ProductID
		pid, perr := uuid.Parse(item.ProductID)
		if perr != nil {
			return nil, fmt.Errorf("%w: item %d: invalid productId %q", apierror.ErrValidation, i+1, item.ProductID)
		}
		p, err = s.productRepo.FindByID(ctx, nil, pid)
	case strings.TrimSpace(item.Barcode) != "":
		ref = item.Barcode
		p, err = s.productRepo.FindByBarcode(ctx, nil, strings.TrimSpace(item.Barcode))
	default:
		return nil, fmt.Errorf("%w: item %d: productId or barcode is required", apierror.ErrValidation, i+1)
	}
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", ref, apierror.ErrNotFound)
		}
		return nil, err
	}
	if !p.IsActive() {
		return nil, fmt.Errorf("%w: product %s is discontinued", apierror.ErrValidation, p.Name)
	}
	return p, nil
}

// compensate restores every decremented batch, newest deduction first. It is
// only used when the store runs without a transaction.
func (s *saleService) compensate(ctx context.Context, applied []Deduction) {
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		if _, err := s.batchRepo.Increment(ctx, nil, d.Batch.ID, d.QuantityUsed); err != nil {
			log.Error().Err(err).
				Str("batch_id", d.Batch.ID.String()).
				Int("quantity", d.QuantityUsed).
				Msg("sale_service: compensation failed, batch quantity needs manual correction")
			continue
		}
		log.Debug().Str("batch_id", d.Batch.ID.String()).Int("quantity", d.QuantityUsed).Msg("sale_service: deduction reverted")
	}
}

// reportAsStockError surfaces a lost compare-and-swap as insufficient stock.
func reportAsStockError(err error) error {
	if errors.Is(err, apierror.ErrConcurrentModification) && !errors.Is(err, apierror.ErrInsufficientStock) {
		return fmt.Errorf("%w: %v", apierror.ErrInsufficientStock, err)
	}
	return err
}

func (s *saleService) publish(ctx context.Context, sale *model.Sale, customer *dto.SaleCustomerRequest) {
	if s.publisher == nil || customer == nil {
		return
	}
	ev := SaleCompleted{
		SaleID:     sale.ID,
		BranchID:   sale.BranchID,
		ReceiptNo:  sale.ReceiptNo,
		Subtotal:   sale.Subtotal,
		Customer:   customer,
		OccurredAt: sale.CreatedAt,
	}
	if err := s.publisher.PublishSaleCompleted(ctx, ev); err != nil {
		log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("sale_service: failed to publish sale completed")
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, principal model.Principal, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, principal.BranchID, id)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, fmt.Errorf("sale %s: %w", id, apierror.ErrNotFound)
		}
		return nil, err
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, principal model.Principal, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, principal.BranchID, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// RenderReceipt derives the receipt PDF from the stored sale; receipts are
// never persisted.
func (s *saleService) RenderReceipt(ctx context.Context, principal model.Principal, id uuid.UUID) ([]byte, error) {
	sale, err := s.repo.FindByID(ctx, principal.BranchID, id)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, fmt.Errorf("sale %s: %w", id, apierror.ErrNotFound)
		}
		return nil, err
	}
	return infra.RenderReceiptPDF(sale, s.pharmacyName)
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, dto.SaleItemResponse{
			ProductID:   it.ProductID.String(),
			BatchID:     it.BatchID.String(),
			Name:        it.Name,
			BatchNumber: it.BatchNumber,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	return &dto.SaleResponse{
		ID:            sale.ID.String(),
		ReceiptNo:     sale.ReceiptNo,
		BranchID:      sale.BranchID.String(),
		Items:         items,
		Subtotal:      sale.Subtotal,
		PaymentMethod: sale.PaymentMethod,
		AmountPaid:    sale.AmountPaid,
		Change:        sale.Change,
		SoldBy:        dto.SoldBy{ID: sale.SoldByID.String(), Name: sale.SoldByName},
		CreatedAt:     sale.CreatedAt.UTC().Format(time.RFC3339),
	}
}
