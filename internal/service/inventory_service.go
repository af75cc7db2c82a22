package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Expiry classes reported by ExpiryAlerts.
const (
	ExpiryExpired  = "expired"
	ExpiryCritical = "critical"
	ExpiryWarning  = "warning"
	ExpirySafe     = "safe"
)

// ProductCache is a best-effort barcode → product lookup cache.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*model.Product, bool)
	Set(ctx context.Context, p *model.Product)
	Delete(ctx context.Context, barcode string)
}

// InventoryService defines the contract for stock-in, manual adjustments and
// the inventory read models.
type InventoryService interface {
	StockIn(ctx context.Context, principal model.Principal, req dto.StockInRequest) (*dto.StockInResponse, error)
	AdjustStock(ctx context.Context, principal model.Principal, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error)
	ScanBarcode(ctx context.Context, principal model.Principal, barcode string) (*dto.ScanResponse, error)
	InventorySummary(ctx context.Context, principal model.Principal) ([]dto.InventorySummaryItem, error)
	ExpiryAlerts(ctx context.Context, principal model.Principal) (*dto.ExpiryAlertsResponse, error)
	StockHistory(ctx context.Context, principal model.Principal, filter dto.StockHistoryFilter) (*dto.MovementListResponse, error)
	DiscontinueProduct(ctx context.Context, principal model.Principal, productID uuid.UUID) (*dto.ProductResponse, error)
}

// ExpiryThresholds are the day limits of the critical and warning classes.
type ExpiryThresholds struct {
	CriticalDays int
	WarningDays  int
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	batchRepo    repository.BatchRepository
	movementRepo repository.StockMovementRepository
	selector     FEFOSelector
	cache        ProductCache
	thresholds   ExpiryThresholds
	now          func() time.Time
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	movementRepo repository.StockMovementRepository,
	selector FEFOSelector,
	cache ProductCache,
	thresholds ExpiryThresholds,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		selector:     selector,
		cache:        cache,
		thresholds:   thresholds,
		now:          time.Now,
	}
}

// ── StockIn ───────────────────────────────────────────────────────────────────
// Validation happens before any write: an expired batch creates neither the
// product nor the batch.

func (s *inventoryService) StockIn(ctx context.Context, principal model.Principal, req dto.StockInRequest) (*dto.StockInResponse, error) {
	expiry, err := parseDay("expiryDate", req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	if !expiry.After(s.now()) {
		return nil, fmt.Errorf("%w: batch %s expires on %s, expiry date must be in the future",
			apierror.ErrExpiredBatch, req.BatchNumber, expiry.Format(dateLayout))
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", apierror.ErrValidation)
	}
	if req.CostPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices must not be negative", apierror.ErrValidation)
	}
	if !isCents(req.CostPrice) || !isCents(req.SellingPrice) {
		return nil, fmt.Errorf("%w: prices must have at most 2 decimal places", apierror.ErrValidation)
	}
	barcode := strings.TrimSpace(req.Barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", apierror.ErrValidation)
	}

	var (
		product *model.Product
		batch   *model.Batch
		created bool
	)
	txErr := runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		p, err := s.productRepo.FindByBarcode(ctx, tx, barcode)
		switch {
		case errors.Is(err, apierror.ErrNotFound):
			actor := principal.ID
			p = &model.Product{
				Barcode:      barcode,
				Name:         strings.TrimSpace(req.Name),
				Category:     strings.TrimSpace(req.Category),
				Manufacturer: req.Manufacturer,
				ReorderLevel: 10,
				Status:       model.ProductActive,
				CreatedByID:  &actor,
			}
			if err := s.productRepo.Create(ctx, tx, p); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		case !p.IsActive():
			return fmt.Errorf("%w: product %s is discontinued", apierror.ErrValidation, p.Name)
		}
		product = p

		batch = &model.Batch{
			ProductID:    p.ID,
			BranchID:     principal.BranchID,
			BatchNumber:  strings.TrimSpace(req.BatchNumber),
			ExpiryDate:   expiry,
			Quantity:     req.Quantity,
			CostPrice:    req.CostPrice,
			SellingPrice: req.SellingPrice,
			Supplier:     req.Supplier,
		}
		if err := s.batchRepo.Create(ctx, tx, batch); err != nil {
			return err
		}

		batchID := batch.ID
		return s.movementRepo.Create(ctx, tx, &model.StockMovement{
			BranchID:         principal.BranchID,
			ProductID:        p.ID,
			ProductName:      p.Name,
			BatchID:          &batchID,
			BatchNumber:      batch.BatchNumber,
			Type:             model.MovementIn,
			Quantity:         req.Quantity,
			PreviousQuantity: 0,
			NewQuantity:      req.Quantity,
			CostPrice:        req.CostPrice,
			SellingPrice:     req.SellingPrice,
			Reason:           "Stock in",
			PerformedBy:      principal.Name,
			PerformedByID:    principal.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.cache != nil {
		s.cache.Set(ctx, product)
	}
	log.Info().
		Str("branch_id", principal.BranchID.String()).
		Str("product_id", product.ID.String()).
		Str("batch_id", batch.ID.String()).
		Int("quantity", batch.Quantity).
		Bool("product_created", created).
		Msg("inventory_service: stock in")

	return &dto.StockInResponse{
		Product:        productToResponse(product),
		Batch:          batchToResponse(batch),
		ProductCreated: created,
	}, nil
}

// ── AdjustStock ───────────────────────────────────────────────────────────────
// Every adjustment targets the soonest-expiring sellable batch.

func (s *inventoryService) AdjustStock(ctx context.Context, principal model.Principal, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid productId %q", apierror.ErrValidation, req.ProductID)
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", apierror.ErrValidation)
	}
	switch req.Type {
	case model.MovementIn, model.MovementOut, model.MovementAdjustment:
	default:
		return nil, fmt.Errorf("%w: type must be one of in, out, adjustment", apierror.ErrValidation)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", apierror.ErrValidation)
	}

	product, err := s.productRepo.FindByID(ctx, nil, productID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, apierror.ErrNotFound)
		}
		return nil, err
	}

	db := s.productRepo.DB()
	var (
		target          model.Batch
		prevQty, newQty int
		quantityMutated bool
		signedQuantity  = req.Quantity
	)
	if req.Type != model.MovementIn {
		signedQuantity = -req.Quantity
	}

	txErr := runTx(ctx, db, func(tx *gorm.DB) error {
		batches, err := s.selector.SelectSellableBatches(ctx, tx, productID, principal.BranchID)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			return fmt.Errorf("%w: %s has no sellable batch in this branch", apierror.ErrNoBatchFound, product.Name)
		}
		target = batches[0]

		if req.Type == model.MovementIn {
			newQty, err = s.batchRepo.Increment(ctx, tx, target.ID, req.Quantity)
		} else {
			if target.Quantity < req.Quantity {
				return fmt.Errorf("%w for %s: batch %s holds %d, cannot remove %d",
					apierror.ErrInsufficientStock, product.Name, target.BatchNumber, target.Quantity, req.Quantity)
			}
			newQty, err = s.batchRepo.DecrementIfAvailable(ctx, tx, target.ID, req.Quantity)
		}
		if err != nil {
			return err
		}
		quantityMutated = true
		prevQty = newQty - signedQuantity

		batchID := target.ID
		return s.movementRepo.Create(ctx, tx, &model.StockMovement{
			BranchID:         principal.BranchID,
			ProductID:        product.ID,
			ProductName:      product.Name,
			BatchID:          &batchID,
			BatchNumber:      target.BatchNumber,
			Type:             req.Type,
			Quantity:         signedQuantity,
			PreviousQuantity: prevQty,
			NewQuantity:      newQty,
			CostPrice:        target.CostPrice,
			SellingPrice:     target.SellingPrice,
			Reason:           strings.TrimSpace(req.Reason),
			PerformedBy:      principal.Name,
			PerformedByID:    principal.ID,
		})
	})
	if txErr != nil {
		if db == nil && quantityMutated {
			s.undoAdjustment(ctx, target.ID, signedQuantity)
		}
		return nil, reportAsStockError(txErr)
	}

	log.Info().
		Str("branch_id", principal.BranchID.String()).
		Str("product_id", product.ID.String()).
		Str("batch_id", target.ID.String()).
		Str("type", req.Type).
		Int("previous", prevQty).
		Int("new", newQty).
		Msg("inventory_service: stock adjusted")

	return &dto.AdjustStockResponse{
		ProductID:        product.ID.String(),
		BatchID:          target.ID.String(),
		BatchNumber:      target.BatchNumber,
		Type:             req.Type,
		Quantity:         req.Quantity,
		PreviousQuantity: prevQty,
		NewQuantity:      newQty,
	}, nil
}

func (s *inventoryService) undoAdjustment(ctx context.Context, batchID uuid.UUID, signed int) {
	var err error
	if signed > 0 {
		_, err = s.batchRepo.DecrementIfAvailable(ctx, nil, batchID, signed)
	} else {
		_, err = s.batchRepo.Increment(ctx, nil, batchID, -signed)
	}
	if err != nil {
		log.Error().Err(err).Str("batch_id", batchID.String()).Int("quantity", signed).
			Msg("inventory_service: failed to revert adjustment, batch quantity needs manual correction")
	}
}

// ── DiscontinueProduct ────────────────────────────────────────────────────────
// Soft delete: batches and history stay, but the product can no longer be
// sold or restocked. Repeating the call is a no-op.

func (s *inventoryService) DiscontinueProduct(ctx context.Context, principal model.Principal, productID uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, nil, productID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, apierror.ErrNotFound)
		}
		return nil, err
	}
	if product.IsActive() {
		if err := s.productRepo.UpdateStatus(ctx, nil, product.ID, model.ProductDiscontinued); err != nil {
			return nil, err
		}
		product.Status = model.ProductDiscontinued
		log.Info().
			Str("branch_id", principal.BranchID.String()).
			Str("product_id", product.ID.String()).
			Str("performed_by", principal.ID.String()).
			Msg("inventory_service: product discontinued")
	}
	if s.cache != nil {
		s.cache.Delete(ctx, product.Barcode)
	}
	resp := productToResponse(product)
	return &resp, nil
}

// ── Read models ───────────────────────────────────────────────────────────────

func (s *inventoryService) ScanBarcode(ctx context.Context, principal model.Principal, barcode string) (*dto.ScanResponse, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", apierror.ErrValidation)
	}

	var product *model.Product
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, barcode); ok {
			product = p
		}
	}
	if product == nil {
		p, err := s.productRepo.FindByBarcode(ctx, nil, barcode)
		if errors.Is(err, apierror.ErrNotFound) {
			return &dto.ScanResponse{Exists: false}, nil
		}
		if err != nil {
			return nil, err
		}
		product = p
		if s.cache != nil {
			s.cache.Set(ctx, product)
		}
	}

	batches, err := s.selector.SelectSellableBatches(ctx, nil, product.ID, principal.BranchID)
	if err != nil {
		return nil, err
	}
	pr := productToResponse(product)
	resp := &dto.ScanResponse{Exists: true, Product: &pr, Batches: make([]dto.BatchResponse, 0, len(batches))}
	for i := range batches {
		resp.Batches = append(resp.Batches, batchToResponse(&batches[i]))
	}
	return resp, nil
}

func (s *inventoryService) InventorySummary(ctx context.Context, principal model.Principal) ([]dto.InventorySummaryItem, error) {
	batches, err := s.batchRepo.ListByBranch(ctx, principal.BranchID, false)
	if err != nil {
		return nil, err
	}

	type agg struct {
		item    dto.InventorySummaryItem
		nearest *time.Time
	}
	byProduct := map[uuid.UUID]*agg{}
	for _, b := range batches {
		a, ok := byProduct[b.ProductID]
		if !ok {
			a = &agg{item: dto.InventorySummaryItem{ProductID: b.ProductID.String()}}
			if b.Product != nil {
				a.item.Name = b.Product.Name
				a.item.Barcode = b.Product.Barcode
				a.item.Category = b.Product.Category
				a.item.ReorderLevel = b.Product.ReorderLevel
			}
			byProduct[b.ProductID] = a
		}
		if b.Quantity <= 0 {
			continue
		}
		a.item.TotalQuantity += b.Quantity
		a.item.BatchCount++
		if a.nearest == nil || b.ExpiryDate.Before(*a.nearest) {
			exp := b.ExpiryDate
			a.nearest = &exp
		}
	}

	out := make([]dto.InventorySummaryItem, 0, len(byProduct))
	for _, a := range byProduct {
		if a.nearest != nil {
			d := a.nearest.UTC().Format(dateLayout)
			a.item.NearestExpiry = &d
		}
		a.item.BelowReorder = a.item.TotalQuantity < a.item.ReorderLevel
		out = append(out, a.item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// ExpiryAlerts classifies every in-stock batch of the branch. Expired batches
// are included so they can be pulled from the shelf.
func (s *inventoryService) ExpiryAlerts(ctx context.Context, principal model.Principal) (*dto.ExpiryAlertsResponse, error) {
	batches, err := s.batchRepo.ListByBranch(ctx, principal.BranchID, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := &dto.ExpiryAlertsResponse{Alerts: make([]dto.ExpiryAlert, 0, len(batches))}
	for _, b := range batches {
		status, days := s.classifyExpiry(b.ExpiryDate, now)
		switch status {
		case ExpiryExpired:
			resp.Summary.Expired++
		case ExpiryCritical:
			resp.Summary.Critical++
		case ExpiryWarning:
			resp.Summary.Warning++
		default:
			resp.Summary.Safe++
		}
		name := ""
		if b.Product != nil {
			name = b.Product.Name
		}
		resp.Alerts = append(resp.Alerts, dto.ExpiryAlert{
			BatchID:      b.ID.String(),
			ProductID:    b.ProductID.String(),
			ProductName:  name,
			BatchNumber:  b.BatchNumber,
			ExpiryDate:   b.ExpiryDate.UTC().Format(dateLayout),
			Quantity:     b.Quantity,
			DaysToExpiry: days,
			Status:       status,
		})
	}
	sort.SliceStable(resp.Alerts, func(i, j int) bool {
		return resp.Alerts[i].DaysToExpiry < resp.Alerts[j].DaysToExpiry
	})
	return resp, nil
}

// classifyExpiry returns the class and the number of calendar days (UTC)
// from today to the expiry date. A batch is expired once it is no longer
// sellable, i.e. expiry <= now.
func (s *inventoryService) classifyExpiry(expiry, now time.Time) (string, int) {
	days := int(startOfDayUTC(expiry).Sub(startOfDayUTC(now)).Hours() / 24)
	switch {
	case !expiry.After(now):
		return ExpiryExpired, days
	case days <= s.thresholds.CriticalDays:
		return ExpiryCritical, days
	case days <= s.thresholds.WarningDays:
		return ExpiryWarning, days
	default:
		return ExpirySafe, days
	}
}

func (s *inventoryService) StockHistory(ctx context.Context, principal model.Principal, filter dto.StockHistoryFilter) (*dto.MovementListResponse, error) {
	from, to, err := optionalRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	f := repository.StockMovementFilter{
		BranchID: principal.BranchID,
		Type:     filter.Type,
		From:     from,
		To:       to,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid productId %q", apierror.ErrValidation, filter.ProductID)
		}
		f.ProductID = &pid
	}

	movements, total, err := s.movementRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		data = append(data, movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── mappers ──────────────────────────────────────────────────────────────────

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID.String(),
		Barcode:      p.Barcode,
		Name:         p.Name,
		Category:     p.Category,
		Manufacturer: p.Manufacturer,
		ReorderLevel: p.ReorderLevel,
		Status:       p.Status,
	}
}

func batchToResponse(b *model.Batch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:           b.ID.String(),
		ProductID:    b.ProductID.String(),
		BranchID:     b.BranchID.String(),
		BatchNumber:  b.BatchNumber,
		ExpiryDate:   b.ExpiryDate.UTC().Format(dateLayout),
		Quantity:     b.Quantity,
		CostPrice:    b.CostPrice,
		SellingPrice: b.SellingPrice,
		Supplier:     b.Supplier,
	}
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	r := dto.MovementResponse{
		ID:               m.ID.String(),
		ProductID:        m.ProductID.String(),
		ProductName:      m.ProductName,
		BatchNumber:      m.BatchNumber,
		Type:             m.Type,
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		PerformedBy:      m.PerformedBy,
		CreatedAt:        m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.BatchID != nil {
		s := m.BatchID.String()
		r.BatchID = &s
	}
	if m.SaleID != nil {
		s := m.SaleID.String()
		r.SaleID = &s
	}
	return r
}
