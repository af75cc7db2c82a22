package service

import (
	"context"
	"sort"
	"time"

	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReportService interface {
	StockReport(ctx context.Context, principal model.Principal, r dto.DateRange) (*dto.StockReportResponse, error)
	SalesReport(ctx context.Context, principal model.Principal, r dto.DateRange) (*dto.SalesReportResponse, error)
	LedgerEntries(ctx context.Context, principal model.Principal, filter dto.LedgerFilter) (*dto.LedgerListResponse, error)
}

type reportService struct {
	productRepo  repository.ProductRepository
	batchRepo    repository.BatchRepository
	movementRepo repository.StockMovementRepository
	saleRepo     repository.SaleRepository
	ledgerRepo   repository.LedgerRepository
}

func NewReportService(
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	movementRepo repository.StockMovementRepository,
	saleRepo repository.SaleRepository,
	ledgerRepo repository.LedgerRepository,
) ReportService {
	return &reportService{
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		saleRepo:     saleRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// ── StockReport ───────────────────────────────────────────────────────────────
// Per product: closing is the current on-hand quantity and
//   opening = closing - purchases - returns + consumption   (clamped to >= 0)
//   balance = opening + purchases + returns
// A negative pre-clamp opening means the movement history cannot explain the
// current quantity; it is kept in OpeningRaw and counted as a warning.

type stockLineAgg struct {
	name, barcode                            string
	closing, purchases, returns, consumption int
}

func (s *reportService) StockReport(ctx context.Context, principal model.Principal, r dto.DateRange) (*dto.StockReportResponse, error) {
	from, to, err := parseRange(r.From, r.To)
	if err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.ListByBranch(ctx, principal.BranchID, false)
	if err != nil {
		return nil, err
	}
	totals, err := s.movementRepo.SumByProductAndType(ctx, principal.BranchID, from, to)
	if err != nil {
		return nil, err
	}

	lines := map[uuid.UUID]*stockLineAgg{}
	get := func(id uuid.UUID) *stockLineAgg {
		l, ok := lines[id]
		if !ok {
			l = &stockLineAgg{}
			lines[id] = l
		}
		return l
	}
	for _, b := range batches {
		l := get(b.ProductID)
		l.closing += b.Quantity
		if b.Product != nil {
			l.name, l.barcode = b.Product.Name, b.Product.Barcode
		}
	}
	for _, t := range totals {
		l := get(t.ProductID)
		switch t.Type {
		case model.MovementIn:
			l.purchases += t.Total
		case model.MovementReturn:
			l.returns += t.Total
		case model.MovementSale, model.MovementOut, model.MovementAdjustment:
			l.consumption += t.Total
		}
	}

	// Products that only appear in movement history still need a name.
	var missing []uuid.UUID
	for id, l := range lines {
		if l.name == "" {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			if l, ok := lines[p.ID]; ok {
				l.name, l.barcode = p.Name, p.Barcode
			}
		}
	}

	resp := &dto.StockReportResponse{From: r.From, To: r.To, Lines: make([]dto.StockReportLine, 0, len(lines))}
	for id, l := range lines {
		raw := l.closing - l.purchases - l.returns + l.consumption
		opening := max(raw, 0)
		line := dto.StockReportLine{
			ProductID:      id.String(),
			Name:           l.name,
			Barcode:        l.barcode,
			Opening:        opening,
			OpeningRaw:     raw,
			OpeningClamped: raw < 0,
			Purchases:      l.purchases,
			Returns:        l.returns,
			Consumption:    l.consumption,
			Balance:        opening + l.purchases + l.returns,
			Closing:        l.closing,
		}
		resp.Lines = append(resp.Lines, line)

		resp.Summary.Products++
		resp.Summary.TotalOpening += line.Opening
		resp.Summary.TotalPurchases += line.Purchases
		resp.Summary.TotalReturns += line.Returns
		resp.Summary.TotalConsumption += line.Consumption
		resp.Summary.TotalClosing += line.Closing
		if line.OpeningClamped {
			resp.Summary.DataQualityWarnings++
		}
	}
	sort.Slice(resp.Lines, func(i, j int) bool {
		if resp.Lines[i].Name != resp.Lines[j].Name {
			return resp.Lines[i].Name < resp.Lines[j].Name
		}
		return resp.Lines[i].ProductID < resp.Lines[j].ProductID
	})

	if resp.Summary.DataQualityWarnings > 0 {
		log.Warn().
			Str("branch_id", principal.BranchID.String()).
			Int("products", resp.Summary.DataQualityWarnings).
			Msg("report_service: movement history does not explain current stock, opening clamped")
	}
	return resp, nil
}

// ── SalesReport ───────────────────────────────────────────────────────────────

func (s *reportService) SalesReport(ctx context.Context, principal model.Principal, r dto.DateRange) (*dto.SalesReportResponse, error) {
	from, to, err := parseRange(r.From, r.To)
	if err != nil {
		return nil, err
	}
	rows, err := s.saleRepo.DailyTotals(ctx, principal.BranchID, from, to)
	if err != nil {
		return nil, err
	}

	resp := &dto.SalesReportResponse{Daily: make([]dto.DailySales, 0, len(rows))}
	revenue := decimal.Zero
	var count int64
	for _, row := range rows {
		resp.Daily = append(resp.Daily, dto.DailySales{Date: row.Date, Total: row.Total, Count: row.Count})
		revenue = revenue.Add(row.Total)
		count += row.Count
	}
	resp.Summary = dto.SalesSummary{TotalRevenue: revenue, TotalSales: count, AvgSale: decimal.Zero}
	if count > 0 {
		resp.Summary.AvgSale = revenue.Div(decimal.NewFromInt(count)).Round(2)
	}
	return resp, nil
}

// ── LedgerEntries ─────────────────────────────────────────────────────────────

func (s *reportService) LedgerEntries(ctx context.Context, principal model.Principal, filter dto.LedgerFilter) (*dto.LedgerListResponse, error) {
	from, to, err := optionalRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	entries, total, err := s.ledgerRepo.List(ctx, repository.LedgerFilter{
		BranchID: principal.BranchID,
		Type:     filter.Type,
		From:     from,
		To:       to,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, dto.LedgerEntryResponse{
			ID:          e.ID.String(),
			Type:        e.Type,
			ReferenceID: e.ReferenceID.String(),
			Amount:      e.Amount,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return &dto.LedgerListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
