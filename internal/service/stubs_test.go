package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────
// One mutex guards everything so the concurrency tests exercise the same
// compare-and-swap semantics as the SQL guard.

type memStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*model.Product
	batches    map[uuid.UUID]*model.Batch
	movements  []model.StockMovement
	sales      []model.Sale
	ledger     []model.LedgerEntry
	customers  map[uuid.UUID]*model.Customer
	receiptSeq int64

	// failure injection
	recordErr       error
	customerErr     error
	beforeDecrement func(batchID uuid.UUID)
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[uuid.UUID]*model.Product{},
		batches:    map[uuid.UUID]*model.Batch{},
		customers:  map[uuid.UUID]*model.Customer{},
		receiptSeq: 1000,
	}
}

func (s *memStore) seedProduct(name, barcode string) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Product{
		ID:           uuid.New(),
		Barcode:      barcode,
		Name:         name,
		Category:     "Analgesic",
		ReorderLevel: 10,
		Status:       model.ProductActive,
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) seedBatch(p *model.Product, branchID uuid.UUID, number string, qty int, expiry time.Time, price string) *model.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &model.Batch{
		ID:           uuid.New(),
		ProductID:    p.ID,
		BranchID:     branchID,
		BatchNumber:  number,
		ExpiryDate:   expiry,
		Quantity:     qty,
		CostPrice:    decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		SellingPrice: decimal.RequireFromString(price),
		CreatedAt:    time.Now().Add(time.Duration(len(s.batches)) * time.Millisecond),
	}
	b.Product = p
	s.batches[b.ID] = b
	return b
}

func (s *memStore) qty(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id].Quantity
}

func (s *memStore) counts() (sales, ledger, movements int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales), len(s.ledger), len(s.movements)
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type stubProductRepo struct{ s *memStore }

func (r *stubProductRepo) Create(_ context.Context, _ *gorm.DB, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, apierror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, _ *gorm.DB, barcode string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Barcode == barcode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return apierror.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── BatchRepository ───────────────────────────────────────────────────────────

type stubBatchRepo struct{ s *memStore }

func (r *stubBatchRepo) Create(_ context.Context, _ *gorm.DB, b *model.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	r.s.batches[b.ID] = b
	return nil
}

func (r *stubBatchRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, apierror.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBatchRepo) ListSellable(_ context.Context, _ *gorm.DB, productID, branchID uuid.UUID, now time.Time) ([]model.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Batch
	for _, b := range r.s.batches {
		if b.ProductID == productID && b.BranchID == branchID && b.Quantity > 0 && b.ExpiryDate.After(now) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *stubBatchRepo) ListByBranch(_ context.Context, branchID uuid.UUID, inStockOnly bool) ([]model.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Batch
	for _, b := range r.s.batches {
		if b.BranchID != branchID || (inStockOnly && b.Quantity <= 0) {
			continue
		}
		cp := *b
		if p, ok := r.s.products[b.ProductID]; ok {
			cp.Product = p
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

func (r *stubBatchRepo) DecrementIfAvailable(_ context.Context, _ *gorm.DB, id uuid.UUID, qty int) (int, error) {
	if hook := r.s.beforeDecrement; hook != nil {
		hook(id)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok || b.Quantity < qty {
		return 0, fmt.Errorf("%w: batch %s", apierror.ErrConcurrentModification, id)
	}
	b.Quantity -= qty
	return b.Quantity, nil
}

func (r *stubBatchRepo) Increment(_ context.Context, _ *gorm.DB, id uuid.UUID, qty int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return 0, apierror.ErrNotFound
	}
	b.Quantity += qty
	return b.Quantity, nil
}

var _ repository.BatchRepository = (*stubBatchRepo)(nil)

// ── StockMovementRepository ───────────────────────────────────────────────────

type stubMovementRepo struct {
	s         *memStore
	createErr error
}

func (r *stubMovementRepo) Create(_ context.Context, _ *gorm.DB, m *model.StockMovement) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.s.movements {
		if m.BranchID != f.BranchID {
			continue
		}
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) SumByProductAndType(_ context.Context, branchID uuid.UUID, from, to time.Time) ([]repository.MovementTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type key struct {
		id uuid.UUID
		t  string
	}
	sums := map[key]int{}
	for _, m := range r.s.movements {
		if m.BranchID != branchID || m.CreatedAt.Before(from) || !m.CreatedAt.Before(to) {
			continue
		}
		q := m.Quantity
		if q < 0 {
			q = -q
		}
		sums[key{m.ProductID, m.Type}] += q
	}
	var out []repository.MovementTotal
	for k, v := range sums {
		out = append(out, repository.MovementTotal{ProductID: k.id, Type: k.t, Total: v})
	}
	return out, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── SaleRepository ────────────────────────────────────────────────────────────

type stubSaleRepo struct{ s *memStore }

func (r *stubSaleRepo) Record(_ context.Context, _ *gorm.DB, sale *model.Sale, ledger *model.LedgerEntry, movements []model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.recordErr != nil {
		return r.s.recordErr
	}
	for i := range movements {
		movements[i].ID = uuid.New()
	}
	ledger.ID = uuid.New()
	r.s.sales = append(r.s.sales, *sale)
	r.s.ledger = append(r.s.ledger, *ledger)
	r.s.movements = append(r.s.movements, movements...)
	return nil
}

func (r *stubSaleRepo) NextReceiptNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receiptSeq++
	return r.s.receiptSeq, nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, branchID, id uuid.UUID) (*model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.sales {
		if r.s.sales[i].ID == id && r.s.sales[i].BranchID == branchID {
			cp := r.s.sales[i]
			return &cp, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *stubSaleRepo) List(_ context.Context, branchID uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Sale
	for _, s := range r.s.sales {
		if s.BranchID == branchID {
			out = append(out, s)
		}
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := min(start+limit, len(out))
	return out[start:end], total, nil
}

func (r *stubSaleRepo) DailyTotals(_ context.Context, branchID uuid.UUID, from, to time.Time) ([]repository.DailyTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byDay := map[string]*repository.DailyTotal{}
	var days []string
	for _, s := range r.s.sales {
		if s.BranchID != branchID || s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		d := s.CreatedAt.UTC().Format("2006-01-02")
		row, ok := byDay[d]
		if !ok {
			row = &repository.DailyTotal{Date: d, Total: decimal.Zero}
			byDay[d] = row
			days = append(days, d)
		}
		row.Total = row.Total.Add(s.Subtotal)
		row.Count++
	}
	sort.Strings(days)
	out := make([]repository.DailyTotal, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── CustomerRepository ────────────────────────────────────────────────────────

type stubCustomerRepo struct{ s *memStore }

func (r *stubCustomerRepo) FindByID(_ context.Context, branchID, id uuid.UUID) (*model.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.customerErr != nil {
		return nil, r.s.customerErr
	}
	c, ok := r.s.customers[id]
	if !ok || c.BranchID != branchID {
		return nil, apierror.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCustomerRepo) FindByPhone(_ context.Context, branchID uuid.UUID, phone string) (*model.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.customerErr != nil {
		return nil, r.s.customerErr
	}
	for _, c := range r.s.customers {
		if c.BranchID == branchID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.customerErr != nil {
		return r.s.customerErr
	}
	c.ID = uuid.New()
	cp := *c
	r.s.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) RecordPurchase(_ context.Context, id uuid.UUID, amount decimal.Decimal, points int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.customerErr != nil {
		return r.s.customerErr
	}
	c, ok := r.s.customers[id]
	if !ok {
		return apierror.ErrNotFound
	}
	c.TotalSpent = c.TotalSpent.Add(amount)
	c.PurchaseCount++
	c.LoyaltyPoints += points
	c.LastVisit = &at
	return nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// ── SaleEventPublisher ────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.SaleCompleted
	err    error
}

func (p *recordingPublisher) PublishSaleCompleted(_ context.Context, ev service.SaleCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var _ service.SaleEventPublisher = (*recordingPublisher)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memStore
	products  *stubProductRepo
	batches   *stubBatchRepo
	movements *stubMovementRepo
	sales     *stubSaleRepo
	customers *stubCustomerRepo
	publisher *recordingPublisher
	selector  service.FEFOSelector
	deducter  service.StockDeducter
	saleSvc   service.SaleService
	principal model.Principal
}

func newFixture() *fixture {
	st := newMemStore()
	f := &fixture{
		store:     st,
		products:  &stubProductRepo{s: st},
		batches:   &stubBatchRepo{s: st},
		movements: &stubMovementRepo{s: st},
		sales:     &stubSaleRepo{s: st},
		customers: &stubCustomerRepo{s: st},
		publisher: &recordingPublisher{},
		principal: model.Principal{
			ID:       uuid.New(),
			Name:     "Ama Mensah",
			Role:     model.RoleCashier,
			BranchID: uuid.New(),
		},
	}
	f.selector = service.NewFEFOSelector(f.batches, nil)
	f.deducter = service.NewStockDeducter(f.selector, f.batches, 3)
	f.saleSvc = service.NewSaleService(f.sales, f.products, f.batches, f.deducter, f.publisher, "Test Pharmacy")
	return f
}

func days(n int) time.Time { return time.Now().AddDate(0, 0, n) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
