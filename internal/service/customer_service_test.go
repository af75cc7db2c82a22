package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleEvent(branch uuid.UUID, subtotal string, c *dto.SaleCustomerRequest) service.SaleCompleted {
	return service.SaleCompleted{
		SaleID:     uuid.New(),
		BranchID:   branch,
		ReceiptNo:  1001,
		Subtotal:   dec(subtotal),
		Customer:   c,
		OccurredAt: time.Now(),
	}
}

func TestLoyaltyPoints(t *testing.T) {
	assert.Equal(t, int64(5), service.LoyaltyPoints(dec("59.99"), 10))
	assert.Equal(t, int64(6), service.LoyaltyPoints(dec("60"), 10))
	assert.Equal(t, int64(0), service.LoyaltyPoints(dec("9.99"), 10))
	assert.Equal(t, int64(0), service.LoyaltyPoints(dec("100"), 0))
}

func TestRecordPurchase_CreatesUnknownPhone(t *testing.T) {
	f := newFixture()
	svc := service.NewCustomerService(f.customers, 10)
	email := "kofi@example.com"

	c, err := svc.RecordPurchase(context.Background(), saleEvent(f.principal.BranchID, "125.50",
		&dto.SaleCustomerRequest{Name: "Kofi Boateng", Phone: "0244000111", Email: &email, IsNew: true}))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, int64(12), c.LoyaltyPoints)
	assert.Equal(t, 1, c.PurchaseCount)
	assert.True(t, dec("125.50").Equal(c.TotalSpent))
	assert.NotNil(t, c.LastVisit)
	assert.Len(t, f.store.customers, 1)
}

func TestRecordPurchase_ExistingPhoneIncrements(t *testing.T) {
	f := newFixture()
	svc := service.NewCustomerService(f.customers, 10)
	existing := &model.Customer{
		BranchID:      f.principal.BranchID,
		Name:          "Esi Owusu",
		Phone:         "0200111222",
		TotalSpent:    dec("40"),
		PurchaseCount: 2,
		LoyaltyPoints: 4,
	}
	require.NoError(t, f.customers.Create(context.Background(), existing))

	// isNew with a phone that already exists updates instead of duplicating.
	c, err := svc.RecordPurchase(context.Background(), saleEvent(f.principal.BranchID, "30",
		&dto.SaleCustomerRequest{Name: "Esi O.", Phone: "0200111222", IsNew: true}))
	require.NoError(t, err)

	assert.Equal(t, existing.ID, c.ID)
	stored := f.store.customers[existing.ID]
	assert.True(t, dec("70").Equal(stored.TotalSpent))
	assert.Equal(t, 3, stored.PurchaseCount)
	assert.Equal(t, int64(7), stored.LoyaltyPoints)
	assert.Len(t, f.store.customers, 1)
}

func TestRecordPurchase_ByCustomerID(t *testing.T) {
	f := newFixture()
	svc := service.NewCustomerService(f.customers, 10)
	existing := &model.Customer{BranchID: f.principal.BranchID, Name: "Yaw", Phone: "0555000000", TotalSpent: decimal.Zero}
	require.NoError(t, f.customers.Create(context.Background(), existing))

	_, err := svc.RecordPurchase(context.Background(), saleEvent(f.principal.BranchID, "20",
		&dto.SaleCustomerRequest{CustomerID: existing.ID.String()}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.store.customers[existing.ID].LoyaltyPoints)

	// Same id seen from another branch is unknown.
	_, err = svc.RecordPurchase(context.Background(), saleEvent(uuid.New(), "20",
		&dto.SaleCustomerRequest{CustomerID: existing.ID.String()}))
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestRecordPurchase_NoReferenceIsNoop(t *testing.T) {
	f := newFixture()
	svc := service.NewCustomerService(f.customers, 10)

	c, err := svc.RecordPurchase(context.Background(), saleEvent(f.principal.BranchID, "20",
		&dto.SaleCustomerRequest{Name: "Walk-in"}))
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Empty(t, f.store.customers)
}

func TestRecordPurchase_StoreFailureIsReturned(t *testing.T) {
	f := newFixture()
	f.store.customerErr = fmt.Errorf("%w: timeout", apierror.ErrPersistence)
	svc := service.NewCustomerService(f.customers, 10)

	_, err := svc.RecordPurchase(context.Background(), saleEvent(f.principal.BranchID, "20",
		&dto.SaleCustomerRequest{Name: "Ama", Phone: "0244999888"}))
	assert.ErrorIs(t, err, apierror.ErrPersistence)
}
