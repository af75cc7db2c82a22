package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	mu    sync.Mutex
	calls map[string][]json.RawMessage
}

func (c *capture) handler(queue string) HandlerFunc {
	return func(_ context.Context, payload json.RawMessage) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.calls[queue] = append(c.calls[queue], payload)
		return nil
	}
}

func newInlineDispatcher() (*Dispatcher, *capture) {
	d := NewDispatcher(nil, 3)
	c := &capture{calls: map[string][]json.RawMessage{}}
	d.Register(QueueLoyalty, c.handler(QueueLoyalty))
	d.Register(QueueReceiptEmail, c.handler(QueueReceiptEmail))
	return d, c
}

func saleEvent(customer *dto.SaleCustomerRequest) service.SaleCompleted {
	return service.SaleCompleted{
		SaleID:     uuid.New(),
		BranchID:   uuid.New(),
		ReceiptNo:  1007,
		Subtotal:   decimal.RequireFromString("48.50"),
		Customer:   customer,
		OccurredAt: time.Now(),
	}
}

func TestPublishSaleCompleted_InlineFanOut(t *testing.T) {
	d, c := newInlineDispatcher()
	email := "kofi@example.com"
	ev := saleEvent(&dto.SaleCustomerRequest{Name: "Kofi", Phone: "0244000111", Email: &email})

	require.NoError(t, d.PublishSaleCompleted(context.Background(), ev))
	d.Wait()

	require.Len(t, c.calls[QueueLoyalty], 1)
	require.Len(t, c.calls[QueueReceiptEmail], 1)

	var got service.SaleCompleted
	require.NoError(t, json.Unmarshal(c.calls[QueueLoyalty][0], &got))
	assert.Equal(t, ev.SaleID, got.SaleID)
	assert.True(t, ev.Subtotal.Equal(got.Subtotal))

	var mail ReceiptEmailPayload
	require.NoError(t, json.Unmarshal(c.calls[QueueReceiptEmail][0], &mail))
	assert.Equal(t, email, mail.ToEmail)
	assert.Equal(t, ev.BranchID.String(), mail.BranchID)
}

func TestPublishSaleCompleted_NoEmailNoReceipt(t *testing.T) {
	d, c := newInlineDispatcher()
	require.NoError(t, d.PublishSaleCompleted(context.Background(), saleEvent(&dto.SaleCustomerRequest{Phone: "0244000111"})))
	require.NoError(t, d.PublishSaleCompleted(context.Background(), saleEvent(nil)))
	d.Wait()

	assert.Len(t, c.calls[QueueLoyalty], 1)
	assert.Empty(t, c.calls[QueueReceiptEmail])
}

func TestRunInline_PermanentErrorStopsRetrying(t *testing.T) {
	d := NewDispatcher(nil, 5)
	calls := 0
	d.Register(QueueLoyalty, func(context.Context, json.RawMessage) error {
		calls++
		return Permanent(errors.New("customer unknown"))
	})
	d.runInline(QueueLoyalty, Job{Type: "loyalty", Payload: json.RawMessage(`{}`)})
	assert.Equal(t, 1, calls)
}

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func(int) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, 3, func(int) error { return errors.New("transient") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	assert.True(t, isPermanent(Permanent(base)))
	assert.ErrorIs(t, Permanent(base), base)
	assert.False(t, isPermanent(base))
	assert.NoError(t, Permanent(nil))
}

func TestComputeRetryBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, computeRetryBackoff(1))
	assert.Equal(t, 10*time.Second, computeRetryBackoff(2))
	assert.Equal(t, 40*time.Second, computeRetryBackoff(4))
	assert.Equal(t, 10*time.Minute, computeRetryBackoff(20))
}
