package worker

// receipt_email_worker.go
// Processes jobs from QueueReceiptEmail: renders the receipt of a stored sale
// and mails it as a PDF attachment through the SMTP circuit breaker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/infra"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptEmailPayload is the job envelope sent to QueueReceiptEmail.
type ReceiptEmailPayload struct {
	SaleID    string `json:"sale_id"`
	BranchID  string `json:"branch_id"`
	ReceiptNo int64  `json:"receipt_no"`
	ToEmail   string `json:"to_email"`
	Name      string `json:"name,omitempty"`
}

// SaleLoader is the read side of the sale store the worker needs.
type SaleLoader interface {
	FindByID(ctx context.Context, branchID, id uuid.UUID) (*model.Sale, error)
}

// ReceiptSender delivers a rendered receipt. *infra.Mailer implements it.
type ReceiptSender interface {
	Configured() bool
	SendReceipt(to, subject, body, filename string, pdf []byte) error
}

type EmailWorker struct {
	sales        SaleLoader
	mailer       ReceiptSender
	cb           *infra.CircuitBreaker
	pharmacyName string
}

// NewEmailWorker creates an EmailWorker. A nil breaker gets the default
// mail relay settings.
func NewEmailWorker(sales SaleLoader, mailer ReceiptSender, cb *infra.CircuitBreaker, pharmacyName string) *EmailWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	}
	return &EmailWorker{sales: sales, mailer: mailer, cb: cb, pharmacyName: pharmacyName}
}

// Process sends the receipt of the sale named in the payload.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Permanent(fmt.Errorf("email_worker: invalid payload: %w", err))
	}
	if payload.ToEmail == "" {
		log.Warn().Str("sale_id", payload.SaleID).Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if w.mailer == nil || !w.mailer.Configured() {
		log.Debug().Str("sale_id", payload.SaleID).Msg("email_worker: SMTP not configured, skipping")
		return nil
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		return Permanent(fmt.Errorf("email_worker: invalid sale_id %q", payload.SaleID))
	}
	branchID, err := uuid.Parse(payload.BranchID)
	if err != nil {
		return Permanent(fmt.Errorf("email_worker: invalid branch_id %q", payload.BranchID))
	}

	sale, err := w.sales.FindByID(ctx, branchID, saleID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return Permanent(fmt.Errorf("sale %s: %w", saleID, err))
		}
		return err
	}

	pdf, err := infra.RenderReceiptPDF(sale, w.pharmacyName)
	if err != nil {
		return Permanent(err)
	}

	subject := fmt.Sprintf("%s receipt #%d", w.pharmacyName, sale.ReceiptNo)
	greeting := "Hello"
	if payload.Name != "" {
		greeting = "Hello " + payload.Name
	}
	body := fmt.Sprintf("%s,\n\nThank you for shopping with us. Your receipt #%d for %s is attached.\n\n%s",
		greeting, sale.ReceiptNo, sale.Subtotal.StringFixed(2), w.pharmacyName)
	filename := fmt.Sprintf("receipt-%d.pdf", sale.ReceiptNo)

	if err := w.cb.Execute(func() error {
		return w.mailer.SendReceipt(payload.ToEmail, subject, body, filename, pdf)
	}); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Str("sale_id", payload.SaleID).Msg("email_worker: failed to send receipt")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Str("sale_id", payload.SaleID).Msg("email_worker: receipt sent")
	return nil
}
