// Package billing implements the billing ledger: deriving an invoice
// from a confirmed booking and tracking its payment status. Invoices
// are strictly one-to-one with bookings; issuing is retryable after a
// partial failure without ever touching seat inventory.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

// ErrInvalidTaxRate rejects a negative tax rate before any state is
// touched.
var ErrInvalidTaxRate = errors.New("tax rate must not be negative")

// BookingStore is the slice of the seat ledger the billing ledger
// reads: point lookups only, never seat mutations.
type BookingStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
}

// InvoiceStore persists invoices and the unpaid-to-paid transition.
type InvoiceStore interface {
	Create(ctx context.Context, inv *model.Invoice) error
	GetByID(ctx context.Context, id uint64) (*model.Invoice, error)
	GetByBooking(ctx context.Context, bookingID uint64) (*model.Invoice, error)
	ListAll(ctx context.Context) ([]model.Invoice, error)
	MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error
}

// TxRunner runs a function inside a single store transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the billing ledger.
type Service struct {
	bookings BookingStore
	invoices InvoiceStore
	tx       TxRunner
	clk      clock.Clock
}

// NewService constructs the billing ledger. All dependencies must be
// non-nil.
func NewService(bookings BookingStore, invoices InvoiceStore, tx TxRunner, clk clock.Clock) *Service {
	if bookings == nil || invoices == nil || tx == nil || clk == nil {
		panic("nil dependency passed to billing.NewService")
	}
	return &Service{bookings: bookings, invoices: invoices, tx: tx, clk: clk}
}

// IssueInvoice materializes the invoice for a confirmed booking.
// subtotal is the booking total, tax = round(subtotal * taxRate) and
// the due date is thirty days after issue. The invoice number embeds
// the booking ID, so it is collision-free without a counter. A second
// issue for the same booking returns repository.ErrAlreadyInvoiced,
// making the post-reservation retry safe.
func (s *Service) IssueInvoice(ctx context.Context, bookingID uint64, taxRate float64) (*model.Invoice, error) {
	if taxRate < 0 {
		return nil, ErrInvalidTaxRate
	}
	var invoice *model.Invoice
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Settled() {
			return repository.ErrAlreadyCancelled
		}
		now := s.clk.Now()
		tax := int64(math.Round(float64(b.TotalAmountCents) * taxRate))
		invoice = &model.Invoice{
			BookingID:     b.ID,
			CustomerID:    b.CustomerID,
			InvoiceNumber: fmt.Sprintf("INV-%d-%d", now.Unix(), b.ID),
			SubtotalCents: b.TotalAmountCents,
			TaxCents:      tax,
			TotalCents:    b.TotalAmountCents + tax,
			PaymentStatus: model.InvoiceUnpaid,
			IssuedAt:      now,
			DueDate:       now.AddDate(0, 0, 30),
		}
		return s.invoices.Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// MarkPaid records payment for an invoice. Marking an already-paid
// invoice is a no-op that returns the current record, so retried
// payment callbacks are harmless.
func (s *Service) MarkPaid(ctx context.Context, invoiceID uint64) (*model.Invoice, error) {
	if err := s.invoices.MarkPaid(ctx, invoiceID, s.clk.Now()); err != nil {
		return nil, err
	}
	return s.invoices.GetByID(ctx, invoiceID)
}

// Get returns an invoice by ID.
func (s *Service) Get(ctx context.Context, invoiceID uint64) (*model.Invoice, error) {
	return s.invoices.GetByID(ctx, invoiceID)
}

// GetByBooking returns the invoice issued for a booking.
func (s *Service) GetByBooking(ctx context.Context, bookingID uint64) (*model.Invoice, error) {
	return s.invoices.GetByBooking(ctx, bookingID)
}

// List returns all invoices.
func (s *Service) List(ctx context.Context) ([]model.Invoice, error) {
	return s.invoices.ListAll(ctx)
}
