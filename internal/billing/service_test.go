package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

// fakeBilling is an in-memory implementation of the billing store
// interfaces.  createErr lets a test inject one failing insert to
// exercise the retry path.
type fakeBilling struct {
	bookings  map[uint64]*model.Booking
	invoices  map[uint64]*model.Invoice
	byBooking map[uint64]uint64
	nextID    uint64
	createErr error
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		bookings:  make(map[uint64]*model.Booking),
		invoices:  make(map[uint64]*model.Invoice),
		byBooking: make(map[uint64]uint64),
		nextID:    1,
	}
}

func (f *fakeBilling) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeBilling) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBilling) Create(ctx context.Context, inv *model.Invoice) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if _, exists := f.byBooking[inv.BookingID]; exists {
		return repository.ErrAlreadyInvoiced
	}
	inv.ID = f.nextID
	f.nextID++
	cp := *inv
	f.invoices[inv.ID] = &cp
	f.byBooking[inv.BookingID] = inv.ID
	return nil
}

func (f *fakeBilling) invoiceGet(id uint64) (*model.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, repository.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeBilling) GetByBooking(ctx context.Context, bookingID uint64) (*model.Invoice, error) {
	id, ok := f.byBooking[bookingID]
	if !ok {
		return nil, repository.ErrInvoiceNotFound
	}
	return f.invoiceGet(id)
}

func (f *fakeBilling) ListAll(ctx context.Context) ([]model.Invoice, error) {
	out := make([]model.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeBilling) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
	inv, ok := f.invoices[id]
	if !ok {
		return repository.ErrInvoiceNotFound
	}
	if inv.PaymentStatus == model.InvoicePaid {
		return nil
	}
	inv.PaymentStatus = model.InvoicePaid
	t := paidAt
	inv.PaidAt = &t
	return nil
}

// invoiceStore adapts fakeBilling to InvoiceStore; GetByID on the fake
// is already taken by the booking lookup.
type invoiceStore struct{ f *fakeBilling }

func (s invoiceStore) Create(ctx context.Context, inv *model.Invoice) error {
	return s.f.Create(ctx, inv)
}
func (s invoiceStore) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
	return s.f.invoiceGet(id)
}
func (s invoiceStore) GetByBooking(ctx context.Context, id uint64) (*model.Invoice, error) {
	return s.f.GetByBooking(ctx, id)
}
func (s invoiceStore) ListAll(ctx context.Context) ([]model.Invoice, error) {
	return s.f.ListAll(ctx)
}
func (s invoiceStore) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
	return s.f.MarkPaid(ctx, id, paidAt)
}

var issueTime = time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)

func newBillingService(f *fakeBilling) *Service {
	return NewService(f, invoiceStore{f}, f, clock.NewFixed(issueTime))
}

func addBooking(f *fakeBilling, total int64, status string) *model.Booking {
	b := &model.Booking{
		ID:               f.nextID,
		ConcertID:        1,
		CustomerID:       7,
		Tier:             "VIP",
		Quantity:         2,
		UnitPriceCents:   total / 2,
		TotalAmountCents: total,
		BookingDate:      issueTime.Add(-24 * time.Hour),
		Status:           status,
	}
	f.nextID++
	f.bookings[b.ID] = b
	return b
}

func TestIssueInvoiceDerivesTotals(t *testing.T) {
	f := newFakeBilling()
	b := addBooking(f, 50000, model.BookingConfirmed)
	svc := newBillingService(f)

	inv, err := svc.IssueInvoice(context.Background(), b.ID, 0.08)
	require.NoError(t, err)

	assert.Equal(t, b.ID, inv.BookingID)
	assert.Equal(t, b.CustomerID, inv.CustomerID)
	assert.Equal(t, int64(50000), inv.SubtotalCents)
	assert.Equal(t, int64(4000), inv.TaxCents)
	assert.Equal(t, int64(54000), inv.TotalCents)
	assert.Equal(t, model.InvoiceUnpaid, inv.PaymentStatus)
	assert.Equal(t, issueTime, inv.IssuedAt)
	assert.Equal(t, issueTime.AddDate(0, 0, 30), inv.DueDate)
	assert.Nil(t, inv.PaidAt)
	assert.Equal(t, "INV-1717320600-1", inv.InvoiceNumber)
}

func TestIssueInvoiceRoundsTaxToNearestCent(t *testing.T) {
	f := newFakeBilling()
	b := addBooking(f, 9999, model.BookingConfirmed)
	svc := newBillingService(f)

	inv, err := svc.IssueInvoice(context.Background(), b.ID, 0.0825)
	require.NoError(t, err)
	// 9999 * 0.0825 = 824.9175, rounds to 825.
	assert.Equal(t, int64(825), inv.TaxCents)
	assert.Equal(t, int64(10824), inv.TotalCents)
}

func TestIssueInvoiceRejectsSecondIssue(t *testing.T) {
	f := newFakeBilling()
	b := addBooking(f, 50000, model.BookingConfirmed)
	svc := newBillingService(f)
	ctx := context.Background()

	_, err := svc.IssueInvoice(ctx, b.ID, 0.08)
	require.NoError(t, err)

	_, err = svc.IssueInvoice(ctx, b.ID, 0.08)
	assert.ErrorIs(t, err, repository.ErrAlreadyInvoiced)
	assert.Len(t, f.invoices, 1)
}

func TestIssueInvoiceRetryAfterStoreFailure(t *testing.T) {
	f := newFakeBilling()
	b := addBooking(f, 50000, model.BookingConfirmed)
	f.createErr = errors.New("connection reset")
	svc := newBillingService(f)
	ctx := context.Background()

	_, err := svc.IssueInvoice(ctx, b.ID, 0.08)
	require.Error(t, err)
	assert.Empty(t, f.invoices)

	inv, err := svc.IssueInvoice(ctx, b.ID, 0.08)
	require.NoError(t, err)
	assert.Equal(t, int64(54000), inv.TotalCents)
}

func TestIssueInvoiceGuards(t *testing.T) {
	f := newFakeBilling()
	cancelled := addBooking(f, 30000, model.BookingCancelled)
	refunded := addBooking(f, 30000, model.BookingRefunded)
	confirmed := addBooking(f, 30000, model.BookingConfirmed)
	svc := newBillingService(f)
	ctx := context.Background()

	_, err := svc.IssueInvoice(ctx, cancelled.ID, 0.08)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)

	_, err = svc.IssueInvoice(ctx, refunded.ID, 0.08)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)

	_, err = svc.IssueInvoice(ctx, 999, 0.08)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	_, err = svc.IssueInvoice(ctx, confirmed.ID, -0.01)
	assert.ErrorIs(t, err, ErrInvalidTaxRate)

	assert.Empty(t, f.invoices)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFakeBilling()
	b := addBooking(f, 50000, model.BookingConfirmed)
	svc := newBillingService(f)
	ctx := context.Background()

	issued, err := svc.IssueInvoice(ctx, b.ID, 0.08)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	again, err := svc.MarkPaid(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, again.PaymentStatus)
	require.NotNil(t, again.PaidAt)
	assert.Equal(t, firstPaidAt, *again.PaidAt)
}

func TestMarkPaidUnknownInvoice(t *testing.T) {
	f := newFakeBilling()
	svc := newBillingService(f)

	_, err := svc.MarkPaid(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrInvoiceNotFound)
}
