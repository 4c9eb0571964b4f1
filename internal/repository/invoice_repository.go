package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stagefront/concert-billing/internal/model"
)

// InvoiceRepo provides persistence for invoices. The bookings
// relationship is one-to-one and enforced by a unique index on
// booking_id, which turns a double issue into ErrAlreadyInvoiced
// instead of a second invoice.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns an InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, booking_id, customer_id, invoice_number, subtotal_cents, tax_cents, total_cents, payment_status, issued_at, due_date, paid_at`

// Create inserts an invoice and populates the generated ID. A
// duplicate booking_id maps to ErrAlreadyInvoiced.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	const ins = `INSERT INTO invoices (booking_id, customer_id, invoice_number, subtotal_cents, tax_cents, total_cents, payment_status, issued_at, due_date)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, ins,
		inv.BookingID, inv.CustomerID, inv.InvoiceNumber,
		inv.SubtotalCents, inv.TaxCents, inv.TotalCents,
		inv.PaymentStatus, inv.IssuedAt.UTC(), inv.DueDate.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyInvoiced
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// GetByID returns an invoice by ID or ErrInvoiceNotFound.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
	const sel = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	return r.scanOne(q(ctx, r.db).QueryRowContext(ctx, sel, id))
}

// GetByBooking returns the invoice issued for a booking, or
// ErrInvoiceNotFound when none has been issued yet.
func (r *InvoiceRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.Invoice, error) {
	const sel = `SELECT ` + invoiceColumns + ` FROM invoices WHERE booking_id = ?`
	return r.scanOne(q(ctx, r.db).QueryRowContext(ctx, sel, bookingID))
}

// ListAll returns every invoice, used by the analytics snapshot and
// the invoice listing endpoint.
func (r *InvoiceRepo) ListAll(ctx context.Context) ([]model.Invoice, error) {
	const sel = `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY id`
	rows, err := q(ctx, r.db).QueryContext(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	invoices := make([]model.Invoice, 0)
	for rows.Next() {
		var inv model.Invoice
		var paidAt sql.NullTime
		if err := rows.Scan(
			&inv.ID, &inv.BookingID, &inv.CustomerID, &inv.InvoiceNumber,
			&inv.SubtotalCents, &inv.TaxCents, &inv.TotalCents,
			&inv.PaymentStatus, &inv.IssuedAt, &inv.DueDate, &paidAt,
		); err != nil {
			return nil, err
		}
		if paidAt.Valid {
			t := paidAt.Time
			inv.PaidAt = &t
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// MarkPaid flips payment_status from unpaid to paid and stamps
// paid_at, as one conditional update. Zero affected rows on an
// existing invoice means it was already paid; the caller treats that
// as a successful no-op.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
	const upd = `UPDATE invoices SET payment_status = ?, paid_at = ? WHERE id = ? AND payment_status = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, upd, model.InvoicePaid, paidAt.UTC(), id, model.InvoiceUnpaid)
	if err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := q(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM invoices WHERE id = ?`, id).Scan(&one); err != nil {
			return ErrInvoiceNotFound
		}
	}
	return nil
}

func (r *InvoiceRepo) scanOne(row *sql.Row) (*model.Invoice, error) {
	var inv model.Invoice
	var paidAt sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.BookingID, &inv.CustomerID, &inv.InvoiceNumber,
		&inv.SubtotalCents, &inv.TaxCents, &inv.TotalCents,
		&inv.PaymentStatus, &inv.IssuedAt, &inv.DueDate, &paidAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	return &inv, nil
}
