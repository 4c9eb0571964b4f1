package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stagefront/concert-billing/internal/model"
)

// BookingRepo provides persistence for bookings. Status transitions
// go through UpdateStatus, a conditional update keyed on the current
// status so that two concurrent cancels cannot both succeed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, concert_id, customer_id, tier, quantity, unit_price_cents, total_amount_cents, booking_date, status`

// Create inserts a booking and populates the generated ID. Status and
// booking_date must be set by the caller; the ledger stamps them from
// its clock so that tests are deterministic.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const ins = `INSERT INTO bookings (concert_id, customer_id, tier, quantity, unit_price_cents, total_amount_cents, booking_date, status)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, ins,
		b.ConcertID, b.CustomerID, b.Tier, b.Quantity, b.UnitPriceCents, b.TotalAmountCents, b.BookingDate.UTC(), b.Status)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns a booking by ID or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	var b model.Booking
	err := q(ctx, r.db).QueryRowContext(ctx, sel, id).Scan(
		&b.ID, &b.ConcertID, &b.CustomerID, &b.Tier, &b.Quantity,
		&b.UnitPriceCents, &b.TotalAmountCents, &b.BookingDate, &b.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

// ListByCustomer returns all bookings made by a customer, newest
// first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error) {
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ? ORDER BY booking_date DESC, id DESC`
	return r.list(ctx, sel, customerID)
}

// ListByConcert returns all bookings against a concert, newest first.
func (r *BookingRepo) ListByConcert(ctx context.Context, concertID uint64) ([]model.Booking, error) {
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE concert_id = ? ORDER BY booking_date DESC, id DESC`
	return r.list(ctx, sel, concertID)
}

// ListAll returns every booking, used by the analytics snapshot.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	const sel = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY id`
	return r.list(ctx, sel)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID, &b.ConcertID, &b.CustomerID, &b.Tier, &b.Quantity,
			&b.UnitPriceCents, &b.TotalAmountCents, &b.BookingDate, &b.Status,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus moves a booking from one status to another in a single
// conditional update. Zero affected rows means the booking is either
// missing or no longer in the expected status; the caller gets
// ErrAlreadyCancelled in the latter case and can be sure the seats
// were credited by whoever won the transition.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	const upd = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, upd, to, id, from)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := q(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&one); err != nil {
			return ErrBookingNotFound
		}
		return ErrAlreadyCancelled
	}
	return nil
}
