package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/stagefront/concert-billing/internal/model"
)

// ConcertRepo provides persistence for concerts. Seat counts are only
// adjusted through ReserveSeats and ReleaseSeats, both implemented as
// single conditional updates so that concurrent reservations can
// never oversell the pool.
type ConcertRepo struct {
	db *sql.DB
}

// NewConcertRepo returns a ConcertRepo bound to the given database.
func NewConcertRepo(db *sql.DB) *ConcertRepo { return &ConcertRepo{db: db} }

const concertColumns = `id, name, artist, venue, starts_at, genre, ticket_prices, total_seats, available_seats, created_at, updated_at`

// Create inserts a new concert and populates the generated ID and
// DB-default timestamps on the given model. AvailableSeats always
// starts equal to TotalSeats.
func (r *ConcertRepo) Create(ctx context.Context, c *model.Concert) error {
	prices, err := json.Marshal(c.TicketPrices)
	if err != nil {
		return fmt.Errorf("marshal ticket prices: %w", err)
	}
	const ins = `INSERT INTO concerts (name, artist, venue, starts_at, genre, ticket_prices, total_seats, available_seats)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, ins,
		c.Name, c.Artist, c.Venue, c.StartsAt.UTC(), c.Genre, prices, c.TotalSeats, c.TotalSeats)
	if err != nil {
		return fmt.Errorf("create concert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.scanByID(ctx, c.ID, c)
}

// GetByID returns a concert by ID or ErrConcertNotFound.
func (r *ConcertRepo) GetByID(ctx context.Context, id uint64) (*model.Concert, error) {
	var c model.Concert
	if err := r.scanByID(ctx, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConcertRepo) scanByID(ctx context.Context, id uint64, c *model.Concert) error {
	const sel = `SELECT ` + concertColumns + ` FROM concerts WHERE id = ?`
	var prices []byte
	err := q(ctx, r.db).QueryRowContext(ctx, sel, id).Scan(
		&c.ID, &c.Name, &c.Artist, &c.Venue, &c.StartsAt, &c.Genre,
		&prices, &c.TotalSeats, &c.AvailableSeats, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return ErrConcertNotFound
	}
	if err != nil {
		return fmt.Errorf("get concert: %w", err)
	}
	if err := json.Unmarshal(prices, &c.TicketPrices); err != nil {
		return fmt.Errorf("unmarshal ticket prices: %w", err)
	}
	return nil
}

// List returns all concerts ordered by start time.
func (r *ConcertRepo) List(ctx context.Context) ([]model.Concert, error) {
	const sel = `SELECT ` + concertColumns + ` FROM concerts ORDER BY starts_at, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list concerts: %w", err)
	}
	defer rows.Close()
	concerts := make([]model.Concert, 0)
	for rows.Next() {
		var c model.Concert
		var prices []byte
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Artist, &c.Venue, &c.StartsAt, &c.Genre,
			&prices, &c.TotalSeats, &c.AvailableSeats, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(prices, &c.TicketPrices); err != nil {
			return nil, fmt.Errorf("unmarshal ticket prices: %w", err)
		}
		concerts = append(concerts, c)
	}
	return concerts, rows.Err()
}

// Update modifies a concert's metadata and tier prices. Seat counts
// are deliberately not touched here: total_seats is immutable after
// creation and available_seats belongs to the seat ledger.
func (r *ConcertRepo) Update(ctx context.Context, c *model.Concert) error {
	prices, err := json.Marshal(c.TicketPrices)
	if err != nil {
		return fmt.Errorf("marshal ticket prices: %w", err)
	}
	const upd = `UPDATE concerts SET name = ?, artist = ?, venue = ?, starts_at = ?, genre = ?, ticket_prices = ?
	             WHERE id = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, upd,
		c.Name, c.Artist, c.Venue, c.StartsAt.UTC(), c.Genre, prices, c.ID)
	if err != nil {
		return fmt.Errorf("update concert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !r.exists(ctx, c.ID) {
			return ErrConcertNotFound
		}
	}
	return r.scanByID(ctx, c.ID, c)
}

// Delete removes a concert only when no confirmed booking still
// references it; cancelled and refunded bookings do not block the
// delete. Returns ErrConflict when blocked.
func (r *ConcertRepo) Delete(ctx context.Context, id uint64) error {
	const del = `DELETE FROM concerts
	             WHERE id = ?
	               AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.concert_id = ? AND b.status = 'confirmed')`
	res, err := q(ctx, r.db).ExecContext(ctx, del, id, id)
	if err != nil {
		return fmt.Errorf("delete concert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if r.exists(ctx, id) {
			return ErrConflict
		}
		return ErrConcertNotFound
	}
	return nil
}

// ReserveSeats atomically decrements available_seats by qty, but only
// when at least qty seats remain. The guard and the decrement are one
// statement; there is no read-then-write gap for a concurrent reserve
// to exploit. Zero affected rows means the concert is missing or the
// capacity check failed, and nothing was changed either way.
func (r *ConcertRepo) ReserveSeats(ctx context.Context, id uint64, qty int) error {
	const upd = `UPDATE concerts SET available_seats = available_seats - ?
	             WHERE id = ? AND available_seats >= ?`
	res, err := q(ctx, r.db).ExecContext(ctx, upd, qty, id, qty)
	if err != nil {
		return fmt.Errorf("reserve seats: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !r.exists(ctx, id) {
			return ErrConcertNotFound
		}
		return ErrInsufficientCapacity
	}
	return nil
}

// ReleaseSeats credits qty seats back to the pool. The guard keeps
// available_seats from ever exceeding total_seats, which would mean a
// booking's seats were credited more than once.
func (r *ConcertRepo) ReleaseSeats(ctx context.Context, id uint64, qty int) error {
	const upd = `UPDATE concerts SET available_seats = available_seats + ?
	             WHERE id = ? AND available_seats + ? <= total_seats`
	res, err := q(ctx, r.db).ExecContext(ctx, upd, qty, id, qty)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !r.exists(ctx, id) {
			return ErrConcertNotFound
		}
		return ErrConflict
	}
	return nil
}

func (r *ConcertRepo) exists(ctx context.Context, id uint64) bool {
	var one int
	err := q(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM concerts WHERE id = ?`, id).Scan(&one)
	return err == nil
}
