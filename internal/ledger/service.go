// Package ledger implements the seat inventory ledger: creating,
// cancelling and refunding bookings against a concert's bounded seat
// pool. Capacity is enforced by the store's conditional updates, so
// the ledger holds no locks of its own and any number of concurrent
// reservations observe a consistent pool.
package ledger

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

// Validation sentinels. These reject a request before any state is
// touched; handlers translate them into HTTP 400 responses.
var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrUnknownTier     = errors.New("unknown ticket tier")
)

// TxRunner runs a function inside a single store transaction. The
// seat decrement and the booking insert commit or roll back together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConcertStore is the slice of the catalog the ledger needs: point
// lookups plus the two atomic seat-count adjustments.
type ConcertStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Concert, error)
	ReserveSeats(ctx context.Context, id uint64, qty int) error
	ReleaseSeats(ctx context.Context, id uint64, qty int) error
}

// CustomerStore resolves booking contact info to a directory record.
type CustomerStore interface {
	UpsertByEmail(ctx context.Context, c *model.Customer) (*model.Customer, error)
}

// BookingStore persists bookings and their status transitions.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error)
	ListByConcert(ctx context.Context, concertID uint64) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to string) error
}

// Service is the seat inventory ledger.
type Service struct {
	concerts  ConcertStore
	customers CustomerStore
	bookings  BookingStore
	tx        TxRunner
	clk       clock.Clock
}

// NewService constructs the ledger. All dependencies must be non-nil.
func NewService(concerts ConcertStore, customers CustomerStore, bookings BookingStore, tx TxRunner, clk clock.Clock) *Service {
	if concerts == nil || customers == nil || bookings == nil || tx == nil || clk == nil {
		panic("nil dependency passed to ledger.NewService")
	}
	return &Service{concerts: concerts, customers: customers, bookings: bookings, tx: tx, clk: clk}
}

// CustomerInfo is the contact identity attached to a reservation. The
// directory record is found or created by email.
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address *string
}

// ReserveInput describes a purchase request.
type ReserveInput struct {
	ConcertID uint64
	Tier      string
	Quantity  int
	Customer  CustomerInfo
}

// Reserve atomically checks and decrements the concert's available
// seats and creates a confirmed booking for the requested tier. When
// capacity is insufficient it returns repository.ErrInsufficientCapacity
// and no state changes; a failure after the decrement rolls the whole
// transaction back, so a cancelled caller never leaves a partial
// seat adjustment behind.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	email := strings.TrimSpace(in.Customer.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	var booking *model.Booking
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		concert, err := s.concerts.GetByID(ctx, in.ConcertID)
		if err != nil {
			return err
		}
		unitPrice, ok := concert.TicketPrices[in.Tier]
		if !ok {
			return ErrUnknownTier
		}

		customer, err := s.customers.UpsertByEmail(ctx, &model.Customer{
			Name:    in.Customer.Name,
			Email:   email,
			Phone:   in.Customer.Phone,
			Address: in.Customer.Address,
		})
		if err != nil {
			return err
		}

		if err := s.concerts.ReserveSeats(ctx, in.ConcertID, in.Quantity); err != nil {
			return err
		}

		booking = &model.Booking{
			ConcertID:        in.ConcertID,
			CustomerID:       customer.ID,
			Tier:             in.Tier,
			Quantity:         in.Quantity,
			UnitPriceCents:   unitPrice,
			TotalAmountCents: unitPrice * int64(in.Quantity),
			BookingDate:      s.clk.Now(),
			Status:           model.BookingConfirmed,
		}
		return s.bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel moves a confirmed booking to cancelled and credits its seats
// back to the concert. A second cancel returns
// repository.ErrAlreadyCancelled and performs no further seat
// mutation.
func (s *Service) Cancel(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.settle(ctx, bookingID, model.BookingCancelled)
}

// Refund moves a confirmed booking to refunded. Seat handling is
// identical to Cancel; only the terminal status differs.
func (s *Service) Refund(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.settle(ctx, bookingID, model.BookingRefunded)
}

func (s *Service) settle(ctx context.Context, bookingID uint64, to string) (*model.Booking, error) {
	var booking *model.Booking
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Settled() {
			return repository.ErrAlreadyCancelled
		}
		// The conditional transition is the idempotence guard: of two
		// racing cancels only one flips the row, and only that one
		// credits the seats.
		if err := s.bookings.UpdateStatus(ctx, bookingID, model.BookingConfirmed, to); err != nil {
			return err
		}
		if err := s.concerts.ReleaseSeats(ctx, b.ConcertID, b.Quantity); err != nil {
			// A deleted concert leaves the booking orphaned; there is
			// no pool left to credit and the cancellation still stands.
			if !errors.Is(err, repository.ErrConcertNotFound) {
				return err
			}
		}
		b.Status = to
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Get returns a booking by ID.
func (s *Service) Get(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

// ListByCustomer returns all bookings made by a customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error) {
	return s.bookings.ListByCustomer(ctx, customerID)
}

// ListByConcert returns all bookings against a concert.
func (s *Service) ListByConcert(ctx context.Context, concertID uint64) ([]model.Booking, error) {
	return s.bookings.ListByConcert(ctx, concertID)
}
