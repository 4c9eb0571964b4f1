package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

// fakeStore is an in-memory implementation of the ledger's store
// interfaces.  WithTx serializes callers with a mutex, which gives
// the same effective guarantees as the database's conditional updates.
type fakeStore struct {
	mu        sync.Mutex
	concerts  map[uint64]*model.Concert
	customers map[string]*model.Customer
	bookings  map[uint64]*model.Booking
	nextID    uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		concerts:  make(map[uint64]*model.Concert),
		customers: make(map[string]*model.Customer),
		bookings:  make(map[uint64]*model.Booking),
		nextID:    1,
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeStore) GetByID(ctx context.Context, id uint64) (*model.Concert, error) {
	c, ok := f.concerts[id]
	if !ok {
		return nil, repository.ErrConcertNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ReserveSeats(ctx context.Context, id uint64, qty int) error {
	c, ok := f.concerts[id]
	if !ok {
		return repository.ErrConcertNotFound
	}
	if c.AvailableSeats < qty {
		return repository.ErrInsufficientCapacity
	}
	c.AvailableSeats -= qty
	return nil
}

func (f *fakeStore) ReleaseSeats(ctx context.Context, id uint64, qty int) error {
	c, ok := f.concerts[id]
	if !ok {
		return repository.ErrConcertNotFound
	}
	if c.AvailableSeats+qty > c.TotalSeats {
		return repository.ErrConflict
	}
	c.AvailableSeats += qty
	return nil
}

func (f *fakeStore) UpsertByEmail(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	if existing, ok := f.customers[c.Email]; ok {
		cp := *existing
		return &cp, nil
	}
	c.ID = f.nextID
	f.nextID++
	f.customers[c.Email] = c
	cp := *c
	return &cp, nil
}

func (f *fakeStore) Create(ctx context.Context, b *model.Booking) error {
	b.ID = f.nextID
	f.nextID++
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) bookingGet(id uint64) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != from {
		return repository.ErrAlreadyCancelled
	}
	b.Status = to
	return nil
}

func (f *fakeStore) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByConcert(ctx context.Context, concertID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		if b.ConcertID == concertID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// bookingStore adapts fakeStore to the BookingStore interface, since
// ConcertStore already claims the GetByID method name on the fake.
type bookingStore struct{ f *fakeStore }

func (s bookingStore) Create(ctx context.Context, b *model.Booking) error { return s.f.Create(ctx, b) }
func (s bookingStore) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.f.bookingGet(id)
}
func (s bookingStore) ListByCustomer(ctx context.Context, id uint64) ([]model.Booking, error) {
	return s.f.ListByCustomer(ctx, id)
}
func (s bookingStore) ListByConcert(ctx context.Context, id uint64) ([]model.Booking, error) {
	return s.f.ListByConcert(ctx, id)
}
func (s bookingStore) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	return s.f.UpdateStatus(ctx, id, from, to)
}

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(f *fakeStore) *Service {
	return NewService(f, f, bookingStore{f}, f, clock.NewFixed(testTime))
}

func addConcert(f *fakeStore, seats int, prices map[string]int64) *model.Concert {
	c := &model.Concert{
		ID:             f.nextID,
		Name:           "Rock Festival 2024",
		Artist:         "The Rolling Stones",
		Venue:          "Madison Square Garden",
		Genre:          "Rock",
		TicketPrices:   prices,
		TotalSeats:     seats,
		AvailableSeats: seats,
	}
	f.nextID++
	f.concerts[c.ID] = c
	return c
}

func validInput(concertID uint64, tier string, qty int) ReserveInput {
	return ReserveInput{
		ConcertID: concertID,
		Tier:      tier,
		Quantity:  qty,
		Customer: CustomerInfo{
			Name:  "John Doe",
			Email: "john.doe@email.com",
			Phone: "+1-555-0101",
		},
	}
}

func TestReserveDecrementsSeatsAndPricesBooking(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 50, map[string]int64{"VIP": 25000, "Regular": 12000})
	svc := newTestService(f)

	booking, err := svc.Reserve(context.Background(), validInput(c.ID, "VIP", 2))
	require.NoError(t, err)

	assert.Equal(t, model.BookingConfirmed, booking.Status)
	assert.Equal(t, int64(25000), booking.UnitPriceCents)
	assert.Equal(t, int64(50000), booking.TotalAmountCents)
	assert.Equal(t, testTime, booking.BookingDate)
	assert.Equal(t, 48, f.concerts[c.ID].AvailableSeats)

	customer, err := f.UpsertByEmail(context.Background(), &model.Customer{Email: "john.doe@email.com"})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, booking.CustomerID)
}

func TestReserveInsufficientCapacityLeavesPoolUntouched(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 30, map[string]int64{"Regular": 12000})
	svc := newTestService(f)

	_, err := svc.Reserve(context.Background(), validInput(c.ID, "Regular", 80))
	assert.ErrorIs(t, err, repository.ErrInsufficientCapacity)
	assert.Equal(t, 30, f.concerts[c.ID].AvailableSeats)
	assert.Empty(t, f.bookings)
}

func TestReserveValidation(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 10, map[string]int64{"Regular": 12000})
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, validInput(c.ID, "Regular", 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(ctx, validInput(c.ID, "Regular", -3))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	in := validInput(c.ID, "Regular", 1)
	in.Customer.Email = "not-an-email"
	_, err = svc.Reserve(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Reserve(ctx, validInput(c.ID, "Platinum", 1))
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = svc.Reserve(ctx, validInput(999, "Regular", 1))
	assert.ErrorIs(t, err, repository.ErrConcertNotFound)

	assert.Equal(t, 10, f.concerts[c.ID].AvailableSeats)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 50, map[string]int64{"Regular": 12000})
	svc := newTestService(f)

	const attempts = 60
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), validInput(c.ID, "Regular", 1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrInsufficientCapacity):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 50, succeeded)
	assert.Equal(t, 10, rejected)
	assert.Equal(t, 0, f.concerts[c.ID].AvailableSeats)
}

func TestReserveSequenceAgainstFixedCapacity(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 100, map[string]int64{"Regular": 12000})
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, validInput(c.ID, "Regular", 30))
	require.NoError(t, err)
	assert.Equal(t, 70, f.concerts[c.ID].AvailableSeats)

	_, err = svc.Reserve(ctx, validInput(c.ID, "Regular", 80))
	assert.ErrorIs(t, err, repository.ErrInsufficientCapacity)
	assert.Equal(t, 70, f.concerts[c.ID].AvailableSeats)

	// Seats held always equal the confirmed booking quantities.
	held := 0
	for _, b := range f.bookings {
		if b.Status == model.BookingConfirmed {
			held += b.Quantity
		}
	}
	assert.Equal(t, c.TotalSeats-f.concerts[c.ID].AvailableSeats, held)
}

func TestCancelCreditsSeatsExactlyOnce(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 50, map[string]int64{"VIP": 25000})
	svc := newTestService(f)
	ctx := context.Background()

	booking, err := svc.Reserve(ctx, validInput(c.ID, "VIP", 5))
	require.NoError(t, err)
	require.Equal(t, 45, f.concerts[c.ID].AvailableSeats)

	cancelled, err := svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, 50, f.concerts[c.ID].AvailableSeats)

	// Second cancel must not credit the seats again.
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	assert.Equal(t, 50, f.concerts[c.ID].AvailableSeats)
}

func TestRefundIsTerminal(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 20, map[string]int64{"VIP": 25000})
	svc := newTestService(f)
	ctx := context.Background()

	booking, err := svc.Reserve(ctx, validInput(c.ID, "VIP", 3))
	require.NoError(t, err)

	refunded, err := svc.Refund(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingRefunded, refunded.Status)
	assert.Equal(t, 20, f.concerts[c.ID].AvailableSeats)

	// A refunded booking cannot be cancelled on top.
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
}

func TestCancelOrphanedBookingStillSettles(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 10, map[string]int64{"Regular": 12000})
	svc := newTestService(f)
	ctx := context.Background()

	booking, err := svc.Reserve(ctx, validInput(c.ID, "Regular", 2))
	require.NoError(t, err)

	// Concert removed from the catalog; the booking is now orphaned
	// and there is no seat pool left to credit.
	delete(f.concerts, c.ID)

	cancelled, err := svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
}

func TestCancelUnknownBooking(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)

	_, err := svc.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestReserveReusesCustomerByEmail(t *testing.T) {
	f := newFakeStore()
	c := addConcert(f, 50, map[string]int64{"Regular": 12000})
	svc := newTestService(f)
	ctx := context.Background()

	first, err := svc.Reserve(ctx, validInput(c.ID, "Regular", 1))
	require.NoError(t, err)
	second, err := svc.Reserve(ctx, validInput(c.ID, "Regular", 2))
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.Len(t, f.customers, 1)
}
