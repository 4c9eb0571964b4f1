package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagefront/concert-billing/internal/model"
)

func booking(id, concertID, customerID uint64, qty int, total int64, status string, date time.Time) model.Booking {
	return model.Booking{
		ID:               id,
		ConcertID:        concertID,
		CustomerID:       customerID,
		Tier:             "Regular",
		Quantity:         qty,
		TotalAmountCents: total,
		BookingDate:      date,
		Status:           status,
	}
}

var (
	june = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	july = time.Date(2024, 7, 3, 18, 0, 0, 0, time.UTC)
)

func TestRevenueByConcertExcludesSettledBookings(t *testing.T) {
	s := &Snapshot{
		Concerts: []model.Concert{
			{ID: 1, Name: "Rock Festival 2024", Venue: "Madison Square Garden", TotalSeats: 100},
			{ID: 2, Name: "Jazz Night", Venue: "Blue Note", TotalSeats: 50},
		},
		Bookings: []model.Booking{
			booking(1, 1, 1, 1, 10000, model.BookingConfirmed, june),
			booking(2, 1, 2, 2, 20000, model.BookingCancelled, june),
			booking(3, 1, 1, 3, 30000, model.BookingConfirmed, june),
			booking(4, 2, 2, 1, 5000, model.BookingRefunded, june),
		},
	}

	rows := RevenueByConcert(s)
	require.Len(t, rows, 2)

	// Concert 1: only the two confirmed bookings count.
	assert.Equal(t, uint64(1), rows[0].ConcertID)
	assert.Equal(t, int64(40000), rows[0].TotalRevenueCents)
	assert.Equal(t, 4, rows[0].TicketsSold)

	// Concert 2 had only a refunded booking; it still appears, zeroed.
	assert.Equal(t, uint64(2), rows[1].ConcertID)
	assert.Equal(t, int64(0), rows[1].TotalRevenueCents)
	assert.Equal(t, 0, rows[1].TicketsSold)
}

func TestRevenueByConcertSkipsOrphanedBookings(t *testing.T) {
	s := &Snapshot{
		Concerts: []model.Concert{{ID: 1, Name: "Jazz Night"}},
		Bookings: []model.Booking{
			booking(1, 1, 1, 1, 10000, model.BookingConfirmed, june),
			// Concert 99 no longer exists in the catalog.
			booking(2, 99, 1, 1, 99999, model.BookingConfirmed, june),
		},
	}

	rows := RevenueByConcert(s)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10000), rows[0].TotalRevenueCents)

	// The orphaned booking still counts where no concert join is
	// needed.
	sum := Summary(s, june)
	assert.Equal(t, int64(109999), sum.TotalRevenueCents)
}

func TestRevenueByVenueGroupsConcerts(t *testing.T) {
	s := &Snapshot{
		Concerts: []model.Concert{
			{ID: 1, Venue: "Stadium Arena", Genre: "Pop"},
			{ID: 2, Venue: "Stadium Arena", Genre: "Rock"},
			{ID: 3, Venue: "Blue Note", Genre: "Jazz"},
		},
		Bookings: []model.Booking{
			booking(1, 1, 1, 2, 30000, model.BookingConfirmed, june),
			booking(2, 2, 1, 1, 12000, model.BookingConfirmed, june),
			booking(3, 3, 1, 1, 18000, model.BookingConfirmed, june),
		},
	}

	rows := RevenueByVenue(s)
	require.Len(t, rows, 2)
	assert.Equal(t, "Stadium Arena", rows[0].Group)
	assert.Equal(t, 2, rows[0].ConcertCount)
	assert.Equal(t, int64(42000), rows[0].TotalRevenueCents)
	assert.Equal(t, "Blue Note", rows[1].Group)

	genres := RevenueByGenre(s)
	require.Len(t, genres, 3)
	assert.Equal(t, "Pop", genres[0].Group)
}

func TestMonthlyRevenueBucketsAndSorts(t *testing.T) {
	s := &Snapshot{
		Bookings: []model.Booking{
			booking(1, 1, 1, 1, 10000, model.BookingConfirmed, july),
			booking(2, 1, 1, 2, 20000, model.BookingConfirmed, june),
			booking(3, 1, 1, 1, 5000, model.BookingConfirmed, june),
			booking(4, 1, 1, 9, 90000, model.BookingCancelled, july),
		},
	}

	rows := MonthlyRevenue(s)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-06", rows[0].Month)
	assert.Equal(t, int64(25000), rows[0].TotalRevenueCents)
	assert.Equal(t, 2, rows[0].BookingCount)
	assert.Equal(t, "2024-07", rows[1].Month)
	assert.Equal(t, int64(10000), rows[1].TotalRevenueCents)
}

func TestTopCustomersRanksAndLimits(t *testing.T) {
	s := &Snapshot{
		Customers: []model.Customer{
			{ID: 1, Name: "John Doe", Email: "john.doe@email.com"},
			{ID: 2, Name: "Jane Smith", Email: "jane.smith@email.com"},
			{ID: 3, Name: "Bob Johnson", Email: "bob.johnson@email.com"},
			{ID: 4, Name: "Alice Williams", Email: "alice.williams@email.com"},
		},
		Bookings: []model.Booking{
			booking(1, 1, 1, 1, 500, model.BookingConfirmed, june),
			booking(2, 1, 2, 1, 1200, model.BookingConfirmed, june),
			booking(3, 1, 3, 1, 300, model.BookingConfirmed, june),
			booking(4, 1, 4, 1, 9999, model.BookingCancelled, june),
		},
	}

	rows := TopCustomers(s, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane Smith", rows[0].Name)
	assert.Equal(t, int64(1200), rows[0].TotalSpentCents)
	assert.Equal(t, "John Doe", rows[1].Name)

	// Alice's only booking is cancelled, so she is omitted even with
	// no limit pressure.
	all := TopCustomers(s, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "Bob Johnson", all[2].Name)
}

func TestOccupancyHandlesZeroSeats(t *testing.T) {
	s := &Snapshot{
		Concerts: []model.Concert{
			{ID: 1, Name: "Rock Festival 2024", TotalSeats: 1000, AvailableSeats: 750},
			{ID: 2, Name: "Private Session", TotalSeats: 0, AvailableSeats: 0},
		},
	}

	rows := Occupancy(s)
	require.Len(t, rows, 2)
	assert.Equal(t, 250, rows[0].SeatsSold)
	assert.InDelta(t, 25.0, rows[0].OccupancyRate, 1e-9)
	assert.Equal(t, 0, rows[1].SeatsSold)
	assert.Equal(t, 0.0, rows[1].OccupancyRate)
}

func TestStatusBreakdowns(t *testing.T) {
	paidAt := june
	s := &Snapshot{
		Bookings: []model.Booking{
			booking(1, 1, 1, 1, 10000, model.BookingConfirmed, june),
			booking(2, 1, 1, 1, 20000, model.BookingConfirmed, june),
			booking(3, 1, 1, 1, 5000, model.BookingCancelled, june),
		},
		Invoices: []model.Invoice{
			{ID: 1, BookingID: 1, TotalCents: 10800, PaymentStatus: model.InvoicePaid, PaidAt: &paidAt},
			{ID: 2, BookingID: 2, TotalCents: 21600, PaymentStatus: model.InvoiceUnpaid},
		},
	}

	bookings := BookingStatusBreakdown(s)
	require.Len(t, bookings, 2)
	assert.Equal(t, model.BookingCancelled, bookings[0].Status)
	assert.Equal(t, 1, bookings[0].Count)
	assert.Equal(t, model.BookingConfirmed, bookings[1].Status)
	assert.Equal(t, int64(30000), bookings[1].TotalAmountCents)

	payments := PaymentStatusBreakdown(s)
	require.Len(t, payments, 2)
	assert.Equal(t, model.InvoicePaid, payments[0].Status)
	assert.Equal(t, model.InvoiceUnpaid, payments[1].Status)
	assert.Equal(t, int64(21600), payments[1].TotalAmountCents)
}

func TestTicketTierDistribution(t *testing.T) {
	b1 := booking(1, 1, 1, 2, 50000, model.BookingConfirmed, june)
	b1.Tier = "VIP"
	b2 := booking(2, 1, 1, 3, 36000, model.BookingConfirmed, june)
	b2.Tier = "Regular"
	b3 := booking(3, 1, 1, 1, 25000, model.BookingConfirmed, june)
	b3.Tier = "VIP"
	b4 := booking(4, 1, 1, 5, 99999, model.BookingCancelled, june)
	b4.Tier = "VIP"

	s := &Snapshot{Bookings: []model.Booking{b1, b2, b3, b4}}

	rows := TicketTierDistribution(s)
	require.Len(t, rows, 2)
	assert.Equal(t, "VIP", rows[0].Tier)
	assert.Equal(t, 3, rows[0].TicketsSold)
	assert.Equal(t, int64(75000), rows[0].TotalRevenueCents)
	assert.Equal(t, "Regular", rows[1].Tier)
}

func TestSummaryTotals(t *testing.T) {
	paidAt := june
	s := &Snapshot{
		Concerts: []model.Concert{
			{ID: 1, StartsAt: june.AddDate(0, 2, 0)},
			{ID: 2, StartsAt: june.AddDate(0, -1, 0)},
		},
		Customers: []model.Customer{{ID: 1}, {ID: 2}, {ID: 3}},
		Bookings: []model.Booking{
			booking(1, 1, 1, 2, 50000, model.BookingConfirmed, june),
			booking(2, 1, 2, 1, 12000, model.BookingConfirmed, june),
			booking(3, 2, 3, 4, 48000, model.BookingCancelled, june),
		},
		Invoices: []model.Invoice{
			{ID: 1, BookingID: 1, TotalCents: 54000, PaymentStatus: model.InvoicePaid, PaidAt: &paidAt},
			{ID: 2, BookingID: 2, TotalCents: 12960, PaymentStatus: model.InvoiceUnpaid},
		},
	}

	sum := Summary(s, june)
	assert.Equal(t, 2, sum.TotalConcerts)
	assert.Equal(t, 1, sum.UpcomingConcerts)
	assert.Equal(t, 3, sum.TotalCustomers)
	assert.Equal(t, 3, sum.TotalBookings)
	assert.Equal(t, 2, sum.ConfirmedBookings)
	assert.Equal(t, 3, sum.TicketsSold)
	assert.Equal(t, int64(62000), sum.TotalRevenueCents)
	assert.Equal(t, 2, sum.InvoicesIssued)
	assert.Equal(t, 1, sum.InvoicesPaid)
	assert.Equal(t, int64(12960), sum.OutstandingCents)
}
