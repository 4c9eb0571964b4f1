package analytics

import (
	"sort"
	"time"

	"github.com/stagefront/concert-billing/internal/model"
)

// Snapshot is a point-in-time copy of the ledger data the reports run
// over. Every report is a pure function of one snapshot, so all
// figures in a response are mutually consistent.
type Snapshot struct {
	Concerts  []model.Concert
	Customers []model.Customer
	Bookings  []model.Booking
	Invoices  []model.Invoice
}

// Revenue reports only count confirmed bookings. Cancelled and
// refunded rows keep their money fields for audit but contribute
// nothing here.
func revenueEligible(b *model.Booking) bool {
	return b.Status == model.BookingConfirmed
}

// ConcertRevenueRow is one line of the per-concert revenue report.
type ConcertRevenueRow struct {
	ConcertID         uint64 `json:"concert_id"`
	ConcertName       string `json:"concert_name"`
	Artist            string `json:"artist"`
	Venue             string `json:"venue"`
	BookingCount      int    `json:"booking_count"`
	TicketsSold       int    `json:"tickets_sold"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
}

// RevenueByConcert aggregates confirmed booking revenue per concert,
// highest grossing first. Concerts with no confirmed bookings appear
// with zero figures; bookings whose concert was deleted are skipped.
func RevenueByConcert(s *Snapshot) []ConcertRevenueRow {
	byID := make(map[uint64]*ConcertRevenueRow, len(s.Concerts))
	rows := make([]ConcertRevenueRow, 0, len(s.Concerts))
	for _, c := range s.Concerts {
		rows = append(rows, ConcertRevenueRow{
			ConcertID:   c.ID,
			ConcertName: c.Name,
			Artist:      c.Artist,
			Venue:       c.Venue,
		})
	}
	for i := range rows {
		byID[rows[i].ConcertID] = &rows[i]
	}
	for i := range s.Bookings {
		b := &s.Bookings[i]
		if !revenueEligible(b) {
			continue
		}
		row, ok := byID[b.ConcertID]
		if !ok {
			continue
		}
		row.BookingCount++
		row.TicketsSold += b.Quantity
		row.TotalRevenueCents += b.TotalAmountCents
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalRevenueCents != rows[j].TotalRevenueCents {
			return rows[i].TotalRevenueCents > rows[j].TotalRevenueCents
		}
		return rows[i].ConcertID < rows[j].ConcertID
	})
	return rows
}

// GroupRevenueRow is one line of a grouped revenue report (venue or
// genre).  AvgTicketPriceCents is revenue over tickets sold, zero when
// nothing sold.
type GroupRevenueRow struct {
	Group               string `json:"group"`
	ConcertCount        int    `json:"concert_count"`
	BookingCount        int    `json:"booking_count"`
	TicketsSold         int    `json:"tickets_sold"`
	TotalRevenueCents   int64  `json:"total_revenue_cents"`
	AvgTicketPriceCents int64  `json:"avg_ticket_price_cents"`
}

// RevenueByVenue aggregates confirmed booking revenue per venue.
func RevenueByVenue(s *Snapshot) []GroupRevenueRow {
	return revenueByGroup(s, func(c *model.Concert) string { return c.Venue })
}

// RevenueByGenre aggregates confirmed booking revenue per genre.
func RevenueByGenre(s *Snapshot) []GroupRevenueRow {
	return revenueByGroup(s, func(c *model.Concert) string { return c.Genre })
}

func revenueByGroup(s *Snapshot, key func(*model.Concert) string) []GroupRevenueRow {
	groupOf := make(map[uint64]string, len(s.Concerts))
	byGroup := make(map[string]*GroupRevenueRow)
	for i := range s.Concerts {
		c := &s.Concerts[i]
		k := key(c)
		groupOf[c.ID] = k
		row, ok := byGroup[k]
		if !ok {
			row = &GroupRevenueRow{Group: k}
			byGroup[k] = row
		}
		row.ConcertCount++
	}
	for i := range s.Bookings {
		b := &s.Bookings[i]
		if !revenueEligible(b) {
			continue
		}
		k, ok := groupOf[b.ConcertID]
		if !ok {
			continue
		}
		row := byGroup[k]
		row.BookingCount++
		row.TicketsSold += b.Quantity
		row.TotalRevenueCents += b.TotalAmountCents
	}
	rows := make([]GroupRevenueRow, 0, len(byGroup))
	for _, row := range byGroup {
		if row.TicketsSold > 0 {
			row.AvgTicketPriceCents = row.TotalRevenueCents / int64(row.TicketsSold)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalRevenueCents != rows[j].TotalRevenueCents {
			return rows[i].TotalRevenueCents > rows[j].TotalRevenueCents
		}
		return rows[i].Group < rows[j].Group
	})
	return rows
}

// MonthlyRevenueRow is one calendar month of confirmed booking
// revenue.
type MonthlyRevenueRow struct {
	Month             string `json:"month"` // YYYY-MM
	BookingCount      int    `json:"booking_count"`
	TicketsSold       int    `json:"tickets_sold"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
}

// MonthlyRevenue buckets confirmed bookings by the calendar month of
// their booking date, oldest month first. Months with no bookings do
// not appear.
func MonthlyRevenue(s *Snapshot) []MonthlyRevenueRow {
	byMonth := make(map[string]*MonthlyRevenueRow)
	for i := range s.Bookings {
		b := &s.Bookings[i]
		if !revenueEligible(b) {
			continue
		}
		m := b.BookingDate.UTC().Format("2006-01")
		row, ok := byMonth[m]
		if !ok {
			row = &MonthlyRevenueRow{Month: m}
			byMonth[m] = row
		}
		row.BookingCount++
		row.TicketsSold += b.Quantity
		row.TotalRevenueCents += b.TotalAmountCents
	}
	rows := make([]MonthlyRevenueRow, 0, len(byMonth))
	for _, row := range byMonth {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// TopCustomerRow is one line of the top-spenders report.
type TopCustomerRow struct {
	CustomerID      uint64 `json:"customer_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	BookingCount    int    `json:"booking_count"`
	TicketsBought   int    `json:"tickets_bought"`
	TotalSpentCents int64  `json:"total_spent_cents"`
}

// DefaultTopCustomers is the limit used when a caller asks for zero
// or fewer rows.
const DefaultTopCustomers = 10

// TopCustomers ranks customers by confirmed spend, highest first.
// Customers with no confirmed bookings are omitted.
func TopCustomers(s *Snapshot, limit int) []TopCustomerRow {
	if limit <= 0 {
		limit = DefaultTopCustomers
	}
	byID := make(map[uint64]*TopCustomerRow, len(s.Customers))
	for i := range s.Customers {
		c := &s.Customers[i]
		byID[c.ID] = &TopCustomerRow{CustomerID: c.ID, Name: c.Name, Email: c.Email}
	}
	for i := range s.Bookings {
		b := &s.Bookings[i]
		if !revenueEligible(b) {
			continue
		}
		row, ok := byID[b.CustomerID]
		if !ok {
			continue
		}
		row.BookingCount++
		row.TicketsBought += b.Quantity
		row.TotalSpentCents += b.TotalAmountCents
	}
	rows := make([]TopCustomerRow, 0, len(byID))
	for _, row := range byID {
		if row.BookingCount == 0 {
			continue
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalSpentCents != rows[j].TotalSpentCents {
			return rows[i].TotalSpentCents > rows[j].TotalSpentCents
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// OccupancyRow is one line of the seat occupancy report.
type OccupancyRow struct {
	ConcertID      uint64  `json:"concert_id"`
	ConcertName    string  `json:"concert_name"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
	SeatsSold      int     `json:"seats_sold"`
	OccupancyRate  float64 `json:"occupancy_rate"` // percent
}

// Occupancy reports how full each concert is, fullest first. Seats
// sold is derived from the inventory counters, not from bookings, so
// it agrees with what Reserve and Cancel actually did. A concert with
// zero total seats reports 0% rather than dividing by zero.
func Occupancy(s *Snapshot) []OccupancyRow {
	rows := make([]OccupancyRow, 0, len(s.Concerts))
	for i := range s.Concerts {
		c := &s.Concerts[i]
		row := OccupancyRow{
			ConcertID:      c.ID,
			ConcertName:    c.Name,
			TotalSeats:     c.TotalSeats,
			AvailableSeats: c.AvailableSeats,
			SeatsSold:      c.TotalSeats - c.AvailableSeats,
		}
		if c.TotalSeats > 0 {
			row.OccupancyRate = float64(row.SeatsSold) / float64(c.TotalSeats) * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OccupancyRate != rows[j].OccupancyRate {
			return rows[i].OccupancyRate > rows[j].OccupancyRate
		}
		return rows[i].ConcertID < rows[j].ConcertID
	})
	return rows
}

// StatusCountRow is one line of a status breakdown.
type StatusCountRow struct {
	Status           string `json:"status"`
	Count            int    `json:"count"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	AvgAmountCents   int64  `json:"avg_amount_cents"`
}

// BookingStatusBreakdown counts bookings per status. All statuses are
// included here; this is the one report where cancelled and refunded
// money is visible.
func BookingStatusBreakdown(s *Snapshot) []StatusCountRow {
	byStatus := make(map[string]*StatusCountRow)
	for i := range s.Bookings {
		b := &s.Bookings[i]
		row, ok := byStatus[b.Status]
		if !ok {
			row = &StatusCountRow{Status: b.Status}
			byStatus[b.Status] = row
		}
		row.Count++
		row.TotalAmountCents += b.TotalAmountCents
	}
	return sortStatusRows(byStatus)
}

// PaymentStatusBreakdown counts invoices per payment status.
func PaymentStatusBreakdown(s *Snapshot) []StatusCountRow {
	byStatus := make(map[string]*StatusCountRow)
	for i := range s.Invoices {
		inv := &s.Invoices[i]
		row, ok := byStatus[inv.PaymentStatus]
		if !ok {
			row = &StatusCountRow{Status: inv.PaymentStatus}
			byStatus[inv.PaymentStatus] = row
		}
		row.Count++
		row.TotalAmountCents += inv.TotalCents
	}
	return sortStatusRows(byStatus)
}

func sortStatusRows(byStatus map[string]*StatusCountRow) []StatusCountRow {
	rows := make([]StatusCountRow, 0, len(byStatus))
	for _, row := range byStatus {
		if row.Count > 0 {
			row.AvgAmountCents = row.TotalAmountCents / int64(row.Count)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Status < rows[j].Status })
	return rows
}

// TierRow is one line of the ticket tier distribution.
type TierRow struct {
	Tier              string `json:"tier"`
	BookingCount      int    `json:"booking_count"`
	TicketsSold       int    `json:"tickets_sold"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
	AvgUnitPriceCents int64  `json:"avg_unit_price_cents"`
}

// TicketTierDistribution aggregates confirmed bookings per ticket
// tier, highest grossing tier first.
func TicketTierDistribution(s *Snapshot) []TierRow {
	byTier := make(map[string]*TierRow)
	for i := range s.Bookings {
		b := &s.Bookings[i]
		if !revenueEligible(b) {
			continue
		}
		row, ok := byTier[b.Tier]
		if !ok {
			row = &TierRow{Tier: b.Tier}
			byTier[b.Tier] = row
		}
		row.BookingCount++
		row.TicketsSold += b.Quantity
		row.TotalRevenueCents += b.TotalAmountCents
	}
	rows := make([]TierRow, 0, len(byTier))
	for _, row := range byTier {
		if row.TicketsSold > 0 {
			row.AvgUnitPriceCents = row.TotalRevenueCents / int64(row.TicketsSold)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalRevenueCents != rows[j].TotalRevenueCents {
			return rows[i].TotalRevenueCents > rows[j].TotalRevenueCents
		}
		return rows[i].Tier < rows[j].Tier
	})
	return rows
}

// SummaryReport is the dashboard rollup of every ledger.
type SummaryReport struct {
	TotalConcerts     int   `json:"total_concerts"`
	UpcomingConcerts  int   `json:"upcoming_concerts"`
	TotalCustomers    int   `json:"total_customers"`
	TotalBookings     int   `json:"total_bookings"`
	ConfirmedBookings int   `json:"confirmed_bookings"`
	TicketsSold       int   `json:"tickets_sold"`
	TotalRevenueCents int64 `json:"total_revenue_cents"`
	InvoicesIssued    int   `json:"invoices_issued"`
	InvoicesPaid      int   `json:"invoices_paid"`
	OutstandingCents  int64 `json:"outstanding_cents"`
}

// Summary computes the dashboard totals as of now. Revenue and tickets
// sold count confirmed bookings only; outstanding is the invoiced
// total not yet paid.
func Summary(s *Snapshot, now time.Time) SummaryReport {
	sum := SummaryReport{
		TotalConcerts:  len(s.Concerts),
		TotalCustomers: len(s.Customers),
		TotalBookings:  len(s.Bookings),
	}
	for i := range s.Concerts {
		if s.Concerts[i].StartsAt.After(now) {
			sum.UpcomingConcerts++
		}
	}
	for i := range s.Bookings {
		b := &s.Bookings[i]
		if !revenueEligible(b) {
			continue
		}
		sum.ConfirmedBookings++
		sum.TicketsSold += b.Quantity
		sum.TotalRevenueCents += b.TotalAmountCents
	}
	for i := range s.Invoices {
		inv := &s.Invoices[i]
		sum.InvoicesIssued++
		if inv.PaymentStatus == model.InvoicePaid {
			sum.InvoicesPaid++
		} else {
			sum.OutstandingCents += inv.TotalCents
		}
	}
	return sum
}
