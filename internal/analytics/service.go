// Package analytics computes read-only reports over the ticketing
// ledgers. The service loads one snapshot per request and hands it to
// pure aggregation functions; nothing in this package mutates state.
package analytics

import (
	"context"

	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/model"
)

// ConcertLister, CustomerLister, BookingLister and InvoiceLister are
// the read slices of the repositories the snapshot is built from.
type ConcertLister interface {
	List(ctx context.Context) ([]model.Concert, error)
}

type CustomerLister interface {
	List(ctx context.Context) ([]model.Customer, error)
}

type BookingLister interface {
	ListAll(ctx context.Context) ([]model.Booking, error)
}

type InvoiceLister interface {
	ListAll(ctx context.Context) ([]model.Invoice, error)
}

// Service loads snapshots and runs reports over them.
type Service struct {
	concerts  ConcertLister
	customers CustomerLister
	bookings  BookingLister
	invoices  InvoiceLister
	clk       clock.Clock
}

// NewService constructs the analytics service. All dependencies must
// be non-nil.
func NewService(concerts ConcertLister, customers CustomerLister, bookings BookingLister, invoices InvoiceLister, clk clock.Clock) *Service {
	if concerts == nil || customers == nil || bookings == nil || invoices == nil || clk == nil {
		panic("nil dependency passed to analytics.NewService")
	}
	return &Service{concerts: concerts, customers: customers, bookings: bookings, invoices: invoices, clk: clk}
}

// Load reads all four tables into a snapshot.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	concerts, err := s.concerts.List(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Concerts: concerts, Customers: customers, Bookings: bookings, Invoices: invoices}, nil
}

func (s *Service) RevenueByConcert(ctx context.Context) ([]ConcertRevenueRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return RevenueByConcert(snap), nil
}

func (s *Service) RevenueByVenue(ctx context.Context) ([]GroupRevenueRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return RevenueByVenue(snap), nil
}

func (s *Service) RevenueByGenre(ctx context.Context) ([]GroupRevenueRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return RevenueByGenre(snap), nil
}

func (s *Service) MonthlyRevenue(ctx context.Context) ([]MonthlyRevenueRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return MonthlyRevenue(snap), nil
}

func (s *Service) TopCustomers(ctx context.Context, limit int) ([]TopCustomerRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return TopCustomers(snap, limit), nil
}

func (s *Service) Occupancy(ctx context.Context) ([]OccupancyRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Occupancy(snap), nil
}

func (s *Service) BookingStatusBreakdown(ctx context.Context) ([]StatusCountRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return BookingStatusBreakdown(snap), nil
}

func (s *Service) PaymentStatusBreakdown(ctx context.Context) ([]StatusCountRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return PaymentStatusBreakdown(snap), nil
}

func (s *Service) TicketTierDistribution(ctx context.Context) ([]TierRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return TicketTierDistribution(snap), nil
}

func (s *Service) Summary(ctx context.Context) (SummaryReport, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return SummaryReport{}, err
	}
	return Summary(snap, s.clk.Now()), nil
}
