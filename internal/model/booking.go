package model

import "time"

// Booking status values.  A booking is created as confirmed; the only
// transitions out of confirmed are to cancelled or refunded, both of
// which credit the reserved seats back to the concert exactly once.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingRefunded  = "refunded"
)

// Booking records a customer's reservation of Quantity seats of a
// given ticket tier against a concert.  The quantity was deducted
// from the concert's available seats when the booking was created.
//
// Fields:
//  ID               – primary key identifier.
//  ConcertID        – concert the seats were reserved against.
//  CustomerID       – customer who made the booking.
//  Tier             – ticket tier purchased.
//  Quantity         – number of seats.
//  UnitPriceCents   – price per seat at booking time.
//  TotalAmountCents – Quantity * UnitPriceCents.
//  BookingDate      – when the reservation was made.
//  Status           – confirmed, cancelled or refunded.
type Booking struct {
	ID               uint64    `json:"id"`                 // bookings.id
	ConcertID        uint64    `json:"concert_id"`         // bookings.concert_id
	CustomerID       uint64    `json:"customer_id"`        // bookings.customer_id
	Tier             string    `json:"tier"`               // bookings.tier
	Quantity         int       `json:"quantity"`           // bookings.quantity
	UnitPriceCents   int64     `json:"unit_price_cents"`   // bookings.unit_price_cents
	TotalAmountCents int64     `json:"total_amount_cents"` // bookings.total_amount_cents
	BookingDate      time.Time `json:"booking_date"`       // bookings.booking_date
	Status           string    `json:"status"`             // bookings.status
}

// Settled reports whether the booking has left the confirmed state.
// Settled bookings are immutable apart from having reached their
// terminal status, and contribute to no revenue or occupancy figures.
func (b *Booking) Settled() bool {
	return b.Status == BookingCancelled || b.Status == BookingRefunded
}
