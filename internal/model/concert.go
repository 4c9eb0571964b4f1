package model

import "time"

// Concert represents a schedulable event with a finite seat pool.
// Ticket prices are kept per tier (e.g. "VIP", "Regular") in cents.
// TotalSeats is fixed at creation time; AvailableSeats is only ever
// mutated by the seat ledger's reserve and release operations and
// always satisfies 0 <= AvailableSeats <= TotalSeats.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – name of the event.
//  Artist         – performing artist or act.
//  Venue          – where the concert takes place.
//  StartsAt       – when the concert begins (UTC).
//  Genre          – musical genre used for grouping in reports.
//  TicketPrices   – price in cents per ticket tier.
//  TotalSeats     – capacity of the venue for this concert.
//  AvailableSeats – seats not currently held by a confirmed booking.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Concert struct {
	ID             uint64           `json:"id"`              // concerts.id
	Name           string           `json:"name"`            // concerts.name
	Artist         string           `json:"artist"`          // concerts.artist
	Venue          string           `json:"venue"`           // concerts.venue
	StartsAt       time.Time        `json:"starts_at"`       // concerts.starts_at
	Genre          string           `json:"genre"`           // concerts.genre
	TicketPrices   map[string]int64 `json:"ticket_prices"`   // concerts.ticket_prices (JSON, tier -> cents)
	TotalSeats     int              `json:"total_seats"`     // concerts.total_seats
	AvailableSeats int              `json:"available_seats"` // concerts.available_seats
	CreatedAt      time.Time        `json:"created_at"`      // concerts.created_at
	UpdatedAt      time.Time        `json:"updated_at"`      // concerts.updated_at
}
