// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a reservation is successfully confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID        uint64 `json:"booking_id"`
    CustomerID       uint64 `json:"customer_id"`
    CustomerEmail    string `json:"customer_email"`
    ConcertID        uint64 `json:"concert_id"`
    ConcertName      string `json:"concert_name"`
    Artist           string `json:"artist"`
    Venue            string `json:"venue"`
    StartsAt         string `json:"starts_at"`
    Tier             string `json:"tier"`
    Quantity         int    `json:"quantity"`
    TotalAmountCents int64  `json:"total_amount_cents"`
    ConfirmedAt      string `json:"confirmed_at"`
}
