// Package repository contains the MySQL data access layer together
// with the sentinel error values shared across repositories. The
// sentinels let the ledger, billing and handler layers distinguish
// failure scenarios with errors.Is instead of inspecting driver
// errors: for example ErrInsufficientCapacity means a reserve lost
// the capacity check, while ErrAlreadyCancelled signals an attempt
// to settle a booking a second time.
package repository

import "errors"

// ErrConcertNotFound indicates that no concert row matched the lookup.
var ErrConcertNotFound = errors.New("concert not found")

// ErrCustomerNotFound indicates that no customer row matched the lookup.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrBookingNotFound indicates that no booking row matched the lookup.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInvoiceNotFound indicates that no invoice row matched the lookup.
var ErrInvoiceNotFound = errors.New("invoice not found")

// ErrInsufficientCapacity is returned when a reservation asks for
// more seats than the concert has available. The conditional update
// that detects this performs no state change.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrAlreadyCancelled is returned when a cancel or refund targets a
// booking that has already left the confirmed state. The guard
// prevents seats from being credited back twice.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrAlreadyInvoiced is returned when a booking already has an
// invoice. Issuing is idempotent up to this error; seats are never
// re-debited by a retry.
var ErrAlreadyInvoiced = errors.New("booking already invoiced")

// ErrEmailTaken is returned when creating a customer with an email
// that another customer already owns. Handlers should translate this
// into an HTTP 409 response.
var ErrEmailTaken = errors.New("email already registered")

// ErrConflict is returned when a delete cannot be performed because
// of dependent records, such as removing a concert that still has
// non-cancelled bookings. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")
