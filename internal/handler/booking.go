package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagefront/concert-billing/internal/ledger"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/queue"
	"github.com/stagefront/concert-billing/internal/repository"
	queuepublisher "github.com/stagefront/concert-billing/internal/service"
)

// BookingHandler exposes the seat inventory ledger over HTTP.  The
// reserve, cancel and refund endpoints are the only writers of seat
// counters in the whole API.
type BookingHandler struct {
	Ledger   *ledger.Service
	Concerts *repository.ConcertRepo // read-only, used to enrich published events
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// must be non-nil.
func NewBookingHandler(ldg *ledger.Service, concerts *repository.ConcertRepo) *BookingHandler {
	if ldg == nil || concerts == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: ldg, Concerts: concerts}
}

// reserveBody is the request payload for POST /v1/bookings.  Customer
// contact details are inline; the directory record is found or created
// by email.
type reserveBody struct {
	ConcertID uint64 `json:"concert_id"`
	Tier      string `json:"tier"`
	Quantity  int    `json:"quantity"`
	Customer  struct {
		Name    string  `json:"name"`
		Email   string  `json:"email"`
		Phone   string  `json:"phone"`
		Address *string `json:"address"`
	} `json:"customer"`
}

// Reserve handles POST /v1/bookings.  On success the booking is
// confirmed, the seats are deducted, and a booking.confirmed event is
// published for downstream consumers.  Insufficient capacity yields
// 409 and leaves the seat pool unchanged.
func (h *BookingHandler) Reserve(c echo.Context) error {
	var body reserveBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ConcertID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "concert_id is required"})
	}
	if body.Tier == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier is required"})
	}

	booking, err := h.Ledger.Reserve(c.Request().Context(), ledger.ReserveInput{
		ConcertID: body.ConcertID,
		Tier:      body.Tier,
		Quantity:  body.Quantity,
		Customer: ledger.CustomerInfo{
			Name:    body.Customer.Name,
			Email:   body.Customer.Email,
			Phone:   body.Customer.Phone,
			Address: body.Customer.Address,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidQuantity),
			errors.Is(err, ledger.ErrInvalidEmail),
			errors.Is(err, ledger.ErrUnknownTier):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrConcertNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "concert not found"})
		case errors.Is(err, repository.ErrInsufficientCapacity):
			return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Publish outside the request path; a broker outage must not fail
	// a booking that is already committed.
	go h.publishConfirmed(booking, body.Customer.Email)

	return c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) publishConfirmed(b *model.Booking, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev := queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		CustomerID:       b.CustomerID,
		CustomerEmail:    email,
		ConcertID:        b.ConcertID,
		Tier:             b.Tier,
		Quantity:         b.Quantity,
		TotalAmountCents: b.TotalAmountCents,
		ConfirmedAt:      b.BookingDate.UTC().Format(time.RFC3339),
	}
	if concert, err := h.Concerts.GetByID(ctx, b.ConcertID); err == nil {
		ev.ConcertName = concert.Name
		ev.Artist = concert.Artist
		ev.Venue = concert.Venue
		ev.StartsAt = concert.StartsAt.UTC().Format(time.RFC3339)
	}
	_ = queuepublisher.PublishBookingConfirmed(ctx, ev)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Ledger.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, booking)
}

// Cancel handles DELETE /v1/bookings/:id.  Cancelling twice yields
// 409 and no second seat credit.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.settle(c, h.Ledger.Cancel)
}

// Refund handles POST /v1/bookings/:id/refund.
func (h *BookingHandler) Refund(c echo.Context) error {
	return h.settle(c, h.Ledger.Refund)
}

func (h *BookingHandler) settle(c echo.Context, op func(context.Context, uint64) (*model.Booking, error)) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := op(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrAlreadyCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already settled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, booking)
}
