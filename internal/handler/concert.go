package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagefront/concert-billing/internal/ledger"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

// ConcertHandler exposes the concert catalog over HTTP.  Catalog
// writes never touch seat counters directly; seat movement happens
// only through the booking endpoints.
type ConcertHandler struct {
	Concerts *repository.ConcertRepo
	Ledger   *ledger.Service
}

// NewConcertHandler constructs a ConcertHandler.  All dependencies
// must be non-nil.
func NewConcertHandler(concerts *repository.ConcertRepo, ldg *ledger.Service) *ConcertHandler {
	if concerts == nil || ldg == nil {
		panic("nil dependency passed to NewConcertHandler")
	}
	return &ConcertHandler{Concerts: concerts, Ledger: ldg}
}

// concertBody is the request payload for creating or updating a
// concert.  Prices are cents per tier; starts_at is RFC 3339.
type concertBody struct {
	Name         string           `json:"name"`
	Artist       string           `json:"artist"`
	Venue        string           `json:"venue"`
	Genre        string           `json:"genre"`
	StartsAt     time.Time        `json:"starts_at"`
	TicketPrices map[string]int64 `json:"ticket_prices"`
	TotalSeats   int              `json:"total_seats"`
}

func (b *concertBody) validate() string {
	if b.Name == "" || b.Artist == "" || b.Venue == "" {
		return "name, artist and venue are required"
	}
	if b.StartsAt.IsZero() {
		return "starts_at is required"
	}
	if b.TotalSeats < 0 {
		return "total_seats must not be negative"
	}
	if len(b.TicketPrices) == 0 {
		return "ticket_prices must list at least one tier"
	}
	for tier, price := range b.TicketPrices {
		if tier == "" {
			return "ticket tier names must not be empty"
		}
		if price < 0 {
			return "ticket prices must not be negative"
		}
	}
	return ""
}

// Create handles POST /v1/concerts.  The new concert starts with all
// seats available.
func (h *ConcertHandler) Create(c echo.Context) error {
	var body concertBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	concert := &model.Concert{
		Name:         body.Name,
		Artist:       body.Artist,
		Venue:        body.Venue,
		Genre:        body.Genre,
		StartsAt:     body.StartsAt.UTC(),
		TicketPrices: body.TicketPrices,
		TotalSeats:   body.TotalSeats,
	}
	if err := h.Concerts.Create(c.Request().Context(), concert); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, concert)
}

// List handles GET /v1/concerts.
func (h *ConcertHandler) List(c echo.Context) error {
	concerts, err := h.Concerts.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"concerts": concerts})
}

// Get handles GET /v1/concerts/:id.
func (h *ConcertHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	concert, err := h.Concerts.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "concert not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, concert)
}

// Update handles PUT /v1/concerts/:id.  Only metadata and prices can
// change; seat counters are owned by the booking flow.
func (h *ConcertHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	var body concertBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	concert := &model.Concert{
		ID:           id,
		Name:         body.Name,
		Artist:       body.Artist,
		Venue:        body.Venue,
		Genre:        body.Genre,
		StartsAt:     body.StartsAt.UTC(),
		TicketPrices: body.TicketPrices,
	}
	if err := h.Concerts.Update(c.Request().Context(), concert); err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "concert not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, concert)
}

// Delete handles DELETE /v1/concerts/:id.  A concert with confirmed
// bookings cannot be removed; cancel or refund those first.
func (h *ConcertHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	if err := h.Concerts.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrConcertNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "concert not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "concert has confirmed bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Bookings handles GET /v1/concerts/:id/bookings.
func (h *ConcertHandler) Bookings(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	if _, err := h.Concerts.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "concert not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookings, err := h.Ledger.ListByConcert(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// parseID parses the :id path parameter shared by all resource
// handlers.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
