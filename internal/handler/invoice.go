package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagefront/concert-billing/internal/billing"
	"github.com/stagefront/concert-billing/internal/repository"
)

// InvoiceHandler exposes the billing ledger over HTTP.  The tax rate
// comes from configuration; clients cannot pick their own.
type InvoiceHandler struct {
	Billing *billing.Service
	TaxRate float64
}

// NewInvoiceHandler constructs an InvoiceHandler.  Billing must be
// non-nil; TaxRate must not be negative.
func NewInvoiceHandler(b *billing.Service, taxRate float64) *InvoiceHandler {
	if b == nil {
		panic("nil dependency passed to NewInvoiceHandler")
	}
	if taxRate < 0 {
		panic("negative tax rate passed to NewInvoiceHandler")
	}
	return &InvoiceHandler{Billing: b, TaxRate: taxRate}
}

// Issue handles POST /v1/bookings/:id/invoice.  A second issue for the
// same booking yields 409; issuing against a cancelled or refunded
// booking also yields 409.
func (h *InvoiceHandler) Issue(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	invoice, err := h.Billing.IssueInvoice(c.Request().Context(), id, h.TaxRate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrAlreadyInvoiced):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already invoiced"})
		case errors.Is(err, repository.ErrAlreadyCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not confirmed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, invoice)
}

// GetForBooking handles GET /v1/bookings/:id/invoice.
func (h *InvoiceHandler) GetForBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	invoice, err := h.Billing.GetByBooking(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no invoice for booking"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, invoice)
}

// List handles GET /v1/invoices.
func (h *InvoiceHandler) List(c echo.Context) error {
	invoices, err := h.Billing.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": invoices})
}

// Get handles GET /v1/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	invoice, err := h.Billing.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, invoice)
}

// Pay handles POST /v1/invoices/:id/pay.  Paying an already-paid
// invoice returns 200 with the existing record.
func (h *InvoiceHandler) Pay(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	invoice, err := h.Billing.MarkPaid(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, invoice)
}
