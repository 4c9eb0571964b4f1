package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagefront/concert-billing/internal/ledger"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

// CustomerHandler exposes the customer directory over HTTP.  Email is
// the identity key: it must be unique and cannot be changed through
// Update.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
	Ledger    *ledger.Service
}

// NewCustomerHandler constructs a CustomerHandler.  All dependencies
// must be non-nil.
func NewCustomerHandler(customers *repository.CustomerRepo, ldg *ledger.Service) *CustomerHandler {
	if customers == nil || ldg == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{Customers: customers, Ledger: ldg}
}

type customerBody struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address *string `json:"address"`
}

// Create handles POST /v1/customers.  A duplicate email yields 409.
func (h *CustomerHandler) Create(c echo.Context) error {
	var body customerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	email := strings.TrimSpace(body.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	customer := &model.Customer{Name: body.Name, Email: email, Phone: body.Phone, Address: body.Address}
	if err := h.Customers.Create(c.Request().Context(), customer); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, customer)
}

// List handles GET /v1/customers.
func (h *CustomerHandler) List(c echo.Context) error {
	customers, err := h.Customers.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": customers})
}

// Get handles GET /v1/customers/:id.
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	customer, err := h.Customers.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, customer)
}

// Update handles PUT /v1/customers/:id.  Name, phone and address only;
// the email in the body, if any, is ignored.
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	var body customerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	customer := &model.Customer{ID: id, Name: body.Name, Phone: body.Phone, Address: body.Address}
	if err := h.Customers.Update(c.Request().Context(), customer); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, customer)
}

// Delete handles DELETE /v1/customers/:id.
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	if err := h.Customers.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Bookings handles GET /v1/customers/:id/bookings.
func (h *CustomerHandler) Bookings(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	if _, err := h.Customers.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookings, err := h.Ledger.ListByCustomer(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
