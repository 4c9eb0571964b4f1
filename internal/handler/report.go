package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stagefront/concert-billing/internal/analytics"
)

// ReportHandler exposes the analytics reports.  Every endpoint is a
// GET over one consistent snapshot; these routes sit behind the
// response cache when Redis is available.
type ReportHandler struct {
	Analytics *analytics.Service
}

// NewReportHandler constructs a ReportHandler.  Analytics must be
// non-nil.
func NewReportHandler(a *analytics.Service) *ReportHandler {
	if a == nil {
		panic("nil dependency passed to NewReportHandler")
	}
	return &ReportHandler{Analytics: a}
}

// RevenueByConcert handles GET /v1/reports/revenue/concerts.
func (h *ReportHandler) RevenueByConcert(c echo.Context) error {
	rows, err := h.Analytics.RevenueByConcert(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// RevenueByVenue handles GET /v1/reports/revenue/venues.
func (h *ReportHandler) RevenueByVenue(c echo.Context) error {
	rows, err := h.Analytics.RevenueByVenue(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// RevenueByGenre handles GET /v1/reports/revenue/genres.
func (h *ReportHandler) RevenueByGenre(c echo.Context) error {
	rows, err := h.Analytics.RevenueByGenre(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// MonthlyRevenue handles GET /v1/reports/revenue/monthly.
func (h *ReportHandler) MonthlyRevenue(c echo.Context) error {
	rows, err := h.Analytics.MonthlyRevenue(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// TopCustomers handles GET /v1/reports/customers/top.  The optional
// ?limit= query parameter caps the result; it defaults to ten.
func (h *ReportHandler) TopCustomers(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	rows, err := h.Analytics.TopCustomers(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// Occupancy handles GET /v1/reports/occupancy.
func (h *ReportHandler) Occupancy(c echo.Context) error {
	rows, err := h.Analytics.Occupancy(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// BookingStatus handles GET /v1/reports/bookings/status.
func (h *ReportHandler) BookingStatus(c echo.Context) error {
	rows, err := h.Analytics.BookingStatusBreakdown(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// PaymentStatus handles GET /v1/reports/invoices/status.
func (h *ReportHandler) PaymentStatus(c echo.Context) error {
	rows, err := h.Analytics.PaymentStatusBreakdown(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// TierDistribution handles GET /v1/reports/tiers.
func (h *ReportHandler) TierDistribution(c echo.Context) error {
	rows, err := h.Analytics.TicketTierDistribution(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"report": rows})
}

// Summary handles GET /v1/reports/summary.
func (h *ReportHandler) Summary(c echo.Context) error {
	sum, err := h.Analytics.Summary(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, sum)
}
