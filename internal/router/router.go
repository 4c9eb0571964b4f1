package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/stagefront/concert-billing/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers infrastructure routes on the provided Echo
// instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterCatalog registers the concert catalog and customer directory
// routes under /v1.
func RegisterCatalog(e *echo.Echo, concerts *handler.ConcertHandler, customers *handler.CustomerHandler) {
	e.POST("/v1/concerts", concerts.Create)
	e.GET("/v1/concerts", concerts.List)
	e.GET("/v1/concerts/:id", concerts.Get)
	e.PUT("/v1/concerts/:id", concerts.Update)
	e.DELETE("/v1/concerts/:id", concerts.Delete)
	e.GET("/v1/concerts/:id/bookings", concerts.Bookings)

	e.POST("/v1/customers", customers.Create)
	e.GET("/v1/customers", customers.List)
	e.GET("/v1/customers/:id", customers.Get)
	e.PUT("/v1/customers/:id", customers.Update)
	e.DELETE("/v1/customers/:id", customers.Delete)
	e.GET("/v1/customers/:id/bookings", customers.Bookings)
}

// RegisterBookings registers the seat inventory routes.  reserveLimit,
// when non-nil, rate limits booking creation; it is not applied to
// reads or settlements.
func RegisterBookings(e *echo.Echo, bookings *handler.BookingHandler, invoices *handler.InvoiceHandler, reserveLimit echo.MiddlewareFunc) {
	if reserveLimit != nil {
		e.POST("/v1/bookings", bookings.Reserve, reserveLimit)
	} else {
		e.POST("/v1/bookings", bookings.Reserve)
	}
	e.GET("/v1/bookings/:id", bookings.Get)
	e.DELETE("/v1/bookings/:id", bookings.Cancel)
	e.POST("/v1/bookings/:id/refund", bookings.Refund)

	e.POST("/v1/bookings/:id/invoice", invoices.Issue)
	e.GET("/v1/bookings/:id/invoice", invoices.GetForBooking)
	e.GET("/v1/invoices", invoices.List)
	e.GET("/v1/invoices/:id", invoices.Get)
	e.POST("/v1/invoices/:id/pay", invoices.Pay)
}

// RegisterReports registers the analytics report routes.  cache, when
// non-nil, is applied to every report endpoint so repeated dashboard
// polls are served from Redis.
func RegisterReports(e *echo.Echo, reports *handler.ReportHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/reports")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/summary", reports.Summary)
	g.GET("/revenue/concerts", reports.RevenueByConcert)
	g.GET("/revenue/venues", reports.RevenueByVenue)
	g.GET("/revenue/genres", reports.RevenueByGenre)
	g.GET("/revenue/monthly", reports.MonthlyRevenue)
	g.GET("/customers/top", reports.TopCustomers)
	g.GET("/occupancy", reports.Occupancy)
	g.GET("/bookings/status", reports.BookingStatus)
	g.GET("/invoices/status", reports.PaymentStatus)
	g.GET("/tiers", reports.TierDistribution)
}
