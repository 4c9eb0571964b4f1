package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/stagefront/concert-billing/internal/analytics"
	"github.com/stagefront/concert-billing/internal/billing"
	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/config"
	"github.com/stagefront/concert-billing/internal/database"
	"github.com/stagefront/concert-billing/internal/handler"
	"github.com/stagefront/concert-billing/internal/ledger"
	appmw "github.com/stagefront/concert-billing/internal/middleware"
	"github.com/stagefront/concert-billing/internal/queue"
	"github.com/stagefront/concert-billing/internal/repository"
	"github.com/stagefront/concert-billing/internal/router"
)

func main() {
	// Load .env.local first so developers can override the committed
	// defaults; missing files are fine in production.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db).Run(); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	// Repositories and transaction manager.
	concertRepo := repository.NewConcertRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	txm := repository.NewTxManager(db)
	clk := clock.NewSystem()

	// Domain services.
	seatLedger := ledger.NewService(concertRepo, customerRepo, bookingRepo, txm, clk)
	billingSvc := billing.NewService(bookingRepo, invoiceRepo, txm, clk)
	analyticsSvc := analytics.NewService(concertRepo, customerRepo, bookingRepo, invoiceRepo, clk)

	// Redis is optional: when unavailable the report cache and the
	// booking rate limit are disabled and everything else still works.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: report cache and rate limiting disabled")
	}
	var reserveLimit, reportCache echo.MiddlewareFunc
	if rdb != nil {
		reserveLimit = appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		reportCache = appmw.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterCatalog(e,
		handler.NewConcertHandler(concertRepo, seatLedger),
		handler.NewCustomerHandler(customerRepo, seatLedger))
	router.RegisterBookings(e,
		handler.NewBookingHandler(seatLedger, concertRepo),
		handler.NewInvoiceHandler(billingSvc, cfg.TaxRate),
		reserveLimit)
	router.RegisterReports(e, handler.NewReportHandler(analyticsSvc), reportCache)

	// Consume booking.confirmed events in the background; the consumer
	// reconnects on its own and never takes the server down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
