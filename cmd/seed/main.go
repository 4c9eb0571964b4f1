// Command seed populates a development database with sample concerts,
// customers, bookings and invoices so that the report endpoints have
// something to show.  It is idempotent only in the sense that rerunning
// it against a seeded database fails fast on the duplicate emails.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/stagefront/concert-billing/internal/billing"
	"github.com/stagefront/concert-billing/internal/clock"
	"github.com/stagefront/concert-billing/internal/config"
	"github.com/stagefront/concert-billing/internal/database"
	"github.com/stagefront/concert-billing/internal/ledger"
	"github.com/stagefront/concert-billing/internal/model"
	"github.com/stagefront/concert-billing/internal/repository"
)

const seedTaxRate = 0.08

func strPtr(s string) *string { return &s }

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db).Run(); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	concertRepo := repository.NewConcertRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	txm := repository.NewTxManager(db)
	clk := clock.NewSystem()

	seatLedger := ledger.NewService(concertRepo, customerRepo, bookingRepo, txm, clk)
	billingSvc := billing.NewService(bookingRepo, invoiceRepo, txm, clk)

	ctx := context.Background()

	concerts := []*model.Concert{
		{
			Name:         "Rock Festival 2024",
			Artist:       "The Rolling Stones",
			Venue:        "Madison Square Garden",
			Genre:        "Rock",
			StartsAt:     time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC),
			TicketPrices: map[string]int64{"VIP": 25000, "Regular": 12000, "Economy": 6000},
			TotalSeats:   1000,
		},
		{
			Name:         "Jazz Night",
			Artist:       "Miles Davis Tribute",
			Venue:        "Blue Note",
			Genre:        "Jazz",
			StartsAt:     time.Date(2024, 7, 20, 21, 0, 0, 0, time.UTC),
			TicketPrices: map[string]int64{"Premium": 18000, "Standard": 9000},
			TotalSeats:   500,
		},
		{
			Name:         "Pop Sensation Tour",
			Artist:       "Taylor Swift",
			Venue:        "Stadium Arena",
			Genre:        "Pop",
			StartsAt:     time.Date(2024, 8, 10, 19, 30, 0, 0, time.UTC),
			TicketPrices: map[string]int64{"VIP": 35000, "Regular": 18000, "Economy": 8500},
			TotalSeats:   2000,
		},
	}
	for _, concert := range concerts {
		if err := concertRepo.Create(ctx, concert); err != nil {
			log.Fatalf("seed concert %q: %v", concert.Name, err)
		}
		log.Printf("seeded concert %d: %s", concert.ID, concert.Name)
	}

	customers := []ledger.CustomerInfo{
		{Name: "John Doe", Email: "john.doe@email.com", Phone: "+1-555-0101", Address: strPtr("123 Main St, New York, NY")},
		{Name: "Jane Smith", Email: "jane.smith@email.com", Phone: "+1-555-0102", Address: strPtr("456 Oak Ave, Los Angeles, CA")},
		{Name: "Bob Johnson", Email: "bob.johnson@email.com", Phone: "+1-555-0103", Address: strPtr("789 Pine St, Chicago, IL")},
		{Name: "Alice Williams", Email: "alice.williams@email.com", Phone: "+1-555-0104"},
	}

	// Bookings go through the ledger so seat counters and totals are
	// derived exactly as they would be in production.
	reservations := []struct {
		customer int
		concert  int
		tier     string
		quantity int
	}{
		{0, 0, "VIP", 2},
		{1, 0, "Regular", 3},
		{2, 1, "Premium", 1},
		{3, 2, "VIP", 1},
		{0, 2, "Regular", 4},
		{1, 1, "Standard", 2},
	}
	for i, r := range reservations {
		booking, err := seatLedger.Reserve(ctx, ledger.ReserveInput{
			ConcertID: concerts[r.concert].ID,
			Tier:      r.tier,
			Quantity:  r.quantity,
			Customer:  customers[r.customer],
		})
		if err != nil {
			log.Fatalf("seed booking %d: %v", i, err)
		}
		invoice, err := billingSvc.IssueInvoice(ctx, booking.ID, seedTaxRate)
		if err != nil {
			log.Fatalf("seed invoice for booking %d: %v", booking.ID, err)
		}
		// Mark every other invoice as paid so the payment status
		// report has both buckets.
		if i%2 == 0 {
			if _, err := billingSvc.MarkPaid(ctx, invoice.ID); err != nil {
				log.Fatalf("seed payment for invoice %d: %v", invoice.ID, err)
			}
		}
		log.Printf("seeded booking %d (%s x%d) with invoice %s", booking.ID, r.tier, r.quantity, invoice.InvoiceNumber)
	}

	log.Println("sample data created")
}
