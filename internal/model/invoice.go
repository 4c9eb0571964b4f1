package model

import "time"

// Invoice payment status values.  The only transition is unpaid to
// paid; re-marking a paid invoice is a no-op.
const (
	InvoiceUnpaid = "unpaid"
	InvoicePaid   = "paid"
)

// Invoice is the derived billing record for exactly one confirmed
// booking.  Subtotal mirrors the booking total; tax is computed from
// the configured rate at issue time.  InvoiceNumber is globally
// unique.
//
// Fields:
//  ID            – primary key identifier.
//  BookingID     – booking this invoice bills (one invoice per booking).
//  CustomerID    – customer billed, denormalized from the booking.
//  InvoiceNumber – unique human-readable invoice number.
//  SubtotalCents – booking total before tax.
//  TaxCents      – tax amount.
//  TotalCents    – SubtotalCents + TaxCents.
//  PaymentStatus – unpaid or paid.
//  IssuedAt      – when the invoice was issued.
//  DueDate       – payment deadline (30 days after issue).
//  PaidAt        – when payment was recorded, if any.
type Invoice struct {
	ID            uint64     `json:"id"`                // invoices.id
	BookingID     uint64     `json:"booking_id"`        // invoices.booking_id
	CustomerID    uint64     `json:"customer_id"`       // invoices.customer_id
	InvoiceNumber string     `json:"invoice_number"`    // invoices.invoice_number
	SubtotalCents int64      `json:"subtotal_cents"`    // invoices.subtotal_cents
	TaxCents      int64      `json:"tax_cents"`         // invoices.tax_cents
	TotalCents    int64      `json:"total_cents"`       // invoices.total_cents
	PaymentStatus string     `json:"payment_status"`    // invoices.payment_status
	IssuedAt      time.Time  `json:"issued_at"`         // invoices.issued_at
	DueDate       time.Time  `json:"due_date"`          // invoices.due_date
	PaidAt        *time.Time `json:"paid_at,omitempty"` // invoices.paid_at (nullable)
}
