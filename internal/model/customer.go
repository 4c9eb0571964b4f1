package model

import "time"

// Customer identifies a ticket buyer.  Email is the contact identity
// and is unique within the directory; a customer record is created on
// first booking or through explicit registration.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – full name.
//  Email        – unique contact address.
//  Phone        – phone number.
//  Address      – postal address, optional.
//  RegisteredAt – when the record was first created.
type Customer struct {
	ID           uint64    `json:"id"`                // customers.id
	Name         string    `json:"name"`              // customers.name
	Email        string    `json:"email"`             // customers.email
	Phone        string    `json:"phone"`             // customers.phone
	Address      *string   `json:"address,omitempty"` // customers.address (nullable)
	RegisteredAt time.Time `json:"registered_at"`     // customers.registered_at
}
