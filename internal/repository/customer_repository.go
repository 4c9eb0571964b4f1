package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stagefront/concert-billing/internal/model"
)

// CustomerRepo provides persistence for the customer directory.
// Email is the contact identity and carries a unique index; races on
// concurrent first bookings for the same email are resolved by the
// index, not by application locks.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = `id, name, email, phone, address, registered_at`

// Create inserts a new customer. A duplicate email maps to
// ErrEmailTaken.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	const ins = `INSERT INTO customers (name, email, phone, address) VALUES (?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, ins, c.Name, c.Email, c.Phone, c.Address)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.scanRow(q(ctx, r.db).QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, c.ID), c)
}

// GetByID returns a customer by ID or ErrCustomerNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	var c model.Customer
	err := r.scanRow(q(ctx, r.db).QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id), &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail returns a customer by email or ErrCustomerNotFound.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var c model.Customer
	err := r.scanRow(q(ctx, r.db).QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = ?`, email), &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertByEmail returns the existing customer for the given email or
// creates one. When two requests race on the same fresh email, the
// loser of the insert re-reads the winner's row.
func (r *CustomerRepo) UpsertByEmail(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	existing, err := r.GetByEmail(ctx, c.Email)
	if err == nil {
		return existing, nil
	}
	if err != ErrCustomerNotFound {
		return nil, err
	}
	if err := r.Create(ctx, c); err != nil {
		if err == ErrEmailTaken {
			return r.GetByEmail(ctx, c.Email)
		}
		return nil, err
	}
	return c, nil
}

// List returns all customers ordered by registration time.
func (r *CustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	const sel = `SELECT ` + customerColumns + ` FROM customers ORDER BY registered_at, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	customers := make([]model.Customer, 0)
	for rows.Next() {
		var c model.Customer
		var addr sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &addr, &c.RegisteredAt); err != nil {
			return nil, err
		}
		if addr.Valid {
			a := addr.String
			c.Address = &a
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Update modifies name, phone and address. Email is the identity key
// and is not changed here.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	const upd = `UPDATE customers SET name = ?, phone = ?, address = ? WHERE id = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, upd, c.Name, c.Phone, c.Address, c.ID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := q(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, c.ID).Scan(&one); err != nil {
			return ErrCustomerNotFound
		}
	}
	return r.scanRow(q(ctx, r.db).QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, c.ID), c)
}

// Delete removes a customer by ID.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepo) scanRow(row *sql.Row, c *model.Customer) error {
	var addr sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &addr, &c.RegisteredAt)
	if err == sql.ErrNoRows {
		return ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("get customer: %w", err)
	}
	if addr.Valid {
		a := addr.String
		c.Address = &a
	} else {
		c.Address = nil
	}
	return nil
}
