package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

type txKey struct{}

// TxManager starts transactions and threads them through the context
// so that repository methods called inside the closure join the same
// transaction. Nested calls reuse the surrounding transaction.
type TxManager struct {
	db *sql.DB
}

// NewTxManager returns a TxManager bound to the given database.
func NewTxManager(db *sql.DB) *TxManager { return &TxManager{db: db} }

// WithTx runs fn inside a transaction. The transaction commits when
// fn returns nil and rolls back otherwise, so a reservation that
// fails after the seat decrement leaves no partial state behind.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the ambient transaction when one is present and the bare
// DB handle otherwise.
func q(ctx context.Context, db *sql.DB) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// isDuplicateKey reports whether err is a MySQL unique key violation
// (error 1062), used to map races on unique columns to sentinels.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
