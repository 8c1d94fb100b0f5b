package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrInsufficientStock is returned when a stock deduction would drive a
	// variant's stock_quantity negative. The guarded UPDATE never applies a
	// partial deduction.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrRowReferenced is returned when a delete is refused because the row
	// is referenced by historical sale items.
	ErrRowReferenced = errors.New("referenced in other records")
)

// ConstraintError carries the name of the violated database constraint so
// services can route on it without parsing error messages. It wraps one of
// the sentinel errors above.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (constraint: %s)", e.Err, e.Constraint)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// wrapConstraint attaches the violated constraint's name to err.
func wrapConstraint(err error, constraint string) error {
	return &ConstraintError{Constraint: constraint, Err: err}
}

// IsConstraint reports whether err was caused by the named database
// constraint.
func IsConstraint(err error, name string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == name
}

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx.
// This allows repository methods to be used within transactions or with a
// direct DB connection.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// TxRunner runs a function inside a database transaction. The transaction is
// committed when fn returns nil and rolled back on any error or panic, so no
// caller ever observes partial effects of a failed multi-statement operation.
type TxRunner interface {
	RunInTransaction(fn func(tx SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner backed by the given connection pool.
func NewTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) RunInTransaction(fn func(tx SQLExecutor) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
