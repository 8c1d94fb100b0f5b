package repositories

import (
	"database/sql"
	"fmt"
)

// AdminRepository holds administrative bulk operations that are not part of
// normal transaction flow.
type AdminRepository interface {
	// ResetData deletes the whole ledger and catalog in dependency order:
	// returns, sales, variants, products, categories. User accounts are
	// kept.
	ResetData(executor SQLExecutor) error
}

type adminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) ResetData(executor SQLExecutor) error {
	// return_items and sale_items cascade from their headers.
	statements := []string{
		`DELETE FROM returns`,
		`DELETE FROM sales`,
		`DELETE FROM product_variants`,
		`DELETE FROM products`,
		`DELETE FROM categories`,
	}
	for _, stmt := range statements {
		if _, err := executor.Exec(stmt); err != nil {
			return fmt.Errorf("%w: resetting data (%s): %v", ErrDatabaseError, stmt, err)
		}
	}
	return nil
}
