package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloth_pos_backend/internal/models"

	"github.com/lib/pq"
)

// ReturnRepository defines the interface for return-ledger database
// operations.
type ReturnRepository interface {
	// CreateReturn inserts the return header using
	// ON CONFLICT (return_number) DO NOTHING; a collision surfaces as
	// ErrDuplicateKey without aborting the surrounding transaction.
	CreateReturn(executor SQLExecutor, ret *models.Return) (int64, error)
	UpdateReturnTotals(executor SQLExecutor, returnID int64, refundAmount, refundGST float64) error
	CreateReturnItem(executor SQLExecutor, item *models.ReturnItem) (int64, error)

	// ReturnedQuantity sums previously returned units for a sale item. It
	// reads through the executor so a creating transaction sees its own
	// earlier lines. Callers must hold the sale_items row lock
	// (GetSaleItemForUpdate) so concurrent transactions cannot both read a
	// stale sum.
	ReturnedQuantity(executor SQLExecutor, saleItemID int64) (int, error)

	GetReturnByID(returnID int64) (*models.Return, error)
	GetReturnItemsByReturnID(returnID int64) ([]models.ReturnItem, error)
	GetReturns(page, pageSize int) ([]models.Return, int, error)
	GetRecentReturns(start, end time.Time, limit int) ([]models.RecentReturn, error)
}

type returnRepository struct {
	db *sql.DB
}

// NewReturnRepository creates a new instance of ReturnRepository.
func NewReturnRepository(db *sql.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) CreateReturn(executor SQLExecutor, ret *models.Return) (int64, error) {
	query := `INSERT INTO returns
	            (return_number, original_sale_id, reason, notes, refund_amount, refund_gst, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (return_number) DO NOTHING
	          RETURNING id`
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		ret.ReturnNumber, ret.OriginalSaleID, ret.Reason, ret.Notes,
		ret.RefundAmount, ret.RefundGST, ret.CreatedAt,
	).Scan(&ret.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: return number '%s' already exists", ErrDuplicateKey, ret.ReturnNumber)
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, wrapConstraint(fmt.Errorf("%w: invalid original sale ID %d", ErrDatabaseError, ret.OriginalSaleID), pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating return: %v", ErrDatabaseError, err)
	}
	return ret.ID, nil
}

func (r *returnRepository) UpdateReturnTotals(executor SQLExecutor, returnID int64, refundAmount, refundGST float64) error {
	result, err := executor.Exec(`UPDATE returns SET refund_amount = $1, refund_gst = $2 WHERE id = $3`,
		refundAmount, refundGST, returnID)
	if err != nil {
		return fmt.Errorf("%w: updating totals for return ID %d: %v", ErrDatabaseError, returnID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *returnRepository) CreateReturnItem(executor SQLExecutor, item *models.ReturnItem) (int64, error) {
	query := `INSERT INTO return_items (return_id, sale_item_id, quantity, refund_price)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.ReturnID, item.SaleItemID, item.Quantity, item.RefundPrice,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, wrapConstraint(fmt.Errorf("%w: creating return item: %v", ErrDatabaseError, err), pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating return item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *returnRepository) ReturnedQuantity(executor SQLExecutor, saleItemID int64) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM return_items WHERE sale_item_id = $1`
	if err := executor.QueryRow(query, saleItemID).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing returned quantity for sale item ID %d: %v", ErrDatabaseError, saleItemID, err)
	}
	return total, nil
}

func (r *returnRepository) GetReturnByID(returnID int64) (*models.Return, error) {
	ret := &models.Return{}
	query := `SELECT r.id, r.return_number, r.original_sale_id, r.reason, r.notes, r.refund_amount,
	                 r.refund_gst, r.created_at, s.invoice_number
	          FROM returns r
	          JOIN sales s ON r.original_sale_id = s.id
	          WHERE r.id = $1`
	err := r.db.QueryRow(query, returnID).Scan(
		&ret.ID, &ret.ReturnNumber, &ret.OriginalSaleID, &ret.Reason, &ret.Notes,
		&ret.RefundAmount, &ret.RefundGST, &ret.CreatedAt, &ret.OriginalInvoice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting return by ID %d: %v", ErrDatabaseError, returnID, err)
	}
	return ret, nil
}

func (r *returnRepository) GetReturnItemsByReturnID(returnID int64) ([]models.ReturnItem, error) {
	items := []models.ReturnItem{}
	query := `SELECT ri.id, ri.return_id, ri.sale_item_id, ri.quantity, ri.refund_price,
	                 p.name || ' (' || pv.size || '/' || pv.color || ')' AS product_name
	          FROM return_items ri
	          JOIN sale_items si ON ri.sale_item_id = si.id
	          JOIN product_variants pv ON si.variant_id = pv.id
	          JOIN products p ON pv.product_id = p.id
	          WHERE ri.return_id = $1
	          ORDER BY ri.id`
	rows, err := r.db.Query(query, returnID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying return items for return ID %d: %v", ErrDatabaseError, returnID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ReturnItem
		if err := rows.Scan(&item.ID, &item.ReturnID, &item.SaleItemID, &item.Quantity,
			&item.RefundPrice, &item.ProductName); err != nil {
			return nil, fmt.Errorf("%w: scanning return item for return ID %d: %v", ErrDatabaseError, returnID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating return items for return ID %d: %v", ErrDatabaseError, returnID, err)
	}
	return items, nil
}

func (r *returnRepository) GetReturns(page, pageSize int) ([]models.Return, int, error) {
	returns := []models.Return{}
	totalCount := 0
	query := `SELECT r.id, r.return_number, r.original_sale_id, r.reason, r.notes, r.refund_amount,
	                 r.refund_gst, r.created_at, s.invoice_number,
	                 COUNT(*) OVER() AS total_count
	          FROM returns r
	          JOIN sales s ON r.original_sale_id = s.id
	          ORDER BY r.created_at DESC
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying returns: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ret models.Return
		if err := rows.Scan(&ret.ID, &ret.ReturnNumber, &ret.OriginalSaleID, &ret.Reason, &ret.Notes,
			&ret.RefundAmount, &ret.RefundGST, &ret.CreatedAt, &ret.OriginalInvoice, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning return: %v", ErrDatabaseError, err)
		}
		returns = append(returns, ret)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating returns: %v", ErrDatabaseError, err)
	}
	return returns, totalCount, nil
}

func (r *returnRepository) GetRecentReturns(start, end time.Time, limit int) ([]models.RecentReturn, error) {
	recent := []models.RecentReturn{}
	query := `SELECT r.id, r.return_number, s.invoice_number, r.refund_amount, r.reason, r.created_at
	          FROM returns r
	          JOIN sales s ON r.original_sale_id = s.id
	          WHERE r.created_at BETWEEN $1 AND $2
	          ORDER BY r.created_at DESC
	          LIMIT $3`
	rows, err := r.db.Query(query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recent returns: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rr models.RecentReturn
		if err := rows.Scan(&rr.ID, &rr.ReturnNumber, &rr.OriginalInvoice, &rr.RefundAmount,
			&rr.Reason, &rr.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning recent return: %v", ErrDatabaseError, err)
		}
		recent = append(recent, rr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating recent returns: %v", ErrDatabaseError, err)
	}
	return recent, nil
}
