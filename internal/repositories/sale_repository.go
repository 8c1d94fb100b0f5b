package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloth_pos_backend/internal/models"

	"github.com/lib/pq"
)

// SaleRepository defines the interface for sale-ledger database operations.
// Sales and sale items are immutable once written; only the header totals are
// filled in at the end of the creating transaction.
type SaleRepository interface {
	// CreateSale inserts the sale header. The insert uses
	// ON CONFLICT (invoice_number) DO NOTHING so an invoice-number collision
	// surfaces as ErrDuplicateKey without aborting the surrounding
	// transaction; the caller regenerates the number and retries.
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	UpdateSaleTotals(executor SQLExecutor, saleID int64, totalAmount, gstTotal float64) error
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)

	GetSaleByID(saleID int64) (*models.Sale, error)
	GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error)

	// GetSaleItemForUpdate fetches a sale item joined with its variant
	// details and locks the sale_items row for the rest of the
	// transaction, serializing concurrent returns against the same item.
	GetSaleItemForUpdate(executor SQLExecutor, itemID int64) (*models.SaleItem, error)

	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (invoice_number, cashier_id, customer_name, customer_phone, total_amount, gst_total,
	             payment_mode, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (invoice_number) DO NOTHING
	          RETURNING id`
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		sale.InvoiceNumber, sale.CashierID, sale.CustomerName, sale.CustomerPhone,
		sale.TotalAmount, sale.GSTTotal, sale.PaymentMode, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: invoice number '%s' already exists", ErrDuplicateKey, sale.InvoiceNumber)
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) UpdateSaleTotals(executor SQLExecutor, saleID int64, totalAmount, gstTotal float64) error {
	result, err := executor.Exec(`UPDATE sales SET total_amount = $1, gst_total = $2 WHERE id = $3`,
		totalAmount, gstTotal, saleID)
	if err != nil {
		return fmt.Errorf("%w: updating totals for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	// total_price is recomputed here so a stored line can never disagree
	// with quantity * unit_price.
	item.TotalPrice = float64(item.Quantity) * item.UnitPrice
	query := `INSERT INTO sale_items (sale_id, variant_id, quantity, unit_price, total_price)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.SaleID, item.VariantID, item.Quantity, item.UnitPrice, item.TotalPrice,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, wrapConstraint(fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err), pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleByID(saleID int64) (*models.Sale, error) {
	sale := &models.Sale{}
	query := `SELECT id, invoice_number, cashier_id, customer_name, customer_phone, total_amount,
	                 gst_total, payment_mode, created_at
	          FROM sales
	          WHERE id = $1`
	err := r.db.QueryRow(query, saleID).Scan(
		&sale.ID, &sale.InvoiceNumber, &sale.CashierID, &sale.CustomerName, &sale.CustomerPhone,
		&sale.TotalAmount, &sale.GSTTotal, &sale.PaymentMode, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return sale, nil
}

func (r *saleRepository) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT si.id, si.sale_id, si.variant_id, si.quantity, si.unit_price, si.total_price,
	                 p.name AS variant_name, pv.size, pv.color, pv.barcode, pv.gst_rate
	          FROM sale_items si
	          JOIN product_variants pv ON si.variant_id = pv.id
	          JOIN products p ON pv.product_id = p.id
	          WHERE si.sale_id = $1
	          ORDER BY si.id`
	rows, err := r.db.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.VariantID, &item.Quantity, &item.UnitPrice,
			&item.TotalPrice, &item.VariantName, &item.VariantSize, &item.VariantColor,
			&item.VariantBarcode, &item.VariantGSTRate); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item for sale ID %d: %v", ErrDatabaseError, saleID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}

func (r *saleRepository) GetSaleItemForUpdate(executor SQLExecutor, itemID int64) (*models.SaleItem, error) {
	item := &models.SaleItem{}
	query := `SELECT si.id, si.sale_id, si.variant_id, si.quantity, si.unit_price, si.total_price,
	                 p.name AS variant_name, pv.size, pv.color, pv.barcode, pv.gst_rate
	          FROM sale_items si
	          JOIN product_variants pv ON si.variant_id = pv.id
	          JOIN products p ON pv.product_id = p.id
	          WHERE si.id = $1
	          FOR UPDATE OF si`
	err := executor.QueryRow(query, itemID).Scan(
		&item.ID, &item.SaleID, &item.VariantID, &item.Quantity, &item.UnitPrice, &item.TotalPrice,
		&item.VariantName, &item.VariantSize, &item.VariantColor, &item.VariantBarcode, &item.VariantGSTRate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *saleRepository) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, invoice_number, cashier_id, customer_name, customer_phone,
	    total_amount, gst_total, payment_mode, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM sales`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.CashierID, &s.CustomerName, &s.CustomerPhone,
			&s.TotalAmount, &s.GSTTotal, &s.PaymentMode, &s.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}
