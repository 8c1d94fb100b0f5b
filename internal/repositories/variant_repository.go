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

// VariantRepository defines the interface for product-variant database
// operations, including the stock mutations used by the transaction engine.
type VariantRepository interface {
	CreateVariant(executor SQLExecutor, variant *models.ProductVariant) (int64, error)
	GetVariantByID(id int64) (*models.ProductVariant, error)
	GetVariants(filters models.VariantFilters) ([]models.ProductVariant, int, error)
	GetLowStockVariants(threshold int) ([]models.ProductVariant, error)
	UpdateVariant(executor SQLExecutor, variant *models.ProductVariant) error
	DeleteVariant(executor SQLExecutor, id int64) error
	VariantReferencedBySales(id int64) (bool, error)

	// DeductStock atomically decrements stock_quantity by quantity, failing
	// with ErrInsufficientStock when fewer than quantity units remain. The
	// guard in the UPDATE serializes concurrent deductions so stock can
	// never go negative. Returns the new stock level.
	DeductStock(executor SQLExecutor, variantID int64, quantity int) (int, error)

	// RestoreStock increments stock_quantity by quantity and returns the new
	// stock level.
	RestoreStock(executor SQLExecutor, variantID int64, quantity int) (int, error)
}

type variantRepository struct {
	db *sql.DB
}

// NewVariantRepository creates a new instance of VariantRepository.
func NewVariantRepository(db *sql.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) CreateVariant(executor SQLExecutor, variant *models.ProductVariant) (int64, error) {
	query := `INSERT INTO product_variants
	            (product_id, size, color, barcode, price_cost, price_retail, gst_rate, stock_quantity,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		variant.ProductID, variant.Size, variant.Color, variant.Barcode,
		variant.PriceCost, variant.PriceRetail, variant.GSTRate, variant.StockQuantity,
		currentTime, currentTime,
	).Scan(&variant.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, wrapConstraint(fmt.Errorf("%w: creating variant", ErrDuplicateKey), pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return 0, wrapConstraint(fmt.Errorf("%w: invalid product ID %d", ErrDatabaseError, variant.ProductID), pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating variant: %v", ErrDatabaseError, err)
	}
	return variant.ID, nil
}

func (r *variantRepository) GetVariantByID(id int64) (*models.ProductVariant, error) {
	variant := &models.ProductVariant{}
	query := `SELECT pv.id, pv.product_id, pv.size, pv.color, pv.barcode, pv.price_cost, pv.price_retail,
	                 pv.gst_rate, pv.stock_quantity, pv.created_at, pv.updated_at,
	                 p.name AS product_name
	          FROM product_variants pv
	          JOIN products p ON pv.product_id = p.id
	          WHERE pv.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&variant.ID, &variant.ProductID, &variant.Size, &variant.Color, &variant.Barcode,
		&variant.PriceCost, &variant.PriceRetail, &variant.GSTRate, &variant.StockQuantity,
		&variant.CreatedAt, &variant.UpdatedAt, &variant.ProductName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting variant by ID %d: %v", ErrDatabaseError, id, err)
	}
	return variant, nil
}

func (r *variantRepository) GetVariants(filters models.VariantFilters) ([]models.ProductVariant, int, error) {
	variants := []models.ProductVariant{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT pv.id, pv.product_id, pv.size, pv.color, pv.barcode, pv.price_cost,
	    pv.price_retail, pv.gst_rate, pv.stock_quantity, pv.created_at, pv.updated_at,
	    p.name AS product_name,
	    COUNT(*) OVER() AS total_count
	  FROM product_variants pv
	  JOIN products p ON pv.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("pv.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		// Barcode match first so scanning a code finds the exact unit.
		conditions = append(conditions, fmt.Sprintf("(pv.barcode ILIKE $%d OR p.name ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.name, pv.size, pv.color")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying variants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Barcode, &v.PriceCost,
			&v.PriceRetail, &v.GSTRate, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt,
			&v.ProductName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning variant: %v", ErrDatabaseError, err)
		}
		variants = append(variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating variants: %v", ErrDatabaseError, err)
	}
	return variants, totalCount, nil
}

func (r *variantRepository) GetLowStockVariants(threshold int) ([]models.ProductVariant, error) {
	variants := []models.ProductVariant{}
	query := `SELECT pv.id, pv.product_id, pv.size, pv.color, pv.barcode, pv.price_cost, pv.price_retail,
	                 pv.gst_rate, pv.stock_quantity, pv.created_at, pv.updated_at,
	                 p.name AS product_name
	          FROM product_variants pv
	          JOIN products p ON pv.product_id = p.id
	          WHERE pv.stock_quantity <= $1
	          ORDER BY pv.stock_quantity, p.name`
	rows, err := r.db.Query(query, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: querying low-stock variants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Barcode, &v.PriceCost,
			&v.PriceRetail, &v.GSTRate, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt, &v.ProductName); err != nil {
			return nil, fmt.Errorf("%w: scanning low-stock variant: %v", ErrDatabaseError, err)
		}
		variants = append(variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low-stock variants: %v", ErrDatabaseError, err)
	}
	return variants, nil
}

// UpdateVariant never touches stock_quantity; only the transaction engine
// mutates stock.
func (r *variantRepository) UpdateVariant(executor SQLExecutor, variant *models.ProductVariant) error {
	query := `UPDATE product_variants
	          SET product_id = $1, size = $2, color = $3, barcode = $4, price_cost = $5,
	              price_retail = $6, gst_rate = $7, updated_at = $8
	          WHERE id = $9`
	result, err := executor.Exec(query,
		variant.ProductID, variant.Size, variant.Color, variant.Barcode, variant.PriceCost,
		variant.PriceRetail, variant.GSTRate, time.Now(), variant.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return wrapConstraint(fmt.Errorf("%w: updating variant ID %d", ErrDuplicateKey, variant.ID), pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating variant ID %d: %v", ErrDatabaseError, variant.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *variantRepository) DeleteVariant(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return wrapConstraint(fmt.Errorf("%w: variant ID %d", ErrRowReferenced, id), pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting variant ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *variantRepository) VariantReferencedBySales(id int64) (bool, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sale_items WHERE variant_id = $1`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking sale references for variant ID %d: %v", ErrDatabaseError, id, err)
	}
	return count > 0, nil
}

func (r *variantRepository) DeductStock(executor SQLExecutor, variantID int64, quantity int) (int, error) {
	var newStock int
	query := `UPDATE product_variants
	          SET stock_quantity = stock_quantity - $1, updated_at = $2
	          WHERE id = $3 AND stock_quantity >= $1
	          RETURNING stock_quantity`
	err := executor.QueryRow(query, quantity, time.Now(), variantID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the variant is missing or it has fewer than quantity
			// units; disambiguate for the caller.
			var exists bool
			checkErr := executor.QueryRow(`SELECT EXISTS (SELECT 1 FROM product_variants WHERE id = $1)`, variantID).Scan(&exists)
			if checkErr != nil {
				return 0, fmt.Errorf("%w: checking variant ID %d after failed deduction: %v", ErrDatabaseError, variantID, checkErr)
			}
			if !exists {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: variant ID %d has fewer than %d units", ErrInsufficientStock, variantID, quantity)
		}
		return 0, fmt.Errorf("%w: deducting stock for variant ID %d: %v", ErrDatabaseError, variantID, err)
	}
	return newStock, nil
}

func (r *variantRepository) RestoreStock(executor SQLExecutor, variantID int64, quantity int) (int, error) {
	var newStock int
	query := `UPDATE product_variants
	          SET stock_quantity = stock_quantity + $1, updated_at = $2
	          WHERE id = $3
	          RETURNING stock_quantity`
	err := executor.QueryRow(query, quantity, time.Now(), variantID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: restoring stock for variant ID %d: %v", ErrDatabaseError, variantID, err)
	}
	return newStock, nil
}
