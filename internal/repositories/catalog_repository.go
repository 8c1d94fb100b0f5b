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

// CatalogRepository defines the interface for category and product database
// operations. Variant operations live in VariantRepository.
type CatalogRepository interface {
	// Category methods
	CreateCategory(executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(id int64) (*models.Category, error)
	GetCategories(page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(executor SQLExecutor, category *models.Category) error
	DeleteCategory(executor SQLExecutor, id int64) error
	CategoryReferencedBySales(id int64) (bool, error)

	// Product methods
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(id int64) (*models.Product, error) // includes category name and variants
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	DeleteProduct(executor SQLExecutor, id int64) error
	ProductNameExists(name string, excludeID *int64) (bool, error)
	ProductReferencedBySales(id int64) (bool, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// --- Category Methods ---

func (r *catalogRepository) CreateCategory(executor SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (name, slug, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, category.Name, category.Slug, currentTime, currentTime).Scan(&category.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, wrapConstraint(fmt.Errorf("%w: category '%s' already exists", ErrDuplicateKey, category.Name), pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating category: %v", ErrDatabaseError, err)
	}
	return category.ID, nil
}

func (r *catalogRepository) GetCategoryByID(id int64) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, name, slug, created_at, updated_at FROM categories WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, id, err)
	}
	return category, nil
}

func (r *catalogRepository) GetCategories(page, pageSize int) ([]models.Category, int, error) {
	categories := []models.Category{}
	totalCount := 0
	query := `SELECT id, name, slug, created_at, updated_at, COUNT(*) OVER() AS total_count
	          FROM categories
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt, &category.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, totalCount, nil
}

func (r *catalogRepository) UpdateCategory(executor SQLExecutor, category *models.Category) error {
	query := `UPDATE categories SET name = $1, slug = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, category.Name, category.Slug, time.Now(), category.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return wrapConstraint(fmt.Errorf("%w: category '%s' already exists", ErrDuplicateKey, category.Name), pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating category ID %d: %v", ErrDatabaseError, category.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory cascades to products and variants through the schema's
// foreign keys. Callers must check CategoryReferencedBySales first.
func (r *catalogRepository) DeleteCategory(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return wrapConstraint(fmt.Errorf("%w: category ID %d", ErrRowReferenced, id), pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting category ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) CategoryReferencedBySales(id int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*)
	          FROM sale_items si
	          JOIN product_variants pv ON si.variant_id = pv.id
	          JOIN products p ON pv.product_id = p.id
	          WHERE p.category_id = $1`
	if err := r.db.QueryRow(query, id).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking sale references for category ID %d: %v", ErrDatabaseError, id, err)
	}
	return count > 0, nil
}

// --- Product Methods ---

func (r *catalogRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products (category_id, name, description, brand, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		product.CategoryID, product.Name, product.Description, product.Brand, currentTime, currentTime,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, wrapConstraint(fmt.Errorf("%w: product '%s' already exists", ErrDuplicateKey, product.Name), pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return 0, wrapConstraint(fmt.Errorf("%w: invalid category ID %d", ErrDatabaseError, product.CategoryID), pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *catalogRepository) GetProductByID(id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT p.id, p.category_id, p.name, p.description, p.brand, p.created_at, p.updated_at,
	                 c.name AS category_name
	          FROM products p
	          JOIN categories c ON p.category_id = c.id
	          WHERE p.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&product.ID, &product.CategoryID, &product.Name, &product.Description, &product.Brand,
		&product.CreatedAt, &product.UpdatedAt, &product.CategoryName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}

	variantsQuery := `SELECT id, product_id, size, color, barcode, price_cost, price_retail, gst_rate,
	                         stock_quantity, created_at, updated_at
	                  FROM product_variants
	                  WHERE product_id = $1
	                  ORDER BY size, color`
	rows, err := r.db.Query(variantsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%w: getting variants for product ID %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Barcode, &v.PriceCost, &v.PriceRetail,
			&v.GSTRate, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning variant for product ID %d: %v", ErrDatabaseError, id, err)
		}
		v.ProductName = product.Name
		product.Variants = append(product.Variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating variants for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *catalogRepository) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT p.id, p.category_id, p.name, p.description, p.brand,
	    p.created_at, p.updated_at, c.name AS category_name,
	    COUNT(*) OVER() AS total_count
	  FROM products p
	  JOIN categories c ON p.category_id = c.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.brand ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Brand,
			&p.CreatedAt, &p.UpdatedAt, &p.CategoryName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *catalogRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET category_id = $1, name = $2, description = $3, brand = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		product.CategoryID, product.Name, product.Description, product.Brand, time.Now(), product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return wrapConstraint(fmt.Errorf("%w: product '%s' already exists", ErrDuplicateKey, product.Name), pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct cascades to variants. Callers must check
// ProductReferencedBySales first; the FK guard is the backstop.
func (r *catalogRepository) DeleteProduct(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return wrapConstraint(fmt.Errorf("%w: product ID %d", ErrRowReferenced, id), pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ProductNameExists reports whether another product already uses the name,
// compared case-insensitively.
func (r *catalogRepository) ProductNameExists(name string, excludeID *int64) (bool, error) {
	var count int
	var err error
	if excludeID != nil {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM products WHERE LOWER(name) = LOWER($1) AND id <> $2`, name, *excludeID).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM products WHERE LOWER(name) = LOWER($1)`, name).Scan(&count)
	}
	if err != nil {
		return false, fmt.Errorf("%w: checking product name '%s': %v", ErrDatabaseError, name, err)
	}
	return count > 0, nil
}

func (r *catalogRepository) ProductReferencedBySales(id int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*)
	          FROM sale_items si
	          JOIN product_variants pv ON si.variant_id = pv.id
	          WHERE pv.product_id = $1`
	if err := r.db.QueryRow(query, id).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking sale references for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return count > 0, nil
}
