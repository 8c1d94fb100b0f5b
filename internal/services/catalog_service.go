package services

import (
	"errors"
	"fmt"
	"strings"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
	"cloth_pos_backend/pkg/utils"
)

// Custom errors for catalog operations
var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrBlankName         = errors.New("name must not be blank")
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateCategory = errors.New("category with this name already exists")
	ErrDuplicateProduct  = errors.New("product with this name already exists")
	ErrDeleteBlocked     = errors.New("record is referenced by sales and cannot be deleted")
)

// --- DTOs ---

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateProductRequest struct {
	CategoryID  int64   `json:"category" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Brand       *string `json:"brand"`
}

type UpdateProductRequest struct {
	CategoryID  int64   `json:"category" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Brand       *string `json:"brand"`
}

// --- CatalogService Interface ---
type CatalogService interface {
	CreateCategory(req CreateCategoryRequest) (*models.Category, error)
	GetCategoryByID(id int64) (*models.Category, error)
	GetCategories(page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(id int64, req UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(id int64) error

	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProductByID(id int64) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(id int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(id int64) error
}

// --- catalogService Implementation ---
type catalogService struct {
	catalogRepo repositories.CatalogRepository
	txRunner    repositories.TxRunner
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(cr repositories.CatalogRepository, tr repositories.TxRunner) CatalogService {
	return &catalogService{catalogRepo: cr, txRunner: tr}
}

// --- Categories ---

func (s *catalogService) CreateCategory(req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrBlankName
	}

	category := &models.Category{
		Name: name,
		Slug: utils.Slugify(name),
	}

	var categoryID int64
	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		id, err := s.catalogRepo.CreateCategory(tx, category)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateCategory
			}
			return fmt.Errorf("failed to create category: %w", err)
		}
		categoryID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.catalogRepo.GetCategoryByID(categoryID)
}

func (s *catalogService) GetCategoryByID(id int64) (*models.Category, error) {
	category, err := s.catalogRepo.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *catalogService) GetCategories(page, pageSize int) ([]models.Category, int, error) {
	return s.catalogRepo.GetCategories(page, pageSize)
}

func (s *catalogService) UpdateCategory(id int64, req UpdateCategoryRequest) (*models.Category, error) {
	if _, err := s.GetCategoryByID(id); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrBlankName
	}
	category := &models.Category{
		ID:   id,
		Name: name,
		Slug: utils.Slugify(name),
	}

	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		if err := s.catalogRepo.UpdateCategory(tx, category); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateCategory
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.catalogRepo.GetCategoryByID(id)
}

// DeleteCategory removes a category unless any of its products has been sold.
// Sold merchandise keeps its catalog ancestry for invoices and analytics.
func (s *catalogService) DeleteCategory(id int64) error {
	if _, err := s.GetCategoryByID(id); err != nil {
		return err
	}

	referenced, err := s.catalogRepo.CategoryReferencedBySales(id)
	if err != nil {
		return fmt.Errorf("failed to check category references: %w", err)
	}
	if referenced {
		return ErrDeleteBlocked
	}

	return s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		if err := s.catalogRepo.DeleteCategory(tx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCategoryNotFound
			}
			if errors.Is(err, repositories.ErrRowReferenced) {
				return ErrDeleteBlocked
			}
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

// --- Products ---

func (s *catalogService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	name := utils.NormalizeProductName(req.Name)

	exists, err := s.catalogRepo.ProductNameExists(name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateProduct
	}

	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        name,
		Description: req.Description,
		Brand:       req.Brand,
	}

	var productID int64
	err = s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		id, err := s.catalogRepo.CreateProduct(tx, product)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateProduct
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		productID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.catalogRepo.GetProductByID(productID)
}

func (s *catalogService) GetProductByID(id int64) (*models.Product, error) {
	product, err := s.catalogRepo.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return s.catalogRepo.GetProducts(filters)
}

func (s *catalogService) UpdateProduct(id int64, req UpdateProductRequest) (*models.Product, error) {
	if _, err := s.GetProductByID(id); err != nil {
		return nil, err
	}

	name := utils.NormalizeProductName(req.Name)

	exists, err := s.catalogRepo.ProductNameExists(name, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateProduct
	}

	product := &models.Product{
		ID:          id,
		CategoryID:  req.CategoryID,
		Name:        name,
		Description: req.Description,
		Brand:       req.Brand,
	}

	err = s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		if err := s.catalogRepo.UpdateProduct(tx, product); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateProduct
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.catalogRepo.GetProductByID(id)
}

// DeleteProduct removes a product and its variants unless any variant has
// been sold.
func (s *catalogService) DeleteProduct(id int64) error {
	if _, err := s.GetProductByID(id); err != nil {
		return err
	}

	referenced, err := s.catalogRepo.ProductReferencedBySales(id)
	if err != nil {
		return fmt.Errorf("failed to check product references: %w", err)
	}
	if referenced {
		return ErrDeleteBlocked
	}

	return s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		if err := s.catalogRepo.DeleteProduct(tx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			if errors.Is(err, repositories.ErrRowReferenced) {
				return ErrDeleteBlocked
			}
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}
