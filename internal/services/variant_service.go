package services

import (
	"errors"
	"fmt"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
)

// Custom errors for variant operations
var (
	ErrDuplicateVariant = errors.New("variant with this size and color already exists for the product")
	ErrDuplicateBarcode = errors.New("barcode is already assigned to another variant")
)

const defaultLowStockThreshold = 5

// --- DTOs ---

type CreateVariantRequest struct {
	ProductID   int64   `json:"product" binding:"required"`
	Size        string  `json:"size" binding:"required"`
	Color       string  `json:"color" binding:"required"`
	Barcode     string  `json:"barcode" binding:"required"`
	PriceCost   float64 `json:"price_cost" binding:"gte=0"`
	PriceRetail float64 `json:"price_retail" binding:"required,gt=0"`
	GSTRate     float64 `json:"gst_rate" binding:"gte=0"`
	// Opening stock; later movements come only from sales and returns.
	StockQuantity int `json:"stock_quantity" binding:"gte=0"`
}

// UpdateVariantRequest deliberately has no stock field. Stock moves only
// through the transaction engine.
type UpdateVariantRequest struct {
	ProductID   int64   `json:"product" binding:"required"`
	Size        string  `json:"size" binding:"required"`
	Color       string  `json:"color" binding:"required"`
	Barcode     string  `json:"barcode" binding:"required"`
	PriceCost   float64 `json:"price_cost" binding:"gte=0"`
	PriceRetail float64 `json:"price_retail" binding:"required,gt=0"`
	GSTRate     float64 `json:"gst_rate" binding:"gte=0"`
}

// --- VariantService Interface ---
type VariantService interface {
	CreateVariant(req CreateVariantRequest) (*models.ProductVariant, error)
	GetVariantByID(id int64) (*models.ProductVariant, error)
	GetVariants(filters models.VariantFilters) ([]models.ProductVariant, int, error)
	GetLowStockVariants(threshold int) ([]models.ProductVariant, error)
	UpdateVariant(id int64, req UpdateVariantRequest) (*models.ProductVariant, error)
	DeleteVariant(id int64) error
}

// --- variantService Implementation ---
type variantService struct {
	variantRepo repositories.VariantRepository
	txRunner    repositories.TxRunner
}

// NewVariantService creates a new instance of VariantService.
func NewVariantService(vr repositories.VariantRepository, tr repositories.TxRunner) VariantService {
	return &variantService{variantRepo: vr, txRunner: tr}
}

func (s *variantService) CreateVariant(req CreateVariantRequest) (*models.ProductVariant, error) {
	variant := &models.ProductVariant{
		ProductID:     req.ProductID,
		Size:          req.Size,
		Color:         req.Color,
		Barcode:       req.Barcode,
		PriceCost:     req.PriceCost,
		PriceRetail:   req.PriceRetail,
		GSTRate:       req.GSTRate,
		StockQuantity: req.StockQuantity,
	}

	var variantID int64
	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		id, err := s.variantRepo.CreateVariant(tx, variant)
		if err != nil {
			if mapped := mapVariantConstraintError(err); mapped != nil {
				return mapped
			}
			return fmt.Errorf("failed to create variant: %w", err)
		}
		variantID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.variantRepo.GetVariantByID(variantID)
}

func (s *variantService) GetVariantByID(id int64) (*models.ProductVariant, error) {
	variant, err := s.variantRepo.GetVariantByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return variant, nil
}

func (s *variantService) GetVariants(filters models.VariantFilters) ([]models.ProductVariant, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return s.variantRepo.GetVariants(filters)
}

func (s *variantService) GetLowStockVariants(threshold int) ([]models.ProductVariant, error) {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return s.variantRepo.GetLowStockVariants(threshold)
}

func (s *variantService) UpdateVariant(id int64, req UpdateVariantRequest) (*models.ProductVariant, error) {
	if _, err := s.GetVariantByID(id); err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ID:          id,
		ProductID:   req.ProductID,
		Size:        req.Size,
		Color:       req.Color,
		Barcode:     req.Barcode,
		PriceCost:   req.PriceCost,
		PriceRetail: req.PriceRetail,
		GSTRate:     req.GSTRate,
	}

	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		if err := s.variantRepo.UpdateVariant(tx, variant); err != nil {
			if mapped := mapVariantConstraintError(err); mapped != nil {
				return mapped
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to update variant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.variantRepo.GetVariantByID(id)
}

// DeleteVariant removes a variant unless it appears on any sale.
func (s *variantService) DeleteVariant(id int64) error {
	if _, err := s.GetVariantByID(id); err != nil {
		return err
	}

	referenced, err := s.variantRepo.VariantReferencedBySales(id)
	if err != nil {
		return fmt.Errorf("failed to check variant references: %w", err)
	}
	if referenced {
		return ErrDeleteBlocked
	}

	return s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		if err := s.variantRepo.DeleteVariant(tx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrVariantNotFound
			}
			if errors.Is(err, repositories.ErrRowReferenced) {
				return ErrDeleteBlocked
			}
			return fmt.Errorf("failed to delete variant: %w", err)
		}
		return nil
	})
}

// mapVariantConstraintError translates duplicate-key violations into the
// service sentinel for the specific unique constraint.
func mapVariantConstraintError(err error) error {
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		return nil
	}
	if repositories.IsConstraint(err, "product_variants_barcode_key") {
		return ErrDuplicateBarcode
	}
	return ErrDuplicateVariant
}
