package services

import (
	"errors"
	"fmt"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
	"cloth_pos_backend/pkg/utils"
)

// Custom Errors
var (
	ErrVariantNotFound    = errors.New("product variant not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidPaymentMode = errors.New("invalid payment mode")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrEmptySale          = errors.New("sale must contain at least one item")
)

// Payment mode constants
const (
	PaymentCash  = "CASH"
	PaymentCard  = "CARD"
	PaymentUPI   = "UPI"
	PaymentMixed = "MIXED"
)

// invoiceNumberAttempts bounds the retry loop on invoice-number collisions.
const invoiceNumberAttempts = 5

// --- Data Transfer Objects (DTOs) ---

// CreateSaleItemRequest is one (variant, quantity) line of a sale request.
// UnitPrice is accepted for wire compatibility with POS clients but the
// engine always snapshots the variant's current retail price instead; a
// caller-supplied price is never applied.
type CreateSaleItemRequest struct {
	VariantID int64    `json:"variant" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required,gt=0"`
	UnitPrice *float64 `json:"unit_price"`
}

// CreateSaleRequest is used for creating a new sale with its items.
type CreateSaleRequest struct {
	CustomerName  *string                 `json:"customer_name"`
	CustomerPhone *string                 `json:"customer_phone"`
	PaymentMode   string                  `json:"payment_mode" binding:"required"`
	Items         []CreateSaleItemRequest `json:"items" binding:"required,dive"`
}

// --- SaleService Interface ---
type SaleService interface {
	CreateSale(req CreateSaleRequest, cashierID *int64) (*models.Sale, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	GetSaleByID(saleID int64) (*models.Sale, error)
}

// --- saleService Implementation ---
type saleService struct {
	saleRepo    repositories.SaleRepository
	variantRepo repositories.VariantRepository
	txRunner    repositories.TxRunner
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	sr repositories.SaleRepository,
	vr repositories.VariantRepository,
	txRunner repositories.TxRunner,
) SaleService {
	return &saleService{
		saleRepo:    sr,
		variantRepo: vr,
		txRunner:    txRunner,
	}
}

// CreateSale validates and applies a multi-item sale as a single atomic unit:
// the invoice header, every stock deduction and every sale item either all
// commit or all roll back. Stock deductions use a guarded UPDATE so stock can
// never go negative even under concurrent sales of the same variant, and
// lines referencing the same variant twice deduct cumulatively because later
// lines observe the earlier deduction inside the same transaction.
func (s *saleService) CreateSale(req CreateSaleRequest, cashierID *int64) (*models.Sale, error) {
	if !isValidPaymentMode(req.PaymentMode) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMode, req.PaymentMode)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptySale
	}

	var saleID int64
	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		sale := models.Sale{
			CashierID:     cashierID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			PaymentMode:   req.PaymentMode,
		}

		var err error
		saleID, err = s.createSaleWithNumber(tx, &sale)
		if err != nil {
			return err
		}

		var totalAmount, gstTotal float64
		for _, itemReq := range req.Items {
			variant, repoErr := s.variantRepo.GetVariantByID(itemReq.VariantID)
			if repoErr != nil {
				if errors.Is(repoErr, repositories.ErrNotFound) {
					return fmt.Errorf("%w: variant ID %d", ErrVariantNotFound, itemReq.VariantID)
				}
				return fmt.Errorf("failed to fetch variant %d: %w", itemReq.VariantID, repoErr)
			}

			if _, repoErr = s.variantRepo.DeductStock(tx, variant.ID, itemReq.Quantity); repoErr != nil {
				if errors.Is(repoErr, repositories.ErrInsufficientStock) {
					return fmt.Errorf("%w for %s", ErrInsufficientStock, variant.Display())
				}
				if errors.Is(repoErr, repositories.ErrNotFound) {
					return fmt.Errorf("%w: variant ID %d", ErrVariantNotFound, variant.ID)
				}
				return fmt.Errorf("failed to deduct stock for %s: %w", variant.Display(), repoErr)
			}

			// Snapshot the catalog price; never trust the caller's.
			lineTotal := float64(itemReq.Quantity) * variant.PriceRetail
			lineTax := lineTotal * variant.GSTRate / 100

			item := models.SaleItem{
				SaleID:    saleID,
				VariantID: variant.ID,
				Quantity:  itemReq.Quantity,
				UnitPrice: variant.PriceRetail,
			}
			if _, repoErr = s.saleRepo.CreateSaleItem(tx, &item); repoErr != nil {
				return fmt.Errorf("failed to create sale item for %s: %w", variant.Display(), repoErr)
			}

			totalAmount += lineTotal + lineTax
			gstTotal += lineTax
		}

		return s.saleRepo.UpdateSaleTotals(tx, saleID, totalAmount, gstTotal)
	})
	if err != nil {
		return nil, err
	}

	return s.GetSaleByID(saleID)
}

// createSaleWithNumber inserts the sale header, regenerating the invoice
// number on the rare unique-constraint collision.
func (s *saleService) createSaleWithNumber(tx repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		sale.InvoiceNumber = utils.GenerateDocumentNumber("INV")
		id, err := s.saleRepo.CreateSale(tx, sale)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return 0, fmt.Errorf("failed to create sale record: %w", err)
		}
	}
	return 0, fmt.Errorf("failed to allocate a unique invoice number after %d attempts", invoiceNumberAttempts)
}

func (s *saleService) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	sales, totalCount, err := s.saleRepo.GetSales(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sales: %w", err)
	}
	for i := range sales {
		items, err := s.saleRepo.GetSaleItemsBySaleID(sales[i].ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get items for sale ID %d: %w", sales[i].ID, err)
		}
		sales[i].Items = items
	}
	return sales, totalCount, nil
}

func (s *saleService) GetSaleByID(saleID int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale by ID: %w", err)
	}

	items, err := s.saleRepo.GetSaleItemsBySaleID(saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for sale ID %d: %w", saleID, err)
	}
	sale.Items = items
	return sale, nil
}

func isValidPaymentMode(mode string) bool {
	switch mode {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentMixed:
		return true
	default:
		return false
	}
}
