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
	ErrReturnNotFound      = errors.New("return not found")
	ErrSaleItemNotFound    = errors.New("sale item not found")
	ErrInvalidReturnReason = errors.New("invalid return reason")
	ErrSaleItemMismatch    = errors.New("sale item does not belong to the referenced sale")
	ErrReturnExceedsSold   = errors.New("return quantity exceeds outstanding quantity")
	ErrEmptyReturn         = errors.New("return must contain at least one item")
)

// Return reason constants
const (
	ReasonDefect         = "DEFECT"
	ReasonWrongSize      = "WRONG_SIZE"
	ReasonWrongColor     = "WRONG_COLOR"
	ReasonNotAsExpected  = "NOT_AS_EXPECTED"
	ReasonCustomerChange = "CUSTOMER_CHANGE"
	ReasonOther          = "OTHER"
)

// --- Data Transfer Objects (DTOs) ---

// CreateReturnItemRequest references one original sale line being returned.
type CreateReturnItemRequest struct {
	SaleItemID int64 `json:"sale_item" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// CreateReturnRequest is used for creating a new return against a prior sale.
type CreateReturnRequest struct {
	OriginalSaleID int64                     `json:"original_sale" binding:"required"`
	Reason         string                    `json:"reason" binding:"required"`
	Notes          *string                   `json:"notes"`
	Items          []CreateReturnItemRequest `json:"items" binding:"required,dive"`
}

// --- ReturnService Interface ---
type ReturnService interface {
	CreateReturn(req CreateReturnRequest) (*models.Return, error)
	GetReturns(page, pageSize int) ([]models.Return, int, error)
	GetReturnByID(returnID int64) (*models.Return, error)
}

// --- returnService Implementation ---
type returnService struct {
	returnRepo  repositories.ReturnRepository
	saleRepo    repositories.SaleRepository
	variantRepo repositories.VariantRepository
	txRunner    repositories.TxRunner
}

// NewReturnService creates a new instance of ReturnService.
func NewReturnService(
	rr repositories.ReturnRepository,
	sr repositories.SaleRepository,
	vr repositories.VariantRepository,
	txRunner repositories.TxRunner,
) ReturnService {
	return &returnService{
		returnRepo:  rr,
		saleRepo:    sr,
		variantRepo: vr,
		txRunner:    txRunner,
	}
}

// CreateReturn validates and applies a multi-item return atomically: the
// return header, every stock restoration and every return item either all
// commit or all roll back. A line is rejected when its quantity exceeds the
// outstanding quantity of the original sale item (sold minus already
// returned, including earlier lines of this same return). Each sale item row
// is locked for the duration of the transaction, so concurrent returns
// against the same item serialize and cannot both pass the outstanding
// check.
func (s *returnService) CreateReturn(req CreateReturnRequest) (*models.Return, error) {
	if !isValidReturnReason(req.Reason) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReturnReason, req.Reason)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyReturn
	}

	if _, err := s.saleRepo.GetSaleByID(req.OriginalSaleID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: sale ID %d", ErrSaleNotFound, req.OriginalSaleID)
		}
		return nil, fmt.Errorf("failed to fetch original sale %d: %w", req.OriginalSaleID, err)
	}

	var returnID int64
	err := s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		ret := models.Return{
			OriginalSaleID: req.OriginalSaleID,
			Reason:         req.Reason,
			Notes:          req.Notes,
		}

		var err error
		returnID, err = s.createReturnWithNumber(tx, &ret)
		if err != nil {
			return err
		}

		var refundAmount, refundGST float64
		for _, itemReq := range req.Items {
			saleItem, repoErr := s.saleRepo.GetSaleItemForUpdate(tx, itemReq.SaleItemID)
			if repoErr != nil {
				if errors.Is(repoErr, repositories.ErrNotFound) {
					return fmt.Errorf("%w: sale item ID %d", ErrSaleItemNotFound, itemReq.SaleItemID)
				}
				return fmt.Errorf("failed to fetch sale item %d: %w", itemReq.SaleItemID, repoErr)
			}
			if saleItem.SaleID != req.OriginalSaleID {
				return fmt.Errorf("%w: sale item ID %d belongs to sale ID %d", ErrSaleItemMismatch, saleItem.ID, saleItem.SaleID)
			}

			alreadyReturned, repoErr := s.returnRepo.ReturnedQuantity(tx, saleItem.ID)
			if repoErr != nil {
				return fmt.Errorf("failed to sum returned quantity for sale item %d: %w", saleItem.ID, repoErr)
			}
			outstanding := saleItem.Quantity - alreadyReturned
			if itemReq.Quantity > outstanding {
				return fmt.Errorf("%w: sale item ID %d has %d outstanding, requested %d",
					ErrReturnExceedsSold, saleItem.ID, outstanding, itemReq.Quantity)
			}

			// Refund is priced at the sale-time snapshot, not the current
			// retail price.
			refundPrice := float64(itemReq.Quantity) * saleItem.UnitPrice
			gstRefund := refundPrice * saleItem.VariantGSTRate / 100

			if _, repoErr = s.variantRepo.RestoreStock(tx, saleItem.VariantID, itemReq.Quantity); repoErr != nil {
				return fmt.Errorf("failed to restore stock for variant %d: %w", saleItem.VariantID, repoErr)
			}

			item := models.ReturnItem{
				ReturnID:    returnID,
				SaleItemID:  saleItem.ID,
				Quantity:    itemReq.Quantity,
				RefundPrice: refundPrice,
			}
			if _, repoErr = s.returnRepo.CreateReturnItem(tx, &item); repoErr != nil {
				return fmt.Errorf("failed to create return item for sale item %d: %w", saleItem.ID, repoErr)
			}

			refundAmount += refundPrice + gstRefund
			refundGST += gstRefund
		}

		return s.returnRepo.UpdateReturnTotals(tx, returnID, refundAmount, refundGST)
	})
	if err != nil {
		return nil, err
	}

	return s.GetReturnByID(returnID)
}

// createReturnWithNumber inserts the return header, regenerating the return
// number on the rare unique-constraint collision.
func (s *returnService) createReturnWithNumber(tx repositories.SQLExecutor, ret *models.Return) (int64, error) {
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		ret.ReturnNumber = utils.GenerateDocumentNumber("RET")
		id, err := s.returnRepo.CreateReturn(tx, ret)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return 0, fmt.Errorf("failed to create return record: %w", err)
		}
	}
	return 0, fmt.Errorf("failed to allocate a unique return number after %d attempts", invoiceNumberAttempts)
}

func (s *returnService) GetReturns(page, pageSize int) ([]models.Return, int, error) {
	returns, totalCount, err := s.returnRepo.GetReturns(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get returns: %w", err)
	}
	for i := range returns {
		items, err := s.returnRepo.GetReturnItemsByReturnID(returns[i].ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get items for return ID %d: %w", returns[i].ID, err)
		}
		returns[i].Items = items
	}
	return returns, totalCount, nil
}

func (s *returnService) GetReturnByID(returnID int64) (*models.Return, error) {
	ret, err := s.returnRepo.GetReturnByID(returnID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, fmt.Errorf("failed to get return by ID: %w", err)
	}

	items, err := s.returnRepo.GetReturnItemsByReturnID(returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for return ID %d: %w", returnID, err)
	}
	ret.Items = items
	return ret, nil
}

func isValidReturnReason(reason string) bool {
	switch reason {
	case ReasonDefect, ReasonWrongSize, ReasonWrongColor, ReasonNotAsExpected, ReasonCustomerChange, ReasonOther:
		return true
	default:
		return false
	}
}
