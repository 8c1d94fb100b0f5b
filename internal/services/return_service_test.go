package services

import (
	"errors"
	"regexp"
	"sync"
	"testing"

	"cloth_pos_backend/internal/models"
)

// sellOne rings up a single-variant sale and returns it with items loaded.
func sellOne(t *testing.T, f *saleFixture, variantID int64, quantity int) *models.Sale {
	t.Helper()
	sale, err := f.sales.CreateSale(CreateSaleRequest{
		PaymentMode: PaymentCash,
		Items:       []CreateSaleItemRequest{{VariantID: variantID, Quantity: quantity}},
	}, nil)
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	return sale
}

func TestCreateReturnRestoresStockAndComputesRefund(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 3)

	ret, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonWrongSize,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	// 7 after the sale, back to 9 after returning two.
	if got := f.store.variantStock(v.ID); got != 9 {
		t.Errorf("stock = %d, want 9", got)
	}
	if !almostEqual(ret.RefundGST, 36) {
		t.Errorf("refund_gst = %v, want 36", ret.RefundGST)
	}
	if !almostEqual(ret.RefundAmount, 236) {
		t.Errorf("refund_amount = %v, want 236", ret.RefundAmount)
	}
	if len(ret.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(ret.Items))
	}
	if !almostEqual(ret.Items[0].RefundPrice, 200) {
		t.Errorf("refund_price = %v, want 200", ret.Items[0].RefundPrice)
	}
	if ret.OriginalInvoice != sale.InvoiceNumber {
		t.Errorf("original_invoice = %q, want %q", ret.OriginalInvoice, sale.InvoiceNumber)
	}

	pattern := regexp.MustCompile(`^RET-[0-9A-F]{8}$`)
	if !pattern.MatchString(ret.ReturnNumber) {
		t.Errorf("return number %q does not match %v", ret.ReturnNumber, pattern)
	}
}

func TestCreateReturnRetriesReturnNumberCollision(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 2)
	f.returnRepo.collideCreates = 2

	ret, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonDefect,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateReturn after collisions: %v", err)
	}

	pattern := regexp.MustCompile(`^RET-[0-9A-F]{8}$`)
	if !pattern.MatchString(ret.ReturnNumber) {
		t.Errorf("return number %q does not match %v", ret.ReturnNumber, pattern)
	}
	if got := f.store.variantStock(v.ID); got != 9 {
		t.Errorf("stock = %d, want 9", got)
	}
}

func TestCreateReturnRefundUsesSaleTimePrice(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 1)

	// Reprice the variant after the sale; the refund must not follow.
	f.store.mu.Lock()
	repriced := f.store.variants[v.ID]
	repriced.PriceRetail = 500
	f.store.variants[v.ID] = repriced
	f.store.mu.Unlock()

	ret, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonDefect,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}
	if !almostEqual(ret.Items[0].RefundPrice, 100) {
		t.Errorf("refund_price = %v, want sale-time 100", ret.Items[0].RefundPrice)
	}
}

func TestCreateReturnRejectsOverReturn(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 3)

	_, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonOther,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 4}},
	})
	if !errors.Is(err, ErrReturnExceedsSold) {
		t.Fatalf("err = %v, want ErrReturnExceedsSold", err)
	}
	if got := f.store.variantStock(v.ID); got != 7 {
		t.Errorf("stock = %d, want 7 (unchanged)", got)
	}
	if len(f.store.returns) != 0 {
		t.Errorf("returns persisted = %d, want 0", len(f.store.returns))
	}
}

func TestCreateReturnCumulativeAcrossReturns(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 3)

	_, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonDefect,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("first return: %v", err)
	}

	// Only one unit outstanding now.
	_, err = f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonDefect,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 2}},
	})
	if !errors.Is(err, ErrReturnExceedsSold) {
		t.Fatalf("err = %v, want ErrReturnExceedsSold", err)
	}

	ret, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonDefect,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("final return: %v", err)
	}
	if !almostEqual(ret.Items[0].RefundPrice, 100) {
		t.Errorf("refund_price = %v, want 100", ret.Items[0].RefundPrice)
	}
	if got := f.store.variantStock(v.ID); got != 10 {
		t.Errorf("stock = %d, want 10 (all restored)", got)
	}
}

func TestCreateReturnConcurrentOverReturnOnlyOneWins(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.returns.CreateReturn(CreateReturnRequest{
				OriginalSaleID: sale.ID,
				Reason:         ReasonDefect,
				Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrReturnExceedsSold) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	if got := f.store.variantStock(v.ID); got != 9 {
		t.Errorf("stock = %d, want 9 (one return of 3 applied)", got)
	}
}

func TestCreateReturnCumulativeWithinOneReturn(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 3)

	_, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonDefect,
		Items: []CreateReturnItemRequest{
			{SaleItemID: sale.Items[0].ID, Quantity: 2},
			{SaleItemID: sale.Items[0].ID, Quantity: 2},
		},
	})
	if !errors.Is(err, ErrReturnExceedsSold) {
		t.Fatalf("err = %v, want ErrReturnExceedsSold", err)
	}
	if got := f.store.variantStock(v.ID); got != 7 {
		t.Errorf("stock = %d, want 7 (rolled back)", got)
	}
	if len(f.store.returnItems) != 0 {
		t.Errorf("return items persisted = %d, want 0", len(f.store.returnItems))
	}
}

func TestCreateReturnRejectsForeignSaleItem(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	saleA := sellOne(t, f, v.ID, 1)
	saleB := sellOne(t, f, v.ID, 1)

	_, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: saleA.ID,
		Reason:         ReasonOther,
		Items:          []CreateReturnItemRequest{{SaleItemID: saleB.Items[0].ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrSaleItemMismatch) {
		t.Errorf("err = %v, want ErrSaleItemMismatch", err)
	}
}

func TestCreateReturnRejectsInvalidInput(t *testing.T) {
	f := newSaleFixture()
	v := f.store.addVariant("Silk Saree", "FREE", "Red", 100, 18, 10)
	sale := sellOne(t, f, v.ID, 1)

	_, err := f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         "BROKE_IT",
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidReturnReason) {
		t.Errorf("err = %v, want ErrInvalidReturnReason", err)
	}

	_, err = f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonOther,
	})
	if !errors.Is(err, ErrEmptyReturn) {
		t.Errorf("err = %v, want ErrEmptyReturn", err)
	}

	_, err = f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: 9999,
		Reason:         ReasonOther,
		Items:          []CreateReturnItemRequest{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("err = %v, want ErrSaleNotFound", err)
	}

	_, err = f.returns.CreateReturn(CreateReturnRequest{
		OriginalSaleID: sale.ID,
		Reason:         ReasonOther,
		Items:          []CreateReturnItemRequest{{SaleItemID: 9999, Quantity: 1}},
	})
	if !errors.Is(err, ErrSaleItemNotFound) {
		t.Errorf("err = %v, want ErrSaleItemNotFound", err)
	}
}
