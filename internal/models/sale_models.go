package models

import "time"

// Sale is an immutable-once-created invoice. Totals are computed by the
// transaction engine from its items and include GST.
type Sale struct {
	ID            int64     `json:"id" db:"id"`
	InvoiceNumber string    `json:"invoice_number" db:"invoice_number"` // INV- + 8 upper hex
	CashierID     *int64    `json:"cashier,omitempty" db:"cashier_id"`
	CustomerName  *string   `json:"customer_name,omitempty" db:"customer_name"`
	CustomerPhone *string   `json:"customer_phone,omitempty" db:"customer_phone"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	GSTTotal      float64   `json:"gst_total" db:"gst_total"`
	PaymentMode   string    `json:"payment_mode" db:"payment_mode"` // CASH, CARD, UPI, MIXED
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Items []SaleItem `json:"items,omitempty"`
}

// SaleItem is one line of a sale. UnitPrice is a snapshot of the variant's
// retail price at sale time and never tracks later price changes;
// TotalPrice is always quantity * unit_price.
type SaleItem struct {
	ID         int64   `json:"id" db:"id"`
	SaleID     int64   `json:"sale" db:"sale_id"`
	VariantID  int64   `json:"variant" db:"variant_id"`
	Quantity   int     `json:"quantity" db:"quantity"`
	UnitPrice  float64 `json:"unit_price" db:"unit_price"`
	TotalPrice float64 `json:"total_price" db:"total_price"`

	// Read-only display fields joined from the variant.
	VariantName    string  `json:"variant_name,omitempty"`
	VariantSize    string  `json:"variant_size,omitempty"`
	VariantColor   string  `json:"variant_color,omitempty"`
	VariantBarcode string  `json:"variant_barcode,omitempty"`
	VariantGSTRate float64 `json:"-"`
}

// Return tracks a customer return against a prior sale, with refund totals
// computed by the transaction engine.
type Return struct {
	ID             int64     `json:"id" db:"id"`
	ReturnNumber   string    `json:"return_number" db:"return_number"` // RET- + 8 upper hex
	OriginalSaleID int64     `json:"original_sale" db:"original_sale_id"`
	Reason         string    `json:"reason" db:"reason"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`
	RefundAmount   float64   `json:"refund_amount" db:"refund_amount"`
	RefundGST      float64   `json:"refund_gst" db:"refund_gst"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	OriginalInvoice string       `json:"original_invoice,omitempty"`
	Items           []ReturnItem `json:"items,omitempty"`
}

// ReturnItem is one returned line, referencing the original sale item.
// RefundPrice is quantity * sale_item.unit_price.
type ReturnItem struct {
	ID          int64   `json:"id" db:"id"`
	ReturnID    int64   `json:"return_order" db:"return_id"`
	SaleItemID  int64   `json:"sale_item" db:"sale_item_id"`
	Quantity    int     `json:"quantity" db:"quantity"`
	RefundPrice float64 `json:"refund_price" db:"refund_price"`

	ProductName string `json:"product_name,omitempty"`
}

// SaleFilters defines the available filters for listing sales.
type SaleFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Page      int `form:"page"`
	PageSize  int `form:"page_size"`
}
