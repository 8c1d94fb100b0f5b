package models

import (
	"fmt"
	"time"
)

// Category groups products, e.g. Sarees, Kurtis, Bottom Wear.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	Slug      string    `json:"slug" db:"slug"` // derived from name, unique
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a catalog entry; stock and price live on its variants.
// Name is unique case-insensitively and stored in canonical Title Case.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	CategoryID  int64     `json:"category" db:"category_id" binding:"required"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	Brand       *string   `json:"brand,omitempty" db:"brand"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	CategoryName string           `json:"category_name,omitempty"`
	Variants     []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is the stock- and price-bearing unit: one size/color
// combination of a product. (product, size, color) is unique, barcode is
// globally unique. StockQuantity is mutated only by the transaction engine.
type ProductVariant struct {
	ID            int64     `json:"id" db:"id"`
	ProductID     int64     `json:"product" db:"product_id" binding:"required"`
	Size          string    `json:"size" db:"size" binding:"required"`
	Color         string    `json:"color" db:"color" binding:"required"`
	Barcode       string    `json:"barcode" db:"barcode" binding:"required"`
	PriceCost     float64   `json:"price_cost" db:"price_cost"`
	PriceRetail   float64   `json:"price_retail" db:"price_retail" binding:"required,gt=0"`
	GSTRate       float64   `json:"gst_rate" db:"gst_rate"` // percentage, 18.00 means 18%
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	ProductName string `json:"product_name,omitempty"`
}

// Display renders the variant in human-readable form for error messages and
// receipts, matching the barcode-scan lookup label.
func (v ProductVariant) Display() string {
	return fmt.Sprintf("%s (%s/%s) - %s", v.ProductName, v.Size, v.Color, v.Barcode)
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	CategoryID *int64  `form:"category_id"`
	Search     *string `form:"search"` // matched against name and brand
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

// VariantFilters defines the available filters for querying variants.
type VariantFilters struct {
	ProductID *int64  `form:"product_id"`
	Search    *string `form:"search"` // matched against barcode and product name
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
