package models

import "time"

// AnalyticsParams holds the query parameters of the analytics endpoint.
// start_date/end_date win over days when both parse; days defaults to 30.
type AnalyticsParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD or RFC3339
	EndDate   string `form:"end_date"`
	Days      int    `form:"days"`
}

// SalesTotals aggregates the sales ledger over a window.
type SalesTotals struct {
	TotalRevenue float64
	SalesCount   int
	TotalGST     float64
	ItemsSold    int
}

// ReturnTotals aggregates the returns ledger over a window.
type ReturnTotals struct {
	TotalRefunds  float64
	ReturnsCount  int
	RefundGST     float64
	ItemsReturned int
}

// AnalyticsSummary is the headline block of the analytics report.
type AnalyticsSummary struct {
	GrossRevenue float64   `json:"gross_revenue"`
	TotalRevenue float64   `json:"total_revenue"` // alias of gross_revenue kept for dashboard consumers
	TotalRefunds float64   `json:"total_refunds"`
	NetRevenue   float64   `json:"net_revenue"`
	TotalSales   int       `json:"total_sales"`
	TotalItems   int       `json:"total_items"` // items sold minus items returned
	TotalReturns int       `json:"total_returns"`
	TotalGST     float64   `json:"total_gst"` // net of refunded GST
	AverageSale  float64   `json:"average_sale"`
	PeriodDays   int       `json:"period_days"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// PaymentModeStat is one row of the payment-mode breakdown, ordered by total.
type PaymentModeStat struct {
	PaymentMode string  `json:"payment_mode"`
	Count       int     `json:"count"`
	Total       float64 `json:"total"`
}

// TopProduct ranks sold quantity grouped by product + size + color.
type TopProduct struct {
	ProductName   string  `json:"product_name"`
	VariantSize   string  `json:"variant_size"`
	VariantColor  string  `json:"variant_color"`
	TotalQuantity int     `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// RecentReturn is the compact return row shown on the dashboard.
type RecentReturn struct {
	ID              int64     `json:"id"`
	ReturnNumber    string    `json:"return_number"`
	OriginalInvoice string    `json:"original_invoice"`
	RefundAmount    float64   `json:"refund_amount"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

// MonthlyStat is one calendar month of the trailing rollup.
type MonthlyStat struct {
	Month    string  `json:"month"` // e.g. "August 2026"
	Revenue  float64 `json:"revenue"`
	Refunds  float64 `json:"refunds"`
	Net      float64 `json:"net"`
	Count    int     `json:"count"`
}

// SalesAnalytics is the full analytics report payload.
type SalesAnalytics struct {
	Summary          AnalyticsSummary  `json:"summary"`
	PaymentBreakdown []PaymentModeStat `json:"payment_breakdown"`
	TopProducts      []TopProduct      `json:"top_products"`
	RecentSales      []Sale            `json:"recent_sales"`
	RecentReturns    []RecentReturn    `json:"recent_returns"`
	MonthlyData      []MonthlyStat     `json:"monthly_data"` // oldest month first
}
