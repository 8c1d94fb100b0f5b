package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"cloth_pos_backend/internal/models"
)

// AnalyticsRepository provides read-only aggregations over the sale/return
// ledger. It never writes and runs without locks; a slightly stale read while
// transactions commit concurrently is acceptable.
type AnalyticsRepository interface {
	SalesTotals(start, end time.Time) (models.SalesTotals, error)
	ReturnTotals(start, end time.Time) (models.ReturnTotals, error)
	PaymentBreakdown(start, end time.Time) ([]models.PaymentModeStat, error)
	TopProducts(start, end time.Time, limit int) ([]models.TopProduct, error)
	MonthlySales(monthStart, monthEnd time.Time) (revenue float64, count int, err error)
	MonthlyRefunds(monthStart, monthEnd time.Time) (float64, error)
}

type analyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new instance of AnalyticsRepository.
func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) SalesTotals(start, end time.Time) (models.SalesTotals, error) {
	var totals models.SalesTotals
	query := `SELECT COALESCE(SUM(s.total_amount), 0),
	                 COUNT(DISTINCT s.id),
	                 COALESCE(SUM(s.gst_total), 0),
	                 COALESCE((SELECT SUM(si.quantity)
	                           FROM sale_items si
	                           JOIN sales s2 ON si.sale_id = s2.id
	                           WHERE s2.created_at BETWEEN $1 AND $2), 0)
	          FROM sales s
	          WHERE s.created_at BETWEEN $1 AND $2`
	err := r.db.QueryRow(query, start, end).Scan(
		&totals.TotalRevenue, &totals.SalesCount, &totals.TotalGST, &totals.ItemsSold)
	if err != nil {
		return models.SalesTotals{}, fmt.Errorf("%w: aggregating sales totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

func (r *analyticsRepository) ReturnTotals(start, end time.Time) (models.ReturnTotals, error) {
	var totals models.ReturnTotals
	query := `SELECT COALESCE(SUM(r.refund_amount), 0),
	                 COUNT(DISTINCT r.id),
	                 COALESCE(SUM(r.refund_gst), 0),
	                 COALESCE((SELECT SUM(ri.quantity)
	                           FROM return_items ri
	                           JOIN returns r2 ON ri.return_id = r2.id
	                           WHERE r2.created_at BETWEEN $1 AND $2), 0)
	          FROM returns r
	          WHERE r.created_at BETWEEN $1 AND $2`
	err := r.db.QueryRow(query, start, end).Scan(
		&totals.TotalRefunds, &totals.ReturnsCount, &totals.RefundGST, &totals.ItemsReturned)
	if err != nil {
		return models.ReturnTotals{}, fmt.Errorf("%w: aggregating return totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

func (r *analyticsRepository) PaymentBreakdown(start, end time.Time) ([]models.PaymentModeStat, error) {
	stats := []models.PaymentModeStat{}
	query := `SELECT payment_mode, COUNT(*), COALESCE(SUM(total_amount), 0)
	          FROM sales
	          WHERE created_at BETWEEN $1 AND $2
	          GROUP BY payment_mode
	          ORDER BY SUM(total_amount) DESC`
	rows, err := r.db.Query(query, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payment breakdown: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var stat models.PaymentModeStat
		if err := rows.Scan(&stat.PaymentMode, &stat.Count, &stat.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning payment breakdown row: %v", ErrDatabaseError, err)
		}
		stats = append(stats, stat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment breakdown rows: %v", ErrDatabaseError, err)
	}
	return stats, nil
}

func (r *analyticsRepository) TopProducts(start, end time.Time, limit int) ([]models.TopProduct, error) {
	top := []models.TopProduct{}
	query := `SELECT p.name, pv.size, pv.color, SUM(si.quantity) AS total_quantity,
	                 COALESCE(SUM(si.total_price), 0) AS total_revenue
	          FROM sale_items si
	          JOIN sales s ON si.sale_id = s.id
	          JOIN product_variants pv ON si.variant_id = pv.id
	          JOIN products p ON pv.product_id = p.id
	          WHERE s.created_at BETWEEN $1 AND $2
	          GROUP BY p.name, pv.size, pv.color
	          ORDER BY total_quantity DESC
	          LIMIT $3`
	rows, err := r.db.Query(query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying top products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp models.TopProduct
		if err := rows.Scan(&tp.ProductName, &tp.VariantSize, &tp.VariantColor,
			&tp.TotalQuantity, &tp.TotalRevenue); err != nil {
			return nil, fmt.Errorf("%w: scanning top product row: %v", ErrDatabaseError, err)
		}
		top = append(top, tp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating top product rows: %v", ErrDatabaseError, err)
	}
	return top, nil
}

func (r *analyticsRepository) MonthlySales(monthStart, monthEnd time.Time) (float64, int, error) {
	var revenue float64
	var count int
	query := `SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
	          FROM sales
	          WHERE created_at BETWEEN $1 AND $2`
	if err := r.db.QueryRow(query, monthStart, monthEnd).Scan(&revenue, &count); err != nil {
		return 0, 0, fmt.Errorf("%w: aggregating monthly sales: %v", ErrDatabaseError, err)
	}
	return revenue, count, nil
}

func (r *analyticsRepository) MonthlyRefunds(monthStart, monthEnd time.Time) (float64, error) {
	var refunds float64
	query := `SELECT COALESCE(SUM(refund_amount), 0)
	          FROM returns
	          WHERE created_at BETWEEN $1 AND $2`
	if err := r.db.QueryRow(query, monthStart, monthEnd).Scan(&refunds); err != nil {
		return 0, fmt.Errorf("%w: aggregating monthly refunds: %v", ErrDatabaseError, err)
	}
	return refunds, nil
}
