package services

import (
	"fmt"
	"time"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
)

const (
	analyticsDateLayout  = "2006-01-02"
	defaultAnalyticsDays = 30
	topProductsLimit     = 10
	recentSalesLimit     = 10
	recentReturnsLimit   = 5
	trailingMonths       = 12
)

// --- AnalyticsService Interface ---
type AnalyticsService interface {
	GetSalesAnalytics(params models.AnalyticsParams) (*models.SalesAnalytics, error)
}

// --- analyticsService Implementation ---
type analyticsService struct {
	analyticsRepo repositories.AnalyticsRepository
	saleRepo      repositories.SaleRepository
	returnRepo    repositories.ReturnRepository
	now           func() time.Time
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(
	ar repositories.AnalyticsRepository,
	sr repositories.SaleRepository,
	rr repositories.ReturnRepository,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: ar,
		saleRepo:      sr,
		returnRepo:    rr,
		now:           time.Now,
	}
}

// GetSalesAnalytics builds the full dashboard report for a date window. It
// only reads the ledger; transactions committing concurrently may or may not
// be included, which is acceptable for reporting.
func (s *analyticsService) GetSalesAnalytics(params models.AnalyticsParams) (*models.SalesAnalytics, error) {
	start, end, days := s.resolveWindow(params)

	salesTotals, err := s.analyticsRepo.SalesTotals(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales totals: %w", err)
	}
	returnTotals, err := s.analyticsRepo.ReturnTotals(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate return totals: %w", err)
	}

	grossRevenue := salesTotals.TotalRevenue
	totalRefunds := returnTotals.TotalRefunds
	netRevenue := grossRevenue - totalRefunds

	avgSale := 0.0
	if salesTotals.SalesCount > 0 {
		avgSale = grossRevenue / float64(salesTotals.SalesCount)
	}

	summary := models.AnalyticsSummary{
		GrossRevenue: grossRevenue,
		TotalRevenue: grossRevenue,
		TotalRefunds: totalRefunds,
		NetRevenue:   netRevenue,
		TotalSales:   salesTotals.SalesCount,
		TotalItems:   salesTotals.ItemsSold - returnTotals.ItemsReturned,
		TotalReturns: returnTotals.ReturnsCount,
		TotalGST:     salesTotals.TotalGST - returnTotals.RefundGST,
		AverageSale:  avgSale,
		PeriodDays:   days,
		StartDate:    start,
		EndDate:      end,
	}

	breakdown, err := s.analyticsRepo.PaymentBreakdown(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payment breakdown: %w", err)
	}

	topProducts, err := s.analyticsRepo.TopProducts(start, end, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank top products: %w", err)
	}

	recentSales, _, err := s.saleRepo.GetSales(models.SaleFilters{
		StartDate: &start,
		EndDate:   &end,
		Page:      1,
		PageSize:  recentSalesLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent sales: %w", err)
	}
	for i := range recentSales {
		items, err := s.saleRepo.GetSaleItemsBySaleID(recentSales[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch items for sale ID %d: %w", recentSales[i].ID, err)
		}
		recentSales[i].Items = items
	}

	recentReturns, err := s.returnRepo.GetRecentReturns(start, end, recentReturnsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent returns: %w", err)
	}

	monthly, err := s.monthlyRollup()
	if err != nil {
		return nil, err
	}

	return &models.SalesAnalytics{
		Summary:          summary,
		PaymentBreakdown: breakdown,
		TopProducts:      topProducts,
		RecentSales:      recentSales,
		RecentReturns:    recentReturns,
		MonthlyData:      monthly,
	}, nil
}

// resolveWindow turns query parameters into an inclusive full-day window:
// explicit start_date/end_date when both parse, otherwise the trailing
// `days` (default 30) ending today. Start is normalized to 00:00:00 and end
// to 23:59:59.
func (s *analyticsService) resolveWindow(params models.AnalyticsParams) (time.Time, time.Time, int) {
	days := params.Days
	if days <= 0 {
		days = defaultAnalyticsDays
	}

	var start, end time.Time
	if params.StartDate != "" && params.EndDate != "" {
		parsedStart, errStart := parseAnalyticsDate(params.StartDate)
		parsedEnd, errEnd := parseAnalyticsDate(params.EndDate)
		if errStart == nil && errEnd == nil {
			start, end = parsedStart, parsedEnd
		}
	}
	if start.IsZero() || end.IsZero() {
		end = s.now()
		start = end.AddDate(0, 0, -days)
	}

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	return start, end, days
}

func parseAnalyticsDate(value string) (time.Time, error) {
	if t, err := time.Parse(analyticsDateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// monthlyRollup aggregates the trailing 12 calendar months, oldest first.
func (s *analyticsService) monthlyRollup() ([]models.MonthlyStat, error) {
	now := s.now()
	currentMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	monthly := make([]models.MonthlyStat, 0, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		monthStart := currentMonthStart.AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

		revenue, count, err := s.analyticsRepo.MonthlySales(monthStart, monthEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate sales for %s: %w", monthStart.Format("January 2006"), err)
		}
		refunds, err := s.analyticsRepo.MonthlyRefunds(monthStart, monthEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate refunds for %s: %w", monthStart.Format("January 2006"), err)
		}

		monthly = append(monthly, models.MonthlyStat{
			Month:   monthStart.Format("January 2006"),
			Revenue: revenue,
			Refunds: refunds,
			Net:     revenue - refunds,
			Count:   count,
		})
	}

	// Collected newest-first; final payload is oldest-first.
	for i, j := 0, len(monthly)-1; i < j; i, j = i+1, j-1 {
		monthly[i], monthly[j] = monthly[j], monthly[i]
	}
	return monthly, nil
}
