package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format selects the document type of a generated report.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

const (
	periodOptionCount = 12
	topProductLimit   = 5
	defaultSlowDays   = 90
)

// Period identifies a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod reads a "YYYY-MM" value.
func ParsePeriod(raw string) (Period, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return Period{}, ErrInvalidPeriod
	}
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return Period{}, ErrInvalidPeriod
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return NewPeriod(y, m)
}

// NewPeriod validates a year and 1-based month.
func NewPeriod(year, month int) (Period, error) {
	if year < 2000 || year > 9999 || month < 1 || month > 12 {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start is the first instant of the month in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label renders the period as 2026年3月.
func (p Period) Label() string {
	return fmt.Sprintf("%d年%d月", p.Year, int(p.Month))
}

// PeriodOption is one selectable report month.
type PeriodOption struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// GenerateInput is the payload of a report request. Either Period or Year and
// Month must be set.
type GenerateInput struct {
	Period string `json:"period"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Format Format `json:"format" validate:"omitempty,oneof=html pdf"`
}

func (in GenerateInput) period() (Period, error) {
	if in.Period != "" {
		return ParsePeriod(in.Period)
	}
	return NewPeriod(in.Year, in.Month)
}

// Document is a rendered report ready for download.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// SaleLine aggregates one product's sales in a window.
type SaleLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// InventorySnapshot describes the stock on hand at a point in time.
type InventorySnapshot struct {
	Count       int   `json:"count"`
	TotalValue  int64 `json:"totalValue"`
	AverageDays int   `json:"averageDays"`
	SlowMoving  int   `json:"slowMoving"`
}

// OperationCounts are the workflow volumes of a window.
type OperationCounts struct {
	NewListings    int `json:"newListings"`
	CompletedSales int `json:"completedSales"`
	Returns        int `json:"returns"`
}

// PeriodInfo describes the reported month.
type PeriodInfo struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Label     string `json:"label"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Summary holds the headline sales figures.
type Summary struct {
	TotalRevenue  int64   `json:"totalRevenue"`
	TotalItems    int     `json:"totalItems"`
	AveragePrice  int64   `json:"averagePrice"`
	RevenueGrowth float64 `json:"revenueGrowth"`
}

// CategoryLine is one row of the category breakdown.
type CategoryLine struct {
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Revenue    int64   `json:"revenue"`
	Items      int     `json:"items"`
	Percentage float64 `json:"percentage"`
}

// Inventory holds stock figures.
type Inventory struct {
	TotalItems      int     `json:"totalItems"`
	TurnoverRate    float64 `json:"turnoverRate"`
	AverageDays     int     `json:"averageDays"`
	SlowMovingCount int     `json:"slowMovingCount"`
	SlowMovingDays  int     `json:"slowMovingDays"`
	TotalValue      int64   `json:"totalValue"`
}

// Operations holds workflow figures.
type Operations struct {
	NewListings    int     `json:"newListings"`
	CompletedSales int     `json:"completedSales"`
	Returns        int     `json:"returns"`
	ReturnRate     float64 `json:"returnRate"`
}

// TopProduct is one best-selling product.
type TopProduct struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Revenue  int64  `json:"revenue"`
	Quantity int    `json:"quantity"`
}

// Monthly is the full monthly performance report.
type Monthly struct {
	Period      PeriodInfo     `json:"period"`
	Summary     Summary        `json:"summary"`
	Categories  []CategoryLine `json:"categories"`
	Inventory   Inventory      `json:"inventory"`
	Operations  Operations     `json:"operations"`
	TopProducts []TopProduct   `json:"topProducts"`
}
