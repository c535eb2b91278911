package reports

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/worlddoor/fulfillment/internal/labels"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Source provides the raw figures a report is built from.
type Source interface {
	SalesLines(ctx context.Context, from, to time.Time) ([]SaleLine, error)
	Inventory(ctx context.Context, asOf time.Time, slowDays int) (InventorySnapshot, error)
	Operations(ctx context.Context, from, to time.Time) (OperationCounts, error)
}

// PDFRenderer converts HTML into PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Service builds and renders monthly reports.
type Service struct {
	source   Source
	cache    *Cache
	pdf      PDFRenderer
	activity shared.ActivityRecorder
	logger   *slog.Logger
	group    singleflight.Group
	slowDays int
	now      func() time.Time
}

// NewService builds Service. pdf may be nil when PDF output is disabled.
func NewService(source Source, cache *Cache, pdf PDFRenderer, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:   source,
		cache:    cache,
		pdf:      pdf,
		activity: activity,
		logger:   logger,
		slowDays: defaultSlowDays,
		now:      time.Now,
	}
}

// SetSlowMovingDays overrides the stock age counted as slow moving.
func (s *Service) SetSlowMovingDays(days int) {
	if days > 0 {
		s.slowDays = days
	}
}

// Periods lists the current month and the eleven before it, newest first.
func (s *Service) Periods() []PeriodOption {
	current := PeriodOf(s.now().UTC())
	out := make([]PeriodOption, 0, periodOptionCount)
	for i := 0; i < periodOptionCount; i++ {
		out = append(out, PeriodOption{
			Year:  current.Year,
			Month: int(current.Month),
			Label: current.Label(),
			Value: current.String(),
		})
		current = current.Previous()
	}
	return out
}

// Monthly returns the report for p, served from cache when possible.
// Concurrent requests for the same period share one build.
func (s *Service) Monthly(ctx context.Context, p Period) (Monthly, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "monthly", p.String())
	if err != nil {
		s.logger.Warn("report cache key", slog.Any("error", err))
		key = "reports:monthly:" + p.String()
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var report Monthly
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
			return s.Build(ctx, p)
		})
		return report, err
	})
	if err != nil {
		return Monthly{}, err
	}
	return v.(Monthly), nil
}

// Build computes the report for p directly from the source.
func (s *Service) Build(ctx context.Context, p Period) (Monthly, error) {
	lines, err := s.source.SalesLines(ctx, p.Start(), p.End())
	if err != nil {
		return Monthly{}, fmt.Errorf("sales lines: %w", err)
	}
	prev := p.Previous()
	prevLines, err := s.source.SalesLines(ctx, prev.Start(), prev.End())
	if err != nil {
		return Monthly{}, fmt.Errorf("previous sales lines: %w", err)
	}
	asOf := p.End()
	if now := s.now().UTC(); now.Before(asOf) {
		asOf = now
	}
	stock, err := s.source.Inventory(ctx, asOf, s.slowDays)
	if err != nil {
		return Monthly{}, fmt.Errorf("inventory: %w", err)
	}
	ops, err := s.source.Operations(ctx, p.Start(), p.End())
	if err != nil {
		return Monthly{}, fmt.Errorf("operations: %w", err)
	}

	report := Monthly{
		Period: PeriodInfo{
			Year:      p.Year,
			Month:     int(p.Month),
			Label:     p.Label(),
			StartDate: p.Start().Format("2006/1/2"),
			EndDate:   p.End().AddDate(0, 0, -1).Format("2006/1/2"),
		},
		Categories:  categoryBreakdown(lines),
		TopProducts: topProducts(lines, topProductLimit),
		Inventory: Inventory{
			TotalItems:      stock.Count,
			AverageDays:     stock.AverageDays,
			SlowMovingCount: stock.SlowMoving,
			SlowMovingDays:  s.slowDays,
			TotalValue:      stock.TotalValue,
		},
		Operations: Operations{
			NewListings:    ops.NewListings,
			CompletedSales: ops.CompletedSales,
			Returns:        ops.Returns,
			ReturnRate:     percent(int64(ops.Returns), int64(ops.CompletedSales)),
		},
	}
	revenue, items := totals(lines)
	prevRevenue, _ := totals(prevLines)
	report.Summary = Summary{
		TotalRevenue:  revenue,
		TotalItems:    items,
		RevenueGrowth: growth(revenue, prevRevenue),
	}
	if items > 0 {
		report.Summary.AveragePrice = int64(math.Round(float64(revenue) / float64(items)))
	}
	if stock.Count > 0 {
		// Annualised: monthly units sold against units on hand.
		report.Inventory.TurnoverRate = round1(float64(items*12) / float64(stock.Count))
	}
	return report, nil
}

// Generate renders the requested report as an HTML or PDF attachment and
// records a report activity.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Document, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Document{}, err
	}
	p, err := in.period()
	if err != nil {
		return Document{}, err
	}
	format := in.Format
	if format == "" {
		format = FormatHTML
	}
	if format == FormatPDF && s.pdf == nil {
		return Document{}, ErrPDFUnavailable
	}

	report, err := s.Monthly(ctx, p)
	if err != nil {
		return Document{}, err
	}
	html, err := RenderHTML(report, s.now())
	if err != nil {
		return Document{}, err
	}
	doc := Document{
		Filename:    fmt.Sprintf("monthly-report-%s.%s", p, format),
		ContentType: "text/html; charset=utf-8",
		Body:        html,
	}
	if format == FormatPDF {
		pdf, err := s.pdf.RenderHTML(ctx, html)
		if err != nil {
			return Document{}, fmt.Errorf("render pdf: %w", err)
		}
		doc.ContentType = "application/pdf"
		doc.Body = pdf
	}

	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "report",
		Description: fmt.Sprintf("%sの月次レポートが生成されました", p.Label()),
		UserID:      shared.ActorID(ctx),
		Metadata:    map[string]any{"reportType": "monthly", "period": p.String(), "format": string(format)},
	})
	return doc, nil
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) (int64, error) {
	return s.cache.Bump(ctx)
}

func totals(lines []SaleLine) (int64, int) {
	var (
		revenue int64
		items   int
	)
	for _, l := range lines {
		revenue += l.Revenue
		items += l.Quantity
	}
	return revenue, items
}

func categoryBreakdown(lines []SaleLine) []CategoryLine {
	total, _ := totals(lines)
	byCategory := map[string]*CategoryLine{}
	for _, l := range lines {
		c, ok := byCategory[l.Category]
		if !ok {
			c = &CategoryLine{Category: l.Category, Name: labels.Category.Label(l.Category)}
			byCategory[l.Category] = c
		}
		c.Revenue += l.Revenue
		c.Items += l.Quantity
	}
	out := make([]CategoryLine, 0, len(byCategory))
	for _, c := range byCategory {
		c.Percentage = percent(c.Revenue, total)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func topProducts(lines []SaleLine, limit int) []TopProduct {
	sorted := append([]SaleLine(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Revenue != sorted[j].Revenue {
			return sorted[i].Revenue > sorted[j].Revenue
		}
		if sorted[i].Quantity != sorted[j].Quantity {
			return sorted[i].Quantity > sorted[j].Quantity
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]TopProduct, 0, len(sorted))
	for _, l := range sorted {
		out = append(out, TopProduct{ID: l.ProductID, Name: l.Name, SKU: l.SKU, Revenue: l.Revenue, Quantity: l.Quantity})
	}
	return out
}

// growth is the month-over-month change in percent. A month following one
// without revenue counts as +100%.
func growth(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round1(float64(current-previous) / float64(previous) * 100)
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
