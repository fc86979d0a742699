package web

import (
	"fmt"
	"math"
	"strings"
	"time"

	"price-dashboard/internal/tracker"
	"price-dashboard/internal/tracker/analytics"
)

type dashboardView struct {
	Products []tracker.Product
	Total    int
	Showing  int
	Query    string
	Status   string
	View     string
	Loading  bool
	Stale    bool
	Error    string
}

type formView struct {
	Values  tracker.CreateProductInput
	Errors  tracker.FieldErrors
	General string
	Created *tracker.Product
}

type detailView struct {
	Product        tracker.Product
	History        []tracker.PriceHistoryPoint
	Trend          analytics.Direction
	Stats          analytics.Stats
	Volatility     float64
	AboveLowestPct float64
	Chart          chartView
	SellRaw        string
	Profit         *analytics.ProfitBreakdown
	ProfitError    string
	AlertTarget    float64
	HasAlert       bool
	Stale          bool
}

type historyView struct {
	Jobs    []tracker.ScrapingJob
	Summary tracker.JobSummary
	Status  string
	Stale   bool
	Error   string
}

// chartView is a pre-computed SVG polyline of the price history.
type chartView struct {
	Empty      bool
	Width      int
	Height     int
	Points     string
	MinLabel   string
	MaxLabel   string
	StartLabel string
	EndLabel   string
}

const (
	chartWidth  = 640
	chartHeight = 240
	chartPad    = 32.0
)

// buildChart maps a sorted history onto chart coordinates. Single-point
// and flat-price series still render: the degenerate axis collapses to the
// middle of the plot.
func buildChart(history []tracker.PriceHistoryPoint) chartView {
	view := chartView{Width: chartWidth, Height: chartHeight}
	if len(history) == 0 {
		view.Empty = true
		return view
	}

	minPrice, maxPrice := history[0].Price, history[0].Price
	for _, point := range history {
		minPrice = math.Min(minPrice, point.Price)
		maxPrice = math.Max(maxPrice, point.Price)
	}
	t0 := history[0].Date
	tn := history[len(history)-1].Date

	timeSpan := tn.Sub(t0).Seconds()
	priceSpan := maxPrice - minPrice

	var b strings.Builder
	for _, point := range history {
		x := float64(chartWidth) / 2
		if timeSpan > 0 {
			x = chartPad + point.Date.Sub(t0).Seconds()/timeSpan*(float64(chartWidth)-2*chartPad)
		}
		y := float64(chartHeight) / 2
		if priceSpan > 0 {
			y = float64(chartHeight) - chartPad - (point.Price-minPrice)/priceSpan*(float64(chartHeight)-2*chartPad)
		}
		fmt.Fprintf(&b, "%.1f,%.1f ", x, y)
	}

	view.Points = strings.TrimSpace(b.String())
	view.MinLabel = formatPrice(minPrice)
	view.MaxLabel = formatPrice(maxPrice)
	view.StartLabel = t0.Format("Jan 2")
	view.EndLabel = tn.Format("Jan 2")
	return view
}

func formatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// formatRelativeTime renders a timestamp the way the product cards do:
// "Just now", "5m ago", "3h ago", "2d ago", then a plain date.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "Never"
	}

	diff := time.Since(t)
	if diff < 0 {
		return t.Format("Jan 2, 2006")
	}

	minutes := int(diff.Minutes())
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}

	return t.Format("Jan 2, 2006")
}
