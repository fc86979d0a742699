// Package analytics derives price trend, range statistics, and resale
// profitability from a product's current state and its price history.
// Everything here is pure: no I/O, nothing cached, recomputed per render.
package analytics

import (
	"errors"
	"sort"

	"price-dashboard/internal/tracker"
)

type Direction string

const (
	TrendUp        Direction = "up"
	TrendDown      Direction = "down"
	TrendUnchanged Direction = "unchanged"
)

// DefaultFeeRate is the marketplace fee assumed by the profit calculator.
const DefaultFeeRate = 0.15

var ErrNonPositivePrice = errors.New("buy and sell prices must be positive")

// SortByTime returns the history ordered by timestamp ascending. The sort
// is stable, so equal timestamps keep their original order, and sorting an
// already-sorted slice is a no-op. The input is not modified.
func SortByTime(history []tracker.PriceHistoryPoint) []tracker.PriceHistoryPoint {
	sorted := make([]tracker.PriceHistoryPoint, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// Trend compares the current price against a previous one.
func Trend(current, previous float64) Direction {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	default:
		return TrendUnchanged
	}
}

// TrendOf reports the product's price direction against the second-to-last
// history point. With fewer than two points the comparison falls back to
// the product's own current price and degenerates to unchanged.
func TrendOf(p tracker.Product, sortedHistory []tracker.PriceHistoryPoint) Direction {
	previous := p.CurrentPrice
	if len(sortedHistory) > 1 {
		previous = sortedHistory[len(sortedHistory)-2].Price
	}
	return Trend(p.CurrentPrice, previous)
}

type Stats struct {
	Min     float64
	Max     float64
	Average float64
}

// PriceStats summarizes the history together with the current price.
// Min and max always include the current price in the candidate set; the
// average is over history points only, or the current price when the
// history is empty.
func PriceStats(history []tracker.PriceHistoryPoint, currentPrice float64) Stats {
	stats := Stats{Min: currentPrice, Max: currentPrice, Average: currentPrice}
	if len(history) == 0 {
		return stats
	}

	sum := 0.0
	for _, point := range history {
		if point.Price < stats.Min {
			stats.Min = point.Price
		}
		if point.Price > stats.Max {
			stats.Max = point.Price
		}
		sum += point.Price
	}
	stats.Average = sum / float64(len(history))
	return stats
}

type ProfitBreakdown struct {
	Fees      float64
	Profit    float64
	MarginPct float64
	ROIPct    float64
}

// ProfitAnalysis computes resale profitability for buying at buyPrice and
// selling at sellPrice with a proportional marketplace fee. Non-positive
// prices are rejected: margin and ROI divide by them.
func ProfitAnalysis(buyPrice, sellPrice, feeRate float64) (ProfitBreakdown, error) {
	if buyPrice <= 0 || sellPrice <= 0 {
		return ProfitBreakdown{}, ErrNonPositivePrice
	}

	fees := sellPrice * feeRate
	profit := sellPrice - buyPrice - fees
	return ProfitBreakdown{
		Fees:      fees,
		Profit:    profit,
		MarginPct: profit / sellPrice * 100,
		ROIPct:    profit / buyPrice * 100,
	}, nil
}

// Volatility is the price range as a percentage of the average price.
func Volatility(s Stats) float64 {
	if s.Average == 0 {
		return 0
	}
	return (s.Max - s.Min) / s.Average * 100
}

// AboveLowestPct reports how far the current price sits above the lowest
// recorded one, as a percentage of the lowest.
func AboveLowestPct(current, lowest float64) float64 {
	if lowest == 0 {
		return 0
	}
	return (current - lowest) / lowest * 100
}
