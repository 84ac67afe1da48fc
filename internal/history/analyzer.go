// Package history analyses past bids: vendor performance, win prediction and price forecasts.
package history

import (
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/rfp-agent/internal/types"
)

const (
	// minWinPatterns is the number of decided bids needed before similar-case prediction is used.
	minWinPatterns = 5

	similarMatchDelta = 15.0
	similarPriceRatio = 0.3

	priceHistoryLimit = 100
	trendWindow       = 10
)

// Performance aggregates bids per vendor, sorted by win rate descending then name.
func Performance(records []types.HistoricalRecord) []types.VendorPerformance {
	byVendor := make(map[string]*types.VendorPerformance)
	var order []string
	for _, r := range records {
		p, ok := byVendor[r.Vendor]
		if !ok {
			p = &types.VendorPerformance{Vendor: r.Vendor}
			byVendor[r.Vendor] = p
			order = append(order, r.Vendor)
		}
		p.TotalBids++
		switch r.Status {
		case types.StatusWon:
			p.Won++
		case types.StatusLost:
			p.Lost++
		}
		p.AvgMatchScore += r.MatchScore
		p.AvgPrice += r.FinalPrice
	}

	out := make([]types.VendorPerformance, 0, len(order))
	for _, v := range order {
		p := byVendor[v]
		n := float64(p.TotalBids)
		p.AvgMatchScore /= n
		p.AvgPrice /= n
		p.WinRate = float64(p.Won) / n * 100
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Vendor < out[j].Vendor
	})
	return out
}

// VendorPerformance returns the aggregate for one vendor.
func VendorPerformance(records []types.HistoricalRecord, vendor string) (types.VendorPerformance, bool) {
	for _, p := range Performance(records) {
		if p.Vendor == vendor {
			return p, true
		}
	}
	return types.VendorPerformance{}, false
}

// BaselineWinFactor is the heuristic used when history is too sparse.
func BaselineWinFactor(matchScore, price float64) float64 {
	p := 50.0
	switch {
	case matchScore >= 90:
		p += 30
	case matchScore >= 80:
		p += 20
	case matchScore >= 70:
		p += 10
	case matchScore < 60:
		p -= 20
	}
	switch {
	case price < 50000:
		p += 10
	case price > 100000:
		p -= 10
	}
	return clamp(p)
}

// PredictWinFactor estimates a 0-100 win likelihood from decided bids similar
// in match score and price. It falls back to BaselineWinFactor when there are
// fewer than five decided bids or no similar ones.
func PredictWinFactor(records []types.HistoricalRecord, matchScore, price float64, vendor string) float64 {
	var decided []types.HistoricalRecord
	for _, r := range records {
		if r.Decided() {
			decided = append(decided, r)
		}
	}
	if len(decided) < minWinPatterns || price <= 0 {
		return BaselineWinFactor(matchScore, price)
	}

	var similar, wins int
	for _, r := range decided {
		if math.Abs(r.MatchScore-matchScore) < similarMatchDelta &&
			math.Abs(r.FinalPrice-price)/price < similarPriceRatio {
			similar++
			if r.Status == types.StatusWon {
				wins++
			}
		}
	}
	if similar == 0 {
		return BaselineWinFactor(matchScore, price)
	}

	winRate := float64(wins) / float64(similar) * 100
	adjustment := 0.0
	if perf, ok := VendorPerformance(records, vendor); ok {
		adjustment = (perf.WinRate - 50) * 0.2
	}
	return clamp(winRate + adjustment)
}

// Forecast is a projected price for an area.
type Forecast struct {
	Available       bool    `json:"available"`
	Message         string  `json:"message,omitempty"`
	Forecast        float64 `json:"forecast"`
	BasePrice       float64 `json:"base_price"`
	TrendAdjustment float64 `json:"trend_adjustment"`
	AvgPricePerSqFt float64 `json:"avg_price_per_sqft"`
	Confidence      string  `json:"confidence"`
	DataPoints      int     `json:"data_points"`
	Trend           string  `json:"trend"`
}

type pricePoint struct {
	vendor       string
	pricePerSqFt float64
}

func priceHistory(records []types.HistoricalRecord) []pricePoint {
	sorted := make([]types.HistoricalRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt) })
	if len(sorted) > priceHistoryLimit {
		sorted = sorted[len(sorted)-priceHistoryLimit:]
	}
	out := make([]pricePoint, 0, len(sorted))
	for _, r := range sorted {
		pp := 0.0
		if r.Area > 0 {
			pp = r.FinalPrice / r.Area
		}
		out = append(out, pricePoint{vendor: r.Vendor, pricePerSqFt: pp})
	}
	return out
}

// PriceForecast projects the price of area from price-per-sq-ft history,
// optionally restricted to one vendor when it has enough points.
func PriceForecast(records []types.HistoricalRecord, area float64, vendor string) Forecast {
	points := priceHistory(records)
	if len(points) < 3 {
		return Forecast{Confidence: "Low", Message: "Insufficient historical data"}
	}
	relevant := points
	if vendor != "" {
		var own []pricePoint
		for _, p := range points {
			if p.vendor == vendor {
				own = append(own, p)
			}
		}
		if len(own) >= 3 {
			relevant = own
		}
	}

	values := make([]float64, len(relevant))
	for i, p := range relevant {
		values[i] = p.pricePerSqFt
	}
	avg := mean(values)
	slope := trend(values)
	spread := variance(values)

	f := Forecast{
		Available:       true,
		BasePrice:       math.Round(avg * area),
		TrendAdjustment: math.Round(slope * area),
		AvgPricePerSqFt: math.Round(avg*100) / 100,
		DataPoints:      len(relevant),
	}
	f.Forecast = math.Round(avg*area + slope*area)
	switch {
	case spread < 10:
		f.Confidence = "High"
	case spread < 50:
		f.Confidence = "Medium"
	default:
		f.Confidence = "Low"
	}
	switch {
	case slope > 0:
		f.Trend = "Increasing"
	case slope < 0:
		f.Trend = "Decreasing"
	default:
		f.Trend = "Stable"
	}
	return f
}

// Insight is one observation drawn from history.
type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Insights summarises vendor, price and win patterns.
func Insights(records []types.HistoricalRecord) []Insight {
	var out []Insight
	if perf := Performance(records); len(perf) > 0 {
		top := perf[0]
		out = append(out, Insight{
			Type:    "vendor_performance",
			Message: fmt.Sprintf("%s has the highest win rate at %.1f%%", top.Vendor, top.WinRate),
		})
	}

	points := priceHistory(records)
	if len(points) > 5 {
		var recent, older []float64
		for i, p := range points {
			if i >= len(points)-5 {
				recent = append(recent, p.pricePerSqFt)
			} else {
				older = append(older, p.pricePerSqFt)
			}
		}
		avgRecent, avgOlder := mean(recent), mean(older)
		if avgOlder > 0 {
			change := (avgRecent - avgOlder) / avgOlder * 100
			if math.Abs(change) > 5 {
				dir := "increased"
				if change < 0 {
					dir = "decreased"
				}
				out = append(out, Insight{
					Type:    "price_trend",
					Message: fmt.Sprintf("Prices have %s by %.1f%% recently", dir, math.Abs(change)),
				})
			}
		}
	}

	var decided, won int
	var wonMatch float64
	for _, r := range records {
		if !r.Decided() {
			continue
		}
		decided++
		if r.Status == types.StatusWon {
			won++
			wonMatch += r.MatchScore
		}
	}
	if decided >= 10 && won > 0 {
		out = append(out, Insight{
			Type:    "win_pattern",
			Message: fmt.Sprintf("RFPs with match scores above %.0f%% have higher win rates", wonMatch/float64(won)),
		})
	}
	return out
}

// OverallWinRate is the share of all bids that were won, in percent.
func OverallWinRate(records []types.HistoricalRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	won := 0
	for _, r := range records {
		if r.Status == types.StatusWon {
			won++
		}
	}
	return float64(won) / float64(len(records)) * 100
}

func trend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	if len(values) > trendWindow {
		values = values[len(values)-trendWindow:]
	}
	n := float64(len(values))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	if len(values) == 0 {
		return 0
	}
	return sum / float64(len(values))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
