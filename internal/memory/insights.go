package memory

import (
	"context"
	"math"
	"sort"
)

// Insights summarises a set of recalled runs.
type Insights struct {
	HasInsights       bool     `json:"has_insights"`
	Message           string   `json:"message,omitempty"`
	SimilarCount      int      `json:"similar_count"`
	AvgMatchScore     int      `json:"avg_match_score"`
	AvgWinProbability int      `json:"avg_win_probability"`
	AvgPrice          int      `json:"avg_price"`
	MostCommonVendor  string   `json:"most_common_vendor,omitempty"`
	VendorFrequency   int      `json:"vendor_frequency"`
	Recommendations   []string `json:"recommendations"`
}

// Statistics summarises everything remembered.
type Statistics struct {
	TotalRFPs         int    `json:"total_rfps"`
	AvgMatchScore     int    `json:"avg_match_score"`
	AvgWinProbability int    `json:"avg_win_probability"`
	TopVendor         string `json:"top_vendor,omitempty"`
	TopVendorCount    int    `json:"top_vendor_count"`
}

// Summarize derives insights from recalled runs.
func Summarize(similar []Recalled) Insights {
	if len(similar) == 0 {
		return Insights{Message: "No similar past RFPs found for comparison"}
	}
	entries := make([]Entry, len(similar))
	for i, r := range similar {
		entries[i] = r.Entry
	}
	match, win, price := averages(entries)
	vendor, count := mostCommonVendor(entries)

	var recs []string
	switch {
	case match > 85:
		recs = append(recs, "Similar past RFPs had high match scores - good alignment expected")
	case match < 70:
		recs = append(recs, "Similar past RFPs had lower match scores - consider spec adjustments")
	}
	switch {
	case win > 75:
		recs = append(recs, "Historical data suggests high win probability for similar RFPs")
	case win < 50:
		recs = append(recs, "Similar RFPs had lower win rates - review pricing strategy")
	}

	return Insights{
		HasInsights:       true,
		SimilarCount:      len(entries),
		AvgMatchScore:     int(math.Round(match)),
		AvgWinProbability: int(math.Round(win)),
		AvgPrice:          int(math.Round(price)),
		MostCommonVendor:  vendor,
		VendorFrequency:   count,
		Recommendations:   recs,
	}
}

// Statistics reports aggregate figures over every remembered run.
func (m *LearningMemory) Statistics(ctx context.Context) (Statistics, error) {
	entries, err := m.Entries(ctx)
	if err != nil || len(entries) == 0 {
		return Statistics{}, err
	}
	match, win, _ := averages(entries)
	vendor, count := mostCommonVendor(entries)
	return Statistics{
		TotalRFPs:         len(entries),
		AvgMatchScore:     int(math.Round(match)),
		AvgWinProbability: int(math.Round(win)),
		TopVendor:         vendor,
		TopVendorCount:    count,
	}, nil
}

func averages(entries []Entry) (match, win, price float64) {
	for _, e := range entries {
		match += e.MatchScore
		win += float64(e.WinProbability)
		price += e.FinalPrice
	}
	n := float64(len(entries))
	return match / n, win / n, price / n
}

// mostCommonVendor breaks ties by name.
func mostCommonVendor(entries []Entry) (string, int) {
	counts := map[string]int{}
	for _, e := range entries {
		if e.RecommendedVendor != "" {
			counts[e.RecommendedVendor]++
		}
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return "", 0
	}
	return names[0], counts[names[0]]
}
