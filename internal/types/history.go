package types

import "time"

// Bid outcomes.
const (
	StatusWon     = "Won"
	StatusLost    = "Lost"
	StatusPending = "Pending"
)

// HistoricalRecord is a past bid.
type HistoricalRecord struct {
	ID          string    `json:"id"`
	RFPTitle    string    `json:"rfp_title"`
	Vendor      string    `json:"vendor"`
	FinalPrice  float64   `json:"final_price"`
	MatchScore  float64   `json:"match_score"`
	Status      string    `json:"status"`
	Area        float64   `json:"area"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Decided reports whether the bid has a known outcome.
func (h HistoricalRecord) Decided() bool {
	return h.Status == StatusWon || h.Status == StatusLost
}

// VendorPerformance aggregates historical bids for one vendor.
type VendorPerformance struct {
	Vendor        string  `json:"vendor"`
	TotalBids     int     `json:"total_bids"`
	Won           int     `json:"won"`
	Lost          int     `json:"lost"`
	WinRate       float64 `json:"win_rate"`
	AvgMatchScore float64 `json:"avg_match_score"`
	AvgPrice      float64 `json:"avg_price"`
}
