package history

import (
	"time"

	"github.com/jonathan/rfp-agent/internal/types"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// SeedRecords is a small demo dataset of past paint-supply bids, oldest first.
func SeedRecords() []types.HistoricalRecord {
	return []types.HistoricalRecord{
		{ID: "H008", RFPTitle: "Government Office", Vendor: "Berger Paints", FinalPrice: 145000, MatchScore: 87, Status: types.StatusWon, Area: 80000, SubmittedAt: day("2024-07-10")},
		{ID: "H007", RFPTitle: "Apartment Complex", Vendor: "Nerolac Paints", FinalPrice: 78000, MatchScore: 91, Status: types.StatusWon, Area: 42000, SubmittedAt: day("2024-07-25")},
		{ID: "H006", RFPTitle: "Shopping Mall", Vendor: "Asian Paints", FinalPrice: 185000, MatchScore: 85, Status: types.StatusLost, Area: 95000, SubmittedAt: day("2024-08-20")},
		{ID: "H005", RFPTitle: "Hospital Wing", Vendor: "Berger Paints", FinalPrice: 112000, MatchScore: 94, Status: types.StatusWon, Area: 62000, SubmittedAt: day("2024-08-30")},
		{ID: "H004", RFPTitle: "School Building", Vendor: "Asian Paints", FinalPrice: 52000, MatchScore: 88, Status: types.StatusWon, Area: 28000, SubmittedAt: day("2024-09-15")},
		{ID: "H003", RFPTitle: "Industrial Facility", Vendor: "Nerolac Paints", FinalPrice: 134000, MatchScore: 89, Status: types.StatusPending, Area: 75000, SubmittedAt: day("2024-09-28")},
		{ID: "H002", RFPTitle: "Residential Tower", Vendor: "Berger Paints", FinalPrice: 67500, MatchScore: 78, Status: types.StatusLost, Area: 35000, SubmittedAt: day("2024-10-08")},
		{ID: "H001", RFPTitle: "Office Complex", Vendor: "Asian Paints", FinalPrice: 95000, MatchScore: 92, Status: types.StatusWon, Area: 50000, SubmittedAt: day("2024-10-15")},
	}
}
