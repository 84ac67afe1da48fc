package pricing

// volumeDiscounts is ordered by ascending threshold.
var volumeDiscounts = []struct {
	threshold float64
	rate      float64
}{
	{10000, 0.02},
	{25000, 0.05},
	{50000, 0.08},
}

// DiscountRate returns the largest volume discount whose threshold totalArea meets.
func DiscountRate(totalArea float64) float64 {
	rate := 0.0
	for _, d := range volumeDiscounts {
		if totalArea >= d.threshold {
			rate = d.rate
		}
	}
	return rate
}
