package types

// VendorQuoteItem is the cost of one requirement from one vendor.
type VendorQuoteItem struct {
	RequirementID string     `json:"requirement_id"`
	ProductID     string     `json:"product_id"`
	ProductName   string     `json:"product_name"`
	UnitsNeeded   float64    `json:"units_needed"`
	MaterialCost  float64    `json:"material_cost"`
	LaborCost     float64    `json:"labor_cost"`
	TestingCost   float64    `json:"testing_cost"`
	Tests         []TestLine `json:"tests"`
	MatchScore    float64    `json:"match_score"`
}

// TestLine is one line of the testing schedule.
type TestLine struct {
	Name     string  `json:"name"`
	Cost     float64 `json:"cost"`
	Required bool    `json:"required"`
}

// VendorQuote is a priced bid from one vendor.
type VendorQuote struct {
	Vendor               string            `json:"vendor"`
	Items                []VendorQuoteItem `json:"items"`
	MaterialCost         float64           `json:"material_cost"`
	LaborCost            float64           `json:"labor_cost"`
	TestingCost          float64           `json:"testing_cost"`
	OverheadCost         float64           `json:"overhead_cost"`
	VolumeDiscount       float64           `json:"volume_discount"`
	DiscountRate         float64           `json:"discount_rate"`
	TotalArea            float64           `json:"total_area"`
	FinalPrice           float64           `json:"final_price"`
	AvgReliability       float64           `json:"avg_reliability"`
	MaxLeadTime          int               `json:"max_lead_time"`
	CompetitivenessScore float64           `json:"competitiveness_score"`
}

// Selection is the vendor selector's recommendation.
type Selection struct {
	RecommendedVendor string       `json:"recommended_vendor"`
	Recommended       *VendorQuote `json:"recommended"`
	Cheapest          string       `json:"cheapest"`
	MostReliable      string       `json:"most_reliable"`
	Fastest           string       `json:"fastest"`
	Ranking           []string     `json:"ranking"`
}

// MarketPosition classifies how competitive a bid is.
type MarketPosition string

// Market positions.
const (
	PositionStrong   MarketPosition = "Strong"
	PositionModerate MarketPosition = "Moderate"
	PositionWeak     MarketPosition = "Weak"
)

// Strategy summarises the market picture across quotes.
type Strategy struct {
	AverageMarketPrice float64        `json:"average_market_price"`
	LowestPrice        float64        `json:"lowest_price"`
	HighestPrice       float64        `json:"highest_price"`
	MarketPosition     MarketPosition `json:"market_position"`
	PriceAdvantagePct  float64        `json:"price_advantage_pct"`
	RushPrice          float64        `json:"rush_price"`
	Recommendations    []string       `json:"recommendations"`
}
