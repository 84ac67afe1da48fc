package catalog

import "github.com/jonathan/rfp-agent/internal/types"

func rel(v float64) *float64 { return &v }

// Default returns the built-in three-vendor catalog. Each call returns a
// fresh copy.
func Default() *types.Catalog {
	return &types.Catalog{Vendors: []types.VendorCatalog{
		{Name: "Asian Paints", Products: []types.Product{
			{ID: "AP001-A", Name: "Apex Ultima Exterior Emulsion", Vendor: "Asian Paints", Category: "Exterior", Finish: "Matt", Coverage: 140, Durability: 12, Cost: 285.50, Reliability: rel(95), LeadTime: 7},
			{ID: "AP002-B", Name: "Royale Luxury Emulsion", Vendor: "Asian Paints", Category: "Interior", Finish: "Silk", Coverage: 120, Durability: 10, Cost: 320.75, Reliability: rel(92), LeadTime: 5},
			{ID: "AP003-C", Name: "Tractor Emulsion Economy", Vendor: "Asian Paints", Category: "Interior", Finish: "Matt", Coverage: 110, Durability: 8, Cost: 180.25, Reliability: rel(88), LeadTime: 3},
		}},
		{Name: "Berger Paints", Products: []types.Product{
			{ID: "BP001-X", Name: "WeatherCoat Long Life", Vendor: "Berger Paints", Category: "Exterior", Finish: "Smooth", Coverage: 135, Durability: 15, Cost: 295.80, Reliability: rel(97), LeadTime: 10},
			{ID: "BP002-Y", Name: "Silk Glamour Interior", Vendor: "Berger Paints", Category: "Interior", Finish: "Silk", Coverage: 125, Durability: 8, Cost: 245.60, Reliability: rel(90), LeadTime: 4},
		}},
		{Name: "Nerolac Paints", Products: []types.Product{
			{ID: "NP001-M", Name: "Excel Total Exterior", Vendor: "Nerolac Paints", Category: "Exterior", Finish: "Sheen", Coverage: 130, Durability: 12, Cost: 275.90, Reliability: rel(94), LeadTime: 8},
		}},
	}}
}
