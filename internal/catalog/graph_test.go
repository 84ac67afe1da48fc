package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/rfp-agent/internal/types"
)

func ids(products []types.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func relatedIDs(rs []Related) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Product.ID + ":" + r.Relationship
	}
	return out
}

func TestGraph_Edges(t *testing.T) {
	g := NewGraph(Default())

	assert.Equal(t, []Edge{
		{From: "AP001-A", To: "AP002-B", Kind: UsedWith, Weight: 0.6},
		{From: "AP001-A", To: "AP003-C", Kind: UsedWith, Weight: 0.6},
		{From: "AP001-A", To: "BP001-X", Kind: CompatibleWith, Weight: 0.8},
		{From: "AP001-A", To: "BP002-Y", Kind: UsedWith, Weight: 0.6},
		{From: "AP001-A", To: "NP001-M", Kind: CompatibleWith, Weight: 0.8},
	}, g.Edges("AP001-A"))

	// edges only point forward in catalog order
	assert.Empty(t, g.Edges("NP001-M"))
}

func TestGraph_Compatible(t *testing.T) {
	g := NewGraph(Default())

	got := g.Compatible("AP002-B")
	assert.Equal(t, []string{
		"AP003-C:" + CompatibleWith,
		"BP002-Y:" + CompatibleWith,
		"BP002-Y:" + AlternativeTo,
	}, relatedIDs(got))
	assert.Equal(t, 0.9, got[2].Weight)

	assert.Empty(t, g.Compatible("missing"))
}

func TestGraph_Recommendations(t *testing.T) {
	g := NewGraph(Default())

	got := g.Recommendations("AP002-B", 0)
	assert.Equal(t, []string{"BP002-Y:" + AlternativeTo, "AP003-C:" + CompatibleWith}, relatedIDs(got))

	got = g.Recommendations("NP001-M", 5)
	assert.Equal(t, []string{"AP001-A:" + SameCategory, "BP001-X:" + SameCategory}, relatedIDs(got))
	assert.Equal(t, 0.7, got[0].Weight)

	assert.Len(t, g.Recommendations("AP001-A", 1), 1)
	assert.Nil(t, g.Recommendations("missing", 5))
}

func TestGraph_Clusters(t *testing.T) {
	c := Default()
	c.Vendors[2].Products = append(c.Vendors[2].Products, types.Product{ID: "NP002-Z", Name: "Primer", Finish: "Matt", Coverage: 100})

	clusters := NewGraph(c).Clusters()
	require.Len(t, clusters, 3)
	assert.Equal(t, []string{"AP001-A", "BP001-X", "NP001-M"}, ids(clusters["Exterior"]))
	assert.Equal(t, []string{"AP002-B", "AP003-C", "BP002-Y"}, ids(clusters["Interior"]))
	assert.Equal(t, []string{"NP002-Z"}, ids(clusters["uncategorized"]))
	assert.Equal(t, "Nerolac Paints", clusters["uncategorized"][0].Vendor)
}

func TestGraph_Search(t *testing.T) {
	g := NewGraph(Default())

	tests := []struct {
		name     string
		criteria SearchCriteria
		want     []string
		scores   []int
	}{
		{
			name:     "finish synonym",
			criteria: SearchCriteria{Finish: "matte"},
			want:     []string{"AP001-A", "AP003-C"},
			scores:   []int{25, 25},
		},
		{
			name:     "category and coverage",
			criteria: SearchCriteria{Category: "exterior", MinCoverage: 135},
			want:     []string{"AP001-A", "BP001-X", "NP001-M"},
			scores:   []int{40, 40, 30},
		},
		{
			name:     "vendor outranks coverage",
			criteria: SearchCriteria{Vendor: "berger paints", MinCoverage: 140},
			want:     []string{"BP001-X", "BP002-Y", "AP001-A"},
			scores:   []int{15, 15, 10},
		},
		{
			name:     "nothing matches",
			criteria: SearchCriteria{Finish: "gloss"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := g.Search(tt.criteria)
			require.Len(t, hits, len(tt.want))
			for i, h := range hits {
				assert.Equal(t, tt.want[i], h.Product.ID)
				assert.Equal(t, tt.scores[i], h.Score)
			}
		})
	}
}

func TestGraph_Statistics(t *testing.T) {
	stats := NewGraph(Default()).Statistics()
	assert.Equal(t, 6, stats.TotalProducts)
	assert.Equal(t, 11, stats.TotalRelationships)
	assert.Equal(t, []string{"Exterior", "Interior"}, stats.Categories)
	assert.Equal(t, []string{"Asian Paints", "Berger Paints", "Nerolac Paints"}, stats.Vendors)
	assert.InDelta(t, 11.0/6, stats.AvgConnectionsPerProduct, 1e-9)

	empty := NewGraph(nil).Statistics()
	assert.Zero(t, empty.TotalProducts)
	assert.Zero(t, empty.AvgConnectionsPerProduct)
	assert.Empty(t, empty.Categories)
}
