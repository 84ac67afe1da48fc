package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jonathan/rfp-agent/internal/semantic"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Relationship kinds between catalog products.
const (
	CompatibleWith = "compatible_with"
	AlternativeTo  = "alternative_to"
	UsedWith       = "used_with"
	SameCategory   = "same_category"
)

// Edge weights per relationship kind.
const (
	compatibleWeight   = 0.8
	alternativeWeight  = 0.9
	usedWithWeight     = 0.6
	sameCategoryWeight = 0.7
)

// DefaultRecommendations is the recommendation limit when none is given.
const DefaultRecommendations = 5

// Search scores per matching criterion.
const (
	categoryScore = 30
	finishScore   = 25
	vendorScore   = 15
	coverageScore = 10
)

// Edge is a directed relationship between two products.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

// Related is a product reached from another one.
type Related struct {
	Product      types.Product `json:"product"`
	Relationship string        `json:"relationship"`
	Weight       float64       `json:"weight"`
}

// SearchCriteria filters a graph search. Empty fields are ignored.
type SearchCriteria struct {
	Category    string  `json:"category,omitempty"`
	Finish      string  `json:"finish,omitempty"`
	Vendor      string  `json:"vendor,omitempty"`
	MinCoverage float64 `json:"min_coverage,omitempty"`
}

// Empty reports whether no criterion is set.
func (c SearchCriteria) Empty() bool {
	return c.Category == "" && c.Finish == "" && c.Vendor == "" && c.MinCoverage <= 0
}

// SearchHit is one product matched by Search.
type SearchHit struct {
	Product types.Product `json:"product"`
	Score   int           `json:"score"`
	Matches int           `json:"matches"`
}

// GraphStatistics summarises a Graph.
type GraphStatistics struct {
	TotalProducts            int      `json:"total_products"`
	TotalRelationships       int      `json:"total_relationships"`
	Categories               []string `json:"categories"`
	Vendors                  []string `json:"vendors"`
	AvgConnectionsPerProduct float64  `json:"avg_connections_per_product"`
}

// Graph links catalog products by category and finish. Edges point from a
// product to the ones listed after it in catalog order.
type Graph struct {
	products []types.Product
	index    map[string]int
	edges    map[string][]Edge
}

// NewGraph builds the product graph of c. Product ids are assumed unique
// across vendors; a repeated id keeps its first product.
func NewGraph(c *types.Catalog) *Graph {
	g := &Graph{index: make(map[string]int), edges: make(map[string][]Edge)}
	if c == nil {
		return g
	}
	for _, v := range c.Vendors {
		for _, p := range v.Products {
			if _, dup := g.index[p.ID]; dup {
				continue
			}
			if p.Vendor == "" {
				p.Vendor = v.Name
			}
			g.index[p.ID] = len(g.products)
			g.products = append(g.products, p)
		}
	}

	for i, a := range g.products {
		for _, b := range g.products[i+1:] {
			if a.Category == b.Category {
				g.link(a.ID, b.ID, CompatibleWith, compatibleWeight)
				if a.Finish == b.Finish {
					g.link(a.ID, b.ID, AlternativeTo, alternativeWeight)
				}
			}
			if a.Category == "Exterior" && b.Category == "Interior" {
				g.link(a.ID, b.ID, UsedWith, usedWithWeight)
			}
		}
	}
	return g
}

func (g *Graph) link(from, to, kind string, weight float64) {
	g.edges[from] = append(g.edges[from], Edge{From: from, To: to, Kind: kind, Weight: weight})
}

// Product returns the product with id.
func (g *Graph) Product(id string) (types.Product, bool) {
	i, ok := g.index[id]
	if !ok {
		return types.Product{}, false
	}
	return g.products[i], true
}

// Edges returns the relationships leaving id.
func (g *Graph) Edges(id string) []Edge {
	return slices.Clone(g.edges[id])
}

// Compatible returns the products id is compatible with or an alternative to.
// A product related both ways appears once per relationship.
func (g *Graph) Compatible(id string) []Related {
	var out []Related
	for _, e := range g.edges[id] {
		if e.Kind != CompatibleWith && e.Kind != AlternativeTo {
			continue
		}
		if p, ok := g.Product(e.To); ok {
			out = append(out, Related{Product: p, Relationship: e.Kind, Weight: e.Weight})
		}
	}
	return out
}

// ByCategory returns every product in category, ignoring case.
func (g *Graph) ByCategory(category string) []types.Product {
	var out []types.Product
	for _, p := range g.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Recommendations returns up to limit products related to id, strongest
// first. Compatible products come with their edge weight and the rest of
// the category follows at a lower weight. Each product appears once.
func (g *Graph) Recommendations(id string, limit int) []Related {
	src, ok := g.Product(id)
	if !ok {
		return nil
	}
	if limit <= 0 {
		limit = DefaultRecommendations
	}

	var out []Related
	seen := make(map[string]int)
	for _, r := range g.Compatible(id) {
		if i, dup := seen[r.Product.ID]; dup {
			if r.Weight > out[i].Weight {
				out[i] = r
			}
			continue
		}
		seen[r.Product.ID] = len(out)
		out = append(out, r)
	}
	for _, p := range g.ByCategory(src.Category) {
		if _, dup := seen[p.ID]; dup || p.ID == id {
			continue
		}
		seen[p.ID] = len(out)
		out = append(out, Related{Product: p, Relationship: SameCategory, Weight: sameCategoryWeight})
	}

	slices.SortStableFunc(out, func(a, b Related) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Clusters groups products by category. Products without one land in
// "uncategorized".
func (g *Graph) Clusters() map[string][]types.Product {
	out := make(map[string][]types.Product)
	for _, p := range g.products {
		key := p.Category
		if key == "" {
			key = "uncategorized"
		}
		out[key] = append(out[key], p)
	}
	return out
}

// Search scores every product against c and returns those matching at
// least one criterion, best first. Category and finish are compared
// through the trade synonym groups, so "matte" finds "Matt".
func (g *Graph) Search(c SearchCriteria) []SearchHit {
	var out []SearchHit
	for _, p := range g.products {
		hit := SearchHit{Product: p}
		if c.Category != "" && semantic.MatchTerms(c.Category, p.Category).Match {
			hit.Score += categoryScore
			hit.Matches++
		}
		if c.Finish != "" && semantic.MatchTerms(c.Finish, p.Finish).Match {
			hit.Score += finishScore
			hit.Matches++
		}
		if c.Vendor != "" && strings.EqualFold(c.Vendor, p.Vendor) {
			hit.Score += vendorScore
			hit.Matches++
		}
		if c.MinCoverage > 0 && p.Coverage >= c.MinCoverage {
			hit.Score += coverageScore
			hit.Matches++
		}
		if hit.Matches > 0 {
			out = append(out, hit)
		}
	}
	slices.SortStableFunc(out, func(a, b SearchHit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Statistics counts products, relationships, categories and vendors.
func (g *Graph) Statistics() GraphStatistics {
	stats := GraphStatistics{
		TotalProducts: len(g.products),
		Categories:    []string{},
		Vendors:       []string{},
	}
	for _, p := range g.products {
		if p.Category != "" && !slices.Contains(stats.Categories, p.Category) {
			stats.Categories = append(stats.Categories, p.Category)
		}
		if p.Vendor != "" && !slices.Contains(stats.Vendors, p.Vendor) {
			stats.Vendors = append(stats.Vendors, p.Vendor)
		}
	}
	for _, edges := range g.edges {
		stats.TotalRelationships += len(edges)
	}
	if stats.TotalProducts > 0 {
		stats.AvgConnectionsPerProduct = float64(stats.TotalRelationships) / float64(stats.TotalProducts)
	}
	return stats
}
