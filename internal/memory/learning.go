package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Defaults of LearningMemory.
const (
	DefaultKey       = "rfp:learning_memory"
	DefaultThreshold = 0.75
	DefaultLimit     = 5
	DefaultCapacity  = 100
)

// Price buckets used as a feature.
const (
	PriceLow      = "low"
	PriceMedium   = "medium"
	PriceHigh     = "high"
	PriceVeryHigh = "very_high"
)

// Features describe a run for similarity comparison.
type Features struct {
	TotalArea        float64  `json:"total_area"`
	RequirementCount int      `json:"requirement_count"`
	AvgMatchScore    float64  `json:"avg_match_score"`
	PriceRange       string   `json:"price_range"`
	Urgency          string   `json:"urgency"`
	Complexity       string   `json:"complexity"`
	Keywords         []string `json:"keywords"`
	Categories       []string `json:"categories"`
}

// Entry is one remembered run.
type Entry struct {
	ID                string    `json:"id"`
	RunID             string    `json:"run_id"`
	Title             string    `json:"title"`
	Timestamp         time.Time `json:"timestamp"`
	TotalArea         float64   `json:"total_area"`
	Deadline          string    `json:"deadline"`
	MatchScore        float64   `json:"match_score"`
	RecommendedVendor string    `json:"recommended_vendor"`
	FinalPrice        float64   `json:"final_price"`
	WinProbability    int       `json:"win_probability"`
	Status            string    `json:"status"`
	Features          Features  `json:"features"`
}

// Recalled is a remembered run with its similarity to the query.
type Recalled struct {
	Entry
	Similarity        float64 `json:"similarity"`
	SimilarityPercent int     `json:"similarity_percent"`
}

// LearningMemory stores completed runs and recalls similar ones.
type LearningMemory struct {
	kv        KV
	key       string
	threshold float64
	capacity  int
	now       func() time.Time
}

// Option configures a LearningMemory.
type Option func(*LearningMemory)

// WithKey sets the KV key.
func WithKey(key string) Option { return func(m *LearningMemory) { m.key = key } }

// WithThreshold sets the minimum similarity for recall.
func WithThreshold(t float64) Option { return func(m *LearningMemory) { m.threshold = t } }

// WithCapacity caps the number of remembered runs.
func WithCapacity(n int) Option { return func(m *LearningMemory) { m.capacity = n } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *LearningMemory) { m.now = now } }

// New creates a LearningMemory over kv.
func New(kv KV, opts ...Option) *LearningMemory {
	m := &LearningMemory{
		kv:        kv,
		key:       DefaultKey,
		threshold: DefaultThreshold,
		capacity:  DefaultCapacity,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Remember stores a run. Only completed runs are worth remembering.
func (m *LearningMemory) Remember(ctx context.Context, res *types.RunResult) (*Entry, error) {
	if res == nil || res.Status != types.RunCompleted {
		return nil, fmt.Errorf("only completed runs can be remembered")
	}
	e := Entry{
		ID:         uuid.NewString(),
		RunID:      res.RunID,
		Title:      titleOf(res),
		Timestamp:  m.now().UTC(),
		MatchScore: res.OverallMatchScore,
		Status:     res.Status,
		Features:   ExtractFeatures(res),
	}
	if res.RFP != nil {
		e.TotalArea = res.RFP.TotalArea
		e.Deadline = res.RFP.DeadlineRaw
	}
	if res.Selection != nil {
		e.RecommendedVendor = res.Selection.RecommendedVendor
		if res.Selection.Recommended != nil {
			e.FinalPrice = res.Selection.Recommended.FinalPrice
		}
	}
	if res.WinProbability != nil {
		e.WinProbability = res.WinProbability.Probability
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode memory entry: %w", err)
	}
	if err := m.kv.Push(ctx, m.key, b, m.capacity); err != nil {
		return nil, err
	}
	return &e, nil
}

// Entries returns every remembered run, oldest first.
func (m *LearningMemory) Entries(ctx context.Context) ([]Entry, error) {
	raw, err := m.kv.List(ctx, m.key)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, b := range raw {
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, fmt.Errorf("failed to decode memory entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Recall returns up to limit remembered runs at or above the similarity
// threshold, most similar first. limit <= 0 means DefaultLimit.
func (m *LearningMemory) Recall(ctx context.Context, res *types.RunResult, limit int) ([]Recalled, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	entries, err := m.Entries(ctx)
	if err != nil {
		return nil, err
	}
	current := ExtractFeatures(res)

	var out []Recalled
	for _, e := range entries {
		sim := Similarity(current, e.Features)
		if sim >= m.threshold {
			out = append(out, Recalled{Entry: e, Similarity: sim, SimilarityPercent: int(math.Round(sim * 100))})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Clear forgets every run.
func (m *LearningMemory) Clear(ctx context.Context) error {
	return m.kv.Delete(ctx, m.key)
}

func titleOf(res *types.RunResult) string {
	if res.Title != "" {
		return res.Title
	}
	return "Untitled RFP"
}

// ExtractFeatures derives comparison features from a run.
func ExtractFeatures(res *types.RunResult) Features {
	f := Features{Urgency: "standard", Complexity: "medium", PriceRange: PriceLow}
	if res == nil {
		return f
	}
	f.AvgMatchScore = res.OverallMatchScore
	f.Keywords = keywords(titleOf(res))
	if res.RFP != nil {
		f.TotalArea = res.RFP.TotalArea
		f.RequirementCount = len(res.RFP.Requirements)
		if res.RFP.Urgency.Level != "" {
			f.Urgency = res.RFP.Urgency.Level
		}
		if res.RFP.Complexity.Level != "" {
			f.Complexity = res.RFP.Complexity.Level
		}
		f.Categories = categories(res.RFP.Requirements)
	}
	if res.Selection != nil && res.Selection.Recommended != nil {
		f.PriceRange = PriceRange(res.Selection.Recommended.FinalPrice)
	}
	return f
}

// PriceRange buckets a price.
func PriceRange(price float64) string {
	switch {
	case price < 30000:
		return PriceLow
	case price < 70000:
		return PriceMedium
	case price < 120000:
		return PriceHigh
	default:
		return PriceVeryHigh
	}
}

var titleStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
}

func keywords(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	}) {
		if len(w) > 3 && !titleStopWords[w] && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func categories(reqs []types.Requirement) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.ToLower(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, r := range reqs {
		add(string(r.ApplicationType))
		add(r.Finish)
	}
	return out
}

// Similarity is the weighted feature similarity in [0,1]: area 0.25,
// price range 0.20, urgency 0.15, complexity 0.15, title keywords 0.15
// and categories 0.10. Mismatched labels still score half.
func Similarity(a, b Features) float64 {
	area := 1.0
	if maxArea := math.Max(a.TotalArea, b.TotalArea); maxArea > 0 {
		area = 1 - math.Abs(a.TotalArea-b.TotalArea)/maxArea
	}
	label := func(x, y string) float64 {
		if x == y {
			return 1
		}
		return 0.5
	}
	return area*0.25 +
		label(a.PriceRange, b.PriceRange)*0.20 +
		label(a.Urgency, b.Urgency)*0.15 +
		label(a.Complexity, b.Complexity)*0.15 +
		jaccard(a.Keywords, b.Keywords)*0.15 +
		jaccard(a.Categories, b.Categories)*0.10
}

// jaccard treats two empty lists as identical.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	inter := 0
	union := len(set)
	seen := map[string]bool{}
	for _, y := range b {
		if seen[y] {
			continue
		}
		seen[y] = true
		if set[y] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
