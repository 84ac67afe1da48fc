// Package semantic scores how alike two short product or requirement texts are.
package semantic

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Weights of the combined lexical score.
const (
	CosineWeight  = 0.5
	KeywordWeight = 0.3
	FuzzyWeight   = 0.2
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
}

var synonyms = map[string][]string{
	"matt":              {"matte", "flat", "non-glossy"},
	"silk":              {"satin", "semi-gloss", "eggshell"},
	"gloss":             {"glossy", "shiny", "high-gloss"},
	"exterior":          {"external", "outdoor", "outside"},
	"interior":          {"internal", "indoor", "inside"},
	"weather-resistant": {"weatherproof", "weather-proof", "all-weather"},
	"durable":           {"long-lasting", "hard-wearing", "robust"},
	"coverage":          {"spread", "covering", "application-rate"},
	"emulsion":          {"paint", "coating", "finish"},
}

// Breakdown holds the individual lexical scores.
type Breakdown struct {
	Cosine   float64 `json:"cosine"`
	Keyword  float64 `json:"keyword"`
	Fuzzy    float64 `json:"fuzzy"`
	Combined float64 `json:"combined"`
}

// Lexical compares texts without any external model.
type Lexical struct{}

// NewLexical returns a Lexical similarity.
func NewLexical() *Lexical { return &Lexical{} }

// Similarity returns the combined score in [0,1]. It never fails.
func (Lexical) Similarity(_ context.Context, a, b string) (float64, error) {
	return Compare(a, b).Combined, nil
}

// Compare computes every lexical score for a and b.
func Compare(a, b string) Breakdown {
	c := Cosine(a, b)
	k := Keyword(a, b)
	f := Fuzzy(a, b)
	return Breakdown{
		Cosine:   c,
		Keyword:  k,
		Fuzzy:    f,
		Combined: c*CosineWeight + k*KeywordWeight + f*FuzzyWeight,
	}
}

func words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := fields[:0]
	for _, w := range fields {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// Cosine is the bag-of-words cosine similarity of a and b.
func Cosine(a, b string) float64 {
	va, vb := termCounts(words(a)), termCounts(words(b))
	vocab := make(map[string]bool, len(va)+len(vb))
	for w := range va {
		vocab[w] = true
	}
	for w := range vb {
		vocab[w] = true
	}
	x := make([]float64, 0, len(vocab))
	y := make([]float64, 0, len(vocab))
	for _, w := range sortedKeys(vocab) {
		x = append(x, va[w])
		y = append(y, vb[w])
	}
	return CosineVectors(x, y)
}

// CosineVectors returns 0 for mismatched lengths or zero vectors.
func CosineVectors(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func termCounts(ws []string) map[string]float64 {
	m := make(map[string]float64, len(ws))
	for _, w := range ws {
		m[w]++
	}
	return m
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keywords returns the distinct non-stop-words of text.
func Keywords(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words(text) {
		if !stopWords[w] {
			set[w] = true
		}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|, or 0 when both are empty.
func Jaccard(a, b map[string]bool) float64 {
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Keyword is the Jaccard overlap of the keywords of a and b.
func Keyword(a, b string) float64 {
	return Jaccard(Keywords(a), Keywords(b))
}

// Levenshtein is the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Fuzzy is 1 - distance/maxLen over the lower-cased strings.
func Fuzzy(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(Levenshtein(a, b))/float64(maxLen)
}

// Synonyms returns the paint-trade synonym group containing term, led by
// its canonical form. Unknown terms return themselves.
func Synonyms(term string) []string {
	t := strings.ToLower(term)
	if syn, ok := synonyms[t]; ok {
		return append([]string{t}, syn...)
	}
	for key, syn := range synonyms {
		for _, s := range syn {
			if s == t {
				return append([]string{key}, syn...)
			}
		}
	}
	return []string{t}
}

// TermMatch is the outcome of MatchTerms.
type TermMatch struct {
	Match bool    `json:"match"`
	Score float64 `json:"score"`
	Kind  string  `json:"kind"` // exact, fuzzy or none
}

// MatchTerms compares two terms through their synonym groups. A fuzzy
// match needs a ratio above 0.8.
func MatchTerms(a, b string) TermMatch {
	sa, sb := Synonyms(a), Synonyms(b)
	best := 0.0
	for _, x := range sa {
		for _, y := range sb {
			if x == y {
				return TermMatch{Match: true, Score: 1, Kind: "exact"}
			}
			best = max(best, Fuzzy(x, y))
		}
	}
	if best > 0.8 {
		return TermMatch{Match: true, Score: best, Kind: "fuzzy"}
	}
	return TermMatch{Score: best, Kind: "none"}
}
