package extraction

import (
	"math"
	"strings"

	"github.com/jonathan/rfp-agent/internal/types"
)

var urgentKeywords = []string{
	"urgent", "asap", "immediately", "rush", "emergency",
	"critical", "priority", "expedite", "fast-track",
}

// DetectUrgency grades how pressing the RFP language is.
func DetectUrgency(text string) types.Assessment {
	lower := strings.ToLower(text)
	count := 0
	for _, k := range urgentKeywords {
		if strings.Contains(lower, k) {
			count++
		}
	}
	switch {
	case count >= 3:
		return types.Assessment{Level: "Critical", Score: 0.9}
	case count >= 2:
		return types.Assessment{Level: "High", Score: 0.7}
	case count >= 1:
		return types.Assessment{Level: "Medium", Score: 0.5}
	default:
		return types.Assessment{Level: "Normal", Score: 0.3}
	}
}

// AnalyzeComplexity scores the RFP from its entity counts and length.
func AnalyzeComplexity(text string, e *types.ExtractedEntities) types.Assessment {
	score := math.Min(float64(len(text))/100, 30)
	if e != nil {
		score += float64(len(e.Areas))*10 + float64(len(e.Materials))*15 + float64(len(e.Certifications))*20
	}
	switch {
	case score >= 80:
		return types.Assessment{Level: "Very Complex", Score: score}
	case score >= 60:
		return types.Assessment{Level: "Complex", Score: score}
	case score >= 40:
		return types.Assessment{Level: "Moderate", Score: score}
	default:
		return types.Assessment{Level: "Simple", Score: score}
	}
}
