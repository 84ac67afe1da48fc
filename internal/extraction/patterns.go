package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/rfp-agent/internal/types"
)

var (
	areaPattern     = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*)\s*(?:sq\s*ft|sqft|square\s*feet)`)
	coveragePattern = regexp.MustCompile(`(?i)(\d+)\s*(?:sq\s*ft\s*per\s*liter|sqft/liter)`)
	perLiterSuffix  = regexp.MustCompile(`(?i)^\s*(?:per\s*lit(?:er|re)|/\s*lit)`)
	costPattern     = regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`)
	deadlinePattern = regexp.MustCompile(`(?i)(?:deadline|due|completion).*?(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})`)

	materialPattern      = regexp.MustCompile(`(?i)\b(emulsion|enamel|primer|distemper|putty|sealer|acrylic|epoxy|polyurethane|texture)\b`)
	certificationPattern = regexp.MustCompile(`(?i)\b(IS\s*\d+|ISO\s*\d+|IEC\s*\d+|ASTM\s*[A-Z]?\d+|GREENGUARD|LEED)\b`)
)

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func findNumbers(re *regexp.Regexp, text string) []float64 {
	var out []float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v, ok := parseNumber(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// ExtractEntities pulls areas, coverages, costs, deadlines, materials and
// certifications out of free text with regular expressions.
func ExtractEntities(text string) *types.ExtractedEntities {
	e := &types.ExtractedEntities{
		Areas:     findAreas(text),
		Coverages: findNumbers(coveragePattern, text),
		Costs:     findNumbers(costPattern, text),
	}
	for _, m := range deadlinePattern.FindAllStringSubmatch(text, -1) {
		e.Dates = append(e.Dates, m[1])
	}
	e.Materials = uniqueLower(materialPattern.FindAllString(text, -1))
	for _, c := range certificationPattern.FindAllString(text, -1) {
		e.Certifications = append(e.Certifications, strings.ToUpper(strings.Join(strings.Fields(c), " ")))
	}
	return e
}

// findAreas skips "N sq ft per liter" spread rates.
func findAreas(text string) []float64 {
	var out []float64
	for _, idx := range areaPattern.FindAllStringSubmatchIndex(text, -1) {
		if perLiterSuffix.MatchString(text[idx[1]:]) {
			continue
		}
		if v, ok := parseNumber(text[idx[2]:idx[3]]); ok {
			out = append(out, v)
		}
	}
	return out
}

func uniqueLower(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.ToLower(s)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

var monthLayouts = []string{"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006", "Jan. 2, 2006"}

// NormalizeDate converts YYYY-MM-DD, M/D/YYYY, M-D-YYYY or "Month D, YYYY"
// into a YYYY-MM-DD string and its parsed time.
func NormalizeDate(raw string) (string, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return raw, t, nil
	}

	sep := ""
	switch {
	case strings.Count(raw, "/") == 2:
		sep = "/"
	case strings.Count(raw, "-") == 2:
		sep = "-"
	}
	if sep != "" {
		parts := strings.Split(raw, sep)
		m, errM := strconv.Atoi(parts[0])
		d, errD := strconv.Atoi(parts[1])
		if errM == nil && errD == nil && len(parts[2]) == 4 {
			iso := fmt.Sprintf("%s-%02d-%02d", parts[2], m, d)
			if t, err := time.Parse("2006-01-02", iso); err == nil {
				return iso, t, nil
			}
		}
	}

	if raw == "" {
		return "", time.Time{}, fmt.Errorf("empty date")
	}
	title := strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, title); err == nil {
			return t.Format("2006-01-02"), t, nil
		}
	}
	return "", time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
