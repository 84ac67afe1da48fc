package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntities(t *testing.T) {
	text := `Painting of 30,000 sq ft exterior facade and 15,000 sqft interior corridors.
Coverage must be at least 140 sq ft per liter. Labor allowance $4,500.00.
Acrylic emulsion with primer, compliant with IS 15489 and GREENGUARD.
Submission deadline: 3/5/2025.`

	e := ExtractEntities(text)

	assert.Equal(t, []float64{30000, 15000}, e.Areas)
	assert.Equal(t, []float64{140}, e.Coverages)
	assert.Equal(t, []float64{4500}, e.Costs)
	assert.Equal(t, []string{"3/5/2025"}, e.Dates)
	assert.Equal(t, []string{"acrylic", "emulsion", "primer"}, e.Materials)
	assert.Equal(t, []string{"IS 15489", "GREENGUARD"}, e.Certifications)
}

func TestExtractEntities_NoMatches(t *testing.T) {
	e := ExtractEntities("Please quote for repainting the office.")
	assert.True(t, e.Empty())
	assert.Empty(t, e.Materials)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "2025-01-31", want: "2025-01-31"},
		{raw: "3/5/2025", want: "2025-03-05"},
		{raw: "12-01-2024", want: "2024-12-01"},
		{raw: "March 5, 2025", want: "2025-03-05"},
		{raw: "dec 1 2024", want: "2024-12-01"},
		{raw: "13/40/2025", wantErr: true},
		{raw: "soon", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, parsed, err := NormalizeDate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, parsed.Format("2006-01-02"))
		})
	}
}

func TestDeadlinePattern_MonthName(t *testing.T) {
	e := ExtractEntities("Bids are due on January 15, 2025 at noon.")
	require.Len(t, e.Dates, 1)
	iso, _, err := NormalizeDate(e.Dates[0])
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", iso)
}

func TestDetectUrgency(t *testing.T) {
	assert.Equal(t, "Normal", DetectUrgency("routine repaint").Level)
	assert.Equal(t, "Medium", DetectUrgency("this is urgent").Level)
	high := DetectUrgency("URGENT, please respond ASAP")
	assert.Equal(t, "High", high.Level)
	assert.InDelta(t, 0.7, high.Score, 1e-9)
	assert.Equal(t, "Critical", DetectUrgency("urgent emergency rush job").Level)
}

func TestAnalyzeComplexity(t *testing.T) {
	e := ExtractEntities("30,000 sq ft and 15,000 sq ft in acrylic primer per ISO 9001 and LEED")
	c := AnalyzeComplexity("short", e)
	// 2 areas, 2 materials, 2 certifications
	assert.InDelta(t, 20+30+40+0.05, c.Score, 1e-9)
	assert.Equal(t, "Very Complex", c.Level)

	assert.Equal(t, "Simple", AnalyzeComplexity("short", nil).Level)
}
