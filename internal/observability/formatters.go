// Package observability provides formatted output for verbose CLI mode and
// tracing spans for pipeline stages.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/rfp-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRFP outputs the extracted requirements.
func (p *Printer) PrintRFP(rfp *types.RFPData) {
	if rfp == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Deadline:   %s\n", rfp.DeadlineRaw)
	fmt.Fprintf(&sb, "Total area: %.0f sq ft\n", rfp.TotalArea)
	fmt.Fprintf(&sb, "Source:     %s\n", rfp.Source)
	fmt.Fprintf(&sb, "Urgency:    %s   Complexity: %s\n\n", rfp.Urgency.Level, rfp.Complexity.Level)

	for _, r := range rfp.Requirements {
		fmt.Fprintf(&sb, "• %s  %s %s, %.0f sq ft\n", r.ID, r.ApplicationType, r.Finish, r.Area)
		if r.Coverage != nil || r.MinDurability != nil {
			sb.WriteString("   ")
			if r.Coverage != nil {
				fmt.Fprintf(&sb, " coverage ≥%.0f", *r.Coverage)
			}
			if r.MinDurability != nil {
				fmt.Fprintf(&sb, " durability ≥%dy", *r.MinDurability)
			}
			sb.WriteString("\n")
		}
	}

	p.printBox("EXTRACTED REQUIREMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatches outputs the best product per requirement and vendor.
func (p *Printer) PrintMatches(matches *types.MatchSet) {
	if matches == nil || len(matches.PerRequirement) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall match score: %.1f\n", matches.OverallMatchScore)

	for _, reqID := range sortedKeys(matches.PerRequirement) {
		results := matches.PerRequirement[reqID]
		fmt.Fprintf(&sb, "\n%s (best %.1f)\n", reqID, matches.RequirementScores[reqID])
		count := min(len(results), maxItemsToShow)
		for i := 0; i < count; i++ {
			m := results[i]
			fmt.Fprintf(&sb, "  %-15s %-9s %5.1f\n", m.Vendor, m.ProductID, m.Score)
		}
		if len(results) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(results)-maxItemsToShow)
		}
	}

	p.printBox("SPEC MATCHING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuotes outputs each vendor's priced bid.
func (p *Printer) PrintQuotes(quotes []*types.VendorQuote, dropped map[string]string) {
	if len(quotes) == 0 && len(dropped) == 0 {
		return
	}

	var sb strings.Builder
	for i, q := range quotes {
		fmt.Fprintf(&sb, "%s\n", q.Vendor)
		fmt.Fprintf(&sb, "  Final:  %12.2f  (discount %.0f%%)\n", q.FinalPrice, q.DiscountRate*100)
		fmt.Fprintf(&sb, "  Rel:    %5.1f   Lead: %d days\n", q.AvgReliability, q.MaxLeadTime)
		fmt.Fprintf(&sb, "  Score:  %5.1f\n", q.CompetitivenessScore)
		if i < len(quotes)-1 {
			sb.WriteString("\n")
		}
	}
	if len(dropped) > 0 {
		sb.WriteString("\nExcluded:\n")
		for _, v := range sortedKeys(dropped) {
			fmt.Fprintf(&sb, "  ⚠ %s: %s\n", v, dropped[v])
		}
	}

	p.printBox("VENDOR QUOTES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSelection outputs the recommendation and market strategy.
func (p *Printer) PrintSelection(sel *types.Selection, strategy *types.Strategy) {
	if sel == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recommended:   %s\n", sel.RecommendedVendor)
	fmt.Fprintf(&sb, "Cheapest:      %s\n", sel.Cheapest)
	fmt.Fprintf(&sb, "Most reliable: %s\n", sel.MostReliable)
	fmt.Fprintf(&sb, "Fastest:       %s\n", sel.Fastest)

	if strategy != nil {
		fmt.Fprintf(&sb, "\nMarket position: %s (%.1f%% vs average)\n", strategy.MarketPosition, strategy.PriceAdvantagePct)
		fmt.Fprintf(&sb, "Rush price:      %.2f\n", strategy.RushPrice)
		for _, r := range strategy.Recommendations {
			fmt.Fprintf(&sb, "  • %s\n", r)
		}
	}

	p.printBox("VENDOR SELECTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWinProbability outputs the estimate and its factors.
func (p *Printer) PrintWinProbability(est *types.WinProbabilityEstimate) {
	if est == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Probability: %d%% (%s, %s confidence)\n", est.Probability, est.RecommendationBand, est.Confidence)
	fmt.Fprintf(&sb, "Risk:        %s\n\n", est.RiskLevel)
	fmt.Fprintf(&sb, "  match      %5.1f\n", est.Factors.Match)
	fmt.Fprintf(&sb, "  pricing    %5.1f\n", est.Factors.Pricing)
	fmt.Fprintf(&sb, "  deadline   %5.1f\n", est.Factors.Deadline)
	fmt.Fprintf(&sb, "  historical %5.1f\n\n", est.Factors.Historical)
	fmt.Fprintf(&sb, "%s\n", est.Recommendation)
	fmt.Fprintf(&sb, "→ %s", est.Action)

	p.printBox("WIN PROBABILITY", sb.String())
}

// PrintReview outputs the escalation verdict.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReview(review *types.Review) {
	if review == nil || !review.Required {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO REVIEW REQUIRED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Priority: %s   Confidence: %.0f%%\n\n", review.Priority, review.Confidence*100)
	for i, is := range review.Issues {
		msg := is.Message
		if len(msg) > 45 {
			msg = msg[:42] + "..."
		}
		fmt.Fprintf(&sb, "⚠ %s [%s]\n", is.Type, is.Severity)
		fmt.Fprintf(&sb, "  %s\n", msg)
		if i < len(review.Issues)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("HUMAN REVIEW REQUIRED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult prints every section of a run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResult(res *types.RunResult) {
	if res == nil {
		return
	}
	if res.Status != types.RunCompleted {
		fmt.Fprintf(p.out, "Run %s %s: %s\n", res.RunID, res.Status, res.Error)
		return
	}
	p.PrintRFP(res.RFP)
	p.PrintMatches(res.Matches)
	quotes := make([]*types.VendorQuote, 0, len(res.VendorQuotes))
	for _, v := range sortedKeys(res.VendorQuotes) {
		quotes = append(quotes, res.VendorQuotes[v])
	}
	p.PrintQuotes(quotes, res.DroppedVendors)
	p.PrintSelection(res.Selection, res.Strategy)
	p.PrintWinProbability(res.WinProbability)
	p.PrintReview(res.Review)
}
