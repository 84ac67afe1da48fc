package pricing

import (
	"fmt"

	"github.com/jonathan/rfp-agent/internal/types"
)

// TestPolicy decides whether optional tests are billed.
type TestPolicy string

// Test policies.
const (
	TestsRequiredOnly TestPolicy = "required_only"
	TestsAll          TestPolicy = "all"
)

// ParseTestPolicy validates a policy name. Empty selects TestsRequiredOnly.
func ParseTestPolicy(s string) (TestPolicy, error) {
	switch TestPolicy(s) {
	case "", TestsRequiredOnly:
		return TestsRequiredOnly, nil
	case TestsAll:
		return TestsAll, nil
	}
	return "", fmt.Errorf("unknown test policy %q", s)
}

const testingMarkup = 0.15

// testSchedule returns the quality tests applicable to one requirement.
func testSchedule(req types.Requirement) []types.TestLine {
	durable := req.MinDurability != nil && *req.MinDurability >= 10
	return []types.TestLine{
		{Name: "Adhesion Test", Cost: 450, Required: true},
		{Name: "Weather Resistance", Cost: 850, Required: req.ApplicationType == types.ApplicationExterior},
		{Name: "VOC Emission", Cost: 320, Required: true},
		{Name: "Durability Test", Cost: 1200, Required: durable},
		{Name: "Color Fastness", Cost: 280, Required: false},
	}
}

// testingCost sums the billed tests for a requirement and applies the testing markup.
func testingCost(req types.Requirement, policy TestPolicy) (float64, []types.TestLine) {
	var subtotal float64
	billed := make([]types.TestLine, 0, 5)
	for _, t := range testSchedule(req) {
		if t.Required || policy == TestsAll {
			subtotal += t.Cost
			billed = append(billed, t)
		}
	}
	return subtotal * (1 + testingMarkup), billed
}
