package greenops

import (
	"fmt"
	"math"
)

// EquivalencyType represents a category of carbon emission equivalency.
type EquivalencyType int

const (
	// EquivalencyTrees converts CO2 to trees absorbing it over one year.
	EquivalencyTrees EquivalencyType = iota

	// EquivalencyMilesDriven converts CO2 to miles driven in an average passenger vehicle.
	EquivalencyMilesDriven

	// EquivalencySmartphonesCharged converts CO2 to smartphone full charges.
	EquivalencySmartphonesCharged
)

// String returns a human-readable representation of the EquivalencyType.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyTrees:
		return "Trees"
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// EquivalencyResult represents a single calculated equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// EquivalencyOutput contains all equivalency results for display.
type EquivalencyOutput struct {
	// InputKg is the footprint in kilograms CO2.
	InputKg float64 `json:"input_kg"`

	// Results contains calculated equivalencies in priority order.
	Results []EquivalencyResult `json:"results"`

	// DisplayText is the full prose format for CLI/TUI output.
	// Example: "Equivalent to 12 trees for a year, driving ~1,367 miles or charging ~31,934 smartphones"
	DisplayText string `json:"display_text"`

	IsEmpty bool `json:"is_empty"`
}

// Equivalencies converts a footprint in kg CO2 into relatable equivalencies.
//
// Footprints below MinEquivalencyThresholdKg, and non-finite values, yield an
// empty output.
func (c *Calculator) Equivalencies(kg float64) EquivalencyOutput {
	if math.IsNaN(kg) || math.IsInf(kg, 0) || kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}
	}

	trees := c.TreesNeeded(kg)
	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor

	treesFormatted := FormatNumber(int64(trees))
	milesFormatted := formatEquivalencyValue(miles)
	phonesFormatted := formatEquivalencyValue(phones)

	return EquivalencyOutput{
		InputKg: kg,
		Results: []EquivalencyResult{
			{Type: EquivalencyTrees, Value: float64(trees), FormattedValue: treesFormatted, Label: "trees for a year"},
			{Type: EquivalencyMilesDriven, Value: miles, FormattedValue: milesFormatted, Label: "miles driven"},
			{Type: EquivalencySmartphonesCharged, Value: phones, FormattedValue: phonesFormatted, Label: "smartphones charged"},
		},
		DisplayText: fmt.Sprintf("Equivalent to %s trees for a year, driving ~%s miles or charging ~%s smartphones",
			treesFormatted, milesFormatted, phonesFormatted),
	}
}

// formatEquivalencyValue rounds v and formats it with separators, switching
// to abbreviated notation for very large values.
func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
