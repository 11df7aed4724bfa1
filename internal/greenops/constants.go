package greenops

// Calculation constants.
const (
	// RoundTripMultiplier is applied to one-way travel distances since
	// participants are assumed to travel to the event and back.
	RoundTripMultiplier = 2.0

	// TreeAbsorptionKgPerYear is the kg CO2 one mature tree absorbs in a year.
	TreeAbsorptionKgPerYear = 22.0

	// SupportedFactorVersions is the semver constraint a factor table must
	// satisfy to be loaded.
	SupportedFactorVersions = ">= 1.0.0, < 2.0.0"

	// DefaultFactorVersion is the version of the built-in factor table.
	DefaultFactorVersion = "1.2.0"
)

// EPA Formula Constants (2024 Edition)
// Source: https://www.epa.gov/energy/greenhouse-gas-equivalencies-calculator
//
// These constants represent the kg CO2e equivalent for each activity.
// To calculate the equivalency, divide the carbon value by the factor:
//
//	equivalency = kg_CO2e / factor
const (
	// EPAMilesDrivenFactor is kg CO2e per mile for average passenger vehicle.
	EPAMilesDrivenFactor = 0.192

	// EPASmartphoneChargeFactor is kg CO2e per smartphone charge.
	EPASmartphoneChargeFactor = 0.00822
)

// Display Threshold Constants control when equivalencies are shown.
const (
	// MinEquivalencyThresholdKg is the minimum kg CO2e for showing equivalencies.
	// Below this threshold the equivalencies become meaninglessly small.
	MinEquivalencyThresholdKg = 1.0

	// LargeNumberThreshold is the threshold for using abbreviated display.
	// Values at or above this threshold use "~X.X million" format.
	LargeNumberThreshold = 1_000_000

	// BillionThreshold is the threshold for billion-scale display.
	BillionThreshold = 1_000_000_000
)
