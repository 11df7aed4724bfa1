package greenops

import "math"

// Calculator folds answers and project activities into an EmissionsResult.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	factors *FactorSet
}

// NewCalculator returns a Calculator using factors. It validates the table up
// front so that a missing factor fails at construction rather than against
// user input.
func NewCalculator(factors *FactorSet) (*Calculator, error) {
	if err := factors.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{factors: factors}, nil
}

// MustNewCalculator is like NewCalculator but panics on an invalid table.
func MustNewCalculator(factors *FactorSet) *Calculator {
	c, err := NewCalculator(factors)
	if err != nil {
		panic(err)
	}
	return c
}

// defaultCalculator backs the package-level CalculateEmissions.
//
//nolint:gochecknoglobals // Built-in factor table is validated once at startup.
var defaultCalculator = MustNewCalculator(DefaultFactors())

// Default returns the Calculator built on DefaultFactors.
func Default() *Calculator {
	return defaultCalculator
}

// CalculateEmissions computes emissions with the built-in factor table.
func CalculateEmissions(answers Answers, activities []ProjectActivity) EmissionsResult {
	return defaultCalculator.CalculateEmissions(answers, activities)
}

// Factors returns the factor table backing the calculator.
func (c *Calculator) Factors() *FactorSet {
	return c.factors
}

// CalculateEmissions computes the full breakdown for a (possibly partial)
// answer set plus the project activity baseline.
//
// Unanswered or malformed optional fields contribute zero to their category;
// the questionnaire is answered incrementally so most calls see a partial draft.
func (c *Calculator) CalculateEmissions(answers Answers, activities []ProjectActivity) EmissionsResult {
	r := EmissionsResult{
		TransportCO2:         c.CalculateTransportCO2(answers),
		AccommodationCO2:     c.CalculateAccommodationCO2(answers),
		FoodCO2:              c.CalculateFoodCO2(answers),
		ProjectActivitiesCO2: c.CalculateActivitiesCO2(activities),
	}
	r.TotalCO2 = r.TransportCO2 + r.AccommodationCO2 + r.FoodCO2 + r.ProjectActivitiesCO2
	r.TreesNeeded = c.TreesNeeded(r.TotalCO2)
	return r
}

// CalculateTransportCO2 returns round-trip travel emissions. Car emissions are
// shared between the passengers, with the passenger count floored at one.
func (c *Calculator) CalculateTransportCO2(answers Answers) float64 {
	legs := []struct {
		km   *float64
		mode TransportMode
	}{
		{answers.FlightKm, ModePlane},
		{answers.BoatKm, ModeBoat},
		{answers.TrainKm, ModeTrain},
		{answers.BusKm, ModeBus},
	}

	var total float64
	for _, leg := range legs {
		km := floatValue(leg.km)
		if !isPositive(km) {
			continue
		}
		total += km * c.factors.TransportFactor(leg.mode) * c.factors.RoundTripMultiplier
	}

	if carKm := floatValue(answers.CarKm); isPositive(carKm) {
		mode := ModeCar
		if answers.CarType == ModeElectricCar {
			mode = ModeElectricCar
		}
		passengers := 1
		if answers.CarPassengers != nil && *answers.CarPassengers > 1 {
			passengers = *answers.CarPassengers
		}
		total += carKm * c.factors.TransportFactor(mode) * c.factors.RoundTripMultiplier / float64(passengers)
	}

	return total
}

// CalculateAccommodationCO2 returns lodging emissions. It is zero until the
// category, occupancy and number of days are all known. An unanswered
// electricity source counts as conventional.
func (c *Calculator) CalculateAccommodationCO2(answers Answers) float64 {
	if answers.AccommodationCategory == "" || answers.RoomOccupancy == "" || answers.Days == nil {
		return 0
	}
	days := *answers.Days
	if days <= 0 {
		return 0
	}
	return float64(days) *
		c.factors.AccommodationFactor(answers.AccommodationCategory) *
		c.factors.OccupancyFactor(answers.RoomOccupancy) *
		c.factors.EnergyFactor(answers.Electricity)
}

// CalculateFoodCO2 returns diet emissions over the event days.
func (c *Calculator) CalculateFoodCO2(answers Answers) float64 {
	if answers.Food == "" || answers.Days == nil || *answers.Days <= 0 {
		return 0
	}
	return float64(*answers.Days) * c.factors.FoodFactor(answers.Food)
}

// CalculateActivitiesCO2 sums the emissions of the project's own activities.
// Activities with a NaN, infinite, zero or negative distance are skipped as if
// absent.
func (c *Calculator) CalculateActivitiesCO2(activities []ProjectActivity) float64 {
	var total float64
	for _, a := range activities {
		if !isPositive(a.DistanceKm) {
			continue
		}
		total += a.DistanceKm * c.factors.TransportFactor(a.ActivityType)
	}
	return total
}

// TreesNeeded returns how many trees absorb totalKg within a year. Any
// positive total needs at least one tree.
func (c *Calculator) TreesNeeded(totalKg float64) int {
	if !isPositive(totalKg) {
		return 0
	}
	return int(math.Ceil(totalKg / c.factors.TreeAbsorptionPerYear))
}
