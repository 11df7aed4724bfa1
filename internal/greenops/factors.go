package greenops

import (
	"fmt"
	"math"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// EnergyFactors are multipliers applied to the accommodation baseline
// depending on the accommodation's electricity source.
type EnergyFactors struct {
	Green        float64 `yaml:"green"        json:"green"`
	Conventional float64 `yaml:"conventional" json:"conventional"`
}

// FactorSet is the emission factor configuration. It is loaded once, validated
// and treated as immutable afterwards.
type FactorSet struct {
	// Version is the semantic version of the factor table.
	Version string `yaml:"version" json:"version"`

	// Transport is kg CO2 per km per person.
	Transport map[TransportMode]float64 `yaml:"transport" json:"transport"`

	// Accommodation is kg CO2 per person-night before occupancy and energy adjustments.
	Accommodation map[AccommodationCategory]float64 `yaml:"accommodation" json:"accommodation"`

	// RoomOccupancy is the per-person share of a room.
	RoomOccupancy map[RoomOccupancy]float64 `yaml:"room_occupancy" json:"roomOccupancy"`

	Energy EnergyFactors `yaml:"energy" json:"energy"`

	// Food is kg CO2 per day.
	Food map[DietFrequency]float64 `yaml:"food" json:"food"`

	TreeAbsorptionPerYear float64 `yaml:"tree_absorption_per_year" json:"treeAbsorptionPerYear"`
	RoundTripMultiplier   float64 `yaml:"round_trip_multiplier"    json:"roundTripMultiplier"`
}

// DefaultFactors returns the built-in factor table.
func DefaultFactors() *FactorSet {
	return &FactorSet{
		Version: DefaultFactorVersion,
		Transport: map[TransportMode]float64{
			ModePlane:       0.2586,
			ModeBoat:        0.1127,
			ModeTrain:       0.0355,
			ModeBus:         0.1046,
			ModeCar:         0.1710,
			ModeElectricCar: 0.0473,
		},
		Accommodation: map[AccommodationCategory]float64{
			AccommodationHotel:         31.1,
			AccommodationHostel:        14.7,
			AccommodationApartment:     20.4,
			AccommodationCamping:       3.4,
			AccommodationFriendsFamily: 9.8,
		},
		RoomOccupancy: map[RoomOccupancy]float64{
			OccupancyAlone:      1.0,
			OccupancyTwo:        0.5,
			OccupancyThree:      0.35,
			OccupancyFourOrMore: 0.25,
		},
		Energy: EnergyFactors{
			Green:        0.6,
			Conventional: 1.0,
		},
		Food: map[DietFrequency]float64{
			DietEveryDay:     7.19,
			DietFewTimesWeek: 4.67,
			DietRarely:       3.81,
			DietNever:        2.89,
		},
		TreeAbsorptionPerYear: TreeAbsorptionKgPerYear,
		RoundTripMultiplier:   RoundTripMultiplier,
	}
}

// LoadFactors reads a YAML factor table from path and validates it.
func LoadFactors(path string) (*FactorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading factor file %s: %w", path, err)
	}
	return ParseFactors(data)
}

// ParseFactors decodes a YAML factor table and validates it.
func ParseFactors(data []byte) (*FactorSet, error) {
	var fs FactorSet
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parsing factor table: %w", err)
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return &fs, nil
}

// Validate checks that every enumerated key has a positive, finite factor and
// that the table version is supported.
func (fs *FactorSet) Validate() error {
	if err := validateVersion(fs.Version); err != nil {
		return err
	}
	for _, mode := range TransportModes() {
		if err := checkFactor("transport", string(mode), fs.Transport[mode], hasKey(fs.Transport, mode)); err != nil {
			return err
		}
	}
	for _, c := range AccommodationCategories() {
		if err := checkFactor("accommodation", string(c), fs.Accommodation[c], hasKey(fs.Accommodation, c)); err != nil {
			return err
		}
	}
	for _, o := range RoomOccupancies() {
		if err := checkFactor("room_occupancy", string(o), fs.RoomOccupancy[o], hasKey(fs.RoomOccupancy, o)); err != nil {
			return err
		}
	}
	for _, d := range DietFrequencies() {
		if err := checkFactor("food", string(d), fs.Food[d], hasKey(fs.Food, d)); err != nil {
			return err
		}
	}
	if err := checkFactor("energy", "green", fs.Energy.Green, true); err != nil {
		return err
	}
	if err := checkFactor("energy", "conventional", fs.Energy.Conventional, true); err != nil {
		return err
	}
	if err := checkFactor("tree_absorption_per_year", "", fs.TreeAbsorptionPerYear, true); err != nil {
		return err
	}
	return checkFactor("round_trip_multiplier", "", fs.RoundTripMultiplier, true)
}

// TransportFactor returns kg CO2 per km for mode. It panics if the table has
// no entry for mode.
func (fs *FactorSet) TransportFactor(mode TransportMode) float64 {
	return mustLookup(fs.Transport, mode, "transport")
}

// AccommodationFactor returns the per-night baseline for c. It panics if the
// table has no entry for c.
func (fs *FactorSet) AccommodationFactor(c AccommodationCategory) float64 {
	return mustLookup(fs.Accommodation, c, "accommodation")
}

// OccupancyFactor returns the per-person room share for o. It panics if the
// table has no entry for o.
func (fs *FactorSet) OccupancyFactor(o RoomOccupancy) float64 {
	return mustLookup(fs.RoomOccupancy, o, "room_occupancy")
}

// FoodFactor returns kg CO2 per day for d. It panics if the table has no
// entry for d.
func (fs *FactorSet) FoodFactor(d DietFrequency) float64 {
	return mustLookup(fs.Food, d, "food")
}

// EnergyFactor returns the multiplier for the electricity source. Anything
// other than green energy, including an unanswered source, is conventional.
func (fs *FactorSet) EnergyFactor(source ElectricitySource) float64 {
	if source == ElectricityGreen {
		return fs.Energy.Green
	}
	return fs.Energy.Conventional
}

func mustLookup[K ~string](m map[K]float64, key K, table string) float64 {
	v, ok := m[key]
	if !ok {
		panic(fmt.Errorf("%w: %s[%q]", ErrMissingFactor, table, string(key)))
	}
	return v
}

func hasKey[K comparable](m map[K]float64, key K) bool {
	_, ok := m[key]
	return ok
}

func checkFactor(table, key string, v float64, present bool) error {
	name := table
	if key != "" {
		name = fmt.Sprintf("%s[%q]", table, key)
	}
	if !present {
		return fmt.Errorf("%w: %s", ErrMissingFactor, name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s = %v", ErrInvalidFactor, name, v)
	}
	return nil
}

func validateVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, version, err)
	}
	c, err := semver.NewConstraint(SupportedFactorVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, v, SupportedFactorVersions)
	}
	return nil
}
