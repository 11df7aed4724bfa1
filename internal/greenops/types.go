// Package greenops computes a participant's carbon footprint for attending an
// event.
//
// It folds questionnaire answers (travel distances, accommodation, diet) and
// the event's own project activities into an EmissionsResult expressed in kg
// CO2, and converts totals into relatable equivalencies such as trees needed
// to absorb the emissions over a year.
package greenops

import (
	"fmt"
	"math"
)

// TransportMode identifies a means of travel with its own per-km factor.
type TransportMode string

// Transport modes. ModeCar and ModeElectricCar double as the values of the
// car type answer.
const (
	ModePlane       TransportMode = "plane"
	ModeBoat        TransportMode = "boat"
	ModeTrain       TransportMode = "train"
	ModeBus         TransportMode = "bus"
	ModeCar         TransportMode = "car"
	ModeElectricCar TransportMode = "electricCar"
)

// TransportModes lists every transport mode in display order.
func TransportModes() []TransportMode {
	return []TransportMode{ModePlane, ModeBoat, ModeTrain, ModeBus, ModeCar, ModeElectricCar}
}

// AccommodationCategory is the kind of lodging used during the event.
type AccommodationCategory string

// Accommodation categories.
const (
	AccommodationHotel         AccommodationCategory = "hotel"
	AccommodationHostel        AccommodationCategory = "hostel"
	AccommodationApartment     AccommodationCategory = "apartment"
	AccommodationCamping       AccommodationCategory = "camping"
	AccommodationFriendsFamily AccommodationCategory = "friendsFamily"
)

// AccommodationCategories lists every accommodation category in display order.
func AccommodationCategories() []AccommodationCategory {
	return []AccommodationCategory{
		AccommodationHotel, AccommodationHostel, AccommodationApartment,
		AccommodationCamping, AccommodationFriendsFamily,
	}
}

// RoomOccupancy is the number of people sharing a room.
type RoomOccupancy string

// Room occupancy buckets.
const (
	OccupancyAlone      RoomOccupancy = "alone"
	OccupancyTwo        RoomOccupancy = "2 people"
	OccupancyThree      RoomOccupancy = "3 people"
	OccupancyFourOrMore RoomOccupancy = "4+ people"
)

// RoomOccupancies lists every occupancy bucket in display order.
func RoomOccupancies() []RoomOccupancy {
	return []RoomOccupancy{OccupancyAlone, OccupancyTwo, OccupancyThree, OccupancyFourOrMore}
}

// ElectricitySource is the energy supply of the accommodation.
type ElectricitySource string

// Electricity sources.
const (
	ElectricityGreen        ElectricitySource = "green energy"
	ElectricityConventional ElectricitySource = "conventional energy"
)

// ElectricitySources lists every electricity source in display order.
func ElectricitySources() []ElectricitySource {
	return []ElectricitySource{ElectricityGreen, ElectricityConventional}
}

// DietFrequency is how often the participant eats meat.
type DietFrequency string

// Diet frequencies.
const (
	DietEveryDay     DietFrequency = "everyDay"
	DietFewTimesWeek DietFrequency = "fewTimesWeek"
	DietRarely       DietFrequency = "rarely"
	DietNever        DietFrequency = "never"
)

// DietFrequencies lists every diet frequency in display order.
func DietFrequencies() []DietFrequency {
	return []DietFrequency{DietEveryDay, DietFewTimesWeek, DietRarely, DietNever}
}

// Gender is the participant's self-described gender. It has no effect on
// emissions and is collected for reporting only.
type Gender string

// Genders.
const (
	GenderFemale         Gender = "female"
	GenderMale           Gender = "male"
	GenderNonBinary      Gender = "nonBinary"
	GenderPreferNotToSay Gender = "preferNotToSay"
)

// Genders lists every gender option in display order.
func Genders() []Gender {
	return []Gender{GenderFemale, GenderMale, GenderNonBinary, GenderPreferNotToSay}
}

// ProjectActivity is travel organised by the event itself (for example a
// group excursion). It is part of every participant's baseline footprint.
type ProjectActivity struct {
	ActivityType TransportMode `json:"activityType" yaml:"activity_type"`
	DistanceKm   float64       `json:"distanceKm" yaml:"distance_km"`
}

// EmissionsResult is the breakdown of a participant's footprint in kg CO2.
type EmissionsResult struct {
	TransportCO2         float64 `json:"transportCO2"`
	AccommodationCO2     float64 `json:"accommodationCO2"`
	FoodCO2              float64 `json:"foodCO2"`
	ProjectActivitiesCO2 float64 `json:"projectActivitiesCO2"`
	TotalCO2             float64 `json:"totalCO2"`
	TreesNeeded          int     `json:"treesNeeded"`
}

// Partial returns the participant-driven share of the footprint, excluding
// the project activity baseline.
func (r EmissionsResult) Partial() float64 {
	return r.TransportCO2 + r.AccommodationCO2 + r.FoodCO2
}

// String returns a compact one-line description of the result.
func (r EmissionsResult) String() string {
	return fmt.Sprintf("%.2f kg CO2 (%d trees)", r.TotalCO2, r.TreesNeeded)
}

// isPositive reports whether v is a finite number greater than zero.
func isPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
