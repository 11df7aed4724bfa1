package greenops

// Answers is a (possibly partial) set of questionnaire answers.
//
// Numeric fields are pointers and enum fields are strings so that "not yet
// answered" (nil or "") is distinguishable from an explicit zero. The
// calculation treats every unanswered field as contributing nothing.
type Answers struct {
	FirstName string `json:"firstName,omitempty" yaml:"first_name,omitempty"`
	Country   string `json:"country,omitempty"   yaml:"country,omitempty"`
	Email     string `json:"email,omitempty"     yaml:"email,omitempty"`

	Days *int `json:"days,omitempty" yaml:"days,omitempty"`

	AccommodationCategory AccommodationCategory `json:"accommodationCategory,omitempty" yaml:"accommodation_category,omitempty"`
	RoomOccupancy         RoomOccupancy         `json:"roomOccupancy,omitempty"         yaml:"room_occupancy,omitempty"`
	Electricity           ElectricitySource     `json:"electricity,omitempty"           yaml:"electricity,omitempty"`
	Food                  DietFrequency         `json:"food,omitempty"                  yaml:"food,omitempty"`

	FlightKm *float64 `json:"flightKm,omitempty" yaml:"flight_km,omitempty"`
	BoatKm   *float64 `json:"boatKm,omitempty"   yaml:"boat_km,omitempty"`
	TrainKm  *float64 `json:"trainKm,omitempty"  yaml:"train_km,omitempty"`
	BusKm    *float64 `json:"busKm,omitempty"    yaml:"bus_km,omitempty"`
	CarKm    *float64 `json:"carKm,omitempty"    yaml:"car_km,omitempty"`

	CarType       TransportMode `json:"carType,omitempty"       yaml:"car_type,omitempty"`
	CarPassengers *int          `json:"carPassengers,omitempty" yaml:"car_passengers,omitempty"`

	Age    *int   `json:"age,omitempty"    yaml:"age,omitempty"`
	Gender Gender `json:"gender,omitempty" yaml:"gender,omitempty"`
}

// Float returns a pointer to v, for building Answers literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Answers literals.
func Int(v int) *int { return &v }

// Clone returns a deep copy of a so that pointer fields are not shared.
func (a Answers) Clone() Answers {
	out := a
	out.Days = cloneInt(a.Days)
	out.FlightKm = cloneFloat(a.FlightKm)
	out.BoatKm = cloneFloat(a.BoatKm)
	out.TrainKm = cloneFloat(a.TrainKm)
	out.BusKm = cloneFloat(a.BusKm)
	out.CarKm = cloneFloat(a.CarKm)
	out.CarPassengers = cloneInt(a.CarPassengers)
	out.Age = cloneInt(a.Age)
	return out
}

// HasCarTravel reports whether the participant answered a positive car
// distance. Car type and passengers are meaningless otherwise.
func (a Answers) HasCarTravel() bool {
	return a.CarKm != nil && *a.CarKm != 0
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func floatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
