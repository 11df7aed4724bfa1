package questionnaire

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rshade/greentrail/internal/greenops"
)

// Field names one answer in greenops.Answers. Values match the JSON keys of
// the persisted answers.
type Field string

// Answer fields.
const (
	FieldFirstName             Field = "firstName"
	FieldCountry               Field = "country"
	FieldEmail                 Field = "email"
	FieldDays                  Field = "days"
	FieldAccommodationCategory Field = "accommodationCategory"
	FieldRoomOccupancy         Field = "roomOccupancy"
	FieldElectricity           Field = "electricity"
	FieldFood                  Field = "food"
	FieldFlightKm              Field = "flightKm"
	FieldBoatKm                Field = "boatKm"
	FieldTrainKm               Field = "trainKm"
	FieldBusKm                 Field = "busKm"
	FieldCarKm                 Field = "carKm"
	FieldCarType               Field = "carType"
	FieldCarPassengers         Field = "carPassengers"
	FieldAge                   Field = "age"
	FieldGender                Field = "gender"
)

// accessor reads, writes and clears one field. Kept as an explicit map so
// fields are addressed without reflection.
type accessor struct {
	get   func(a *greenops.Answers) string
	set   func(a *greenops.Answers, raw string)
	clear func(a *greenops.Answers)

	// options lists the allowed values of a choice field.
	options []string
}

//nolint:gochecknoglobals // Static lookup table.
var accessors = map[Field]accessor{
	FieldFirstName: textAccessor(func(a *greenops.Answers) *string { return &a.FirstName }),
	FieldCountry:   textAccessor(func(a *greenops.Answers) *string { return &a.Country }),
	FieldEmail:     textAccessor(func(a *greenops.Answers) *string { return &a.Email }),
	FieldDays:      intAccessor(func(a *greenops.Answers) **int { return &a.Days }),
	FieldAccommodationCategory: enumAccessor(greenops.AccommodationCategories(),
		func(a *greenops.Answers) *greenops.AccommodationCategory { return &a.AccommodationCategory }),
	FieldRoomOccupancy: enumAccessor(greenops.RoomOccupancies(),
		func(a *greenops.Answers) *greenops.RoomOccupancy { return &a.RoomOccupancy }),
	FieldElectricity: enumAccessor(greenops.ElectricitySources(),
		func(a *greenops.Answers) *greenops.ElectricitySource { return &a.Electricity }),
	FieldFood: enumAccessor(greenops.DietFrequencies(),
		func(a *greenops.Answers) *greenops.DietFrequency { return &a.Food }),
	FieldFlightKm: floatAccessor(func(a *greenops.Answers) **float64 { return &a.FlightKm }),
	FieldBoatKm:   floatAccessor(func(a *greenops.Answers) **float64 { return &a.BoatKm }),
	FieldTrainKm:  floatAccessor(func(a *greenops.Answers) **float64 { return &a.TrainKm }),
	FieldBusKm:    floatAccessor(func(a *greenops.Answers) **float64 { return &a.BusKm }),
	FieldCarKm:    floatAccessor(func(a *greenops.Answers) **float64 { return &a.CarKm }),
	FieldCarType: enumAccessor(CarTypes(),
		func(a *greenops.Answers) *greenops.TransportMode { return &a.CarType }),
	FieldCarPassengers: intAccessor(func(a *greenops.Answers) **int { return &a.CarPassengers }),
	FieldAge:           intAccessor(func(a *greenops.Answers) **int { return &a.Age }),
	FieldGender: enumAccessor(greenops.Genders(),
		func(a *greenops.Answers) *greenops.Gender { return &a.Gender }),
}

// CarTypes returns the allowed car type answers.
func CarTypes() []greenops.TransportMode {
	return []greenops.TransportMode{greenops.ModeCar, greenops.ModeElectricCar}
}

// Fields returns every answer field in questionnaire order.
func Fields() []Field {
	return []Field{
		FieldFirstName, FieldCountry, FieldEmail, FieldDays,
		FieldAccommodationCategory, FieldRoomOccupancy, FieldElectricity, FieldFood,
		FieldFlightKm, FieldBoatKm, FieldTrainKm, FieldBusKm, FieldCarKm,
		FieldCarType, FieldCarPassengers, FieldAge, FieldGender,
	}
}

// Get returns the field's current value formatted as text, "" if unanswered.
func (f Field) Get(a greenops.Answers) string {
	return f.mustAccessor().get(&a)
}

// Set parses raw and stores it in a. Text is trimmed. A number that does not
// parse or is not finite, and a choice outside the field's options, leave the
// field unanswered so that the step's validity check blocks progression.
func (f Field) Set(a *greenops.Answers, raw string) {
	f.mustAccessor().set(a, strings.TrimSpace(raw))
}

// Clear marks the field unanswered in a.
func (f Field) Clear(a *greenops.Answers) {
	f.mustAccessor().clear(a)
}

func (f Field) mustAccessor() accessor {
	acc, ok := accessors[f]
	if !ok {
		panic(fmt.Sprintf("questionnaire: unknown field %q", string(f)))
	}
	return acc
}

// ParseField returns the Field named s.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := accessors[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

func textAccessor(ptr func(a *greenops.Answers) *string) accessor {
	return accessor{
		get:   func(a *greenops.Answers) string { return *ptr(a) },
		set:   func(a *greenops.Answers, raw string) { *ptr(a) = raw },
		clear: func(a *greenops.Answers) { *ptr(a) = "" },
	}
}

func enumAccessor[E ~string](options []E, ptr func(a *greenops.Answers) *E) accessor {
	return accessor{
		get: func(a *greenops.Answers) string { return string(*ptr(a)) },
		set: func(a *greenops.Answers, raw string) {
			if slices.Contains(options, E(raw)) {
				*ptr(a) = E(raw)
				return
			}
			*ptr(a) = ""
		},
		clear:   func(a *greenops.Answers) { *ptr(a) = "" },
		options: toStrings(options),
	}
}

func toStrings[E ~string](in []E) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// Options returns the allowed values of a choice field, nil for free input.
func (f Field) Options() []string {
	return slices.Clone(f.mustAccessor().options)
}

// IsChoice reports whether the field takes one of a fixed set of values.
func (f Field) IsChoice() bool {
	return len(f.mustAccessor().options) > 0
}

func intAccessor(ptr func(a *greenops.Answers) **int) accessor {
	return accessor{
		get: func(a *greenops.Answers) string {
			if p := *ptr(a); p != nil {
				return strconv.Itoa(*p)
			}
			return ""
		},
		set: func(a *greenops.Answers, raw string) {
			v, err := strconv.Atoi(raw)
			if err != nil {
				*ptr(a) = nil
				return
			}
			*ptr(a) = &v
		},
		clear: func(a *greenops.Answers) { *ptr(a) = nil },
	}
}

func floatAccessor(ptr func(a *greenops.Answers) **float64) accessor {
	return accessor{
		get: func(a *greenops.Answers) string {
			if p := *ptr(a); p != nil {
				return strconv.FormatFloat(*p, 'f', -1, 64)
			}
			return ""
		},
		set: func(a *greenops.Answers, raw string) {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				*ptr(a) = nil
				return
			}
			*ptr(a) = &v
		},
		clear: func(a *greenops.Answers) { *ptr(a) = nil },
	}
}

// invalidChoice returns the first choice field of a holding a value outside
// its options.
func invalidChoice(a greenops.Answers) (Field, bool) {
	for _, f := range Fields() {
		acc := f.mustAccessor()
		if v := acc.get(&a); v != "" && len(acc.options) > 0 && !slices.Contains(acc.options, v) {
			return f, true
		}
	}
	return "", false
}

// Sanitize returns a copy of a with every choice field outside its options
// cleared and every non-finite distance removed, so the result is safe to
// pass to the calculator.
func Sanitize(a greenops.Answers) greenops.Answers {
	out := a.Clone()
	for f, ok := invalidChoice(out); ok; f, ok = invalidChoice(out) {
		f.Clear(&out)
	}
	for _, p := range []**float64{&out.FlightKm, &out.BoatKm, &out.TrainKm, &out.BusKm, &out.CarKm} {
		if *p != nil && (math.IsNaN(**p) || math.IsInf(**p, 0)) {
			*p = nil
		}
	}
	return out
}
