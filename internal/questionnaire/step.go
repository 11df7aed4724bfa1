package questionnaire

import (
	"fmt"
	"math"
	"strings"

	"github.com/rshade/greentrail/internal/greenops"
)

// StepID is the ordinal of a questionnaire step.
type StepID int

// Questionnaire steps in order.
const (
	StepWelcome StepID = iota
	StepParticipantInfo
	StepDays
	StepAccommodationCategory
	StepRoomOccupancy
	StepElectricity
	StepFood
	StepFlightKm
	StepBoatKm
	StepTrainKm
	StepBusKm
	StepCarKm
	StepCarType
	StepCarPassengers
	StepAge
	StepGender
)

// FirstStep and LastStep bound the valid step range.
const (
	FirstStep = StepWelcome
	LastStep  = StepGender
)

// Valid reports whether id is inside the step range.
func (id StepID) Valid() bool {
	return id >= FirstStep && id <= LastStep
}

// String returns the step name.
func (id StepID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("StepID(%d)", int(id))
	}
	return steps[id].Name
}

// Step describes one questionnaire step. The step table is data: Advance and
// Back consult it and never branch on step numbers.
type Step struct {
	ID   StepID
	Name string

	// Prompt is the question shown to the participant.
	Prompt string

	// Fields are the answers collected by the step, empty for informational steps.
	Fields []Field

	// Validate gates forward progression.
	Validate func(a greenops.Answers) bool

	// SkippedWhen reports whether the step is bypassed in both directions.
	SkippedWhen func(a greenops.Answers) bool

	// ImpactEligible reports whether committing the step shows an impact
	// preview. Nil means never.
	ImpactEligible func(a greenops.Answers) bool

	// Baseline lists the fields removed from the draft to compute the
	// "before" emissions of an impact preview. Defaults to Fields.
	Baseline []Field
}

// Terminal reports whether committing the step submits the questionnaire.
func (s Step) Terminal() bool {
	return s.ID == LastStep
}

// Choices returns the allowed values when the step asks for a single choice.
func (s Step) Choices() []string {
	if len(s.Fields) != 1 {
		return nil
	}
	return s.Fields[0].Options()
}

func (s Step) skipped(a greenops.Answers) bool {
	return s.SkippedWhen != nil && s.SkippedWhen(a)
}

func (s Step) impactEligible(a greenops.Answers) bool {
	return s.ImpactEligible != nil && s.ImpactEligible(a)
}

func (s Step) baselineFields() []Field {
	if len(s.Baseline) > 0 {
		return s.Baseline
	}
	return s.Fields
}

//nolint:gochecknoglobals // Static step table, exposed as a copy via Steps.
var steps = []Step{
	{
		ID:       StepWelcome,
		Name:     "welcome",
		Prompt:   "Welcome! Let's estimate the carbon footprint of your trip.",
		Validate: always,
	},
	{
		ID:     StepParticipantInfo,
		Name:   "participantInfo",
		Prompt: "Tell us who you are.",
		Fields: []Field{FieldFirstName, FieldCountry, FieldEmail},
		Validate: func(a greenops.Answers) bool {
			return nonEmpty(a.FirstName) && nonEmpty(a.Country) && nonEmpty(a.Email)
		},
	},
	{
		ID:       StepDays,
		Name:     "days",
		Prompt:   "How many days will you stay?",
		Fields:   []Field{FieldDays},
		Validate: func(a greenops.Answers) bool { return positiveInt(a.Days) },
	},
	{
		ID:             StepAccommodationCategory,
		Name:           "accommodationCategory",
		Prompt:         "Where will you stay?",
		Fields:         []Field{FieldAccommodationCategory},
		Validate:       func(a greenops.Answers) bool { return a.AccommodationCategory != "" },
		ImpactEligible: always,
	},
	{
		ID:             StepRoomOccupancy,
		Name:           "roomOccupancy",
		Prompt:         "How many people share your room?",
		Fields:         []Field{FieldRoomOccupancy},
		Validate:       func(a greenops.Answers) bool { return a.RoomOccupancy != "" },
		ImpactEligible: always,
	},
	{
		ID:             StepElectricity,
		Name:           "electricity",
		Prompt:         "What kind of electricity does your accommodation use?",
		Fields:         []Field{FieldElectricity},
		Validate:       func(a greenops.Answers) bool { return a.Electricity != "" },
		ImpactEligible: always,
		// Accommodation impact is perceived as a whole, so the preview
		// compares against no accommodation at all.
		Baseline: []Field{FieldAccommodationCategory, FieldRoomOccupancy, FieldElectricity},
	},
	{
		ID:             StepFood,
		Name:           "food",
		Prompt:         "How often do you eat meat?",
		Fields:         []Field{FieldFood},
		Validate:       func(a greenops.Answers) bool { return a.Food != "" },
		ImpactEligible: always,
	},
	distanceStep(StepFlightKm, "flightKm", "How many kilometres will you fly (one way)?", FieldFlightKm,
		func(a greenops.Answers) *float64 { return a.FlightKm }),
	distanceStep(StepBoatKm, "boatKm", "How many kilometres will you travel by boat (one way)?", FieldBoatKm,
		func(a greenops.Answers) *float64 { return a.BoatKm }),
	distanceStep(StepTrainKm, "trainKm", "How many kilometres will you travel by train (one way)?", FieldTrainKm,
		func(a greenops.Answers) *float64 { return a.TrainKm }),
	distanceStep(StepBusKm, "busKm", "How many kilometres will you travel by bus (one way)?", FieldBusKm,
		func(a greenops.Answers) *float64 { return a.BusKm }),
	{
		ID:             StepCarKm,
		Name:           "carKm",
		Prompt:         "How many kilometres will you drive (one way)?",
		Fields:         []Field{FieldCarKm},
		Validate:       func(a greenops.Answers) bool { return nonNegative(a.CarKm) },
		ImpactEligible: always,
	},
	{
		ID:             StepCarType,
		Name:           "carType",
		Prompt:         "What kind of car?",
		Fields:         []Field{FieldCarType},
		Validate:       func(a greenops.Answers) bool { return a.CarType != "" },
		SkippedWhen:    noCarTravel,
		ImpactEligible: always,
	},
	{
		ID:             StepCarPassengers,
		Name:           "carPassengers",
		Prompt:         "How many people travel in the car, including you?",
		Fields:         []Field{FieldCarPassengers},
		Validate:       func(a greenops.Answers) bool { return a.CarPassengers != nil && *a.CarPassengers >= 1 },
		SkippedWhen:    noCarTravel,
		ImpactEligible: func(a greenops.Answers) bool { return a.HasCarTravel() },
	},
	{
		ID:       StepAge,
		Name:     "age",
		Prompt:   "How old are you?",
		Fields:   []Field{FieldAge},
		Validate: func(a greenops.Answers) bool { return positiveInt(a.Age) },
	},
	{
		ID:       StepGender,
		Name:     "gender",
		Prompt:   "What is your gender?",
		Fields:   []Field{FieldGender},
		Validate: func(a greenops.Answers) bool { return a.Gender != "" },
	},
}

// distanceStep builds a travel distance step. A distance of exactly zero
// has nothing to preview.
func distanceStep(id StepID, name, prompt string, field Field, get func(greenops.Answers) *float64) Step {
	return Step{
		ID:       id,
		Name:     name,
		Prompt:   prompt,
		Fields:   []Field{field},
		Validate: func(a greenops.Answers) bool { return nonNegative(get(a)) },
		ImpactEligible: func(a greenops.Answers) bool {
			km := get(a)
			return km != nil && *km != 0
		},
	}
}

// Steps returns a copy of the step table.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// StepFor returns the step with the given id. It panics on an out-of-range
// id, which can only come from a programming error.
func StepFor(id StepID) Step {
	if !id.Valid() {
		panic(fmt.Sprintf("questionnaire: step %d out of range [%d, %d]", int(id), FirstStep, LastStep))
	}
	return steps[id]
}

// NextStep returns the step after id for answers a, bypassing skipped steps.
// It returns id itself when id is the last step.
func NextStep(id StepID, a greenops.Answers) StepID {
	for next := id + 1; next <= LastStep; next++ {
		if !steps[next].skipped(a) {
			return next
		}
	}
	return id
}

// PreviousStep returns the step before id for answers a, bypassing skipped
// steps. It returns id itself when id is the first step.
func PreviousStep(id StepID, a greenops.Answers) StepID {
	for prev := id - 1; prev >= FirstStep; prev-- {
		if !steps[prev].skipped(a) {
			return prev
		}
	}
	return id
}

func always(greenops.Answers) bool { return true }

func noCarTravel(a greenops.Answers) bool { return !a.HasCarTravel() }

func nonEmpty(s string) bool { return strings.TrimSpace(s) != "" }

func positiveInt(p *int) bool { return p != nil && *p > 0 }

func nonNegative(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0) && *p >= 0
}
