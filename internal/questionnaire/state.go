package questionnaire

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshade/greentrail/internal/greenops"
)

// ConfirmedEmissions is the last emissions snapshot the participant saw in an
// impact preview, cached for display between steps.
type ConfirmedEmissions struct {
	TotalCO2    float64 `json:"totalCO2"`
	TreesNeeded int     `json:"treesNeeded"`
}

// StepState is the unit of persistence for one questionnaire session.
type StepState struct {
	Answers            greenops.Answers    `json:"answers"`
	CurrentStep        StepID              `json:"currentStep"`
	ConfirmedEmissions *ConfirmedEmissions `json:"confirmedEmissions"`
}

// Validate reports whether the state is well formed enough to resume from.
func (s StepState) Validate() error {
	if !s.CurrentStep.Valid() {
		return fmt.Errorf("current step %d out of range", int(s.CurrentStep))
	}
	a := s.Answers
	for name, p := range map[string]*int{"days": a.Days, "carPassengers": a.CarPassengers, "age": a.Age} {
		if p != nil && *p < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, *p)
		}
	}
	if c := s.ConfirmedEmissions; c != nil && (c.TotalCO2 < 0 || c.TreesNeeded < 0) {
		return errors.New("confirmed emissions must not be negative")
	}
	if f, ok := invalidChoice(a); ok {
		return fmt.Errorf("answer %s has value %q outside its options", f, f.Get(a))
	}
	return nil
}

// Clone returns a deep copy of s.
func (s StepState) Clone() StepState {
	out := s
	out.Answers = s.Answers.Clone()
	if s.ConfirmedEmissions != nil {
		c := *s.ConfirmedEmissions
		out.ConfirmedEmissions = &c
	}
	return out
}

// NewStepState returns the state of a fresh session for project.
func NewStepState(project Project) StepState {
	return StepState{
		CurrentStep: FirstStep,
		Answers:     DefaultAnswers(project),
	}
}

// DefaultAnswers returns the answers a fresh session starts from: the stay
// length derived from the project dates, zero travel and a single car
// passenger. Choices stay unanswered.
func DefaultAnswers(project Project) greenops.Answers {
	return greenops.Answers{
		Days:          greenops.Int(project.DefaultDays()),
		FlightKm:      greenops.Float(0),
		BoatKm:        greenops.Float(0),
		TrainKm:       greenops.Float(0),
		BusKm:         greenops.Float(0),
		CarKm:         greenops.Float(0),
		CarPassengers: greenops.Int(1),
		Age:           greenops.Int(0),
	}
}

// Persistence stores in-progress sessions keyed by project ID. Implementations
// absorb their own failures: a session must never fail because its state
// could not be saved.
type Persistence interface {
	// Load returns the saved state, or false when there is none or it is unusable.
	Load(ctx context.Context, projectID string) (*StepState, bool)
	// Save stores state. Saving an unchanged state must have no further effect.
	Save(ctx context.Context, projectID string, state StepState)
	// Clear erases the saved state.
	Clear(ctx context.Context, projectID string)
}

// NopPersistence keeps nothing.
type NopPersistence struct{}

// Load implements Persistence.
func (NopPersistence) Load(context.Context, string) (*StepState, bool) { return nil, false }

// Save implements Persistence.
func (NopPersistence) Save(context.Context, string, StepState) {}

// Clear implements Persistence.
func (NopPersistence) Clear(context.Context, string) {}
