package questionnaire

import (
	"context"
	"time"

	"github.com/rshade/greentrail/internal/greenops"
)

// Breakdown splits a total footprint by category.
type Breakdown struct {
	Transport         float64 `json:"transport"`
	Accommodation     float64 `json:"accommodation"`
	Food              float64 `json:"food"`
	ProjectActivities float64 `json:"projectActivities"`
}

// Summary is the condensed result of a submission.
type Summary struct {
	TotalCO2    float64   `json:"totalCO2"`
	TreesNeeded int       `json:"treesNeeded"`
	Breakdown   Breakdown `json:"breakdown"`
}

// Submission is handed to a Sink when the participant completes the
// questionnaire.
type Submission struct {
	ProjectID   string                   `json:"projectId"`
	SessionID   string                   `json:"sessionId,omitempty"`
	SubmittedAt time.Time                `json:"submittedAt"`
	Answers     greenops.Answers         `json:"answers"`
	Emissions   greenops.EmissionsResult `json:"emissions"`
	Summary     Summary                  `json:"summary"`
}

// NewSummary condenses an emissions result.
func NewSummary(r greenops.EmissionsResult) Summary {
	return Summary{
		TotalCO2:    r.TotalCO2,
		TreesNeeded: r.TreesNeeded,
		Breakdown: Breakdown{
			Transport:         r.TransportCO2,
			Accommodation:     r.AccommodationCO2,
			Food:              r.FoodCO2,
			ProjectActivities: r.ProjectActivitiesCO2,
		},
	}
}

// Sink consumes completed submissions, for example a reporting integration.
type Sink interface {
	Submit(ctx context.Context, submission Submission) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, submission Submission) error

// Submit implements Sink.
func (f SinkFunc) Submit(ctx context.Context, submission Submission) error {
	return f(ctx, submission)
}
