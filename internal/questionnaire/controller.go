// Package questionnaire sequences the footprint questionnaire.
//
// A Controller owns the answers of one participant session, gates progression
// on each step's validity check, skips car details when no car travel was
// given, previews the emissions impact of an answer before moving on, and
// submits the final breakdown to a Sink. Progress is saved through an
// injected Persistence after every change.
package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/logging"
	"github.com/rshade/greentrail/internal/metrics"
)

// OutcomeKind tells the caller what an Advance did.
type OutcomeKind int

const (
	// OutcomeBlocked means the current answer is invalid; the step did not change.
	OutcomeBlocked OutcomeKind = iota
	// OutcomeAdvanced means the controller moved to Outcome.Step.
	OutcomeAdvanced
	// OutcomeImpactPending means an impact preview must be acknowledged
	// before the controller moves on.
	OutcomeImpactPending
	// OutcomeSubmitted means the questionnaire was completed and submitted.
	OutcomeSubmitted
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBlocked:
		return "blocked"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeImpactPending:
		return "impact_pending"
	case OutcomeSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of Advance.
type Outcome struct {
	Kind OutcomeKind
	// Step is the current step after the call.
	Step       StepID
	Impact     *Impact
	Submission *Submission
}

// Impact is the emissions change caused by the answer of one step.
type Impact struct {
	Step   StepID
	Before greenops.EmissionsResult
	After  greenops.EmissionsResult

	// PreviousCO2 and NewCO2 are the participant-driven emissions (transport,
	// accommodation and food) without and with the answer.
	PreviousCO2 float64
	NewCO2      float64

	// Delta is NewCO2 - PreviousCO2.
	Delta float64
}

// ErrNotReady is returned by Submit before the final step is validly answered.
var ErrNotReady = errors.New("questionnaire is not ready for submission")

// Option configures a Controller.
type Option func(*Controller)

// WithSessionID tags submissions and log lines with id.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller drives one questionnaire session. It is not safe for concurrent
// use; callers serving several actors must serialize calls per session.
type Controller struct {
	project   Project
	calc      *greenops.Calculator
	store     Persistence
	sink      Sink
	sessionID string
	now       func() time.Time

	state     StepState
	pending   *Impact
	submitted bool
}

// NewController starts or resumes the session for project. Saved state is
// resumed when store has a usable entry; otherwise answers default from the
// project. A nil store keeps nothing and a nil sink discards submissions.
func NewController(
	ctx context.Context,
	project Project,
	calc *greenops.Calculator,
	store Persistence,
	sink Sink,
	opts ...Option,
) *Controller {
	if calc == nil {
		calc = greenops.Default()
	}
	if store == nil {
		store = NopPersistence{}
	}
	if sink == nil {
		sink = SinkFunc(func(context.Context, Submission) error { return nil })
	}

	c := &Controller{
		project: project,
		calc:    calc,
		store:   store,
		sink:    sink,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	log := c.logger(ctx)
	saved, ok := store.Load(ctx, project.ID)
	if ok && saved != nil {
		if err := saved.Validate(); err != nil {
			log.Warn().Err(err).Str("operation", "resume").Msg("discarding invalid saved questionnaire")
			store.Clear(ctx, project.ID)
			ok = false
		}
	}
	if ok && saved != nil {
		c.state = saved.Clone()
		log.Debug().
			Str("operation", "resume").
			Stringer("step", c.state.CurrentStep).
			Msg("resumed saved questionnaire")
	} else {
		c.state = NewStepState(project)
		log.Debug().
			Str("operation", "start").
			Int("default_days", project.DefaultDays()).
			Msg("started new questionnaire")
	}

	return c
}

// Project returns the project the session belongs to.
func (c *Controller) Project() Project { return c.project }

// SessionID returns the session identifier, if one was set.
func (c *Controller) SessionID() string { return c.sessionID }

// State returns a copy of the current state.
func (c *Controller) State() StepState { return c.state.Clone() }

// Answers returns a copy of the current answers.
func (c *Controller) Answers() greenops.Answers { return c.state.Answers.Clone() }

// Current returns the current step.
func (c *Controller) Current() Step { return StepFor(c.state.CurrentStep) }

// Confirmed returns the last emissions snapshot shown in an impact preview.
func (c *Controller) Confirmed() *ConfirmedEmissions { return c.State().ConfirmedEmissions }

// Pending returns the impact preview awaiting acknowledgement, if any.
func (c *Controller) Pending() *Impact { return c.pending }

// Done reports whether the questionnaire has been submitted.
func (c *Controller) Done() bool { return c.submitted }

// CanAdvance reports whether the current step's answer is valid.
func (c *Controller) CanAdvance() bool {
	return c.Current().Validate(c.state.Answers)
}

// UpdateAnswer parses raw into field and saves the session. Unparseable or
// out-of-range input leaves the field unanswered, which blocks Advance.
// Any pending impact preview is discarded.
func (c *Controller) UpdateAnswer(ctx context.Context, field Field, raw string) error {
	return c.Update(ctx, func(a *greenops.Answers) { field.Set(a, raw) })
}

// Update applies fn to the answers and saves the session.
func (c *Controller) Update(ctx context.Context, fn func(a *greenops.Answers)) error {
	if c.submitted {
		return ErrAlreadySubmitted
	}
	fn(&c.state.Answers)
	c.pending = nil
	c.persist(ctx)
	return nil
}

// Advance commits the current step.
//
// An invalid answer blocks. An impact-eligible step first returns its impact
// preview; calling Advance (or AcknowledgeImpact) again moves on. The final
// step submits the questionnaire.
func (c *Controller) Advance(ctx context.Context) (Outcome, error) {
	if c.submitted {
		return Outcome{Kind: OutcomeSubmitted, Step: c.state.CurrentStep}, ErrAlreadySubmitted
	}
	if c.pending != nil {
		out, _ := c.AcknowledgeImpact(ctx)
		return out, nil
	}

	step := c.Current()
	if !step.Validate(c.state.Answers) {
		metrics.BlockedAdvances.WithLabelValues(step.Name).Inc()
		c.logger(ctx).Debug().
			Str("operation", "advance").
			Stringer("step", step.ID).
			Msg("advance blocked by invalid answer")
		return Outcome{Kind: OutcomeBlocked, Step: step.ID}, nil
	}

	if step.Terminal() {
		sub, err := c.Submit(ctx)
		if err != nil {
			return Outcome{Kind: OutcomeBlocked, Step: step.ID}, err
		}
		return Outcome{Kind: OutcomeSubmitted, Step: step.ID, Submission: sub}, nil
	}

	if impact, ok := c.PreviewImpact(); ok {
		c.pending = impact
		metrics.ImpactPreviews.WithLabelValues(step.Name).Inc()
		c.logger(ctx).Debug().
			Str("operation", "preview_impact").
			Stringer("step", step.ID).
			Float64("delta_kg", impact.Delta).
			Msg("impact preview ready")
		return Outcome{Kind: OutcomeImpactPending, Step: step.ID, Impact: impact}, nil
	}

	next := c.moveTo(ctx, NextStep(step.ID, c.state.Answers), metrics.DirectionForward)
	return Outcome{Kind: OutcomeAdvanced, Step: next}, nil
}

// AcknowledgeImpact confirms the pending impact preview, caches its emissions
// for display and moves to the next step. It reports false when no preview
// was pending.
func (c *Controller) AcknowledgeImpact(ctx context.Context) (Outcome, bool) {
	if c.pending == nil {
		return Outcome{Kind: OutcomeBlocked, Step: c.state.CurrentStep}, false
	}
	impact := c.pending
	c.pending = nil
	c.state.ConfirmedEmissions = &ConfirmedEmissions{
		TotalCO2:    impact.After.TotalCO2,
		TreesNeeded: impact.After.TreesNeeded,
	}
	next := c.moveTo(ctx, NextStep(c.state.CurrentStep, c.state.Answers), metrics.DirectionForward)
	return Outcome{Kind: OutcomeAdvanced, Step: next, Impact: impact}, true
}

// Back moves to the previous step, bypassing steps skipped for the current
// answers, and discards any pending impact preview.
func (c *Controller) Back(ctx context.Context) StepID {
	c.pending = nil
	if c.submitted {
		return c.state.CurrentStep
	}
	prev := PreviousStep(c.state.CurrentStep, c.state.Answers)
	if prev == c.state.CurrentStep {
		return prev
	}
	return c.moveTo(ctx, prev, metrics.DirectionBackward)
}

// PreviewImpact computes the impact of the current step's answer without
// changing state. It reports false when the step is not impact-eligible for
// the current answers.
func (c *Controller) PreviewImpact() (*Impact, bool) {
	step := c.Current()
	after := c.state.Answers
	if !step.impactEligible(after) {
		return nil, false
	}

	before := after.Clone()
	for _, f := range step.baselineFields() {
		f.Clear(&before)
	}

	beforeResult := c.calc.CalculateEmissions(before, c.project.Activities)
	afterResult := c.calc.CalculateEmissions(after, c.project.Activities)
	return &Impact{
		Step:        step.ID,
		Before:      beforeResult,
		After:       afterResult,
		PreviousCO2: beforeResult.Partial(),
		NewCO2:      afterResult.Partial(),
		Delta:       afterResult.Partial() - beforeResult.Partial(),
	}, true
}

// Emissions returns the emissions of the current answers including the
// project activities.
func (c *Controller) Emissions() greenops.EmissionsResult {
	return c.calc.CalculateEmissions(c.state.Answers, c.project.Activities)
}

// Submit computes the final emissions, hands them to the sink and erases the
// saved session. It is only possible on the final step with a valid answer.
// When the sink fails the session is kept so that submission can be retried.
func (c *Controller) Submit(ctx context.Context) (*Submission, error) {
	if c.submitted {
		return nil, ErrAlreadySubmitted
	}
	step := c.Current()
	if !step.Terminal() || !step.Validate(c.state.Answers) {
		return nil, ErrNotReady
	}

	log := c.logger(ctx)
	result := c.Emissions()
	sub := Submission{
		ProjectID:   c.project.ID,
		SessionID:   c.sessionID,
		SubmittedAt: c.now().UTC(),
		Answers:     c.state.Answers.Clone(),
		Emissions:   result,
		Summary:     NewSummary(result),
	}

	if err := c.sink.Submit(ctx, sub); err != nil {
		metrics.Submissions.WithLabelValues(metrics.StatusError).Inc()
		log.Error().
			Str("operation", "submit").
			Err(err).
			Msg("submission sink failed")
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	c.submitted = true
	c.pending = nil
	c.store.Clear(ctx, c.project.ID)

	metrics.Submissions.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.SubmittedCO2.Observe(result.TotalCO2)
	log.Info().
		Str("operation", "submit").
		Float64("total_co2_kg", result.TotalCO2).
		Int("trees_needed", result.TreesNeeded).
		Msg("questionnaire submitted")

	return &sub, nil
}

func (c *Controller) moveTo(ctx context.Context, id StepID, direction string) StepID {
	from := c.state.CurrentStep
	c.state.CurrentStep = StepFor(id).ID
	c.persist(ctx)

	metrics.StepTransitions.WithLabelValues(StepFor(id).Name, direction).Inc()
	c.logger(ctx).Debug().
		Str("operation", "move").
		Stringer("from", from).
		Stringer("to", id).
		Str("direction", direction).
		Msg("step changed")
	return id
}

func (c *Controller) persist(ctx context.Context) {
	c.store.Save(ctx, c.project.ID, c.state.Clone())
}

func (c *Controller) logger(ctx context.Context) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "questionnaire").
		Str("project_id", c.project.ID)
	if c.sessionID != "" {
		l = l.Str("session_id", c.sessionID)
	}
	logger := l.Logger()
	return &logger
}
