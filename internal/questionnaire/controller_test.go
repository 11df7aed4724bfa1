package questionnaire

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greentrail/internal/greenops"
)

type memStore struct {
	states map[string]StepState
	saves  int
	clears int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]StepState)}
}

func (m *memStore) Load(_ context.Context, projectID string) (*StepState, bool) {
	s, ok := m.states[projectID]
	if !ok {
		return nil, false
	}
	c := s.Clone()
	return &c, true
}

func (m *memStore) Save(_ context.Context, projectID string, state StepState) {
	m.saves++
	m.states[projectID] = state.Clone()
}

func (m *memStore) Clear(_ context.Context, projectID string) {
	m.clears++
	delete(m.states, projectID)
}

type recordingSink struct {
	got []Submission
	err error
}

func (r *recordingSink) Submit(_ context.Context, s Submission) error {
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, s)
	return nil
}

func testProject() Project {
	return Project{
		ID:        "proj-1",
		Name:      "Summer School",
		StartDate: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC),
	}
}

// controllerAt resumes a controller positioned on step with answers.
func controllerAt(t *testing.T, step StepID, answers greenops.Answers) (*Controller, *memStore, *recordingSink) {
	t.Helper()
	store := newMemStore()
	store.states["proj-1"] = StepState{Answers: answers, CurrentStep: step}
	sink := &recordingSink{}
	c := NewController(context.Background(), testProject(), greenops.Default(), store, sink,
		WithSessionID("sess-1"),
		WithClock(func() time.Time { return time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC) }))
	require.Equal(t, step, c.State().CurrentStep)
	return c, store, sink
}

func completeAnswers() greenops.Answers {
	a := DefaultAnswers(testProject())
	a.FirstName = "Ada"
	a.Country = "NL"
	a.Email = "ada@example.org"
	a.AccommodationCategory = greenops.AccommodationHostel
	a.RoomOccupancy = greenops.OccupancyTwo
	a.Electricity = greenops.ElectricityConventional
	a.Food = greenops.DietRarely
	a.TrainKm = greenops.Float(300)
	a.Age = greenops.Int(34)
	a.Gender = greenops.GenderPreferNotToSay
	return a
}

func TestNewControllerFreshSession(t *testing.T) {
	store := newMemStore()
	c := NewController(context.Background(), testProject(), nil, store, nil)

	st := c.State()
	assert.Equal(t, StepWelcome, st.CurrentStep)
	require.NotNil(t, st.Answers.Days)
	assert.Equal(t, 3, *st.Answers.Days)
	assert.Equal(t, 1, *st.Answers.CarPassengers)
	assert.Nil(t, st.ConfirmedEmissions)
	assert.False(t, c.Done())
	assert.Zero(t, store.saves, "starting a session must not write")
}

func TestNewControllerRestore(t *testing.T) {
	t.Run("valid saved state resumes", func(t *testing.T) {
		a := completeAnswers()
		c, _, _ := controllerAt(t, StepTrainKm, a)
		assert.Equal(t, "ada@example.org", c.Answers().Email)
	})

	t.Run("invalid saved state starts over", func(t *testing.T) {
		store := newMemStore()
		store.states["proj-1"] = StepState{CurrentStep: StepID(42)}
		c := NewController(context.Background(), testProject(), nil, store, nil)
		assert.Equal(t, NewStepState(testProject()), c.State())
		assert.Equal(t, 1, store.clears, "invalid entry must be erased")
		assert.Empty(t, store.states)
	})
}

func TestAdvanceBlocksInvalidAnswer(t *testing.T) {
	c, store, _ := controllerAt(t, StepParticipantInfo, DefaultAnswers(testProject()))
	require.NoError(t, c.UpdateAnswer(context.Background(), FieldFirstName, "  "))
	saves := store.saves

	out, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, out.Kind)
	assert.Equal(t, StepParticipantInfo, out.Step)
	assert.False(t, c.CanAdvance())
	assert.Equal(t, saves, store.saves, "blocked advance must not write")
}

func TestAdvanceMovesWithoutImpact(t *testing.T) {
	c, store, _ := controllerAt(t, StepWelcome, DefaultAnswers(testProject()))

	out, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out.Kind)
	assert.Equal(t, StepParticipantInfo, out.Step)
	assert.Equal(t, StepParticipantInfo, store.states["proj-1"].CurrentStep)
}

func TestCarStepsSkippedBothWays(t *testing.T) {
	ctx := context.Background()
	a := completeAnswers()
	c, _, _ := controllerAt(t, StepCarKm, a)

	out, err := c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeImpactPending, out.Kind, "car distance always previews")
	assert.InDelta(t, 0, out.Impact.Delta, 1e-9)

	out, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out.Kind)
	assert.Equal(t, StepAge, out.Step)

	assert.Equal(t, StepCarKm, c.Back(ctx))
}

func TestCarStepsVisitedWithCarTravel(t *testing.T) {
	ctx := context.Background()
	a := completeAnswers()
	c, _, _ := controllerAt(t, StepCarKm, a)
	require.NoError(t, c.UpdateAnswer(ctx, FieldCarKm, "100"))

	_, err := c.Advance(ctx)
	require.NoError(t, err)
	out, ok := c.AcknowledgeImpact(ctx)
	require.True(t, ok)
	assert.Equal(t, StepCarType, out.Step)

	// Car type unanswered.
	out, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, out.Kind)

	require.NoError(t, c.UpdateAnswer(ctx, FieldCarType, "electricCar"))
	out, err = c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeImpactPending, out.Kind)
	// Gasoline baseline is replaced by the electric factor.
	wantDelta := 100*0.0473*2 - 100*0.1710*2
	assert.InDelta(t, wantDelta, out.Impact.Delta, 1e-9)

	_, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepCarPassengers, c.State().CurrentStep)
}

func TestDistanceImpact(t *testing.T) {
	ctx := context.Background()

	t.Run("zero flight has no preview", func(t *testing.T) {
		c, _, _ := controllerAt(t, StepFlightKm, completeAnswers())
		out, err := c.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdvanced, out.Kind)
		assert.Equal(t, StepBoatKm, out.Step)
		_, ok := c.PreviewImpact()
		assert.False(t, ok)
	})

	t.Run("positive flight previews its emissions", func(t *testing.T) {
		c, store, _ := controllerAt(t, StepFlightKm, completeAnswers())
		require.NoError(t, c.UpdateAnswer(ctx, FieldFlightKm, "500"))

		out, err := c.Advance(ctx)
		require.NoError(t, err)
		require.Equal(t, OutcomeImpactPending, out.Kind)
		assert.Equal(t, StepFlightKm, out.Step)
		assert.InDelta(t, 500*0.2586*2, out.Impact.Delta, 1e-9)
		assert.InDelta(t, out.Impact.NewCO2-out.Impact.PreviousCO2, out.Impact.Delta, 1e-9)
		assert.Same(t, out.Impact, c.Pending())

		out, ok := c.AcknowledgeImpact(ctx)
		require.True(t, ok)
		assert.Equal(t, StepBoatKm, out.Step)
		assert.Nil(t, c.Pending())

		confirmed := store.states["proj-1"].ConfirmedEmissions
		require.NotNil(t, confirmed)
		assert.InDelta(t, c.Emissions().TotalCO2, confirmed.TotalCO2, 1e-9)
		assert.Equal(t, c.Emissions().TreesNeeded, confirmed.TreesNeeded)
	})

	t.Run("updating an answer discards the preview", func(t *testing.T) {
		c, _, _ := controllerAt(t, StepFlightKm, completeAnswers())
		require.NoError(t, c.UpdateAnswer(ctx, FieldFlightKm, "500"))
		_, err := c.Advance(ctx)
		require.NoError(t, err)

		require.NoError(t, c.UpdateAnswer(ctx, FieldFlightKm, "0"))
		assert.Nil(t, c.Pending())
		out, err := c.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdvanced, out.Kind)
	})
}

func TestElectricityImpactComparesAgainstNoAccommodation(t *testing.T) {
	a := DefaultAnswers(testProject())
	a.AccommodationCategory = greenops.AccommodationHotel
	a.RoomOccupancy = greenops.OccupancyAlone
	a.Electricity = greenops.ElectricityGreen
	c, _, _ := controllerAt(t, StepElectricity, a)

	impact, ok := c.PreviewImpact()
	require.True(t, ok)
	assert.InDelta(t, 0, impact.PreviousCO2, 1e-9)
	assert.InDelta(t, 3*31.1*1*0.6, impact.NewCO2, 1e-9)
	assert.InDelta(t, 3*31.1*1*0.6, impact.Delta, 1e-9)
}

func TestOccupancyImpactUsesOwnField(t *testing.T) {
	a := DefaultAnswers(testProject())
	a.AccommodationCategory = greenops.AccommodationHotel
	a.RoomOccupancy = greenops.OccupancyTwo
	c, _, _ := controllerAt(t, StepRoomOccupancy, a)

	impact, ok := c.PreviewImpact()
	require.True(t, ok)
	// Without occupancy the accommodation is not computable yet.
	assert.InDelta(t, 0, impact.PreviousCO2, 1e-9)
	assert.InDelta(t, 3*31.1*0.5, impact.NewCO2, 1e-9)
}

func TestImpactIncludesProjectActivities(t *testing.T) {
	store := newMemStore()
	a := DefaultAnswers(testProject())
	a.Food = greenops.DietNever
	store.states["proj-1"] = StepState{Answers: a, CurrentStep: StepFood}
	p := testProject()
	p.Activities = []greenops.ProjectActivity{{ActivityType: greenops.ModeBus, DistanceKm: 100}}
	c := NewController(context.Background(), p, nil, store, nil)

	impact, ok := c.PreviewImpact()
	require.True(t, ok)
	assert.InDelta(t, 100*0.1046, impact.Before.ProjectActivitiesCO2, 1e-9)
	assert.InDelta(t, 3*2.89, impact.Delta, 1e-9)
	assert.InDelta(t, 3*2.89+100*0.1046, impact.After.TotalCO2, 1e-9)
}

func TestBackAtFirstStep(t *testing.T) {
	c, store, _ := controllerAt(t, StepWelcome, DefaultAnswers(testProject()))
	assert.Equal(t, StepWelcome, c.Back(context.Background()))
	assert.Zero(t, store.saves)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("final step submits and clears saved state", func(t *testing.T) {
		c, store, sink := controllerAt(t, StepGender, completeAnswers())

		out, err := c.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSubmitted, out.Kind)
		require.NotNil(t, out.Submission)
		require.Len(t, sink.got, 1)

		sub := sink.got[0]
		assert.Equal(t, "proj-1", sub.ProjectID)
		assert.Equal(t, "sess-1", sub.SessionID)
		assert.Equal(t, time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC), sub.SubmittedAt)
		// 300 km train round trip, 3 nights hostel shared by two, 3 days of rarely meat.
		want := 300*0.0355*2 + 3*14.7*0.5*1 + 3*3.81
		assert.InDelta(t, want, sub.Emissions.TotalCO2, 1e-9)
		assert.InDelta(t, want, sub.Summary.TotalCO2, 1e-9)
		assert.Equal(t, 3, sub.Summary.TreesNeeded)

		assert.True(t, c.Done())
		assert.Equal(t, 1, store.clears)
		_, ok := store.states["proj-1"]
		assert.False(t, ok)

		_, err = c.Advance(ctx)
		require.ErrorIs(t, err, ErrAlreadySubmitted)
		require.ErrorIs(t, c.UpdateAnswer(ctx, FieldAge, "40"), ErrAlreadySubmitted)
	})

	t.Run("sink failure keeps the session", func(t *testing.T) {
		c, store, sink := controllerAt(t, StepGender, completeAnswers())
		sink.err = errors.New("backend down")

		out, err := c.Advance(ctx)
		require.ErrorIs(t, err, ErrSubmissionFailed)
		assert.ErrorContains(t, err, "backend down")
		assert.Equal(t, OutcomeBlocked, out.Kind)
		assert.False(t, c.Done())
		assert.Zero(t, store.clears)

		sink.err = nil
		out, err = c.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSubmitted, out.Kind)
	})

	t.Run("not on the final step", func(t *testing.T) {
		c, _, _ := controllerAt(t, StepAge, completeAnswers())
		_, err := c.Submit(ctx)
		require.ErrorIs(t, err, ErrNotReady)
	})
}

func TestUpdateAnswerPersists(t *testing.T) {
	c, store, _ := controllerAt(t, StepDays, DefaultAnswers(testProject()))
	ctx := context.Background()

	require.NoError(t, c.UpdateAnswer(ctx, FieldDays, "5"))
	assert.Equal(t, 5, *store.states["proj-1"].Answers.Days)

	require.NoError(t, c.UpdateAnswer(ctx, FieldDays, "five"))
	assert.Nil(t, store.states["proj-1"].Answers.Days)
	assert.False(t, c.CanAdvance())
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "impact_pending", OutcomeImpactPending.String())
	assert.Equal(t, "OutcomeKind(9)", OutcomeKind(9).String())
}
