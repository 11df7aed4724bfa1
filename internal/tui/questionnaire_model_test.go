package tui

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/questionnaire"
)

type preloaded struct {
	state *questionnaire.StepState
}

func (p *preloaded) Load(context.Context, string) (*questionnaire.StepState, bool) {
	if p.state == nil {
		return nil, false
	}
	s := p.state.Clone()
	return &s, true
}

func (p *preloaded) Save(_ context.Context, _ string, s questionnaire.StepState) { p.state = &s }

func (p *preloaded) Clear(context.Context, string) { p.state = nil }

func tuiProject() questionnaire.Project {
	return questionnaire.Project{
		ID:        "p1",
		Name:      "Summer School",
		StartDate: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC),
	}
}

// newModel returns an initialised model over a controller resumed from saved.
func newModel(t *testing.T, saved *questionnaire.StepState, sink questionnaire.Sink) *QuestionnaireModel {
	t.Helper()
	ctx := context.Background()
	c := questionnaire.NewController(ctx, tuiProject(), nil, &preloaded{state: saved}, sink)
	run := func(ctx context.Context, fn func(c *questionnaire.Controller) error) error { return fn(c) }

	m := NewQuestionnaireModel(ctx, run, nil, 1)
	cmd := m.Init()
	require.NotNil(t, cmd)
	m.Update(cmd())
	require.False(t, m.Busy())
	return m
}

// press feeds msg to the model and completes any controller action it starts.
func press(m *QuestionnaireModel, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	for m.Busy() && cmd != nil {
		_, cmd = m.Update(cmd())
	}
	return cmd
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// choose moves the cursor to option on the current choice step.
func choose(t *testing.T, m *QuestionnaireModel, option string) {
	t.Helper()
	options := questionnaire.StepFor(m.Step()).Choices()
	idx := slices.Index(options, option)
	require.GreaterOrEqual(t, idx, 0, "option %q on step %s", option, m.Step())
	for range options {
		press(m, key(tea.KeyUp))
	}
	for range idx {
		press(m, key(tea.KeyDown))
	}
}

func TestQuestionnaireModelWalkthrough(t *testing.T) {
	m := newModel(t, nil, nil)
	assert.Equal(t, questionnaire.StepWelcome, m.Step())
	assert.Contains(t, m.View(), "Step 1 of 16")
	assert.Contains(t, m.View(), "Summer School")

	press(m, key(tea.KeyEnter))
	require.Equal(t, questionnaire.StepParticipantInfo, m.Step())

	press(m, key(tea.KeyEnter))
	assert.True(t, m.Blocked())
	assert.Equal(t, questionnaire.StepParticipantInfo, m.Step())
	assert.Contains(t, m.View(), "please answer")

	press(m, typed("Ada"))
	press(m, key(tea.KeyTab))
	press(m, typed("NL"))
	press(m, key(tea.KeyTab))
	press(m, typed("ada@example.org"))
	press(m, key(tea.KeyEnter))
	require.Equal(t, questionnaire.StepDays, m.Step())
	assert.Equal(t, []string{"3"}, m.values, "days prefilled from the project dates")

	press(m, key(tea.KeyEnter))
	require.Equal(t, questionnaire.StepAccommodationCategory, m.Step())

	choose(t, m, string(greenops.AccommodationHotel))
	press(m, key(tea.KeyEnter))
	require.Equal(t, StateImpact, m.State())
	require.NotNil(t, m.Impact())
	assert.InDelta(t, 0, m.Impact().Delta, 1e-9, "occupancy is still unanswered")
	assert.Contains(t, m.View(), "Impact of your answer")

	press(m, key(tea.KeyEnter))
	assert.Equal(t, StateAnswering, m.State())
	assert.Equal(t, questionnaire.StepRoomOccupancy, m.Step())
	assert.Contains(t, m.View(), "Footprint so far")

	press(m, key(tea.KeyEsc))
	assert.Equal(t, questionnaire.StepAccommodationCategory, m.Step())
	assert.Contains(t, m.View(), IconSelected+" hotel", "saved answer is marked")
}

func TestQuestionnaireModelImpactEscKeepsStep(t *testing.T) {
	a := questionnaire.DefaultAnswers(tuiProject())
	m := newModel(t, &questionnaire.StepState{Answers: a, CurrentStep: questionnaire.StepFood}, nil)

	choose(t, m, string(greenops.DietNever))
	press(m, key(tea.KeyEnter))
	require.Equal(t, StateImpact, m.State())

	press(m, key(tea.KeyEsc))
	assert.Equal(t, StateAnswering, m.State())
	assert.Nil(t, m.Impact())
	assert.Equal(t, questionnaire.StepFood, m.Step())
}

func TestQuestionnaireModelSubmit(t *testing.T) {
	a := questionnaire.DefaultAnswers(tuiProject())
	a.FirstName, a.Country, a.Email = "Ada", "NL", "ada@example.org"
	a.AccommodationCategory = greenops.AccommodationHostel
	a.RoomOccupancy = greenops.OccupancyTwo
	a.Electricity = greenops.ElectricityConventional
	a.Food = greenops.DietRarely
	a.TrainKm = greenops.Float(300)
	a.Age = greenops.Int(34)

	var got []questionnaire.Submission
	fail := true
	sink := questionnaire.SinkFunc(func(_ context.Context, s questionnaire.Submission) error {
		if fail {
			return errors.New("reporting service down")
		}
		got = append(got, s)
		return nil
	})
	m := newModel(t, &questionnaire.StepState{Answers: a, CurrentStep: questionnaire.StepGender}, sink)

	choose(t, m, string(greenops.GenderFemale))
	press(m, key(tea.KeyEnter))
	require.Equal(t, StateError, m.State())
	require.ErrorIs(t, m.Err(), questionnaire.ErrSubmissionFailed)
	require.ErrorIs(t, m.SubmissionErr(), questionnaire.ErrSubmissionFailed)
	assert.Contains(t, m.View(), "reporting service down")

	fail = false
	press(m, key(tea.KeyEnter))
	assert.Equal(t, StateAnswering, m.State())
	assert.NoError(t, m.Err())
	assert.ErrorIs(t, m.SubmissionErr(), questionnaire.ErrSubmissionFailed, "dismissing the error keeps the failure")
	choose(t, m, string(greenops.GenderFemale))
	press(m, key(tea.KeyEnter))
	require.Equal(t, StateSubmitted, m.State())
	require.Len(t, got, 1)
	require.NotNil(t, m.Submission())
	assert.NoError(t, m.SubmissionErr())
	assert.Equal(t, greenops.GenderFemale, got[0].Answers.Gender)

	view := m.View()
	assert.Contains(t, view, "Thank you")
	assert.Contains(t, view, "Total CO2")

	cmd := press(m, typed("x"))
	assert.Equal(t, StateQuitting, m.State())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestQuestionnaireModelRunnerError(t *testing.T) {
	errClosed := errors.New("session closed")
	run := func(context.Context, func(c *questionnaire.Controller) error) error { return errClosed }
	m := NewQuestionnaireModel(context.Background(), run, nil, 2)
	m.Update(m.Init()())

	assert.Equal(t, StateError, m.State())
	assert.ErrorIs(t, m.Err(), errClosed)
	assert.Contains(t, m.View(), "session closed")
}

func TestQuestionnaireModelQuitKeys(t *testing.T) {
	m := newModel(t, nil, nil)
	cmd := press(m, key(tea.KeyCtrlC))
	assert.Equal(t, StateQuitting, m.State())
	require.NotNil(t, cmd)

	// "q" is text on input steps, a quit key on choice steps.
	a := questionnaire.DefaultAnswers(tuiProject())
	m = newModel(t, &questionnaire.StepState{Answers: a, CurrentStep: questionnaire.StepParticipantInfo}, nil)
	press(m, typed("q"))
	assert.Equal(t, StateAnswering, m.State())

	m = newModel(t, &questionnaire.StepState{Answers: a, CurrentStep: questionnaire.StepFood}, nil)
	press(m, typed("q"))
	assert.Equal(t, StateQuitting, m.State())
}

func TestQuestionnaireModelWindowSize(t *testing.T) {
	m := newModel(t, nil, nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
