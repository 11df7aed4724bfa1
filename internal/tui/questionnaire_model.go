package tui

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// QuestionnaireState is the screen the questionnaire TUI shows.
type QuestionnaireState int

const (
	// StateAnswering shows the current step and its inputs.
	StateAnswering QuestionnaireState = iota
	// StateImpact shows an impact preview awaiting acknowledgement.
	StateImpact
	// StateSubmitted shows the final summary.
	StateSubmitted
	// StateQuitting indicates the program is exiting.
	StateQuitting
	// StateError shows the last error.
	StateError
)

var errAnswerRequired = errors.New("please answer the question to continue")

// Runner gives fn exclusive access to the participant's controller, for
// example session.Manager.Do bound to one session key.
type Runner func(ctx context.Context, fn func(c *questionnaire.Controller) error) error

// snapshot is the part of the controller state the view needs. It is copied
// inside Runner so the model never touches the controller concurrently.
type snapshot struct {
	valid     bool
	project   questionnaire.Project
	step      questionnaire.Step
	answers   greenops.Answers
	confirmed *questionnaire.ConfirmedEmissions
}

// actionMsg is sent when a controller action completes.
type actionMsg struct {
	snap    snapshot
	outcome *questionnaire.Outcome
	err     error
}

// Default dimensions.
const (
	questionnaireDefaultWidth  = 80
	questionnaireDefaultHeight = 24
)

// QuestionnaireModel is the Bubble Tea model walking a participant through
// the questionnaire.
type QuestionnaireModel struct {
	ctx       context.Context
	run       Runner
	calc      *greenops.Calculator
	precision int

	// Controller snapshot
	snap snapshot

	// Inputs of the current step
	values  []string
	focused int
	cursor  int
	input   textinput.Model
	blocked bool

	// Results
	impact     *questionnaire.Impact
	submission *questionnaire.Submission
	submitErr  error

	state QuestionnaireState
	busy  bool
	err   error

	width  int
	height int
}

// NewQuestionnaireModel creates a model driving the controller behind run.
// A nil calc uses the default factors for the summary equivalencies.
func NewQuestionnaireModel(
	ctx context.Context,
	run Runner,
	calc *greenops.Calculator,
	precision int,
) *QuestionnaireModel {
	if calc == nil {
		calc = greenops.Default()
	}
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 256
	return &QuestionnaireModel{
		ctx:       ctx,
		run:       run,
		calc:      calc,
		precision: precision,
		input:     input,
		state:     StateAnswering,
		width:     questionnaireDefaultWidth,
		height:    questionnaireDefaultHeight,
	}
}

// Init loads the controller state.
func (m *QuestionnaireModel) Init() tea.Cmd {
	return m.action(nil)
}

// Update handles messages and updates the model state.
func (m *QuestionnaireModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case actionMsg:
		return m.handleActionComplete(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.state = StateQuitting
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

//nolint:exhaustive // Only handling relevant key types.
func (m *QuestionnaireModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateSubmitted, StateQuitting:
		m.state = StateQuitting
		return m, tea.Quit

	case StateError:
		switch {
		case msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc:
			m.err = nil
			m.state = StateAnswering
		case msg.Type == tea.KeyRunes && string(msg.Runes) == "q":
			m.state = StateQuitting
			return m, tea.Quit
		}
		return m, nil

	case StateImpact:
		switch msg.Type {
		case tea.KeyEnter:
			return m, m.action(func(ctx context.Context, c *questionnaire.Controller) (*questionnaire.Outcome, error) {
				out, err := c.Advance(ctx)
				return &out, err
			})
		case tea.KeyEsc:
			m.impact = nil
			m.state = StateAnswering
		}
		return m, nil

	case StateAnswering:
		// handled below
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m, m.commit()
	case tea.KeyEsc:
		return m, m.action(func(ctx context.Context, c *questionnaire.Controller) (*questionnaire.Outcome, error) {
			c.Back(ctx)
			return nil, nil
		})
	}

	if m.isChoice() {
		return m.handleChoiceKey(msg)
	}
	return m.handleInputKey(msg)
}

//nolint:exhaustive // Only handling relevant key types.
func (m *QuestionnaireModel) handleChoiceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := m.snap.step.Choices()
	switch msg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			m.state = StateQuitting
			return m, tea.Quit
		case "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "j":
			if m.cursor < len(options)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

//nolint:exhaustive // Only handling relevant key types.
func (m *QuestionnaireModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.values) == 0 {
		if msg.Type == tea.KeyRunes && string(msg.Runes) == "q" {
			m.state = StateQuitting
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.focus((m.focused + 1) % len(m.values))
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.focus((m.focused + len(m.values) - 1) % len(m.values))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.values[m.focused] = m.input.Value()
	m.blocked = false
	return m, cmd
}

// focus saves the edited value and moves the text input to field i.
func (m *QuestionnaireModel) focus(i int) {
	m.values[m.focused] = m.input.Value()
	m.focused = i
	m.input.SetValue(m.values[i])
	m.input.CursorEnd()
}

// commit writes the step's inputs to the answers and advances.
func (m *QuestionnaireModel) commit() tea.Cmd {
	fields := slices.Clone(m.snap.step.Fields)
	var values []string
	switch {
	case m.isChoice():
		options := m.snap.step.Choices()
		if m.cursor < len(options) {
			values = []string{options[m.cursor]}
		}
	case len(m.values) > 0:
		m.values[m.focused] = m.input.Value()
		values = slices.Clone(m.values)
	}

	return m.action(func(ctx context.Context, c *questionnaire.Controller) (*questionnaire.Outcome, error) {
		if len(fields) > 0 && len(values) == len(fields) {
			err := c.Update(ctx, func(a *greenops.Answers) {
				for i, f := range fields {
					f.Set(a, strings.TrimSpace(values[i]))
				}
			})
			if err != nil {
				return nil, err
			}
		}
		out, err := c.Advance(ctx)
		return &out, err
	})
}

// action runs fn through the runner and reports the result as an actionMsg.
// A nil fn only refreshes the snapshot.
func (m *QuestionnaireModel) action(
	fn func(ctx context.Context, c *questionnaire.Controller) (*questionnaire.Outcome, error),
) tea.Cmd {
	m.busy = true

	// Capture references before the command runs outside the event loop.
	ctx := m.ctx
	run := m.run

	return func() tea.Msg {
		var msg actionMsg
		msg.err = run(ctx, func(c *questionnaire.Controller) error {
			var err error
			if fn != nil {
				msg.outcome, err = fn(ctx, c)
			}
			msg.snap = snapshot{
				valid:     true,
				project:   c.Project(),
				step:      c.Current(),
				answers:   c.Answers(),
				confirmed: c.Confirmed(),
			}
			return err
		})
		return msg
	}
}

func (m *QuestionnaireModel) handleActionComplete(msg actionMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	if msg.snap.valid {
		stepChanged := !m.snap.valid || msg.snap.step.ID != m.snap.step.ID
		m.snap = msg.snap
		if stepChanged {
			m.resetInputs()
		}
	}

	if msg.err != nil {
		m.err = msg.err
		if errors.Is(msg.err, questionnaire.ErrSubmissionFailed) {
			m.submitErr = msg.err
		}
		m.state = StateError
		return m, nil
	}

	m.state = StateAnswering
	m.impact = nil
	if msg.outcome == nil {
		return m, nil
	}

	switch msg.outcome.Kind {
	case questionnaire.OutcomeBlocked:
		m.blocked = true
	case questionnaire.OutcomeImpactPending:
		m.impact = msg.outcome.Impact
		m.state = StateImpact
	case questionnaire.OutcomeAdvanced:
		m.blocked = false
	case questionnaire.OutcomeSubmitted:
		m.submission = msg.outcome.Submission
		m.submitErr = nil
		m.state = StateSubmitted
	}
	return m, nil
}

// resetInputs loads the current answers of the step into the inputs.
func (m *QuestionnaireModel) resetInputs() {
	step := m.snap.step
	m.blocked = false
	m.focused = 0
	m.cursor = 0
	m.values = nil

	if m.isChoice() {
		current := step.Fields[0].Get(m.snap.answers)
		if i := slices.Index(step.Choices(), current); i >= 0 {
			m.cursor = i
		}
		m.input.Blur()
		return
	}

	m.values = make([]string, len(step.Fields))
	for i, f := range step.Fields {
		m.values[i] = f.Get(m.snap.answers)
	}
	if len(m.values) == 0 {
		m.input.Blur()
		return
	}
	m.input.SetValue(m.values[0])
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *QuestionnaireModel) isChoice() bool {
	return len(m.snap.step.Choices()) > 0
}

// View renders the current view.
func (m *QuestionnaireModel) View() string {
	switch m.state {
	case StateQuitting:
		return ""
	case StateSubmitted:
		return m.renderSubmittedView()
	case StateAnswering, StateImpact, StateError:
		// Handled below
	}

	if !m.snap.valid {
		if m.err != nil {
			return RenderError(m.err) + "\n\n" + RenderQuestionnaireHelp(StateError, false)
		}
		return RenderLoadingIndicator()
	}

	var sb strings.Builder
	sb.WriteString(RenderStepHeader(m.snap.project.Name, m.snap.step))
	sb.WriteString("\n")
	if footprint := RenderFootprint(m.snap.confirmed, m.precision); footprint != "" {
		sb.WriteString(footprint)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch m.state {
	case StateImpact:
		sb.WriteString(RenderImpact(m.impact, m.precision))
	case StateError:
		sb.WriteString(RenderError(m.err))
	default:
		sb.WriteString(m.renderStep())
	}

	sb.WriteString("\n\n")
	if m.busy {
		sb.WriteString(RenderLoadingIndicator())
	} else {
		sb.WriteString(RenderQuestionnaireHelp(m.state, m.isChoice()))
	}
	return sb.String()
}

func (m *QuestionnaireModel) renderStep() string {
	var sb strings.Builder
	prompt := m.snap.step.Prompt
	if m.snap.step.ID == questionnaire.StepWelcome && m.snap.project.WelcomeMessage != "" {
		prompt = m.snap.project.WelcomeMessage
	}
	sb.WriteString(prompt)
	sb.WriteString("\n\n")

	switch {
	case m.isChoice():
		current := m.snap.step.Fields[0].Get(m.snap.answers)
		sb.WriteString(RenderChoices(m.snap.step.Choices(), m.cursor, current))
	case len(m.values) > 0:
		views := make([]string, len(m.values))
		for i, v := range m.values {
			if i == m.focused {
				views[i] = m.input.View()
			} else {
				views[i] = v
			}
		}
		sb.WriteString(RenderInputs(m.snap.step.Fields, views, m.focused))
	default:
		sb.WriteString("Press Enter to start.\n")
	}

	if m.blocked {
		sb.WriteString(RenderError(errAnswerRequired))
	}
	return sb.String()
}

func (m *QuestionnaireModel) renderSubmittedView() string {
	equivalent := ""
	if m.submission != nil {
		equivalent = m.calc.Equivalencies(m.submission.Summary.TotalCO2).DisplayText
	}
	return RenderSummary(m.submission, equivalent, m.precision) + "\n\n" +
		RenderQuestionnaireHelp(StateSubmitted, false)
}

// State returns the current screen.
func (m *QuestionnaireModel) State() QuestionnaireState { return m.state }

// Step returns the step shown, valid after the first action completed.
func (m *QuestionnaireModel) Step() questionnaire.StepID { return m.snap.step.ID }

// Busy reports whether a controller action is in flight.
func (m *QuestionnaireModel) Busy() bool { return m.busy }

// Blocked reports whether the last attempt to advance was rejected.
func (m *QuestionnaireModel) Blocked() bool { return m.blocked }

// Impact returns the impact preview shown, if any.
func (m *QuestionnaireModel) Impact() *questionnaire.Impact { return m.impact }

// Submission returns the submission once the questionnaire is complete.
func (m *QuestionnaireModel) Submission() *questionnaire.Submission { return m.submission }

// Err returns the last error.
func (m *QuestionnaireModel) Err() error { return m.err }

// SubmissionErr returns the last rejected submission, or nil once a
// submission went through. It outlives a dismissed error screen.
func (m *QuestionnaireModel) SubmissionErr() error { return m.submitErr }
