package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/questionnaire"
	"github.com/rshade/greentrail/internal/tui"
)

// Commands accepted at any line prompt.
const (
	promptBack = ":back"
	promptQuit = ":quit"
)

// errPromptClosed ends the prompt on EOF or :quit.
var errPromptClosed = errors.New("prompt closed")

// linePrompt drives the questionnaire one line at a time, for terminals
// without TUI support and for piped input.
type linePrompt struct {
	w         io.Writer
	scanner   *bufio.Scanner
	run       tui.Runner
	calc      *greenops.Calculator
	precision int

	// submitErr is the last rejected submission not yet retried successfully.
	submitErr error
}

// RunLinePrompt walks the participant through the questionnaire reading
// answers from r. An empty line keeps the saved answer, a number picks an
// option of a choice, ":back" returns to the previous step and ":quit" (or
// EOF) leaves with the progress saved. It returns the submission, or nil when
// the participant left early. Leaving after the sink rejected the answers
// returns that failure, wrapping questionnaire.ErrSubmissionFailed.
func RunLinePrompt(
	ctx context.Context,
	w io.Writer,
	r io.Reader,
	run tui.Runner,
	calc *greenops.Calculator,
	precision int,
) (*questionnaire.Submission, error) {
	if calc == nil {
		calc = greenops.Default()
	}
	p := &linePrompt{w: w, scanner: bufio.NewScanner(r), run: run, calc: calc, precision: precision}

	sub, err := p.loop(ctx)
	if errors.Is(err, errPromptClosed) {
		fmt.Fprintln(w, "\nYour progress has been saved.")
		if p.submitErr != nil {
			return nil, fmt.Errorf("answers were not submitted: %w", p.submitErr)
		}
		return nil, nil
	}
	return sub, err
}

func (p *linePrompt) loop(ctx context.Context) (*questionnaire.Submission, error) {
	for {
		var project questionnaire.Project
		var step questionnaire.Step
		var answers greenops.Answers
		err := p.run(ctx, func(c *questionnaire.Controller) error {
			project, step, answers = c.Project(), c.Current(), c.Answers()
			return nil
		})
		if err != nil {
			return nil, err
		}

		p.printStep(project, step)
		values, back, err := p.ask(step, answers)
		if err != nil {
			return nil, err
		}
		if back {
			if err = p.back(ctx); err != nil {
				return nil, err
			}
			continue
		}

		out, err := p.commit(ctx, step.Fields, values)
		if errors.Is(err, questionnaire.ErrSubmissionFailed) {
			p.submitErr = err
			fmt.Fprintln(p.w, tui.RenderError(err))
			fmt.Fprintln(p.w, "Press Enter to try again.")
			continue
		}
		if err != nil {
			return nil, err
		}

		switch out.Kind {
		case questionnaire.OutcomeBlocked:
			fmt.Fprintln(p.w, "Please answer the question to continue.")
		case questionnaire.OutcomeImpactPending:
			if err = p.confirmImpact(ctx, out.Impact); err != nil {
				return nil, err
			}
		case questionnaire.OutcomeSubmitted:
			p.submitErr = nil
			fmt.Fprintln(p.w)
			equivalent := p.calc.Equivalencies(out.Submission.Summary.TotalCO2).DisplayText
			fmt.Fprintln(p.w, tui.RenderSummary(out.Submission, equivalent, p.precision))
			return out.Submission, nil
		case questionnaire.OutcomeAdvanced:
		}
	}
}

func (p *linePrompt) printStep(project questionnaire.Project, step questionnaire.Step) {
	prompt := step.Prompt
	if step.ID == questionnaire.StepWelcome && project.WelcomeMessage != "" {
		prompt = project.WelcomeMessage
	}
	fmt.Fprintf(p.w, "\n[%d/%d] %s\n", int(step.ID)+1, int(questionnaire.LastStep)+1, prompt)
}

// ask reads one value per field of step. back is true when the participant
// asked for the previous step.
func (p *linePrompt) ask(step questionnaire.Step, answers greenops.Answers) ([]string, bool, error) {
	if len(step.Fields) == 0 {
		line, err := p.readLine("Press Enter to continue: ")
		return nil, line == promptBack, err
	}

	values := make([]string, len(step.Fields))
	for i, f := range step.Fields {
		options := f.Options()
		for n, opt := range options {
			fmt.Fprintf(p.w, "  %d) %s\n", n+1, opt)
		}

		current := f.Get(answers)
		label := tui.FieldLabel(f)
		if current != "" {
			label += " [" + current + "]"
		}
		line, err := p.readLine(label + ": ")
		if err != nil {
			return nil, false, err
		}
		if line == promptBack {
			return nil, true, nil
		}
		values[i] = pickValue(line, current, options)
	}
	return values, false, nil
}

// pickValue maps a typed line to a field value: empty keeps current and a
// number selects from options.
func pickValue(line, current string, options []string) string {
	if line == "" {
		return current
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return line
}

func (p *linePrompt) commit(ctx context.Context, fields []questionnaire.Field, values []string) (questionnaire.Outcome, error) {
	var out questionnaire.Outcome
	err := p.run(ctx, func(c *questionnaire.Controller) error {
		if len(fields) > 0 {
			updErr := c.Update(ctx, func(a *greenops.Answers) {
				for i, f := range fields {
					f.Set(a, values[i])
				}
			})
			if updErr != nil {
				return updErr
			}
		}
		var advErr error
		out, advErr = c.Advance(ctx)
		return advErr
	})
	return out, err
}

func (p *linePrompt) confirmImpact(ctx context.Context, impact *questionnaire.Impact) error {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, tui.RenderImpact(impact, p.precision))
	line, err := p.readLine("\nPress Enter to continue or type :back to change your answer: ")
	if err != nil {
		return err
	}
	if line == promptBack {
		// The preview is discarded by the next answer update.
		return nil
	}
	return p.run(ctx, func(c *questionnaire.Controller) error {
		c.AcknowledgeImpact(ctx)
		return nil
	})
}

func (p *linePrompt) back(ctx context.Context) error {
	return p.run(ctx, func(c *questionnaire.Controller) error {
		c.Back(ctx)
		return nil
	})
}

// readLine prints prompt and returns the trimmed input line.
func (p *linePrompt) readLine(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errPromptClosed
	}
	line := strings.TrimSpace(p.scanner.Text())
	if line == promptQuit {
		return "", errPromptClosed
	}
	return line, nil
}
