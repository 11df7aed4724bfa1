package tui

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// Layout constants.
const (
	fieldLabelWidth   = 16 // Width of the label column of text inputs
	summaryLabelWidth = 22 // Width of the label column of the summary
	separatorWidth    = 50 // Width of horizontal separator lines
	minTruncateLen    = 3  // Minimum length before truncation with ellipsis
)

//nolint:gochecknoglobals // Stateless caser reused by every label.
var titleCaser = cases.Title(language.English)

// RenderImpactDelta renders a styled emissions delta with sign and arrow.
// Increases use the warning color and reductions the OK color.
func RenderImpactDelta(delta float64, precision int) string {
	multiplier := math.Pow(10, float64(max(precision, 0)))
	rounded := math.Round(delta*multiplier) / multiplier

	var icon string
	var color lipgloss.Color
	switch {
	case rounded > 0:
		icon, color = IconArrowUp, ColorWarning
	case rounded < 0:
		icon, color = IconArrowDown, ColorOK
	default:
		icon, color = IconArrowRight, ColorMuted
		rounded = 0
	}

	style := lipgloss.NewStyle().Foreground(color).Bold(true)
	return style.Render(fmt.Sprintf("%s CO2 %s", greenops.FormatSignedKg(rounded, precision), icon))
}

// RenderStepHeader renders the title box and the progress through the steps.
func RenderStepHeader(projectName string, step questionnaire.Step) string {
	var sb strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorHeader).
		Border(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	title := "Travel Footprint"
	if projectName != "" {
		title += ": " + projectName
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")

	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Step %d of %d", int(step.ID)+1, int(questionnaire.LastStep)+1)))
	return sb.String()
}

// RenderFootprint renders the last confirmed footprint, or nothing before the
// first impact preview was acknowledged.
func RenderFootprint(confirmed *questionnaire.ConfirmedEmissions, precision int) string {
	if confirmed == nil {
		return ""
	}
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	return labelStyle.Render("Footprint so far: ") +
		valueStyle.Render(fmt.Sprintf("%s CO2 (%d %s)",
			greenops.FormatKg(confirmed.TotalCO2, precision), confirmed.TreesNeeded, IconTree))
}

// RenderImpact renders the before and after emissions of a step's answer.
func RenderImpact(impact *questionnaire.Impact, precision int) string {
	if impact == nil {
		return ""
	}
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)

	sb.WriteString(headerStyle.Render("Impact of your answer"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", separatorWidth))
	sb.WriteString("\n")

	sb.WriteString(labelStyle.Render("Before:  "))
	sb.WriteString(valueStyle.Render(greenops.FormatKg(impact.PreviousCO2, precision) + " CO2"))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("After:   "))
	sb.WriteString(valueStyle.Render(greenops.FormatKg(impact.NewCO2, precision) + " CO2"))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Change:  "))
	sb.WriteString(RenderImpactDelta(impact.Delta, precision))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Total:   "))
	sb.WriteString(valueStyle.Render(fmt.Sprintf("%s CO2, %d trees to offset",
		greenops.FormatKg(impact.After.TotalCO2, precision), impact.After.TreesNeeded)))
	return sb.String()
}

// RenderChoices renders the options of a single-choice step. current is the
// saved answer and is marked as selected.
func RenderChoices(options []string, cursor int, current string) string {
	var sb strings.Builder
	cursorStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue)

	for i, opt := range options {
		pointer := "  "
		if i == cursor {
			pointer = cursorStyle.Render(IconCursor) + " "
		}
		mark := IconUnselected
		if opt == current {
			mark = IconSelected
		}
		line := fmt.Sprintf("%s %s", mark, opt)
		if i == cursor {
			sb.WriteString(pointer + cursorStyle.Render(line))
		} else {
			sb.WriteString(pointer + valueStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderInputs renders labelled text inputs. views are the rendered inputs in
// field order.
func RenderInputs(fields []questionnaire.Field, views []string, focused int) string {
	var sb strings.Builder
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	focusStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)

	for i, f := range fields {
		label := fmt.Sprintf("%-*s", fieldLabelWidth, truncate(FieldLabel(f), fieldLabelWidth))
		if i == focused {
			sb.WriteString(focusStyle.Render(label))
		} else {
			sb.WriteString(labelStyle.Render(label))
		}
		if i < len(views) {
			sb.WriteString(views[i])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderSummary renders the final breakdown after submission.
func RenderSummary(sub *questionnaire.Submission, equivalent string, precision int) string {
	if sub == nil {
		muted := lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
		return muted.Render("Nothing submitted yet")
	}
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)

	sb.WriteString(headerStyle.Render("Thank you! Your answers were submitted."))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", separatorWidth))
	sb.WriteString("\n")

	row := func(label string, kg float64) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", summaryLabelWidth, label)))
		sb.WriteString(valueStyle.Render(greenops.FormatKg(kg, precision)))
		sb.WriteString("\n")
	}
	b := sub.Summary.Breakdown
	row("Transport", b.Transport)
	row("Accommodation", b.Accommodation)
	row("Food", b.Food)
	row("Project activities", b.ProjectActivities)
	sb.WriteString(strings.Repeat("-", separatorWidth))
	sb.WriteString("\n")
	row("Total CO2", sub.Summary.TotalCO2)
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", summaryLabelWidth, "Trees to offset")))
	sb.WriteString(valueStyle.Render(fmt.Sprintf("%d %s", sub.Summary.TreesNeeded, IconTree)))

	if equivalent != "" {
		sb.WriteString("\n\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Italic(true).Render(equivalent))
	}
	return sb.String()
}

// RenderQuestionnaireHelp renders the keyboard shortcuts of a state.
func RenderQuestionnaireHelp(state QuestionnaireState, choice bool) string {
	helpStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var shortcuts []string
	switch state {
	case StateImpact:
		shortcuts = []string{"Enter: Continue", "Esc: Change answer", "Ctrl+C: Quit"}
	case StateSubmitted:
		shortcuts = []string{"Any key: Exit"}
	case StateError:
		shortcuts = []string{"Enter: Try again", "q: Quit"}
	case StateAnswering, StateQuitting:
		if choice {
			shortcuts = []string{"↑/↓: Choose", "Enter: Next", "Esc: Back", "q: Quit"}
		} else {
			shortcuts = []string{"Tab: Next field", "Enter: Next", "Esc: Back", "Ctrl+C: Quit"}
		}
	}
	return helpStyle.Render(strings.Join(shortcuts, " | "))
}

// RenderError renders an error message.
func RenderError(err error) string {
	style := lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	return style.Render(fmt.Sprintf("Error: %v", err))
}

// RenderLoadingIndicator renders a saving indicator.
func RenderLoadingIndicator() string {
	return lipgloss.NewStyle().Foreground(ColorSpinner).Bold(true).Render("Saving...")
}

// FieldLabel turns a field name such as "carPassengers" into "Car passengers".
func FieldLabel(f questionnaire.Field) string {
	var words []string
	var current []rune
	for _, r := range string(f) {
		if unicode.IsUpper(r) && len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
		current = append(current, unicode.ToLower(r))
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}
	if len(words) == 0 {
		return ""
	}
	if words[len(words)-1] == "km" {
		words[len(words)-1] = "(km)"
	}
	words[0] = titleCaser.String(words[0])
	return strings.Join(words, " ")
}

// truncate shortens s to maxLen runes, ending with an ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= minTruncateLen {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-minTruncateLen]) + "..."
}
