package questionnaire

import "errors"

// Sentinel errors. None of them describe invalid user input: that only ever
// blocks progression through a step's validity check.
var (
	// ErrUnknownField is returned when parsing a field name that does not exist.
	ErrUnknownField = errors.New("unknown answer field")

	// ErrAlreadySubmitted is returned when mutating a finished questionnaire.
	ErrAlreadySubmitted = errors.New("questionnaire already submitted")

	// ErrSubmissionFailed wraps a sink failure on the terminal step.
	ErrSubmissionFailed = errors.New("submitting emissions failed")
)
