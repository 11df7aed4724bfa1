// Package sink delivers completed questionnaire submissions.
package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// LogSink writes one structured log line per submission.
type LogSink struct {
	logger zerolog.Logger
	calc   *greenops.Calculator
}

// NewLogSink returns a LogSink writing to logger. Equivalencies are computed
// with calc, or the default calculator when nil.
func NewLogSink(logger zerolog.Logger, calc *greenops.Calculator) *LogSink {
	if calc == nil {
		calc = greenops.Default()
	}
	return &LogSink{
		logger: logger.With().Str("component", "sink").Logger(),
		calc:   calc,
	}
}

// Submit implements questionnaire.Sink.
func (s *LogSink) Submit(_ context.Context, sub questionnaire.Submission) error {
	b := sub.Summary.Breakdown
	s.logger.Info().
		Str("operation", "submit").
		Str("project_id", sub.ProjectID).
		Str("session_id", sub.SessionID).
		Float64("total_co2_kg", sub.Summary.TotalCO2).
		Int("trees_needed", sub.Summary.TreesNeeded).
		Float64("transport_kg", b.Transport).
		Float64("accommodation_kg", b.Accommodation).
		Float64("food_kg", b.Food).
		Float64("activities_kg", b.ProjectActivities).
		Str("equivalent", s.calc.Equivalencies(sub.Summary.TotalCO2).DisplayText).
		Msg("footprint submitted")
	return nil
}

// FileSink appends submissions to a file as JSON Lines.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink returns a FileSink appending to path. The parent directory is
// created on first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the output file.
func (s *FileSink) Path() string { return s.path }

// Submit implements questionnaire.Sink.
func (s *FileSink) Submit(ctx context.Context, sub questionnaire.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mkErr := os.MkdirAll(filepath.Dir(s.path), 0o750); mkErr != nil {
		return fmt.Errorf("creating submission directory: %w", mkErr)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening submission file: %w", err)
	}
	w := bufio.NewWriter(f)
	_, _ = w.Write(line)
	_ = w.WriteByte('\n')
	if flushErr := w.Flush(); flushErr != nil {
		_ = f.Close()
		return fmt.Errorf("writing submission: %w", flushErr)
	}
	return f.Close()
}

// ReadFile returns every submission stored in a FileSink output file.
func ReadFile(path string) ([]questionnaire.Submission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []questionnaire.Submission
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var sub questionnaire.Submission
		if err := json.Unmarshal(scanner.Bytes(), &sub); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, sub)
	}
	return out, scanner.Err()
}

// MultiSink hands each submission to every sink and joins their errors.
type MultiSink []questionnaire.Sink

// Submit implements questionnaire.Sink.
func (m MultiSink) Submit(ctx context.Context, sub questionnaire.Submission) error {
	var errs []error
	for _, s := range m {
		if err := s.Submit(ctx, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
