package statestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rshade/greentrail/internal/logging"
	"github.com/rshade/greentrail/internal/metrics"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// KeyPrefix prefixes every questionnaire state key.
const KeyPrefix = "greentrail:questionnaire:"

// Recovery reasons recorded when saved state is discarded.
const (
	reasonUnreadable = "unreadable"
	reasonMalformed  = "malformed"
	reasonInvalid    = "invalid"
)

// Key returns the storage key of a project's session. A non-empty participant
// scopes the key so several participants of one project do not share state.
func Key(projectID, participant string) string {
	if participant == "" {
		return KeyPrefix + projectID
	}
	return KeyPrefix + projectID + ":" + participant
}

// Adapter implements questionnaire.Persistence over a Backend.
type Adapter struct {
	backend     Backend
	participant string

	mu        sync.Mutex
	lastWrite map[string][sha256.Size]byte
}

var _ questionnaire.Persistence = (*Adapter)(nil)

// NewAdapter returns an Adapter storing state in backend.
func NewAdapter(backend Backend) *Adapter {
	return &Adapter{
		backend:   backend,
		lastWrite: make(map[string][sha256.Size]byte),
	}
}

// ForParticipant returns an Adapter over the same backend whose keys are
// scoped to participant.
func (a *Adapter) ForParticipant(participant string) *Adapter {
	scoped := NewAdapter(a.backend)
	scoped.participant = participant
	return scoped
}

// Load implements questionnaire.Persistence. Entries that cannot be read back
// into a valid state are deleted so the next session starts fresh.
func (a *Adapter) Load(ctx context.Context, projectID string) (*questionnaire.StepState, bool) {
	key := Key(projectID, a.participant)
	log := logging.FromContext(ctx).With().
		Str("component", "statestore").
		Str("operation", "load").
		Str("key", key).
		Logger()

	a.forget(key)

	data, err := a.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("saved state unavailable")
		metrics.StateRecoveries.WithLabelValues(reasonUnreadable).Inc()
		return nil, false
	}

	state, reason, err := decodeState(data)
	if err != nil {
		log.Warn().Err(err).Str("reason", reason).Msg("discarding unusable saved state")
		metrics.StateRecoveries.WithLabelValues(reason).Inc()
		if delErr := a.backend.Delete(key); delErr != nil {
			log.Warn().Err(delErr).Msg("failed to delete unusable saved state")
		}
		return nil, false
	}

	// The digest is not remembered here so the first save after a resume
	// rewrites the entry and renews its expiry.
	log.Debug().Stringer("step", state.CurrentStep).Msg("loaded saved state")
	return state, true
}

// Save implements questionnaire.Persistence. Writing a state identical to the
// last one written through this Adapter since the last Load is skipped. A failed write removes
// the stale entry so that a later Load cannot resume outdated progress.
func (a *Adapter) Save(ctx context.Context, projectID string, state questionnaire.StepState) {
	key := Key(projectID, a.participant)
	log := logging.FromContext(ctx).With().
		Str("component", "statestore").
		Str("operation", "save").
		Str("key", key).
		Logger()

	data, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode state")
		metrics.StateWriteFailures.Inc()
		return
	}

	if a.unchanged(key, data) {
		return
	}

	if setErr := a.backend.Set(key, data); setErr != nil {
		log.Warn().Err(setErr).Int("bytes", len(data)).Msg("failed to save state")
		metrics.StateWriteFailures.Inc()
		a.forget(key)
		if delErr := a.backend.Delete(key); delErr != nil {
			log.Warn().Err(delErr).Msg("failed to delete stale state")
		}
		return
	}

	a.remember(key, data)
	log.Debug().Stringer("step", state.CurrentStep).Msg("saved state")
}

// Clear implements questionnaire.Persistence.
func (a *Adapter) Clear(ctx context.Context, projectID string) {
	key := Key(projectID, a.participant)
	a.forget(key)
	if err := a.backend.Delete(key); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "statestore").
			Str("operation", "clear").
			Str("key", key).
			Err(err).
			Msg("failed to clear state")
	}
}

func (a *Adapter) unchanged(key string, data []byte) bool {
	sum := sha256.Sum256(data)
	a.mu.Lock()
	defer a.mu.Unlock()
	prev, ok := a.lastWrite[key]
	return ok && prev == sum
}

func (a *Adapter) remember(key string, data []byte) {
	sum := sha256.Sum256(data)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastWrite[key] = sum
}

func (a *Adapter) forget(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.lastWrite, key)
}

// requiredKeys must all be present for a payload to count as a saved state.
//
//nolint:gochecknoglobals // Constant lookup table.
var requiredKeys = []string{"answers", "currentStep"}

func decodeState(data []byte) (*questionnaire.StepState, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, reasonMalformed, fmt.Errorf("decode state: %w", err)
	}
	for _, k := range requiredKeys {
		if v, ok := fields[k]; !ok || bytes.Equal(v, []byte("null")) {
			return nil, reasonMalformed, fmt.Errorf("decode state: missing %q", k)
		}
	}

	var state questionnaire.StepState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, reasonMalformed, fmt.Errorf("decode state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, reasonInvalid, fmt.Errorf("validate state: %w", err)
	}
	return &state, "", nil
}
