// Package session keeps open questionnaire controllers and serializes the
// actions applied to each of them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/logging"
	"github.com/rshade/greentrail/internal/metrics"
	"github.com/rshade/greentrail/internal/projects"
	"github.com/rshade/greentrail/internal/questionnaire"
	"github.com/rshade/greentrail/internal/statestore"
)

// ErrSessionNotOpen is returned by Do for a key that has no open session.
var ErrSessionNotOpen = errors.New("session not open")

// Key identifies a session: one participant answering for one project.
type Key struct {
	ProjectID   string
	Participant string
}

// String returns "project/participant".
func (k Key) String() string {
	if k.Participant == "" {
		return k.ProjectID
	}
	return k.ProjectID + "/" + k.Participant
}

type entry struct {
	mu         sync.Mutex
	controller *questionnaire.Controller
}

// Manager owns the open sessions. A Controller is not safe for concurrent use,
// so every action on a session runs under that session's lock; different
// sessions proceed in parallel.
type Manager struct {
	projects projects.Provider
	calc     *greenops.Calculator
	store    *statestore.Adapter
	sink     questionnaire.Sink

	mu       sync.Mutex
	sessions map[Key]*entry
}

// NewManager returns a Manager. A nil store keeps no state between runs.
func NewManager(
	provider projects.Provider,
	calc *greenops.Calculator,
	store *statestore.Adapter,
	sink questionnaire.Sink,
) *Manager {
	return &Manager{
		projects: provider,
		calc:     calc,
		store:    store,
		sink:     sink,
		sessions: make(map[Key]*entry),
	}
}

// Open returns the session for key, resuming saved progress when there is
// some. Opening an already open session returns its current snapshot.
func (m *Manager) Open(ctx context.Context, key Key) (questionnaire.StepState, error) {
	m.mu.Lock()
	if e, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.controller.State(), nil
	}
	m.mu.Unlock()

	project, err := m.projects.Get(ctx, key.ProjectID)
	if err != nil {
		return questionnaire.StepState{}, fmt.Errorf("opening session %s: %w", key, err)
	}

	var persistence questionnaire.Persistence = questionnaire.NopPersistence{}
	if m.store != nil {
		persistence = m.store.ForParticipant(key.Participant)
	}

	sessionID := ulid.Make().String()
	ctx = logging.ContextWithTraceID(ctx, sessionID)
	c := questionnaire.NewController(ctx, project, m.calc, persistence, m.sink,
		questionnaire.WithSessionID(sessionID))

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have opened the session while the project loaded.
	if e, ok := m.sessions[key]; ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.controller.State(), nil
	}
	m.sessions[key] = &entry{controller: c}
	metrics.ActiveSessions.Inc()

	logging.FromContext(ctx).Info().
		Str("component", "session").
		Str("operation", "open").
		Str("session", key.String()).
		Stringer("step", c.State().CurrentStep).
		Msg("session opened")
	return c.State(), nil
}

// Do runs fn with exclusive access to the session's controller. A session
// whose questionnaire was submitted during fn is closed afterwards.
func (m *Manager) Do(ctx context.Context, key Key, fn func(c *questionnaire.Controller) error) error {
	m.mu.Lock()
	e, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotOpen, key)
	}

	e.mu.Lock()
	err := fn(e.controller)
	done := e.controller.Done()
	e.mu.Unlock()

	if done {
		m.Close(ctx, key)
	}
	return err
}

// Close drops the session. Saved progress is kept so the participant can
// resume later.
func (m *Manager) Close(ctx context.Context, key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key]; !ok {
		return
	}
	delete(m.sessions, key)
	metrics.ActiveSessions.Dec()
	logging.FromContext(ctx).Debug().
		Str("component", "session").
		Str("operation", "close").
		Str("session", key.String()).
		Msg("session closed")
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
