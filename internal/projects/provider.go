// Package projects supplies the project records a questionnaire session is
// opened for.
package projects

import (
	"context"
	"errors"

	"github.com/rshade/greentrail/internal/questionnaire"
)

// ErrProjectNotFound is returned when no project has the requested ID.
var ErrProjectNotFound = errors.New("project not found")

// Provider looks up projects by ID.
type Provider interface {
	Get(ctx context.Context, id string) (questionnaire.Project, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, id string) (questionnaire.Project, error)

// Get implements Provider.
func (f ProviderFunc) Get(ctx context.Context, id string) (questionnaire.Project, error) {
	return f(ctx, id)
}
