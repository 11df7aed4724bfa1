package projects

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/logging"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// record is the file representation of a project. Dates are kept as text so
// that an unparseable date degrades to "unknown" instead of failing the load.
type record struct {
	ID             string                     `yaml:"id"`
	Name           string                     `yaml:"name"`
	StartDate      string                     `yaml:"start_date"`
	EndDate        string                     `yaml:"end_date"`
	WelcomeMessage string                     `yaml:"welcome_message"`
	Activities     []greenops.ProjectActivity `yaml:"activities"`
}

func (r record) project() questionnaire.Project {
	return questionnaire.Project{
		ID:             strings.TrimSpace(r.ID),
		Name:           r.Name,
		StartDate:      questionnaire.ParseDate(r.StartDate),
		EndDate:        questionnaire.ParseDate(r.EndDate),
		WelcomeMessage: r.WelcomeMessage,
		Activities:     r.Activities,
	}
}

// Parse decodes a YAML (or JSON) document holding either one project or a
// list of projects. Every project needs an ID.
func Parse(data []byte) ([]questionnaire.Project, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("project file is empty")
	}

	var records []record
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding project list: %w", err)
		}
	case yaml.MappingNode:
		var r record
		if err := root.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding project: %w", err)
		}
		records = append(records, r)
	default:
		return nil, fmt.Errorf("project file must hold a mapping or a list, got %s", nodeKind(root.Kind))
	}

	out := make([]questionnaire.Project, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		p := r.project()
		if p.ID == "" {
			return nil, fmt.Errorf("project %d has no id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate project id %q", p.ID)
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

// LoadFile reads and parses a project file.
func LoadFile(path string) ([]questionnaire.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	return Parse(data)
}

// FileProvider serves projects from files, reading them on every lookup so
// edits are picked up without a restart. Wrap it in a CachingProvider to
// avoid the repeated reads.
type FileProvider struct {
	paths []string
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider returns a provider over the given project files. Earlier
// files win when IDs collide.
func NewFileProvider(paths ...string) *FileProvider {
	return &FileProvider{paths: paths}
}

// Get implements Provider.
func (f *FileProvider) Get(ctx context.Context, id string) (questionnaire.Project, error) {
	log := logging.FromContext(ctx).With().
		Str("component", "projects").
		Str("operation", "get").
		Str("project_id", id).
		Logger()

	for _, path := range f.paths {
		if err := ctx.Err(); err != nil {
			return questionnaire.Project{}, err
		}
		list, err := LoadFile(path)
		if err != nil {
			return questionnaire.Project{}, err
		}
		for _, p := range list {
			if p.ID == id {
				log.Debug().Str("path", path).Msg("project found")
				return p, nil
			}
		}
	}
	return questionnaire.Project{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
}

// List returns every project across all files, first occurrence per ID.
func (f *FileProvider) List() ([]questionnaire.Project, error) {
	var out []questionnaire.Project
	seen := make(map[string]bool)
	for _, path := range f.paths {
		list, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}
