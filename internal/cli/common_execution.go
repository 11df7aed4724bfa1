package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/logging"
	"github.com/rshade/greentrail/internal/projects"
	"github.com/rshade/greentrail/internal/questionnaire"
	"github.com/rshade/greentrail/internal/sink"
	"github.com/rshade/greentrail/internal/statestore"
)

// projectCacheTTL bounds how long a project record is reused within one run.
const projectCacheTTL = 5 * time.Minute

// newCalculator returns a calculator over the configured factor table, or the
// built-in table when none is configured. fileOverride wins over the config.
func newCalculator(cfg *config.Config, fileOverride string) (*greenops.Calculator, error) {
	path := cfg.Factors.File
	if fileOverride != "" {
		path = fileOverride
	}
	if path == "" {
		return greenops.Default(), nil
	}
	factors, err := greenops.LoadFactors(path)
	if err != nil {
		return nil, err
	}
	return greenops.NewCalculator(factors)
}

// newBackend opens the configured storage backend.
func newBackend(cfg *config.Config) (statestore.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return statestore.NewMemoryBackend(cfg.Storage.MaxEntryBytes), nil
	case config.BackendFile, "":
		dir, err := cfg.StateDirectory()
		if err != nil {
			return nil, err
		}
		ttl := statestore.TTLFromEnv()
		if cfg.Storage.TTL != "" {
			if ttl, err = statestore.ParseTTL(cfg.Storage.TTL); err != nil {
				return nil, fmt.Errorf("storage.ttl: %w", err)
			}
		}
		opts := []statestore.FileOption{statestore.WithTTL(ttl)}
		if cfg.Storage.MaxEntryBytes > 0 {
			opts = append(opts, statestore.WithMaxEntryBytes(cfg.Storage.MaxEntryBytes))
		}
		return statestore.NewFileBackend(dir, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newSink returns the configured submission sinks.
func newSink(ctx context.Context, cfg *config.Config, calc *greenops.Calculator) questionnaire.Sink {
	var sinks sink.MultiSink
	if cfg.Sinks.Log {
		sinks = append(sinks, sink.NewLogSink(*logging.FromContext(ctx), calc))
	}
	if cfg.Sinks.File != "" {
		sinks = append(sinks, sink.NewFileSink(cfg.Sinks.File))
	}
	return sinks
}

// newProvider returns a cached provider over the configured project files
// plus any given on the command line.
func newProvider(cfg *config.Config, extraFiles ...string) projects.Provider {
	files := append(append([]string{}, extraFiles...), cfg.Projects.Files...)
	return projects.NewCachingProvider(projects.NewFileProvider(files...), cfg.Projects.CacheSize, projectCacheTTL)
}

// outputFormat returns --output when set, otherwise the configured default.
func outputFormat(cmd *cobra.Command) string {
	if f, _ := cmd.Flags().GetString("output"); f != "" {
		return f
	}
	return config.GetDefaultOutputFormat()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
