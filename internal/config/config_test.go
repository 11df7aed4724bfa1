package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greentrail/internal/logging"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	for _, env := range []string{
		EnvLogLevel, EnvLogFormat, EnvLogFile, EnvOutputFormat, EnvStateDir,
		EnvStateBackend, EnvFactorsFile, EnvSubmissionLog, EnvSinkLog, EnvProjectDir,
	} {
		t.Setenv(env, "")
	}
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)
	return home
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg := New()
	assert.Equal(t, FormatTable, cfg.Output.DefaultFormat)
	assert.Equal(t, 2, cfg.Output.Precision)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.True(t, cfg.Sinks.Log)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.ConfigPath())
	require.NoError(t, cfg.Validate())

	dir, err := cfg.StateDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state"), dir)
}

func TestNewReadsGlobalFileAndEnv(t *testing.T) {
	home := isolateHome(t)
	writeYAML(t, home, `
output:
  default_format: json
  precision: 3
storage:
  backend: memory
sinks:
  log: false
  file: /tmp/subs.jsonl
`)
	t.Setenv(EnvOutputFormat, "table")
	t.Setenv(EnvSinkLog, "true")

	cfg := New()
	assert.Equal(t, "table", cfg.Output.DefaultFormat, "env wins over file")
	assert.Equal(t, 3, cfg.Output.Precision)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.True(t, cfg.Sinks.Log)
	assert.Equal(t, "/tmp/subs.jsonl", cfg.Sinks.File)
}

func TestLoad(t *testing.T) {
	isolateHome(t)

	t.Run("valid", func(t *testing.T) {
		path := writeYAML(t, t.TempDir(), "factors:\n  file: factors.yaml\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "factors.yaml", cfg.Factors.File)
		assert.Equal(t, path, cfg.ConfigPath())
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeYAML(t, t.TempDir(), "output:\n  default_format: xml\n  precision: 9\nstorage:\n  backend: s3\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "default_format")
		assert.ErrorContains(t, err, "precision")
		assert.ErrorContains(t, err, "storage.backend")
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeYAML(t, t.TempDir(), "output: [")
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	isolateHome(t)
	cfg := Default()
	cfg.Projects.Files = []string{"a.yaml", "b.yaml"}
	cfg.Storage.TTL = "72h"
	cfg.SetConfigPath(filepath.Join(t.TempDir(), "nested", "config.yaml"))
	require.NoError(t, cfg.Save())

	loaded, err := Load(cfg.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, cfg.Projects, loaded.Projects)
	assert.Equal(t, "72h", loaded.Storage.TTL)

	assert.Error(t, Default().Save(), "no path set")
}

func TestShallowMergeYAML(t *testing.T) {
	isolateHome(t)
	target := Default()
	target.Logging.File = "/var/log/greentrail.log"
	target.Projects = ProjectsConfig{Files: []string{"global.yaml"}, CacheSize: 10}

	overlay := writeYAML(t, t.TempDir(), `
logging:
  level: debug
projects:
  files: [local.yaml]
unknown_section:
  whatever: true
`)
	require.NoError(t, ShallowMergeYAML(target, overlay))

	assert.Equal(t, "debug", target.Logging.Level)
	assert.Empty(t, target.Logging.File, "section is replaced, not merged")
	assert.Equal(t, ProjectsConfig{Files: []string{"local.yaml"}}, target.Projects)
	assert.Equal(t, FormatTable, target.Output.DefaultFormat, "absent section untouched")

	require.Error(t, ShallowMergeYAML(nil, overlay))
	require.Error(t, ShallowMergeYAML(target, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestResolveProjectDir(t *testing.T) {
	isolateHome(t)
	ctx := context.Background()

	root := t.TempDir()
	projectDir := filepath.Join(root, ProjectDirName)
	require.NoError(t, os.MkdirAll(projectDir, 0o750))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	assert.Equal(t, projectDir, ResolveProjectDir(ctx, "", nested), "walks up")
	assert.Equal(t, projectDir, ResolveProjectDir(ctx, root, ""), "flag")
	assert.Equal(t, projectDir, ResolveProjectDir(ctx, projectDir, ""), "no double append")

	t.Setenv(EnvProjectDir, filepath.Join(root, "elsewhere"))
	assert.Equal(t, filepath.Join(root, "elsewhere", ProjectDirName), ResolveProjectDir(ctx, "", nested))
}

func TestNewWithProjectDir(t *testing.T) {
	isolateHome(t)
	ctx := context.Background()

	projectDir := filepath.Join(t.TempDir(), ProjectDirName)
	assert.Equal(t, FormatTable, NewWithProjectDir(ctx, projectDir).Output.DefaultFormat, "no overlay")

	writeYAML(t, projectDir, "output:\n  default_format: json\n  precision: 1\n")
	cfg := NewWithProjectDir(ctx, projectDir)
	assert.Equal(t, FormatJSON, cfg.Output.DefaultFormat)

	t.Setenv(EnvOutputFormat, "table")
	assert.Equal(t, FormatTable, NewWithProjectDir(ctx, projectDir).Output.DefaultFormat)

	writeYAML(t, projectDir, "output: [")
	assert.Equal(t, FormatTable, NewWithProjectDir(ctx, projectDir).Output.DefaultFormat, "broken overlay ignored")
}

func TestEnsureGitignore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ProjectDirName)
	created, err := EnsureGitignore(dir)
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, GitignoreContent(), string(data))

	created, err = EnsureGitignore(dir)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoadDotEnv(t *testing.T) {
	home := isolateHome(t)
	wd := t.TempDir()
	t.Chdir(wd)

	require.NoError(t, os.WriteFile(filepath.Join(wd, ".env"), []byte("GREENTRAIL_LOG_LEVEL=debug\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"),
		[]byte("GREENTRAIL_LOG_LEVEL=warn\nGREENTRAIL_STATE_BACKEND=memory\n"), 0o600))
	// isolateHome set these to "", which counts as set for godotenv.
	require.NoError(t, os.Unsetenv(EnvLogLevel))
	require.NoError(t, os.Unsetenv(EnvStateBackend))

	loaded, err := LoadDotEnv()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "debug", os.Getenv(EnvLogLevel), "working directory file wins")
	assert.Equal(t, "memory", os.Getenv(EnvStateBackend))
}

func TestGlobalConfig(t *testing.T) {
	isolateHome(t)
	cfg := GetGlobalConfig()
	assert.Same(t, cfg, GetGlobalConfig())
	assert.Equal(t, FormatTable, GetDefaultOutputFormat())
	assert.Equal(t, 2, GetOutputPrecision())

	replaced := Default()
	replaced.Output.Precision = 4
	SetGlobalConfig(replaced)
	assert.Equal(t, 4, GetOutputPrecision())
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	assert.Equal(t, logging.OutputStderr, lc.ToLoggingConfig().Output)

	lc.File = "/tmp/x.log"
	got := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, "/tmp/x.log", got.File)
	assert.Equal(t, "json", got.Format)
}
