package statestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greentrail/internal/questionnaire"
)

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, b.Directory())

	key := Key("p1", "")
	data := []byte(`{"hello":"world"}`)

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, b.Set(key, data))
		got, getErr := b.Get(key)
		require.NoError(t, getErr)
		assert.JSONEq(t, string(data), string(got))

		_, statErr := os.Stat(filepath.Join(dir, "greentrail%3Aquestionnaire%3Ap1.json"))
		require.NoError(t, statErr)

		keys, keysErr := b.Keys()
		require.NoError(t, keysErr)
		assert.Equal(t, []string{key}, keys)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, b.Delete(key))
		require.NoError(t, b.Delete(key))
		_, getErr := b.Get(key)
		assert.ErrorIs(t, getErr, ErrNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		assert.ErrorIs(t, b.Set("", data), ErrInvalidKey)
		_, getErr := b.Get("")
		assert.ErrorIs(t, getErr, ErrInvalidKey)
	})

	t.Run("rejects non-JSON payload", func(t *testing.T) {
		assert.Error(t, b.Set(key, []byte("nope")))
	})
}

func TestFileBackendMaxEntryBytes(t *testing.T) {
	b, err := NewFileBackend(t.TempDir(), WithMaxEntryBytes(8))
	require.NoError(t, err)

	err = b.Set("k", []byte(`{"too":"large"}`))
	require.ErrorIs(t, err, ErrEntryTooLarge)
	_, err = b.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackendExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b, err := NewFileBackend(t.TempDir(), WithTTL(3600), WithFileClock(clock))
	require.NoError(t, err)

	require.NoError(t, b.Set("a", []byte(`{}`)))
	now = now.Add(30 * time.Minute)
	require.NoError(t, b.Set("b", []byte(`{}`)))

	now = now.Add(45 * time.Minute)
	_, err = b.Get("a")
	require.ErrorIs(t, err, ErrNotFound, "expired entry reads as missing")
	_, err = b.Get("b")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	require.NoError(t, b.Set("c", []byte(`{}`)))
	removed, err := b.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	keys, err := b.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys)
}

func TestFileBackendExpiredStateIsFresh(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b, err := NewFileBackend(t.TempDir(), WithTTL(MinTTLSeconds), WithFileClock(func() time.Time { return now }))
	require.NoError(t, err)
	a := NewAdapter(b)

	a.Save(ctx, "p1", sampleState())
	_, ok := a.Load(ctx, "p1")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = a.Load(ctx, "p1")
	assert.False(t, ok)
}

func TestFileBackendDamagedEnvelope(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "greentrail%3Aquestionnaire%3Ap1.json")
	require.NoError(t, os.WriteFile(path, []byte("\x00garbage"), 0o600))

	_, ok := NewAdapter(b).Load(ctx, "p1")
	assert.False(t, ok)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "damaged file must be removed")
}

func TestFileBackendKeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	scoped := NewAdapter(b).ForParticipant("1")
	s := sampleState()
	s.CurrentStep = questionnaire.StepTrainKm
	s.Answers.FirstName = "Ada"
	s.Answers.Email = "ada@example.org"
	scoped.Save(ctx, "p", s)

	_, ok := NewAdapter(b).Load(ctx, "p_1")
	assert.False(t, ok, "project p_1 must not see participant 1 of project p")

	got, ok := scoped.Load(ctx, "p")
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Answers.FirstName)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileBackendIgnoresForeignEnvelope(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, b.Set("a", []byte(`{"owner":"a"}`)))
	// An envelope copied under another key's file name.
	raw, err := os.ReadFile(b.keyToFilePath("a"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(b.keyToFilePath("b"), raw, 0o600))

	_, err = b.Get("b")
	require.ErrorIs(t, err, ErrNotFound)
	got, err := b.Get("a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"a"}`, string(got))
}

func TestFileBackendTTLRefreshedAfterResume(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b, err := NewFileBackend(t.TempDir(), WithTTL(3600), WithFileClock(func() time.Time { return now }))
	require.NoError(t, err)
	a := NewAdapter(b)

	s := sampleState()
	a.Save(ctx, "p1", s)

	// The participant comes back and confirms the same step again.
	now = now.Add(50 * time.Minute)
	got, ok := a.Load(ctx, "p1")
	require.True(t, ok)
	a.Save(ctx, "p1", *got)

	now = now.Add(50 * time.Minute)
	_, ok = a.Load(ctx, "p1")
	assert.True(t, ok, "saving after a resume extends the lifetime")
}

func TestParseTTL(t *testing.T) {
	ttl, err := ParseTTL("86400")
	require.NoError(t, err)
	assert.Equal(t, 86400, ttl)

	ttl, err = ParseTTL("72h")
	require.NoError(t, err)
	assert.Equal(t, 3*86400, ttl)

	_, err = ParseTTL("10")
	require.ErrorIs(t, err, ErrInvalidTTL)

	_, err = ParseTTL("soon")
	require.Error(t, err)
}

func TestTTLFromEnv(t *testing.T) {
	t.Setenv(EnvTTLSeconds, "")
	assert.Equal(t, DefaultTTLSeconds, TTLFromEnv())

	t.Setenv(EnvTTLSeconds, "7200")
	assert.Equal(t, 7200, TTLFromEnv())

	t.Setenv(EnvTTLSeconds, "-5")
	assert.Equal(t, DefaultTTLSeconds, TTLFromEnv())
}
