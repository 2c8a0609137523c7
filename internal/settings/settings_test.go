package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jask/planwizard/internal/database/repository"
)

type memStore struct {
	values map[string]string
	err    error
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func TestLoadAppliesPersistedValues(t *testing.T) {
	t.Parallel()

	store := &memStore{values: map[string]string{
		repository.KeyDebugMode:    "true",
		repository.KeyForcedLocale: "en-US",
	}}
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	s, err := Load(context.Background(), store, level)
	require.NoError(t, err)
	require.True(t, s.Debug())
	require.Equal(t, "en-US", s.Locale())
	require.Equal(t, zapcore.DebugLevel, level.Level())
}

func TestChangesArePersisted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memStore{values: map[string]string{}}
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	s, err := Load(ctx, store, level)
	require.NoError(t, err)
	require.False(t, s.Debug())
	require.Empty(t, s.Locale())

	require.NoError(t, s.SetDebug(ctx, true))
	require.NoError(t, s.SetLocale(ctx, "es-AR"))
	require.Equal(t, "true", store.values[repository.KeyDebugMode])
	require.Equal(t, "es-AR", store.values[repository.KeyForcedLocale])
	require.Equal(t, zapcore.DebugLevel, level.Level())

	reloaded, err := Load(ctx, store, zap.NewAtomicLevel())
	require.NoError(t, err)
	require.True(t, reloaded.Debug())
	require.Equal(t, "es-AR", reloaded.Locale())
}

func TestFailedWriteKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memStore{values: map[string]string{}}
	s, err := Load(ctx, store, zap.NewAtomicLevel())
	require.NoError(t, err)

	store.err = errors.New("disk full")
	require.Error(t, s.SetDebug(ctx, true))
	require.False(t, s.Debug())
	require.Error(t, s.SetLocale(ctx, "en-US"))
	require.Empty(t, s.Locale())
}

func TestLoadRewritesCorruptDebugFlag(t *testing.T) {
	t.Parallel()

	store := &memStore{values: map[string]string{repository.KeyDebugMode: "maybe"}}
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)

	s, err := Load(context.Background(), store, level)
	require.NoError(t, err)
	require.False(t, s.Debug())
	require.Equal(t, "false", store.values[repository.KeyDebugMode])
	require.Equal(t, zapcore.InfoLevel, level.Level())
}
