// Package settings holds the process-wide preferences that survive restarts:
// the debug flag and the forced locale. They are read from durable storage once
// at startup and written back on every change.
package settings

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/logging"
)

// Store is the durable key/value storage behind Settings.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Settings is passed explicitly to whoever needs it. Not safe for concurrent use.
type Settings struct {
	store  Store
	level  zap.AtomicLevel
	debug  bool
	locale string
}

// Load reads the persisted values and applies the debug flag to level.
func Load(ctx context.Context, store Store, level zap.AtomicLevel) (*Settings, error) {
	s := &Settings{store: store, level: level}

	raw, ok, err := store.Get(ctx, repository.KeyDebugMode)
	if err != nil {
		return nil, fmt.Errorf("load debug flag: %w", err)
	}
	if ok {
		on, perr := strconv.ParseBool(raw)
		if perr != nil {
			// unreadable flag: fall back to off and overwrite it
			if err := store.Set(ctx, repository.KeyDebugMode, strconv.FormatBool(false)); err != nil {
				return nil, fmt.Errorf("rewrite debug flag %q: %w", raw, err)
			}
		}
		s.debug = on
	}
	if s.locale, _, err = store.Get(ctx, repository.KeyForcedLocale); err != nil {
		return nil, fmt.Errorf("load forced locale: %w", err)
	}
	s.level.SetLevel(logging.LevelFor(s.debug))
	return s, nil
}

func (s *Settings) Debug() bool { return s.debug }

// Locale is the forced locale override, empty when none is set.
func (s *Settings) Locale() string { return s.locale }

// SetDebug persists the flag and switches the debug channel on or off.
func (s *Settings) SetDebug(ctx context.Context, on bool) error {
	if err := s.store.Set(ctx, repository.KeyDebugMode, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("save debug flag: %w", err)
	}
	s.debug = on
	s.level.SetLevel(logging.LevelFor(on))
	return nil
}

// SetLocale persists the forced locale. An empty tag clears the override.
func (s *Settings) SetLocale(ctx context.Context, tag string) error {
	if err := s.store.Set(ctx, repository.KeyForcedLocale, tag); err != nil {
		return fmt.Errorf("save forced locale: %w", err)
	}
	s.locale = tag
	return nil
}
