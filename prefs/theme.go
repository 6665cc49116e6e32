package prefs

import (
	"context"
	"strconv"

	"github.com/olprint/storefront/core"
)

// themeKey is where the dark mode flag lives in the backing store
const themeKey = "darkMode"

// ThemeStore persists the customer's theme preference through the
// core.Memory interface. The value is read once at startup and written on
// every toggle; a missing or unparsable value means light mode.
type ThemeStore struct {
	memory core.Memory
	logger core.Logger
}

// NewThemeStore creates a theme store over the given backing memory
func NewThemeStore(memory core.Memory, logger core.Logger) *ThemeStore {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &ThemeStore{memory: memory, logger: logger}
}

// DarkMode reads the persisted preference. Defaults to false.
func (t *ThemeStore) DarkMode(ctx context.Context) bool {
	value, err := t.memory.Get(ctx, themeKey)
	if err != nil {
		t.logger.Warn("Theme preference read failed", map[string]interface{}{
			"operation": "prefs_read",
			"key":       themeKey,
			"error":     err.Error(),
		})
		return false
	}
	return value == "true"
}

// SetDarkMode persists the preference
func (t *ThemeStore) SetDarkMode(ctx context.Context, enabled bool) error {
	if err := t.memory.Set(ctx, themeKey, strconv.FormatBool(enabled), 0); err != nil {
		return err
	}
	t.logger.Debug("Theme preference saved", map[string]interface{}{
		"operation": "prefs_write",
		"key":       themeKey,
		"dark_mode": enabled,
	})
	return nil
}

// Toggle flips the preference and returns the new value
func (t *ThemeStore) Toggle(ctx context.Context) (bool, error) {
	next := !t.DarkMode(ctx)
	if err := t.SetDarkMode(ctx, next); err != nil {
		return false, err
	}
	return next, nil
}
