package prefs

import (
	"fmt"
	"strings"
)

// Theme is the user's color scheme choice.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultTheme applies when nothing was stored.
const DefaultTheme = ThemeSystem

// StorageKey is the key the theme is stored under.
const StorageKey = "ui-theme"

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// ParseTheme accepts a theme name in any case.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return t, nil
}

// Resolve maps ThemeSystem onto light or dark using the platform setting.
func (t Theme) Resolve(systemDark bool) Theme {
	if t != ThemeSystem {
		return t
	}
	if systemDark {
		return ThemeDark
	}
	return ThemeLight
}
