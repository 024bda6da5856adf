package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotInitialized is returned by Set and Watch before Init.
	ErrNotInitialized = errors.New("preferences not initialized")
	// ErrWatchUnsupported is returned by Watch when the store cannot report changes.
	ErrWatchUnsupported = errors.New("preference store cannot watch")
)

// Manager holds the current theme. Reads never touch the store; Init loads
// it once and Set writes through.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu    sync.RWMutex
	theme Theme
	ready bool
}

// NewManager creates an uninitialized manager; call [Manager.Init] first.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger, theme: DefaultTheme}
}

// Init loads the stored theme. A missing or unrecognized value falls back to
// DefaultTheme. Calling Init again reloads.
func (m *Manager) Init(ctx context.Context) (Theme, error) {
	raw, err := m.store.Load(ctx, StorageKey)
	theme := DefaultTheme
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return DefaultTheme, fmt.Errorf("load theme: %w", err)
	default:
		if t, perr := ParseTheme(raw); perr == nil {
			theme = t
		} else {
			m.logger.Warn("ignoring stored theme", zap.String("value", raw))
		}
	}

	m.mu.Lock()
	m.theme = theme
	m.ready = true
	m.mu.Unlock()
	return theme, nil
}

// Theme returns the current theme, DefaultTheme before Init.
func (m *Manager) Theme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// Resolve returns the concrete theme to render.
func (m *Manager) Resolve(systemDark bool) Theme {
	return m.Theme().Resolve(systemDark)
}

// Set stores t and makes it current. The in-memory theme only changes when
// the store accepted it.
func (m *Manager) Set(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	m.mu.RLock()
	ready := m.ready
	m.mu.RUnlock()
	if !ready {
		return ErrNotInitialized
	}

	if err := m.store.Save(ctx, StorageKey, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	m.mu.Lock()
	m.theme = t
	m.mu.Unlock()
	return nil
}

// Watch applies theme changes made elsewhere until ctx ends. Each applied
// change is also sent on the returned channel, which closes with ctx.
func (m *Manager) Watch(ctx context.Context) (<-chan Theme, error) {
	m.mu.RLock()
	ready := m.ready
	m.mu.RUnlock()
	if !ready {
		return nil, ErrNotInitialized
	}
	w, ok := m.store.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	raw, err := w.Watch(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("watch theme: %w", err)
	}

	out := make(chan Theme, 1)
	go func() {
		defer close(out)
		for v := range raw {
			t, err := ParseTheme(v)
			if err != nil {
				t = DefaultTheme
			}
			m.mu.Lock()
			changed := m.theme != t
			m.theme = t
			m.mu.Unlock()
			if !changed {
				continue
			}
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
