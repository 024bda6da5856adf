package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestThemeParseAndResolve(t *testing.T) {
	tests := []struct {
		in         string
		want       Theme
		systemDark bool
		resolved   Theme
	}{
		{"light", ThemeLight, true, ThemeLight},
		{" Dark ", ThemeDark, false, ThemeDark},
		{"SYSTEM", ThemeSystem, true, ThemeDark},
		{"system", ThemeSystem, false, ThemeLight},
	}
	for _, tt := range tests {
		got, err := ParseTheme(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseTheme(%q) = %q, %v", tt.in, got, err)
		}
		if r := got.Resolve(tt.systemDark); r != tt.resolved {
			t.Fatalf("%q.Resolve(%v) = %q", got, tt.systemDark, r)
		}
	}
	if _, err := ParseTheme("sepia"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestManagerFileStoreWriteThrough(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	m := NewManager(NewFileStore(path), nil)
	if err := m.Set(ctx, ThemeDark); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	theme, err := m.Init(ctx)
	if err != nil || theme != DefaultTheme {
		t.Fatalf("Init = %q, %v", theme, err)
	}
	if err := m.Set(ctx, ThemeDark); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, Theme("neon")); err == nil {
		t.Fatal("invalid theme must be refused")
	}
	if m.Theme() != ThemeDark {
		t.Fatalf("theme = %q", m.Theme())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "ui-theme: dark\n" {
		t.Fatalf("file = %q", data)
	}

	other := NewManager(NewFileStore(path), nil)
	if theme, _ := other.Init(ctx); theme != ThemeDark {
		t.Fatalf("second manager loaded %q", theme)
	}
}

func TestManagerIgnoresInvalidStoredValue(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("ui-theme: purple\nother: kept\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	m := NewManager(store, nil)
	if theme, err := m.Init(ctx); err != nil || theme != ThemeSystem {
		t.Fatalf("Init = %q, %v", theme, err)
	}
	_ = m.Set(ctx, ThemeLight)
	if v, err := store.Load(ctx, "other"); err != nil || v != "kept" {
		t.Fatalf("unrelated key lost: %q %v", v, err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte(":\n- [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(NewFileStore(path), nil).Init(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWatchUnsupportedForFileStore(t *testing.T) {
	m := NewManager(NewFileStore(filepath.Join(t.TempDir(), "p.yaml")), nil)
	_, _ = m.Init(context.Background())
	if _, err := m.Watch(context.Background()); !errors.Is(err, ErrWatchUnsupported) {
		t.Fatalf("expected ErrWatchUnsupported, got %v", err)
	}
}

func TestRedisStoreSyncsManagers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewManager(NewRedisStore(rdb, "test"), nil)
	b := NewManager(NewRedisStore(rdb, "test"), nil)
	if _, err := a.Init(ctx); err != nil {
		t.Fatalf("Init a: %v", err)
	}
	if _, err := b.Init(ctx); err != nil {
		t.Fatalf("Init b: %v", err)
	}

	changes, err := b.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := a.Set(ctx, ThemeLight); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case got := <-changes:
		if got != ThemeLight {
			t.Fatalf("watched %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change not delivered")
	}
	if b.Theme() != ThemeLight {
		t.Fatalf("b theme = %q", b.Theme())
	}
	if v, _ := mr.Get("test:prefs:ui-theme"); v != "light" {
		t.Fatalf("stored %q", v)
	}

	cancel()
	for range changes {
	}
}
